package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semai/wildscan-go/internal/conf"
)

// newTestStore opens a SQLite store in a temp directory with the default
// taxonomy seeded.
func newTestStore(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	ds := New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	require.NoError(t, EnsureDefaultTaxonomy(ds))
	return ds
}

func createTestUser(t *testing.T, ds Interface) *User {
	t.Helper()
	user := &User{Email: "scanner@example.com", FirstName: "Test", LastName: "User"}
	require.NoError(t, ds.SaveUser(user))
	require.NotEmpty(t, user.ID)
	return user
}

func TestTaxonomyBootstrap(t *testing.T) {
	ds := newTestStore(t)

	classes, err := ds.GetAnimalClasses()
	require.NoError(t, err)
	assert.Len(t, classes, len(DefaultAnimalClasses))

	// Seeding again must not duplicate
	require.NoError(t, EnsureDefaultTaxonomy(ds))
	classes, err = ds.GetAnimalClasses()
	require.NoError(t, err)
	assert.Len(t, classes, len(DefaultAnimalClasses))

	birds, err := ds.GetAnimalClassByName("birds")
	require.NoError(t, err)
	require.NotNil(t, birds)
	assert.Equal(t, "Birds", birds.ClassName)

	missing, err := ds.GetAnimalClassByName("dragons")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := ds.GetFirstAnimalClass()
	require.NoError(t, err)
	require.NotNil(t, first)
}

func TestSpeciesUniqueScientificName(t *testing.T) {
	ds := newTestStore(t)

	birds, err := ds.GetAnimalClassByName("Birds")
	require.NoError(t, err)

	species := &Species{
		AnimalClassID:  birds.ID,
		CommonName:     "Shoebill",
		ScientificName: "Balaeniceps rex",
	}
	require.NoError(t, ds.CreateSpecies(species))

	dup := &Species{
		AnimalClassID:  birds.ID,
		CommonName:     "Shoebill Stork",
		ScientificName: "Balaeniceps rex",
	}
	err = ds.CreateSpecies(dup)
	require.Error(t, err)
	assert.True(t, isUniqueConstraintError(err), "expected uniqueness violation, got %v", err)

	found, err := ds.GetSpeciesByScientificName("Balaeniceps rex")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, species.ID, found.ID)
}

func TestSearchSpeciesByCommonName(t *testing.T) {
	ds := newTestStore(t)

	mammals, err := ds.GetAnimalClassByName("Mammals")
	require.NoError(t, err)

	require.NoError(t, ds.CreateSpecies(&Species{
		AnimalClassID:  mammals.ID,
		CommonName:     "Malayan Tiger",
		ScientificName: "Panthera tigris jacksoni",
	}))

	// Case-insensitive substring match
	found, err := ds.SearchSpeciesByCommonName("malayan tiger")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Panthera tigris jacksoni", found.ScientificName)

	found, err = ds.SearchSpeciesByCommonName("Tiger")
	require.NoError(t, err)
	require.NotNil(t, found)

	found, err = ds.SearchSpeciesByCommonName("Leopard")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindScanRecordSubstringContainment(t *testing.T) {
	ds := newTestStore(t)
	user := createTestUser(t, ds)

	record := &ScanRecord{
		UserID:    user.ID,
		SpeciesID: "species-1",
		Location:  "Kuala Lumpur, Malaysia",
	}
	require.NoError(t, ds.SaveScanRecord(record))

	// Query location contained in stored location
	found, err := ds.FindScanRecord(user.ID, "species-1", "Kuala Lumpur")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, record.ID, found.ID)

	// Stored location contained in query location
	found, err = ds.FindScanRecord(user.ID, "species-1", "kuala lumpur, malaysia, earth")
	require.NoError(t, err)
	require.NotNil(t, found)

	// Different species misses
	found, err = ds.FindScanRecord(user.ID, "species-2", "Kuala Lumpur")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Different user misses
	found, err = ds.FindScanRecord("someone-else", "species-1", "Kuala Lumpur")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindScanRecordEmptyLocation(t *testing.T) {
	ds := newTestStore(t)
	user := createTestUser(t, ds)

	require.NoError(t, ds.SaveScanRecord(&ScanRecord{
		UserID:    user.ID,
		SpeciesID: "species-1",
		Location:  "Kuala Lumpur, Malaysia",
	}))

	// An empty query location must not match records with a real location
	found, err := ds.FindScanRecord(user.ID, "species-1", "")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = ds.FindScanRecord(user.ID, "species-1", "   ")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Two records with empty locations still dedup against each other
	blank := &ScanRecord{UserID: user.ID, SpeciesID: "species-2", Location: " "}
	require.NoError(t, ds.SaveScanRecord(blank))
	found, err = ds.FindScanRecord(user.ID, "species-2", "")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, blank.ID, found.ID)
}

func TestRecordDiscoveryAtomicity(t *testing.T) {
	ds := newTestStore(t)
	user := createTestUser(t, ds)

	record := &ScanRecord{
		UserID:    user.ID,
		SpeciesID: "species-1",
		Location:  "Kuala Lumpur, Malaysia",
	}
	entry := &PointsTransaction{
		TransactionType: "species_scan",
		Points:          80,
		Currency:        40,
		Description:     "Scanned Malayan Tiger - Concern",
	}
	require.NoError(t, ds.RecordDiscovery(record, 80, 40, entry))

	updated, err := ds.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, updated.Points)
	assert.Equal(t, 40, updated.Currency)

	entries, err := ds.GetPointsTransactions(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "species_scan", entries[0].TransactionType)
	assert.Equal(t, record.ID, entries[0].ReferenceID)

	points, currency, err := ds.SumLedgerForUser(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, updated.Points, points)
	assert.EqualValues(t, updated.Currency, currency)
}

func TestRecordDiscoveryRollsBackOnMissingUser(t *testing.T) {
	ds := newTestStore(t)

	record := &ScanRecord{
		UserID:    "no-such-user",
		SpeciesID: "species-1",
		Location:  "Kuala Lumpur",
	}
	entry := &PointsTransaction{TransactionType: "species_scan", Points: 20, Currency: 10, Description: "x"}
	err := ds.RecordDiscovery(record, 20, 10, entry)
	require.Error(t, err)

	// Scan record insert must have been rolled back with the totals update
	found, findErr := ds.FindScanRecord("no-such-user", "species-1", "Kuala Lumpur")
	require.NoError(t, findErr)
	assert.Nil(t, found)
}

func TestLedgerTotalsStayConsistent(t *testing.T) {
	ds := newTestStore(t)
	user := createTestUser(t, ds)

	for i, grant := range []struct{ points, currency int }{{80, 40}, {20, 10}, {20, 10}} {
		record := &ScanRecord{
			UserID:    user.ID,
			SpeciesID: "species-" + string(rune('a'+i)),
			Location:  "Taman Negara",
		}
		entry := &PointsTransaction{
			TransactionType: "species_scan",
			Points:          grant.points,
			Currency:        grant.currency,
			Description:     "scan",
		}
		require.NoError(t, ds.RecordDiscovery(record, grant.points, grant.currency, entry))

		updated, err := ds.GetUser(user.ID)
		require.NoError(t, err)
		points, currency, err := ds.SumLedgerForUser(user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, updated.Points, points)
		assert.EqualValues(t, updated.Currency, currency)
	}

	updated, err := ds.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, updated.Points)
	assert.Equal(t, 60, updated.Currency)
}
