package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/taxonomy"
)

func newTestCatalog(t *testing.T) (*Catalog, datastore.Interface) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "catalog.db")

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	require.NoError(t, datastore.EnsureDefaultTaxonomy(ds))

	return New(ds, taxonomy.NewClassifier(ds, nil)), ds
}

func tigerIdentification() *gemini.Identification {
	return &gemini.Identification{
		CommonName:       "Malayan Tiger",
		ScientificName:   "Panthera tigris jacksoni",
		AnimalClass:      "Mammals",
		Description:      "Large striped cat",
		Habitat:          "Tropical forest",
		Threats:          "Poaching",
		Conservation:     "Protected",
		EndangeredStatus: gemini.StatusConcern,
		Raw:              `{"common_name": "Malayan Tiger"}`,
	}
}

func TestResolveCreatesNewSpecies(t *testing.T) {
	catalog, ds := newTestCatalog(t)

	species, isNew, err := catalog.Resolve(context.Background(), tigerIdentification())
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEmpty(t, species.ID)
	assert.Equal(t, "Malayan Tiger", species.CommonName)
	assert.Equal(t, gemini.StatusConcern, species.EndangeredStatus)

	// Keyword stage assigned the mammal class
	class, err := ds.GetAnimalClassByName("Mammals")
	require.NoError(t, err)
	assert.Equal(t, class.ID, species.AnimalClassID)
}

func TestResolveDeduplicatesByScientificName(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	first, isNew, err := catalog.Resolve(context.Background(), tigerIdentification())
	require.NoError(t, err)
	require.True(t, isNew)

	again := tigerIdentification()
	again.CommonName = "Tiger (Malayan)"
	second, isNew, err := catalog.Resolve(context.Background(), again)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveDeduplicatesByCommonNameSubstring(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	first, _, err := catalog.Resolve(context.Background(), tigerIdentification())
	require.NoError(t, err)

	// Different scientific spelling, overlapping common name
	variant := tigerIdentification()
	variant.ScientificName = "P. tigris jacksoni"
	variant.CommonName = "Tiger"
	second, isNew, err := catalog.Resolve(context.Background(), variant)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveDegradedIdentificationIsCataloged(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	ident := gemini.DegradedIdentification("Raw response: gibberish")
	species, isNew, err := catalog.Resolve(context.Background(), ident)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, gemini.FailedCommonName, species.CommonName)
	assert.Equal(t, gemini.FailedScientific, species.ScientificName)

	// A later degraded scan reuses the same placeholder row
	again, isNew, err := catalog.Resolve(context.Background(), gemini.DegradedIdentification("x"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, species.ID, again.ID)
}
