package scanner

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semai/wildscan-go/internal/blobstore"
	"github.com/semai/wildscan-go/internal/catalog"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/observability"
	"github.com/semai/wildscan-go/internal/taxonomy"
)

type stubIdentifier struct {
	ident *gemini.Identification
	err   error
	calls int
}

func (s *stubIdentifier) IdentifySpecies(_ context.Context, _ []byte, _, _ string) (*gemini.Identification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	ident := *s.ident
	return &ident, nil
}

type fixture struct {
	scanner *Scanner
	ds      datastore.Interface
	blobs   *blobstore.MemoryGateway
	user    *datastore.User
}

func newFixture(t *testing.T, identifier Identifier) *fixture {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "scanner.db")
	settings.Scanner.MaxFileSize = DefaultMaxFileSizeBytes
	settings.Scanner.DefaultLocation.Label = "Kuala Lumpur, Malaysia"
	settings.Scanner.DefaultLocation.City = "Kuala Lumpur"
	settings.Scanner.DefaultLocation.Country = "Malaysia"

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	require.NoError(t, datastore.EnsureDefaultTaxonomy(ds))

	user := &datastore.User{Email: "ranger@example.com", FirstName: "Test", LastName: "Ranger"}
	require.NoError(t, ds.SaveUser(user))

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	blobs := blobstore.NewMemoryGateway()
	cat := catalog.New(ds, taxonomy.NewClassifier(ds, nil))

	return &fixture{
		scanner: New(settings, ds, cat, identifier, blobs, metrics),
		ds:      ds,
		blobs:   blobs,
		user:    user,
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tigerIdent() *gemini.Identification {
	return &gemini.Identification{
		CommonName:       "Malayan Tiger",
		ScientificName:   "Panthera tigris jacksoni",
		AnimalClass:      "Mammals",
		Description:      "Large striped cat",
		Habitat:          "Tropical forest",
		Threats:          "Poaching",
		Conservation:     "Protected",
		EndangeredStatus: gemini.StatusConcern,
	}
}

func TestProcessNewConcernSpecies(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})

	result, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "tiger.png",
		ImageData: pngBytes(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "success", result.Status)
	assert.True(t, result.IsNewRecord)
	assert.True(t, result.IsNewSpecies)
	assert.False(t, result.Degraded)
	assert.False(t, result.UsedFallbackImage)
	assert.Equal(t, "Kuala Lumpur, Malaysia", result.LocationString)
	assert.Equal(t, "Malayan Tiger", result.Species.CommonName)

	// Concern tier rewards
	assert.Equal(t, 80, result.Rewards.PointsEarned)
	assert.Equal(t, 40, result.Rewards.CurrencyEarned)
	assert.Equal(t, 80, result.Rewards.TotalPoints)
	assert.Equal(t, 40, result.Rewards.TotalCurrency)

	// Photo landed in the object store under the returned key
	assert.True(t, strings.HasPrefix(result.ImageURL, "scanned_species_"), result.ImageURL)
	exists, err := f.blobs.Exists(context.Background(), result.ImageURL)
	require.NoError(t, err)
	assert.True(t, exists)

	// Ledger entry written
	entries, err := f.ds.GetPointsTransactions(f.user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TransactionTypeScan, entries[0].TransactionType)
	assert.Equal(t, "Scanned Malayan Tiger - Concern", entries[0].Description)
}

func TestProcessDuplicateScanIsNotRewarded(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})
	ctx := context.Background()
	data := pngBytes(t)

	first, err := f.scanner.Process(ctx, &Request{UserID: f.user.ID, Filename: "a.png", ImageData: data})
	require.NoError(t, err)
	require.True(t, first.IsNewRecord)

	second, err := f.scanner.Process(ctx, &Request{UserID: f.user.ID, Filename: "b.png", ImageData: data})
	require.NoError(t, err)
	assert.False(t, second.IsNewRecord)
	assert.False(t, second.IsNewSpecies)
	assert.Equal(t, first.ScanRecordID, second.ScanRecordID)
	assert.Equal(t, 0, second.Rewards.PointsEarned)
	assert.Equal(t, 0, second.Rewards.CurrencyEarned)

	// Totals unchanged from the first scan
	assert.Equal(t, 80, second.Rewards.TotalPoints)
	assert.Equal(t, 40, second.Rewards.TotalCurrency)

	entries, err := f.ds.GetPointsTransactions(f.user.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessSameSpeciesNewLocationIsRewarded(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})
	ctx := context.Background()
	data := pngBytes(t)

	first, err := f.scanner.Process(ctx, &Request{UserID: f.user.ID, Filename: "a.png", ImageData: data})
	require.NoError(t, err)

	second, err := f.scanner.Process(ctx, &Request{
		UserID:    f.user.ID,
		Filename:  "b.png",
		ImageData: data,
		Location:  &Location{City: "Taman Negara", Country: "Malaysia"},
	})
	require.NoError(t, err)
	assert.True(t, second.IsNewRecord)
	assert.False(t, second.IsNewSpecies)
	assert.NotEqual(t, first.ScanRecordID, second.ScanRecordID)
	assert.Equal(t, 160, second.Rewards.TotalPoints)
}

func TestProcessProviderFailureFailsScan(t *testing.T) {
	stub := &stubIdentifier{err: errors.Newf("gemini request failed: %w", errors.ErrProviderUnavailable).
		Category(errors.CategoryModelProvider).
		Build()}
	f := newFixture(t, stub)

	_, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "blurry.png",
		ImageData: pngBytes(t),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrProviderUnavailable)
	assert.Equal(t, 1, stub.calls)

	// Nothing cataloged, nothing rewarded while the provider is down
	entries, err := f.ds.GetPointsTransactions(f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	records, err := f.ds.GetScanRecordsByUser(f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
	user, err := f.ds.GetUser(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
	assert.Equal(t, 0, user.Currency)
}

func TestProcessMalformedResponseDegrades(t *testing.T) {
	// A reachable provider that returns unparseable output yields a
	// degraded identification with a nil error; the scan still succeeds.
	f := newFixture(t, &stubIdentifier{ident: gemini.DegradedIdentification("Raw response: not json")})

	result, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "blurry.png",
		ImageData: pngBytes(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "success", result.Status)
	assert.True(t, result.Degraded)
	assert.Equal(t, gemini.FailedCommonName, result.Species.CommonName)
	assert.Equal(t, gemini.FailedScientific, result.Species.ScientificName)

	// Unknown status pays the common tier
	assert.True(t, result.IsNewRecord)
	assert.Equal(t, 20, result.Rewards.PointsEarned)
	assert.Equal(t, 10, result.Rewards.CurrencyEarned)
}

func TestProcessUploadFailureUsesFallbackImage(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})
	f.blobs.FailPuts = true

	result, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "tiger.png",
		ImageData: pngBytes(t),
	})
	require.NoError(t, err)

	assert.True(t, result.UsedFallbackImage)
	assert.Contains(t, result.ImageURL, "unsplash.com")
	// Scan still succeeds and rewards normally
	assert.True(t, result.IsNewRecord)
	assert.Equal(t, 80, result.Rewards.PointsEarned)
}

func TestProcessUploadFailureUnknownSpeciesGenericPlaceholder(t *testing.T) {
	ident := tigerIdent()
	ident.CommonName = "Axolotl"
	ident.ScientificName = "Ambystoma mexicanum"
	f := newFixture(t, &stubIdentifier{ident: ident})
	f.blobs.FailPuts = true

	result, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "axolotl.png",
		ImageData: pngBytes(t),
	})
	require.NoError(t, err)
	assert.True(t, result.UsedFallbackImage)
	assert.Equal(t, blobstore.GenericPlaceholder, result.ImageURL)
}

func TestProcessRejectsInvalidImage(t *testing.T) {
	stub := &stubIdentifier{ident: tigerIdent()}
	f := newFixture(t, stub)

	_, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "notes.txt",
		ImageData: []byte("not an image at all"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidImage)
	// The provider was never called
	assert.Equal(t, 0, stub.calls)
}

func TestProcessRejectsOversizeImage(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})

	oversized := make([]byte, DefaultMaxFileSizeBytes+1)
	_, err := f.scanner.Process(context.Background(), &Request{
		UserID:    f.user.ID,
		Filename:  "huge.png",
		ImageData: oversized,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOversizeImage)
}

func TestProcessUnknownUserFails(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})

	_, err := f.scanner.Process(context.Background(), &Request{
		UserID:    "ghost",
		Filename:  "tiger.png",
		ImageData: pngBytes(t),
	})
	require.Error(t, err)
}

func TestRewardFor(t *testing.T) {
	assert.Equal(t, Reward{Points: 80, Currency: 40}, RewardFor("Concern"))
	assert.Equal(t, Reward{Points: 80, Currency: 40}, RewardFor("concern"))
	assert.Equal(t, Reward{Points: 20, Currency: 10}, RewardFor("Not Concern"))
	assert.Equal(t, Reward{Points: 20, Currency: 10}, RewardFor("Unknown"))
	assert.Equal(t, Reward{Points: 20, Currency: 10}, RewardFor(""))
}

func TestRewardDescription(t *testing.T) {
	assert.Equal(t, "Scanned Malayan Tiger - Concern", RewardDescription("Malayan Tiger", "Concern"))
	assert.Equal(t, "Scanned Shoebill - Not Concern", RewardDescription("Shoebill", "not concern"))
}

func TestCapabilities(t *testing.T) {
	f := newFixture(t, &stubIdentifier{ident: tigerIdent()})

	caps := f.scanner.Capabilities()
	assert.Contains(t, caps.SupportedFormats, "HEIC")
	assert.Equal(t, "10MB", caps.MaxFileSize)
	assert.EqualValues(t, DefaultMaxFileSizeBytes, caps.MaxFileSizeBytes)
	assert.True(t, caps.HEICSupport)
}
