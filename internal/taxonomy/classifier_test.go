package taxonomy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
)

type stubClassifier struct {
	verdict *gemini.Classification
	err     error
	calls   int
}

func (s *stubClassifier) ClassifySpecies(_ context.Context, name string) (*gemini.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	verdict := *s.verdict
	verdict.SpeciesName = name
	return &verdict, nil
}

func newSeededStore(t *testing.T) datastore.Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "taxonomy.db")

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	require.NoError(t, datastore.EnsureDefaultTaxonomy(ds))
	return ds
}

func TestResolveUsesAIVerdict(t *testing.T) {
	ds := newSeededStore(t)
	ai := &stubClassifier{verdict: &gemini.Classification{Category: "Mammals", Confidence: "high"}}

	class, err := NewClassifier(ds, ai).Resolve(context.Background(), "Malayan Tiger")
	require.NoError(t, err)
	assert.Equal(t, "Mammals", class.ClassName)
	assert.Equal(t, 1, ai.calls)
}

func TestResolveFallsBackToKeywordsOnAIError(t *testing.T) {
	ds := newSeededStore(t)
	ai := &stubClassifier{err: errors.NewStd("provider down")}

	class, err := NewClassifier(ds, ai).Resolve(context.Background(), "Shoebill")
	require.NoError(t, err)
	assert.Equal(t, "Birds", class.ClassName)
}

func TestResolveFallsBackToKeywordsOnUnknownVerdict(t *testing.T) {
	ds := newSeededStore(t)
	ai := &stubClassifier{verdict: &gemini.Classification{Category: gemini.UnknownCategory}}

	class, err := NewClassifier(ds, ai).Resolve(context.Background(), "Poison Dart Frog")
	require.NoError(t, err)
	assert.Equal(t, "Amphibians", class.ClassName)
}

func TestResolveWithoutAI(t *testing.T) {
	ds := newSeededStore(t)
	classifier := NewClassifier(ds, nil)

	class, err := classifier.Resolve(context.Background(), "Rhinoceros Hornbill")
	require.NoError(t, err)
	assert.Equal(t, "Birds", class.ClassName)

	class, err = classifier.Resolve(context.Background(), "Great White Shark")
	require.NoError(t, err)
	assert.Equal(t, "Fish", class.ClassName)
}

func TestResolveDefaultsToBirds(t *testing.T) {
	ds := newSeededStore(t)
	ai := &stubClassifier{verdict: &gemini.Classification{Category: gemini.UnknownCategory}}

	// No keyword table matches this name
	class, err := NewClassifier(ds, ai).Resolve(context.Background(), "Mysterious Creature")
	require.NoError(t, err)
	assert.Equal(t, DefaultClassName, class.ClassName)
}

func TestResolveEmptyClassTable(t *testing.T) {
	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "empty.db")

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	_, err := NewClassifier(ds, nil).Resolve(context.Background(), "Anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoTaxonomyAvailable)
}

func TestMatchKeywords(t *testing.T) {
	assert.Equal(t, "Birds", matchKeywords("Shoebill"))
	assert.Equal(t, "Birds", matchKeywords("African Fish Eagle")) // bird keywords win over fish
	assert.Equal(t, "Mammals", matchKeywords("Sumatran Tiger"))
	assert.Equal(t, "Reptiles", matchKeywords("King Cobra Snake"))
	assert.Equal(t, "Insects", matchKeywords("Monarch Butterfly"))
	assert.Equal(t, "", matchKeywords("Mystery Organism"))
}
