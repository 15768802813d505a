package runtime

import (
	"context"

	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/taxonomy"
)

// classifierStage converts a possibly-nil provider into the classifier
// stage, avoiding a non-nil interface wrapping a nil pointer.
func classifierStage(provider *gemini.Client) taxonomy.SpeciesClassifier {
	if provider == nil {
		return nil
	}
	return provider
}

// unavailableIdentifier stands in when no provider is configured; every
// scan fails until an API key is set, since identification has no
// fallback.
type unavailableIdentifier struct{}

func (unavailableIdentifier) IdentifySpecies(context.Context, []byte, string, string) (*gemini.Identification, error) {
	return nil, errors.Newf("no model provider configured: %w", errors.ErrProviderUnavailable).
		Category(errors.CategoryConfiguration).
		Component("runtime").
		Build()
}
