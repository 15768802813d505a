// Package taxonomy resolves an identified species to one of the fixed
// animal classes, chaining AI classification with keyword matching and
// progressively safer defaults.
package taxonomy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/logging"
)

// DefaultClassName is the bucket used when every classification stage and
// lookup comes up empty-handed except the class table itself.
const DefaultClassName = "Birds"

// SpeciesClassifier is the model-backed classification stage. Satisfied by
// *gemini.Client.
type SpeciesClassifier interface {
	ClassifySpecies(ctx context.Context, speciesName string) (*gemini.Classification, error)
}

// Classifier maps species names onto animal class rows.
type Classifier struct {
	ds     datastore.Interface
	ai     SpeciesClassifier
	logger *slog.Logger
}

// NewClassifier builds a Classifier. ai may be nil, in which case only the
// keyword stage and the defaults run.
func NewClassifier(ds datastore.Interface, ai SpeciesClassifier) *Classifier {
	return &Classifier{
		ds:     ds,
		ai:     ai,
		logger: logging.ForService("taxonomy"),
	}
}

// Resolve returns the animal class for a species common name. The chain is:
// AI classification, keyword matching, the default bucket, the first class
// row. Only an empty class table is a hard failure.
func (c *Classifier) Resolve(ctx context.Context, commonName string) (*datastore.AnimalClass, error) {
	if c.ai != nil {
		verdict, err := c.ai.ClassifySpecies(ctx, commonName)
		switch {
		case err != nil:
			c.logger.Warn("AI classification failed, falling back to keyword matching",
				"common_name", commonName,
				"error", err)
		case verdict.Category != gemini.UnknownCategory:
			class, lookupErr := c.ds.GetAnimalClassByName(verdict.Category)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if class != nil {
				return class, nil
			}
			c.logger.Warn("AI category has no matching class row",
				"common_name", commonName,
				"category", verdict.Category)
		}
	}

	if category := matchKeywords(commonName); category != "" {
		c.logger.Info("Keyword classification",
			"common_name", commonName,
			"category", category)
		class, err := c.ds.GetAnimalClassByName(category)
		if err != nil {
			return nil, err
		}
		if class != nil {
			return class, nil
		}
	}

	class, err := c.ds.GetAnimalClassByName(DefaultClassName)
	if err != nil {
		return nil, err
	}
	if class != nil {
		c.logger.Warn("Using default animal class",
			"common_name", commonName,
			"class", DefaultClassName)
		return class, nil
	}

	first, err := c.ds.GetFirstAnimalClass()
	if err != nil {
		return nil, err
	}
	if first != nil {
		c.logger.Error("Using first available animal class",
			"common_name", commonName,
			"class", first.ClassName)
		return first, nil
	}

	return nil, errors.Newf("no animal classes available for %q: %w", commonName, errors.ErrNoTaxonomyAvailable).
		Category(errors.CategoryTaxonomy).
		Component("taxonomy").
		Context("common_name", commonName).
		Build()
}

// VerifyAssignment re-classifies a cataloged species and logs an advisory
// when the stored class disagrees with the current verdict. It never
// mutates the catalog.
func (c *Classifier) VerifyAssignment(ctx context.Context, commonName, storedClassName string) {
	if c.ai == nil {
		return
	}
	verdict, err := c.ai.ClassifySpecies(ctx, commonName)
	if err != nil || verdict.Category == gemini.UnknownCategory {
		return
	}
	if !strings.EqualFold(verdict.Category, storedClassName) {
		c.logger.Warn("Cataloged species class disagrees with current classification",
			"common_name", commonName,
			"stored_class", storedClassName,
			"suggested_class", verdict.Category,
			"confidence", verdict.Confidence)
	}
}
