// Package catalog maintains the deduplicated species catalog. A species is
// keyed by scientific name, with a common-name similarity fallback so the
// same animal identified under slightly different names does not fork into
// duplicate rows.
package catalog

import (
	"context"
	"log/slog"

	"github.com/semai/wildscan-go/internal/datastore"
	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/gemini"
	"github.com/semai/wildscan-go/internal/logging"
	"github.com/semai/wildscan-go/internal/taxonomy"
)

// Catalog resolves identifications to species rows, creating them on first
// sighting.
type Catalog struct {
	ds         datastore.Interface
	classifier *taxonomy.Classifier
	logger     *slog.Logger
}

// New builds a Catalog backed by the given store and classifier.
func New(ds datastore.Interface, classifier *taxonomy.Classifier) *Catalog {
	return &Catalog{
		ds:         ds,
		classifier: classifier,
		logger:     logging.ForService("catalog"),
	}
}

// Resolve returns the species row for an identification, creating it when
// no existing row matches. Lookup order: exact scientific name, then
// common-name substring. isNew reports whether a row was created.
func (c *Catalog) Resolve(ctx context.Context, ident *gemini.Identification) (species *datastore.Species, isNew bool, err error) {
	existing, err := c.ds.GetSpeciesByScientificName(ident.ScientificName)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		c.logger.Debug("Species already cataloged",
			"scientific_name", ident.ScientificName,
			"species_id", existing.ID)
		go c.classifier.VerifyAssignment(context.WithoutCancel(ctx), existing.CommonName, c.classNameOf(existing))
		return existing, false, nil
	}

	existing, err = c.ds.SearchSpeciesByCommonName(ident.CommonName)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		c.logger.Info("Species matched by common name",
			"common_name", ident.CommonName,
			"scientific_name", existing.ScientificName,
			"species_id", existing.ID)
		return existing, false, nil
	}

	class, err := c.classifier.Resolve(ctx, ident.CommonName)
	if err != nil {
		return nil, false, err
	}

	created := &datastore.Species{
		AnimalClassID:    class.ID,
		CommonName:       ident.CommonName,
		ScientificName:   ident.ScientificName,
		Description:      ident.Description,
		Habitat:          ident.Habitat,
		Threats:          ident.Threats,
		Conservation:     ident.Conservation,
		EndangeredStatus: ident.EndangeredStatus,
		APIResponse:      ident.Raw,
	}
	if err := c.ds.CreateSpecies(created); err != nil {
		// A concurrent scan may have cataloged the same species between our
		// lookup and the insert. Re-resolve before giving up.
		if errors.IsCategory(err, errors.CategoryConflict) {
			raced, lookupErr := c.ds.GetSpeciesByScientificName(ident.ScientificName)
			if lookupErr == nil && raced != nil {
				c.logger.Info("Lost catalog insert race, using existing row",
					"scientific_name", ident.ScientificName,
					"species_id", raced.ID)
				return raced, false, nil
			}
		}
		return nil, false, errors.Newf("cataloging %q: %w", ident.ScientificName, errors.ErrCatalogWriteFailed).
			Category(errors.CategoryDatabase).
			Component("catalog").
			Context("scientific_name", ident.ScientificName).
			Build()
	}

	c.logger.Info("New species cataloged",
		"common_name", created.CommonName,
		"scientific_name", created.ScientificName,
		"animal_class_id", created.AnimalClassID,
		"species_id", created.ID)
	return created, true, nil
}

// classNameOf resolves the stored class name for advisory logging; best
// effort only.
func (c *Catalog) classNameOf(species *datastore.Species) string {
	classes, err := c.ds.GetAnimalClasses()
	if err != nil {
		return ""
	}
	for i := range classes {
		if classes[i].ID == species.AnimalClassID {
			return classes[i].ClassName
		}
	}
	return ""
}
