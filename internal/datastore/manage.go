package datastore

import (
	"log"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/semai/wildscan-go/internal/errors"
	"github.com/semai/wildscan-go/internal/logging"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow and logged by the GORM logger.
const DefaultSlowQueryThreshold = 1 * time.Second

// DefaultAnimalClasses is the fixed taxonomy vocabulary seeded at bootstrap.
// The order matters: "Birds" is the designated default bucket for the
// classification fallback chain.
var DefaultAnimalClasses = []string{
	"Birds",
	"Mammals",
	"Amphibians",
	"Reptiles",
	"Fish",
	"Arachnids",
	"Plants",
	"Mollusks",
	"Insects",
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(log.Default(), gormlogger.Config{
		SlowThreshold:             DefaultSlowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// performAutoMigration runs the GORM auto-migration for all entities.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&AnimalClass{},
		&Species{},
		&ScanRecord{},
		&User{},
		&PointsTransaction{},
	); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %w", dbType, err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	if debug {
		logging.Debug("Database connection initialized",
			"type", dbType,
			"connection", connectionInfo)
	}
	return nil
}

// EnsureDefaultTaxonomy seeds the fixed taxonomy classes when missing. Runs
// once at startup; the pipeline itself never writes to this table.
func EnsureDefaultTaxonomy(ds Interface) error {
	for _, name := range DefaultAnimalClasses {
		class, err := ds.GetAnimalClassByName(name)
		if err != nil {
			return err
		}
		if class != nil {
			continue
		}
		if err := ds.SaveAnimalClass(&AnimalClass{ClassName: name}); err != nil {
			return err
		}
	}
	return nil
}
