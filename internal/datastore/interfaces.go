// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"strings"

	"gorm.io/gorm"

	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the scan pipeline needs. Lookup methods return (nil, nil) when
// no matching row exists; errors are reserved for storage faults.
type Interface interface {
	Open() error
	Close() error

	// Taxonomy reference data
	GetAnimalClasses() ([]AnimalClass, error)
	GetAnimalClassByName(name string) (*AnimalClass, error)
	GetFirstAnimalClass() (*AnimalClass, error)
	SaveAnimalClass(class *AnimalClass) error

	// Species catalog
	GetSpecies(id string) (*Species, error)
	GetSpeciesByScientificName(scientificName string) (*Species, error)
	SearchSpeciesByCommonName(commonName string) (*Species, error)
	CreateSpecies(species *Species) error

	// Scan ledger
	FindScanRecord(userID, speciesID, location string) (*ScanRecord, error)
	SaveScanRecord(record *ScanRecord) error
	RecordDiscovery(record *ScanRecord, points, currency int, entry *PointsTransaction) error
	GetScanRecordsByUser(userID string) ([]ScanRecord, error)

	// Users and reward ledger
	GetUser(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	SaveUser(user *User) error
	GetPointsTransactions(userID string) ([]PointsTransaction, error)
	SumLedgerForUser(userID string) (points, currency int64, err error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// lookup runs fn and converts gorm's record-not-found into a nil result.
func lookup[T any](db *gorm.DB, dest *T) (*T, error) {
	if err := db.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Newf("datastore lookup failed: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return dest, nil
}

// GetAnimalClasses returns all taxonomy classes.
func (ds *DataStore) GetAnimalClasses() ([]AnimalClass, error) {
	var classes []AnimalClass
	if err := ds.DB.Order("created_at").Find(&classes).Error; err != nil {
		return nil, errors.Newf("getting animal classes: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return classes, nil
}

// GetAnimalClassByName returns the taxonomy class with the given name,
// matched case-insensitively, or nil when absent.
func (ds *DataStore) GetAnimalClassByName(name string) (*AnimalClass, error) {
	var class AnimalClass
	return lookup(ds.DB.Where("LOWER(class_name) = ?", strings.ToLower(name)), &class)
}

// GetFirstAnimalClass returns the first taxonomy class row, or nil when the
// table is empty.
func (ds *DataStore) GetFirstAnimalClass() (*AnimalClass, error) {
	var class AnimalClass
	return lookup(ds.DB.Order("created_at"), &class)
}

// SaveAnimalClass inserts a taxonomy class.
func (ds *DataStore) SaveAnimalClass(class *AnimalClass) error {
	if err := ds.DB.Create(class).Error; err != nil {
		return errors.Newf("saving animal class %q: %w", class.ClassName, err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// GetSpecies retrieves a species by its ID.
func (ds *DataStore) GetSpecies(id string) (*Species, error) {
	var species Species
	return lookup(ds.DB.Where("id = ?", id), &species)
}

// GetSpeciesByScientificName returns the species with the exact scientific
// name, or nil when absent.
func (ds *DataStore) GetSpeciesByScientificName(scientificName string) (*Species, error) {
	var species Species
	return lookup(ds.DB.Where("scientific_name = ?", scientificName), &species)
}

// SearchSpeciesByCommonName returns the first species whose common name
// contains the given name, matched case-insensitively, or nil when absent.
// This is the secondary dedup signal for near-duplicate model output.
func (ds *DataStore) SearchSpeciesByCommonName(commonName string) (*Species, error) {
	var species Species
	pattern := "%" + strings.ToLower(commonName) + "%"
	return lookup(ds.DB.Where("LOWER(common_name) LIKE ?", pattern), &species)
}

// CreateSpecies inserts a new species row. A uniqueness violation on
// scientific_name is surfaced with CategoryConflict so callers can retry the
// create as a lookup.
func (ds *DataStore) CreateSpecies(species *Species) error {
	if err := ds.DB.Create(species).Error; err != nil {
		category := errors.CategoryDatabase
		if isUniqueConstraintError(err) {
			category = errors.CategoryConflict
		}
		return errors.Newf("creating species %q: %w", species.ScientificName, err).
			Category(category).
			Component("datastore").
			Context("scientific_name", species.ScientificName).
			Build()
	}
	return nil
}

// isUniqueConstraintError reports whether err looks like a uniqueness
// constraint violation on any supported dialect.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "duplicate entry")
}

// FindScanRecord returns an existing scan record for the (user, species,
// location) triple, or nil when none exists. Location is matched by
// case-insensitive substring containment in either direction, preserving the
// original dedup behavior for free-text locations.
func (ds *DataStore) FindScanRecord(userID, speciesID, location string) (*ScanRecord, error) {
	var records []ScanRecord
	err := ds.DB.Where("user_id = ? AND species_id = ?", userID, speciesID).Find(&records).Error
	if err != nil {
		return nil, errors.Newf("finding scan record: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	// An empty location must not substring-match every record.
	want := strings.ToLower(strings.TrimSpace(location))
	for i := range records {
		have := strings.ToLower(strings.TrimSpace(records[i].Location))
		if want == "" || have == "" {
			if want == have {
				return &records[i], nil
			}
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// SaveScanRecord inserts a scan record without touching reward state.
func (ds *DataStore) SaveScanRecord(record *ScanRecord) error {
	if err := ds.DB.Create(record).Error; err != nil {
		return errors.Newf("saving scan record: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// RecordDiscovery applies a new discovery as a single atomic unit: the scan
// record insert, the additive update to the user's totals, and the
// append-only ledger entry. A failure at any step rolls back the whole unit.
func (ds *DataStore) RecordDiscovery(record *ScanRecord, points, currency int, entry *PointsTransaction) error {
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		res := tx.Model(&User{}).Where("id = ?", record.UserID).Updates(map[string]any{
			"points":   gorm.Expr("points + ?", points),
			"currency": gorm.Expr("currency + ?", currency),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Newf("user %s not found", record.UserID).
				Category(errors.CategoryNotFound).
				Build()
		}

		entry.UserID = record.UserID
		entry.ReferenceID = record.ID
		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.Newf("recording discovery: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// GetScanRecordsByUser returns all scan records for the user, newest first.
func (ds *DataStore) GetScanRecordsByUser(userID string) ([]ScanRecord, error) {
	var records []ScanRecord
	err := ds.DB.Where("user_id = ?", userID).Order("date_spotted DESC").Find(&records).Error
	if err != nil {
		return nil, errors.Newf("getting scan records: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return records, nil
}

// GetUser retrieves a user by ID, or nil when absent.
func (ds *DataStore) GetUser(id string) (*User, error) {
	var user User
	return lookup(ds.DB.Where("id = ?", id), &user)
}

// GetUserByEmail retrieves a user by email, matched case-insensitively, or
// nil when absent.
func (ds *DataStore) GetUserByEmail(email string) (*User, error) {
	var user User
	return lookup(ds.DB.Where("LOWER(email) = ?", strings.ToLower(email)), &user)
}

// SaveUser inserts or updates a user.
func (ds *DataStore) SaveUser(user *User) error {
	if err := ds.DB.Save(user).Error; err != nil {
		return errors.Newf("saving user: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// GetPointsTransactions returns the user's ledger entries, newest first.
func (ds *DataStore) GetPointsTransactions(userID string) ([]PointsTransaction, error) {
	var entries []PointsTransaction
	err := ds.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, errors.Newf("getting ledger entries: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return entries, nil
}

// SumLedgerForUser returns the sums of all ledger entries for the user.
// Reward totals on the user row must always equal these sums.
func (ds *DataStore) SumLedgerForUser(userID string) (points, currency int64, err error) {
	var result struct {
		Points   int64
		Currency int64
	}
	err = ds.DB.Model(&PointsTransaction{}).
		Select("COALESCE(SUM(points),0) as points, COALESCE(SUM(currency),0) as currency").
		Where("user_id = ?", userID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, errors.Newf("summing ledger: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return result.Points, result.Currency, nil
}
