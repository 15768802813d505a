// model.go this code defines the data model for the application
package datastore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnimalClass is one of the fixed coarse taxonomy classes. Reference data:
// created at bootstrap, never mutated by the scan pipeline.
type AnimalClass struct {
	ID        string    `gorm:"primaryKey"`
	ClassName string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (c *AnimalClass) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Species is the canonical catalog entity for a distinct species,
// deduplicated by scientific name.
type Species struct {
	ID               string `gorm:"primaryKey"`
	AnimalClassID    string `gorm:"index;not null"`
	CommonName       string `gorm:"not null;index:idx_species_comname"`
	ScientificName   string `gorm:"uniqueIndex;not null"`
	Description      string `gorm:"type:text"`
	Habitat          string `gorm:"type:text"`
	Threats          string `gorm:"type:text"`
	Conservation     string `gorm:"type:text"`
	EndangeredStatus string
	APIResponse      string `gorm:"type:text"` // raw model payload, kept verbatim for audit
	CreatedAt        time.Time
}

// BeforeCreate assigns a UUID primary key when none is set.
func (s *Species) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ScanRecord represents a user's discovery of a species at a location.
// At most one record exists per (user, species, location-substring) triple.
type ScanRecord struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index:idx_scans_user_species;not null"`
	SpeciesID   string `gorm:"index:idx_scans_user_species"` // empty until resolved
	Location    string `gorm:"not null"`
	ImageURL    string // opaque blob-store key or fallback URL, stored verbatim
	Verified    bool   `gorm:"default:false"`
	DateSpotted time.Time
}

// BeforeCreate assigns a UUID primary key and spotting time when unset.
func (r *ScanRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.DateSpotted.IsZero() {
		r.DateSpotted = time.Now()
	}
	return nil
}

// User carries the cumulative points and currency totals the pipeline
// updates. Authentication fields are out of scope here.
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex"`
	FirstName string
	LastName  string
	Points    int  `gorm:"default:0"`
	Currency  int  `gorm:"default:0"`
	IsActive  bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PointsTransaction is an append-only ledger entry recording a reward grant.
// Never updated or deleted by the pipeline.
type PointsTransaction struct {
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"index;not null"`
	TransactionType string `gorm:"not null"` // e.g. "species_scan"
	Points          int    `gorm:"not null"`
	Currency        int    `gorm:"not null"`
	Description     string `gorm:"not null"`
	ReferenceID     string // scan record id the grant refers to
	CreatedAt       time.Time `gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (p *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
