package scanner

import (
	"fmt"

	"github.com/semai/wildscan-go/internal/conf"
)

// Location is the simplified scan location attached to each record.
type Location struct {
	Label     string  `json:"label,omitempty"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Region    string  `json:"region,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the location in the "City, Country" form stored on scan
// records and used for deduplication.
func (l Location) String() string {
	city := l.City
	if city == "" {
		city = "Unknown"
	}
	country := l.Country
	if country == "" {
		country = "Unknown"
	}
	return fmt.Sprintf("%s, %s", city, country)
}

// DefaultLocation returns the configured device location. Until real
// geolocation is wired in, scans without an explicit location are attributed
// here.
func DefaultLocation(settings *conf.Settings) Location {
	if settings == nil {
		return Location{
			Label:     "Kuala Lumpur, Malaysia",
			City:      "Kuala Lumpur",
			Country:   "Malaysia",
			Region:    "Federal Territory",
			Latitude:  3.1390,
			Longitude: 101.6869,
		}
	}
	loc := settings.Scanner.DefaultLocation
	return Location{
		Label:     loc.Label,
		City:      loc.City,
		Country:   loc.Country,
		Region:    loc.Region,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}
