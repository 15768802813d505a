package gemini

// Placeholder values used when the model response is missing fields or
// cannot be parsed at all. Persisted records carry these verbatim so
// downstream consumers can recognize a degraded identification.
const (
	PlaceholderInfo      = "Information not available"
	FailedCommonName     = "Identification Failed"
	FailedScientific     = "Unknown sp."
	UnknownStatus        = "Unknown"
	StatusConcern        = "Concern"
	StatusNotConcern     = "Not Concern"
	UnknownCategory      = "Unknown"
)

// Identification is the structured result of a species identification call.
type Identification struct {
	CommonName       string `json:"common_name"`
	ScientificName   string `json:"scientific_name"`
	AnimalClass      string `json:"animal_class"`
	Description      string `json:"description"`
	Habitat          string `json:"habitat"`
	Threats          string `json:"threats"`
	Conservation     string `json:"conservation"`
	EndangeredStatus string `json:"endangered_status"`

	// Raw is the model's response text as returned, before any cleanup.
	Raw string `json:"-"`
	// Degraded is set when the response could not be parsed and the
	// identification carries placeholder values.
	Degraded bool `json:"-"`
}

// Classification is the result of a taxonomy classification call.
type Classification struct {
	Category        string `json:"category"`
	Confidence      string `json:"confidence"`
	ScientificClass string `json:"scientific_class"`
	SpeciesName     string `json:"species_name"`
}
