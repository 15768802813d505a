package gemini

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/antonholmquist/jason"
)

const identifyPrompt = `Analyze this animal image and provide a comprehensive species identification in JSON format:

{
"common_name": "Common name of the species",
"scientific_name": "Scientific name (Genus species)",
"animal_class": "Animal class (Mammals, Birds, Reptiles, Amphibians, Fish, Invertebrates, etc.)",
"description": "Detailed physical description and characteristics",
"habitat": "Natural habitat and environment",
"threats": "General conservation challenges",
"conservation": "Conservation efforts and information",
"endangered_status": "Use ONLY: 'Concern' or 'Not Concern'"
}

IMPORTANT: For endangered_status, use:
- 'Concern' for any species that needs conservation attention (endangered, vulnerable, threatened, rare)
- 'Not Concern' for species that are currently stable and abundant

Focus on accurate identification while keeping conservation status simple.`

// identificationFields are required in every parsed response; missing keys
// are filled with PlaceholderInfo rather than failing the scan.
var identificationFields = []string{
	"common_name", "scientific_name", "animal_class", "description",
	"habitat", "threats", "conservation", "endangered_status",
}

// IdentifySpecies sends the image to the model and returns the structured
// identification. A malformed model response yields a degraded
// identification with placeholder values and a nil error; only transport
// and API failures return an error.
func (c *Client) IdentifySpecies(ctx context.Context, imageData []byte, mimeType, location string) (*Identification, error) {
	prompt := identifyPrompt
	if location != "" {
		prompt += "\n\nLocation context: This animal was observed in " + location + ". Consider local species distribution."
	}

	parts := []requestPart{
		{Text: prompt},
		{InlineData: &inlineData{
			MIMEType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(imageData),
		}},
	}

	text, err := c.generateContent(ctx, parts)
	if err != nil {
		return nil, err
	}

	ident := parseIdentification(text)
	if ident.Degraded {
		logger.Warn("Model response could not be parsed, returning degraded identification",
			"response_preview", preview(text, 500))
	} else {
		logger.Info("Species identified",
			"common_name", ident.CommonName,
			"scientific_name", ident.ScientificName,
			"endangered_status", ident.EndangeredStatus)
	}
	return ident, nil
}

// DegradedIdentification builds the placeholder identification used when the
// provider is unreachable or errored. The scan still succeeds with it.
func DegradedIdentification(reason string) *Identification {
	return &Identification{
		CommonName:       FailedCommonName,
		ScientificName:   FailedScientific,
		AnimalClass:      PlaceholderInfo,
		Description:      reason,
		Habitat:          PlaceholderInfo,
		Threats:          PlaceholderInfo,
		Conservation:     PlaceholderInfo,
		EndangeredStatus: UnknownStatus,
		Degraded:         true,
	}
}

// parseIdentification parses the model's response text, tolerating markdown
// code fences and missing fields.
func parseIdentification(text string) *Identification {
	cleaned := stripFences(text)

	obj, err := jason.NewObjectFromBytes([]byte(cleaned))
	if err != nil {
		ident := DegradedIdentification("Raw response: " + text)
		ident.Raw = text
		return ident
	}

	fields := make(map[string]string, len(identificationFields))
	for _, key := range identificationFields {
		if value, err := obj.GetString(key); err == nil && strings.TrimSpace(value) != "" {
			fields[key] = strings.TrimSpace(value)
		} else {
			fields[key] = PlaceholderInfo
		}
	}

	return &Identification{
		CommonName:       fields["common_name"],
		ScientificName:   fields["scientific_name"],
		AnimalClass:      fields["animal_class"],
		Description:      fields["description"],
		Habitat:          fields["habitat"],
		Threats:          fields["threats"],
		Conservation:     fields["conservation"],
		EndangeredStatus: fields["endangered_status"],
		Raw:              text,
	}
}

// stripFences removes leading/trailing markdown code fences from model
// output. Models frequently wrap JSON in ```json blocks despite being asked
// for bare JSON.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
