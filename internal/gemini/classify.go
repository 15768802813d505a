package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/patrickmn/go-cache"
)

const classifyPromptTemplate = `Classify the species %q into exactly ONE of these categories:

- Birds: All bird species including eagles, owls, hornbills, parrots, penguins, etc.
- Mammals: All mammal species including tigers, elephants, bears, whales, dolphins, primates, etc.
- Amphibians: Frogs, toads, salamanders, newts, caecilians
- Reptiles: Snakes, lizards, turtles, tortoises, crocodiles, alligators
- Fish: All fish species including sharks, rays, bony fish, cartilaginous fish
- Arachnids: Spiders, scorpions, ticks, mites
- Plants: All plant species including trees, flowers, shrubs, grasses
- Mollusks: Snails, slugs, clams, oysters, octopuses, squids
- Insects: Butterflies, bees, ants, beetles, flies, mosquitoes

Return ONLY a JSON response in this exact format:
{
    "category": "exact_category_name",
    "confidence": "high/medium/low",
    "scientific_class": "scientific classification if known"
}

Choose the most specific and accurate category. If uncertain, use "Unknown".`

// knownCategories is the closed classification vocabulary. Any other
// category in the model output maps to Unknown.
var knownCategories = map[string]string{
	"birds": "Birds", "mammals": "Mammals", "amphibians": "Amphibians",
	"reptiles": "Reptiles", "fish": "Fish", "arachnids": "Arachnids",
	"plants": "Plants", "mollusks": "Mollusks", "insects": "Insects",
}

// ClassifySpecies asks the model to place a species name into the fixed
// category vocabulary. Verdicts are cached by species name; a malformed
// response yields the Unknown category with a nil error.
func (c *Client) ClassifySpecies(ctx context.Context, speciesName string) (*Classification, error) {
	cacheKey := "classify:" + strings.ToLower(strings.TrimSpace(speciesName))

	if cached, found := c.cache.Get(cacheKey); found {
		if verdict, ok := cached.(*Classification); ok {
			c.metrics.mu.Lock()
			c.metrics.cacheHits++
			c.metrics.mu.Unlock()

			logger.Debug("Classification cache hit",
				"species_name", speciesName,
				"category", verdict.Category)
			return verdict, nil
		}
	}

	c.metrics.mu.Lock()
	c.metrics.cacheMisses++
	c.metrics.mu.Unlock()

	prompt := fmt.Sprintf(classifyPromptTemplate, speciesName)
	text, err := c.generateContent(ctx, []requestPart{{Text: prompt}})
	if err != nil {
		return nil, err
	}

	verdict := parseClassification(text, speciesName)
	c.cache.Set(cacheKey, verdict, cache.DefaultExpiration)

	logger.Info("Species classified",
		"species_name", speciesName,
		"category", verdict.Category,
		"confidence", verdict.Confidence)
	return verdict, nil
}

// parseClassification parses the model's classification response, tolerating
// code fences, missing fields and off-vocabulary categories.
func parseClassification(text, speciesName string) *Classification {
	verdict := &Classification{
		Category:        UnknownCategory,
		Confidence:      "low",
		ScientificClass: UnknownCategory,
		SpeciesName:     speciesName,
	}

	obj, err := jason.NewObjectFromBytes([]byte(stripFences(text)))
	if err != nil {
		logger.Warn("Classification response could not be parsed",
			"species_name", speciesName,
			"response_preview", preview(text, 500))
		return verdict
	}

	if category, err := obj.GetString("category"); err == nil {
		if canonical, ok := knownCategories[strings.ToLower(strings.TrimSpace(category))]; ok {
			verdict.Category = canonical
		}
	}
	if confidence, err := obj.GetString("confidence"); err == nil && confidence != "" {
		verdict.Confidence = confidence
	}
	if class, err := obj.GetString("scientific_class"); err == nil && class != "" {
		verdict.ScientificClass = class
	}
	return verdict
}
