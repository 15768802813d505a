package blobstore

import "strings"

// GenericPlaceholder is served when no curated fallback matches the species.
const GenericPlaceholder = "/semai-elephant-error.png"

// fallbackImages maps species common names to curated stock photos, used
// when the object store rejects an upload. Keys are matched exactly first,
// then by case-insensitive containment in the species name.
var fallbackImages = map[string]string{
	"Hornbill":                "https://images.unsplash.com/photo-1597848212624-e5f4bfc2afb5?w=400&h=300&fit=crop",
	"Rhinoceros Hornbill":     "https://images.unsplash.com/photo-1597848212624-e5f4bfc2afb5?w=400&h=300&fit=crop",
	"Blue Ringed Octopus":     "https://images.unsplash.com/photo-1559827260-d66d52bef19?w=400&h=300&fit=crop",
	"Poison Dart Frog":        "https://images.unsplash.com/photo-1559253664-ca249d4608c6?w=400&h=300&fit=crop",
	"Sea Turtle":              "https://images.unsplash.com/photo-1598158181777-19c8e323ed7c?w=400&h=300&fit=crop",
	"Orangutan":               "https://images.unsplash.com/photo-1540573133985-87b6da6d54a9?w=400&h=300&fit=crop",
	"Rafflesia":               "https://images.unsplash.com/photo-1616394584738-fc6e612e71b9?w=400&h=300&fit=crop",
	"Bengal Tiger":            "https://images.unsplash.com/photo-1561731216-c3a4d99437d5?w=400&h=300&fit=crop",
	"Bald Eagle":              "https://images.unsplash.com/photo-1551085254-e96b210db58a?w=400&h=300&fit=crop",
	"Green Turtle":            "https://images.unsplash.com/photo-1598158181777-19c8e323ed7c?w=400&h=300&fit=crop",
	"Oriental Pied Hornbill":  "https://images.unsplash.com/photo-1597848212624-e5f4bfc2afb5?w=400&h=300&fit=crop",
	"Blue-throated Bee-eater": "https://images.unsplash.com/photo-1517832203067-7c0c8bd328e5?w=400&h=300&fit=crop",
	"Malayan Tiger":           "https://images.unsplash.com/photo-1561731216-c3a4d99437d5?w=400&h=300&fit=crop",
	"Asian Elephant":          "https://images.unsplash.com/photo-1557050543-4d5f4e07ef46?w=400&h=300&fit=crop",
	"Sun Bear":                "https://images.unsplash.com/photo-1574870111867-089858c7af7e?w=400&h=300&fit=crop",
}

// FallbackImage returns the curated image URL for a species, or the generic
// placeholder when nothing matches.
func FallbackImage(speciesName string) string {
	if url, ok := fallbackImages[speciesName]; ok {
		return url
	}

	lower := strings.ToLower(speciesName)
	for key, url := range fallbackImages {
		if strings.Contains(lower, strings.ToLower(key)) {
			return url
		}
	}
	return GenericPlaceholder
}
