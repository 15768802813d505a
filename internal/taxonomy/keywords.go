package taxonomy

import "strings"

// Keyword tables used when the model-backed stage fails or is unavailable.
// Matching is case-insensitive substring containment against the common name.
var birdKeywords = []string{
	"bird", "eagle", "owl", "hawk", "falcon", "hornbill", "parrot", "penguin",
	"flamingo", "sparrow", "crow", "raven", "pigeon", "dove", "duck", "goose",
	"swan", "stork", "heron", "kingfisher", "woodpecker", "hummingbird",
	"shoebill", "pelican", "seagull", "vulture", "ostrich", "emu", "kiwi",
	"cockatoo", "macaw", "toucan", "canary", "finch", "robin", "bluejay",
}

var mammalKeywords = []string{
	"tiger", "lion", "elephant", "bear", "wolf", "fox", "deer", "monkey",
	"ape", "gorilla", "chimpanzee", "orangutan", "whale", "dolphin", "bat",
	"rodent", "squirrel", "rabbit", "kangaroo", "koala", "panda", "zebra",
	"giraffe", "hippo", "rhino", "leopard", "cheetah", "jaguar", "seal",
}

var fishKeywords = []string{"fish", "shark"}

var reptileKeywords = []string{"reptile", "snake", "lizard"}

var amphibianKeywords = []string{"amphibian", "frog", "toad"}

var insectKeywords = []string{"insect", "butterfly", "bee"}

// matchKeywords maps a common name onto a class name, or returns "" when no
// keyword table matches.
func matchKeywords(commonName string) string {
	name := strings.ToLower(commonName)

	switch {
	case containsAny(name, birdKeywords):
		return "Birds"
	case containsAny(name, mammalKeywords):
		return "Mammals"
	case containsAny(name, fishKeywords):
		return "Fish"
	case containsAny(name, reptileKeywords):
		return "Reptiles"
	case containsAny(name, amphibianKeywords):
		return "Amphibians"
	case containsAny(name, insectKeywords):
		return "Insects"
	}
	return ""
}

func containsAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
