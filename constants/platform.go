package constants

import (
	"strings"
)

type Platform string

const (
	Amazon   Platform = "AMAZON"
	Flipkart Platform = "FLIPKART"
	Meesho   Platform = "MEESHO"
	Myntra   Platform = "MYNTRA"
)

var allPlatforms = []Platform{
	Amazon,
	Flipkart,
	Meesho,
	Myntra,
}

func Platforms() []Platform {
	return append([]Platform(nil), allPlatforms...)
}

func AsStringSlice() []string {
	result := make([]string, len(allPlatforms))
	for i, p := range allPlatforms {
		result[i] = string(p)
	}
	return result
}

// Canonicalize maps user input ("amazon", " Meesho ", "AMAZON") to a Platform.
func Canonicalize(input string) (Platform, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Platform{
		"amazon.in": Amazon,
		"amzn":      Amazon,
		"ekart":     Flipkart,
		"fk":        Flipkart,
	}
	if p, ok := synonyms[normalized]; ok {
		return p, true
	}

	for _, p := range allPlatforms {
		if normalized == strings.ToLower(string(p)) {
			return p, true
		}
	}
	return "", false
}

// Slug is the lowercase form used in file names.
func (p Platform) Slug() string {
	return strings.ToLower(string(p))
}
