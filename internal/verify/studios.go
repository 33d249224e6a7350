package verify

import (
	"strings"

	"reelscout/internal/services/tmdb"
)

// Studios active during the classic era. A production credit from one of
// these is strong evidence the match is a genuine period film.
var classicStudioMarkers = []string{
	"metro-goldwyn-mayer",
	"warner bros",
	"paramount",
	"universal",
	"columbia",
	"united artists",
	"20th century",
	"twentieth century",
	"selznick",
	"republic pictures",
	"monogram",
	"ealing",
	"hammer film",
	"gaumont",
	"pathé",
	"pathe",
}

// Short names matched as whole words to avoid substring accidents.
var classicStudioWords = []string{"mgm", "rko", "ufa"}

func hasClassicStudio(companies []tmdb.Company) bool {
	for _, company := range companies {
		name := strings.ToLower(company.Name)
		for _, marker := range classicStudioMarkers {
			if strings.Contains(name, marker) {
				return true
			}
		}
		for _, field := range strings.Fields(name) {
			field = strings.Trim(field, ".,()")
			for _, word := range classicStudioWords {
				if field == word {
					return true
				}
			}
		}
	}
	return false
}
