package textutil

import (
	"strings"
	"unicode"
)

var leadingArticles = []string{"the ", "a ", "an "}

// NormalizeTitle lowercases a title, strips a leading English article, maps
// common symbols to word equivalents, and removes everything that is not a
// letter or digit. Two titles that normalize identically are treated as an
// exact match by the verifier.
func NormalizeTitle(title string) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	if normalized == "" {
		return ""
	}
	for _, article := range leadingArticles {
		if strings.HasPrefix(normalized, article) {
			normalized = normalized[len(article):]
			break
		}
	}
	normalized = strings.ReplaceAll(normalized, "&", "and")
	normalized = strings.ReplaceAll(normalized, "+", "and")

	var builder strings.Builder
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// TitleSimilarity scores how closely two titles match on a 0..1 scale.
// Identical normalized titles score 1. Otherwise the score is the token
// fingerprint cosine, nudged upward when one normalized title contains the
// other (restoration uploads often decorate the original title).
func TitleSimilarity(a, b string) float64 {
	normA := NormalizeTitle(a)
	normB := NormalizeTitle(b)
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}

	score := CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
	if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
		contained := 0.8
		if contained > score {
			score = contained
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}
