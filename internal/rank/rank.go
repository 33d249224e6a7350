package rank

import (
	"math"
	"sort"

	"reelscout/internal/record"
)

const (
	weightRelevance = 0.45
	weightCatalog   = 0.35
	weightViews     = 0.20

	// Catalog component applied when a candidate is not verified. Sits below
	// any accepted confidence so verified records outrank unverified peers
	// with equal relevance and views.
	unverifiedCatalogValue = 0.25

	// Views saturate at ten million plays.
	viewsSaturation = 1e7
)

// Input is one candidate with everything the scorer needs.
type Input struct {
	Candidate      record.Candidate
	Classification record.Classification
	Verification   *record.Verification
}

// Score computes the final 0..1 score. Monotonic in relevance, catalog
// confidence, and view count.
func Score(in Input) float64 {
	relevance := float64(in.Classification.Relevance) / 10
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}

	catalog := unverifiedCatalogValue
	if in.Verification != nil && in.Verification.Verified {
		catalog = in.Verification.Confidence / 100
		if catalog < 0 {
			catalog = 0
		}
		if catalog > 1 {
			catalog = 1
		}
	}

	return weightRelevance*relevance + weightCatalog*catalog + weightViews*viewsComponent(in.Candidate.Views)
}

// Rank scores every input and returns the records sorted by descending score.
// The sort is stable: ties keep first-seen order, so re-running on unchanged
// input yields an identical ordering.
func Rank(inputs []Input) []record.Ranked {
	ranked := make([]record.Ranked, len(inputs))
	for i, in := range inputs {
		ranked[i] = record.Ranked{
			Candidate:      in.Candidate,
			Classification: in.Classification,
			Verification:   in.Verification,
			Score:          Score(in),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// viewsComponent log-normalizes the play count into 0..1.
func viewsComponent(views int64) float64 {
	if views <= 0 {
		return 0
	}
	component := math.Log10(1+float64(views)) / math.Log10(1+viewsSaturation)
	if component > 1 {
		return 1
	}
	return component
}
