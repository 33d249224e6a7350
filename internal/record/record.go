package record

import "time"

// Candidate is one discovered video prior to classification. The ID is the
// canonical identifier derived from the source URL; it is unique within a
// deduplicated set and independent of which query surfaced the video.
type Candidate struct {
	ID          string
	Title       string
	Description string
	Duration    int // seconds
	CreatedAt   time.Time
	Views       int64
	Uploader    string
	UploaderURI string
	SourceURL   string
	Query       string // query that first surfaced this candidate
}

// Classification is the oracle's judgment of a candidate, produced exactly
// once per candidate. Heuristic reports whether the result came from the
// degraded fallback rather than the oracle.
type Classification struct {
	IsOldMovie bool
	Era        string // decade label such as "1920s", or "modern"; empty when unknown
	Genre      string // bounded vocabulary; empty when unknown
	Relevance  int    // 1..10
	Heuristic  bool
}

// NeutralRelevance is the midpoint relevance assigned when no oracle is
// configured.
const NeutralRelevance = 5

// HeuristicClassification is the degraded-mode result used when the
// classification oracle is unavailable.
func HeuristicClassification() Classification {
	return Classification{
		IsOldMovie: true,
		Relevance:  NeutralRelevance,
		Heuristic:  true,
	}
}

// Verification is the optional result of matching a candidate against the
// external metadata catalog. Verified=false is a legitimate outcome, not an
// error; in that case every other field is left empty rather than guessed.
type Verification struct {
	Verified       bool
	Title          string
	ReleaseYear    int
	RuntimeMinutes int
	Companies      []string
	Confidence     float64 // 0..100
}

// Ranked couples a candidate with its classification, optional verification,
// and derived final score. Instances are immutable once the scorer emits them.
type Ranked struct {
	Candidate      Candidate
	Classification Classification
	Verification   *Verification
	Score          float64
	Rank           int // 1-based position after sorting
}
