package discovery

import (
	"log/slog"
	"strings"

	"reelscout/internal/logging"
	"reelscout/internal/record"
)

// blacklistKeywords flag titles that are clearly not feature films. A keyword
// hit eliminates the candidate before any oracle round-trip is spent on it.
var blacklistKeywords = []string{
	"trailer", "teaser", "promo", "preview", "clip",
	"behind the scenes", "making of", "breakdown", "vfx",
	"showreel", "recap",
	"review", "analysis", "essay", "critique",
	"supercut", "montage", "tribute",
	"how to", "tutorial", "lesson", "workshop",
	"interview", "q&a", "panel",
	"bumper", "ident", "intro",
	"commercial", "ad spot",
}

// Prefilter removes obvious non-movie content ahead of classification:
// blacklisted keywords in the title, and durations below the feature floor.
type Prefilter struct {
	minDurationSeconds int
	logger             *slog.Logger
}

// NewPrefilter creates a prefilter with the supplied feature-length floor.
func NewPrefilter(minDurationSeconds int, logger *slog.Logger) *Prefilter {
	return &Prefilter{
		minDurationSeconds: minDurationSeconds,
		logger:             logging.NewComponentLogger(logger, "prefilter"),
	}
}

// Apply returns the candidates that survive the keyword and duration gates.
func (p *Prefilter) Apply(candidates []record.Candidate) []record.Candidate {
	kept := make([]record.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if reason := p.reject(candidate); reason != "" {
			p.logger.Debug("candidate rejected",
				logging.String(logging.FieldCandidateID, candidate.ID),
				logging.String("title", candidate.Title),
				logging.String("reason", reason))
			continue
		}
		kept = append(kept, candidate)
	}
	if dropped := len(candidates) - len(kept); dropped > 0 {
		p.logger.Info("prefilter applied",
			logging.Int("in", len(candidates)),
			logging.Int("kept", len(kept)),
			logging.Int("dropped", dropped))
	}
	return kept
}

func (p *Prefilter) reject(candidate record.Candidate) string {
	title := strings.ToLower(candidate.Title)
	for _, keyword := range blacklistKeywords {
		if strings.Contains(title, keyword) {
			return "blacklisted keyword: " + keyword
		}
	}
	if p.minDurationSeconds > 0 && candidate.Duration > 0 && candidate.Duration < p.minDurationSeconds {
		return "below feature duration floor"
	}
	return ""
}
