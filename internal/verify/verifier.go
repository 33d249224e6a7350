package verify

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services/tmdb"
	"reelscout/internal/textutil"
)

const (
	defaultAcceptanceThreshold = 60.0
	runtimeToleranceMinutes    = 10
	publicDomainEraCutoff      = 1965
	consecutiveFailureLimit    = 3

	// A catalog hit whose title barely resembles the candidate must not be
	// rescued by the era/studio/runtime bonuses.
	minMatchSimilarity = 0.4

	weightTitle   = 40.0
	weightEra     = 30.0
	weightStudio  = 20.0
	weightRuntime = 10.0
)

// Verifier matches candidates against the movie catalog and computes a
// confidence score. Unverified is a legitimate outcome: the zero Verification
// carries no guessed metadata.
type Verifier struct {
	searcher  tmdb.Searcher
	threshold float64
	logger    *slog.Logger

	failures atomic.Int32
	tripped  atomic.Bool
}

// New creates a verifier. A non-positive acceptanceThreshold falls back to the
// default.
func New(searcher tmdb.Searcher, acceptanceThreshold float64, logger *slog.Logger) *Verifier {
	if acceptanceThreshold <= 0 {
		acceptanceThreshold = defaultAcceptanceThreshold
	}
	return &Verifier{
		searcher:  searcher,
		threshold: acceptanceThreshold,
		logger:    logging.NewComponentLogger(logger, "verify"),
	}
}

// Verify looks the candidate up in the catalog and returns the verification
// outcome. Catalog failures degrade the candidate to unverified; after
// consecutiveFailureLimit failures in a row the breaker trips and every
// remaining candidate is degraded without further calls.
func (v *Verifier) Verify(ctx context.Context, candidate record.Candidate, classification record.Classification) record.Verification {
	if v.tripped.Load() {
		return record.Verification{}
	}
	logger := logging.WithContext(ctx, v.logger).
		With(logging.String(logging.FieldCandidateID, candidate.ID))

	title := LookupTitle(candidate.Title)
	if title == "" {
		return record.Verification{}
	}

	match, err := v.bestMatch(ctx, title, eraYearHint(classification.Era))
	if err != nil {
		v.recordFailure(logger, err)
		return record.Verification{}
	}
	if match == nil {
		v.failures.Store(0)
		logger.Debug("no catalog match", logging.String("lookup_title", title))
		return record.Verification{}
	}

	details, err := v.searcher.GetMovieDetails(ctx, match.ID)
	if err != nil {
		v.recordFailure(logger, err)
		return record.Verification{}
	}
	v.failures.Store(0)

	confidence := v.confidence(title, candidate, details)
	if confidence < v.threshold {
		logger.Debug("match below acceptance threshold",
			logging.String("lookup_title", title),
			logging.String("matched_title", details.Title),
			logging.Float64("confidence", confidence))
		return record.Verification{}
	}

	companies := make([]string, 0, len(details.ProductionCompanies))
	for _, company := range details.ProductionCompanies {
		if name := strings.TrimSpace(company.Name); name != "" {
			companies = append(companies, name)
		}
	}
	return record.Verification{
		Verified:       true,
		Title:          displayTitle(details.Title),
		ReleaseYear:    details.ReleaseYear(),
		RuntimeMinutes: details.Runtime,
		Companies:      companies,
		Confidence:     confidence,
	}
}

// bestMatch searches with the year hint first, dropping the hint when it
// yields nothing, and returns the result whose title most resembles the
// lookup title. A nil result with a nil error means the catalog answered but
// nothing matched.
func (v *Verifier) bestMatch(ctx context.Context, title string, yearHint int) (*tmdb.Result, error) {
	response, err := v.searcher.SearchMovie(ctx, title, tmdb.SearchOptions{Year: yearHint})
	if err != nil {
		return nil, err
	}
	if len(response.Results) == 0 && yearHint > 0 {
		response, err = v.searcher.SearchMovie(ctx, title, tmdb.SearchOptions{})
		if err != nil {
			return nil, err
		}
	}

	var best *tmdb.Result
	bestSimilarity := 0.0
	for i := range response.Results {
		similarity := textutil.TitleSimilarity(title, response.Results[i].Title)
		if similarity > bestSimilarity {
			best = &response.Results[i]
			bestSimilarity = similarity
		}
	}
	if best == nil || bestSimilarity < minMatchSimilarity {
		return nil, nil
	}
	return best, nil
}

func (v *Verifier) confidence(lookupTitle string, candidate record.Candidate, details *tmdb.Details) float64 {
	score := textutil.TitleSimilarity(lookupTitle, details.Title) * weightTitle
	if year := details.ReleaseYear(); year > 0 && year < publicDomainEraCutoff {
		score += weightEra
	}
	if hasClassicStudio(details.ProductionCompanies) {
		score += weightStudio
	}
	if details.Runtime > 0 && candidate.Duration > 0 {
		diff := details.Runtime - candidate.Duration/60
		if diff < 0 {
			diff = -diff
		}
		if diff <= runtimeToleranceMinutes {
			score += weightRuntime
		}
	}
	return score
}

func (v *Verifier) recordFailure(logger *slog.Logger, err error) {
	failures := v.failures.Add(1)
	logger.Warn("catalog lookup failed, candidate proceeds unverified",
		logging.Error(err))
	if int(failures) >= consecutiveFailureLimit && v.tripped.CompareAndSwap(false, true) {
		logger.Warn("catalog breaker tripped, remaining candidates proceed unverified",
			logging.Int("consecutive_failures", int(failures)))
	}
}

// eraYearHint maps a decade label to its midpoint year. "modern" and unknown
// eras yield no hint.
func eraYearHint(era string) int {
	era = strings.TrimSpace(strings.ToLower(era))
	if len(era) != 5 || !strings.HasSuffix(era, "s") {
		return 0
	}
	decade, err := strconv.Atoi(era[:4])
	if err != nil || decade%10 != 0 {
		return 0
	}
	return decade + 5
}

var (
	bracketedPattern  = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	standaloneYear    = regexp.MustCompile(`\b(18|19|20)\d{2}\b`)
	noiseTokenPattern = regexp.MustCompile(`(?i)\b(full movie|full film|full length|complete film|remastered|restored|restoration|colorized|widescreen|public domain|free movie|1080p|720p|4k|hd)\b`)
)

// LookupTitle strips upload decorations (bracketed segments, standalone
// years, quality tags) so the catalog search sees the bare film title.
func LookupTitle(title string) string {
	cleaned := bracketedPattern.ReplaceAllString(title, " ")
	cleaned = standaloneYear.ReplaceAllString(cleaned, " ")
	cleaned = noiseTokenPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " -–—|:")
	return strings.Join(strings.Fields(cleaned), " ")
}

// displayTitle fixes shouting catalog titles; properly cased titles pass
// through untouched.
func displayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" || title != strings.ToUpper(title) || title == strings.ToLower(title) {
		return title
	}
	return cases.Title(language.English).String(strings.ToLower(title))
}
