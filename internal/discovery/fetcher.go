package discovery

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"

	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services"
	"reelscout/internal/services/vimeo"
)

const (
	pageDelayMin = 250 * time.Millisecond
	pageDelayMax = 750 * time.Millisecond
)

// Fetcher pages through the search surface for one query at a time and
// normalizes hits into candidates.
type Fetcher struct {
	searcher vimeo.Searcher
	perPage  int
	logger   *slog.Logger
	sleeper  func(context.Context, time.Duration)
	jitter   func() time.Duration
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithSleeper overrides how inter-page pauses are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration)) FetcherOption {
	return func(f *Fetcher) {
		if sleeper != nil {
			f.sleeper = sleeper
		}
	}
}

// WithJitter overrides the inter-page delay source (useful for tests).
func WithJitter(jitter func() time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if jitter != nil {
			f.jitter = jitter
		}
	}
}

// NewFetcher creates a fetcher over the supplied search client.
func NewFetcher(searcher vimeo.Searcher, perPage int, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	if perPage <= 0 {
		perPage = 25
	}
	fetcher := &Fetcher{
		searcher: searcher,
		perPage:  perPage,
		logger:   logging.NewComponentLogger(logger, "fetch"),
		sleeper:  sleepWithContext,
		jitter:   jitteredDelay,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch lazily yields candidates for one query until resultCap is reached or
// the search surface reports no further pages. Transient failures abandon the
// remaining pages of this query only; an authorization failure is yielded as a
// terminal error so the caller can abort the whole run.
func (f *Fetcher) Fetch(ctx context.Context, query string, resultCap int) iter.Seq2[record.Candidate, error] {
	return func(yield func(record.Candidate, error) bool) {
		logger := logging.WithContext(ctx, f.logger).With(logging.String(logging.FieldQuery, query))
		collected := 0

		for page := 1; resultCap <= 0 || collected < resultCap; page++ {
			if ctx.Err() != nil {
				return
			}
			if page > 1 {
				f.sleeper(ctx, f.jitter())
				if ctx.Err() != nil {
					return
				}
			}

			result, err := f.searcher.Search(ctx, query, page, f.perPage)
			if err != nil {
				if errors.Is(err, services.ErrAuth) {
					yield(record.Candidate{}, err)
					return
				}
				logger.Warn("abandoning remaining pages",
					logging.Int("page", page),
					logging.Int("collected", collected),
					logging.Error(err))
				return
			}

			for _, video := range result.Data {
				candidate := candidateFromVideo(video, query)
				if candidate.ID == "" {
					continue
				}
				if !yield(candidate, nil) {
					return
				}
				collected++
				if resultCap > 0 && collected >= resultCap {
					return
				}
			}

			if !result.HasMore() || len(result.Data) == 0 {
				logger.Debug("query exhausted",
					logging.Int("pages", page),
					logging.Int("collected", collected))
				return
			}
		}
	}
}

// Collect drains a fetch sequence into a slice, stopping on the first error.
func Collect(seq iter.Seq2[record.Candidate, error]) ([]record.Candidate, error) {
	var candidates []record.Candidate
	for candidate, err := range seq {
		if err != nil {
			return candidates, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func jitteredDelay() time.Duration {
	return pageDelayMin + rand.N(pageDelayMax-pageDelayMin)
}

func sleepWithContext(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
