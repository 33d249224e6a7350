package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelscout/internal/classify"
	"reelscout/internal/config"
	"reelscout/internal/discovery"
	"reelscout/internal/logging"
	"reelscout/internal/queries"
	"reelscout/internal/rank"
	"reelscout/internal/record"
	"reelscout/internal/services"
	"reelscout/internal/services/tmdb"
	"reelscout/internal/services/vimeo"
	"reelscout/internal/verify"
)

// Config carries the tuning knobs for one pipeline instance.
type Config struct {
	Queries             []string // override; empty means the built-in plan
	ResultCapPerQuery   int
	RelevanceThreshold  int
	VerificationEnabled bool
	MinDurationSeconds  int
	BatchSize           int
	PerPage             int
	FetchWorkers        int
	VerifyWorkers       int
	AcceptanceThreshold float64
}

// FromConfig maps the application configuration onto pipeline settings.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Queries:             cfg.Search.Queries,
		ResultCapPerQuery:   cfg.Search.ResultCapPerQuery,
		RelevanceThreshold:  cfg.Search.RelevanceThreshold,
		VerificationEnabled: cfg.Search.VerificationEnabled,
		MinDurationSeconds:  cfg.Search.MinDurationSeconds,
		BatchSize:           cfg.LLM.BatchSize,
		PerPage:             cfg.Vimeo.PerPage,
		FetchWorkers:        cfg.Search.FetchWorkers,
		VerifyWorkers:       cfg.Search.VerifyWorkers,
		AcceptanceThreshold: cfg.TMDB.AcceptanceThreshold,
	}
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Queries     int
	Discovered  int // unique candidates after dedupe
	Prefiltered int // candidates surviving the pre-filter
	Classified  int // candidates surviving classification
	Verified    int // candidates accepted by the catalog
	Ranked      []record.Ranked
}

// Pipeline wires discovery, classification, verification, and ranking into one
// run. Optional capabilities are fixed at construction: a nil oracle degrades
// classification to the heuristic, a nil catalog skips verification.
type Pipeline struct {
	cfg        Config
	plan       []queries.Query
	fetcher    *discovery.Fetcher
	prefilter  *discovery.Prefilter
	classifier *classify.Classifier
	verifier   *verify.Verifier
	logger     *slog.Logger
}

// Option customizes pipeline construction.
type Option func(*options)

type options struct {
	fetcherOpts []discovery.FetcherOption
}

// WithFetcherOptions forwards options to the internal fetcher (useful for
// tests that must not sleep between pages).
func WithFetcherOptions(opts ...discovery.FetcherOption) Option {
	return func(o *options) {
		o.fetcherOpts = append(o.fetcherOpts, opts...)
	}
}

// New validates the configuration and builds a pipeline. The searcher is
// mandatory; oracle and catalog are optional capabilities.
func New(cfg Config, searcher vimeo.Searcher, oracle classify.Oracle, catalog tmdb.Searcher, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if searcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "search client required", nil)
	}
	if cfg.ResultCapPerQuery <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "result cap per query must be positive", nil)
	}
	for _, query := range cfg.Queries {
		if strings.TrimSpace(query) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "query override contains a blank query", nil)
		}
	}
	if cfg.VerificationEnabled && catalog == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "verification enabled without a catalog client", nil)
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	if cfg.VerifyWorkers <= 0 {
		cfg.VerifyWorkers = 3
	}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	pipeline := &Pipeline{
		cfg:        cfg,
		plan:       queries.Plan(cfg.Queries),
		fetcher:    discovery.NewFetcher(searcher, cfg.PerPage, logger, settings.fetcherOpts...),
		prefilter:  discovery.NewPrefilter(cfg.MinDurationSeconds, logger),
		classifier: classify.New(oracle, cfg.BatchSize, cfg.RelevanceThreshold, logger),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
	if cfg.VerificationEnabled {
		pipeline.verifier = verify.New(catalog, cfg.AcceptanceThreshold, logger)
	}
	return pipeline, nil
}

// Run executes the full pipeline and returns the ranked dataset. Only an
// authorization failure or cancellation aborts; every other upstream failure
// degrades its own stage and the run emits whatever completed.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now().UTC()

	logger.Info("run started",
		logging.Int("queries", len(p.plan)),
		logging.Int("result_cap", p.cfg.ResultCapPerQuery),
		logging.Bool("verification", p.verifier != nil))

	merged, err := p.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("discovery complete", logging.Int("unique_candidates", len(merged)))

	prefiltered := p.prefilter.Apply(merged)

	classified, err := p.classifier.Classify(services.WithStage(ctx, "classify"), prefiltered)
	if err != nil {
		return nil, err
	}
	logger.Info("classification survivors", logging.Int("count", len(classified)))

	inputs := p.verifyAll(ctx, classified)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := rank.Rank(inputs)
	verified := 0
	for _, r := range ranked {
		if r.Verification != nil && r.Verification.Verified {
			verified++
		}
	}

	outcome := &Outcome{
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Queries:     len(p.plan),
		Discovered:  len(merged),
		Prefiltered: len(prefiltered),
		Classified:  len(classified),
		Verified:    verified,
		Ranked:      ranked,
	}
	logger.Info("run complete",
		logging.Int("ranked", len(ranked)),
		logging.Int("verified", verified),
		logging.Duration("elapsed", outcome.FinishedAt.Sub(started)))
	return outcome, nil
}

// fetchAll runs every planned query with bounded workers and merges the
// batches in plan order, so the deduplicated set is independent of worker
// scheduling. An authorization failure cancels the in-flight queries and
// aborts.
func (p *Pipeline) fetchAll(ctx context.Context) ([]record.Candidate, error) {
	stageCtx, cancel := context.WithCancel(services.WithStage(ctx, "fetch"))
	defer cancel()

	batches := make([][]record.Candidate, len(p.plan))
	sem := make(chan struct{}, p.cfg.FetchWorkers)
	var (
		wg       sync.WaitGroup
		authOnce sync.Once
		authErr  error
	)

	for i, query := range p.plan {
		if stageCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, query queries.Query) {
			defer wg.Done()
			defer func() { <-sem }()

			queryCtx := services.WithQuery(stageCtx, query.Text)
			candidates, err := discovery.Collect(p.fetcher.Fetch(queryCtx, query.Text, p.cfg.ResultCapPerQuery))
			if err != nil && errors.Is(err, services.ErrAuth) {
				authOnce.Do(func() {
					authErr = err
					cancel()
				})
				return
			}
			batches[i] = candidates
		}(i, query)
	}
	wg.Wait()

	if authErr != nil {
		return nil, authErr
	}
	return discovery.Merge(batches...), nil
}

// verifyAll looks up classified candidates with bounded workers. Without a
// verifier every input passes through with no verification attached.
func (p *Pipeline) verifyAll(ctx context.Context, classified []classify.Result) []rank.Input {
	inputs := make([]rank.Input, len(classified))
	for i, result := range classified {
		inputs[i] = rank.Input{Candidate: result.Candidate, Classification: result.Classification}
	}
	if p.verifier == nil || len(classified) == 0 {
		return inputs
	}

	stageCtx := services.WithStage(ctx, "verify")
	sem := make(chan struct{}, p.cfg.VerifyWorkers)
	var wg sync.WaitGroup
	for i := range classified {
		if stageCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			verification := p.verifier.Verify(stageCtx, classified[i].Candidate, classified[i].Classification)
			inputs[i].Verification = &verification
		}(i)
	}
	wg.Wait()

	// Candidates skipped by cancellation still carry an explicit unverified
	// result so the scorer treats them uniformly.
	for i := range inputs {
		if inputs[i].Verification == nil {
			inputs[i].Verification = &record.Verification{}
		}
	}
	return inputs
}
