package classify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"reelscout/internal/logging"
	"reelscout/internal/record"
)

const (
	defaultBatchSize  = 10
	defaultThreshold  = 6
	defaultWorkers    = 2
	batchFailureLimit = 2
)

// Result pairs a candidate with its classification.
type Result struct {
	Candidate      record.Candidate
	Classification record.Classification
}

// Classifier runs candidates through the oracle in batches and filters the
// survivors. A nil oracle puts the classifier in degraded mode: every
// candidate receives the heuristic classification and passes through.
type Classifier struct {
	oracle    Oracle
	batchSize int
	threshold int
	workers   int
	logger    *slog.Logger

	failures atomic.Int32
	tripped  atomic.Bool
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithWorkers bounds how many batches are judged concurrently.
func WithWorkers(workers int) Option {
	return func(c *Classifier) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// New creates a classifier. batchSize and relevanceThreshold fall back to
// their defaults when non-positive.
func New(oracle Oracle, batchSize, relevanceThreshold int, logger *slog.Logger, opts ...Option) *Classifier {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if relevanceThreshold <= 0 {
		relevanceThreshold = defaultThreshold
	}
	classifier := &Classifier{
		oracle:    oracle,
		batchSize: batchSize,
		threshold: relevanceThreshold,
		workers:   defaultWorkers,
		logger:    logging.NewComponentLogger(logger, "classify"),
	}
	for _, opt := range opts {
		opt(classifier)
	}
	return classifier
}

// Classify judges every candidate and returns the survivors in input order.
// Batch boundaries never change outcomes: each candidate is judged on its own
// fields. Oracle batch failures degrade that batch to the heuristic
// classification; repeated consecutive failures trip a breaker that degrades
// everything still pending without further oracle calls.
func (c *Classifier) Classify(ctx context.Context, candidates []record.Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	logger := logging.WithContext(ctx, c.logger)

	batches := chunk(candidates, c.batchSize)
	perBatch := make([][]Result, len(batches))

	if c.oracle == nil {
		logger.Info("no oracle configured, using heuristic classification",
			logging.Int("candidates", len(candidates)))
		for i, batch := range batches {
			perBatch[i] = heuristicResults(batch)
		}
	} else {
		sem := make(chan struct{}, c.workers)
		var wg sync.WaitGroup
		for i, batch := range batches {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, batch []record.Candidate) {
				defer wg.Done()
				defer func() { <-sem }()
				perBatch[i] = c.judgeBatch(ctx, batch, logger)
			}(i, batch)
		}
		wg.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := make([]Result, 0, len(candidates))
	dropped := 0
	for _, results := range perBatch {
		for _, result := range results {
			if !c.keep(result.Classification) {
				dropped++
				continue
			}
			kept = append(kept, result)
		}
	}
	logger.Info("classification complete",
		logging.Int("candidates", len(candidates)),
		logging.Int("kept", len(kept)),
		logging.Int("dropped", dropped),
		logging.Int("unclassified", len(candidates)-len(kept)-dropped))
	return kept, nil
}

func (c *Classifier) judgeBatch(ctx context.Context, batch []record.Candidate, logger *slog.Logger) []Result {
	if c.tripped.Load() {
		return heuristicResults(batch)
	}

	judgments, err := c.oracle.Judge(ctx, batch)
	if err != nil {
		failures := c.failures.Add(1)
		logger.Warn("oracle batch failed, degrading batch",
			logging.Int("batch_size", len(batch)),
			logging.Error(err))
		if int(failures) >= batchFailureLimit && c.tripped.CompareAndSwap(false, true) {
			logger.Warn("oracle breaker tripped, remaining batches classified heuristically",
				logging.Int("consecutive_failures", int(failures)))
		}
		return heuristicResults(batch)
	}
	c.failures.Store(0)

	results := make([]Result, 0, len(batch))
	for _, candidate := range batch {
		classification, ok := judgments[candidate.ID]
		if !ok {
			logger.Warn("candidate unclassified, excluding",
				logging.String(logging.FieldCandidateID, candidate.ID))
			continue
		}
		results = append(results, Result{Candidate: candidate, Classification: classification})
	}
	return results
}

// keep applies the membership and relevance gates. Heuristic classifications
// bypass the relevance threshold: the neutral midpoint expresses the absence
// of an oracle opinion, not a low one.
func (c *Classifier) keep(classification record.Classification) bool {
	if !classification.IsOldMovie {
		return false
	}
	if classification.Heuristic {
		return true
	}
	return classification.Relevance >= c.threshold
}

func heuristicResults(batch []record.Candidate) []Result {
	results := make([]Result, len(batch))
	for i, candidate := range batch {
		results[i] = Result{Candidate: candidate, Classification: record.HeuristicClassification()}
	}
	return results
}

func chunk(candidates []record.Candidate, size int) [][]record.Candidate {
	if size <= 0 {
		size = defaultBatchSize
	}
	var batches [][]record.Candidate
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		batches = append(batches, candidates[start:end])
	}
	return batches
}
