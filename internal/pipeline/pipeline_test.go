package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"reelscout/internal/discovery"
	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services"
	"reelscout/internal/services/tmdb"
	"reelscout/internal/services/vimeo"
)

type scriptedSearcher struct {
	videos  map[string][]vimeo.Video
	authErr bool
}

func (s *scriptedSearcher) Search(_ context.Context, query string, page, _ int) (*vimeo.Page, error) {
	if s.authErr {
		return nil, services.Wrap(services.ErrAuth, "vimeo", "search", "status 401", nil)
	}
	result := &vimeo.Page{}
	if page == 1 {
		result.Data = s.videos[query]
	}
	return result, nil
}

type tableOracle struct {
	table map[string]record.Classification
}

func (o *tableOracle) Judge(_ context.Context, batch []record.Candidate) (map[string]record.Classification, error) {
	results := make(map[string]record.Classification, len(batch))
	for _, candidate := range batch {
		if classification, ok := o.table[candidate.ID]; ok {
			results[candidate.ID] = classification
		}
	}
	return results, nil
}

type scriptedCatalog struct {
	results map[string][]tmdb.Result
	details map[int64]*tmdb.Details
}

func (c *scriptedCatalog) SearchMovie(_ context.Context, query string, _ tmdb.SearchOptions) (*tmdb.Response, error) {
	return &tmdb.Response{Results: c.results[query]}, nil
}

func (c *scriptedCatalog) GetMovieDetails(_ context.Context, movieID int64) (*tmdb.Details, error) {
	details, ok := c.details[movieID]
	if !ok {
		return nil, errors.New("not found")
	}
	return details, nil
}

func video(id int, title string, views int) vimeo.Video {
	v := vimeo.Video{
		Name:     title,
		Link:     fmt.Sprintf("https://vimeo.com/%d", id),
		Duration: 6000,
	}
	v.Stats.Plays = int64(views)
	return v
}

func noDelay() Option {
	return WithFetcherOptions(
		discovery.WithSleeper(func(context.Context, time.Duration) {}),
		discovery.WithJitter(func() time.Duration { return 0 }),
	)
}

func baseConfig(queries ...string) Config {
	return Config{
		Queries:            queries,
		ResultCapPerQuery:  25,
		RelevanceThreshold: 6,
		BatchSize:          10,
		PerPage:            25,
		FetchWorkers:       2,
		VerifyWorkers:      2,
	}
}

func TestRunDeduplicatesAcrossQueries(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "The General", 100), video(2, "Metropolis", 50)},
		"silent films":  {video(1, "The General", 100), video(3, "Nosferatu", 75)},
	}}
	p, err := New(baseConfig("classic films", "silent films"), searcher, nil, nil, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Discovered != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", outcome.Discovered)
	}
	seen := map[string]string{}
	for _, r := range outcome.Ranked {
		if prior, dup := seen[r.Candidate.ID]; dup {
			t.Fatalf("candidate %s ranked twice (%s)", r.Candidate.ID, prior)
		}
		seen[r.Candidate.ID] = r.Candidate.Query
	}
	if query := seen["vimeo.com/1"]; query != "classic films" {
		t.Fatalf("first-seen query must win, got %q", query)
	}
}

func TestRunFiltersByOracleJudgment(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "The General", 100), video(2, "Modern Skate Reel", 900), video(3, "Metropolis", 40)},
	}}
	oracle := &tableOracle{table: map[string]record.Classification{
		"vimeo.com/1": {IsOldMovie: true, Era: "1920s", Genre: "comedy", Relevance: 9},
		"vimeo.com/2": {IsOldMovie: false, Era: "modern", Relevance: 8},
		"vimeo.com/3": {IsOldMovie: true, Era: "1920s", Genre: "sci-fi", Relevance: 4},
	}}
	p, err := New(baseConfig("classic films"), searcher, oracle, nil, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Ranked) != 1 || outcome.Ranked[0].Candidate.ID != "vimeo.com/1" {
		t.Fatalf("expected only the relevant classic to survive, got %+v", outcome.Ranked)
	}
}

func TestRunWithoutOracleKeepsHeuristicSurvivors(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "The General", 100), video(2, "Metropolis", 50)},
	}}
	p, err := New(baseConfig("classic films"), searcher, nil, nil, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Ranked) != 2 {
		t.Fatalf("expected heuristic mode to keep both, got %d", len(outcome.Ranked))
	}
	for _, r := range outcome.Ranked {
		if !r.Classification.Heuristic || r.Classification.Relevance != record.NeutralRelevance {
			t.Fatalf("expected neutral heuristic classification, got %+v", r.Classification)
		}
		if r.Verification != nil {
			t.Fatalf("verification disabled, expected no verification, got %+v", r.Verification)
		}
	}
}

func TestRunVerificationRejectionYieldsUnverifiedRecord(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "Uncataloged Reel", 100)},
	}}
	catalog := &scriptedCatalog{results: map[string][]tmdb.Result{}}

	cfg := baseConfig("classic films")
	cfg.VerificationEnabled = true
	p, err := New(cfg, searcher, nil, catalog, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Ranked) != 1 {
		t.Fatalf("expected the unverified candidate ranked, got %d", len(outcome.Ranked))
	}
	verification := outcome.Ranked[0].Verification
	if verification == nil {
		t.Fatal("verification enabled, expected an explicit outcome")
	}
	if verification.Verified || verification.Title != "" || verification.ReleaseYear != 0 || verification.Confidence != 0 {
		t.Fatalf("unverified outcome must carry no metadata: %+v", verification)
	}
	if outcome.Verified != 0 {
		t.Fatalf("expected zero verified, got %d", outcome.Verified)
	}
}

func TestRunVerifiedOutranksUnverifiedPeer(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "Casablanca", 100), video(2, "Uncataloged Reel", 100)},
	}}
	catalog := &scriptedCatalog{
		results: map[string][]tmdb.Result{
			"Casablanca": {{ID: 289, Title: "Casablanca", ReleaseDate: "1942-11-26"}},
		},
		details: map[int64]*tmdb.Details{
			289: {
				ID: 289, Title: "Casablanca", ReleaseDate: "1942-11-26", Runtime: 100,
				ProductionCompanies: []tmdb.Company{{ID: 1, Name: "Warner Bros. Pictures"}},
			},
		},
	}

	cfg := baseConfig("classic films")
	cfg.VerificationEnabled = true
	p, err := New(cfg, searcher, nil, catalog, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Verified != 1 {
		t.Fatalf("expected one verified record, got %d", outcome.Verified)
	}
	if outcome.Ranked[0].Candidate.ID != "vimeo.com/1" {
		t.Fatalf("verified record must rank first, got %q", outcome.Ranked[0].Candidate.ID)
	}
	if outcome.Ranked[0].Rank != 1 || outcome.Ranked[1].Rank != 2 {
		t.Fatalf("ranks must be sequential: %d, %d", outcome.Ranked[0].Rank, outcome.Ranked[1].Rank)
	}
}

func TestRunAbortsOnAuthFailure(t *testing.T) {
	searcher := &scriptedSearcher{authErr: true}
	p, err := New(baseConfig("classic films", "silent films"), searcher, nil, nil, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := p.Run(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if !services.Fatal(err) {
		t.Fatal("auth failure must classify as fatal")
	}
	if outcome != nil {
		t.Fatalf("aborted run must not emit output, got %+v", outcome)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "The General", 500), video(2, "Metropolis", 500)},
		"silent films":  {video(3, "Nosferatu", 500), video(1, "The General", 500)},
	}}

	run := func() []string {
		p, err := New(baseConfig("classic films", "silent films"), searcher, nil, nil, logging.NewNop(), noDelay())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		outcome, err := p.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		ids := make([]string, len(outcome.Ranked))
		for i, r := range outcome.Ranked {
			ids[i] = r.Candidate.ID
		}
		return ids
	}

	first := run()
	for attempt := 0; attempt < 3; attempt++ {
		again := run()
		if len(again) != len(first) {
			t.Fatalf("rerun changed size: %v vs %v", again, first)
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("rerun changed order at %d: %v vs %v", i, again, first)
			}
		}
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	searcher := &scriptedSearcher{}

	cases := []struct {
		name string
		run  func() error
	}{
		{"nil searcher", func() error {
			_, err := New(baseConfig("q"), nil, nil, nil, logging.NewNop())
			return err
		}},
		{"non-positive cap", func() error {
			cfg := baseConfig("q")
			cfg.ResultCapPerQuery = 0
			_, err := New(cfg, searcher, nil, nil, logging.NewNop())
			return err
		}},
		{"blank query override", func() error {
			_, err := New(baseConfig("q", "  "), searcher, nil, nil, logging.NewNop())
			return err
		}},
		{"verification without catalog", func() error {
			cfg := baseConfig("q")
			cfg.VerificationEnabled = true
			_, err := New(cfg, searcher, nil, nil, logging.NewNop())
			return err
		}},
	}
	for _, tc := range cases {
		if err := tc.run(); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", tc.name, err)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &scriptedSearcher{videos: map[string][]vimeo.Video{
		"classic films": {video(1, "The General", 100)},
	}}
	p, err := New(baseConfig("classic films"), searcher, nil, nil, logging.NewNop(), noDelay())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
