package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelscout/internal/config"
	"reelscout/internal/record"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func sampleRanked() []record.Ranked {
	return []record.Ranked{
		{
			Candidate: record.Candidate{
				ID:        "vimeo.com/1",
				Title:     "Casablanca (1942)",
				SourceURL: "https://vimeo.com/1",
				Duration:  6120,
				Views:     4200,
				Uploader:  "Film Archive",
				Query:     "1940s movies",
			},
			Classification: record.Classification{IsOldMovie: true, Era: "1940s", Genre: "drama", Relevance: 9},
			Verification: &record.Verification{
				Verified:       true,
				Title:          "Casablanca",
				ReleaseYear:    1942,
				RuntimeMinutes: 102,
				Companies:      []string{"Warner Bros. Pictures"},
				Confidence:     96.5,
			},
			Score: 0.91,
			Rank:  1,
		},
		{
			Candidate:      record.Candidate{ID: "vimeo.com/2", Title: "Mystery Reel", SourceURL: "https://vimeo.com/2"},
			Classification: record.Classification{IsOldMovie: true, Relevance: 5, Heuristic: true},
			Score:          0.31,
			Rank:           2,
		},
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	store, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	run := Run{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(5 * time.Minute),
		Queries:    12,
		Discovered: 80,
		Kept:       2,
	}
	if err := store.SaveRun(ctx, run, sampleRanked()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != "run-1" || latest.Kept != 2 {
		t.Fatalf("unexpected latest run: %+v", latest)
	}

	records, err := store.RunRecords(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Rank != 1 || first.Candidate.ID != "vimeo.com/1" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Verification == nil || !first.Verification.Verified {
		t.Fatalf("expected verification restored, got %+v", first.Verification)
	}
	if first.Verification.Confidence != 96.5 {
		t.Fatalf("expected confidence restored, got %v", first.Verification.Confidence)
	}
	if len(first.Verification.Companies) != 1 || first.Verification.Companies[0] != "Warner Bros. Pictures" {
		t.Fatalf("expected companies restored, got %v", first.Verification.Companies)
	}
	second := records[1]
	if second.Verification != nil {
		t.Fatalf("unverified record must restore without verification, got %+v", second.Verification)
	}
	if !second.Classification.Heuristic {
		t.Fatal("heuristic flag lost in round trip")
	}
}

func TestRunRecordsKeepAttemptedVerificationDistinct(t *testing.T) {
	store, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	started := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	run := Run{ID: "run-attempted", StartedAt: started, FinishedAt: started.Add(time.Minute), Kept: 2}
	ranked := []record.Ranked{
		{
			Candidate:      record.Candidate{ID: "vimeo.com/10", Title: "Lost Feature"},
			Classification: record.Classification{IsOldMovie: true, Relevance: 7},
			Verification:   &record.Verification{},
			Score:          0.44,
			Rank:           1,
		},
		{
			Candidate:      record.Candidate{ID: "vimeo.com/11", Title: "Skipped Feature"},
			Classification: record.Classification{IsOldMovie: true, Relevance: 7},
			Score:          0.40,
			Rank:           2,
		},
	}
	if err := store.SaveRun(ctx, run, ranked); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	records, err := store.RunRecords(ctx, "run-attempted")
	if err != nil {
		t.Fatalf("RunRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	attempted := records[0]
	if attempted.Verification == nil {
		t.Fatal("attempted-but-unmatched record must restore an explicit verification")
	}
	if attempted.Verification.Verified || attempted.Verification.Title != "" || attempted.Verification.ReleaseYear != 0 {
		t.Fatalf("unmatched verification must stay empty, got %+v", attempted.Verification)
	}

	if records[1].Verification != nil {
		t.Fatalf("record from a run without verification must restore nil, got %+v", records[1].Verification)
	}
}

func TestOpenRejectsConcurrentRuns(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := Open(cfg); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestOpenReleasesLockOnClose(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	defer reopened.Close()
}

func TestSchemaMismatchRejected(t *testing.T) {
	cfg := testConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("tamper version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(cfg); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		run := Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute)}
		if err := store.SaveRun(ctx, run, nil); err != nil {
			t.Fatalf("SaveRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}
