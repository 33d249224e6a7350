package verify

import (
	"context"
	"errors"
	"testing"

	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services/tmdb"
)

type fakeCatalog struct {
	results       map[string][]tmdb.Result // keyed by query
	details       map[int64]*tmdb.Details
	searchErr     error
	detailsErr    error
	emptyWhenYear int // hinted searches for this year find nothing
	searchCalls   []tmdb.SearchOptions
}

func (f *fakeCatalog) SearchMovie(_ context.Context, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	f.searchCalls = append(f.searchCalls, opts)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.emptyWhenYear != 0 && opts.Year == f.emptyWhenYear {
		return &tmdb.Response{}, nil
	}
	return &tmdb.Response{Results: f.results[query]}, nil
}

func (f *fakeCatalog) GetMovieDetails(_ context.Context, movieID int64) (*tmdb.Details, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	details, ok := f.details[movieID]
	if !ok {
		return nil, errors.New("not found")
	}
	return details, nil
}

func casablancaCatalog() *fakeCatalog {
	return &fakeCatalog{
		results: map[string][]tmdb.Result{
			"Casablanca": {{ID: 289, Title: "Casablanca", ReleaseDate: "1942-11-26"}},
		},
		details: map[int64]*tmdb.Details{
			289: {
				ID:          289,
				Title:       "Casablanca",
				ReleaseDate: "1942-11-26",
				Runtime:     102,
				ProductionCompanies: []tmdb.Company{
					{ID: 1, Name: "Warner Bros. Pictures"},
				},
			},
		},
	}
}

func TestVerifyAcceptsStrongMatch(t *testing.T) {
	catalog := casablancaCatalog()
	verifier := New(catalog, 60, logging.NewNop())

	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Casablanca (1942) Full Movie", Duration: 102 * 60}
	verification := verifier.Verify(context.Background(), candidate, record.Classification{Era: "1940s"})

	if !verification.Verified {
		t.Fatalf("expected verified match, got %+v", verification)
	}
	if verification.Confidence != 100 {
		t.Fatalf("expected full confidence, got %v", verification.Confidence)
	}
	if verification.Title != "Casablanca" || verification.ReleaseYear != 1942 || verification.RuntimeMinutes != 102 {
		t.Fatalf("unexpected metadata: %+v", verification)
	}
	if len(verification.Companies) != 1 || verification.Companies[0] != "Warner Bros. Pictures" {
		t.Fatalf("unexpected companies: %v", verification.Companies)
	}
}

func TestVerifyUsesEraYearHint(t *testing.T) {
	catalog := casablancaCatalog()
	verifier := New(catalog, 60, logging.NewNop())

	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Casablanca", Duration: 6100}
	verifier.Verify(context.Background(), candidate, record.Classification{Era: "1940s"})

	if len(catalog.searchCalls) == 0 {
		t.Fatal("expected a search call")
	}
	if catalog.searchCalls[0].Year != 1945 {
		t.Fatalf("expected decade-midpoint year hint 1945, got %d", catalog.searchCalls[0].Year)
	}
}

func TestVerifyRetriesWithoutYearHint(t *testing.T) {
	catalog := casablancaCatalog()
	catalog.emptyWhenYear = 1955
	verifier := New(catalog, 60, logging.NewNop())

	// The hinted search finds nothing; the fallback without a year must
	// still find the film.
	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Casablanca", Duration: 102 * 60}
	verification := verifier.Verify(context.Background(), candidate, record.Classification{Era: "1950s"})

	if len(catalog.searchCalls) != 2 {
		t.Fatalf("expected hinted search plus fallback, got %d calls", len(catalog.searchCalls))
	}
	if catalog.searchCalls[1].Year != 0 {
		t.Fatalf("fallback search must drop the year hint, got %d", catalog.searchCalls[1].Year)
	}
	if !verification.Verified {
		t.Fatalf("expected fallback to verify, got %+v", verification)
	}
}

func TestVerifyRejectionLeavesFieldsEmpty(t *testing.T) {
	catalog := &fakeCatalog{
		results: map[string][]tmdb.Result{
			"Casablanca": {{ID: 7, Title: "Casablanca Express", ReleaseDate: "1989-01-20"}},
		},
		details: map[int64]*tmdb.Details{
			7: {ID: 7, Title: "Casablanca Express", ReleaseDate: "1989-01-20", Runtime: 85},
		},
	}
	verifier := New(catalog, 60, logging.NewNop())

	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Casablanca", Duration: 6100}
	verification := verifier.Verify(context.Background(), candidate, record.Classification{})

	if verification.Verified {
		t.Fatalf("expected rejection, got %+v", verification)
	}
	if verification.Title != "" || verification.ReleaseYear != 0 || verification.RuntimeMinutes != 0 ||
		verification.Companies != nil || verification.Confidence != 0 {
		t.Fatalf("rejected verification must carry no metadata: %+v", verification)
	}
}

func TestVerifyNoMatchIsNotAFailure(t *testing.T) {
	catalog := &fakeCatalog{results: map[string][]tmdb.Result{}}
	verifier := New(catalog, 60, logging.NewNop())

	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Obscure Home Recording"}
	verification := verifier.Verify(context.Background(), candidate, record.Classification{})

	if verification.Verified {
		t.Fatalf("expected unverified, got %+v", verification)
	}
	if verifier.tripped.Load() {
		t.Fatal("an empty result set must not count toward the breaker")
	}
}

func TestVerifyBreakerDegradesRemainingCandidates(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("tmdb returned 503")}
	verifier := New(catalog, 60, logging.NewNop())

	candidate := record.Candidate{ID: "vimeo.com/1", Title: "Casablanca", Duration: 6100}
	for i := 0; i < consecutiveFailureLimit; i++ {
		verification := verifier.Verify(context.Background(), candidate, record.Classification{})
		if verification.Verified {
			t.Fatalf("call %d: expected unverified", i)
		}
	}
	calls := len(catalog.searchCalls)

	verifier.Verify(context.Background(), candidate, record.Classification{})
	if len(catalog.searchCalls) != calls {
		t.Fatal("tripped breaker must not issue further catalog calls")
	}
}

func TestVerifyConfidenceMonotonicInTitleSimilarity(t *testing.T) {
	details := &tmdb.Details{Title: "The Phantom Carriage", ReleaseDate: "1921-01-01", Runtime: 107}
	verifier := New(&fakeCatalog{}, 60, logging.NewNop())

	candidate := record.Candidate{Duration: 107 * 60}
	exact := verifier.confidence("Phantom Carriage", candidate, details)
	partial := verifier.confidence("Phantom Carriage Reel", candidate, details)
	unrelated := verifier.confidence("Beach Holiday Vlog", candidate, details)

	if !(exact >= partial && partial >= unrelated) {
		t.Fatalf("confidence not monotonic in similarity: %v, %v, %v", exact, partial, unrelated)
	}
	if exact <= unrelated {
		t.Fatalf("exact title must outscore unrelated: %v vs %v", exact, unrelated)
	}
}

func TestLookupTitleStripsDecorations(t *testing.T) {
	cases := map[string]string{
		"Casablanca (1942) Full Movie HD":        "Casablanca",
		"Metropolis [Restored] 1080p":            "Metropolis",
		"Nosferatu 1922 - colorized":             "Nosferatu",
		"  The General  ":                        "The General",
		"His Girl Friday (Public Domain) [720p]": "His Girl Friday",
	}
	for in, want := range cases {
		if got := LookupTitle(in); got != want {
			t.Fatalf("LookupTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEraYearHint(t *testing.T) {
	cases := map[string]int{
		"1920s":  1925,
		"1960s":  1965,
		"modern": 0,
		"":       0,
		"1947s":  0,
	}
	for in, want := range cases {
		if got := eraYearHint(in); got != want {
			t.Fatalf("eraYearHint(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestDisplayTitleFixesShoutingOnly(t *testing.T) {
	if got := displayTitle("THE GOLD RUSH"); got != "The Gold Rush" {
		t.Fatalf("expected recased title, got %q", got)
	}
	if got := displayTitle("M"); got != "M" {
		t.Fatalf("single-letter title must pass through, got %q", got)
	}
	if got := displayTitle("It Happened One Night"); got != "It Happened One Night" {
		t.Fatalf("cased title must pass through, got %q", got)
	}
}

func TestHasClassicStudioWordBoundaries(t *testing.T) {
	if !hasClassicStudio([]tmdb.Company{{Name: "RKO Radio Pictures"}}) {
		t.Fatal("expected RKO to match")
	}
	if !hasClassicStudio([]tmdb.Company{{Name: "Universum Film (UFA)"}}) {
		t.Fatal("expected UFA to match")
	}
	if hasClassicStudio([]tmdb.Company{{Name: "Filmmanufaktur Berlin"}}) {
		t.Fatal("substring ufa inside another word must not match")
	}
	if hasClassicStudio([]tmdb.Company{{Name: "A24"}}) {
		t.Fatal("modern studio must not match")
	}
}
