package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services"
)

type fakeCompleter struct {
	content string
	err     error
	prompts []string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.content, f.err
}

func batchOfTwo() []record.Candidate {
	return []record.Candidate{
		{ID: "vimeo.com/1", Title: "Nosferatu", Duration: 5640, Uploader: "Archive"},
		{ID: "vimeo.com/2", Title: "Metropolis", Duration: 8900},
	}
}

func TestJudgeMapsResultsByCandidateID(t *testing.T) {
	completer := &fakeCompleter{content: `[
		{"id": "vimeo.com/1", "is_old_movie": true, "estimated_era": "1920s", "genre": "horror", "relevance_score": 9},
		{"id": "vimeo.com/2", "is_old_movie": false, "estimated_era": "modern", "genre": "drama", "relevance_score": 2}
	]`}
	oracle := NewLLMOracle(completer, logging.NewNop())

	results, err := oracle.Judge(context.Background(), batchOfTwo())
	if err != nil {
		t.Fatalf("Judge returned error: %v", err)
	}
	first, ok := results["vimeo.com/1"]
	if !ok {
		t.Fatal("missing judgment for vimeo.com/1")
	}
	if !first.IsOldMovie || first.Era != "1920s" || first.Genre != "horror" || first.Relevance != 9 {
		t.Fatalf("unexpected judgment: %+v", first)
	}
	if first.Heuristic {
		t.Fatal("oracle judgment must not be marked heuristic")
	}
	second := results["vimeo.com/2"]
	if second.IsOldMovie || second.Relevance != 2 {
		t.Fatalf("unexpected judgment: %+v", second)
	}
}

func TestJudgePromptNamesEveryCandidate(t *testing.T) {
	completer := &fakeCompleter{content: `[]`}
	oracle := NewLLMOracle(completer, logging.NewNop())

	if _, err := oracle.Judge(context.Background(), batchOfTwo()); err != nil {
		t.Fatalf("Judge returned error: %v", err)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected one oracle call, got %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	for _, fragment := range []string{"vimeo.com/1", "vimeo.com/2", "Nosferatu", "duration_minutes: 94"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestJudgeDropsMalformedItemsIndividually(t *testing.T) {
	completer := &fakeCompleter{content: `[
		{"id": "vimeo.com/1", "is_old_movie": true, "estimated_era": "1920s", "genre": "horror", "relevance_score": 11},
		{"id": "vimeo.com/999", "is_old_movie": true, "relevance_score": 7},
		{"id": "vimeo.com/2", "is_old_movie": true, "estimated_era": "1920s", "genre": "sci-fi", "relevance_score": 8}
	]`}
	oracle := NewLLMOracle(completer, logging.NewNop())

	results, err := oracle.Judge(context.Background(), batchOfTwo())
	if err != nil {
		t.Fatalf("Judge returned error: %v", err)
	}
	if _, ok := results["vimeo.com/1"]; ok {
		t.Fatal("out-of-range relevance should drop the judgment")
	}
	if _, ok := results["vimeo.com/999"]; ok {
		t.Fatal("unknown id should be dropped")
	}
	if _, ok := results["vimeo.com/2"]; !ok {
		t.Fatal("valid judgment in the same batch should survive")
	}
}

func TestJudgeHandlesFencedPayload(t *testing.T) {
	completer := &fakeCompleter{content: "```json\n[{\"id\": \"vimeo.com/1\", \"is_old_movie\": true, \"estimated_era\": \"1920s\", \"genre\": \"noir\", \"relevance_score\": 7}]\n```"}
	oracle := NewLLMOracle(completer, logging.NewNop())

	results, err := oracle.Judge(context.Background(), batchOfTwo())
	if err != nil {
		t.Fatalf("Judge returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 judgment, got %d", len(results))
	}
}

func TestJudgeUndecodablePayloadFailsBatch(t *testing.T) {
	completer := &fakeCompleter{content: "I could not evaluate these videos."}
	oracle := NewLLMOracle(completer, logging.NewNop())

	if _, err := oracle.Judge(context.Background(), batchOfTwo()); !errors.Is(err, services.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestJudgeTransportFailureIsTransient(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("http 503")}
	oracle := NewLLMOracle(completer, logging.NewNop())

	if _, err := oracle.Judge(context.Background(), batchOfTwo()); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestNormalizeGenreVariants(t *testing.T) {
	cases := map[string]string{
		"Film Noir":       "noir",
		"science fiction": "sci-fi",
		"WESTERN":         "western",
		"mockumentary":    "unknown",
		"":                "unknown",
	}
	for in, want := range cases {
		if got := normalizeGenre(in); got != want {
			t.Fatalf("normalizeGenre(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEraVariants(t *testing.T) {
	cases := map[string]string{
		"1920s":     "1920s",
		" Modern ":  "modern",
		"the 1930s": "",
		"1945":      "",
	}
	for in, want := range cases {
		if got := normalizeEra(in); got != want {
			t.Fatalf("normalizeEra(%q) = %q, want %q", in, got, want)
		}
	}
}
