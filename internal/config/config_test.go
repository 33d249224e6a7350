package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("OPENROUTER_API_KEY", "")

	path := writeConfig(t, "")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if cfg.Vimeo.BaseURL != defaultVimeoBaseURL {
		t.Fatalf("expected default vimeo base url, got %q", cfg.Vimeo.BaseURL)
	}
	if cfg.Search.RelevanceThreshold != defaultRelevanceThreshold {
		t.Fatalf("expected default relevance threshold, got %d", cfg.Search.RelevanceThreshold)
	}
	if cfg.LLM.BatchSize != defaultLLMBatchSize {
		t.Fatalf("expected default batch size, got %d", cfg.LLM.BatchSize)
	}
	if !cfg.VerifierConfigured() {
		t.Fatal("expected verifier configured from env key")
	}
	if cfg.ClassifierConfigured() {
		t.Fatal("expected classifier unconfigured without api key")
	}
}

func TestLoadRequiresVimeoToken(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "")
	t.Setenv("TMDB_API_KEY", "tmdb-key")

	path := writeConfig(t, "")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for missing vimeo token")
	} else if !strings.Contains(err.Error(), "vimeo.api_token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRequiresTMDBKeyWhenVerifying(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "")

	path := writeConfig(t, "[search]\nverification_enabled = true\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for missing tmdb key")
	}

	path = writeConfig(t, "[search]\nverification_enabled = false\n")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Search.VerificationEnabled {
		t.Fatal("expected verification disabled")
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "tmdb-key")

	path := writeConfig(t, "[search]\nrelevance_threshold = 42\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for out-of-range relevance threshold")
	}

	path = writeConfig(t, "[tmdb]\nacceptance_threshold = 250.0\n")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for out-of-range acceptance threshold")
	}
}

func TestLoadTrimsQueryOverrides(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "tmdb-key")

	path := writeConfig(t, "[search]\nqueries = [\" film noir \", \"\", \"silent films\"]\n")
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"film noir", "silent films"}
	if len(cfg.Search.Queries) != len(want) {
		t.Fatalf("expected %d queries, got %d", len(want), len(cfg.Search.Queries))
	}
	for i, query := range want {
		if cfg.Search.Queries[i] != query {
			t.Fatalf("query %d: expected %q, got %q", i, query, cfg.Search.Queries[i])
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("VIMEO_API_TOKEN", "token")
	t.Setenv("TMDB_API_KEY", "tmdb-key")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil {
		t.Fatalf("Load of sample config failed: %v", err)
	} else if !exists {
		t.Fatal("expected sample config to exist")
	}
}
