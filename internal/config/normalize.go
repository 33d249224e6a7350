package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVimeo()
	c.normalizeTMDB()
	c.normalizeLLM()
	c.normalizeSearch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVimeo() {
	if c.Vimeo.APIToken == "" {
		if value, ok := os.LookupEnv("VIMEO_API_TOKEN"); ok {
			c.Vimeo.APIToken = value
		}
	}
	c.Vimeo.APIToken = strings.TrimSpace(c.Vimeo.APIToken)
	c.Vimeo.BaseURL = strings.TrimSpace(c.Vimeo.BaseURL)
	if c.Vimeo.BaseURL == "" {
		c.Vimeo.BaseURL = defaultVimeoBaseURL
	}
	if c.Vimeo.PerPage <= 0 || c.Vimeo.PerPage > defaultVimeoPerPage {
		c.Vimeo.PerPage = defaultVimeoPerPage
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.AcceptanceThreshold == 0 {
		c.TMDB.AcceptanceThreshold = defaultAcceptanceThreshold
	}
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = value
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.BatchSize <= 0 {
		c.LLM.BatchSize = defaultLLMBatchSize
	}
}

func (c *Config) normalizeSearch() {
	queries := make([]string, 0, len(c.Search.Queries))
	for _, query := range c.Search.Queries {
		if trimmed := strings.TrimSpace(query); trimmed != "" {
			queries = append(queries, trimmed)
		}
	}
	c.Search.Queries = queries
	if c.Search.ResultCapPerQuery <= 0 {
		c.Search.ResultCapPerQuery = defaultResultCapPerQuery
	}
	if c.Search.RelevanceThreshold <= 0 {
		c.Search.RelevanceThreshold = defaultRelevanceThreshold
	}
	if c.Search.MinDurationSeconds <= 0 {
		c.Search.MinDurationSeconds = defaultMinDurationSeconds
	}
	if c.Search.FetchWorkers <= 0 {
		c.Search.FetchWorkers = defaultFetchWorkers
	}
	if c.Search.VerifyWorkers <= 0 {
		c.Search.VerifyWorkers = defaultVerifyWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
