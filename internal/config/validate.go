package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVimeo(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVimeo() error {
	if c.Vimeo.APIToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelscout/config.toml"
		}
		return fmt.Errorf("vimeo.api_token is required. Set VIMEO_API_TOKEN env var or edit %s (create with 'reelscout config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.AcceptanceThreshold < 0 || c.TMDB.AcceptanceThreshold > 100 {
		return errors.New("tmdb.acceptance_threshold must be between 0 and 100")
	}
	if c.Search.VerificationEnabled && c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required when search.verification_enabled is true. Set TMDB_API_KEY or disable verification")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.RelevanceThreshold < 1 || c.Search.RelevanceThreshold > 10 {
		return errors.New("search.relevance_threshold must be between 1 and 10")
	}
	if c.Search.ResultCapPerQuery > 1000 {
		return errors.New("search.result_cap_per_query must not exceed 1000")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
