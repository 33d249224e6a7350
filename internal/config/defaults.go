package config

const (
	defaultOutputDir           = "~/.local/share/reelscout/outputs"
	defaultLogDir              = "~/.local/share/reelscout/logs"
	defaultVimeoBaseURL        = "https://api.vimeo.com"
	defaultVimeoPerPage        = 25
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBLanguage        = "en-US"
	defaultAcceptanceThreshold = 60.0
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "anthropic/claude-sonnet-4"
	defaultLLMReferer          = "https://github.com/reelscout/reelscout"
	defaultLLMTitle            = "Reelscout Classifier"
	defaultLLMTimeoutSeconds   = 60
	defaultLLMBatchSize        = 10
	defaultResultCapPerQuery   = 50
	defaultRelevanceThreshold  = 6
	defaultMinDurationSeconds  = 2400
	defaultFetchWorkers        = 4
	defaultVerifyWorkers       = 3
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Vimeo: Vimeo{
			BaseURL: defaultVimeoBaseURL,
			PerPage: defaultVimeoPerPage,
		},
		TMDB: TMDB{
			BaseURL:             defaultTMDBBaseURL,
			Language:            defaultTMDBLanguage,
			AcceptanceThreshold: defaultAcceptanceThreshold,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			BatchSize:      defaultLLMBatchSize,
		},
		Search: Search{
			ResultCapPerQuery:   defaultResultCapPerQuery,
			RelevanceThreshold:  defaultRelevanceThreshold,
			VerificationEnabled: true,
			MinDurationSeconds:  defaultMinDurationSeconds,
			FetchWorkers:        defaultFetchWorkers,
			VerifyWorkers:       defaultVerifyWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
