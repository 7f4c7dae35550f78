package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	Retry    RetryConfig    `mapstructure:"retry"    validate:"required"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
}

// ServerConfig contains process-level settings for the worker.
type ServerConfig struct {
	LogLevel   string `mapstructure:"log_level"   validate:"required,oneof=debug info warn error"`
	HealthPort int    `mapstructure:"health_port" validate:"required,gt=0,lt=65536"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig controls job queue backend selection and polling. A
// non-empty AMQPURL selects the durable broker backend (wrapped in the
// in-process fallback); an empty one selects the in-process queue alone.
type QueueConfig struct {
	AMQPURL            string `mapstructure:"amqp_url"`
	QueueName          string `mapstructure:"queue_name"           validate:"required"`
	PollTimeoutSeconds int    `mapstructure:"poll_timeout_seconds" validate:"required,gte=1,lte=20"`
	FallbackBufferSize int    `mapstructure:"fallback_buffer_size" validate:"required,gt=0"`
}

// WorkerConfig controls the worker loop and the stuck-upload sweep.
type WorkerConfig struct {
	SweepIntervalSeconds     int `mapstructure:"sweep_interval_seconds"      validate:"required,gte=10"`
	StaleProcessingAgeMins   int `mapstructure:"stale_processing_age_minutes" validate:"required,gte=1"`
	PendingGraceSeconds      int `mapstructure:"pending_grace_seconds"       validate:"required,gte=10"`
	SweepBatchSize           int `mapstructure:"sweep_batch_size"            validate:"required,gt=0"`
	MaxSweepRetries          int `mapstructure:"max_sweep_retries"           validate:"required,gte=1"`
	StopAfter                int `mapstructure:"stop_after"                  validate:"gte=0"`
}

// RetryConfig controls the backoff executor wrapped around the
// AI-dependent portion of job processing.
type RetryConfig struct {
	MaxAttempts      int     `mapstructure:"max_attempts"       validate:"required,gte=1"`
	BaseDelaySeconds float64 `mapstructure:"base_delay_seconds" validate:"required,gt=0"`
	CapSeconds       float64 `mapstructure:"cap_seconds"        validate:"required,gt=0"`
	Jitter           bool    `mapstructure:"jitter"`
}

// AnalysisConfig contains the thresholds governing whether a writing
// sample is analyzable and how many recommendations must survive filtering.
type AnalysisConfig struct {
	MinInitialWords        int `mapstructure:"min_initial_words"        validate:"required,gt=0"`
	MinUpdateWords         int `mapstructure:"min_update_words"         validate:"required,gt=0"`
	BaselineWordLimit      int `mapstructure:"baseline_word_limit"      validate:"required,gt=0"`
	TargetBatchSize        int `mapstructure:"target_batch_size"        validate:"required,gt=0"`
	MinSafeRecommendations int `mapstructure:"min_safe_recommendations" validate:"required,gt=0"`

	// FilterEnabled toggles the profanity screen; normalization and
	// difficulty clamping always run. BlockedWordsFile optionally names a
	// file of extra blocked words, one per line.
	FilterEnabled    bool   `mapstructure:"filter_enabled"`
	BlockedWordsFile string `mapstructure:"blocked_words_file"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}
