package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Processing ProcessingConfig `mapstructure:"processing" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// The DSN carries both the store endpoint and its credential.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all generation-service related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// ProcessingConfig contains the batch-processing engine settings:
// fan-out width, dispatch pacing, timeouts, and the async task runner
// dimensions.
type ProcessingConfig struct {
	// MaxConcurrentRows bounds the per-batch row fan-out.
	MaxConcurrentRows int `mapstructure:"max_concurrent_rows" validate:"required,gt=0"`

	// DispatchDelayMs is an optional fixed pause between successive row
	// dispatches, as a rate-limiting courtesy to the generation service.
	DispatchDelayMs int `mapstructure:"dispatch_delay_ms" validate:"gte=0"`

	// RowTimeoutSeconds bounds one row: one generation call plus one
	// store write.
	RowTimeoutSeconds int `mapstructure:"row_timeout_seconds" validate:"required,gt=0"`

	// BatchTimeoutSeconds bounds a whole batch, sized to cover a fully
	// sequential fallback.
	BatchTimeoutSeconds int `mapstructure:"batch_timeout_seconds" validate:"required,gt=0"`

	// WorkerCount is the number of concurrent batch-orchestration workers.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueSize is the buffer size of the in-memory batch task queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}
