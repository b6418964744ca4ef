package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	Leitner  LeitnerConfig  `mapstructure:"leitner"`
	Import   ImportConfig   `mapstructure:"import"   validate:"required"`
	Store    StoreConfig    `mapstructure:"store"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int      `mapstructure:"port"                 validate:"required,gt=0,lt=65536"`
	LogLevel           string   `mapstructure:"log_level"            validate:"required,oneof=debug info warn error"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"dive,required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
//
// DevEmail and DevPasswordHash enable the single-user development login; the
// hash is a bcrypt hash. Leaving either empty disables the login endpoint.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
	DevEmail             string `mapstructure:"dev_email"              validate:"omitempty,email"`
	DevPasswordHash      string `mapstructure:"dev_password_hash"`
}

// LLMConfig contains all LLM integration related settings. An empty API key
// disables AI proposal generation; proposals can still be recorded directly.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name"           validate:"required_with=GeminiAPIKey"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required_with=GeminiAPIKey"`
	MaxRetries         int    `mapstructure:"max_retries"          validate:"gte=0,lte=10"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds"  validate:"gte=0,lte=60"`
}

// Enabled reports whether a generator can be built from this configuration.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	QueueSize           int `mapstructure:"queue_size"             validate:"required,gt=0"`
	WorkerCount         int `mapstructure:"worker_count"           validate:"required,gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
}

// LeitnerConfig holds the review interval table, one entry per box, in hours.
// An empty table selects the built-in defaults.
type LeitnerConfig struct {
	IntervalsHours []int `mapstructure:"intervals_hours" validate:"omitempty,min=2,dive,gt=0"`
}

// ImportConfig contains settings for import sessions and proposals.
type ImportConfig struct {
	SessionTTL        time.Duration `mapstructure:"session_ttl"        validate:"required,gt=0"`
	AcceptConcurrency int           `mapstructure:"accept_concurrency" validate:"required,gt=0,lte=64"`
	MaxProposals      int           `mapstructure:"max_proposals"      validate:"required,gt=0"`
	MaxContentChars   int           `mapstructure:"max_content_chars"  validate:"required,gt=0"`
}

// StoreConfig bounds database waits and automatic retries.
type StoreConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"required,gt=0"`
	MaxRetries       int           `mapstructure:"max_retries"       validate:"gte=0,lte=10"`
}
