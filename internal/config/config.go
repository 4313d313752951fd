package config

import (
	"time"

	"github.com/lingocards/lingo-api/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig      `mapstructure:"server" validate:"required"`
	Database DatabaseConfig    `mapstructure:"database" validate:"required"`
	SRS      SRSConfig         `mapstructure:"srs" validate:"required"`
	Modules  map[string]string `mapstructure:"modules" validate:"required,min=1,dive,keys,required,endkeys,tablename"`
	Content  ContentConfig     `mapstructure:"content" validate:"required"`
	Auth     AuthConfig        `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig         `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverSupabase = "supabase"
)

// DatabaseConfig selects and configures the card store backend.
// postgres and sqlite use URL; supabase talks to the PostgREST endpoint.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=postgres sqlite supabase"`
	URL         string `mapstructure:"url" validate:"required_unless=Driver supabase"`
	SupabaseURL string `mapstructure:"supabase_url" validate:"required_if=Driver supabase,omitempty,url"`
	SupabaseKey string `mapstructure:"supabase_key" validate:"required_if=Driver supabase"`
	MaxRetries  int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// SRSConfig holds the scheduler tunables. They are read once at startup.
type SRSConfig struct {
	ApplicationThreshold int    `mapstructure:"a_threshold" validate:"gt=0"`
	TargetCount          int    `mapstructure:"k_target" validate:"gte=0"`
	Timezone             string `mapstructure:"timezone" validate:"required,timezone"`
	PlanTime             string `mapstructure:"plan_time" validate:"required,datetime=15:04"`
}

// ContentConfig locates seed files and the generated audio cache.
type ContentConfig struct {
	SeedDir  string `mapstructure:"seed_dir" validate:"required"`
	AudioDir string `mapstructure:"audio_dir" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=525600"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// LLMConfig configures the Gemini client used for speech synthesis and text
// recognition. Speech routes are disabled when no API key is set.
type LLMConfig struct {
	GeminiAPIKey   string `mapstructure:"gemini_api_key"`
	TTSModel       string `mapstructure:"tts_model" validate:"required"`
	OCRModel       string `mapstructure:"ocr_model" validate:"required"`
	MaxConcurrency int    `mapstructure:"max_concurrency" validate:"gt=0,lte=32"`
	MaxRetries     int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// Location returns the scheduler's time zone. Validation guarantees it loads.
func (c SRSConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SchedulerParams builds the scheduler parameters from the configured
// tunables. Both values are taken as-is: a k_target of 0 means forced cards only.
func (c SRSConfig) SchedulerParams() *srs.Params {
	params := srs.NewDefaultParams()
	params.ApplicationThreshold = c.ApplicationThreshold
	params.TargetCount = c.TargetCount
	return params
}
