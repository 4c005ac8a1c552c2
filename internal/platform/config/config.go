// Package config loads engine configuration from the environment.
//
// Every tunable threshold the pipelines rely on (z-score cutoff, intent
// floor, concurrency group size, lookback windows) lives here as a named
// field so it can be tested and tuned independently of the code that
// consumes it.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	// AI scoring
	LLMAPIKey        string        `env:"LLM_API_KEY,required"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS     int           `env:"RATE_LIMIT_RPS" envDefault:"2"`
	AICallTimeout    time.Duration `env:"AI_CALL_TIMEOUT" envDefault:"30s"`
	ScoreGroupSize   int           `env:"SCORE_GROUP_SIZE" envDefault:"3"`
	IntentThreshold  int           `env:"INTENT_THRESHOLD" envDefault:"75"`
	FuryEnabled      bool          `env:"FURY_ANALYSIS_ENABLED" envDefault:"true"`
	NewsContextLimit int           `env:"NEWS_CONTEXT_LIMIT" envDefault:"3"`

	// Lead pipeline
	SubjectBatchSize  int `env:"SUBJECT_BATCH_SIZE" envDefault:"10"`
	PostLookbackHours int `env:"POST_LOOKBACK_HOURS" envDefault:"48"`

	// Trend statistics
	TrendWindowHours int     `env:"TREND_WINDOW_HOURS" envDefault:"24"`
	TrendHistoryDays int     `env:"TREND_HISTORY_DAYS" envDefault:"7"`
	ZScoreThreshold  float64 `env:"Z_SCORE_THRESHOLD" envDefault:"1.5"`
	MinTrendingCount int     `env:"MIN_TRENDING_COUNT" envDefault:"5"`

	// Entity dynamics
	EntityBatchSize   int `env:"ENTITY_BATCH_SIZE" envDefault:"20"`
	EntityHistoryDays int `env:"ENTITY_HISTORY_DAYS" envDefault:"30"`

	// Semantic matching
	SemanticMatchEnabled bool    `env:"SEMANTIC_MATCH_ENABLED" envDefault:"false"`
	SemanticThreshold    float32 `env:"SEMANTIC_THRESHOLD" envDefault:"0.75"`
	SemanticMatchLimit   int     `env:"SEMANTIC_MATCH_LIMIT" envDefault:"10"`
	EmbedBatchSize       int     `env:"EMBED_BATCH_SIZE" envDefault:"25"`

	// Scheduling (serve mode). Cron expressions include seconds.
	LeadsSchedule    string `env:"LEADS_SCHEDULE" envDefault:"0 */15 * * * *"`
	TrendsSchedule   string `env:"TRENDS_SCHEDULE" envDefault:"0 5 * * * *"`
	EntitiesSchedule string `env:"ENTITIES_SCHEDULE" envDefault:"0 35 * * * *"`

	// Embedding backfill worker
	EmbedPollInterval time.Duration `env:"EMBED_POLL_INTERVAL" envDefault:"1m"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that would silently disable the
// engine's safety properties.
func (c *Config) Validate() error {
	if c.ScoreGroupSize < 1 {
		return fmt.Errorf("SCORE_GROUP_SIZE must be at least 1, got %d", c.ScoreGroupSize)
	}

	if c.IntentThreshold < 0 || c.IntentThreshold > 100 {
		return fmt.Errorf("INTENT_THRESHOLD must be in [0,100], got %d", c.IntentThreshold)
	}

	if c.SubjectBatchSize < 1 {
		return fmt.Errorf("SUBJECT_BATCH_SIZE must be at least 1, got %d", c.SubjectBatchSize)
	}

	if c.AICallTimeout <= 0 {
		return fmt.Errorf("AI_CALL_TIMEOUT must be positive, got %s", c.AICallTimeout)
	}

	return nil
}

// PostLookback returns the post fetch window as a duration.
func (c *Config) PostLookback() time.Duration {
	return time.Duration(c.PostLookbackHours) * time.Hour
}

// TrendWindow returns the recent-volume window as a duration.
func (c *Config) TrendWindow() time.Duration {
	return time.Duration(c.TrendWindowHours) * time.Hour
}

// TrendHistory returns the baseline lookback as a duration.
func (c *Config) TrendHistory() time.Duration {
	return time.Duration(c.TrendHistoryDays) * 24 * time.Hour
}
