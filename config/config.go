package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// LLM settings
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	SmokeTest  bool   `env:"SMOKE_TEST" envDefault:"false"`

	// Storage
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"memchat.db"`
	SQLHost     string `env:"SQL_HOST"`
	SQLPort     string `env:"SQL_PORT" envDefault:"3306"`
	SQLUser     string `env:"SQL_USER"`
	SQLPassword string `env:"SQL_PASSWORD"`
	SQLDBName   string `env:"SQL_DBNAME"`

	// HTTP
	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"*"`

	// Retention
	CleanupDays          int    `env:"CLEANUP_DAYS" envDefault:"7"`
	MaxConversations     int    `env:"MAX_CONVERSATIONS" envDefault:"30"`
	MaxLiveConversations int    `env:"MAX_LIVE_CONVERSATIONS" envDefault:"0"`
	CleanupCron          string `env:"CLEANUP_CRON" envDefault:"0 3 * * *"`

	// Per-route rate limits, requests per minute per client IP
	RateCreatePerMin  int `env:"RATE_CREATE_PER_MIN" envDefault:"20"`
	RatePostPerMin    int `env:"RATE_POST_PER_MIN" envDefault:"10"`
	RateCleanupPerMin int `env:"RATE_CLEANUP_PER_MIN" envDefault:"6"`
	RateWipePerMin    int `env:"RATE_WIPE_PER_MIN" envDefault:"2"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
