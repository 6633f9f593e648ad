// Package config loads collector settings from the environment and .env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// EnvPaths are the .env locations tried in order; the first one found wins.
var EnvPaths = []string{".env", "../.env", "../../.env"}

// Config holds every setting the commands read.
type Config struct {
	// Riot API
	RiotAPIKey  string `env:"RIOT_API_KEY"`
	RiotRegion  string `env:"RIOT_REGION" envDefault:"euw1"`
	RiotRouting string `env:"RIOT_ROUTING" envDefault:"europe"`

	// Admission windows
	RequestsPerSecond int           `env:"REQUESTS_PER_SECOND" envDefault:"15"`
	RequestsPer2Min   int           `env:"REQUESTS_PER_2MIN" envDefault:"90"`
	RetryAfterDefault time.Duration `env:"RETRY_AFTER_DEFAULT" envDefault:"10s"`

	// Collection
	MatchesPerPlayer int           `env:"MATCHES_PER_PLAYER" envDefault:"10"`
	QueueID          int           `env:"QUEUE_ID" envDefault:"420"`
	SampleInterval   int           `env:"SAMPLE_INTERVAL" envDefault:"5"`
	IdentityCooldown time.Duration `env:"IDENTITY_COOLDOWN" envDefault:"15s"`
	IdentitiesFile   string        `env:"IDENTITIES_FILE" envDefault:"summoner_names.txt"`

	// Storage
	DatabaseURL       string `env:"DATABASE_URL" envDefault:"file:intervals.db"`
	DatabaseAuthToken string `env:"DATABASE_AUTH_TOKEN"`
	ArchivePath       string `env:"ARCHIVE_PATH"`

	// Export
	ExportDir       string `env:"EXPORT_DIR" envDefault:"./export"`
	ExportBatchSize int    `env:"EXPORT_BATCH_SIZE" envDefault:"10000"`

	// Integrations
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
	RedisURL          string `env:"REDIS_URL"`
	MetricsAddr       string `env:"METRICS_ADDR"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv loads the first .env file found among paths and returns its
// path, or "" if none was found.
func LoadDotEnv(paths ...string) string {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	if path := LoadDotEnv(EnvPaths...); path != "" {
		log.Printf("Loaded .env from: %s", path)
	} else {
		log.Println("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads a Config from the current environment.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize strips quotes left over from .env files.
func (c *Config) normalize() {
	for _, s := range []*string{&c.RiotAPIKey, &c.DatabaseURL, &c.ArchivePath, &c.IdentitiesFile, &c.ExportDir} {
		*s = strings.Trim(strings.TrimSpace(*s), "\"")
	}
}

// Validate checks ranges. The API key is checked by RequireAPIKey since not
// every command needs it.
func (c *Config) Validate() error {
	switch {
	case c.RequestsPerSecond <= 0:
		return fmt.Errorf("REQUESTS_PER_SECOND must be positive, got %d", c.RequestsPerSecond)
	case c.RequestsPer2Min <= 0:
		return fmt.Errorf("REQUESTS_PER_2MIN must be positive, got %d", c.RequestsPer2Min)
	case c.MatchesPerPlayer <= 0 || c.MatchesPerPlayer > 100:
		return fmt.Errorf("MATCHES_PER_PLAYER must be in 1..100, got %d", c.MatchesPerPlayer)
	case c.SampleInterval <= 0:
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %d", c.SampleInterval)
	case c.ExportBatchSize <= 0:
		return fmt.Errorf("EXPORT_BATCH_SIZE must be positive, got %d", c.ExportBatchSize)
	case c.IdentityCooldown < 0:
		return fmt.Errorf("IDENTITY_COOLDOWN must not be negative, got %s", c.IdentityCooldown)
	}
	return nil
}

// RequireAPIKey returns an error when RIOT_API_KEY is unset.
func (c *Config) RequireAPIKey() error {
	if c.RiotAPIKey == "" {
		return fmt.Errorf("RIOT_API_KEY environment variable not set")
	}
	return nil
}

// SetupLogging applies LOG_LEVEL to the standard logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
