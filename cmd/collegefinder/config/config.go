package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/scorecard"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/search"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables read by Load.
const (
	EnvAPIKey      = "COLLEGE_SCORECARD_KEY"
	EnvURL         = "SCORECARD_URL"
	EnvTimeout     = "SCORECARD_TIMEOUT"
	EnvRatePerHour = "SCORECARD_RATE_PER_HOUR"
	EnvAddr        = "ADDR"
	EnvLogLevel    = "LOG_LEVEL"
	EnvSessionTTL  = "SESSION_TTL"
)

type Config struct {
	APIKey       string
	ScorecardURL string
	Timeout      time.Duration
	RatePerHour  int
	Addr         string
	LogLevel     zerolog.Level
	SessionTTL   time.Duration
}

// Load reads envFile (when it exists) into the environment and builds the
// configuration from it. Variables already set win over the file. A missing
// API key is not reported here; the upstream client refuses to start without
// one.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &types.ConfigurationError{Key: envFile, Reason: err.Error()}
		}
	}

	cfg := &Config{
		APIKey:       strings.TrimSpace(os.Getenv(EnvAPIKey)),
		ScorecardURL: getEnv(EnvURL, scorecard.DefaultBaseURL),
		Addr:         getEnv(EnvAddr, ":8080"),
	}

	var err error
	if cfg.Timeout, err = durationEnv(EnvTimeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv(EnvSessionTTL, search.DefaultRegistryConfig().TTL); err != nil {
		return nil, err
	}
	if cfg.RatePerHour, err = intEnv(EnvRatePerHour, 1000); err != nil {
		return nil, err
	}

	level := getEnv(EnvLogLevel, "info")
	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return nil, &types.ConfigurationError{Key: EnvLogLevel, Reason: err.Error()}
	}
	return cfg, nil
}

// Scorecard returns the upstream client settings.
func (c *Config) Scorecard() scorecard.Config {
	return scorecard.Config{
		BaseURL:     c.ScorecardURL,
		APIKey:      c.APIKey,
		Timeout:     c.Timeout,
		RatePerHour: c.RatePerHour,
	}
}

// Registry returns the session registry settings.
func (c *Config) Registry() search.RegistryConfig {
	rc := search.DefaultRegistryConfig()
	rc.TTL = c.SessionTTL
	return rc
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, &types.ConfigurationError{Key: key, Reason: "must be a non-negative duration such as 30s"}
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &types.ConfigurationError{Key: key, Reason: "must be a non-negative integer"}
	}
	return n, nil
}
