package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is not set. A missing file is fine.
const DefaultConfigFile = "config.yaml"

// Config is the runtime configuration of the server.
//
// Values come from, in increasing priority: built-in defaults, the YAML file,
// then environment variables (a local .env file is loaded first).
type Config struct {
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`
	SQLitePath  string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`

	RedisURL      string `yaml:"redis_url" envconfig:"REDIS_URL"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`

	Host string `yaml:"host" envconfig:"HOST"`
	Port string `yaml:"port" envconfig:"PORT"`

	TickInterval time.Duration `yaml:"tick_interval" envconfig:"TICK_INTERVAL"`
	SeriesLength int           `yaml:"series_length" envconfig:"SERIES_LENGTH"`
	HiddenBars   int           `yaml:"hidden_bars" envconfig:"HIDDEN_BARS"`
	RoundSeconds int           `yaml:"round_seconds" envconfig:"ROUND_SECONDS"`
	TotalRounds  int           `yaml:"total_rounds" envconfig:"TOTAL_ROUNDS"`

	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" envconfig:"SESSION_IDLE_TIMEOUT"`
	JanitorSchedule    string        `yaml:"janitor_schedule" envconfig:"JANITOR_SCHEDULE"`
}

// Load builds the configuration. path may be empty, in which case CONFIG_FILE
// or DefaultConfigFile is used.
func Load(path string) (*Config, error) {
	// .env is optional; production sets real environment variables
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RedisURL == "" {
		c.RedisURL = "localhost:6379"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/candlequest.db"
	}
	if c.Host == "" {
		c.Host = ServerHost
	}
	if c.Port == "" {
		c.Port = ServerPort
	}
	if c.TickInterval == 0 {
		c.TickInterval = TickInterval
	}
	if c.SeriesLength == 0 {
		c.SeriesLength = SeriesLength
	}
	if c.HiddenBars == 0 {
		c.HiddenBars = HiddenBars
	}
	if c.RoundSeconds == 0 {
		c.RoundSeconds = RoundBudgetSeconds
	}
	if c.TotalRounds == 0 {
		c.TotalRounds = TotalRounds
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = SessionIdleTimeout
	}
	if c.JanitorSchedule == "" {
		c.JanitorSchedule = JanitorSchedule
	}
}

// Validate checks the round settings. Storage settings are optional.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if c.SeriesLength < 2 {
		return fmt.Errorf("series_length must be at least 2")
	}
	if c.HiddenBars < 0 || c.HiddenBars >= c.SeriesLength {
		return fmt.Errorf("hidden_bars must be below series_length")
	}
	if c.RoundSeconds < 1 {
		return fmt.Errorf("round_seconds must be positive")
	}
	if c.TotalRounds < 1 {
		return fmt.Errorf("total_rounds must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
