package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/session"
	"github.com/srg/blekeep/internal/sink"
	"gopkg.in/yaml.v3"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level" default:"info"`

	InitialBackoff    time.Duration `yaml:"initial_backoff" default:"2s"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" default:"1.5"`
	// MaxBackoff applies only when supplied; otherwise the cap is
	// connect_timeout if one was supplied, else unbounded.
	MaxBackoff     time.Duration        `yaml:"max_backoff"`
	ConnectTimeout time.Duration        `yaml:"connect_timeout" default:"30s"`
	DataTimeout    time.Duration        `yaml:"data_timeout" default:"60s"`
	PollInterval   time.Duration        `yaml:"poll_interval" default:"1ms"`
	ResetBackoffOn session.BackoffReset `yaml:"reset_backoff_on" default:"connect"`

	WindowSize           int     `yaml:"window_size" default:"5"`
	WheelCircumferenceMM float64 `yaml:"wheel_circumference_mm" default:"2096"`

	Format string `yaml:"format" default:"text"`
	Color  string `yaml:"color" default:"auto"`

	NATS sink.NATSConfig `yaml:"nats"`

	connectTimeoutSupplied bool
	maxBackoffSupplied     bool
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file over the defaults, then applies environment
// overrides and validates the result.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.unmarshal(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) unmarshal(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	var supplied struct {
		ConnectTimeout *time.Duration `yaml:"connect_timeout"`
		MaxBackoff     *time.Duration `yaml:"max_backoff"`
	}
	if err := yaml.Unmarshal(data, &supplied); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if supplied.ConnectTimeout != nil {
		c.connectTimeoutSupplied = true
	}
	if supplied.MaxBackoff != nil {
		c.maxBackoffSupplied = true
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv("BLEKEEP_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if url := os.Getenv("BLEKEEP_NATS_URL"); url != "" {
		c.NATS.URL = url
	}
	if subject := os.Getenv("BLEKEEP_NATS_SUBJECT"); subject != "" {
		c.NATS.Subject = subject
	}
	if format := os.Getenv("BLEKEEP_FORMAT"); format != "" {
		c.Format = format
	}
	if v := os.Getenv("BLEKEEP_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLEKEEP_CONNECT_TIMEOUT: %w", err)
		}
		c.SetConnectTimeout(d)
	}
	if v := os.Getenv("BLEKEEP_DATA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLEKEEP_DATA_TIMEOUT: %w", err)
		}
		c.DataTimeout = d
	}
	return nil
}

// SetConnectTimeout records a caller supplied connect timeout, which also
// becomes the backoff cap unless max_backoff is set.
func (c *Config) SetConnectTimeout(d time.Duration) {
	c.ConnectTimeout = d
	c.connectTimeoutSupplied = true
}

// SetMaxBackoff sets an explicit backoff cap.
func (c *Config) SetMaxBackoff(d time.Duration) {
	c.MaxBackoff = d
	c.maxBackoffSupplied = true
}

// Validate checks every value that has a restricted domain.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if _, err := sink.ParseFormat(c.Format); err != nil {
		return err
	}
	switch strings.ToLower(c.Color) {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (must be auto, always or never)", c.Color)
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("window size must be at least 2: %d", c.WindowSize)
	}
	if c.WheelCircumferenceMM <= 0 {
		return fmt.Errorf("wheel circumference must be positive: %g", c.WheelCircumferenceMM)
	}
	return c.SessionOptions().Validate()
}

// SessionOptions converts the supervisor settings.
func (c *Config) SessionOptions() session.Options {
	opts := session.Options{
		InitialBackoff:    c.InitialBackoff,
		BackoffMultiplier: c.BackoffMultiplier,
		ConnectTimeout:    c.ConnectTimeout,
		DataTimeout:       c.DataTimeout,
		PollInterval:      c.PollInterval,
		ResetBackoffOn:    session.BackoffReset(strings.ToLower(string(c.ResetBackoffOn))),
	}
	switch {
	case c.maxBackoffSupplied:
		opts.MaxBackoff = c.MaxBackoff
	case c.connectTimeoutSupplied:
		opts.MaxBackoff = c.ConnectTimeout
	}
	return opts
}

// UseColor resolves the color mode for an output that is or is not a terminal.
func (c *Config) UseColor(isTerminal bool) bool {
	switch strings.ToLower(c.Color) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	return NewLogger(level)
}

// NewLogger creates a logger with the CLI's text format.
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}
