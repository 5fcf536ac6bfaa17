package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Default values for settings not provided by file, env or flags.
const (
	DefaultExpiry          = 300 * time.Second
	DefaultCommandPrefix   = "!"
	DefaultRelayName       = "FlashSpoilerBot"
	DefaultDownloadTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Config holds CLI configuration for flashguard.
type Config struct {
	Token     string
	ChannelID string
	RoleID    string

	Expiry          time.Duration
	CommandPrefix   string
	RelayName       string
	DownloadTimeout time.Duration

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Expiry:          DefaultExpiry,
		CommandPrefix:   DefaultCommandPrefix,
		RelayName:       DefaultRelayName,
		DownloadTimeout: DefaultDownloadTimeout,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	c.Token = strings.TrimSpace(c.Token)
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("channel-id is required")
	}
	if !isSnowflake(c.ChannelID) {
		return fmt.Errorf("channel-id %q is not a numeric ID", c.ChannelID)
	}
	if c.RoleID != "" && !isSnowflake(c.RoleID) {
		return fmt.Errorf("role-id %q is not a numeric ID", c.RoleID)
	}
	if c.Expiry <= 0 {
		return fmt.Errorf("expiry must be positive")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return fmt.Errorf("command prefix must not be blank")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log-format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Token != "" {
		c.Token = "*****"
	}
	return c
}

func isSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
