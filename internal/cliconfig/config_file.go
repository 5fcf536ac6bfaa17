package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Token           string `toml:"token"`
	ChannelID       string `toml:"channel_id"`
	RoleID          string `toml:"role_id"`
	Expiry          string `toml:"expiry"`
	CommandPrefix   string `toml:"command_prefix"`
	RelayName       string `toml:"relay_name"`
	DownloadTimeout string `toml:"download_timeout"`
	MetricsAddr     string `toml:"metrics_addr"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.flashguard/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".flashguard", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("token", fc.Token, &cfg.Token)
	s.setString("channel-id", fc.ChannelID, &cfg.ChannelID)
	s.setString("role-id", fc.RoleID, &cfg.RoleID)
	s.setString("prefix", fc.CommandPrefix, &cfg.CommandPrefix)
	s.setString("relay-name", fc.RelayName, &cfg.RelayName)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("expiry", fc.Expiry, &cfg.Expiry); err != nil {
		return err
	}
	if err := s.setDuration("download-timeout", fc.DownloadTimeout, &cfg.DownloadTimeout); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
