package cliconfig

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are not overwritten, and a missing file is
// not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnvConfig applies FLASHGUARD_* environment variables to cfg. The
// unprefixed names DISCORD_TOKEN, FLASH_CHANNEL_ID, FLASH_PING_ROLE_ID and
// FLASH_ROLE_ID are honoured when the prefixed variable is unset.
// Flags that were set explicitly take precedence.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("token", firstEnv("FLASHGUARD_TOKEN", "DISCORD_TOKEN"), &cfg.Token)
	s.setString("channel-id", firstEnv("FLASHGUARD_CHANNEL_ID", "FLASH_CHANNEL_ID"), &cfg.ChannelID)
	s.setString("role-id", firstEnv("FLASHGUARD_ROLE_ID", "FLASH_PING_ROLE_ID", "FLASH_ROLE_ID"), &cfg.RoleID)
	s.setString("prefix", os.Getenv("FLASHGUARD_COMMAND_PREFIX"), &cfg.CommandPrefix)
	s.setString("relay-name", os.Getenv("FLASHGUARD_RELAY_NAME"), &cfg.RelayName)
	s.setString("metrics-addr", os.Getenv("FLASHGUARD_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("FLASHGUARD_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("FLASHGUARD_LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("expiry", os.Getenv("FLASHGUARD_EXPIRY"), &cfg.Expiry); err != nil {
		return err
	}
	if err := s.setDuration("download-timeout", os.Getenv("FLASHGUARD_DOWNLOAD_TIMEOUT"), &cfg.DownloadTimeout); err != nil {
		return err
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
