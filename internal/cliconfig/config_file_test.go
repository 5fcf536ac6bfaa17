package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Token:           "file-token",
				ChannelID:       "111",
				RoleID:          "222",
				Expiry:          "5m",
				CommandPrefix:   "?",
				RelayName:       "Relay",
				DownloadTimeout: "10s",
				MetricsAddr:     ":9100",
				LogLevel:        "debug",
				LogFormat:       "json",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Token:           "file-token",
				ChannelID:       "111",
				RoleID:          "222",
				Expiry:          5 * time.Minute,
				CommandPrefix:   "?",
				RelayName:       "Relay",
				DownloadTimeout: 10 * time.Second,
				MetricsAddr:     ":9100",
				LogLevel:        "debug",
				LogFormat:       "json",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ChannelID: "111",
				Expiry:    "5m",
			},
			changed: map[string]bool{"channel-id": true, "expiry": true},
			initial: Config{ChannelID: "999", Expiry: time.Minute},
			expected: Config{
				ChannelID: "999",
				Expiry:    time.Minute,
			},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Expiry: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name:       "returns error for invalid download timeout",
			fileConfig: FileConfig{DownloadTimeout: "fast"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
token = "abc"
channel_id = "1234"
role_id = "5678"
expiry = "2m"
command_prefix = "$"
log_format = "json"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	want := FileConfig{
		Token:         "abc",
		ChannelID:     "1234",
		RoleID:        "5678",
		Expiry:        "2m",
		CommandPrefix: "$",
		LogFormat:     "json",
	}
	if fc != want {
		t.Errorf("LoadFileConfig() = %+v, want %+v", fc, want)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
token = "abc"
this is not valid toml
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".flashguard") {
		t.Errorf("DefaultConfigPath() = %v, should contain .flashguard", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
