package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			UDPPort:     5005,
			BindAddress: "0.0.0.0",
			BufferSize:  1024,
			QueueSize:   1000,
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
			Enabled: true,
		},
		Session: SessionConfig{
			ClientTimeout:  30,
			SweepInterval:  5,
			ReportInterval: 60,
		},
		Credentials: CredentialsConfig{
			Path: "./configs/credentials.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid udp port",
			mutate:      func(c *Config) { c.Server.UDPPort = 70000 },
			expectError: true,
			errorMsg:    "udp_port must be between 1 and 65535",
		},
		{
			name:        "empty bind address",
			mutate:      func(c *Config) { c.Server.BindAddress = "" },
			expectError: true,
			errorMsg:    "bind_address cannot be empty",
		},
		{
			name:        "buffer too small",
			mutate:      func(c *Config) { c.Server.BufferSize = 100 },
			expectError: true,
			errorMsg:    "buffer_size must be at least 512",
		},
		{
			name:        "zero client timeout",
			mutate:      func(c *Config) { c.Session.ClientTimeout = 0 },
			expectError: true,
			errorMsg:    "client_timeout must be at least 1 second",
		},
		{
			name: "sweep interval exceeds timeout",
			mutate: func(c *Config) {
				c.Session.ClientTimeout = 5
				c.Session.SweepInterval = 10
			},
			expectError: true,
			errorMsg:    "sweep_interval (10) must not exceed client_timeout (5)",
		},
		{
			name:        "missing credentials path",
			mutate:      func(c *Config) { c.Credentials.Path = "" },
			expectError: true,
			errorMsg:    "path cannot be empty",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be 'json' or 'text'",
		},
		{
			name:        "http disabled skips port check",
			mutate:      func(c *Config) { c.HTTP.Enabled = false; c.HTTP.Port = 0 },
			expectError: false,
		},
		{
			name:        "http enabled with bad port",
			mutate:      func(c *Config) { c.HTTP.Port = 0 },
			expectError: true,
			errorMsg:    "http port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := config.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
server:
  udp_port: 5005
  bind_address: "0.0.0.0"
  buffer_size: 1024
  queue_size: 1000
session:
  client_timeout: 30
  sweep_interval: 5
  report_interval: 60
credentials:
  path: "./configs/credentials.yaml"
logging:
  level: "info"
  format: "json"
  output: "stdout"
`,
			expectError: false,
		},
		{
			name: "defaults fill missing sections",
			configYAML: `
credentials:
  path: "./configs/credentials.yaml"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
server:
  udp_port: 5005
  buffer_size: invalid_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "missing credentials path",
			configYAML: `
server:
  udp_port: 5005
  bind_address: "0.0.0.0"
  buffer_size: 1024
  queue_size: 1000
`,
			expectError: true,
			errorMsg:    "path cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	config := Default()

	if config.Server.UDPPort != DefaultUDPPort {
		t.Errorf("Expected default port %d, got %d", DefaultUDPPort, config.Server.UDPPort)
	}
	if config.Server.BufferSize != DefaultBufferSize {
		t.Errorf("Expected default buffer size %d, got %d", DefaultBufferSize, config.Server.BufferSize)
	}
	if config.Session.ClientTimeout != DefaultClientTimeout {
		t.Errorf("Expected default client timeout %d, got %d", DefaultClientTimeout, config.Session.ClientTimeout)
	}
	if config.Session.SweepInterval != DefaultSweepInterval {
		t.Errorf("Expected default sweep interval %d, got %d", DefaultSweepInterval, config.Session.SweepInterval)
	}
}

func TestDurationHelpers(t *testing.T) {
	session := SessionConfig{
		ClientTimeout:  30,
		SweepInterval:  5,
		ReportInterval: 60,
	}

	if session.GetClientTimeout() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", session.GetClientTimeout())
	}

	if session.GetSweepInterval() != 5*time.Second {
		t.Errorf("Expected 5 seconds, got %v", session.GetSweepInterval())
	}

	if session.GetReportInterval() != 60*time.Second {
		t.Errorf("Expected 60 seconds, got %v", session.GetReportInterval())
	}
}

// Helper function to check if a string contains a substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > len(substr) && findSubstring(s, substr)))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
