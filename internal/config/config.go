package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete broker configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	HTTP        HTTPConfig        `yaml:"http"`
	Session     SessionConfig     `yaml:"session"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains UDP listener configuration
type ServerConfig struct {
	UDPPort     int    `yaml:"udp_port"`
	BindAddress string `yaml:"bind_address"`
	BufferSize  int    `yaml:"buffer_size"`
	QueueSize   int    `yaml:"queue_size"`
}

// HTTPConfig contains HTTP monitoring API configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// SessionConfig contains session lifecycle configuration
type SessionConfig struct {
	ClientTimeout  int `yaml:"client_timeout"`  // seconds
	SweepInterval  int `yaml:"sweep_interval"`  // seconds
	ReportInterval int `yaml:"report_interval"` // seconds
}

// CredentialsConfig points at the external station credential file
type CredentialsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default values applied before the file is parsed
const (
	DefaultUDPPort        = 5005
	DefaultBindAddress    = "0.0.0.0"
	DefaultBufferSize     = 1024
	DefaultQueueSize      = 1000
	DefaultClientTimeout  = 30
	DefaultSweepInterval  = 5
	DefaultReportInterval = 60
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration populated with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UDPPort:     DefaultUDPPort,
			BindAddress: DefaultBindAddress,
			BufferSize:  DefaultBufferSize,
			QueueSize:   DefaultQueueSize,
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
			Enabled: false,
		},
		Session: SessionConfig{
			ClientTimeout:  DefaultClientTimeout,
			SweepInterval:  DefaultSweepInterval,
			ReportInterval: DefaultReportInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Credentials.Validate(); err != nil {
		return fmt.Errorf("credentials config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.UDPPort < 1 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", s.UDPPort)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.BufferSize < 512 {
		return fmt.Errorf("buffer_size must be at least 512 bytes, got %d", s.BufferSize)
	}

	if s.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", s.QueueSize)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates session lifecycle configuration
func (s *SessionConfig) Validate() error {
	if s.ClientTimeout < 1 {
		return fmt.Errorf("client_timeout must be at least 1 second, got %d", s.ClientTimeout)
	}

	if s.SweepInterval < 1 {
		return fmt.Errorf("sweep_interval must be at least 1 second, got %d", s.SweepInterval)
	}

	if s.SweepInterval > s.ClientTimeout {
		return fmt.Errorf("sweep_interval (%d) must not exceed client_timeout (%d)",
			s.SweepInterval, s.ClientTimeout)
	}

	if s.ReportInterval < 1 {
		return fmt.Errorf("report_interval must be at least 1 second, got %d", s.ReportInterval)
	}

	return nil
}

// Validate validates the credentials configuration
func (c *CredentialsConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output may be stdout, stderr, or a file path; all are valid.
	return nil
}

// GetClientTimeout returns the session timeout as a time.Duration
func (s *SessionConfig) GetClientTimeout() time.Duration {
	return time.Duration(s.ClientTimeout) * time.Second
}

// GetSweepInterval returns the reaper sweep interval as a time.Duration
func (s *SessionConfig) GetSweepInterval() time.Duration {
	return time.Duration(s.SweepInterval) * time.Second
}

// GetReportInterval returns the status reporter interval as a time.Duration
func (s *SessionConfig) GetReportInterval() time.Duration {
	return time.Duration(s.ReportInterval) * time.Second
}
