package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main Blossom configuration
type Config struct {
	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Slack
	Slack SlackConfig `json:"slack" mapstructure:"slack"`

	// GitHub Sponsors
	GitHub GitHubConfig `json:"github" mapstructure:"github"`

	// Database
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// SlackConfig holds the Slack integration configuration
type SlackConfig struct {
	// Enabled selects the real Web API client; when false the service runs
	// with a no-op notifier and never talks to Slack.
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	APIKey        string `json:"api_key" mapstructure:"api_key"`
	SigningSecret string `json:"signing_secret" mapstructure:"signing_secret"`
	// OrgChannel receives GitHub Sponsors notifications.
	OrgChannel string `json:"org_channel" mapstructure:"org_channel"`
}

// GitHubConfig holds the GitHub Sponsors webhook configuration
type GitHubConfig struct {
	SponsorsSecret string `json:"sponsors_secret" mapstructure:"sponsors_secret"`
}

// DatabaseConfig holds the SQLite database configuration
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Slack: SlackConfig{
			Enabled:    false,
			OrgChannel: "org_running",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid. Missing signing secrets
// are a fatal configuration error: the service must not serve webhooks it
// cannot authenticate.
func (c *Config) Validate() error {
	v := NewValidator()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	if err := v.ValidateSigningSecret(c.Slack.SigningSecret, "slack"); err != nil {
		return err
	}
	if err := v.ValidateSigningSecret(c.GitHub.SponsorsSecret, "github sponsors"); err != nil {
		return err
	}

	if c.Slack.Enabled {
		if err := v.ValidateSlackToken(c.Slack.APIKey); err != nil {
			return fmt.Errorf("slack is enabled but unusable: %w", err)
		}
		if c.Slack.OrgChannel == "" {
			return fmt.Errorf("slack is enabled but no org channel is configured")
		}
	}

	return nil
}
