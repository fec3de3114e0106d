// Package config provides YAML-based configuration loading for Nova.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Nova configuration, loaded from nova.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Agent    AgentConfig    `yaml:"agent"`
	Auth     AuthConfig     `yaml:"auth"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// AgentConfig holds generative-model and loop settings.
type AgentConfig struct {
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	Temperature    float64 `yaml:"temperature"`
	MaxIterations  int     `yaml:"max_iterations"`
	ModelTimeoutS  int     `yaml:"model_timeout_seconds"`
	SearchTimeoutS int     `yaml:"search_timeout_seconds"`
	QueryTimeoutS  int     `yaml:"query_timeout_seconds"`
}

// AuthConfig holds API-key and JWT settings.
type AuthConfig struct {
	AdminKey         string `yaml:"admin_key"`
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpiryHours int    `yaml:"token_expiry_hours"`
}

// NotifyConfig holds sales-notification settings. All fields are optional;
// adapters without credentials are simply not started.
type NotifyConfig struct {
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
	DigestCron string        `yaml:"digest_cron"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secrets from the environment so they never have to
// live in the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Agent.APIKey = v
	}
	if v := os.Getenv("NOVA_ADMIN_KEY"); v != "" {
		c.Auth.AdminKey = v
	}
	if v := os.Getenv("NOVA_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("NOVA_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Database == "" {
		c.Database.Database = "nova"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "gpt-4o-mini"
	}
	if c.Agent.Temperature == 0 {
		c.Agent.Temperature = 0.7
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 5
	}
	if c.Agent.ModelTimeoutS == 0 {
		c.Agent.ModelTimeoutS = 60
	}
	if c.Agent.SearchTimeoutS == 0 {
		c.Agent.SearchTimeoutS = 10
	}
	if c.Agent.QueryTimeoutS == 0 {
		c.Agent.QueryTimeoutS = 15
	}
	if c.Auth.TokenExpiryHours == 0 {
		c.Auth.TokenExpiryHours = 1
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be at least 1")
	}
	if c.Auth.TokenExpiryHours < 1 {
		errs = append(errs, "auth.token_expiry_hours must be at least 1")
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required when a bot token is set")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when a bot token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireServeSecrets checks the secrets the serve command cannot run without.
func (c *Config) RequireServeSecrets() error {
	var errs []string
	if c.Agent.APIKey == "" {
		errs = append(errs, "agent.api_key (or OPENAI_API_KEY) is required")
	}
	if c.Auth.AdminKey == "" {
		errs = append(errs, "auth.admin_key (or NOVA_ADMIN_KEY) is required")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret (or NOVA_JWT_SECRET) is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
