package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBatchSize  = 20
	MinBatchSize      = 1
	MaxBatchSize      = 250
	DefaultListenAddr = ":8501"
)

// Config holds runtime settings. Values are resolved in order of precedence:
// explicit flags (applied by the caller), environment, config file, defaults.
type Config struct {
	N8NBaseURL string `yaml:"n8nBaseURL"`
	N8NAPIKey  string `yaml:"n8nAPIKey"`
	BatchSize  int    `yaml:"batchSize"`

	LogLevel       string `yaml:"logLevel"`
	LogFormat      string `yaml:"logFormat"`
	RequestTimeout int    `yaml:"requestTimeout"`

	Publishers        []string `yaml:"publishers"`
	SlackWebhookURL   string   `yaml:"slackWebhookURL"`
	SlackBotToken     string   `yaml:"slackBotToken"`
	SlackChannelID    string   `yaml:"slackChannelID"`
	SlackCanvasID     string   `yaml:"slackCanvasID"`
	DiscordWebhookURL string   `yaml:"discordWebhookURL"`
	JSONOutputPath    string   `yaml:"jsonOutputPath"`
	HTMLOutputPath    string   `yaml:"htmlOutputPath"`
	HTMLTemplatePath  string   `yaml:"htmlTemplatePath"`

	ListenAddr            string `yaml:"listenAddr"`
	SkipConnectivityCheck bool   `yaml:"skipConnectivityCheck"`
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and environment variables. A missing API key or base
// URL is not an error here; it is reported when the fetch starts.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		LogLevel:       "INFO",
		LogFormat:      "json",
		RequestTimeout: 30,
		Publishers:     []string{"console"},
		ListenAddr:     DefaultListenAddr,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.N8NBaseURL = getEnvWithDefault("N8N_BASE_URL", c.N8NBaseURL)
	c.N8NAPIKey = getEnvWithDefault("N8N_API_KEY", c.N8NAPIKey)
	c.BatchSize = getIntEnvWithDefault("N8N_BATCH_SIZE", c.BatchSize)

	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvWithDefault("LOG_FORMAT", c.LogFormat)
	c.RequestTimeout = getIntEnvWithDefault("REQUEST_TIMEOUT", c.RequestTimeout)

	if publishers := os.Getenv("PUBLISHERS"); publishers != "" {
		c.Publishers = SplitList(publishers)
	}
	c.SlackWebhookURL = getEnvWithDefault("SLACK_WEBHOOK_URL", c.SlackWebhookURL)
	c.SlackBotToken = getEnvWithDefault("SLACK_BOT_TOKEN", c.SlackBotToken)
	c.SlackChannelID = getEnvWithDefault("SLACK_CHANNEL_ID", c.SlackChannelID)
	c.SlackCanvasID = getEnvWithDefault("SLACK_CANVAS_ID", c.SlackCanvasID)
	c.DiscordWebhookURL = getEnvWithDefault("DISCORD_WEBHOOK_URL", c.DiscordWebhookURL)
	c.JSONOutputPath = getEnvWithDefault("JSON_OUTPUT_PATH", c.JSONOutputPath)
	c.HTMLOutputPath = getEnvWithDefault("HTML_OUTPUT_PATH", c.HTMLOutputPath)
	c.HTMLTemplatePath = getEnvWithDefault("HTML_TEMPLATE_PATH", c.HTMLTemplatePath)

	c.ListenAddr = getEnvWithDefault("LISTEN_ADDR", c.ListenAddr)
	c.SkipConnectivityCheck = getBoolEnvWithDefault("SKIP_CONNECTIVITY_CHECK", c.SkipConnectivityCheck)
}

// Validate checks values that cannot be repaired with a default.
func (c *Config) Validate() error {
	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, c.BatchSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %d", c.RequestTimeout)
	}
	if len(c.Publishers) == 0 {
		return fmt.Errorf("at least one publisher is required")
	}
	return nil
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// PublisherConfig returns the settings consumed by the publisher factory.
func (c *Config) PublisherConfig() map[string]string {
	return map[string]string{
		"slackWebhookURL":   c.SlackWebhookURL,
		"slackBotToken":     c.SlackBotToken,
		"slackChannelID":    c.SlackChannelID,
		"slackCanvasID":     c.SlackCanvasID,
		"discordWebhookURL": c.DiscordWebhookURL,
		"jsonOutputPath":    c.JSONOutputPath,
		"htmlOutputPath":    c.HTMLOutputPath,
		"htmlTemplatePath":  c.HTMLTemplatePath,
		"n8nBaseURL":        c.N8NBaseURL,
	}
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
			return value
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
