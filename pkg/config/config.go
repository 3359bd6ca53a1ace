package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envConfigPath        = "ARXIVBOT_CONFIG"
	envSlackBotToken     = "SLACK_BOT_TOKEN"
	envSlackAppToken     = "SLACK_APP_TOKEN"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
	envMaintainer        = "ARXIVBOT_MAINTAINER"
)

const (
	DefaultMaintainer          = "danfei"
	DefaultPollIntervalSeconds = 1
	DefaultSummarySentences    = 3
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Bot      BotConfig      `json:"bot"`
	Channels ChannelsConfig `json:"channels"`
	Arxiv    ArxivConfig    `json:"arxiv"`
	Summary  SummaryConfig  `json:"summary"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// BotConfig holds settings shared by every channel.
type BotConfig struct {
	// Maintainer is the chat handle named in the generic failure reply.
	Maintainer string `json:"maintainer"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Slack    SlackConfig    `json:"slack"`
	Telegram TelegramConfig `json:"telegram"`
}

// SlackConfig configures the Slack Socket Mode channel.
type SlackConfig struct {
	Enabled             bool   `json:"enabled"`
	BotToken            string `json:"bot_token"`
	AppToken            string `json:"app_token"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	// ProcessWholeBatch handles every command of a polled batch instead of
	// only the first one.
	ProcessWholeBatch bool `json:"process_whole_batch"`
	Debug             bool `json:"debug"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// ArxivConfig configures the arXiv metadata client.
type ArxivConfig struct {
	BaseURL               string `json:"base_url"`
	UserAgent             string `json:"user_agent"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// SummaryConfig selects and tunes the abstract summarizer.
type SummaryConfig struct {
	Disabled  bool                `json:"disabled"`
	Engine    string              `json:"engine"`
	Sentences int                 `json:"sentences"`
	OpenAI    OpenAISummaryConfig `json:"openai"`
}

// OpenAISummaryConfig configures the optional OpenAI summary engine.
type OpenAISummaryConfig struct {
	BaseURL               string `json:"base_url"`
	Model                 string `json:"model"`
	APIKeyEnv             string `json:"api_key_env"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// GatewayConfig configures HTTP status server bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
//
// A missing config file is not an error unless ARXIVBOT_CONFIG names one;
// the bot can run from environment variables alone.
func LoadConfig() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if configPath != "" {
		if err := readFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// LoadFile reads one config file with defaults applied and no env overrides.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	return nil
}

// Save writes cfg as indented JSON to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, append(content, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if token := strings.TrimSpace(os.Getenv(envSlackBotToken)); token != "" {
		cfg.Channels.Slack.BotToken = token
		cfg.Channels.Slack.Enabled = true
	}

	if token := strings.TrimSpace(os.Getenv(envSlackAppToken)); token != "" {
		cfg.Channels.Slack.AppToken = token
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
		cfg.Channels.Telegram.Enabled = true
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}

	if maintainer := strings.TrimSpace(os.Getenv(envMaintainer)); maintainer != "" {
		cfg.Bot.Maintainer = maintainer
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Bot.Maintainer) == "" {
		cfg.Bot.Maintainer = DefaultMaintainer
	}
	if cfg.Channels.Slack.PollIntervalSeconds <= 0 {
		cfg.Channels.Slack.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if cfg.Summary.Sentences <= 0 {
		cfg.Summary.Sentences = DefaultSummarySentences
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// FindConfigPath resolves the active config file location.
//
// Precedence is ARXIVBOT_CONFIG first, then cwd-local fallback paths. The
// returned error wraps fs.ErrNotExist when no fallback file exists.
func FindConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s): %w", candidates[0], candidates[1], fs.ErrNotExist)
}
