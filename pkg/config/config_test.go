package config

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envSlackBotToken, envSlackAppToken, envTelegramBotToken, envTelegramAllowFrom, envMaintainer} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	unsetConfigEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
	  "bot": {"maintainer": "alice"},
	  "channels": {"slack": {"enabled": true, "bot_token": "xoxb-file", "process_whole_batch": true}},
	  "arxiv": {"base_url": "http://127.0.0.1:9999/api/query"},
	  "summary": {"engine": "lsa", "sentences": 2},
	  "gateway": {"host": "0.0.0.0", "port": 18790},
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Bot.Maintainer != "alice" {
		t.Fatalf("bot.maintainer = %q, want %q", cfg.Bot.Maintainer, "alice")
	}
	if cfg.Channels.Slack.BotToken != "xoxb-file" {
		t.Fatalf("channels.slack.bot_token = %q, want %q", cfg.Channels.Slack.BotToken, "xoxb-file")
	}
	if !cfg.Channels.Slack.ProcessWholeBatch {
		t.Fatal("channels.slack.process_whole_batch = false, want true")
	}
	if cfg.Channels.Slack.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("poll interval = %d, want default %d", cfg.Channels.Slack.PollIntervalSeconds, DefaultPollIntervalSeconds)
	}
	if cfg.Summary.Sentences != 2 {
		t.Fatalf("summary.sentences = %d, want 2", cfg.Summary.Sentences)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" || !cfg.Logging.AddSource {
		t.Fatalf("logging = %+v, want json/debug/add_source", cfg.Logging)
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestLoadConfigWithoutFileUsesDefaultsAndEnv(t *testing.T) {
	unsetConfigEnv(t)
	t.Setenv(envConfigPath, "")
	t.Chdir(t.TempDir())

	t.Setenv(envSlackBotToken, "xoxb-env")
	t.Setenv(envSlackAppToken, "xapp-env")
	t.Setenv(envTelegramAllowFrom, " 1, ,2 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if !cfg.Channels.Slack.Enabled {
		t.Fatal("expected SLACK_BOT_TOKEN to enable the slack channel")
	}
	if cfg.Channels.Slack.BotToken != "xoxb-env" || cfg.Channels.Slack.AppToken != "xapp-env" {
		t.Fatalf("slack tokens = %q/%q", cfg.Channels.Slack.BotToken, cfg.Channels.Slack.AppToken)
	}
	if got := cfg.Channels.Telegram.AllowFrom; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("telegram.allow_from = %q, want [1 2]", got)
	}
	if cfg.Bot.Maintainer != DefaultMaintainer {
		t.Fatalf("bot.maintainer = %q, want %q", cfg.Bot.Maintainer, DefaultMaintainer)
	}
	if cfg.Summary.Sentences != DefaultSummarySentences {
		t.Fatalf("summary.sentences = %d, want %d", cfg.Summary.Sentences, DefaultSummarySentences)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	unsetConfigEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Bot.Maintainer = "bob"
	cfg.Channels.Telegram.Enabled = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	t.Setenv(envConfigPath, path)
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if loaded.Bot.Maintainer != "bob" || !loaded.Channels.Telegram.Enabled {
		t.Fatalf("loaded config = %+v", loaded)
	}
}

func TestLoadFileIgnoresEnvOverrides(t *testing.T) {
	t.Setenv(envSlackBotToken, "xoxb-env")
	t.Setenv(envMaintainer, "env-maintainer")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"channels": {"slack": {"bot_token": "xoxb-file"}}}`), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Channels.Slack.BotToken != "xoxb-file" {
		t.Fatalf("bot token = %q, want file value", cfg.Channels.Slack.BotToken)
	}
	if cfg.Bot.Maintainer != DefaultMaintainer {
		t.Fatalf("maintainer = %q, want default", cfg.Bot.Maintainer)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTelegramTokenEnvEnablesChannel(t *testing.T) {
	unsetConfigEnv(t)
	t.Setenv(envConfigPath, "")
	t.Chdir(t.TempDir())

	t.Setenv(envTelegramBotToken, "123:env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if !cfg.Channels.Telegram.Enabled {
		t.Fatal("expected TELEGRAM_BOT_TOKEN to enable the telegram channel")
	}
	if cfg.Channels.Telegram.Token != "123:env" {
		t.Fatalf("telegram.token = %q, want %q", cfg.Channels.Telegram.Token, "123:env")
	}
	if cfg.Channels.Slack.Enabled {
		t.Fatal("slack channel enabled without a slack token")
	}
}
