package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"arxivbot/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.json"

var setupPath string

// setupAnswers holds the wizard fields as edited text.
type setupAnswers struct {
	Maintainer     string
	SlackEnabled   bool
	SlackBotToken  string
	SlackAppToken  string
	PollInterval   string
	WholeBatch     bool
	TelegramOn     bool
	TelegramToken  string
	TelegramAllow  string
	SummaryEnabled bool
	SummaryEngine  string
	SummaryCount   string
	OpenAIModel    string
	GatewayPort    string
	LogLevel       string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or edit config.json interactively",
	Long:  "Walks through the channel, summary and gateway settings and writes them to config.json.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		path := resolveSetupPath()
		cfg, err := loadSetupBase(path)
		if err != nil {
			fmt.Printf("Warning: failed to load existing configuration (%v). Starting from defaults.\n", err)
			cfg = config.Default()
		}

		answers := setupAnswersFrom(cfg)
		if err := newSetupForm(&answers).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Setup aborted, nothing written.")
				return
			}
			fmt.Printf("setup failed: %v\n", err)
			return
		}

		if err := applySetupAnswers(cfg, answers); err != nil {
			fmt.Printf("invalid setup answers: %v\n", err)
			return
		}

		if err := config.Save(path, cfg); err != nil {
			fmt.Printf("failed to save config: %v\n", err)
			return
		}

		fmt.Printf("Saved configuration to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringVar(&setupPath, "path", "", "config file to write (default: ARXIVBOT_CONFIG or ./config.json)")
}

func resolveSetupPath() string {
	if value := strings.TrimSpace(setupPath); value != "" {
		return value
	}
	if value := strings.TrimSpace(os.Getenv("ARXIVBOT_CONFIG")); value != "" {
		return value
	}
	if existing, err := config.FindConfigPath(); err == nil {
		return existing
	}

	return defaultConfigFile
}

// loadSetupBase reads the file at path without env overrides so that
// secrets from the environment are not written to disk.
func loadSetupBase(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}

	return config.LoadFile(path)
}

func setupAnswersFrom(cfg *config.Config) setupAnswers {
	engine := cfg.Summary.Engine
	if engine == "" {
		engine = "lsa"
	}

	return setupAnswers{
		Maintainer:     cfg.Bot.Maintainer,
		SlackEnabled:   cfg.Channels.Slack.Enabled,
		SlackBotToken:  cfg.Channels.Slack.BotToken,
		SlackAppToken:  cfg.Channels.Slack.AppToken,
		PollInterval:   strconv.Itoa(cfg.Channels.Slack.PollIntervalSeconds),
		WholeBatch:     cfg.Channels.Slack.ProcessWholeBatch,
		TelegramOn:     cfg.Channels.Telegram.Enabled,
		TelegramToken:  cfg.Channels.Telegram.Token,
		TelegramAllow:  strings.Join(cfg.Channels.Telegram.AllowFrom, ","),
		SummaryEnabled: !cfg.Summary.Disabled,
		SummaryEngine:  engine,
		SummaryCount:   strconv.Itoa(cfg.Summary.Sentences),
		OpenAIModel:    cfg.Summary.OpenAI.Model,
		GatewayPort:    portText(cfg.Gateway.Port),
		LogLevel:       cfg.Logging.Level,
	}
}

func portText(port int) string {
	if port <= 0 {
		return ""
	}

	return strconv.Itoa(port)
}

func newSetupForm(answers *setupAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("1. Maintainer handle").
				Description("Named in the reply when a lookup fails, e.g. danfei.").
				Validate(requireText("maintainer")).
				Value(&answers.Maintainer),

			huh.NewConfirm().
				Title("Enable Slack?").
				Value(&answers.SlackEnabled),

			huh.NewConfirm().
				Title("Enable Telegram?").
				Value(&answers.TelegramOn),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("2. Slack bot token").
				Description("The xoxb- token of the Slack app. SLACK_BOT_TOKEN overrides it at runtime.").
				EchoMode(huh.EchoModePassword).
				Value(&answers.SlackBotToken),

			huh.NewInput().
				Title("Slack app token").
				Description("The xapp- token with connections:write, used for Socket Mode.").
				EchoMode(huh.EchoModePassword).
				Validate(validateAppToken).
				Value(&answers.SlackAppToken),

			huh.NewInput().
				Title("Poll interval (seconds)").
				Validate(validatePositiveInt).
				Value(&answers.PollInterval),

			huh.NewConfirm().
				Title("Answer every mention of a batch?").
				Description("Off answers only the first command seen per poll.").
				Value(&answers.WholeBatch),
		).WithHideFunc(func() bool {
			return !answers.SlackEnabled
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("3. Telegram bot token").
				Description("Ask @BotFather for a token.").
				EchoMode(huh.EchoModePassword).
				Value(&answers.TelegramToken),

			huh.NewInput().
				Title("Allowed Telegram user ids").
				Description("Comma separated. Leave blank to allow everyone.").
				Value(&answers.TelegramAllow),
		).WithHideFunc(func() bool {
			return !answers.TelegramOn
		}),
		huh.NewGroup(
			huh.NewConfirm().
				Title("4. Summarize abstracts?").
				Value(&answers.SummaryEnabled),

			huh.NewSelect[string]().
				Title("Summary engine").
				Options(
					huh.NewOption("LSA (offline, extractive)", "lsa"),
					huh.NewOption("OpenAI (needs OPENAI_API_KEY)", "openai"),
				).
				Value(&answers.SummaryEngine),

			huh.NewInput().
				Title("Summary sentences").
				Validate(validatePositiveInt).
				Value(&answers.SummaryCount),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI model").
				Description("Leave blank for the default model.").
				Value(&answers.OpenAIModel),
		).WithHideFunc(func() bool {
			return answers.SummaryEngine != "openai"
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("5. Status server port").
				Description("Leave blank for 18790.").
				Value(&answers.GatewayPort),

			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("info", ""),
					huh.NewOption("debug", "debug"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&answers.LogLevel),
		),
	)
}

// applySetupAnswers copies validated answers into cfg.
func applySetupAnswers(cfg *config.Config, answers setupAnswers) error {
	maintainer := strings.TrimPrefix(strings.TrimSpace(answers.Maintainer), "@")
	if maintainer == "" {
		return errors.New("maintainer is required")
	}

	pollInterval, err := parseOptionalInt(answers.PollInterval, config.DefaultPollIntervalSeconds)
	if err != nil {
		return fmt.Errorf("poll interval: %w", err)
	}

	sentences, err := parseOptionalInt(answers.SummaryCount, config.DefaultSummarySentences)
	if err != nil {
		return fmt.Errorf("summary sentences: %w", err)
	}

	port, err := parseOptionalInt(answers.GatewayPort, 0)
	if err != nil {
		return fmt.Errorf("gateway port: %w", err)
	}

	if answers.SlackEnabled {
		if err := validateAppToken(answers.SlackAppToken); err != nil {
			return err
		}
	}

	cfg.Bot.Maintainer = maintainer
	cfg.Channels.Slack.Enabled = answers.SlackEnabled
	cfg.Channels.Slack.BotToken = strings.TrimSpace(answers.SlackBotToken)
	cfg.Channels.Slack.AppToken = strings.TrimSpace(answers.SlackAppToken)
	cfg.Channels.Slack.PollIntervalSeconds = pollInterval
	cfg.Channels.Slack.ProcessWholeBatch = answers.WholeBatch
	cfg.Channels.Telegram.Enabled = answers.TelegramOn
	cfg.Channels.Telegram.Token = strings.TrimSpace(answers.TelegramToken)
	cfg.Channels.Telegram.AllowFrom = splitList(answers.TelegramAllow)
	cfg.Summary.Disabled = !answers.SummaryEnabled
	cfg.Summary.Engine = strings.TrimSpace(answers.SummaryEngine)
	cfg.Summary.Sentences = sentences
	cfg.Summary.OpenAI.Model = strings.TrimSpace(answers.OpenAIModel)
	cfg.Gateway.Port = port
	cfg.Logging.Level = strings.TrimSpace(answers.LogLevel)

	return nil
}

func requireText(field string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateAppToken(value string) error {
	value = strings.TrimSpace(value)
	if value != "" && !strings.HasPrefix(value, "xapp-") {
		return errors.New("slack app token must start with xapp-")
	}
	return nil
}

func validatePositiveInt(value string) error {
	_, err := parseOptionalInt(value, 1)
	return err
}

// parseOptionalInt parses a positive integer, returning fallback for blank input.
func parseOptionalInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%d must be positive", parsed)
	}

	return parsed, nil
}

func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}

	return items
}
