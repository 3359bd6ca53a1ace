package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"arxivbot/pkg/config"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const defaultOpenAIModel = "gpt-5-mini"

// OpenAI produces abstractive summaries through the OpenAI Responses API.
// Unlike LSA its output is not deterministic.
type OpenAI struct {
	client         osdk.Client
	model          string
	requestTimeout time.Duration
}

func NewOpenAI(cfg config.OpenAISummaryConfig) (*OpenAI, error) {
	apiKey := resolveAPIKey(cfg)
	if apiKey == "" {
		return nil, errors.New("summary.openai.api_key_env is required or OPENAI_API_KEY must be set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAI{
		client:         osdk.NewClient(opts...),
		model:          model,
		requestTimeout: requestTimeout,
	}, nil
}

func (s *OpenAI) Summarize(ctx context.Context, text string, count int) (string, error) {
	if count <= 0 {
		count = DefaultSentences
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	log := slog.Default().With("component", "summarize.openai")
	startedAt := time.Now()
	log.Debug("summary request started", "model", s.model, "text_length", len(text))

	response, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: s.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: osdk.String(summaryPrompt(text, count))},
	})
	if err != nil {
		log.Debug("summary request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return "", fmt.Errorf("summary request failed: %w", err)
	}

	summary := strings.TrimSpace(response.OutputText())
	if summary == "" {
		return "", errors.New("summary request returned no text")
	}
	log.Debug("summary request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "summary_length", len(summary))

	return summary, nil
}

func summaryPrompt(text string, count int) string {
	return fmt.Sprintf(
		"Summarize the following paper abstract in at most %d sentences. Reply with the summary only, as plain text on one line.\n\n%s",
		count,
		text,
	)
}

func resolveAPIKey(cfg config.OpenAISummaryConfig) string {
	if apiKeyEnv := strings.TrimSpace(cfg.APIKeyEnv); apiKeyEnv != "" {
		if apiKey := strings.TrimSpace(os.Getenv(apiKeyEnv)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}
