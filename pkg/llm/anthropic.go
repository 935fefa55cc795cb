package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// DefaultAnthropicModels is the candidate list when ANTHROPIC_MODEL is unset.
var DefaultAnthropicModels = []string{"claude-3-5-haiku-latest", "claude-sonnet-4-5-20250929"}

type anthropicProvider struct {
	client     *anthropic.Client
	httpClient *http.Client
	logger     *zap.Logger
}

func newAnthropicProvider(apiKey, baseURL string, httpClient *http.Client, logger *zap.Logger) *anthropicProvider {
	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(httpClient)}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}
	return &anthropicProvider{
		client:     anthropic.NewClient(apiKey, opts...),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	temperature := float32(0.2)

	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		MaxTokens:   2048,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = model
		return "", llmErr
	}

	p.logger.Debug("Anthropic response",
		zap.String("model", model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	return sb.String(), nil
}

func (p *anthropicProvider) Close() {
	p.httpClient.CloseIdleConnections()
}
