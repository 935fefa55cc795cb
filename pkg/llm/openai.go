package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultOpenAIModels is the candidate list when OPENAI_MODEL is unset.
var DefaultOpenAIModels = []string{"gpt-4o-mini", "gpt-4o"}

// openAIProvider serves OpenAI and OpenAI-compatible endpoints (vLLM, Ollama)
// through go-openai.
type openAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

func newOpenAIProvider(apiKey, baseURL string, httpClient *http.Client, logger *zap.Logger) *openAIProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	clientConfig.HTTPClient = httpClient

	return &openAIProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		baseURL:    clientConfig.BaseURL,
		logger:     logger,
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		TopP:        0.8,
		MaxTokens:   2048,
	})
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = model
		llmErr.Endpoint = p.baseURL
		return "", llmErr
	}

	p.logger.Debug("OpenAI response",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openAIProvider) Close() {
	p.httpClient.CloseIdleConnections()
}
