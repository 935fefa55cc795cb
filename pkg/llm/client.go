// Package llm turns source code into an AI explanation, debug report or
// refactoring advice through a remote generative model.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/prompts"
)

// DefaultTimeout bounds each HTTP attempt (connect, write and read).
const DefaultTimeout = 60 * time.Second

// provider performs one completion against one model.
// Failures are returned as *Error.
type provider interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
	Close()
}

// Config holds configuration for creating a Client.
type Config struct {
	Provider string        // gemini (default), openai or anthropic
	APIKey   string        // Falls back to the provider's environment variable when empty
	Model    string        // Preferred model, tried before the defaults
	Endpoint string        // Gemini URL template or OpenAI/Anthropic base URL; empty for the public service
	Timeout  time.Duration // Per attempt; DefaultTimeout when zero

	// HTTPClient overrides the client built from Timeout. Used by tests.
	HTTPClient *http.Client
}

// Request is one generation call.
type Request struct {
	Kind     models.AIKind
	Source   string
	Language string // Code block label; "java" when empty
}

// Client negotiates a model from an ordered candidate list and collapses
// every failure into a fixed message. It holds one long-lived HTTP client.
type Client struct {
	provider   provider
	candidates []string
	logger     *zap.Logger
}

// apiKeyEnv names the environment variable consulted for each provider.
var apiKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

var modelEnv = map[string]string{
	"gemini":    "GEMINI_MODEL",
	"openai":    "OPENAI_MODEL",
	"anthropic": "ANTHROPIC_MODEL",
}

// NewClient creates a Client. The API key comes from cfg.APIKey or the
// provider's environment variable; if both are empty it fails with
// apperrors.ErrConfig. OpenAI-compatible endpoints with a custom base URL
// may run without a key.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("llm")

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = "gemini"
	}
	envKey, ok := apiKeyEnv[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown AI provider %q", apperrors.ErrConfig, cfg.Provider)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = strings.TrimSpace(os.Getenv(modelEnv[name]))
	}
	if apiKey == "" && !(name == "openai" && cfg.Endpoint != "") {
		return nil, fmt.Errorf("%w: %s is not set", apperrors.ErrConfig, envKey)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = newHTTPClient(timeout)
	}

	var p provider
	var defaults []string
	switch name {
	case "gemini":
		p = newGeminiProvider(apiKey, cfg.Endpoint, httpClient, logger)
		defaults = DefaultGeminiModels
	case "openai":
		p = newOpenAIProvider(apiKey, cfg.Endpoint, httpClient, logger)
		defaults = DefaultOpenAIModels
	case "anthropic":
		p = newAnthropicProvider(apiKey, cfg.Endpoint, httpClient, logger)
		defaults = DefaultAnthropicModels
	}

	return &Client{
		provider:   p,
		candidates: CandidateModels(model, defaults),
		logger:     logger,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.TLSHandshakeTimeout = timeout
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Provider returns the provider name.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Candidates returns a copy of the model candidate sequence.
func (c *Client) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Generate runs kind against source and always returns text: the model's
// reply on success, a fixed message otherwise.
func (c *Client) Generate(ctx context.Context, kind models.AIKind, source string) string {
	return c.GenerateRequest(ctx, Request{Kind: kind, Source: source})
}

// GenerateRequest is Generate with an explicit language label.
// Explain replies are passed through SanitizeExplain; failure messages are not.
func (c *Client) GenerateRequest(ctx context.Context, req Request) string {
	text, err := c.generate(ctx, req)
	if err != nil {
		c.logger.Warn("AI generation failed",
			zap.String("provider", c.provider.Name()),
			zap.String("kind", string(req.Kind)),
			zap.String("error_type", string(GetErrorType(err))),
			zap.Error(err))
		return UserMessage(err)
	}
	return text
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	prompt, err := prompts.BuildAnalysisPrompt(req.Kind, req.Source, req.Language)
	if err != nil {
		return "", NewError(ErrorTypeBadRequest, "build prompt", err)
	}

	var lastErr *Error
	for i, model := range c.candidates {
		start := time.Now()
		text, err := c.provider.Complete(ctx, model, prompt)
		if err != nil {
			llmErr := ClassifyError(err)
			c.logger.Info("Model attempt failed",
				zap.Int("attempt", i+1),
				zap.String("model", model),
				zap.Int("status", llmErr.StatusCode),
				zap.String("error_type", string(llmErr.Type)),
				zap.Duration("elapsed", time.Since(start)))
			if llmErr.NextCandidate() {
				lastErr = llmErr
				continue
			}
			return "", llmErr
		}

		c.logger.Info("Model attempt succeeded",
			zap.Int("attempt", i+1),
			zap.String("model", model),
			zap.Int("response_len", len(text)),
			zap.Duration("elapsed", time.Since(start)))

		if strings.TrimSpace(text) == "" {
			return "", NewErrorWithContext(ErrorTypeEmpty, "empty response", nil, model, "", 0)
		}
		if req.Kind == models.AIKindExplain {
			text = SanitizeExplain(text)
			if text == "" {
				return "", NewErrorWithContext(ErrorTypeEmpty, "empty after sanitizing", nil, model, "", 0)
			}
		}
		return text, nil
	}

	if lastErr != nil {
		return "", &Error{Type: ErrorTypeNoModel, Message: "every candidate returned not found", Cause: lastErr}
	}
	return "", NewError(ErrorTypeNotFound, "no model candidates configured", nil)
}

// Close releases the HTTP client's idle connections.
func (c *Client) Close() {
	c.provider.Close()
}
