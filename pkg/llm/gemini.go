package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/logging"
)

// DefaultGeminiEndpoint is the generateContent URL template; %s is the model.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// maxResponseBytes bounds how much of a reply body is read.
const maxResponseBytes = 4 << 20

// geminiRequest is the generateContent body. Contents and generation config
// use the genai wire types so field names match the service exactly.
type geminiRequest struct {
	Contents         []*genai.Content        `json:"contents"`
	GenerationConfig *genai.GenerationConfig `json:"generationConfig"`
}

// geminiErrorEnvelope is the {"error": {...}} shape returned instead of candidates.
type geminiErrorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// geminiProvider talks to the Generative Language REST API directly.
// The API key travels as a ?key= query parameter, so every URL that
// reaches a log line goes through logging.SanitizeURL first.
type geminiProvider struct {
	apiKey           string
	endpointTemplate string
	httpClient       *http.Client
	logger           *zap.Logger
}

func newGeminiProvider(apiKey, endpointTemplate string, httpClient *http.Client, logger *zap.Logger) *geminiProvider {
	if endpointTemplate == "" {
		endpointTemplate = DefaultGeminiEndpoint
	}
	return &geminiProvider{
		apiKey:           apiKey,
		endpointTemplate: endpointTemplate,
		httpClient:       httpClient,
		logger:           logger,
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) requestURL(model string) string {
	base := fmt.Sprintf(p.endpointTemplate, url.PathEscape(model))
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "key=" + url.QueryEscape(p.apiKey)
}

func (p *geminiProvider) Complete(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}},
		},
		GenerationConfig: &genai.GenerationConfig{
			Temperature:     genai.Ptr[float32](0.2),
			MaxOutputTokens: 2048,
			TopP:            genai.Ptr[float32](0.8),
			TopK:            genai.Ptr[float32](40),
		},
	})
	if err != nil {
		return "", NewError(ErrorTypeUnknown, "encode request", err)
	}

	endpoint := p.requestURL(model)
	safeURL := logging.SanitizeURL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewErrorWithContext(ErrorTypeUnknown, "build request", redactedError(err), model, safeURL, 0)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		// *url.Error embeds the full URL, key included
		return "", NewErrorWithContext(ErrorTypeTransport, "request failed", redactedError(err), model, safeURL, 0)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", NewErrorWithContext(ErrorTypeTransport, "read response", redactedError(err), model, safeURL, resp.StatusCode)
	}

	p.logger.Debug("Gemini response",
		zap.String("model", model),
		zap.String("url", safeURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_len", len(raw)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errType, msg := classifyStatus(resp.StatusCode)
		return "", NewErrorWithContext(errType, msg, nil, model, safeURL, resp.StatusCode)
	}

	var envelope geminiErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", NewErrorWithContext(ErrorTypeMalformed, "decode response", err, model, safeURL, resp.StatusCode)
	}
	if envelope.Error != nil {
		return "", NewErrorWithContext(ErrorTypeAPI, envelope.Error.Message, nil, model, safeURL, resp.StatusCode)
	}

	var parsed genai.GenerateContentResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", NewErrorWithContext(ErrorTypeMalformed, "decode response", err, model, safeURL, resp.StatusCode)
	}
	return firstCandidateText(&parsed), nil
}

// firstCandidateText concatenates every text part of the first candidate.
// Missing candidates, content or parts yield "".
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// Close releases idle keep-alive connections.
func (p *geminiProvider) Close() {
	p.httpClient.CloseIdleConnections()
}

type sanitizedError struct {
	msg   string
	cause error
}

func (e *sanitizedError) Error() string { return e.msg }
func (e *sanitizedError) Unwrap() error { return e.cause }

// redactedError keeps the error chain for errors.Is but scrubs the text.
func redactedError(err error) error {
	return &sanitizedError{msg: logging.SanitizeError(err), cause: err}
}
