package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrorType classifies a failed model call.
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"   // model not visible to this key; try the next candidate
	ErrorTypeBadRequest  ErrorType = "bad_request" // 400
	ErrorTypeAuth        ErrorType = "auth"        // 401, 403
	ErrorTypeRateLimit   ErrorType = "rate_limit"  // 429
	ErrorTypeUnavailable ErrorType = "unavailable" // 5xx
	ErrorTypeHTTP        ErrorType = "http"        // any other non-2xx status
	ErrorTypeTransport   ErrorType = "transport"   // connect, read, write or timeout failure
	ErrorTypeAPI         ErrorType = "api"         // 200 with an error envelope
	ErrorTypeEmpty       ErrorType = "empty_response"
	ErrorTypeNoModel     ErrorType = "no_model"
	ErrorTypeMalformed   ErrorType = "malformed"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Fixed operator-facing messages. Failures never reach the caller in any other form.
const (
	MsgAuth         = "Invalid API key or insufficient permissions. Please check your API key."
	MsgBadRequest   = "The API request format is incorrect. Please report this issue."
	MsgRateLimit    = "The AI service rate limit was hit. Please slow down and try again."
	MsgUnavailable  = "The AI service is currently experiencing issues. Please try again later."
	MsgHTTP         = "AI analysis unavailable. Please try again later."
	MsgTransport    = "Could not connect to AI service. Please check your internet connection."
	MsgUnexpected   = "An unexpected error occurred while communicating with the AI service."
	MsgEmpty        = "AI couldn't generate a response. Please try again with a simpler code sample."
	MsgNoModel      = "No available AI model for this API key/project. Set GEMINI_MODEL to a permitted model or enable access to Gemini 1.5 in Google Cloud console."
	MsgNotAvailable = "AI model not available right now. Please try again later."
	apiErrorPrefix  = "API Error: "
)

// Error represents a structured model-call error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
	Endpoint   string    // Endpoint URL if known; only the host is ever printed
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", host))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NextCandidate reports whether the caller should move on to the next model.
func (e *Error) NextCandidate() bool {
	return e.Type == ErrorTypeNotFound
}

// NewError creates a new structured error.
func NewError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewErrorWithContext creates a new structured error with request context.
func NewErrorWithContext(errType ErrorType, message string, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// classifyStatus maps a non-2xx HTTP status from a model endpoint.
func classifyStatus(status int) (ErrorType, string) {
	switch {
	case status == 404:
		return ErrorTypeNotFound, "model not found"
	case status == 400:
		return ErrorTypeBadRequest, "bad request"
	case status == 401 || status == 403:
		return ErrorTypeAuth, "authentication failed"
	case status == 429:
		return ErrorTypeRateLimit, "rate limited"
	case status >= 500:
		return ErrorTypeUnavailable, "server error"
	}
	return ErrorTypeHTTP, "unexpected status"
}

// ClassifyError categorizes an SDK error from its text and returns a structured Error.
// SDKs wrap HTTP failures in their own types, so the status code is recovered from the message.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	// Check if already an *Error
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	// Extract HTTP status code from error string
	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Type: ErrorTypeTransport, Message: "request timeout", Cause: err}
	}
	// Transport errors carry the URL, whose port may look like a status code
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Type: ErrorTypeTransport, Message: "connection failed", Cause: err}
	}

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "invalid x-api-key") || strings.Contains(lower, "permission"):
		llmErr = NewError(ErrorTypeAuth, "authentication failed", err)
	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")) || strings.Contains(errStr, "404"):
		llmErr = NewError(ErrorTypeNotFound, "model not found", err)
	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit"):
		llmErr = NewError(ErrorTypeRateLimit, "rate limited", err)
	case strings.Contains(errStr, "400") || strings.Contains(lower, "invalid_request"):
		llmErr = NewError(ErrorTypeBadRequest, "bad request", err)
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") ||
		strings.Contains(lower, "overloaded"):
		llmErr = NewError(ErrorTypeUnavailable, "server error", err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "eof") || strings.Contains(lower, "connection reset"):
		llmErr = NewError(ErrorTypeTransport, "connection failed", err)
	default:
		llmErr = NewError(ErrorTypeUnknown, "llm error", err)
	}
	llmErr.StatusCode = statusCode
	return llmErr
}

// UserMessage collapses an error into its fixed operator-facing text.
func UserMessage(err error) string {
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		llmErr = ClassifyError(err)
	}

	switch llmErr.Type {
	case ErrorTypeAuth:
		return MsgAuth
	case ErrorTypeBadRequest:
		return MsgBadRequest
	case ErrorTypeRateLimit:
		return MsgRateLimit
	case ErrorTypeUnavailable:
		return MsgUnavailable
	case ErrorTypeHTTP:
		return MsgHTTP
	case ErrorTypeTransport:
		return MsgTransport
	case ErrorTypeAPI:
		return apiErrorPrefix + llmErr.Message
	case ErrorTypeEmpty:
		return MsgEmpty
	case ErrorTypeNoModel:
		return MsgNoModel
	case ErrorTypeNotFound:
		return MsgNotAvailable
	}
	return MsgUnexpected
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}
