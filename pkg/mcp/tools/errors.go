package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// It is returned as a successful tool result so the client sees the
// details instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad arguments, unknown report id,
// no database). System failures are returned as Go errors.
//
// Example:
//
//	if id <= 0 {
//	    return NewErrorResult("invalid_parameters", "id must be positive"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// isUserError reports whether err is something the caller can act on and
// should therefore be returned as an error result.
func isUserError(err error) bool {
	return ErrorCode(err) != ""
}

// ErrorCode maps application errors to tool error codes.
// Returns "" for errors that are not actionable by the caller.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrNotFound):
		return "report_not_found"
	case errors.Is(err, apperrors.ErrUnavailable):
		return "database_unavailable"
	case errors.Is(err, apperrors.ErrMetricExtraction):
		return "metric_extraction_failed"
	}
	return ""
}

// errorResultFor converts an actionable error into an error result.
// ok is false when err should be returned as a Go error instead.
func errorResultFor(err error) (result *mcp.CallToolResult, ok bool) {
	if !isUserError(err) {
		return nil, false
	}
	return NewErrorResult(ErrorCode(err), err.Error()), true
}
