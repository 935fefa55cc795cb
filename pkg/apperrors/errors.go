package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConfig marks a required configuration input that is missing or malformed.
	// It is the only error that aborts the process.
	ErrConfig = errors.New("configuration error")

	ErrConnect = errors.New("store connection failed")
	ErrInsert  = errors.New("store insert failed")
	ErrQuery   = errors.New("store query failed")

	// ErrUnavailable is returned by every store operation when no backend could be opened.
	ErrUnavailable = errors.New("database unavailable")

	ErrMetricExtraction = errors.New("metric extraction failed")
)
