package store

import (
	"context"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
)

// NoStore is published when neither backend could be opened.
// Every operation fails with apperrors.ErrUnavailable.
type NoStore struct{}

var _ Store = NoStore{}

func (NoStore) EnsureSchema(context.Context) error { return apperrors.ErrUnavailable }

func (NoStore) Insert(context.Context, models.ReportInput, models.AIKind, string) (int64, error) {
	return 0, apperrors.ErrUnavailable
}

func (NoStore) List(context.Context) ([]models.ReportSummary, error) {
	return nil, apperrors.ErrUnavailable
}

func (NoStore) Fetch(context.Context, int64) (*models.Report, error) {
	return nil, apperrors.ErrUnavailable
}

func (NoStore) Backend() Backend { return BackendNone }

func (NoStore) Dialect() string { return "" }

func (NoStore) Close() error { return nil }

// Available reports whether s can actually persist reports.
func Available(s Store) bool {
	if s == nil {
		return false
	}
	_, none := s.(NoStore)
	return !none
}
