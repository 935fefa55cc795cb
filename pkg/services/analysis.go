package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/llm"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

// Extractor produces metrics for a file on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) (*models.SourceMetrics, error)
}

// Generator runs one AI action. It never fails: errors come back as
// fixed operator-facing text.
type Generator interface {
	GenerateRequest(ctx context.Context, req llm.Request) string
	Provider() string
	Candidates() []string
	Close()
}

// AnalysisResult is the outcome of one analyze run.
type AnalysisResult struct {
	RunID     uuid.UUID
	Metrics   *models.SourceMetrics
	Kind      models.AIKind
	AIText    string
	ReportID  int64 // 0 unless Persisted
	Persisted bool
	// PersistErr explains why the report was not saved. It wraps
	// apperrors.ErrUnavailable when there is no store at all.
	PersistErr error
}

// Status describes the active backends for the about screen.
type Status struct {
	StoreBackend   store.Backend
	StoreDialect   string
	StoreAvailable bool
	RemoteErr      error
	EmbeddedErr    error
	AIProvider     string
	AIModels       []string
}

// AnalysisService orchestrates metrics, AI and persistence.
type AnalysisService interface {
	// Analyze runs the Explain action on path.
	Analyze(ctx context.Context, path string) (*AnalysisResult, error)

	// AnalyzeKind extracts metrics, runs kind on the source and stores the
	// result. Only extraction failures are returned as errors; AI and store
	// failures are reported inside the result.
	AnalyzeKind(ctx context.Context, path string, kind models.AIKind) (*AnalysisResult, error)

	// ListReports returns stored reports newest first, or apperrors.ErrUnavailable.
	ListReports(ctx context.Context) ([]models.ReportSummary, error)

	// Detail returns one report, apperrors.ErrNotFound or apperrors.ErrUnavailable.
	Detail(ctx context.Context, id int64) (*models.Report, error)

	Status() Status

	// Shutdown closes the store and the AI client. Safe to call twice.
	Shutdown() error
}

type analysisService struct {
	extractor Extractor
	generator Generator
	store     store.Store
	selection *store.Selection
	logger    *zap.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewAnalysisService creates the controller. A nil selection or store means
// no persistence.
func NewAnalysisService(extractor Extractor, generator Generator, selection *store.Selection, logger *zap.Logger) AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if selection == nil {
		selection = &store.Selection{}
	}
	if selection.Store == nil {
		selection.Store = store.NoStore{}
	}
	return &analysisService{
		extractor: extractor,
		generator: generator,
		store:     selection.Store,
		selection: selection,
		logger:    logger.Named("analysis"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) Analyze(ctx context.Context, path string) (*AnalysisResult, error) {
	return s.AnalyzeKind(ctx, path, models.AIKindExplain)
}

func (s *analysisService) AnalyzeKind(ctx context.Context, path string, kind models.AIKind) (*AnalysisResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown AI kind %q", string(kind))
	}

	runID := uuid.New()
	logger := s.logger.With(zap.String("run_id", runID.String()), zap.String("kind", string(kind)))

	metrics, err := s.extractor.Extract(ctx, path)
	if err != nil {
		logger.Warn("Metric extraction failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	text := s.generator.GenerateRequest(ctx, llm.Request{
		Kind:     kind,
		Source:   metrics.SourceText,
		Language: metrics.Language,
	})

	result := &AnalysisResult{
		RunID:   runID,
		Metrics: metrics,
		Kind:    kind,
		AIText:  text,
	}

	if !store.Available(s.store) {
		result.PersistErr = apperrors.ErrUnavailable
		logger.Info("Analysis not persisted", zap.String("file", metrics.FileName), zap.String("reason", "no store"))
		return result, nil
	}

	id, err := s.store.Insert(ctx, metrics.ReportInput(), kind, text)
	if err != nil {
		result.PersistErr = err
		logger.Error("Failed to save analysis report",
			zap.String("file", metrics.FileName),
			zap.String("backend", string(s.store.Backend())),
			zap.Error(err))
		return result, nil
	}

	result.ReportID = id
	result.Persisted = true
	logger.Info("Analysis saved",
		zap.Int64("report_id", id),
		zap.String("file", metrics.FileName),
		zap.String("backend", string(s.store.Backend())))
	return result, nil
}

func (s *analysisService) ListReports(ctx context.Context) ([]models.ReportSummary, error) {
	reports, err := s.store.List(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUnavailable) {
			s.logger.Error("Failed to list reports", zap.Error(err))
		}
		return nil, err
	}
	return reports, nil
}

func (s *analysisService) Detail(ctx context.Context, id int64) (*models.Report, error) {
	if !store.Available(s.store) {
		return nil, apperrors.ErrUnavailable
	}
	if id <= 0 {
		return nil, fmt.Errorf("report %d: %w", id, apperrors.ErrNotFound)
	}

	report, err := s.store.Fetch(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Failed to fetch report", zap.Int64("report_id", id), zap.Error(err))
		}
		return nil, err
	}
	return report, nil
}

func (s *analysisService) Status() Status {
	return Status{
		StoreBackend:   s.store.Backend(),
		StoreDialect:   s.store.Dialect(),
		StoreAvailable: store.Available(s.store),
		RemoteErr:      s.selection.RemoteErr,
		EmbeddedErr:    s.selection.EmbeddedErr,
		AIProvider:     s.generator.Provider(),
		AIModels:       s.generator.Candidates(),
	}
}

func (s *analysisService) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.generator.Close()
		if err := s.store.Close(); err != nil {
			s.shutdownErr = fmt.Errorf("close store: %w", err)
		}
		s.logger.Debug("Shutdown complete")
	})
	return s.shutdownErr
}
