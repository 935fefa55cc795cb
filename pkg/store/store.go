// Package store persists analysis reports in one analysis_reports table on a
// remote SQL service or an in-process SQLite database. Every backend exposes
// the same Store contract.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/logging"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
)

// MaxConnectTimeout bounds the initial connection and ping.
const MaxConnectTimeout = 10 * time.Second

// Backend names where a store keeps its data.
type Backend string

const (
	BackendRemote   Backend = "remote"
	BackendEmbedded Backend = "embedded"
	BackendNone     Backend = "none"
)

// ParseBackend accepts "remote" or "embedded" in any case.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendRemote:
		return BackendRemote, nil
	case BackendEmbedded:
		return BackendEmbedded, nil
	}
	return "", fmt.Errorf("unknown store backend %q", s)
}

// Store is the report persistence contract shared by every backend.
type Store interface {
	// EnsureSchema creates analysis_reports if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Insert writes one row with aiText in the column selected by kind and
	// returns the generated id. The other AI columns stay NULL.
	Insert(ctx context.Context, in models.ReportInput, kind models.AIKind, aiText string) (int64, error)
	// List returns every report, newest first, without AI text.
	List(ctx context.Context) ([]models.ReportSummary, error)
	// Fetch returns one report or apperrors.ErrNotFound.
	Fetch(ctx context.Context, id int64) (*models.Report, error)
	Backend() Backend
	Dialect() string
	Close() error
}

// EmbeddedConfig configures the in-process backend.
type EmbeddedConfig struct {
	DSN string // EmbeddedMemoryDSN when empty
}

// OpenOptions selects and configures one backend.
type OpenOptions struct {
	Backend  Backend
	Remote   RemoteConfig
	Embedded EmbeddedConfig
}

type sqlStore struct {
	db      *sqlx.DB
	dialect Dialect
	backend Backend
	logger  *zap.Logger
}

var _ Store = (*sqlStore)(nil)

const selectColumns = `id, file_name, file_path,
	COALESCE(line_count, 0) AS line_count,
	COALESCE(class_count, 0) AS class_count,
	COALESCE(method_count, 0) AS method_count,
	COALESCE(variable_count, 0) AS variable_count,
	analysis_date,
	ai_explanation, ai_debug_suggestions, ai_refactoring_suggestions`

// Open connects to the backend named by opts, verifies the connection within
// the connect timeout and ensures the schema. Every failure wraps
// apperrors.ErrConnect.
func Open(ctx context.Context, opts OpenOptions, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("store")

	var (
		dialect Dialect
		dsn     string
		ok      bool
	)
	switch opts.Backend {
	case BackendRemote:
		dialect, ok = Lookup(opts.Remote.Driver)
		if !ok || dialect.Embedded {
			return nil, fmt.Errorf("%w: unsupported remote driver %q", apperrors.ErrConnect, opts.Remote.Driver)
		}
		if strings.TrimSpace(opts.Remote.Host) == "" {
			return nil, fmt.Errorf("%w: no remote host configured", apperrors.ErrConnect)
		}
		dsn = dialect.DSN(opts.Remote)
	case BackendEmbedded:
		dialect, ok = Lookup("sqlite")
		if !ok {
			return nil, fmt.Errorf("%w: embedded driver not registered", apperrors.ErrConnect)
		}
		dsn = opts.Embedded.DSN
		if dsn == "" {
			dsn = dialect.DSN(RemoteConfig{})
		}
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", apperrors.ErrConnect, opts.Backend)
	}

	db, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", apperrors.ErrConnect, dialect.Name, logging.SanitizeError(err))
	}
	// One connection for the whole process; for SQLite this also keeps the
	// in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, opts.Remote.connectTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %s", apperrors.ErrConnect, dialect.Name, logging.SanitizeError(err))
	}

	s := &sqlStore{db: db, dialect: dialect, backend: opts.Backend, logger: logger}
	if err := s.EnsureSchema(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConnect, err)
	}

	logger.Info("Store opened",
		zap.String("backend", string(opts.Backend)),
		zap.String("dialect", dialect.Name),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)))
	return s, nil
}

func (s *sqlStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.CreateTable); err != nil {
		return fmt.Errorf("create analysis_reports: %s", logging.SanitizeError(err))
	}
	return nil
}

func (s *sqlStore) insertQuery(column string) string {
	cols := "file_name, file_path, line_count, class_count, method_count, variable_count, " + column
	values := "VALUES (?, ?, ?, ?, ?, ?, ?)"

	var q string
	switch s.dialect.IDStrategy {
	case IDReturning:
		q = "INSERT INTO analysis_reports (" + cols + ") " + values + " RETURNING id"
	case IDOutputInserted:
		q = "INSERT INTO analysis_reports (" + cols + ") OUTPUT INSERTED.id " + values
	default:
		q = "INSERT INTO analysis_reports (" + cols + ") " + values
	}
	return s.db.Rebind(q)
}

func (s *sqlStore) Insert(ctx context.Context, in models.ReportInput, kind models.AIKind, aiText string) (int64, error) {
	// column comes from a fixed whitelist, never from caller text
	column, err := kind.Column()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrInsert, err)
	}
	if err := in.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrInsert, err)
	}

	query := s.insertQuery(column)
	args := []any{in.FileName, in.FilePath, in.LineCount, in.TypeCount, in.FunctionCount, in.VariableCount, aiText}

	var id int64
	if s.dialect.IDStrategy == IDLastInsertID {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", apperrors.ErrInsert, logging.SanitizeError(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("%w: read generated id: %w", apperrors.ErrInsert, err)
		}
	} else if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrInsert, logging.SanitizeError(err))
	}

	s.logger.Debug("Report inserted",
		zap.Int64("id", id),
		zap.String("kind", string(kind)),
		zap.String("file", in.FileName))
	return id, nil
}

func (s *sqlStore) List(ctx context.Context) ([]models.ReportSummary, error) {
	var rows []models.Report
	query := "SELECT " + selectColumns + " FROM analysis_reports ORDER BY analysis_date DESC, id DESC"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrQuery, logging.SanitizeError(err))
	}

	summaries := make([]models.ReportSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].Summary())
	}
	return summaries, nil
}

func (s *sqlStore) Fetch(ctx context.Context, id int64) (*models.Report, error) {
	var r models.Report
	query := s.db.Rebind("SELECT " + selectColumns + " FROM analysis_reports WHERE id = ?")
	if err := s.db.GetContext(ctx, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrQuery, logging.SanitizeError(err))
	}
	return &r, nil
}

func (s *sqlStore) Backend() Backend { return s.backend }

func (s *sqlStore) Dialect() string { return s.dialect.Name }

func (s *sqlStore) Close() error {
	return s.db.Close()
}
