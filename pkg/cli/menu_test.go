package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

type stubService struct {
	status    services.Status
	reports   map[int64]*models.Report
	order     []int64
	analyzed  []string
	detailIDs []int64
	listErr   error
	nextID    int64
}

func newStubService(withStore bool) *stubService {
	st := services.Status{StoreBackend: store.BackendNone, AIProvider: "gemini"}
	if withStore {
		st = services.Status{StoreBackend: store.BackendEmbedded, StoreDialect: "sqlite", StoreAvailable: true, AIProvider: "gemini"}
	}
	return &stubService{status: st, reports: map[int64]*models.Report{}}
}

func (s *stubService) Analyze(ctx context.Context, path string) (*services.AnalysisResult, error) {
	return s.AnalyzeKind(ctx, path, models.AIKindExplain)
}

func (s *stubService) AnalyzeKind(_ context.Context, path string, kind models.AIKind) (*services.AnalysisResult, error) {
	s.analyzed = append(s.analyzed, path)
	if strings.HasSuffix(path, "missing.java") {
		return nil, fmt.Errorf("%w: open %s: no such file or directory", apperrors.ErrMetricExtraction, path)
	}
	res := &services.AnalysisResult{
		Metrics: &models.SourceMetrics{FileName: "A.java", FilePath: path, LineCount: 1, TypeCount: 1, FunctionCount: 1, VariableCount: 1},
		Kind:    kind,
		AIText:  "1. does X",
	}
	if !s.status.StoreAvailable {
		res.PersistErr = apperrors.ErrUnavailable
		return res, nil
	}
	s.nextID++
	text := res.AIText
	s.reports[s.nextID] = &models.Report{ID: s.nextID, FileName: "A.java", FilePath: path, LineCount: 1, AIExplanation: &text}
	s.order = append([]int64{s.nextID}, s.order...)
	res.ReportID = s.nextID
	res.Persisted = true
	return res, nil
}

func (s *stubService) ListReports(context.Context) ([]models.ReportSummary, error) {
	if !s.status.StoreAvailable {
		return nil, apperrors.ErrUnavailable
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.ReportSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id].Summary())
	}
	return out, nil
}

func (s *stubService) Detail(_ context.Context, id int64) (*models.Report, error) {
	s.detailIDs = append(s.detailIDs, id)
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %d: %w", id, apperrors.ErrNotFound)
	}
	return r, nil
}

func (s *stubService) Status() services.Status { return s.status }
func (s *stubService) Shutdown() error         { return nil }

var _ services.AnalysisService = (*stubService)(nil)

func runMenu(t *testing.T, svc services.AnalysisService, input string) string {
	t.Helper()
	p, buf := testPrinter()
	menu := NewMenu(svc, strings.NewReader(input), p, "v1.0", zaptest.NewLogger(t))
	require.NoError(t, menu.Run(context.Background()))
	return buf.String()
}

func TestMenu_ExitImmediately(t *testing.T) {
	out := runMenu(t, newStubService(true), "0\n")

	assert.Contains(t, out, "Welcome to Smart Code Analyzer v1.0")
	assert.Contains(t, out, "MAIN MENU")
	assert.Contains(t, out, "1. Analyze Source File")
	assert.Contains(t, out, "Exiting Smart Code Analyzer. Goodbye!")
	assert.NotContains(t, out, unavailableSuffix)
}

func TestMenu_EOFExitsCleanly(t *testing.T) {
	out := runMenu(t, newStubService(true), "")
	assert.Contains(t, out, "Goodbye!")
}

func TestMenu_InvalidChoiceRepeatsMenu(t *testing.T) {
	out := runMenu(t, newStubService(true), "abc\n9\n0\n")

	assert.Equal(t, 2, strings.Count(out, "Invalid choice. Please try again."))
	assert.Equal(t, 3, strings.Count(out, "MAIN MENU"))
}

func TestMenu_AnalyzeThenList(t *testing.T) {
	svc := newStubService(true)
	out := runMenu(t, svc, "1\n\"/src/A.java\"\n\n2\n\n0\n")

	assert.Equal(t, []string{"/src/A.java"}, svc.analyzed)
	assert.Contains(t, out, "Analyzing file: /src/A.java")
	assert.Contains(t, out, "Total lines: 1")
	assert.Contains(t, out, "1. does X")
	assert.Contains(t, out, "saved to database (report #1)")
	assert.Contains(t, out, "Press Enter to continue...")
	assert.Contains(t, out, "Found 1 report:")
}

func TestMenu_AnalyzeExtractionFailure(t *testing.T) {
	svc := newStubService(true)
	out := runMenu(t, svc, "1\n/tmp/missing.java\n0\n")

	assert.Contains(t, out, "Error analyzing file:")
	assert.Contains(t, out, "no such file")
	assert.Empty(t, svc.reports)
}

func TestMenu_AnalyzeEmptyPath(t *testing.T) {
	svc := newStubService(true)
	out := runMenu(t, svc, "1\n   \n0\n")

	assert.Contains(t, out, "Invalid file path.")
	assert.Empty(t, svc.analyzed)
}

func TestMenu_Detail(t *testing.T) {
	svc := newStubService(true)
	out := runMenu(t, svc, "1\nA.java\n\n3\n1\n\n0\n")

	assert.Equal(t, []int64{1}, svc.detailIDs)
	assert.Contains(t, out, "==== Available Reports ====")
	assert.Contains(t, out, "ID: 1 | File: A.java | Kind: Explain")
	assert.Contains(t, out, "==== Detailed Analysis Report ====")
	assert.Contains(t, out, "AI Action: Explain")
}

func TestMenu_DetailNotFoundAndCancel(t *testing.T) {
	svc := newStubService(true)
	out := runMenu(t, svc, "1\nA.java\n\n3\n42\n3\n0\n3\nx\n0\n")

	assert.Equal(t, []int64{42}, svc.detailIDs)
	assert.Contains(t, out, "Report with ID 42 not found.")
	assert.Equal(t, 1, strings.Count(out, "==== Analysis Results ===="))
}

func TestMenu_DetailWithNoReports(t *testing.T) {
	out := runMenu(t, newStubService(true), "3\n0\n")
	assert.Contains(t, out, "No analysis reports found in the database.")
}

func TestMenu_ListError(t *testing.T) {
	svc := newStubService(true)
	svc.listErr = fmt.Errorf("%w: connection reset", apperrors.ErrQuery)
	out := runMenu(t, svc, "2\n0\n")
	assert.Contains(t, out, "Error retrieving reports:")
	assert.Contains(t, out, "MAIN MENU")
}

func TestMenu_WithoutStore(t *testing.T) {
	svc := newStubService(false)
	out := runMenu(t, svc, "2\n3\n1\nA.java\n\n0\n")

	assert.Contains(t, out, "Database connection failed. Features will be limited.")
	assert.Contains(t, out, "2. View Analysis Reports"+unavailableSuffix)
	assert.Equal(t, 2, strings.Count(out, "Database connection required for this feature."))
	assert.Empty(t, svc.detailIDs)

	// Analysis still runs and reports that nothing was saved.
	assert.Contains(t, out, "1. does X")
	assert.Contains(t, out, "not saved (no database connection)")
}

func TestMenu_About(t *testing.T) {
	svc := newStubService(true)
	svc.status.RemoteErr = fmt.Errorf("%w: dial tcp 10.0.0.1:3306: i/o timeout", apperrors.ErrConnect)
	out := runMenu(t, svc, "4\n\n0\n")

	assert.Contains(t, out, "Using embedded sqlite database (remote database not available)")
	assert.Contains(t, out, "==== About Smart Code Analyzer ====")
	assert.Contains(t, out, "Database Status: Connected (embedded, sqlite)")
	assert.Contains(t, out, "i/o timeout")
}

func TestMenu_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, buf := testPrinter()
	menu := NewMenu(newStubService(true), strings.NewReader("1\nA.java\n"), p, "dev", nil)
	require.NoError(t, menu.Run(ctx))
	assert.NotContains(t, buf.String(), "MAIN MENU")
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/a b/C.java", cleanPath(`  "/a b/C.java" `))
	assert.Equal(t, "/x/C.java", cleanPath(`'/x/C.java'`))
	assert.Equal(t, `"`, cleanPath(`"`))
	assert.Equal(t, "", cleanPath("   "))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 3, parseChoice(" 3 "))
	assert.Equal(t, invalidChoice, parseChoice("three"))
	assert.Equal(t, invalidChoice, parseChoice(""))
}
