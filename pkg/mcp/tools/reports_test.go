package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
)

type mockAnalysisService struct {
	reports   []models.ReportSummary
	report    *models.Report
	result    *services.AnalysisResult
	err       error
	lastPath  string
	lastKind  models.AIKind
	detailIDs []int64
}

func (m *mockAnalysisService) Analyze(ctx context.Context, path string) (*services.AnalysisResult, error) {
	return m.AnalyzeKind(ctx, path, models.AIKindExplain)
}

func (m *mockAnalysisService) AnalyzeKind(_ context.Context, path string, kind models.AIKind) (*services.AnalysisResult, error) {
	m.lastPath = path
	m.lastKind = kind
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAnalysisService) ListReports(context.Context) ([]models.ReportSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reports, nil
}

func (m *mockAnalysisService) Detail(_ context.Context, id int64) (*models.Report, error) {
	m.detailIDs = append(m.detailIDs, id)
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockAnalysisService) Status() services.Status { return staticStatus() }
func (m *mockAnalysisService) Shutdown() error         { return nil }

var _ services.AnalysisService = (*mockAnalysisService)(nil)

type toolResponse struct {
	Result *mcp.CallToolResult `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func callTool(t *testing.T, svc services.AnalysisService, name string, args map[string]any) toolResponse {
	t.Helper()

	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterReportTools(mcpServer, &ReportToolDeps{Service: svc, Logger: zap.NewNop()})

	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	request := fmt.Sprintf(`{"jsonrpc":"2.0","method":"tools/call","params":%s,"id":1}`, params)

	result := mcpServer.HandleMessage(context.Background(), []byte(request))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return resp
}

func decodeErrorResult(t *testing.T, result *mcp.CallToolResult) ErrorResponse {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))
	return errResp
}

func strPtr(s string) *string { return &s }

func TestRegisterReportTools_ListsAllTools(t *testing.T) {
	mcpServer := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterReportTools(mcpServer, &ReportToolDeps{Service: &mockAnalysisService{}, Logger: zap.NewNop()})

	result := mcpServer.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	var names []string
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_reports", "get_report", "analyze_file"}, names)
}

func TestListReportsTool(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockAnalysisService{reports: []models.ReportSummary{
		{ID: 3, FileName: "C.java", Kind: models.AIKindRefactor, AnalysisDate: now},
		{ID: 2, FileName: "B.java", Kind: models.AIKindDebug, AnalysisDate: now.Add(-time.Hour)},
		{ID: 1, FileName: "A.java", Kind: models.AIKindExplain, AnalysisDate: now.Add(-2 * time.Hour)},
	}}

	t.Run("all", func(t *testing.T) {
		resp := callTool(t, svc, "list_reports", nil)
		require.Nil(t, resp.Error)
		require.False(t, resp.Result.IsError)

		var out listReportsResponse
		require.NoError(t, json.Unmarshal([]byte(getTextContent(resp.Result)), &out))
		assert.Equal(t, 3, out.Count)
		assert.Equal(t, int64(3), out.Reports[0].ID)
		assert.Equal(t, models.AIKindRefactor, out.Reports[0].Kind)
	})

	t.Run("limit", func(t *testing.T) {
		resp := callTool(t, svc, "list_reports", map[string]any{"limit": 1})
		require.Nil(t, resp.Error)

		var out listReportsResponse
		require.NoError(t, json.Unmarshal([]byte(getTextContent(resp.Result)), &out))
		assert.Equal(t, 1, out.Count)
		assert.Equal(t, "C.java", out.Reports[0].FileName)
	})

	t.Run("list excludes AI text", func(t *testing.T) {
		resp := callTool(t, svc, "list_reports", nil)
		assert.NotContains(t, getTextContent(resp.Result), "ai_text")
	})
}

func TestListReportsTool_NoStore(t *testing.T) {
	resp := callTool(t, &mockAnalysisService{err: apperrors.ErrUnavailable}, "list_reports", nil)
	require.Nil(t, resp.Error)

	errResp := decodeErrorResult(t, resp.Result)
	assert.Equal(t, "database_unavailable", errResp.Code)
}

func TestListReportsTool_QueryFailureIsProtocolError(t *testing.T) {
	resp := callTool(t, &mockAnalysisService{err: fmt.Errorf("%w: connection reset", apperrors.ErrQuery)}, "list_reports", nil)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "list reports")
}

func TestGetReportTool(t *testing.T) {
	svc := &mockAnalysisService{report: &models.Report{
		ID:                 7,
		FileName:           "A.java",
		FilePath:           "/src/A.java",
		LineCount:          10,
		AIDebugSuggestions: strPtr("1. null check"),
	}}

	resp := callTool(t, svc, "get_report", map[string]any{"id": 7})
	require.Nil(t, resp.Error)
	require.False(t, resp.Result.IsError)
	assert.Equal(t, []int64{7}, svc.detailIDs)

	var out struct {
		ID       int64  `json:"id"`
		FileName string `json:"file_name"`
		Kind     string `json:"kind"`
		AIText   string `json:"ai_text"`
	}
	require.NoError(t, json.Unmarshal([]byte(getTextContent(resp.Result)), &out))
	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, "A.java", out.FileName)
	assert.Equal(t, "Debug", out.Kind)
	assert.Equal(t, "1. null check", out.AIText)
}

func TestGetReportTool_Errors(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		svc := &mockAnalysisService{}
		resp := callTool(t, svc, "get_report", nil)
		assert.Equal(t, "invalid_parameters", decodeErrorResult(t, resp.Result).Code)
		assert.Empty(t, svc.detailIDs)
	})

	t.Run("non-positive id", func(t *testing.T) {
		svc := &mockAnalysisService{}
		resp := callTool(t, svc, "get_report", map[string]any{"id": 0})
		assert.Equal(t, "invalid_parameters", decodeErrorResult(t, resp.Result).Code)
		assert.Empty(t, svc.detailIDs)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockAnalysisService{err: fmt.Errorf("report 99: %w", apperrors.ErrNotFound)}
		resp := callTool(t, svc, "get_report", map[string]any{"id": 99})
		errResp := decodeErrorResult(t, resp.Result)
		assert.Equal(t, "report_not_found", errResp.Code)
		assert.Contains(t, errResp.Message, "report 99")
	})
}

func TestAnalyzeFileTool(t *testing.T) {
	svc := &mockAnalysisService{result: &services.AnalysisResult{
		Metrics:   &models.SourceMetrics{FileName: "A.java", FilePath: "/src/A.java", LineCount: 1, TypeCount: 1, FunctionCount: 1, VariableCount: 1},
		Kind:      models.AIKindRefactor,
		AIText:    "1. extract method",
		ReportID:  12,
		Persisted: true,
	}}

	resp := callTool(t, svc, "analyze_file", map[string]any{"path": "/src/A.java", "kind": "refactor"})
	require.Nil(t, resp.Error)
	require.False(t, resp.Result.IsError)
	assert.Equal(t, "/src/A.java", svc.lastPath)
	assert.Equal(t, models.AIKindRefactor, svc.lastKind)

	var out analyzeResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(resp.Result)), &out))
	assert.Equal(t, "A.java", out.File)
	assert.Equal(t, "Refactor", out.Kind)
	assert.Equal(t, "1. extract method", out.AIText)
	assert.True(t, out.Persisted)
	assert.Equal(t, int64(12), out.ReportID)
	assert.Equal(t, 1, out.Metrics.FunctionCount)
	assert.Empty(t, out.Note)
}

func TestAnalyzeFileTool_DefaultsToExplain(t *testing.T) {
	svc := &mockAnalysisService{result: &services.AnalysisResult{
		Metrics:    &models.SourceMetrics{FileName: "A.java"},
		Kind:       models.AIKindExplain,
		AIText:     "1. ok",
		PersistErr: apperrors.ErrUnavailable,
	}}

	resp := callTool(t, svc, "analyze_file", map[string]any{"path": "A.java"})
	require.Nil(t, resp.Error)
	assert.Equal(t, models.AIKindExplain, svc.lastKind)

	var out analyzeResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(resp.Result)), &out))
	assert.False(t, out.Persisted)
	assert.Contains(t, out.Note, "not persisted")
}

func TestAnalyzeFileTool_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		svc := &mockAnalysisService{}
		resp := callTool(t, svc, "analyze_file", map[string]any{"path": "  "})
		assert.Equal(t, "invalid_parameters", decodeErrorResult(t, resp.Result).Code)
		assert.Empty(t, svc.lastPath)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc := &mockAnalysisService{}
		resp := callTool(t, svc, "analyze_file", map[string]any{"path": "A.java", "kind": "summarize"})
		assert.Equal(t, "invalid_parameters", decodeErrorResult(t, resp.Result).Code)
		assert.Empty(t, svc.lastPath)
	})

	t.Run("extraction failure", func(t *testing.T) {
		svc := &mockAnalysisService{err: fmt.Errorf("%w: no such file", apperrors.ErrMetricExtraction)}
		resp := callTool(t, svc, "analyze_file", map[string]any{"path": "/missing.java"})
		assert.Equal(t, "metric_extraction_failed", decodeErrorResult(t, resp.Result).Code)
	})
}
