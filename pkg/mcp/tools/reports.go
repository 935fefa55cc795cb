package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
)

// ReportToolDeps contains dependencies for the report and analysis tools.
type ReportToolDeps struct {
	Service services.AnalysisService
	Logger  *zap.Logger
}

// RegisterReportTools registers list_reports, get_report and analyze_file.
func RegisterReportTools(s *server.MCPServer, deps *ReportToolDeps) {
	registerListReportsTool(s, deps)
	registerGetReportTool(s, deps)
	registerAnalyzeFileTool(s, deps)
}

type listReportsResponse struct {
	Reports []models.ReportSummary `json:"reports"`
	Count   int                    `json:"count"`
}

func registerListReportsTool(s *server.MCPServer, deps *ReportToolDeps) {
	tool := mcp.NewTool(
		"list_reports",
		mcp.WithDescription("Lists stored analysis reports, newest first. AI text is not included; use get_report for that."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of reports to return (default: all)"),
			mcp.Min(1),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reports, err := deps.Service.ListReports(ctx)
		if err != nil {
			if result, ok := errorResultFor(err); ok {
				return result, nil
			}
			return nil, fmt.Errorf("list reports: %w", err)
		}

		if limit := req.GetInt("limit", 0); limit > 0 && limit < len(reports) {
			reports = reports[:limit]
		}

		return jsonResult(listReportsResponse{Reports: reports, Count: len(reports)})
	})
}

type reportResponse struct {
	*models.Report
	Kind   string `json:"kind"`
	AIText string `json:"ai_text"`
}

func registerGetReportTool(s *server.MCPServer, deps *ReportToolDeps) {
	tool := mcp.NewTool(
		"get_report",
		mcp.WithDescription("Returns one stored analysis report including its AI text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber(
			"id",
			mcp.Required(),
			mcp.Description("Report id as shown by list_reports"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		if id <= 0 {
			return NewErrorResult("invalid_parameters", "id must be a positive integer"), nil
		}

		report, err := deps.Service.Detail(ctx, int64(id))
		if err != nil {
			if result, ok := errorResultFor(err); ok {
				return result, nil
			}
			return nil, fmt.Errorf("get report %d: %w", id, err)
		}

		return jsonResult(reportResponse{Report: report, Kind: string(report.Kind()), AIText: report.AIText()})
	})
}

type analyzeResponse struct {
	File      string                `json:"file"`
	Kind      string                `json:"kind"`
	Metrics   *models.SourceMetrics `json:"metrics"`
	AIText    string                `json:"ai_text"`
	Persisted bool                  `json:"persisted"`
	ReportID  int64                 `json:"report_id,omitempty"`
	Note      string                `json:"note,omitempty"`
}

func registerAnalyzeFileTool(s *server.MCPServer, deps *ReportToolDeps) {
	tool := mcp.NewTool(
		"analyze_file",
		mcp.WithDescription("Extracts metrics from a local source file, asks the AI model for an explanation, debug report or refactoring advice, and stores the result."),
		mcp.WithString(
			"path",
			mcp.Required(),
			mcp.Description("Path of the source file on the server's filesystem"),
		),
		mcp.WithString(
			"kind",
			mcp.Description("AI action to run (default: explain)"),
			mcp.Enum("explain", "debug", "refactor"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil || strings.TrimSpace(path) == "" {
			return NewErrorResult("invalid_parameters", "path is required"), nil
		}
		kind, err := models.ParseAIKind(req.GetString("kind", "explain"))
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		res, err := deps.Service.AnalyzeKind(ctx, path, kind)
		if err != nil {
			if result, ok := errorResultFor(err); ok {
				return result, nil
			}
			return nil, fmt.Errorf("analyze %s: %w", path, err)
		}

		resp := analyzeResponse{
			File:      res.Metrics.FileName,
			Kind:      string(res.Kind),
			Metrics:   res.Metrics,
			AIText:    res.AIText,
			Persisted: res.Persisted,
			ReportID:  res.ReportID,
		}
		if res.PersistErr != nil {
			resp.Note = "not persisted: " + res.PersistErr.Error()
		}

		deps.Logger.Debug("analyze_file completed",
			zap.String("file", resp.File),
			zap.String("kind", resp.Kind),
			zap.Bool("persisted", resp.Persisted))
		return jsonResult(resp)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
