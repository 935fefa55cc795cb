package models

import (
	"fmt"
	"time"
)

// ReportInput is the caller-supplied part of a report row.
// id and analysis_date are assigned by the store.
type ReportInput struct {
	FileName      string
	FilePath      string
	LineCount     int
	TypeCount     int
	FunctionCount int
	VariableCount int
}

// Validate checks the row invariants that do not depend on the backend.
func (in *ReportInput) Validate() error {
	if in.FileName == "" {
		return fmt.Errorf("file name is required")
	}
	if in.LineCount < 0 || in.TypeCount < 0 || in.FunctionCount < 0 || in.VariableCount < 0 {
		return fmt.Errorf("metric counts must be non-negative")
	}
	return nil
}

// Report is one analysis_reports row.
// The type and function counts live in the legacy class_count and method_count columns.
type Report struct {
	ID                       int64     `db:"id" json:"id" yaml:"id"`
	FileName                 string    `db:"file_name" json:"file_name" yaml:"file_name"`
	FilePath                 string    `db:"file_path" json:"file_path" yaml:"file_path"`
	LineCount                int       `db:"line_count" json:"line_count" yaml:"line_count"`
	TypeCount                int       `db:"class_count" json:"type_count" yaml:"type_count"`
	FunctionCount            int       `db:"method_count" json:"function_count" yaml:"function_count"`
	VariableCount            int       `db:"variable_count" json:"variable_count" yaml:"variable_count"`
	AnalysisDate             time.Time `db:"analysis_date" json:"analysis_date" yaml:"analysis_date"`
	AIExplanation            *string   `db:"ai_explanation" json:"ai_explanation" yaml:"ai_explanation"`
	AIDebugSuggestions       *string   `db:"ai_debug_suggestions" json:"ai_debug_suggestions" yaml:"ai_debug_suggestions"`
	AIRefactoringSuggestions *string   `db:"ai_refactoring_suggestions" json:"ai_refactoring_suggestions" yaml:"ai_refactoring_suggestions"`
}

// Kind derives the report's kind from the first populated AI column,
// checked in Explain, Debug, Refactor order. Returns "" when none is set.
func (r *Report) Kind() AIKind {
	switch {
	case r.AIExplanation != nil:
		return AIKindExplain
	case r.AIDebugSuggestions != nil:
		return AIKindDebug
	case r.AIRefactoringSuggestions != nil:
		return AIKindRefactor
	}
	return ""
}

// AIText returns the text of the column selected by Kind.
func (r *Report) AIText() string {
	switch r.Kind() {
	case AIKindExplain:
		return *r.AIExplanation
	case AIKindDebug:
		return *r.AIDebugSuggestions
	case AIKindRefactor:
		return *r.AIRefactoringSuggestions
	}
	return ""
}

// Summary drops the AI text.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:            r.ID,
		FileName:      r.FileName,
		LineCount:     r.LineCount,
		TypeCount:     r.TypeCount,
		FunctionCount: r.FunctionCount,
		VariableCount: r.VariableCount,
		Kind:          r.Kind(),
		AnalysisDate:  r.AnalysisDate,
	}
}

// ReportSummary is a list entry. It never carries AI text.
type ReportSummary struct {
	ID            int64     `json:"id" yaml:"id"`
	FileName      string    `json:"file_name" yaml:"file_name"`
	LineCount     int       `json:"line_count" yaml:"line_count"`
	TypeCount     int       `json:"type_count" yaml:"type_count"`
	FunctionCount int       `json:"function_count" yaml:"function_count"`
	VariableCount int       `json:"variable_count" yaml:"variable_count"`
	Kind          AIKind    `json:"kind" yaml:"kind"`
	AnalysisDate  time.Time `json:"analysis_date" yaml:"analysis_date"`
}

// KindLabel is Kind with "Unknown" standing in for rows that have no AI text.
func (s *ReportSummary) KindLabel() string {
	if s.Kind == "" {
		return "Unknown"
	}
	return string(s.Kind)
}
