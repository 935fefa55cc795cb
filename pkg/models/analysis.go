package models

import (
	"fmt"
	"strings"
)

// AIKind selects which AI action runs and which report column receives its text.
type AIKind string

const (
	AIKindExplain  AIKind = "Explain"
	AIKindDebug    AIKind = "Debug"
	AIKindRefactor AIKind = "Refactor"
)

// AllAIKinds lists the kinds in the order used to derive a report's kind.
var AllAIKinds = []AIKind{AIKindExplain, AIKindDebug, AIKindRefactor}

// Valid reports whether k is one of the three known kinds.
func (k AIKind) Valid() bool {
	switch k {
	case AIKindExplain, AIKindDebug, AIKindRefactor:
		return true
	}
	return false
}

// Column returns the analysis_reports column that stores text for k.
func (k AIKind) Column() (string, error) {
	switch k {
	case AIKindExplain:
		return "ai_explanation", nil
	case AIKindDebug:
		return "ai_debug_suggestions", nil
	case AIKindRefactor:
		return "ai_refactoring_suggestions", nil
	}
	return "", fmt.Errorf("unknown AI kind %q", string(k))
}

func (k AIKind) String() string {
	return string(k)
}

// ParseAIKind accepts a kind name in any letter case.
func ParseAIKind(s string) (AIKind, error) {
	for _, k := range AllAIKinds {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown AI kind %q (want explain, debug or refactor)", s)
}

// SourceMetrics is what the extractor produces for one file.
type SourceMetrics struct {
	FileName      string `json:"file_name"`
	FilePath      string `json:"file_path"`
	Language      string `json:"language,omitempty"` // Detected language, empty if unknown
	LineCount     int    `json:"line_count"`
	TypeCount     int    `json:"type_count"`
	FunctionCount int    `json:"function_count"`
	VariableCount int    `json:"variable_count"`
	SourceText    string `json:"-"`
}

// ReportInput returns the subset of the metrics that gets persisted.
func (m *SourceMetrics) ReportInput() ReportInput {
	return ReportInput{
		FileName:      m.FileName,
		FilePath:      m.FilePath,
		LineCount:     m.LineCount,
		TypeCount:     m.TypeCount,
		FunctionCount: m.FunctionCount,
		VariableCount: m.VariableCount,
	}
}
