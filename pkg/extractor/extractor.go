// Package extractor computes shallow, regex-based metrics for one source file.
// The counts are heuristics tuned for C-family languages (Java in particular)
// and are not a parse.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/src-d/enry/v2"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
)

// MaxFileBytes is the largest file Extract will read.
const MaxFileBytes = 8 << 20

var (
	typePattern = regexp.MustCompile(`\b(?:class|interface|enum|record)\s+[A-Za-z_]\w*`)

	functionPattern = regexp.MustCompile(
		`\b(?:(?:public|private|protected|static|final|native|synchronized|abstract|transient|default)\s+)*` +
			`([\w<>\[\]]+)\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w.,\s]+)?\{`)

	variablePattern = regexp.MustCompile(
		`\b(?:byte|short|int|long|float|double|boolean|char|var|[A-Z][A-Za-z0-9_]*(?:<[^;()]*>)?)(?:\[\])*` +
			`\s+[a-zA-Z_][a-zA-Z0-9_]*(?:\s*=\s*[^,;]+)?(?:,\s*[a-zA-Z_][a-zA-Z0-9_]*(?:\s*=\s*[^,;]+)?)*\s*;`)
)

// notFunctions are words the function pattern would otherwise accept as a
// return type or a name ("else if (x) {", "new Runnable() {"). A modifier in
// the return type position means a constructor.
var notFunctions = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "synchronized": true,
	"return": true, "new": true, "else": true, "throw": true, "do": true, "try": true,
	"public": true, "private": true, "protected": true, "static": true, "final": true,
	"abstract": true, "native": true, "transient": true, "default": true,
}

// Extractor reads files from disk and computes SourceMetrics.
type Extractor struct {
	logger   *zap.Logger
	maxBytes int64
}

// New creates an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("extractor"), maxBytes: MaxFileBytes}
}

// Extract reads path and computes its metrics. Every failure wraps
// apperrors.ErrMetricExtraction.
func (e *Extractor) Extract(ctx context.Context, path string) (*models.SourceMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetricExtraction, err)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: no file path given", apperrors.ErrMetricExtraction)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetricExtraction, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", apperrors.ErrMetricExtraction, path)
	}
	if info.Size() > e.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", apperrors.ErrMetricExtraction, path, e.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMetricExtraction, err)
	}
	if enry.IsBinary(data) {
		return nil, fmt.Errorf("%w: %s is not a text file", apperrors.ErrMetricExtraction, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	metrics := Analyze(filepath.Base(path), absPath, data)

	e.logger.Debug("Extracted metrics",
		zap.String("file", metrics.FileName),
		zap.String("language", metrics.Language),
		zap.Int("lines", metrics.LineCount),
		zap.Int("types", metrics.TypeCount),
		zap.Int("functions", metrics.FunctionCount),
		zap.Int("variables", metrics.VariableCount))

	return metrics, nil
}

// Analyze computes metrics for data already in memory.
func Analyze(name, path string, data []byte) *models.SourceMetrics {
	text := string(data)
	return &models.SourceMetrics{
		FileName:      name,
		FilePath:      path,
		Language:      DetectLanguage(name, data),
		LineCount:     CountLines(text),
		TypeCount:     CountTypes(text),
		FunctionCount: CountFunctions(text),
		VariableCount: CountVariables(text),
		SourceText:    text,
	}
}

// DetectLanguage names the language of a file from its name and content.
// Returns "" when enry cannot tell.
func DetectLanguage(name string, data []byte) string {
	return enry.GetLanguage(filepath.Base(name), data)
}

// CountLines counts lines the way a line reader does: a trailing newline
// does not start another line and the empty text has zero lines.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// CountTypes counts class, interface, enum and record declarations.
func CountTypes(text string) int {
	count := 0
	for _, loc := range typePattern.FindAllStringIndex(text, -1) {
		// Foo.class literals are not declarations
		if loc[0] > 0 && text[loc[0]-1] == '.' {
			continue
		}
		count++
	}
	return count
}

// CountFunctions counts method-like declarations with a body.
func CountFunctions(text string) int {
	count := 0
	for _, m := range functionPattern.FindAllStringSubmatch(text, -1) {
		if notFunctions[m[1]] || notFunctions[m[2]] {
			continue
		}
		count++
	}
	return count
}

// CountVariables counts declared variables. "int a, b = 2;" counts as two.
func CountVariables(text string) int {
	count := 0
	for _, loc := range variablePattern.FindAllStringIndex(text, -1) {
		// field access such as obj.Type name; is not a declaration
		if loc[0] > 0 && text[loc[0]-1] == '.' {
			continue
		}
		count += declaredNames(text[loc[0]:loc[1]])
	}
	return count
}

// declaredNames counts top-level commas of a declaration, ignoring those
// inside generic brackets or parentheses.
func declaredNames(decl string) int {
	depth := 0
	n := 1
	for _, r := range decl {
		switch r {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}
