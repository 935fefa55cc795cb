package llm

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxExplainPoints caps the number of lines kept from an Explain reply.
const MaxExplainPoints = 5

var (
	leadingBulletPattern = regexp.MustCompile(`(?m)^\s*[•*+-]\s*`)
	lineBreakPattern     = regexp.MustCompile(`\r?\n`)
	numberingPattern     = regexp.MustCompile(`^\s*\d+\s*[).]?\s*`)

	markupReplacer = strings.NewReplacer("```", "", "`", "")
)

// SanitizeExplain turns a model's Explain reply into at most five plain
// numbered lines ("1. ..."), stripping markdown, bullets and meta lines.
// Applying it to its own output returns the same text.
func SanitizeExplain(raw string) string {
	cleaned := markupReplacer.Replace(raw)
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	cleaned = strings.ReplaceAll(cleaned, "*", "")
	// Underscores go last: with no asterisks left, stripping "__" cannot
	// join two runs into a new pair.
	cleaned = strings.ReplaceAll(cleaned, "__", "")
	cleaned = leadingBulletPattern.ReplaceAllString(cleaned, "")

	points := make([]string, 0, MaxExplainPoints)
	for _, line := range lineBreakPattern.Split(cleaned, -1) {
		line = strings.TrimSpace(line)
		if line == "" || isMetaLine(line) {
			continue
		}
		line = strings.TrimSpace(numberingPattern.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) == MaxExplainPoints {
			break
		}
	}

	if len(points) == 0 {
		return strings.TrimSpace(cleaned)
	}

	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(p)
	}
	return strings.TrimRight(sb.String(), " \t\r\n")
}

func isMetaLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "note:") || strings.HasPrefix(lower, "explain")
}
