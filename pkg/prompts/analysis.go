package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
)

const (
	// MaxSourceChars is the largest source embedded whole in a prompt.
	MaxSourceChars = 16000
	// SourceEdgeChars is how much of each end survives truncation.
	SourceEdgeChars = 8000

	TruncationMarker = "\n...\n[truncated for length]\n...\n"
	TruncationNotice = "(Note: input was truncated for length)"

	// DefaultLanguage labels the code block when the extractor could not tell.
	DefaultLanguage = "java"
)

const explainPreamble = `EXPLAIN (terminal-friendly, plain text):
Provide exactly 5 short numbered points (1.-5.) about the code.
Each point should be one short sentence (max 1-2 lines).
Do NOT use Markdown, bullets (* or -), bold/italic (** or _), or code fences (` + "```" + ` or ` + "`" + `).
Avoid extra commentary; just output the 5 numbered points.

`

const debugPreamble = `DEBUG (short):
- If no errors, return: 'No errors found.'
- Otherwise list issues as: [line]: brief reason -> concise fix

`

const refactorPreamble = `REFACTOR (optimize):
1) TIME and SPACE complexity (current)
2) Is optimization possible? (yes/no) and short rationale
3) If yes: provide optimized code and new TIME/SPACE complexities

`

// Preamble returns the fixed instructions for kind.
func Preamble(kind models.AIKind) (string, error) {
	switch kind {
	case models.AIKindExplain:
		return explainPreamble, nil
	case models.AIKindDebug:
		return debugPreamble, nil
	case models.AIKindRefactor:
		return refactorPreamble, nil
	}
	return "", fmt.Errorf("no prompt for AI kind %q", string(kind))
}

// BuildAnalysisPrompt renders the preamble for kind followed by the source
// between ---CODE START (<lang>)--- and ---CODE END--- sentinels.
// Sources longer than MaxSourceChars keep only their head and tail.
func BuildAnalysisPrompt(kind models.AIKind, source, lang string) (string, error) {
	preamble, err := Preamble(kind)
	if err != nil {
		return "", err
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	body, truncated := TruncateSource(source)

	var sb strings.Builder
	sb.Grow(len(preamble) + len(body) + 96)
	sb.WriteString(preamble)
	sb.WriteString("---CODE START (")
	sb.WriteString(strings.ToLower(lang))
	sb.WriteString(")---\n")
	sb.WriteString(body)
	sb.WriteString("\n---CODE END---")
	if truncated {
		sb.WriteString("\n")
		sb.WriteString(TruncationNotice)
	}
	return sb.String(), nil
}

// TruncateSource keeps the first and last SourceEdgeChars characters of an
// oversized source around TruncationMarker. Length is counted in runes; an
// invalid UTF-8 byte counts as one and is kept as is.
func TruncateSource(source string) (string, bool) {
	n := utf8.RuneCountInString(source)
	if n <= MaxSourceChars {
		return source, false
	}
	head := source[:runeOffset(source, SourceEdgeChars)]
	tail := source[runeOffset(source, n-SourceEdgeChars):]
	return head + TruncationMarker + tail, true
}

// runeOffset returns the byte offset of the i-th rune of s.
func runeOffset(s string, i int) int {
	off := 0
	for ; i > 0 && off < len(s); i-- {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}
