package llm

import "strings"

// DefaultGeminiModels is tried in order until one is visible to the API key.
// Broadly available small models come first, then pro, then the newest
// generation, with the legacy model last.
var DefaultGeminiModels = []string{
	"gemini-1.5-flash-8b",
	"gemini-1.5-flash-8b-latest",
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro",
	"gemini-1.5-pro-latest",
	"gemini-2.5-flash",
	"gemini-2.5-flash-latest",
	"gemini-2.5-pro",
	"gemini-2.5-pro-latest",
	"gemini-1.0-pro",
	"gemini-1.0-pro-latest",
}

// CandidateModels puts override (if any) in front of defaults.
// A default equal to the override is not tried twice.
func CandidateModels(override string, defaults []string) []string {
	override = strings.TrimSpace(override)
	out := make([]string, 0, len(defaults)+1)
	if override != "" {
		out = append(out, override)
	}
	for _, m := range defaults {
		if m != override {
			out = append(out, m)
		}
	}
	return out
}
