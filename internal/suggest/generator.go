// Package suggest derives next-query suggestions from the agent's
// latest response text.
package suggest

import "strings"

// MaxSuggestions caps the list handed to the UI.
const MaxSuggestions = 4

var generalSuggestions = []string{
	"Who should I reach out to this week?",
	"Summarize my recent conversations",
	"What trends are you seeing in my network?",
}

var keywordSuggestions = []struct {
	keyword     string
	suggestions []string
}{
	{"network", []string{
		"Show me my strongest connections",
		"Who in my network works in AI?",
	}},
	{"synergy", []string{
		"Which synergy has the highest value?",
		"How do I act on this synergy?",
	}},
	{"relationship", []string{
		"How can I deepen this relationship?",
		"Which relationships need attention?",
	}},
}

// ForResponse maps the agent's response text to a suggestion list:
// each matched keyword contributes its pair, the general suggestions
// are always appended, and the result is truncated to MaxSuggestions.
func ForResponse(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	for _, ks := range keywordSuggestions {
		if strings.Contains(lower, ks.keyword) {
			out = append(out, ks.suggestions...)
		}
	}
	out = append(out, generalSuggestions...)

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
