package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForResponse_GeneralOnly(t *testing.T) {
	got := ForResponse("Nice to meet you!")
	assert.Equal(t, generalSuggestions, got)
}

func TestForResponse_KeywordMatch(t *testing.T) {
	got := ForResponse("Your network is growing fast")
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, "Show me my strongest connections", got[0])
	assert.Equal(t, "Who in my network works in AI?", got[1])
}

func TestForResponse_MultipleKeywordsTruncated(t *testing.T) {
	got := ForResponse("This synergy could strengthen the relationship across your network")
	assert.Len(t, got, MaxSuggestions)
	// network suggestions come first, then synergy; truncation drops the rest
	assert.Equal(t, []string{
		"Show me my strongest connections",
		"Who in my network works in AI?",
		"Which synergy has the highest value?",
		"How do I act on this synergy?",
	}, got)
}

func TestForResponse_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, ForResponse(""))
}

func TestForResponse_CaseInsensitive(t *testing.T) {
	got := ForResponse("RELATIONSHIP depth is up")
	assert.Equal(t, "How can I deepen this relationship?", got[0])
}
