package signal

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var personNameRe = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)

// Heuristic is the keyword-driven Extractor. All methods are pure over
// the vocab tables except the randomized numeric fields inside synergy
// records, which come from the injected rand source.
type Heuristic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewHeuristic creates an extractor with a time-seeded rand source.
func NewHeuristic() *Heuristic {
	return NewHeuristicWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewHeuristicWithRand creates an extractor with the given rand source.
// Tests pass a fixed seed to make synergy values repeatable.
func NewHeuristicWithRand(rnd *rand.Rand) *Heuristic {
	return &Heuristic{rnd: rnd}
}

// Entities returns candidate person names (capitalized two-word
// sequences) plus company and technology vocabulary matches, de-duplicated
// in first-seen order.
func (h *Heuristic) Entities(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	for _, name := range personNameRe.FindAllString(text, -1) {
		add(name)
	}
	for _, company := range companyVocab {
		if strings.Contains(lower, strings.ToLower(company)) {
			add(company)
		}
	}
	for _, tech := range technologyVocab {
		if strings.Contains(lower, strings.ToLower(tech)) {
			add(tech)
		}
	}
	return out
}

// Topics returns every topic whose keyword list has at least one
// substring match in the lowercased text.
func (h *Heuristic) Topics(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				out = append(out, topic)
				break
			}
		}
	}
	return out
}

// Synergies returns zero, one, or two opportunity records depending on
// which trigger patterns the text matches. Value and confidence are
// randomized within per-trigger bands; callers must not assume those
// two fields repeat across calls.
func (h *Heuristic) Synergies(text string) []SynergyOpportunity {
	lower := strings.ToLower(text)

	var out []SynergyOpportunity
	if strings.Contains(lower, "startup") || strings.Contains(lower, "entrepreneur") {
		out = append(out, h.newSynergy(startupSynergyTitle,
			startupValueMin, startupValueMax, startupConfidenceMin, startupConfidenceMax))
	}
	if strings.Contains(lower, "ai") || strings.Contains(lower, "machine learning") {
		out = append(out, h.newSynergy(aiSynergyTitle,
			aiValueMin, aiValueMax, aiConfidenceMin, aiConfidenceMax))
	}
	return out
}

func (h *Heuristic) newSynergy(title string, valMin, valMax, confMin, confMax float64) SynergyOpportunity {
	h.mu.Lock()
	value := valMin + h.rnd.Float64()*(valMax-valMin)
	confidence := confMin + h.rnd.Float64()*(confMax-confMin)
	first := h.rnd.Intn(len(relatedConnectionPool))
	second := h.rnd.Intn(len(relatedConnectionPool) - 1)
	h.mu.Unlock()

	if second >= first {
		second++
	}
	return SynergyOpportunity{
		ID:             uuid.New(),
		Title:          title,
		EstimatedValue: value,
		Confidence:     confidence,
		RelatedConnections: []string{
			relatedConnectionPool[first],
			relatedConnectionPool[second],
		},
	}
}

// Sentiment counts positive and negative keyword occurrences; the
// strictly greater count wins, an exact tie is neutral.
func (h *Heuristic) Sentiment(text string) Sentiment {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, kw := range positiveKeywords {
		positive += strings.Count(lower, kw)
	}
	for _, kw := range negativeKeywords {
		negative += strings.Count(lower, kw)
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
