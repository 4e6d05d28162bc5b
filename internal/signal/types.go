package signal

import "github.com/google/uuid"

// Sentiment classifies the overall tone of an utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SynergyOpportunity is a heuristically-detected, monetarily-valued
// connection opportunity derived from utterance text.
type SynergyOpportunity struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	EstimatedValue     float64   `json:"estimated_value"`
	Confidence         float64   `json:"confidence"`
	RelatedConnections []string  `json:"related_connections"`
}

// Annotation bundles everything the extractor derives from one utterance.
type Annotation struct {
	Entities  []string             `json:"entities"`
	Topics    []string             `json:"topics"`
	Synergies []SynergyOpportunity `json:"synergies"`
	Sentiment Sentiment            `json:"sentiment"`
}

// Extractor derives lightweight semantic signal from utterance text.
// The production implementation is keyword-driven; the interface exists
// so a model-backed extractor can be swapped in without touching the
// interaction engine.
type Extractor interface {
	Entities(text string) []string
	Topics(text string) []string
	Synergies(text string) []SynergyOpportunity
	Sentiment(text string) Sentiment
}

// Annotate runs all four extractions over one utterance.
func Annotate(e Extractor, text string) Annotation {
	return Annotation{
		Entities:  e.Entities(text),
		Topics:    e.Topics(text),
		Synergies: e.Synergies(text),
		Sentiment: e.Sentiment(text),
	}
}
