package signal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Heuristic {
	return NewHeuristicWithRand(rand.New(rand.NewSource(42)))
}

func TestEntities_PersonNames(t *testing.T) {
	e := newTestExtractor()
	entities := e.Entities("I met Sarah Chen and David Park at the conference")
	assert.Contains(t, entities, "Sarah Chen")
	assert.Contains(t, entities, "David Park")
}

func TestEntities_CompanyAndTech(t *testing.T) {
	e := newTestExtractor()
	entities := e.Entities("she works at Google on machine learning infrastructure")
	assert.Contains(t, entities, "Google")
	assert.Contains(t, entities, "machine learning")
}

func TestEntities_Deduplicated(t *testing.T) {
	e := newTestExtractor()
	entities := e.Entities("Google google GOOGLE")
	count := 0
	for _, ent := range entities {
		if ent == "Google" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestEntities_NoMatches(t *testing.T) {
	e := newTestExtractor()
	assert.Empty(t, e.Entities("nothing interesting here"))
}

func TestTopics_MultipleMatches(t *testing.T) {
	e := newTestExtractor()
	topics := e.Topics("Let's collaborate on this networking opportunity")
	assert.Contains(t, topics, "networking")
	assert.Contains(t, topics, "collaboration")
	assert.Contains(t, topics, "opportunities")
}

func TestTopics_DeterministicOrder(t *testing.T) {
	e := newTestExtractor()
	first := e.Topics("business tech partner growth meet")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Topics("business tech partner growth meet"))
	}
}

func TestSynergies_BothTriggers(t *testing.T) {
	e := newTestExtractor()
	syns := e.Synergies("I'm an entrepreneur building an AI startup")
	require.Len(t, syns, 2)

	startup, ai := syns[0], syns[1]
	assert.Equal(t, "Startup collaboration", startup.Title)
	assert.GreaterOrEqual(t, startup.EstimatedValue, 250000.0)
	assert.Less(t, startup.EstimatedValue, 750000.0)
	assert.GreaterOrEqual(t, startup.Confidence, 0.8)
	assert.LessOrEqual(t, startup.Confidence, 1.0)

	assert.Equal(t, "AI venture alignment", ai.Title)
	assert.GreaterOrEqual(t, ai.EstimatedValue, 180000.0)
	assert.Less(t, ai.EstimatedValue, 500000.0)
	assert.GreaterOrEqual(t, ai.Confidence, 0.7)
	assert.LessOrEqual(t, ai.Confidence, 1.0)

	for _, s := range syns {
		assert.NotEqual(t, s.ID.String(), "00000000-0000-0000-0000-000000000000")
		assert.Len(t, s.RelatedConnections, 2)
		assert.NotEqual(t, s.RelatedConnections[0], s.RelatedConnections[1])
	}
}

func TestSynergies_SingleTrigger(t *testing.T) {
	e := newTestExtractor()
	syns := e.Synergies("my startup just raised a round")
	require.Len(t, syns, 1)
	assert.Equal(t, "Startup collaboration", syns[0].Title)
}

func TestSynergies_NoTrigger(t *testing.T) {
	e := newTestExtractor()
	assert.Empty(t, e.Synergies("the weather is nice today"))
}

func TestSentiment_Positive(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, SentimentPositive, e.Sentiment("This is a great and amazing opportunity"))
}

func TestSentiment_Negative(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, SentimentNegative, e.Sentiment("terrible and disappointed"))
}

func TestSentiment_Neutral(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, SentimentNeutral, e.Sentiment("the meeting is at 3pm"))
}

func TestSentiment_TieIsNeutral(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, SentimentNeutral, e.Sentiment("a good deal with a bad catch"))
}

func TestAnnotate_BundlesAllFields(t *testing.T) {
	e := newTestExtractor()
	ann := Annotate(e, "I'm excited about this AI startup opportunity")
	assert.Equal(t, SentimentPositive, ann.Sentiment)
	assert.Contains(t, ann.Topics, "opportunities")
	assert.Len(t, ann.Synergies, 2)
	assert.Contains(t, ann.Entities, "AI")
}
