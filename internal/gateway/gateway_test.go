package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/internal/config"
	"github.com/voxlink-ai/voxlink/internal/signal"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(context.Context, Request) (string, error) {
	return s.text, s.err
}

type stubSynthesizer struct {
	audio []byte
	err   error
}

func (s *stubSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return s.audio, s.err
}

func testExtractor() signal.Extractor {
	return signal.NewHeuristicWithRand(rand.New(rand.NewSource(7)))
}

func TestRespond_Success(t *testing.T) {
	g := New(
		&stubGenerator{text: "Your AI startup network looks great"},
		nil, nil,
		&stubSynthesizer{audio: []byte("mp3-bytes")},
		testExtractor(),
	)

	resp := g.Respond(context.Background(), Request{Text: "hello"})

	assert.False(t, resp.Fallback)
	assert.Equal(t, "Your AI startup network looks great", resp.Text)
	assert.Equal(t, []byte("mp3-bytes"), resp.Audio)
	// Response-side extraction runs over the agent text.
	assert.Equal(t, signal.SentimentPositive, resp.Sentiment)
	assert.Len(t, resp.Synergies, 2)
	assert.Contains(t, resp.Entities, "AI")
}

func TestRespond_GenerationFailureYieldsFallback(t *testing.T) {
	g := New(
		&stubGenerator{err: &ChatServiceError{StatusCode: 500}},
		nil, nil,
		&stubSynthesizer{audio: []byte("never used")},
		testExtractor(),
	)

	resp := g.Respond(context.Background(), Request{Text: "hello"})

	assert.True(t, resp.Fallback)
	assert.Equal(t, fallbackText, resp.Text)
	assert.Equal(t, float64(95), resp.Confidence)
	assert.Empty(t, resp.Entities)
	assert.Empty(t, resp.Topics)
	assert.Empty(t, resp.Synergies)
	assert.Equal(t, signal.SentimentNeutral, resp.Sentiment)
	assert.Nil(t, resp.Audio, "fallback turns never synthesize audio")
}

func TestRespond_SynthesisFailureIsSoft(t *testing.T) {
	g := New(
		&stubGenerator{text: "hello back"},
		nil, nil,
		&stubSynthesizer{err: errors.New("tts down")},
		testExtractor(),
	)

	resp := g.Respond(context.Background(), Request{Text: "hello"})

	assert.False(t, resp.Fallback)
	assert.Equal(t, "hello back", resp.Text)
	assert.Nil(t, resp.Audio)
}

func TestRespond_NoSynthesizerIsTextOnly(t *testing.T) {
	g := New(&stubGenerator{text: "hello back"}, nil, nil, nil, testExtractor())
	resp := g.Respond(context.Background(), Request{Text: "hello"})
	assert.Nil(t, resp.Audio)
	assert.False(t, resp.Fallback)
}

func TestRespond_CannedWhenNothingConfigured(t *testing.T) {
	g := New(nil, nil, nil, nil, testExtractor())

	first := g.Respond(context.Background(), Request{Text: "hi"})
	second := g.Respond(context.Background(), Request{Text: "hi"})

	assert.False(t, first.Fallback)
	assert.False(t, second.Fallback)
	assert.NotEmpty(t, first.Text)
	assert.NotEqual(t, first.Text, second.Text, "canned replies rotate")
}

func TestRespond_UnreachableProbeFallsBackToCanned(t *testing.T) {
	probe := NewProbe(config.ProbeConfig{
		Endpoint: "http://127.0.0.1:1", // nothing listens here
		Timeout:  100 * time.Millisecond,
	})
	local := &stubGenerator{text: "local says hi"}

	g := New(nil, local, probe, nil, testExtractor())
	resp := g.Respond(context.Background(), Request{Text: "hi"})

	assert.False(t, resp.Fallback)
	assert.NotEqual(t, "local says hi", resp.Text)
	assert.NotEmpty(t, resp.Text)
}

func TestRespond_ReachableProbeUsesLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	probe := NewProbe(config.ProbeConfig{Endpoint: srv.URL, Timeout: time.Second})
	g := New(nil, &stubGenerator{text: "local says hi"}, probe, nil, testExtractor())

	resp := g.Respond(context.Background(), Request{Text: "hi"})
	assert.Equal(t, "local says hi", resp.Text)
}

func TestChatClient_PostsContextAndDecodesResponse(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(chatResponse{Response: "agent reply"})
	}))
	t.Cleanup(srv.Close)

	c := NewChatClient(config.ChatConfig{Endpoint: srv.URL, APIKey: "sk-test", Timeout: time.Second})
	text, err := c.Generate(context.Background(), Request{
		Text:     "hello",
		Entities: []string{"Google"},
		Topics:   []string{"technology"},
		Context:  []string{"earlier message"},
	})

	require.NoError(t, err)
	assert.Equal(t, "agent reply", text)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, []string{"Google"}, got.Entities)
	assert.Equal(t, []string{"earlier message"}, got.Context)
}

func TestChatClient_NonSuccessStatusIsChatServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewChatClient(config.ChatConfig{Endpoint: srv.URL, Timeout: time.Second})
	_, err := c.Generate(context.Background(), Request{Text: "hello"})

	var svcErr *ChatServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
}

func TestChatClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewChatClient(config.ChatConfig{Endpoint: srv.URL, Timeout: time.Second})
	for i := 0; i < 10; i++ {
		_, err := c.Generate(context.Background(), Request{Text: "hello"})
		require.Error(t, err)
	}

	assert.Equal(t, 5, calls, "breaker should stop calling the endpoint after 5 consecutive failures")
}

func TestSynthesisClient_DisabledWithoutCredential(t *testing.T) {
	assert.Nil(t, NewSynthesisClient(config.SynthesisConfig{Endpoint: "https://tts.example.com"}))
	assert.Nil(t, NewSynthesisClient(config.SynthesisConfig{APIKey: "sk-test"}))
}

func TestSynthesisClient_ReturnsAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nova", req.VoiceID)
		w.Write([]byte("audio-bytes"))
	}))
	t.Cleanup(srv.Close)

	c := NewSynthesisClient(config.SynthesisConfig{
		Endpoint: srv.URL, APIKey: "sk-test", VoiceID: "nova", Timeout: time.Second,
	})
	audio, err := c.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), audio)
}

func TestSynthesisClient_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := NewSynthesisClient(config.SynthesisConfig{
		Endpoint: srv.URL, APIKey: "sk-test", Timeout: time.Second,
	})
	_, err := c.Synthesize(context.Background(), "hello")
	assert.Error(t, err)
}
