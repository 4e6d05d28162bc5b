package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/internal/config"
)

var upgrader = websocket.Upgrader{}

// sttServer scripts a fake provider that answers every audio frame
// with the given events.
func sttServer(t *testing.T, events []transcriptEvent) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Wait for the first audio frame before transcribing.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		// Hold the connection until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collectResults(t *testing.T, c Capture) []Result {
	t.Helper()
	var out []Result
	timeout := time.After(2 * time.Second)
	for {
		select {
		case r, ok := <-c.Results():
			if !ok {
				return out
			}
			out = append(out, r)
		case err := <-c.Errors():
			t.Fatalf("unexpected capture error: %v", err)
		case <-timeout:
			t.Fatal("timed out waiting for results")
		}
	}
}

func TestWebSocketRecognizer_InterimThenFinal(t *testing.T) {
	srv := sttServer(t, []transcriptEvent{
		{Transcript: "hel", Confidence: 40},
		{Transcript: "hello th", Confidence: 61},
		{Transcript: "hello there", Confidence: 93, IsFinal: true},
	})

	rec := NewWebSocketRecognizer(config.RecognitionConfig{
		Endpoint: wsURL(srv), SampleRate: 16000, Language: "en-US",
	})
	capture, err := rec.Start(context.Background())
	require.NoError(t, err)
	defer capture.Stop()

	require.NoError(t, capture.PushAudio([]byte{0, 0, 0, 0}))

	results := collectResults(t, capture)
	require.Len(t, results, 3)
	assert.False(t, results[0].Final)
	assert.False(t, results[1].Final)
	assert.True(t, results[2].Final)
	assert.Equal(t, "hello there", results[2].Transcript)
	assert.Equal(t, 93.0, results[2].Confidence)
}

func TestWebSocketRecognizer_ProviderError(t *testing.T) {
	srv := sttServer(t, []transcriptEvent{
		{Error: "audio format not supported"},
	})

	rec := NewWebSocketRecognizer(config.RecognitionConfig{Endpoint: wsURL(srv)})
	capture, err := rec.Start(context.Background())
	require.NoError(t, err)
	defer capture.Stop()

	require.NoError(t, capture.PushAudio([]byte{0, 0}))

	select {
	case err := <-capture.Errors():
		assert.Contains(t, err.Error(), "audio format not supported")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for provider error")
	}
}

func TestWebSocketRecognizer_UnauthorizedIsPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	rec := NewWebSocketRecognizer(config.RecognitionConfig{Endpoint: wsURL(srv)})
	_, err := rec.Start(context.Background())
	assert.True(t, errors.Is(err, ErrPermissionDenied))
}

func TestWebSocketRecognizer_StopIsQuiet(t *testing.T) {
	srv := sttServer(t, nil)

	rec := NewWebSocketRecognizer(config.RecognitionConfig{Endpoint: wsURL(srv)})
	capture, err := rec.Start(context.Background())
	require.NoError(t, err)

	capture.Stop()
	capture.Stop() // idempotent

	select {
	case err := <-capture.Errors():
		t.Fatalf("deliberate stop should not surface an error, got: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
