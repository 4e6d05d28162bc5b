package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlink-ai/voxlink/internal/voice"
)

func newTestRouter(t *testing.T) (*Manager, http.Handler) {
	t.Helper()
	mgr := newTestManager(t)
	h := NewHandler(mgr)

	r := chi.NewRouter()
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Post("/text", h.SubmitText)
			r.Post("/capture/toggle", h.ToggleCapture)
			r.Post("/playback-done", h.PlaybackDone)
			r.Get("/clips/{clipID}", h.GetClip)
			r.Get("/feed", h.Feed)
		})
	})
	return mgr, r
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestCreateSessionEndpoint(t *testing.T) {
	mgr, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created sessionCreatedResponse
	decodeData(t, rec.Body.Bytes(), &created)
	assert.Equal(t, voice.StateIdle, created.Snapshot.State)
	assert.NotNil(t, mgr.Get(created.SessionID))
	mgr.Delete(created.SessionID)
}

func TestGetSessionSnapshot(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/"+s.ID.String()+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap voice.Snapshot
	decodeData(t, rec.Body.Bytes(), &snap)
	assert.Equal(t, s.ID, snap.SessionID)
	assert.Equal(t, voice.StateIdle, snap.State)
}

func TestSessionNotFound(t *testing.T) {
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/0a141c1e-0000-4000-8000-000000000000/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/not-a-uuid/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTextEndpoint(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	body := strings.NewReader(`{"text":"hello agent"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/"+s.ID.String()+"/text", body))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		snap := s.Engine.Snapshot()
		return snap.State == voice.StateIdle && len(snap.Transcript) == 2
	}, 2*time.Second, 5*time.Millisecond)

	snap := s.Engine.Snapshot()
	assert.Equal(t, "hello agent", snap.Transcript[0].Text)
	assert.Equal(t, "noted: hello agent", snap.Transcript[1].Text)
}

func TestSubmitTextValidation(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/"+s.ID.String()+"/text", strings.NewReader(`{"text":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/"+s.ID.String()+"/text", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleWithoutRecognizerEndpoint(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/"+s.ID.String()+"/capture/toggle", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/sessions/"+s.ID.String()+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, mgr.Get(s.ID))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/sessions/"+s.ID.String()+"/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClipNotFound(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/"+s.ID.String()+"/clips/0a141c1e-0000-4000-8000-000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedDeliversSnapshots(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + s.ID.String() + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Initial snapshot arrives without any input.
	var snap voice.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, voice.StateIdle, snap.State)

	require.NoError(t, conn.WriteJSON(feedCommand{Type: "submit_text", Text: "hi from the feed"}))

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "turn never completed over the feed")
		conn.SetReadDeadline(deadline)
		require.NoError(t, conn.ReadJSON(&snap))
		if snap.State == voice.StateIdle && len(snap.Transcript) == 2 {
			break
		}
	}
	assert.Equal(t, "noted: hi from the feed", snap.Transcript[1].Text)
}

func TestFeedSurvivesCommandBurstDuringTurn(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + s.ID.String() + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Drain everything the writer sends so error echoes interleave
	// with snapshot pushes while commands keep arriving.
	type feedMsg struct {
		Type       string            `json:"type"`
		State      voice.State       `json:"state"`
		Transcript []voice.Utterance `json:"transcript"`
	}
	sawError := make(chan struct{}, 1)
	turnDone := make(chan struct{}, 1)
	go func() {
		for {
			var msg feedMsg
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == "error" {
				select {
				case sawError <- struct{}{}:
				default:
				}
			}
			if msg.State == voice.StateIdle && len(msg.Transcript) == 2 {
				select {
				case turnDone <- struct{}{}:
				default:
				}
			}
		}
	}()

	require.NoError(t, conn.WriteJSON(feedCommand{Type: "submit_text", Text: "start a turn"}))
	for i := 0; i < 50; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{{")))
	}

	select {
	case <-sawError:
	case <-time.After(3 * time.Second):
		t.Fatal("no error echo delivered")
	}
	select {
	case <-turnDone:
	case <-time.After(3 * time.Second):
		t.Fatal("turn never completed while commands were arriving")
	}
}

func TestFeedRejectsMalformedCommand(t *testing.T) {
	mgr, router := newTestRouter(t)
	s := mgr.Create()
	t.Cleanup(func() { mgr.Delete(s.ID) })

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + s.ID.String() + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var snap voice.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{{")))

	var msg struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "malformed command", msg.Error)
}
