package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxlink-ai/voxlink/internal/metrics"
	"github.com/voxlink-ai/voxlink/internal/voice"
)

const (
	feedWriteTimeout = 5 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = 30 * time.Second

	// audioRefreshInterval paces snapshot pushes between state
	// transitions so the level and waveform projections animate.
	audioRefreshInterval = 100 * time.Millisecond
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	// Origin enforcement happens in the CORS layer; the feed carries
	// no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedCommand is a client control message on the feed. Binary frames
// are raw PCM audio; text frames carry one of these.
type feedCommand struct {
	Type  string `json:"type"` // "submit_text", "toggle_capture", "playback_done"
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type feedError struct {
	Type  string `json:"type"` // always "error"
	Error string `json:"error"`
}

// Feed upgrades to a WebSocket carrying the live session: PCM16 audio
// frames and JSON commands up, snapshot JSON down.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading feed connection", "session", s.ID, "error", err)
		return
	}

	metrics.FeedClientsConnected.Inc()
	defer metrics.FeedClientsConnected.Dec()
	defer conn.Close()

	sub := s.Engine.Subscribe()
	defer s.Engine.Unsubscribe(sub)

	// Command errors are echoed through the writer goroutine; the
	// connection has exactly one writer.
	errCh := make(chan string, 8)
	done := make(chan struct{})
	go h.feedWriter(conn, s, sub, errCh, done)

	conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("feed read ended", "session", s.ID, "error", err)
			}
			close(done)
			return
		}
		s.Touch()

		switch msgType {
		case websocket.BinaryMessage:
			s.Engine.PushAudio(data)
		case websocket.TextMessage:
			h.handleCommand(s, data, errCh)
		}
	}
}

func (h *Handler) handleCommand(s *Session, data []byte, errCh chan<- string) {
	var cmd feedCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		sendFeedError(errCh, "malformed command")
		return
	}

	var err error
	switch cmd.Type {
	case "submit_text":
		err = s.Engine.SubmitText(cmd.Text)
	case "toggle_capture":
		err = s.Engine.ToggleVoiceCapture()
	case "playback_done":
		var playErr error
		if cmd.Error != "" {
			playErr = errors.New(cmd.Error)
		}
		s.Engine.NotifyPlaybackDone(playErr)
	default:
		err = errors.New("unknown command type")
	}
	if err != nil {
		sendFeedError(errCh, err.Error())
	}
}

// sendFeedError hands an error echo to the writer goroutine. A client
// flooding bad commands loses echoes, not the connection.
func sendFeedError(errCh chan<- string, msg string) {
	select {
	case errCh <- msg:
	default:
	}
}

// feedWriter owns all writes on the connection: snapshots on engine
// transitions, paced refreshes for audio animation, command error
// echoes, and pings.
func (h *Handler) feedWriter(conn *websocket.Conn, s *Session, sub chan voice.Snapshot, errCh <-chan string, done <-chan struct{}) {
	refresh := time.NewTicker(audioRefreshInterval)
	defer refresh.Stop()
	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	writeSnapshot := func(snap any) bool {
		conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteJSON(snap); err != nil {
			return false
		}
		return true
	}

	// Initial snapshot so the client renders without waiting for a
	// transition.
	if !writeSnapshot(s.Engine.Snapshot()) {
		return
	}

	for {
		select {
		case <-done:
			return
		case snap := <-sub:
			if !writeSnapshot(snap) {
				return
			}
		case msg := <-errCh:
			if !writeSnapshot(feedError{Type: "error", Error: msg}) {
				return
			}
		case <-refresh.C:
			// Audio projections change per frame, not per transition.
			snap := s.Engine.Snapshot()
			if snap.State == voice.StateListening || snap.State == voice.StateSpeaking {
				if !writeSnapshot(snap) {
					return
				}
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
