package speech

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voxlink-ai/voxlink/internal/config"
)

// WebSocketRecognizer streams audio to a speech-to-text provider over a
// WebSocket and relays transcript events back as Results.
type WebSocketRecognizer struct {
	cfg    config.RecognitionConfig
	dialer *websocket.Dialer
}

// NewWebSocketRecognizer creates a recognizer for the configured provider.
func NewWebSocketRecognizer(cfg config.RecognitionConfig) *WebSocketRecognizer {
	return &WebSocketRecognizer{cfg: cfg, dialer: websocket.DefaultDialer}
}

// transcriptEvent is the provider's wire format.
type transcriptEvent struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
	Error      string  `json:"error,omitempty"`
}

// Start dials the provider and begins a capture session.
func (r *WebSocketRecognizer) Start(ctx context.Context) (Capture, error) {
	url := fmt.Sprintf("%s?sample_rate=%d&language=%s",
		r.cfg.Endpoint, r.cfg.SampleRate, r.cfg.Language)

	header := http.Header{}
	if r.cfg.APIKey != "" {
		header.Set("Authorization", "Token "+r.cfg.APIKey)
	}

	conn, resp, err := r.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("dialing recognizer: %w", err)
	}

	c := &wsCapture{
		conn:    conn,
		results: make(chan Result, 16),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

type wsCapture struct {
	conn    *websocket.Conn
	results chan Result
	errs    chan error

	writeMu  sync.Mutex
	stopOnce sync.Once
	done     chan struct{}
}

func (c *wsCapture) PushAudio(frame []byte) error {
	select {
	case <-c.done:
		return nil
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *wsCapture) Results() <-chan Result { return c.results }

func (c *wsCapture) Errors() <-chan error { return c.errs }

func (c *wsCapture) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			slog.Debug("closing recognizer connection", "error", err)
		}
	})
}

func (c *wsCapture) readLoop() {
	defer close(c.results)
	for {
		var ev transcriptEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			select {
			case <-c.done: // deliberate Stop, not an error
			default:
				c.errs <- fmt.Errorf("reading transcript: %w", err)
			}
			return
		}

		if ev.Error != "" {
			c.errs <- fmt.Errorf("recognizer error: %s", ev.Error)
			return
		}

		select {
		case c.results <- Result{Transcript: ev.Transcript, Confidence: ev.Confidence, Final: ev.IsFinal}:
		case <-c.done:
			return
		}

		if ev.IsFinal {
			c.Stop()
			return
		}
	}
}
