package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/voxlink-ai/voxlink/internal/config"
)

// maxClipBytes bounds a synthesized clip so a misbehaving provider
// cannot exhaust session memory.
const maxClipBytes = 8 << 20

// synthesisRequest is the speech-synthesis wire format.
type synthesisRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// SynthesisClient calls the remote speech-synthesis endpoint and
// returns the binary audio payload.
type SynthesisClient struct {
	endpoint string
	apiKey   string
	voiceID  string
	client   *http.Client
}

// NewSynthesisClient creates a client for the configured synthesis
// endpoint, or nil when no credential is configured.
func NewSynthesisClient(cfg config.SynthesisConfig) *SynthesisClient {
	if cfg.APIKey == "" || cfg.Endpoint == "" {
		return nil
	}
	return &SynthesisClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		voiceID:  cfg.VoiceID,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Synthesize renders text to audio bytes.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, VoiceID: c.voiceID})
	if err != nil {
		return nil, fmt.Errorf("marshaling synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling synthesis endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("synthesis endpoint returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes))
	if err != nil {
		return nil, fmt.Errorf("reading synthesis payload: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis endpoint returned empty payload")
	}
	return audio, nil
}
