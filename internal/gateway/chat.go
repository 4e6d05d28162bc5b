package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/voxlink-ai/voxlink/internal/config"
)

// ChatServiceError is the hard failure of the text-generation step.
// The caller treats it as failure of the whole turn.
type ChatServiceError struct {
	StatusCode int
	Err        error
}

func (e *ChatServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat service: %v", e.Err)
}

func (e *ChatServiceError) Unwrap() error { return e.Err }

// chatRequest is the text-generation wire format.
type chatRequest struct {
	Text     string   `json:"text"`
	Entities []string `json:"entities,omitempty"`
	Topics   []string `json:"topics,omitempty"`
	Context  []string `json:"context,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// ChatClient calls the remote text-generation endpoint. Repeated
// failures trip a circuit breaker so a dead endpoint fails fast into
// the fallback payload instead of stalling every turn.
type ChatClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewChatClient creates a client for the configured chat endpoint.
func NewChatClient(cfg config.ChatConfig) *ChatClient {
	return &ChatClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "chat",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Generate posts the utterance plus context and returns the agent text.
func (c *ChatClient) Generate(ctx context.Context, req Request) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		var svcErr *ChatServiceError
		if !errors.As(err, &svcErr) {
			err = &ChatServiceError{Err: err}
		}
		return "", err
	}
	return result.(string), nil
}

func (c *ChatClient) post(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Text:     req.Text,
		Entities: req.Entities,
		Topics:   req.Topics,
		Context:  req.Context,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ChatServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &ChatServiceError{StatusCode: resp.StatusCode}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ChatServiceError{Err: fmt.Errorf("decoding chat response: %w", err)}
	}
	return out.Response, nil
}
