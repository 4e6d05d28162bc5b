package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.Redis.Enabled && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Endpoint URLs, when set, must parse
	for _, ep := range []struct{ name, val string }{
		{"CHAT_ENDPOINT", c.Chat.Endpoint},
		{"SYNTHESIS_ENDPOINT", c.Synthesis.Endpoint},
		{"RECOGNITION_ENDPOINT", c.Recognition.Endpoint},
		{"PROBE_ENDPOINT", c.Probe.Endpoint},
	} {
		if ep.val == "" {
			continue
		}
		if _, err := url.Parse(ep.val); err != nil {
			errs = append(errs, fmt.Sprintf("%s is not a valid URL: %v", ep.name, err))
		}
	}

	// Engine timing
	if c.Agent.ThinkingDelayMin < 0 || c.Agent.ThinkingDelayMax < c.Agent.ThinkingDelayMin {
		errs = append(errs, "AGENT_THINKING_DELAY_MIN must be >= 0 and <= AGENT_THINKING_DELAY_MAX")
	}
	if c.Agent.ContextWindow < 1 {
		errs = append(errs, fmt.Sprintf("AGENT_CONTEXT_WINDOW must be >= 1, got %d", c.Agent.ContextWindow))
	}

	if c.RateLimit.Enabled && !c.Redis.Enabled {
		errs = append(errs, "RATELIMIT_ENABLED requires REDIS_ENABLED")
	}

	// Chat endpoint missing is allowed: the gateway serves canned
	// fallback replies. Warn so operators notice.
	if c.Chat.Endpoint == "" {
		slog.Warn("CHAT_ENDPOINT is empty, agent will serve canned replies only")
	}
	if c.Synthesis.APIKey == "" {
		slog.Info("SYNTHESIS_API_KEY is empty — speech synthesis disabled, agent is text-only")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
