// Package gateway coordinates the remote text-generation and
// speech-synthesis services for one agent turn.
package gateway

import (
	"context"
	"log/slog"

	"github.com/voxlink-ai/voxlink/internal/metrics"
	"github.com/voxlink-ai/voxlink/internal/signal"
)

// Fallback payload constants. Generation failure is absorbed here so
// the engine always receives a well-formed response.
const (
	fallbackText       = "I'm sorry, I'm having trouble processing that right now. Could you try again?"
	fallbackConfidence = 95
	agentConfidence    = 95
)

// Request carries one user utterance plus its extracted signal and the
// rolling conversation context.
type Request struct {
	Text       string
	Confidence float64
	Entities   []string
	Topics     []string
	Context    []string
}

// Response is the gateway's answer for one turn. Fallback marks the
// apologetic payload substituted when text generation failed; Audio is
// empty whenever synthesis was disabled or failed.
type Response struct {
	Text       string
	Audio      []byte
	Confidence float64
	Entities   []string
	Topics     []string
	Synergies  []signal.SynergyOpportunity
	Sentiment  signal.Sentiment
	Fallback   bool
}

// Generator produces agent response text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Synthesizer renders response text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Gateway resolves a generator (remote, local fallback, or canned),
// annotates the response text, and attaches best-effort audio.
type Gateway struct {
	remote    Generator // nil when no chat endpoint is configured
	local     Generator // nil when no probe endpoint is configured
	probe     *Probe
	canned    *CannedResponder
	synth     Synthesizer // nil when synthesis is not configured
	extractor signal.Extractor
}

// New creates a Gateway. remote, local, probe, and synth may each be
// nil; the gateway degrades through local inference down to canned
// replies, and to text-only turns without synthesis.
func New(remote Generator, local Generator, probe *Probe, synth Synthesizer, extractor signal.Extractor) *Gateway {
	return &Gateway{
		remote:    remote,
		local:     local,
		probe:     probe,
		canned:    NewCannedResponder(),
		synth:     synth,
		extractor: extractor,
	}
}

// Respond runs the four-step turn pipeline: generate text (hard-fail),
// extract response-side signal, synthesize audio (soft-fail), and on
// generation failure substitute the fixed fallback payload.
func (g *Gateway) Respond(ctx context.Context, req Request) Response {
	text, err := g.generate(ctx, req)
	if err != nil {
		slog.Error("text generation failed", "error", err)
		metrics.GenerationFailuresTotal.Inc()
		return Response{
			Text:       fallbackText,
			Confidence: fallbackConfidence,
			Entities:   []string{},
			Topics:     []string{},
			Synergies:  []signal.SynergyOpportunity{},
			Sentiment:  signal.SentimentNeutral,
			Fallback:   true,
		}
	}

	ann := signal.Annotate(g.extractor, text)
	resp := Response{
		Text:       text,
		Confidence: agentConfidence,
		Entities:   ann.Entities,
		Topics:     ann.Topics,
		Synergies:  ann.Synergies,
		Sentiment:  ann.Sentiment,
	}

	if g.synth != nil {
		audio, err := g.synth.Synthesize(ctx, text)
		if err != nil {
			// Synthesis failure is absorbed: the turn proceeds text-only.
			slog.Warn("speech synthesis failed, continuing text-only", "error", err)
			metrics.SynthesisFailuresTotal.Inc()
		} else {
			resp.Audio = audio
		}
	}

	return resp
}

// generate resolves the generator chain: the remote endpoint when
// configured, else local inference when the probe reports it reachable,
// else a canned reply so the UI is never blocked.
func (g *Gateway) generate(ctx context.Context, req Request) (string, error) {
	if g.remote != nil {
		return g.remote.Generate(ctx, req)
	}
	if g.local != nil && g.probe != nil && g.probe.Reachable(ctx) {
		text, err := g.local.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		slog.Warn("local inference failed, serving canned reply", "error", err)
	}
	return g.canned.Generate(ctx, req)
}
