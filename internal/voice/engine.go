// Package voice implements the agent interaction engine: the state
// machine governing voice capture, processing, response synthesis, and
// playback for one agent session.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlink-ai/voxlink/internal/audio"
	"github.com/voxlink-ai/voxlink/internal/config"
	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/internal/gateway"
	"github.com/voxlink-ai/voxlink/internal/metrics"
	"github.com/voxlink-ai/voxlink/internal/signal"
	"github.com/voxlink-ai/voxlink/internal/speech"
	"github.com/voxlink-ai/voxlink/internal/suggest"
)

var (
	// ErrBusy is returned when input arrives while a turn is in flight.
	ErrBusy = errors.New("voice: a turn is already in flight")
	// ErrEmptyText is returned for blank text submissions.
	ErrEmptyText = errors.New("voice: text must not be empty")
	// ErrVoiceUnavailable is returned when no recognizer is configured.
	ErrVoiceUnavailable = errors.New("voice: no speech recognizer configured")
	// ErrSessionEnded is returned when input arrives after the engine
	// has shut down.
	ErrSessionEnded = errors.New("voice: session ended")
)

// permissionDeniedReply is surfaced to the transcript when microphone
// access is refused, so the user understands why voice is unavailable.
const permissionDeniedReply = "I couldn't access your microphone. Voice input is unavailable, but you can keep typing to me."

// Responder produces the agent side of a turn. *gateway.Gateway is the
// production implementation.
type Responder interface {
	Respond(ctx context.Context, req gateway.Request) gateway.Response
}

type eventKind int

const (
	evToggle eventKind = iota
	evSubmit
	evCaptureReady
	evRecResult
	evRecError
	evThinkingDone
	evResponse
	evPlaybackDone
)

// event is one entry on the engine's serialized queue. Every state
// mutation happens on the run loop, so concurrent callbacks can never
// interleave mid-turn.
type event struct {
	kind    eventKind
	gen     int
	text    string
	result  speech.Result
	err     error
	resp    gateway.Response
	capture speech.Capture
	reply   chan error
}

// respond answers the caller waiting on an admission decision.
func (ev event) respond(err error) {
	if ev.reply != nil {
		ev.reply <- err
	}
}

// Engine drives one agent session. All mutable state is owned by the
// run loop and replaced atomically into a read-only snapshot.
type Engine struct {
	id         uuid.UUID
	cfg        config.AgentConfig
	recognizer speech.Recognizer
	responder  Responder
	extractor  signal.Extractor
	sampler    *audio.Sampler
	publisher  *events.Publisher
	rnd        *rand.Rand

	queue chan event
	done  chan struct{}

	// capMu guards the live capture handle for PushAudio, which is
	// called from the transport goroutine, not the run loop.
	capMu   sync.Mutex
	capture speech.Capture

	// mu guards everything Snapshot reads. Only the run loop writes.
	mu                sync.RWMutex
	state             State
	transcript        []Utterance
	entities          []string
	entitySet         map[string]struct{}
	topics            []string
	topicSet          map[string]struct{}
	synergies         []signal.SynergyOpportunity
	synergyTotalValue float64
	relationshipDepth float64
	learningProgress  float64
	biometrics        *VoiceBiometricSample
	suggestions       []string
	clips             map[uuid.UUID][]byte
	speakingClipID    uuid.UUID

	// run-loop-only turn bookkeeping
	captureGen    int
	captureStart  time.Time
	turnGen       int
	turnStart     time.Time
	turnVoice     bool
	pendingReq    gateway.Request
	lastAgentText string
	context       *rollingContext
	thinkingTimer *time.Timer
	watchdog      *time.Timer

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

// NewEngine creates an idle engine for one session. recognizer and
// publisher may be nil; voice capture and telemetry degrade gracefully.
func NewEngine(
	id uuid.UUID,
	cfg config.AgentConfig,
	recognizer speech.Recognizer,
	responder Responder,
	extractor signal.Extractor,
	publisher *events.Publisher,
	rnd *rand.Rand,
) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		id:         id,
		cfg:        cfg,
		recognizer: recognizer,
		responder:  responder,
		extractor:  extractor,
		sampler:    audio.NewSampler(),
		publisher:  publisher,
		rnd:        rnd,
		queue:      make(chan event, 64),
		done:       make(chan struct{}),
		state:      StateIdle,
		entitySet:  make(map[string]struct{}),
		topicSet:   make(map[string]struct{}),
		clips:      make(map[uuid.UUID][]byte),
		context:    newRollingContext(cfg.ContextWindow),
		subs:       make(map[chan Snapshot]struct{}),
	}
}

// Run consumes the event queue until ctx is cancelled. It must be
// called exactly once.
func (e *Engine) Run(ctx context.Context) {
	defer e.cleanup()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.queue:
			e.handle(ctx, ev)
		}
	}
}

func (e *Engine) cleanup() {
	close(e.done)
	if e.thinkingTimer != nil {
		e.thinkingTimer.Stop()
	}
	if e.watchdog != nil {
		e.watchdog.Stop()
	}
	e.stopCapture()
	e.sampler.SetActive(false)
}

// post enqueues an event unless the engine has shut down.
func (e *Engine) post(ev event) {
	select {
	case e.queue <- ev:
	case <-e.done:
	}
}

// SubmitText starts a text-input turn. It joins the voice path at the
// same processing entry point, so downstream handling is identical.
// The busy decision is made on the run loop, so concurrent callers get
// an authoritative answer: exactly one submission wins, the rest see
// ErrBusy.
func (e *Engine) SubmitText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	return e.ask(event{kind: evSubmit, text: text})
}

// ToggleVoiceCapture starts capture when idle and aborts it when
// listening. While a turn is in flight the toggle is rejected.
func (e *Engine) ToggleVoiceCapture() error {
	if e.recognizer == nil {
		return ErrVoiceUnavailable
	}
	return e.ask(event{kind: evToggle})
}

// ask posts an event carrying a reply channel and waits for the run
// loop's admission decision.
func (e *Engine) ask(ev event) error {
	ev.reply = make(chan error, 1)
	e.post(ev)
	select {
	case err := <-ev.reply:
		return err
	case <-e.done:
		return ErrSessionEnded
	}
}

// NotifyPlaybackDone reports that the client finished (or failed)
// playing the current clip. Playback failure is absorbed: the turn
// still completes and suggestions are still generated.
func (e *Engine) NotifyPlaybackDone(playErr error) {
	e.post(event{kind: evPlaybackDone, err: playErr})
}

// PushAudio feeds one PCM frame from the transport into the sampler
// and, while capturing, into the recognizer.
func (e *Engine) PushAudio(frame []byte) {
	e.sampler.Push(frame)

	e.capMu.Lock()
	capture := e.capture
	e.capMu.Unlock()
	if capture != nil {
		if err := capture.PushAudio(frame); err != nil {
			slog.Debug("pushing audio to recognizer", "error", err)
		}
	}
}

// Clip returns a synthesized audio clip by ID.
func (e *Engine) Clip(id uuid.UUID) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	clip, ok := e.clips[id]
	return clip, ok
}

// Snapshot returns the current read-only view of the session,
// including the live audio projections.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		SessionID:         e.id,
		State:             e.state,
		Transcript:        append([]Utterance(nil), e.transcript...),
		Entities:          append([]string(nil), e.entities...),
		Topics:            append([]string(nil), e.topics...),
		Synergies:         append([]signal.SynergyOpportunity(nil), e.synergies...),
		SynergyTotalValue: e.synergyTotalValue,
		RelationshipDepth: e.relationshipDepth,
		LearningProgress:  e.learningProgress,
		Suggestions:       append([]string(nil), e.suggestions...),
		AudioLevels:       e.sampler.Levels(),
		Waveform:          e.sampler.Waveform(),
		SpeakingClipID:    e.speakingClipID,
	}
	if e.biometrics != nil {
		b := *e.biometrics
		snap.Biometrics = &b
	}
	return snap
}

// Subscribe registers a snapshot channel notified on every transition.
// Slow subscribers miss intermediate snapshots rather than blocking
// the engine.
func (e *Engine) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 8)
	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()
	return ch
}

// Unsubscribe removes a snapshot channel.
func (e *Engine) Unsubscribe(ch chan Snapshot) {
	e.subMu.Lock()
	delete(e.subs, ch)
	e.subMu.Unlock()
}

func (e *Engine) notify() {
	snap := e.Snapshot()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// --- run loop ---

func (e *Engine) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evToggle:
		e.handleToggle(ctx, ev)
	case evSubmit:
		e.handleSubmit(ev)
	case evCaptureReady:
		e.handleCaptureReady(ev)
	case evRecResult:
		e.handleRecognition(ev)
	case evRecError:
		e.handleRecognitionError(ev)
	case evThinkingDone:
		e.handleThinkingDone(ctx, ev)
	case evResponse:
		e.handleResponse(ctx, ev)
	case evPlaybackDone:
		e.handlePlaybackDone(ctx, ev)
	}
}

func (e *Engine) handleToggle(ctx context.Context, ev event) {
	switch e.currentState() {
	case StateIdle:
		e.startCapture(ctx)
		ev.respond(nil)
	case StateListening:
		e.abortCapture()
		ev.respond(nil)
	default:
		ev.respond(ErrBusy)
	}
}

func (e *Engine) startCapture(ctx context.Context) {
	e.captureGen++
	e.captureStart = time.Now()
	gen := e.captureGen

	e.setState(StateListening)

	go func() {
		capture, err := e.recognizer.Start(ctx)
		if err != nil {
			e.post(event{kind: evRecError, gen: gen, err: err})
			return
		}
		e.post(event{kind: evCaptureReady, gen: gen, capture: capture})
	}()
}

func (e *Engine) handleCaptureReady(ev event) {
	if ev.gen != e.captureGen || e.currentState() != StateListening {
		// Capture was aborted while the dial was in flight.
		ev.capture.Stop()
		return
	}

	e.capMu.Lock()
	e.capture = ev.capture
	e.capMu.Unlock()

	gen := ev.gen
	go func() {
		for {
			select {
			case r, ok := <-ev.capture.Results():
				if !ok {
					return
				}
				e.post(event{kind: evRecResult, gen: gen, result: r})
			case err, ok := <-ev.capture.Errors():
				if !ok {
					return
				}
				e.post(event{kind: evRecError, gen: gen, err: err})
				return
			case <-e.done:
				return
			}
		}
	}()
}

// abortCapture ends a listening episode without recording an
// utterance. Safe to retry immediately.
func (e *Engine) abortCapture() {
	e.stopCapture()
	e.mu.Lock()
	e.biometrics = nil
	e.mu.Unlock()
	e.setState(StateIdle)
}

func (e *Engine) stopCapture() {
	e.captureGen++ // invalidate in-flight capture events
	e.capMu.Lock()
	capture := e.capture
	e.capture = nil
	e.capMu.Unlock()
	if capture != nil {
		capture.Stop()
	}
}

func (e *Engine) handleRecognition(ev event) {
	if ev.gen != e.captureGen || e.currentState() != StateListening {
		return
	}

	if !ev.result.Final {
		e.updateBiometrics(ev.result)
		e.notify()
		return
	}

	e.stopCapture()
	e.mu.Lock()
	e.biometrics = nil
	e.mu.Unlock()

	text := strings.TrimSpace(ev.result.Transcript)
	if text == "" {
		// Nothing was said; behave like an abort.
		e.setState(StateIdle)
		return
	}
	e.beginTurn(text, ev.result.Confidence, true)
}

func (e *Engine) handleRecognitionError(ev event) {
	if ev.gen != e.captureGen || e.currentState() != StateListening {
		return
	}

	e.stopCapture()
	e.mu.Lock()
	e.biometrics = nil
	e.mu.Unlock()

	if errors.Is(ev.err, speech.ErrPermissionDenied) {
		metrics.CaptureErrorsTotal.WithLabelValues("permission_denied").Inc()
		slog.Warn("microphone permission denied", "session", e.id)
		e.appendUtterance(Utterance{
			ID:        uuid.New(),
			Text:      permissionDeniedReply,
			Timestamp: time.Now(),
			Entities:  []string{},
			Topics:    []string{},
			Synergies: []signal.SynergyOpportunity{},
			Sentiment: signal.SentimentNeutral,
		})
	} else {
		metrics.CaptureErrorsTotal.WithLabelValues("recognition").Inc()
		slog.Warn("voice capture failed", "session", e.id, "error", ev.err)
	}
	e.setState(StateIdle)
}

func (e *Engine) handleSubmit(ev event) {
	if e.currentState() != StateIdle {
		ev.respond(ErrBusy)
		return
	}
	e.beginTurn(ev.text, 0, false)
	ev.respond(nil)
}

// beginTurn is the shared processing entry point for both input
// modalities: it commits exactly one user utterance and schedules the
// thinking delay.
func (e *Engine) beginTurn(text string, confidence float64, voiceInput bool) {
	e.turnGen++
	e.turnStart = time.Now()
	e.turnVoice = voiceInput
	gen := e.turnGen

	ann := signal.Annotate(e.extractor, text)
	e.appendUtterance(Utterance{
		ID:         uuid.New(),
		Text:       text,
		IsUser:     true,
		Timestamp:  time.Now(),
		Confidence: confidence,
		Entities:   ann.Entities,
		Topics:     ann.Topics,
		Synergies:  ann.Synergies,
		Sentiment:  ann.Sentiment,
	})
	e.mergeSignal(ann.Entities, ann.Topics, ann.Synergies)
	e.context.push(text)

	e.pendingReq = gateway.Request{
		Text:       text,
		Confidence: confidence,
		Entities:   ann.Entities,
		Topics:     ann.Topics,
		Context:    e.context.snapshot(),
	}

	e.setState(StateProcessing)

	// Deliberate minimum thinking delay: UI pacing is decoupled from
	// network latency.
	delay := e.cfg.ThinkingDelayMin
	if spread := e.cfg.ThinkingDelayMax - e.cfg.ThinkingDelayMin; spread > 0 {
		delay += time.Duration(e.rnd.Int63n(int64(spread)))
	}
	e.thinkingTimer = time.AfterFunc(delay, func() {
		e.post(event{kind: evThinkingDone, gen: gen})
	})
}

func (e *Engine) handleThinkingDone(ctx context.Context, ev event) {
	if ev.gen != e.turnGen || e.currentState() != StateProcessing {
		return
	}
	e.setState(StateAnalyzing)

	gen := ev.gen
	req := e.pendingReq
	go func() {
		resp := e.responder.Respond(ctx, req)
		e.post(event{kind: evResponse, gen: gen, resp: resp})
	}()
}

func (e *Engine) handleResponse(ctx context.Context, ev event) {
	if ev.gen != e.turnGen || e.currentState() != StateAnalyzing {
		return
	}
	resp := ev.resp

	if resp.Fallback {
		e.appendUtterance(Utterance{
			ID:         uuid.New(),
			Text:       resp.Text,
			Timestamp:  time.Now(),
			Confidence: resp.Confidence,
			Entities:   []string{},
			Topics:     []string{},
			Synergies:  []signal.SynergyOpportunity{},
			Sentiment:  resp.Sentiment,
		})
		e.mu.Lock()
		e.suggestions = suggest.ForResponse(resp.Text)
		e.mu.Unlock()
		e.setState(StateIdle)
		e.finishTurn(ctx, "fallback", false)
		return
	}

	utt := Utterance{
		ID:         uuid.New(),
		Text:       resp.Text,
		Timestamp:  time.Now(),
		Confidence: resp.Confidence,
		Entities:   resp.Entities,
		Topics:     resp.Topics,
		Synergies:  resp.Synergies,
		Sentiment:  resp.Sentiment,
	}

	hasAudio := len(resp.Audio) > 0
	var clipID uuid.UUID
	if hasAudio {
		clipID = uuid.New()
		utt.AudioClipID = clipID
	}

	e.appendUtterance(utt)
	e.mergeSignal(resp.Entities, resp.Topics, resp.Synergies)
	e.bumpGauges()
	e.lastAgentText = resp.Text

	if hasAudio {
		e.mu.Lock()
		e.clips[clipID] = resp.Audio
		e.speakingClipID = clipID
		e.mu.Unlock()
		e.setState(StateSpeaking)

		gen := e.turnGen
		e.watchdog = time.AfterFunc(e.cfg.PlaybackTimeout, func() {
			e.post(event{kind: evPlaybackDone, gen: gen})
		})
		return
	}

	e.mu.Lock()
	e.suggestions = suggest.ForResponse(resp.Text)
	e.mu.Unlock()
	e.setState(StateIdle)
	e.finishTurn(ctx, "success", false)
}

func (e *Engine) handlePlaybackDone(ctx context.Context, ev event) {
	if e.currentState() != StateSpeaking {
		return
	}
	if e.watchdog != nil {
		e.watchdog.Stop()
		e.watchdog = nil
	}
	if ev.err != nil {
		// Autoplay restrictions and codec failures are absorbed; the
		// turn still completes visibly.
		metrics.PlaybackFailuresTotal.Inc()
		slog.Warn("client playback failed", "session", e.id, "error", ev.err)
	}

	e.mu.Lock()
	e.speakingClipID = uuid.UUID{}
	e.suggestions = suggest.ForResponse(e.lastAgentText)
	e.mu.Unlock()
	e.setState(StateIdle)
	e.finishTurn(ctx, "success", true)
}

// --- state helpers ---

func (e *Engine) currentState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.sampler.SetActive(s.wantsAudio())
	e.notify()
}

func (e *Engine) appendUtterance(u Utterance) {
	e.mu.Lock()
	e.transcript = append(e.transcript, u)
	e.mu.Unlock()
}

// mergeSignal folds one utterance's annotation into the cumulative
// session-wide sets. Synergies are process-lifetime: accumulated, never
// removed.
func (e *Engine) mergeSignal(ents, tops []string, syns []signal.SynergyOpportunity) {
	e.mu.Lock()
	for _, ent := range ents {
		key := strings.ToLower(ent)
		if _, ok := e.entitySet[key]; !ok {
			e.entitySet[key] = struct{}{}
			e.entities = append(e.entities, ent)
		}
	}
	for _, top := range tops {
		if _, ok := e.topicSet[top]; !ok {
			e.topicSet[top] = struct{}{}
			e.topics = append(e.topics, top)
		}
	}
	for _, syn := range syns {
		e.synergies = append(e.synergies, syn)
		e.synergyTotalValue += syn.EstimatedValue
	}
	e.mu.Unlock()

	for _, syn := range syns {
		metrics.SynergiesDetectedTotal.Inc()
		e.publisher.SynergyDetected(context.Background(), events.SynergyEvent{
			SessionID:      e.id,
			SynergyID:      syn.ID,
			Title:          syn.Title,
			EstimatedValue: syn.EstimatedValue,
			Confidence:     syn.Confidence,
			Timestamp:      time.Now(),
		})
	}
}

// bumpGauges applies the bounded random increment that follows each
// successful agent turn, clamped to [0,100].
func (e *Engine) bumpGauges() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relationshipDepth = clamp100(e.relationshipDepth + 2 + e.rnd.Float64()*4)
	e.learningProgress = clamp100(e.learningProgress + 1 + e.rnd.Float64()*3)
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func (e *Engine) finishTurn(ctx context.Context, outcome string, audioOutput bool) {
	duration := time.Since(e.turnStart)
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	metrics.TurnDuration.Observe(duration.Seconds())

	var uttID uuid.UUID
	e.mu.RLock()
	if n := len(e.transcript); n > 0 {
		uttID = e.transcript[n-1].ID
	}
	e.mu.RUnlock()

	e.publisher.TurnCompleted(ctx, events.TurnEvent{
		SessionID:   e.id,
		UtteranceID: uttID,
		Outcome:     outcome,
		VoiceInput:  e.turnVoice,
		AudioOutput: audioOutput,
		Duration:    duration.Seconds(),
		Timestamp:   time.Now(),
	})
}

// updateBiometrics recomputes the ephemeral voice sample from an
// interim recognition result. Pitch and tone are rough placeholders
// until real spectral analysis exists; energy prefers the live sampler
// level.
func (e *Engine) updateBiometrics(r speech.Result) {
	words := len(strings.Fields(r.Transcript))
	var wpm float64
	if elapsed := time.Since(e.captureStart).Minutes(); elapsed > 0 {
		wpm = float64(words) / elapsed
		if wpm > 260 {
			wpm = 260
		}
	}

	energy := e.sampler.Level() * 100
	if energy == 0 {
		energy = 40 + e.rnd.Float64()*30
	}

	var tone Tone
	switch {
	case energy > 70:
		tone = ToneExcited
	case energy < 30:
		tone = ToneCalm
	case e.rnd.Intn(2) == 0:
		tone = ToneFocused
	default:
		tone = ToneCurious
	}

	sample := &VoiceBiometricSample{
		PitchHz:         110 + e.rnd.Float64()*110,
		Tone:            tone,
		EnergyPercent:   energy,
		SpeakingRateWPM: wpm,
	}

	e.mu.Lock()
	e.biometrics = sample
	e.mu.Unlock()
}

// ContextLen reports the rolling-context occupancy. Used by tests and
// the session snapshot endpoint's debug fields.
func (e *Engine) ContextLen() int {
	return e.context.len()
}

// ContextTexts returns a copy of the rolling context.
func (e *Engine) ContextTexts() []string {
	return e.context.snapshot()
}
