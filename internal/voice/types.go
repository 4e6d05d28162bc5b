package voice

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxlink-ai/voxlink/internal/audio"
	"github.com/voxlink-ai/voxlink/internal/signal"
)

// Utterance is one transcript entry. Immutable once created; the
// transcript is append-only and insertion-order-significant.
type Utterance struct {
	ID          uuid.UUID                   `json:"id"`
	Text        string                      `json:"text"`
	IsUser      bool                        `json:"is_user"`
	Timestamp   time.Time                   `json:"timestamp"`
	Confidence  float64                     `json:"confidence,omitempty"` // 0–100
	Entities    []string                    `json:"entities"`
	Topics      []string                    `json:"topics"`
	Synergies   []signal.SynergyOpportunity `json:"synergies"`
	Sentiment   signal.Sentiment            `json:"sentiment"`
	AudioClipID uuid.UUID                   `json:"audio_clip_id"`
}

// Tone is the coarse vocal-tone label of a biometric sample.
type Tone string

const (
	ToneCalm    Tone = "calm"
	ToneExcited Tone = "excited"
	ToneFocused Tone = "focused"
	ToneCurious Tone = "curious"
)

// VoiceBiometricSample is the ephemeral voice reading recomputed on
// every interim recognition result while listening. It is superseded
// each time and discarded when listening stops.
type VoiceBiometricSample struct {
	PitchHz         float64 `json:"pitch_hz"`
	Tone            Tone    `json:"tone"`
	EnergyPercent   float64 `json:"energy_percent"`
	SpeakingRateWPM float64 `json:"speaking_rate_wpm"`
}

// Snapshot is the read-only reactive view handed to the UI layer.
// Every transition replaces it atomically; slices are copies.
type Snapshot struct {
	SessionID         uuid.UUID                        `json:"session_id"`
	State             State                            `json:"state"`
	Transcript        []Utterance                      `json:"transcript"`
	Entities          []string                         `json:"entities"`
	Topics            []string                         `json:"topics"`
	Synergies         []signal.SynergyOpportunity      `json:"synergies"`
	SynergyTotalValue float64                          `json:"synergy_total_value"`
	RelationshipDepth float64                          `json:"relationship_depth"` // 0–100
	LearningProgress  float64                          `json:"learning_progress"`  // 0–100
	Biometrics        *VoiceBiometricSample            `json:"biometrics,omitempty"`
	Suggestions       []string                         `json:"suggestions"`
	AudioLevels       [audio.LevelBuckets]float64      `json:"audio_levels"`
	Waveform          [audio.WaveformBuckets]float64   `json:"waveform"`
	SpeakingClipID    uuid.UUID                        `json:"speaking_clip_id"`
}
