package voice

// State is the lifecycle phase of the interaction engine.
//
// Transitions:
//
//	idle       --startCapture----> listening
//	idle       --submitText------> processing
//	listening  --finalTranscript-> processing
//	listening  --toggle/error----> idle
//	processing --thinkingDelay---> analyzing
//	analyzing  --response--------> speaking (audio) | idle (no audio / fallback)
//	speaking   --playbackEnded---> idle
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateAnalyzing  State = "analyzing"
	StateSpeaking   State = "speaking"

	// StateLearning is reserved for a future background-learning mode.
	// No transition produces it today; it is declared so the UI contract
	// is stable when the feature lands. See TestNoTransitionProducesLearning.
	StateLearning State = "learning"
)

// busy reports whether a turn is in flight. The engine accepts new
// input only while idle; listening can still be aborted.
func (s State) busy() bool {
	return s == StateProcessing || s == StateAnalyzing || s == StateSpeaking
}

// wantsAudio reports whether the audio sampler should be running.
func (s State) wantsAudio() bool {
	return s == StateListening || s == StateSpeaking
}
