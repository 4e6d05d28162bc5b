// Package speech wraps the external speech-to-text provider behind a
// capture interface the interaction engine can drive.
package speech

import (
	"context"
	"errors"
)

// ErrPermissionDenied indicates the provider refused the capture
// request outright (bad credentials, microphone access revoked). The
// engine surfaces this case to the user; other errors reset silently.
var ErrPermissionDenied = errors.New("speech: permission denied")

// Result is one speech-to-text result. A capture session emits zero or
// more interim results (Final=false) followed by exactly one final
// result, or an error.
type Result struct {
	Transcript string
	Confidence float64 // 0–100
	Final      bool
}

// Capture is one live capture session. Stop aborts the session; after
// Stop no further results are delivered.
type Capture interface {
	// PushAudio feeds one PCM16LE mono frame to the recognizer.
	PushAudio(frame []byte) error
	// Results delivers interim and final transcripts. The channel is
	// closed after the final result or an error.
	Results() <-chan Result
	// Errors delivers at most one terminal error.
	Errors() <-chan error
	// Stop aborts the capture session.
	Stop()
}

// Recognizer opens capture sessions against a speech-to-text provider.
type Recognizer interface {
	Start(ctx context.Context) (Capture, error)
}
