package application

import "context"

// Backend is the remote dialogue service. It owns the LLM and all speech
// synthesis; this pipeline only sends transcripts and receives reply text.
type Backend interface {
	// Speak asks the backend to synthesize and play the given text.
	// Fire-and-forget: the caller does not wait for playback.
	Speak(ctx context.Context, text string) error

	// Clear resets the backend conversation session. Best effort; failures
	// are ignored by callers.
	Clear(ctx context.Context, sessionID string) error

	// Converse sends a transcript and returns the backend's reply text.
	// A non-2xx response is a recoverable failure for that turn only.
	Converse(ctx context.Context, text, sessionID string) (string, error)

	// Health reports whether the backend is reachable and ready.
	Health(ctx context.Context) error
}
