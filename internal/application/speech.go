package application

import (
	"context"
	"fmt"

	"jarvis-voice/internal/domain"
)

// Transcriber converts a finite audio buffer to text. Implementations accept
// variable-length buffers and pad or normalize internally.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// UtteranceSink receives a copy of every dispatched utterance, e.g. to dump
// it as a WAV file for debugging. Failures are logged and ignored.
type UtteranceSink interface {
	Dump(u *domain.Utterance, sampleRate int) error
}

// NoopTranscriber is used when no ASR engine is configured. It fails on the
// first real utterance so misconfiguration surfaces immediately.
type NoopTranscriber struct{}

func (n *NoopTranscriber) Transcribe(_ context.Context, _ []float32, _ int) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set whisper.model_path to enable transcription")
}
