//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneSource captures mono float32 frames from the default input
// device. The portaudio callback copies each buffer and hands it off
// without blocking; if the pipeline falls behind, frames are dropped here.
type MicrophoneSource struct {
	sampleRate int
	frameSize  int
	logger     *slog.Logger

	stream  *portaudio.Stream
	frames  chan []float32
	dropped int64
}

func NewMicrophoneSource(sampleRate, frameSize int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		logger:     logger,
		frames:     make(chan []float32, 16),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		1, 0,
		float64(m.sampleRate),
		m.frameSize,
		m.onAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	if err := m.stream.Start(); err != nil {
		m.stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started",
		"sample_rate", m.sampleRate,
		"frame_size", m.frameSize,
	)
	return nil
}

// onAudio runs on the portaudio thread. The input slice is only valid for
// the duration of the callback, so it is copied before hand-off.
func (m *MicrophoneSource) onAudio(in []float32) {
	frame := make([]float32, len(in))
	copy(frame, in)

	select {
	case m.frames <- frame:
	default:
		m.dropped++
	}
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	portaudio.Terminate()
	if m.dropped > 0 {
		m.logger.Warn("frames dropped at capture", "count", m.dropped)
	}
	return nil
}

func (m *MicrophoneSource) Frames() <-chan []float32 {
	return m.frames
}
