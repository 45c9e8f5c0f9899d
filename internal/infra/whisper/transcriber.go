// Package whisper wraps a local whisper.cpp model as the pipeline's
// speech-to-text engine.
package whisper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type Transcriber struct {
	model    whisper.Model
	language string

	// whisper.cpp contexts are not safe for concurrent use; the worker is
	// the only caller today but the lock keeps that an implementation
	// detail rather than a contract.
	mu sync.Mutex
}

// New loads the whisper model from modelPath. Loading is slow (seconds) and
// happens once at startup; a missing or corrupt model is a fatal
// configuration error.
func New(modelPath, language string) (*Transcriber, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("whisper model path is empty")
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading whisper model: %w", err)
	}

	return &Transcriber{
		model:    model,
		language: language,
	}, nil
}

// Transcribe runs the model over the given buffer and returns the combined
// text. The buffer is peak-normalized first to help with quiet speech; the
// model pads or trims internally.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}

	data := normalize(samples)

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("creating whisper context: %w", err)
	}

	if t.language != "" {
		if err := wctx.SetLanguage(t.language); err != nil {
			return "", fmt.Errorf("setting language: %w", err)
		}
	}

	if err := wctx.Process(data, nil); err != nil {
		return "", fmt.Errorf("running whisper: %w", err)
	}

	text, err := collectSegments(wctx)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

func (t *Transcriber) Close() error {
	return t.model.Close()
}

// collectSegments concatenates segment texts, skipping bracketed
// annotations like "(wind blowing)" and duplicated segments the model
// sometimes emits on near-silence.
func collectSegments(wctx whisper.Context) (string, error) {
	var sb strings.Builder
	seen := make(map[string]bool)

	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			return sb.String(), nil
		} else if err != nil {
			return "", fmt.Errorf("reading segment: %w", err)
		}

		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		if text[0] == '(' || text[0] == '[' ||
			text[len(text)-1] == ')' || text[len(text)-1] == ']' {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
}

// normalize scales the buffer so its peak reaches full scale. The input is
// not modified.
func normalize(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return samples
	}

	out := make([]float32, len(samples))
	scale := 1 / peak
	for i, s := range samples {
		out[i] = s * scale
	}
	return out
}
