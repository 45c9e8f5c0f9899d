package audio_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"jarvis-voice/internal/infra/audio"
)

func writeWav(t *testing.T, fs afero.Fs, path string, samples []int) {
	t.Helper()

	file, err := fs.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, 16000, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("closing %s: %v", path, err)
	}
}

func collectFrames(t *testing.T, source *audio.FileSource) [][]float32 {
	t.Helper()

	var frames [][]float32
	timeout := time.After(5 * time.Second)
	for {
		select {
		case frame, ok := <-source.Frames():
			if !ok {
				return frames
			}
			frames = append(frames, frame)
		case <-timeout:
			t.Fatal("frame channel never closed")
		}
	}
}

func TestFileSource_ReplaysFrames(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/audio", 0o755)

	samples := make([]int, 1000)
	for i := range samples {
		samples[i] = 16384
	}
	writeWav(t, fs, "/audio/command.wav", samples)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewFileSource(fs, "/audio", 256, logger)

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer source.Stop()

	frames := collectFrames(t, source)

	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4 (1000 samples in 256-sample frames)", len(frames))
	}
	for i, frame := range frames {
		if len(frame) != 256 {
			t.Errorf("frame %d length = %d, want 256", i, len(frame))
		}
	}

	// 16384/32768 = 0.5 after conversion.
	if frames[0][0] < 0.49 || frames[0][0] > 0.51 {
		t.Errorf("sample = %v, want ~0.5", frames[0][0])
	}

	// The final partial frame is zero padded.
	last := frames[3]
	if last[231] == 0 || last[232] != 0 {
		t.Errorf("padding boundary wrong: last[231]=%v last[232]=%v", last[231], last[232])
	}
}

func TestFileSource_ReplaysFilesInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/audio", 0o755)

	writeWav(t, fs, "/audio/02-second.wav", []int{2000, 2000})
	writeWav(t, fs, "/audio/01-first.wav", []int{1000, 1000})
	afero.WriteFile(fs, "/audio/notes.txt", []byte("not audio"), 0o644)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewFileSource(fs, "/audio", 2, logger)

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer source.Stop()

	frames := collectFrames(t, source)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0][0] >= frames[1][0] {
		t.Errorf("files replayed out of order: %v then %v", frames[0][0], frames[1][0])
	}
}

func TestFileSource_MissingDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewFileSource(fs, "/nope", 256, logger)

	if err := source.Start(context.Background()); err == nil {
		t.Fatal("Start() error = nil, want error for missing directory")
	}
}
