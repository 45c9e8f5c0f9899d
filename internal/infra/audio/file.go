package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// FileSource replays WAV files from a directory as if they were live
// microphone input, in lexical order, then closes its frame channel. Used
// for offline runs and end-to-end tests without an audio device.
type FileSource struct {
	fs        afero.Fs
	dir       string
	frameSize int
	logger    *slog.Logger
	frames    chan []float32
}

func NewFileSource(fs afero.Fs, dir string, frameSize int, logger *slog.Logger) *FileSource {
	return &FileSource{
		fs:        fs,
		dir:       dir,
		frameSize: frameSize,
		logger:    logger,
		frames:    make(chan []float32, 16),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(ctx context.Context) error {
	entries, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return fmt.Errorf("reading audio dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}
		paths = append(paths, filepath.Join(f.dir, entry.Name()))
	}
	sort.Strings(paths)

	go f.replay(ctx, paths)
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) Frames() <-chan []float32 {
	return f.frames
}

func (f *FileSource) replay(ctx context.Context, paths []string) {
	defer close(f.frames)

	for _, path := range paths {
		samples, err := f.decode(path)
		if err != nil {
			f.logger.Error("decoding wav file", "path", path, "error", err)
			continue
		}

		f.logger.Info("replaying audio file", "path", path, "samples", len(samples))

		for start := 0; start < len(samples); start += f.frameSize {
			end := start + f.frameSize
			if end > len(samples) {
				end = len(samples)
			}
			frame := make([]float32, f.frameSize)
			copy(frame, samples[start:end])

			select {
			case <-ctx.Done():
				return
			case f.frames <- frame:
			}
		}
	}
}

func (f *FileSource) decode(path string) ([]float32, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding pcm: %w", err)
	}

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / 32768
	}
	return samples, nil
}
