package audio

import (
	"fmt"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"jarvis-voice/internal/domain"
)

// Dumper writes each dispatched utterance to a WAV file so endpointing
// behavior can be inspected after the fact.
type Dumper struct {
	fs  afero.Fs
	dir string
}

func NewDumper(fs afero.Fs, dir string) (*Dumper, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dump dir: %w", err)
	}
	return &Dumper{fs: fs, dir: dir}, nil
}

func (d *Dumper) Dump(u *domain.Utterance, sampleRate int) error {
	name := fmt.Sprintf("utterance-%d.wav", u.StartedAt.UnixNano())
	file, err := d.fs.Create(filepath.Join(d.dir, name))
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)

	data := make([]int, len(u.Samples))
	for i, s := range u.Samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data[i] = v
	}

	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return encoder.Close()
}
