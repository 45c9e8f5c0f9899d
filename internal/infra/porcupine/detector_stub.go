//go:build !porcupine
// +build !porcupine

package porcupine

import "fmt"

// Detector stub when the Porcupine engine is not compiled in.
type Detector struct{}

func New(_, _ string, _ float32) (*Detector, error) {
	return nil, fmt.Errorf("wake-word engine not available: rebuild with -tags porcupine")
}

func (d *Detector) FrameLength() int {
	return 512
}

func (d *Detector) Process(_ []int16) (int, error) {
	return -1, fmt.Errorf("wake-word engine not available")
}

func (d *Detector) Close() error {
	return nil
}
