//go:build porcupine
// +build porcupine

// Package porcupine adapts the Picovoice Porcupine engine as the pipeline's
// wake-word detector.
package porcupine

import (
	"fmt"
	"strings"

	pv "github.com/Picovoice/porcupine/binding/go/v2"
)

type Detector struct {
	engine pv.Porcupine
}

// New initializes the engine for a single built-in keyword (e.g. "jarvis").
// A missing access key or unknown keyword is a fatal configuration error.
func New(accessKey, keyword string, sensitivity float32) (*Detector, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("porcupine access key is empty")
	}

	d := &Detector{
		engine: pv.Porcupine{
			AccessKey:       accessKey,
			BuiltInKeywords: []pv.BuiltInKeyword{pv.BuiltInKeyword(strings.ToLower(keyword))},
			Sensitivities:   []float32{sensitivity},
		},
	}

	if err := d.engine.Init(); err != nil {
		return nil, fmt.Errorf("initializing porcupine: %w", err)
	}

	return d, nil
}

// FrameLength returns the window size the engine expects per Process call.
func (d *Detector) FrameLength() int {
	return pv.FrameLength
}

// Process analyses one window and returns the matched keyword index, or -1.
func (d *Detector) Process(window []int16) (int, error) {
	return d.engine.Process(window)
}

func (d *Detector) Close() error {
	return d.engine.Delete()
}
