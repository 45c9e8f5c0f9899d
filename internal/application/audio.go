package application

import "context"

// CaptureSource delivers fixed-size mono float32 frames at the configured
// sample rate. Implementations must never block the platform audio callback:
// if the consumer falls behind, frames are dropped at the source.
type CaptureSource interface {
	Start(ctx context.Context) error
	Stop() error
	Frames() <-chan []float32
	Name() string
}
