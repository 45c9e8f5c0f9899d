package application

import "log/slog"

// WakeGate buffers raw samples and forwards them to the wake-word engine in
// engine-sized windows. Once the engine reports a match the gate latches and
// consumes nothing more until Reset.
//
// Feed drains every fully buffered window per call, not just one, so the
// buffer cannot grow without bound when frames arrive faster than windows
// are consumed.
type WakeGate struct {
	detector  WakeDetector
	buffer    []float32
	window    []int16
	triggered bool
	logger    *slog.Logger
}

func NewWakeGate(detector WakeDetector, logger *slog.Logger) *WakeGate {
	n := detector.FrameLength()
	return &WakeGate{
		detector: detector,
		buffer:   make([]float32, 0, 4*n),
		window:   make([]int16, n),
		logger:   logger,
	}
}

// Feed appends a frame and processes all complete windows. It returns true
// once the wake word has been detected; the gate stays triggered until
// Reset is called.
func (g *WakeGate) Feed(frame []float32) bool {
	if g.triggered {
		return true
	}

	g.buffer = append(g.buffer, frame...)

	n := len(g.window)
	for len(g.buffer) >= n && !g.triggered {
		for i := 0; i < n; i++ {
			g.window[i] = int16(g.buffer[i] * 32767)
		}
		g.buffer = append(g.buffer[:0], g.buffer[n:]...)

		index, err := g.detector.Process(g.window)
		if err != nil {
			g.logger.Warn("wake detector error", "error", err)
			continue
		}

		if index >= 0 {
			g.triggered = true
		}
	}

	return g.triggered
}

// Triggered reports whether the gate has latched.
func (g *WakeGate) Triggered() bool {
	return g.triggered
}

// Reset unlatches the gate and drops any buffered samples.
func (g *WakeGate) Reset() {
	g.triggered = false
	g.buffer = g.buffer[:0]
}
