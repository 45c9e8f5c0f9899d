package application

// WakeDetector is the wake-word engine boundary. It consumes fixed-length
// int16 PCM windows and reports the index of the matched keyword, or -1 when
// nothing matched. Window length and sample format are dictated by the
// engine, not by this pipeline.
type WakeDetector interface {
	// FrameLength returns the exact number of samples Process expects.
	FrameLength() int

	// Process analyses one window and returns the matched keyword index,
	// or -1 for no match.
	Process(window []int16) (int, error)
}
