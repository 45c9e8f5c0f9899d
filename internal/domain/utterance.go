package domain

import "time"

// Utterance is a single recorded command: the accumulated mono samples plus
// the capture metadata the worker needs. Exactly one utterance exists at a
// time; it is owned by the recording state until it is finalized into the
// dispatch queue or discarded.
type Utterance struct {
	// Samples holds mono float32 PCM in [-1, 1].
	Samples []float32

	// StartedAt is when recording began (wall clock).
	StartedAt time.Time

	// SilenceDuration is the trailing silence accumulated when recording
	// stopped.
	SilenceDuration time.Duration

	// Peak is the maximum absolute sample amplitude seen so far.
	Peak float32

	// FollowUp marks utterances captured during a follow-up window (no wake
	// word preceded them).
	FollowUp bool
}

// Append adds a frame to the utterance and updates the peak amplitude.
func (u *Utterance) Append(frame []float32) {
	u.Samples = append(u.Samples, frame...)
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		if s > u.Peak {
			u.Peak = s
		}
	}
}

// Duration returns the audio length of the utterance at the given sample
// rate. This is sample-based, not wall-clock based.
func (u *Utterance) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(u.Samples)) / float64(sampleRate) * float64(time.Second))
}
