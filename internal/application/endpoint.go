package application

import (
	"time"

	"jarvis-voice/internal/domain"
)

// EndpointDecision is the per-frame outcome of the endpointer.
type EndpointDecision int

const (
	// DecisionContinue keeps recording.
	DecisionContinue EndpointDecision = iota

	// DecisionFinalize stops recording with a usable utterance.
	DecisionFinalize

	// DecisionDiscardTooShort stops recording; the utterance is below the
	// minimum length and is treated as a false start.
	DecisionDiscardTooShort

	// DecisionDiscardTooQuiet stops recording; the utterance never rose
	// above the quiet floor and carries no usable signal.
	DecisionDiscardTooQuiet
)

func (d EndpointDecision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionFinalize:
		return "finalize"
	case DecisionDiscardTooShort:
		return "too_short"
	case DecisionDiscardTooQuiet:
		return "too_quiet"
	default:
		return "unknown"
	}
}

// EndpointConfig holds the endpointing tunables. A fixed silence threshold
// fails across varying ambient noise and microphone gain, so the effective
// threshold is max(BaseSilenceThreshold, recent average energy *
// DynamicThresholdRatio); the quiet floor keeps near-silence from ever
// passing as loud enough.
type EndpointConfig struct {
	SampleRate            int
	BaseSilenceThreshold  float64
	DynamicThresholdRatio float64
	SilenceStop           time.Duration
	MaxRecording          time.Duration
	MinRecording          time.Duration
	QuietFloor            float64
}

func DefaultEndpointConfig(sampleRate int) EndpointConfig {
	return EndpointConfig{
		SampleRate:            sampleRate,
		BaseSilenceThreshold:  0.003,
		DynamicThresholdRatio: 0.1,
		SilenceStop:           3 * time.Second,
		MaxRecording:          15 * time.Second,
		MinRecording:          time.Second,
		QuietFloor:            0.001,
	}
}

// Endpointer decides, frame by frame, when a recording has ended. It owns
// the active utterance between Begin and the stop decision. Only touched
// from the frame processing path.
type Endpointer struct {
	cfg       EndpointConfig
	energy    *EnergyTracker
	utterance *domain.Utterance
	silence   time.Duration
	startedAt time.Time
}

func NewEndpointer(cfg EndpointConfig, energy *EnergyTracker) *Endpointer {
	return &Endpointer{
		cfg:    cfg,
		energy: energy,
	}
}

// Begin starts a fresh utterance. Any previous one is dropped.
func (e *Endpointer) Begin(now time.Time, followUp bool) {
	e.utterance = &domain.Utterance{
		StartedAt: now,
		FollowUp:  followUp,
	}
	e.silence = 0
	e.startedAt = now
	e.energy.Reset()
}

// Active reports whether a recording is in progress.
func (e *Endpointer) Active() bool {
	return e.utterance != nil
}

// ProcessFrame appends one frame to the active utterance and evaluates the
// stop conditions. On DecisionFinalize the finished utterance is returned
// and ownership passes to the caller; on a discard decision the utterance is
// dropped and nil is returned.
func (e *Endpointer) ProcessFrame(frame []float32, now time.Time) (EndpointDecision, *domain.Utterance) {
	if e.utterance == nil {
		return DecisionContinue, nil
	}

	e.utterance.Append(frame)

	frameEnergy := FrameEnergy(frame)
	avgRecent := e.energy.Observe(frame)

	threshold := e.cfg.BaseSilenceThreshold
	if dynamic := avgRecent * e.cfg.DynamicThresholdRatio; dynamic > threshold {
		threshold = dynamic
	}

	if frameEnergy < threshold {
		e.silence += frameDuration(len(frame), e.cfg.SampleRate)
	} else {
		e.silence = 0
	}

	if e.silence <= e.cfg.SilenceStop && now.Sub(e.startedAt) <= e.cfg.MaxRecording {
		return DecisionContinue, nil
	}

	return e.stop()
}

func (e *Endpointer) stop() (EndpointDecision, *domain.Utterance) {
	u := e.utterance
	e.utterance = nil

	if u.Duration(e.cfg.SampleRate) < e.cfg.MinRecording {
		return DecisionDiscardTooShort, nil
	}
	if float64(u.Peak) < e.cfg.QuietFloor {
		return DecisionDiscardTooQuiet, nil
	}

	u.SilenceDuration = e.silence
	return DecisionFinalize, u
}

func frameDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
