package application

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"jarvis-voice/internal/domain"
	"jarvis-voice/internal/observe"
)

// ControllerConfig holds the conversation-level tunables.
type ControllerConfig struct {
	SampleRate int

	// AckText is spoken via the backend when the wake word triggers.
	AckText string

	// AckWindow is the estimated playback duration of the acknowledgement.
	// Frames are dropped for this long so the prompt's own audio cannot be
	// captured as input, then recording starts.
	AckWindow time.Duration

	// FollowUpTimeout bounds how long the pipeline re-listens after a reply
	// before falling back to wake-word mode.
	FollowUpTimeout time.Duration

	// SpeakTimeout bounds the fire-and-forget acknowledgement call.
	SpeakTimeout time.Duration
}

func DefaultControllerConfig(sampleRate int) ControllerConfig {
	return ControllerConfig{
		SampleRate:      sampleRate,
		AckText:         "Yes sir?",
		AckWindow:       1200 * time.Millisecond,
		FollowUpTimeout: 10 * time.Second,
		SpeakTimeout:    5 * time.Second,
	}
}

// ConversationController is the state machine gating the audio stream:
// WakeListening → Arming → Recording → dispatch → FollowUpWaiting.
//
// ProcessFrame runs on the capture side at frame cadence and must never
// block; ArmFollowUp, EndConversation and AbandonTurn run on the worker
// side. The fields both sides touch are atomics: the producer owns
// frame-local transitions, the worker owns post-dispatch transitions, and
// neither ever waits for the other.
type ConversationController struct {
	cfg        ControllerConfig
	gate       *WakeGate
	endpointer *Endpointer
	queue      *DispatchQueue
	backend    Backend
	logger     *slog.Logger
	metrics    *observe.Metrics
	now        func() time.Time

	state            atomic.Int32
	speakingUntil    atomic.Int64 // unix nanos; frames are dropped before this
	armDeadline      atomic.Int64 // unix nanos; recording starts after this
	followUpDeadline atomic.Int64 // unix nanos
	followUp         atomic.Bool
	restartScheduled atomic.Bool // single-shot restart guard per follow-up arming
	wakeResetPending atomic.Bool // gate reset requested; applied on the frame path
}

// ControllerOption customises a ConversationController.
type ControllerOption func(*ConversationController)

// WithClock overrides the controller's time source. Used by tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *ConversationController) {
		c.now = now
	}
}

func NewConversationController(
	cfg ControllerConfig,
	gate *WakeGate,
	endpointer *Endpointer,
	queue *DispatchQueue,
	backend Backend,
	logger *slog.Logger,
	metrics *observe.Metrics,
	opts ...ControllerOption,
) *ConversationController {
	c := &ConversationController{
		cfg:        cfg,
		gate:       gate,
		endpointer: endpointer,
		queue:      queue,
		backend:    backend,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current conversation state.
func (c *ConversationController) State() domain.ConversationState {
	return domain.ConversationState(c.state.Load())
}

// ProcessFrame routes one capture frame through the state machine. It is
// the only entry point on the real-time side.
func (c *ConversationController) ProcessFrame(frame []float32) {
	now := c.now()

	// Self-speech protection: while the assistant's own audio may still be
	// playing, nothing reaches the wake gate or the endpointer.
	if now.UnixNano() < c.speakingUntil.Load() {
		c.metrics.FramesDropped.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "speaking")))
		return
	}

	switch domain.ConversationState(c.state.Load()) {
	case domain.StateWakeListening:
		// The gate's buffer belongs to the frame path, so resets requested
		// by the worker are applied here, never concurrently.
		if c.wakeResetPending.CompareAndSwap(true, false) {
			c.gate.Reset()
		}
		if c.gate.Feed(frame) {
			c.onWakeTriggered(now)
		}

	case domain.StateArming:
		if now.UnixNano() >= c.armDeadline.Load() {
			c.startRecording(now, false)
		}

	case domain.StateRecording:
		c.processRecordingFrame(frame, now)

	case domain.StateFollowUpWaiting:
		if now.UnixNano() > c.followUpDeadline.Load() {
			c.logger.Info("follow-up timeout, returning to wake word mode")
			c.exitFollowUp()
		} else if c.restartScheduled.CompareAndSwap(false, true) {
			c.startRecording(now, true)
		}
	}
}

func (c *ConversationController) onWakeTriggered(now time.Time) {
	c.logger.Info("wake word detected")
	c.metrics.WakeDetections.Add(context.Background(), 1)

	// The acknowledgement is fire-and-forget; the protection window covers
	// its estimated playback so the prompt is not re-captured.
	go c.playAck()

	deadline := now.Add(c.cfg.AckWindow).UnixNano()
	c.speakingUntil.Store(deadline)
	c.armDeadline.Store(deadline)
	c.state.Store(int32(domain.StateArming))
}

func (c *ConversationController) playAck() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.SpeakTimeout)
	defer cancel()
	if err := c.backend.Speak(ctx, c.cfg.AckText); err != nil {
		c.logger.Warn("playing acknowledgement", "error", err)
	}
}

func (c *ConversationController) startRecording(now time.Time, followUp bool) {
	c.endpointer.Begin(now, followUp)
	c.state.Store(int32(domain.StateRecording))
	c.logger.Info("listening for command", "follow_up", followUp)
}

func (c *ConversationController) processRecordingFrame(frame []float32, now time.Time) {
	decision, u := c.endpointer.ProcessFrame(frame, now)
	switch decision {
	case DecisionContinue:
		return

	case DecisionDiscardTooShort, DecisionDiscardTooQuiet:
		c.logger.Debug("recording discarded", "reason", decision.String())
		c.metrics.Discard(context.Background(), decision.String())

	case DecisionFinalize:
		c.logger.Info("recording finished",
			"duration", u.Duration(c.cfg.SampleRate),
			"peak", u.Peak,
		)
		if c.queue.TryEnqueue(u) {
			c.metrics.UtterancesDispatched.Add(context.Background(), 1)
		} else {
			c.logger.Warn("dispatch queue full, dropping utterance")
			c.metrics.QueueOverflows.Add(context.Background(), 1)
		}
	}

	c.afterRecording(now)
}

// afterRecording decides where to idle while the worker (possibly) runs.
// In an unexpired follow-up window the controller parks in FollowUpWaiting
// with the restart flag still set, so no second recording starts for this
// arming; otherwise it tentatively returns to wake listening, pending the
// worker's result.
func (c *ConversationController) afterRecording(now time.Time) {
	if c.followUp.Load() && now.UnixNano() <= c.followUpDeadline.Load() {
		c.state.Store(int32(domain.StateFollowUpWaiting))
		return
	}
	c.followUp.Store(false)
	c.wakeResetPending.Store(true)
	c.state.Store(int32(domain.StateWakeListening))
}

// ArmFollowUp is called by the worker after a successful backend turn. The
// backend has already finished its own playback by the time the reply
// arrives, so the protection window closes immediately and the next frame
// restarts recording without a wake word.
func (c *ConversationController) ArmFollowUp() {
	now := c.now()
	c.speakingUntil.Store(now.UnixNano())
	c.followUpDeadline.Store(now.Add(c.cfg.FollowUpTimeout).UnixNano())
	c.followUp.Store(true)
	c.restartScheduled.Store(false)

	// A recording the producer already restarted keeps running; it will be
	// routed into the fresh follow-up window when it stops.
	if domain.ConversationState(c.state.Load()) != domain.StateRecording {
		c.state.Store(int32(domain.StateFollowUpWaiting))
	}
	c.logger.Info("follow-up mode armed", "timeout", c.cfg.FollowUpTimeout)
}

// EndConversation is called by the worker when the transcript asked to end
// the session.
func (c *ConversationController) EndConversation() {
	c.exitFollowUp()
	c.logger.Info("returning to wake word mode")
}

// AbandonTurn is called by the worker when a collaborator failed. The turn
// is dropped and the pipeline returns to wake listening.
func (c *ConversationController) AbandonTurn() {
	c.exitFollowUp()
}

func (c *ConversationController) exitFollowUp() {
	c.followUp.Store(false)
	c.wakeResetPending.Store(true)
	c.state.Store(int32(domain.StateWakeListening))
}
