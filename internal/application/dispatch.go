package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"jarvis-voice/internal/domain"
	"jarvis-voice/internal/observe"
)

// DispatchQueue is the bounded hand-off between the real-time frame path and
// the background worker. Single producer, single consumer. Enqueueing never
// blocks: when the queue is full the utterance is dropped, because stalling
// the audio path is worse than losing a command.
type DispatchQueue struct {
	ch chan *domain.Utterance
}

func NewDispatchQueue(capacity int) *DispatchQueue {
	if capacity <= 0 {
		capacity = 4
	}
	return &DispatchQueue{
		ch: make(chan *domain.Utterance, capacity),
	}
}

// TryEnqueue hands an utterance to the worker without blocking. It returns
// false when the queue is full.
func (q *DispatchQueue) TryEnqueue(u *domain.Utterance) bool {
	select {
	case q.ch <- u:
		return true
	default:
		return false
	}
}

// Len returns the number of queued utterances.
func (q *DispatchQueue) Len() int {
	return len(q.ch)
}

// WorkerConfig holds the worker-side timeouts and session identity.
type WorkerConfig struct {
	SampleRate        int
	SessionID         string
	ClearTimeout      time.Duration
	ConverseTimeout   time.Duration
	TranscribeTimeout time.Duration
}

func DefaultWorkerConfig(sampleRate int) WorkerConfig {
	return WorkerConfig{
		SampleRate:        sampleRate,
		SessionID:         "jarvis_main",
		ClearTimeout:      2 * time.Second,
		ConverseTimeout:   45 * time.Second,
		TranscribeTimeout: 30 * time.Second,
	}
}

// Worker drains the dispatch queue and performs all blocking work:
// transcription, transcript filtering, and the backend round trip. It
// processes exactly one utterance at a time, so backend calls for a session
// can never overlap or reorder. All collaborator failures are contained
// here; none propagate to the frame path.
type Worker struct {
	cfg     WorkerConfig
	queue   *DispatchQueue
	asr     Transcriber
	backend Backend
	filter  *SpeechFilter
	ctrl    *ConversationController
	sink    UtteranceSink
	logger  *slog.Logger
	metrics *observe.Metrics
}

func NewWorker(
	cfg WorkerConfig,
	queue *DispatchQueue,
	asr Transcriber,
	backend Backend,
	filter *SpeechFilter,
	ctrl *ConversationController,
	sink UtteranceSink,
	logger *slog.Logger,
	metrics *observe.Metrics,
) *Worker {
	return &Worker{
		cfg:     cfg,
		queue:   queue,
		asr:     asr,
		backend: backend,
		filter:  filter,
		ctrl:    ctrl,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// Run processes utterances until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-w.queue.ch:
			w.processUtterance(ctx, u)
		}
	}
}

func (w *Worker) processUtterance(ctx context.Context, u *domain.Utterance) {
	w.logger.Info("processing utterance",
		"duration", u.Duration(w.cfg.SampleRate),
		"peak", u.Peak,
		"follow_up", u.FollowUp,
	)

	if w.sink != nil {
		if err := w.sink.Dump(u, w.cfg.SampleRate); err != nil {
			w.logger.Warn("dumping utterance", "error", err)
		}
	}

	// Stale session context would bleed into the reply; clearing is best
	// effort and failures are ignored.
	clearCtx, cancel := context.WithTimeout(ctx, w.cfg.ClearTimeout)
	if err := w.backend.Clear(clearCtx, w.cfg.SessionID); err != nil {
		w.logger.Debug("clearing session", "error", err)
	}
	cancel()

	transcribeCtx, cancel := context.WithTimeout(ctx, w.cfg.TranscribeTimeout)
	start := time.Now()
	text, err := w.asr.Transcribe(transcribeCtx, u.Samples, w.cfg.SampleRate)
	cancel()
	w.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		w.logger.Error("transcribing", "error", err)
		w.metrics.Discard(ctx, "transcribe_error")
		w.ctrl.AbandonTurn()
		return
	}

	text = strings.TrimSpace(text)
	if len(text) < 2 {
		w.logger.Debug("no speech detected in transcription")
		w.metrics.Discard(ctx, "empty_transcript")
		return
	}

	if w.filter.IsSelfEcho(text) {
		w.logger.Info("filtered out self-speech feedback", "text", text)
		w.metrics.Discard(ctx, "self_echo")
		return
	}

	if w.filter.IsConversationEnd(text) {
		w.logger.Info("conversation ended by user", "text", text)
		w.metrics.Discard(ctx, "conversation_end")
		w.ctrl.EndConversation()
		return
	}

	w.logger.Info("transcribed command", "text", text)

	converseCtx, cancel := context.WithTimeout(ctx, w.cfg.ConverseTimeout)
	start = time.Now()
	reply, err := w.backend.Converse(converseCtx, text, w.cfg.SessionID)
	cancel()
	w.metrics.ConverseDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		// The turn is dropped, not retried; the controller falls back to
		// wake listening.
		w.logger.Error("backend turn failed", "error", err)
		w.metrics.Discard(ctx, "backend_error")
		w.ctrl.AbandonTurn()
		return
	}

	w.logger.Info("backend reply", "text", reply)
	w.metrics.TurnsCompleted.Add(ctx, 1)

	w.filter.RecordResponse(reply)
	w.ctrl.ArmFollowUp()
}
