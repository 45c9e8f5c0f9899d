package tests

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"jarvis-voice/internal/application"
	"jarvis-voice/internal/domain"
	"jarvis-voice/internal/observe"
)

type fakeCapture struct {
	frames chan []float32
}

func (f *fakeCapture) Start(_ context.Context) error { return nil }
func (f *fakeCapture) Stop() error                   { return nil }
func (f *fakeCapture) Name() string                  { return "fake" }
func (f *fakeCapture) Frames() <-chan []float32      { return f.frames }

type fakeDetector struct {
	frameLength int
	calls       int
	hits        map[int]bool
}

func (d *fakeDetector) FrameLength() int { return d.frameLength }

func (d *fakeDetector) Process(_ []int16) (int, error) {
	call := d.calls
	d.calls++
	if d.hits[call] {
		return 0, nil
	}
	return -1, nil
}

type fakeTranscriber struct {
	text string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []float32, _ int) (string, error) {
	return f.text, nil
}

type fakeBackend struct {
	mu           sync.Mutex
	healthCalled bool
	speaks       []string
	clears       []string
	converses    []string
	reply        string
	speakCh      chan string
	converseCh   chan string
}

func newFakeBackend(reply string) *fakeBackend {
	return &fakeBackend{
		reply:      reply,
		speakCh:    make(chan string, 8),
		converseCh: make(chan string, 8),
	}
}

func (b *fakeBackend) Speak(_ context.Context, text string) error {
	b.mu.Lock()
	b.speaks = append(b.speaks, text)
	b.mu.Unlock()
	b.speakCh <- text
	return nil
}

func (b *fakeBackend) Clear(_ context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears = append(b.clears, sessionID)
	return nil
}

func (b *fakeBackend) Converse(_ context.Context, text, _ string) (string, error) {
	b.mu.Lock()
	b.converses = append(b.converses, text)
	b.mu.Unlock()
	b.converseCh <- text
	return b.reply, nil
}

func (b *fakeBackend) Health(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthCalled = true
	return nil
}

func frame(amplitude float32) []float32 {
	f := make([]float32, 512)
	for i := range f {
		f[i] = amplitude
	}
	return f
}

func waitForState(t *testing.T, ctrl *application.ConversationController, want domain.ConversationState) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", ctrl.State(), want)
}

// Exercises the whole pipeline against fakes: wake word, acknowledgement,
// recording with silence endpointing, transcription, backend turn, follow-up
// window, and the fall back to wake-word listening.
func TestIntegration_WakeToReplyAndFollowUp(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observe.NewNoopMetrics()

	capture := &fakeCapture{frames: make(chan []float32, 64)}
	detector := &fakeDetector{frameLength: 512, hits: map[int]bool{0: true}}
	backend := newFakeBackend("it is noon")
	transcriber := &fakeTranscriber{text: "what time is it"}

	gate := application.NewWakeGate(detector, logger)
	endpointer := application.NewEndpointer(application.EndpointConfig{
		SampleRate:            16000,
		BaseSilenceThreshold:  0.003,
		DynamicThresholdRatio: 0.1,
		SilenceStop:           60 * time.Millisecond,
		MaxRecording:          5 * time.Second,
		MinRecording:          50 * time.Millisecond,
		QuietFloor:            0.001,
	}, application.NewEnergyTracker())
	queue := application.NewDispatchQueue(4)
	filter := application.NewSpeechFilter("jarvis")

	ctrlCfg := application.DefaultControllerConfig(16000)
	ctrlCfg.AckWindow = 50 * time.Millisecond
	ctrlCfg.FollowUpTimeout = 2 * time.Second
	ctrl := application.NewConversationController(ctrlCfg, gate, endpointer, queue, backend, logger, metrics)

	worker := application.NewWorker(
		application.DefaultWorkerConfig(16000),
		queue, transcriber, backend, filter, ctrl, nil, logger, metrics,
	)

	assistant := application.NewAssistant(capture, ctrl, worker, backend, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- assistant.Run(ctx)
	}()

	// Wake word.
	capture.frames <- frame(0.1)
	select {
	case ack := <-backend.speakCh:
		if ack != "Yes sir?" {
			t.Errorf("acknowledgement = %q, want %q", ack, "Yes sir?")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("acknowledgement never spoken")
	}

	// Let the acknowledgement window pass, then speak a command followed by
	// silence.
	time.Sleep(100 * time.Millisecond)
	capture.frames <- frame(0)
	waitForState(t, ctrl, domain.StateRecording)

	for i := 0; i < 4; i++ {
		capture.frames <- frame(0.1)
	}
	for i := 0; i < 3; i++ {
		capture.frames <- frame(0)
	}

	select {
	case text := <-backend.converseCh:
		if text != "what time is it" {
			t.Errorf("converse text = %q, want %q", text, "what time is it")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("backend never received the command")
	}

	waitForState(t, ctrl, domain.StateFollowUpWaiting)

	// A follow-up attempt that captures only silence is discarded and the
	// window keeps waiting.
	capture.frames <- frame(0)
	waitForState(t, ctrl, domain.StateRecording)
	for i := 0; i < 4; i++ {
		capture.frames <- frame(0)
	}
	waitForState(t, ctrl, domain.StateFollowUpWaiting)

	// The window expires and the pipeline is back to wake-word listening.
	time.Sleep(2200 * time.Millisecond)
	capture.frames <- frame(0)
	waitForState(t, ctrl, domain.StateWakeListening)

	close(capture.frames)
	cancel()

	select {
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("assistant never shut down")
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if !backend.healthCalled {
		t.Error("backend health never probed")
	}
	if len(backend.converses) != 1 {
		t.Errorf("backend turns = %v, want exactly one", backend.converses)
	}
	if len(backend.clears) != 1 || backend.clears[0] != "jarvis_main" {
		t.Errorf("session clears = %v, want [jarvis_main]", backend.clears)
	}
}
