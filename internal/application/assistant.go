package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Assistant ties the capture source, the conversation controller and the
// background worker together for the lifetime of the process.
type Assistant struct {
	capture CaptureSource
	ctrl    *ConversationController
	worker  *Worker
	backend Backend
	logger  *slog.Logger
}

func NewAssistant(
	capture CaptureSource,
	ctrl *ConversationController,
	worker *Worker,
	backend Backend,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		capture: capture,
		ctrl:    ctrl,
		worker:  worker,
		backend: backend,
		logger:  logger,
	}
}

// Run probes the backend, starts the capture source, and pumps frames into
// the controller while the worker drains the dispatch queue. It blocks until
// the context is cancelled or a fatal error occurs.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("checking backend health")
	if err := a.backend.Health(ctx); err != nil {
		return fmt.Errorf("backend health check: %w", err)
	}

	a.logger.Info("starting audio capture", "source", a.capture.Name())
	if err := a.capture.Start(ctx); err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}
	defer a.capture.Stop()

	a.logger.Info("assistant ready, say the wake word")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.worker.Run(gctx)
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case frame, ok := <-a.capture.Frames():
				if !ok {
					a.logger.Info("capture source drained")
					return nil
				}
				a.ctrl.ProcessFrame(frame)
			}
		}
	})

	return g.Wait()
}
