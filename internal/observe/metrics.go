// Package observe provides the pipeline's observability primitives:
// OpenTelemetry metric instruments and a Prometheus exporter bridge so they
// can be scraped via a standard /metrics endpoint.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name for all pipeline metrics.
const meterName = "jarvis-voice"

// Metrics holds the metric instruments for the capture pipeline. All fields
// are safe for concurrent use; the underlying OTel types handle their own
// synchronisation.
type Metrics struct {
	// WakeDetections counts wake-word triggers.
	WakeDetections metric.Int64Counter

	// FramesDropped counts frames discarded before reaching the pipeline.
	// Attribute: reason ("speaking").
	FramesDropped metric.Int64Counter

	// UtterancesDispatched counts utterances handed to the worker.
	UtterancesDispatched metric.Int64Counter

	// UtterancesDiscarded counts utterances that never reached the backend.
	// Attribute: reason ("too_short", "too_quiet", "empty_transcript",
	// "self_echo", "conversation_end", "transcribe_error", "backend_error").
	UtterancesDiscarded metric.Int64Counter

	// QueueOverflows counts finalized utterances dropped because the
	// dispatch queue was full.
	QueueOverflows metric.Int64Counter

	// TurnsCompleted counts successful converse round trips.
	TurnsCompleted metric.Int64Counter

	// TranscribeDuration tracks ASR latency in seconds.
	TranscribeDuration metric.Float64Histogram

	// ConverseDuration tracks backend turn latency in seconds.
	ConverseDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries (seconds) sized for local ASR and
// backend turn latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45,
}

// NewMetrics creates all instruments on the given provider. Tests should
// pass their own provider to avoid cross-test pollution.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.WakeDetections, err = m.Int64Counter("jarvis.wake.detections",
		metric.WithDescription("Number of wake-word triggers."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("jarvis.frames.dropped",
		metric.WithDescription("Frames dropped before reaching the pipeline."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesDispatched, err = m.Int64Counter("jarvis.utterances.dispatched",
		metric.WithDescription("Utterances handed to the background worker."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesDiscarded, err = m.Int64Counter("jarvis.utterances.discarded",
		metric.WithDescription("Utterances discarded before reaching the backend."),
	); err != nil {
		return nil, err
	}
	if met.QueueOverflows, err = m.Int64Counter("jarvis.queue.overflows",
		metric.WithDescription("Finalized utterances dropped due to a full dispatch queue."),
	); err != nil {
		return nil, err
	}
	if met.TurnsCompleted, err = m.Int64Counter("jarvis.turns.completed",
		metric.WithDescription("Successful backend conversation turns."),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("jarvis.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ConverseDuration, err = m.Float64Histogram("jarvis.converse.duration",
		metric.WithDescription("Latency of backend conversation turns."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// NewNoopMetrics returns instruments that record nothing. Used when metrics
// are disabled and as a default in tests.
func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// Discard records a discarded utterance with its reason.
func (m *Metrics) Discard(ctx context.Context, reason string) {
	m.UtterancesDiscarded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
