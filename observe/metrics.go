// Package observe records OpenTelemetry metrics for the spectrogram engine
// and exposes them to Prometheus.
//
// Tests should build their own [Metrics] with [NewMetrics] and a
// ManualReader backed provider; [DefaultMetrics] uses the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tasmanvs/MusicMaker"

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// FramesAppended counts analyzer frames retained in the history.
	FramesAppended metric.Int64Counter

	// FramesRendered counts raster paints. Use with attribute
	// attribute.String("strategy", ...).
	FramesRendered metric.Int64Counter

	RenderDuration metric.Float64Histogram

	// ClipsEncoded counts WAV containers produced by export or save.
	ClipsEncoded metric.Int64Counter

	// EncodedBytes tracks the size of produced containers.
	EncodedBytes metric.Int64Histogram

	// DecodeErrors counts containers that failed to decode.
	DecodeErrors metric.Int64Counter

	// StaleDecodes counts decode results discarded because a newer load won.
	StaleDecodes metric.Int64Counter

	// CaptureSessions tracks active capture sessions. Use with attribute
	// attribute.String("mode", ...).
	CaptureSessions metric.Int64UpDownCounter

	HTTPRequestDuration metric.Float64Histogram
}

var renderBuckets = []float64{
	0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesAppended, err = m.Int64Counter("musicmaker.frames.appended",
		metric.WithDescription("Analyzer frames retained in the history."),
	); err != nil {
		return nil, err
	}
	if met.FramesRendered, err = m.Int64Counter("musicmaker.frames.rendered",
		metric.WithDescription("Raster paints by strategy."),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("musicmaker.render.duration",
		metric.WithDescription("Time spent painting one tick."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(renderBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClipsEncoded, err = m.Int64Counter("musicmaker.clips.encoded",
		metric.WithDescription("WAV containers produced."),
	); err != nil {
		return nil, err
	}
	if met.EncodedBytes, err = m.Int64Histogram("musicmaker.clips.encoded_bytes",
		metric.WithDescription("Size of produced WAV containers."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.DecodeErrors, err = m.Int64Counter("musicmaker.decode.errors",
		metric.WithDescription("Containers that failed to decode."),
	); err != nil {
		return nil, err
	}
	if met.StaleDecodes, err = m.Int64Counter("musicmaker.decode.stale",
		metric.WithDescription("Decode results discarded in favour of a newer load."),
	); err != nil {
		return nil, err
	}
	if met.CaptureSessions, err = m.Int64UpDownCounter("musicmaker.capture.active",
		metric.WithDescription("Active capture sessions by mode."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("musicmaker.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider].
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRender records one paint of the given strategy.
func (m *Metrics) RecordRender(ctx context.Context, strategy string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.FramesRendered.Add(ctx, 1, attrs)
	m.RenderDuration.Record(ctx, seconds, attrs)
}

// RecordEncode records one produced container of size bytes.
func (m *Metrics) RecordEncode(ctx context.Context, size int) {
	m.ClipsEncoded.Add(ctx, 1)
	m.EncodedBytes.Record(ctx, int64(size))
}

// CaptureStarted and CaptureEnded move the active session gauge for mode.
func (m *Metrics) CaptureStarted(ctx context.Context, mode string) {
	m.CaptureSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *Metrics) CaptureEnded(ctx context.Context, mode string) {
	m.CaptureSessions.Add(ctx, -1, metric.WithAttributes(attribute.String("mode", mode)))
}
