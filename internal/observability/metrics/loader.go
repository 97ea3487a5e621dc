package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LoaderMetrics records batch loader activity.
type LoaderMetrics struct {
	batches  metric.Int64Counter
	keys     metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewLoaderMetrics registers the loader instruments on m.
func NewLoaderMetrics(m *Meter) (*LoaderMetrics, error) {
	batches, err := m.counter("loader.batches", "Number of batch queries issued by loaders")
	if err != nil {
		return nil, err
	}
	keys, err := m.counter("loader.keys", "Number of keys dispatched by loaders")
	if err != nil {
		return nil, err
	}
	failures, err := m.counter("loader.failures", "Number of failed loader batches")
	if err != nil {
		return nil, err
	}
	latency, err := m.histogram("loader.batch.duration", "Loader batch query latency", "ms")
	if err != nil {
		return nil, err
	}
	return &LoaderMetrics{batches: batches, keys: keys, failures: failures, latency: latency}, nil
}

// ObserveBatch records one dispatched batch.
func (l *LoaderMetrics) ObserveBatch(ctx context.Context, loader string, keys int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("loader", loader))
	l.batches.Add(ctx, 1, attrs)
	l.keys.Add(ctx, int64(keys), attrs)
	l.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		l.failures.Add(ctx, 1, attrs)
	}
}
