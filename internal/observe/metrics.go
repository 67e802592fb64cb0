// Package observe holds the OpenTelemetry metric instruments for decoding
// and validation, and the Prometheus bridge that exposes them on /metrics.
//
// Tests should build their own [Metrics] with [NewMetrics] over a manual
// reader rather than use [DefaultMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/leapstack-labs/incant"

// Metrics holds all instruments. Safe for concurrent use.
type Metrics struct {
	// DecodeDuration tracks time to decode and emit one stream.
	// Attributes: dialect, status.
	DecodeDuration metric.Float64Histogram

	// DecodedUnits counts words decoded. Attributes: dialect.
	DecodedUnits metric.Int64Counter

	// DecodeFaults counts runtime faults. Attributes: dialect, kind.
	DecodeFaults metric.Int64Counter

	// Validations counts dialect validations. Attributes: dialect, status.
	Validations metric.Int64Counter

	// Reloads counts registry reloads. Attributes: status.
	Reloads metric.Int64Counter

	// ActiveDecodes tracks decodes in flight.
	ActiveDecodes metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP latency. Attributes: method, route, code.
	HTTPRequestDuration metric.Float64Histogram
}

// Decoding a spell is sub-millisecond; buckets are in seconds.
var latencyBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DecodeDuration, err = m.Float64Histogram("incant.decode.duration",
		metric.WithDescription("Time to decode and emit one phoneme stream."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecodedUnits, err = m.Int64Counter("incant.decode.units",
		metric.WithDescription("Words decoded by dialect."),
	); err != nil {
		return nil, err
	}
	if met.DecodeFaults, err = m.Int64Counter("incant.decode.faults",
		metric.WithDescription("Decode faults by dialect and fault kind."),
	); err != nil {
		return nil, err
	}
	if met.Validations, err = m.Int64Counter("incant.validations",
		metric.WithDescription("Dialect validations by dialect and status."),
	); err != nil {
		return nil, err
	}
	if met.Reloads, err = m.Int64Counter("incant.reloads",
		metric.WithDescription("Dialect registry reloads by status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveDecodes, err = m.Int64UpDownCounter("incant.decode.active",
		metric.WithDescription("Decodes in flight."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("incant.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status code."),
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

// DefaultMetrics returns the package-level instance built on the global
// meter provider. It panics if instrument creation fails.
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

// RecordDecode records one finished decode. fault is empty on success.
func (m *Metrics) RecordDecode(ctx context.Context, dialect string, units int, seconds float64, fault string) {
	status := "ok"
	if fault != "" {
		status = "failed"
		m.DecodeFaults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("dialect", dialect),
			attribute.String("kind", fault),
		))
	}
	m.DecodedUnits.Add(ctx, int64(units), metric.WithAttributes(attribute.String("dialect", dialect)))
	m.DecodeDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("dialect", dialect),
		attribute.String("status", status),
	))
}

// RecordValidation records one dialect validation.
func (m *Metrics) RecordValidation(ctx context.Context, dialect string, ok bool) {
	m.Validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dialect", dialect),
		attribute.String("status", statusOf(ok)),
	))
}

// RecordReload records one registry reload.
func (m *Metrics) RecordReload(ctx context.Context, ok bool) {
	m.Reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", statusOf(ok))))
}

func statusOf(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
