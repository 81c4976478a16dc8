package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// NewConsoleMetricsExporter installs a global meter provider whose periodic
// reader dumps JSON to w. The returned shutdown flushes the last collection,
// so short-lived commands still get one report.
func NewConsoleMetricsExporter(
	w io.Writer,
	interval, timeout time.Duration,
	opts ...stdoutmetric.Option,
) (func(ctx context.Context) error, error) {
	if w != nil {
		opts = append([]stdoutmetric.Option{stdoutmetric.WithWriter(w)}, opts...)
	}
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}
