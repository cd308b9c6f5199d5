package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AccessLogStats reports cumulative access log writer counters.
type AccessLogStats func() (written, dropped, failed int64)

// RegisterAccessLogObserver exports the access log writer counters as
// {namespace}_access_log_entries_total{result="written|dropped|failed"}. The values are read
// at collection time.
func RegisterAccessLogObserver(meterProvider metric.MeterProvider, namespace string, stats AccessLogStats) error {
	meter := meterProvider.Meter(namespace)

	counter, err := meter.Int64ObservableCounter(
		fmt.Sprintf("%s_access_log_entries_total", namespace),
		metric.WithDescription("Access log entries by persistence result"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create access log counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		written, dropped, failed := stats()
		o.ObserveInt64(counter, written, metric.WithAttributes(attribute.String("result", "written")))
		o.ObserveInt64(counter, dropped, metric.WithAttributes(attribute.String("result", "dropped")))
		o.ObserveInt64(counter, failed, metric.WithAttributes(attribute.String("result", "failed")))
		return nil
	}, counter)
	if err != nil {
		return fmt.Errorf("failed to register access log callback: %w", err)
	}
	return nil
}

// RegisterRateLimitWindowsObserver exports the number of live in-memory rate limit windows
// as {namespace}_rate_limit_windows.
func RegisterRateLimitWindowsObserver(meterProvider metric.MeterProvider, namespace string, size func() int) error {
	meter := meterProvider.Meter(namespace)

	_, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_rate_limit_windows", namespace),
		metric.WithDescription("Client windows currently tracked by the in-memory rate limiter"),
		metric.WithUnit("{window}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(size()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit windows gauge: %w", err)
	}
	return nil
}
