package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that hit no registered route. The raw URL is never used as
// a label: portal URLs carry bearer tokens.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter, namespace string) (*httpMetrics, error) {
	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("HTTP requests by method, route template and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request latency by method, route template and status code"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	return &httpMetrics{requests: requests, duration: duration}, nil
}

func (m *httpMetrics) record(c *gin.Context, elapsed time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("route", routeLabel(c.FullPath())),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)
	m.requests.Add(c.Request.Context(), 1, opt)
	m.duration.Record(c.Request.Context(), elapsed.Seconds(), opt)
}

// HTTPMetricsMiddleware counts requests and records their latency, labelled by route
// template (/portal/quotes/:token), so rate-limited (429) and gone (410) responses show up
// per endpoint. If the instruments cannot be created the middleware passes requests through.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	m, err := newHTTPMetrics(meterProvider.Meter(namespace), namespace)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.record(c, time.Since(start))
	}
}

func routeLabel(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}
