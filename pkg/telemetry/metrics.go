package telemetry

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	maxPathSample = 256
)

var (
	attrMethod     = attribute.Key("http.request.method")
	attrPath       = attribute.Key("http.route")
	attrStatus     = attribute.Key("http.response.status_code")
	attrRequestErr = attribute.Key("client.request.error")
	attrRefreshOK  = attribute.Key("client.refresh.success")
)

type metrics struct {
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
	errors    metric.Float64Histogram
	refreshes metric.Int64Counter
	retries   metric.Int64Counter
}

// RequestData captures the metadata recorded for each outbound API call.
type RequestData struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Error    error
}

func newMetrics(m meterProvider) (*metrics, error) {
	if m == nil {
		return &metrics{}, nil
	}
	requests, err := m.Int64Counter("client.requests.total", metric.WithDescription("Total number of outbound API requests."))
	if err != nil {
		return nil, err
	}
	latency, err := m.Float64Histogram("client.request.latency.ms", metric.WithDescription("API request round-trip latency in milliseconds."), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	errorRate, err := m.Float64Histogram("client.errors.rate", metric.WithDescription("Per-request error indicator (0 or 1)."), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}
	refreshes, err := m.Int64Counter("client.token.refreshes.total", metric.WithDescription("Total number of silent token-refresh attempts."))
	if err != nil {
		return nil, err
	}
	retries, err := m.Int64Counter("client.retries.total", metric.WithDescription("Total number of requests replayed after a token refresh."))
	if err != nil {
		return nil, err
	}
	return &metrics{
		requests:  requests,
		latency:   latency,
		errors:    errorRate,
		refreshes: refreshes,
		retries:   retries,
	}, nil
}

func (m *metrics) RecordRequest(ctx context.Context, data RequestData) {
	if m == nil || m.requests == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 4)
	if method := strings.TrimSpace(data.Method); method != "" {
		attrs = append(attrs, attrMethod.String(method))
	}
	if path := sanitizeSample(data.Path); path != "" {
		attrs = append(attrs, attrPath.String(path))
	}
	if data.Status != 0 {
		attrs = append(attrs, attrStatus.Int(data.Status))
	}
	errFlag := data.Error != nil
	attrs = append(attrs, attrRequestErr.Bool(errFlag))

	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if data.Duration > 0 && m.latency != nil {
		m.latency.Record(ctx, float64(data.Duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if m.errors != nil {
		if errFlag {
			m.errors.Record(ctx, 1, metric.WithAttributes(attrs...))
		} else {
			m.errors.Record(ctx, 0, metric.WithAttributes(attrs...))
		}
	}
}

func (m *metrics) RecordRefresh(ctx context.Context, success bool) {
	if m == nil || m.refreshes == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attrRefreshOK.Bool(success)))
}

func (m *metrics) RecordRetry(ctx context.Context) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1)
}

func sanitizeSample(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if utf8.RuneCountInString(value) <= maxPathSample {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxPathSample])
}

// meterProvider is the subset of metric.Meter we rely on, which makes
// dependency injection straightforward in tests.
type meterProvider interface {
	Int64Counter(name string, opts ...metric.Int64CounterOption) (metric.Int64Counter, error)
	Float64Histogram(name string, opts ...metric.Float64HistogramOption) (metric.Float64Histogram, error)
}
