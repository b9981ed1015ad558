package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

func TestFilterMasking(t *testing.T) {
	filter, err := NewFilter(FilterConfig{
		Mask:     "<safe>",
		Patterns: []string{`user\d+`},
	})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	raw := `token=super-secret-123 user42 says hi`
	if got := filter.MaskText(raw); strings.Contains(got, "super-secret") || strings.Contains(got, "user42") {
		t.Fatalf("expected sensitive segments masked, got %q", got)
	}
	attrs := filter.MaskAttributes(
		attribute.String("authorization", "Bearer abcdef12345678"),
		attribute.StringSlice("users", []string{"user1", "user2"}),
	)
	for _, attr := range attrs {
		switch attr.Key {
		case "authorization":
			if strings.Contains(attr.Value.AsString(), "abcdef") {
				t.Fatalf("expected bearer token masked, got %q", attr.Value.AsString())
			}
		case "users":
			for _, v := range attr.Value.AsStringSlice() {
				if v != "<safe>" {
					t.Fatalf("expected user masked, got %q", v)
				}
			}
		}
	}
}

func TestFilterMasksTokenPairJSON(t *testing.T) {
	filter, err := NewFilter(FilterConfig{})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	body := `{"accessToken":"eyJhbGciOiJIUzI1NiJ9.payload.sig","refreshToken":"opaque-refresh-value"}`
	masked := filter.MaskText(body)
	if strings.Contains(masked, "eyJhbGci") || strings.Contains(masked, "opaque-refresh-value") {
		t.Fatalf("expected token pair masked, got %q", masked)
	}
}

func TestManagerRecordsMetricsAndSpans(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	cfg := Config{
		ServiceName:    "unit-test-client",
		ServiceVersion: "test",
		Environment:    "ci",
		MeterProvider:  mp,
		TracerProvider: tp,
		Filter: FilterConfig{
			Mask:     "<removed>",
			Patterns: []string{`demo`},
		},
	}
	mgr, err := NewManager(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	SetDefault(mgr)
	t.Cleanup(func() {
		SetDefault(nil)
		_ = mgr.Shutdown(context.Background())
	})

	ctx := context.Background()
	ctx, span := StartSpan(ctx, "test.span", trace.WithSpanKind(trace.SpanKindClient))
	RecordRequest(ctx, RequestData{
		Method:   "GET",
		Path:     "/api/v1/hotels?demo=1",
		Status:   200,
		Duration: 25 * time.Millisecond,
	})
	mgr.RecordRefresh(ctx, true)
	mgr.RecordRetry(ctx)
	EndSpan(span, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	reqMetric := findMetric(t, rm, "client.requests.total")
	sum, ok := reqMetric.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected request metric payload: %#v", reqMetric.Data)
	}
	if val, ok := sum.DataPoints[0].Attributes.Value(attrPath); !ok || strings.Contains(val.AsString(), "demo") {
		t.Fatalf("expected sanitized path attribute, got %v", val.AsString())
	}
	refreshMetric := findMetric(t, rm, "client.token.refreshes.total")
	if _, ok := refreshMetric.Data.(metricdata.Sum[int64]); !ok {
		t.Fatalf("unexpected refresh metric payload: %#v", refreshMetric.Data)
	}
	retryMetric := findMetric(t, rm, "client.retries.total")
	if _, ok := retryMetric.Data.(metricdata.Sum[int64]); !ok {
		t.Fatalf("unexpected retry metric payload: %#v", retryMetric.Data)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "test.span" {
		t.Fatalf("unexpected span name %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[0].Status.Code)
	}
}

func TestSanitizeAttributes(t *testing.T) {
	filter, err := NewFilter(FilterConfig{})
	if err != nil {
		t.Fatalf("new filter: %v", err)
	}
	mgr := &Manager{
		filter:  filter,
		metrics: &metrics{},
	}
	SetDefault(mgr)
	defer SetDefault(nil)

	masked := SanitizeAttributes(attribute.String("auth", "Bearer very-secret-42abc"))
	if len(masked) != 1 || strings.Contains(masked[0].Value.AsString(), "very-secret") {
		t.Fatalf("expected masked attribute, got %+v", masked)
	}
	if got := mgr.MaskText("token=very-secret-42abc"); strings.Contains(got, "very-secret") {
		t.Fatalf("expected masked text, got %q", got)
	}
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			if metric.Name == name {
				return metric
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Metrics{}
}

func TestBuildResourceDefaults(t *testing.T) {
	res, err := buildResource(Config{ServiceVersion: "v1.2.3", Environment: "staging"})
	if err != nil {
		t.Fatalf("build resource: %v", err)
	}
	attrs := res.Attributes()
	vals := map[attribute.Key]string{}
	for _, attr := range attrs {
		vals[attr.Key] = attr.Value.AsString()
	}
	if vals[semconv.ServiceNameKey] != "tripwell-go" {
		t.Fatalf("expected default service name, got %q", vals[semconv.ServiceNameKey])
	}
	if vals[semconv.ServiceVersionKey] != "v1.2.3" {
		t.Fatalf("version missing: %+v", vals)
	}
	if vals[semconv.DeploymentEnvironmentKey] != "staging" {
		t.Fatalf("environment missing: %+v", vals)
	}
}

func TestManagerShutdownClosesProviders(t *testing.T) {
	tracer := newClosingTracerProvider()
	meter := newClosingMeterProvider()
	mgr, err := NewManager(context.Background(), Config{
		ServiceName:    "test",
		ServiceVersion: "v",
		TracerProvider: tracer,
		MeterProvider:  meter,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !tracer.closed || !meter.closed {
		t.Fatalf("expected providers to close tracer=%v meter=%v", tracer.closed, meter.closed)
	}
}

func TestNewMetricsPropagatesErrors(t *testing.T) {
	meter := &failingMeter{}
	if _, err := newMetrics(meter); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestSanitizeSampleTruncates(t *testing.T) {
	long := strings.Repeat("🙂", maxPathSample+5)
	got := sanitizeSample("  " + long + "  ")
	if utf8.RuneCountInString(got) != maxPathSample {
		t.Fatalf("expected truncation to %d runes, got %d", maxPathSample, utf8.RuneCountInString(got))
	}
	short := sanitizeSample("  hi  ")
	if short != "hi" {
		t.Fatalf("expected trimmed short sample, got %q", short)
	}
}

type closingTracerProvider struct {
	*sdktrace.TracerProvider
	closed bool
}

func newClosingTracerProvider() *closingTracerProvider {
	return &closingTracerProvider{TracerProvider: sdktrace.NewTracerProvider()}
}

func (c *closingTracerProvider) Shutdown(ctx context.Context) error {
	c.closed = true
	return c.TracerProvider.Shutdown(ctx)
}

type closingMeterProvider struct {
	*sdkmetric.MeterProvider
	closed bool
}

func newClosingMeterProvider() *closingMeterProvider {
	return &closingMeterProvider{MeterProvider: sdkmetric.NewMeterProvider()}
}

func (c *closingMeterProvider) Shutdown(ctx context.Context) error {
	c.closed = true
	return c.MeterProvider.Shutdown(ctx)
}

type failingMeter struct{}

func (f *failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("boom")
}

func (f *failingMeter) Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	return nil, nil
}

func TestNewManagerBuildsDefaults(t *testing.T) {
	mgr, err := NewManager(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx, span := mgr.StartSpan(context.Background(), "op")
	mgr.RecordRequest(ctx, RequestData{
		Method:   "POST",
		Path:     "/api/v1/auth/login",
		Status:   200,
		Duration: 5 * time.Millisecond,
	})
	mgr.RecordRefresh(ctx, false)
	attrs := mgr.SanitizeAttributes(attribute.String("token", "token=deadbeefcafe42"))
	if len(attrs) != 1 || strings.Contains(attrs[0].Value.AsString(), "deadbeef") {
		t.Fatalf("expected sanitized attribute, got %+v", attrs)
	}
	if masked := mgr.MaskText("Bearer deadbeefcafe42"); strings.Contains(masked, "deadbeef") {
		t.Fatalf("expected sanitized text, got %q", masked)
	}
	EndSpan(span, nil)
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewManagerFilterError(t *testing.T) {
	_, err := NewManager(context.Background(), Config{Filter: FilterConfig{Patterns: []string{"("}}})
	if err == nil {
		t.Fatal("expected filter compile error")
	}
}

func TestGlobalHelpersWithoutManager(t *testing.T) {
	SetDefault(nil)
	ctx := context.Background()
	ctx, span := StartSpan(ctx, "noop")
	RecordRequest(ctx, RequestData{})
	out := SanitizeAttributes(attribute.String("token", "raw"))
	if out[0].Value.AsString() != "raw" {
		t.Fatalf("unexpected sanitation without manager: %+v", out)
	}
	if MaskText("raw") != "raw" {
		t.Fatal("mask should be no-op without manager")
	}
	EndSpan(span, nil)
}

func TestNewMetricsNilMeter(t *testing.T) {
	m, err := newMetrics(nil)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordRequest(context.Background(), RequestData{})
	m.RecordRefresh(context.Background(), true)
	m.RecordRetry(context.Background())
}

func TestManagerStartSpanWithoutTracer(t *testing.T) {
	mgr := &Manager{}
	ctx, span := mgr.StartSpan(context.Background(), "noop")
	if span == nil {
		t.Fatal("expected span even without tracer")
	}
	mgr.RecordRequest(ctx, RequestData{})
	mgr.RecordRefresh(ctx, false)
	EndSpan(span, nil)
}

func TestManagerSanitizeWithoutFilter(t *testing.T) {
	mgr := &Manager{}
	out := mgr.SanitizeAttributes(attribute.String("foo", "bar"))
	if len(out) != 1 || out[0].Value.AsString() != "bar" {
		t.Fatalf("expected passthrough attrs %+v", out)
	}
	if txt := mgr.MaskText("baz"); txt != "baz" {
		t.Fatalf("expected passthrough text, got %s", txt)
	}
}

func TestManagerShutdownNil(t *testing.T) {
	var mgr *Manager
	if err := mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil shutdown to succeed: %v", err)
	}
}
