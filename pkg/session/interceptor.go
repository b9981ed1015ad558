package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/telemetry"
)

// Handler 执行单个出站请求并返回信封响应。
type Handler func(ctx context.Context, req *Request) (*api.Response, error)

// Interceptor 拦截出站请求，按洋葱模型串联。
type Interceptor interface {
	// Name 返回拦截器名称。
	Name() string

	// Intercept 处理请求，决定是否调用 next。
	Intercept(ctx context.Context, req *Request, next Handler) (*api.Response, error)
}

// chain 将拦截器从外到内组装成一个 Handler，第一个元素在最外层。
func chain(interceptors []Interceptor, final Handler) Handler {
	handler := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic := interceptors[i]
		next := handler
		handler = func(ctx context.Context, req *Request) (*api.Response, error) {
			return ic.Intercept(ctx, req, next)
		}
	}
	return handler
}

// requestIDInterceptor 为每个请求附加 X-Request-ID。
type requestIDInterceptor struct{}

func (requestIDInterceptor) Name() string { return "request-id" }

func (requestIDInterceptor) Intercept(ctx context.Context, req *Request, next Handler) (*api.Response, error) {
	if req.header().Get("X-Request-ID") == "" {
		req.header().Set("X-Request-ID", uuid.NewString())
	}
	return next(ctx, req)
}

// telemetryInterceptor 记录请求级 span 与指标。
type telemetryInterceptor struct {
	tel *telemetry.Manager
}

func (telemetryInterceptor) Name() string { return "telemetry" }

func (t telemetryInterceptor) Intercept(ctx context.Context, req *Request, next Handler) (*api.Response, error) {
	ctx, span := t.tel.StartSpan(ctx, "api.request", trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	resp, err := next(ctx, req)
	status := 0
	if resp != nil {
		status = resp.Status
	} else if err != nil {
		status = api.StatusOf(err)
	}
	t.tel.RecordRequest(ctx, telemetry.RequestData{
		Method:   req.Method,
		Path:     req.Path,
		Status:   status,
		Duration: time.Since(start),
		Error:    err,
	})
	telemetry.EndSpan(span, err)
	return resp, err
}

// authInterceptor 注入 Bearer 凭证；首次遇到 401 时静默刷新并重放一次，
// 重放后的 401 视为终态，不再进入刷新循环。
type authInterceptor struct {
	client *Client
}

func (authInterceptor) Name() string { return "auth" }

func (a authInterceptor) Intercept(ctx context.Context, req *Request, next Handler) (*api.Response, error) {
	if !req.skipAuth {
		if creds := a.client.Credentials(); creds.AccessToken != "" {
			req.header().Set("Authorization", "Bearer "+creds.AccessToken)
		}
	}

	resp, err := next(ctx, req)
	if err == nil || req.skipAuth || req.retried || !api.IsUnauthorized(err) {
		return resp, err
	}

	// 每个请求最多刷新一次。
	req.retried = true

	creds := a.client.Credentials()
	if creds.RefreshToken == "" {
		// 无 refresh token 时不发刷新请求，直接清除残留凭证并发出
		// 重新认证信号。
		a.client.failSession(req.ReturnTo)
		return nil, err
	}

	if rerr := a.client.refresh(ctx); rerr != nil {
		a.client.tel.RecordRefresh(ctx, false)
		a.client.failSession(req.ReturnTo)
		return nil, rerr
	}
	a.client.tel.RecordRefresh(ctx, true)
	a.client.tel.RecordRetry(ctx)

	req.header().Set("Authorization", "Bearer "+a.client.Credentials().AccessToken)
	return next(ctx, req)
}
