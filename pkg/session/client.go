package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/config"
	"github.com/tripwell/tripwell-go/pkg/telemetry"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Request describes one outbound API call. Descriptors are single-use: the
// client tracks the per-request retry flag on them.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when RawBody is nil.
	Body any
	// RawBody is sent verbatim (multipart uploads). ContentType must be
	// set alongside it.
	RawBody     []byte
	ContentType string
	Header      http.Header
	// ReturnTo is carried on the auth-required event if the session
	// cannot be silently repaired, so the UI can resume there after the
	// user logs back in.
	ReturnTo string

	skipAuth bool
	retried  bool
	payload  []byte
	encoded  bool
}

func (r *Request) header() http.Header {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	return r.Header
}

// bodyBytes encodes the body once and caches it so a refresh-triggered
// replay resubmits identical bytes.
func (r *Request) bodyBytes() ([]byte, string, error) {
	if r.RawBody != nil {
		ct := r.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		return r.RawBody, ct, nil
	}
	if r.Body == nil {
		return nil, "", nil
	}
	if !r.encoded {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("session: encode request body: %w", err)
		}
		r.payload = payload
		r.encoded = true
	}
	ct := r.ContentType
	if ct == "" {
		ct = "application/json"
	}
	return r.payload, ct, nil
}

// Account is the user identity returned by login and registration.
type Account struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterParams are the fields accepted by the registration endpoint.
// SignUpCode is an optional admin-issued code gating privileged roles.
type RegisterParams struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	SignUpCode string `json:"signUpCode,omitempty"`
}

// Client is the single point every authenticated API call passes through.
// It owns the credential pair: only login, registration, refresh and logout
// mutate it, and always both tokens together.
type Client struct {
	base      *url.URL
	http      *http.Client
	store     Store
	broker    *Broker
	log       *zap.Logger
	tel       *telemetry.Manager
	userAgent string
	handler   Handler
	stopWatch func()

	mu    sync.RWMutex
	creds Credentials
}

// Option adjusts client construction.
type Option func(*Client)

// WithLogger wires a structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithStore overrides the credential store picked from the config.
func WithStore(store Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithTelemetry attaches a telemetry manager to the request pipeline.
func WithTelemetry(tel *telemetry.Manager) Option {
	return func(c *Client) { c.tel = tel }
}

// WithHTTPClient overrides the underlying HTTP client. The configured
// timeout is not re-applied; the caller owns it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a session client from cfg. Credentials present in the store are
// loaded immediately; a partial pair is discarded rather than trusted. When
// the store is file-backed, external writes to it are watched and folded in.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("session: parse base url: %w", err)
	}
	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: cfg.Timeout},
		broker:    NewBroker(),
		log:       zap.NewNop(),
		userAgent: cfg.UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		if cfg.TokenStorePath != "" {
			fs, err := NewFileStore(cfg.TokenStorePath, c.log)
			if err != nil {
				return nil, err
			}
			c.store = fs
		} else {
			c.store = NewMemoryStore()
		}
	}
	creds, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	c.creds = creds

	c.handler = chain([]Interceptor{
		telemetryInterceptor{tel: c.tel},
		requestIDInterceptor{},
		authInterceptor{client: c},
	}, c.send)

	if fs, ok := c.store.(*FileStore); ok {
		stop, err := fs.Watch(c.adoptExternal)
		if err != nil {
			c.log.Warn("token store watch unavailable", zap.Error(err))
		} else {
			c.stopWatch = stop
		}
	}
	return c, nil
}

// Close releases background resources (the store watcher).
func (c *Client) Close() error {
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	return nil
}

// Broker exposes the authentication event hub for subscribers.
func (c *Client) Broker() *Broker { return c.broker }

// Credentials returns a copy of the current pair.
func (c *Client) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Authenticated reports whether a complete credential pair is held.
func (c *Client) Authenticated() bool {
	return c.Credentials().Valid()
}

// Do sends req through the interceptor pipeline and returns the decoded
// envelope. Transport failures and non-2xx responses come back as errors;
// the single 401-triggered refresh-and-retry happens transparently.
func (c *Client) Do(ctx context.Context, req *Request) (*api.Response, error) {
	if req == nil || strings.TrimSpace(req.Method) == "" || strings.TrimSpace(req.Path) == "" {
		return nil, ErrInvalidRequest
	}
	return c.handler(ctx, req)
}

// Login exchanges credentials for a token pair, persists it and announces
// the authenticated session.
func (c *Client) Login(ctx context.Context, email, password string) (Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Account{}, fmt.Errorf("%w: email and password", ErrMissingInput)
	}
	req := &Request{
		Method:   http.MethodPost,
		Path:     api.PathLogin,
		Body:     map[string]string{"email": email, "password": password},
		skipAuth: true,
	}
	resp, err := c.handler(ctx, req)
	if err != nil {
		return Account{}, err
	}
	account, err := c.adoptTokenPair(resp)
	if err != nil {
		return Account{}, err
	}
	c.log.Info("login succeeded", zap.String("email", email))
	c.broker.Publish(Event{Kind: EventAuthenticated})
	return account, nil
}

// Register creates an account. The server logs the new user straight in, so
// the returned token pair is stored and EventAuthenticated is published.
func (c *Client) Register(ctx context.Context, params RegisterParams) (Account, error) {
	if strings.TrimSpace(params.Email) == "" || params.Password == "" || strings.TrimSpace(params.Name) == "" {
		return Account{}, fmt.Errorf("%w: email, password and name", ErrMissingInput)
	}
	req := &Request{
		Method:   http.MethodPost,
		Path:     api.PathRegister,
		Body:     params,
		skipAuth: true,
	}
	resp, err := c.handler(ctx, req)
	if err != nil {
		return Account{}, err
	}
	account, err := c.adoptTokenPair(resp)
	if err != nil {
		return Account{}, err
	}
	c.log.Info("registration succeeded", zap.String("email", params.Email))
	c.broker.Publish(Event{Kind: EventAuthenticated})
	return account, nil
}

// Logout invalidates the server-side session on a best-effort basis, then
// unconditionally clears the local pair and announces the logout.
func (c *Client) Logout(ctx context.Context) {
	if c.Credentials().AccessToken != "" {
		req := &Request{
			Method:  http.MethodPost,
			Path:    api.PathLogout,
			retried: true, // a 401 here must not trigger a refresh
		}
		if _, err := c.handler(ctx, req); err != nil {
			c.log.Warn("logout call failed, clearing local state anyway", zap.Error(err))
		}
	}
	c.clearCredentials()
	c.broker.Publish(Event{Kind: EventLoggedOut})
}

// CheckEmailExists asks whether an address already has an account, used to
// steer the login-versus-register flow.
func (c *Client) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, fmt.Errorf("%w: email", ErrMissingInput)
	}
	req := &Request{
		Method:   http.MethodPost,
		Path:     api.PathCheckEmailExists,
		Body:     map[string]string{"email": email},
		skipAuth: true,
	}
	resp, err := c.handler(ctx, req)
	if err != nil {
		return false, err
	}
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := resp.Decode(&out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// refresh exchanges the stored refresh token for a new pair. Called at most
// once per failed request by the auth interceptor.
func (c *Client) refresh(ctx context.Context) error {
	creds := c.Credentials()
	if creds.RefreshToken == "" {
		return ErrNoCredentials
	}
	req := &Request{
		Method:   http.MethodPost,
		Path:     api.PathRefreshToken,
		Body:     map[string]string{"refreshToken": creds.RefreshToken},
		skipAuth: true,
	}
	resp, err := c.handler(ctx, req)
	if err != nil {
		return fmt.Errorf("session: refresh token: %w", err)
	}
	if !resp.Success || resp.MetaData == nil || resp.MetaData.AccessToken == "" || resp.MetaData.RefreshToken == "" {
		return ErrRefreshFailed
	}
	c.setCredentials(Credentials{
		AccessToken:  resp.MetaData.AccessToken,
		RefreshToken: resp.MetaData.RefreshToken,
	})
	c.log.Debug("token pair refreshed")
	return nil
}

func (c *Client) adoptTokenPair(resp *api.Response) (Account, error) {
	if resp.MetaData == nil || resp.MetaData.AccessToken == "" || resp.MetaData.RefreshToken == "" {
		return Account{}, ErrMissingTokenPair
	}
	var account Account
	if len(resp.Data) > 0 {
		if err := resp.Decode(&account); err != nil {
			return Account{}, fmt.Errorf("session: decode account: %w", err)
		}
	}
	c.setCredentials(Credentials{
		AccessToken:  resp.MetaData.AccessToken,
		RefreshToken: resp.MetaData.RefreshToken,
	})
	return account, nil
}

// setCredentials writes both tokens together, never independently.
func (c *Client) setCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	if err := c.store.Save(creds); err != nil {
		c.log.Warn("persist credentials failed", zap.Error(err))
	}
}

func (c *Client) clearCredentials() {
	c.mu.Lock()
	c.creds = Credentials{}
	c.mu.Unlock()
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clear credential store failed", zap.Error(err))
	}
}

// failSession tears the session down after an unrecoverable authorization
// failure and asks the application to solicit a fresh login.
func (c *Client) failSession(returnTo string) {
	c.clearCredentials()
	c.log.Info("session expired, re-authentication required", zap.String("return_to", returnTo))
	c.broker.Publish(Event{
		Kind:     EventAuthRequired,
		ReturnTo: returnTo,
		Message:  "please log in to continue",
	})
}

// adoptExternal folds in a credential pair written by another process
// sharing the token store.
func (c *Client) adoptExternal(creds Credentials) {
	c.mu.Lock()
	changed := creds != c.creds
	c.creds = creds
	c.mu.Unlock()
	if changed {
		c.log.Debug("credentials reloaded from token store")
	}
}

// send is the innermost handler: it performs the HTTP exchange and decodes
// the response envelope.
func (c *Client) send(ctx context.Context, req *Request) (*api.Response, error) {
	body, contentType, err := req.bodyBytes()
	if err != nil {
		return nil, err
	}
	target := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("session: build request: %w", err)
	}
	for key, values := range req.Header {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("session: %s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("session: read response: %w", err)
	}
	return decodeEnvelope(httpResp.StatusCode, raw)
}

func decodeEnvelope(statusCode int, raw []byte) (*api.Response, error) {
	if statusCode < 200 || statusCode > 299 {
		apiErr := &api.Error{StatusCode: statusCode}
		var envelope api.Response
		if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Message
		}
		return nil, apiErr
	}
	if len(raw) == 0 {
		return &api.Response{Status: statusCode, Success: true}, nil
	}
	var envelope api.Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("session: decode response envelope: %w", err)
	}
	if envelope.Status == 0 {
		envelope.Status = statusCode
	}
	return &envelope, nil
}
