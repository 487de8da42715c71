package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goAuthClient/internal/refresh"
)

const requestIDHeader = "X-Request-ID"

// interceptor is the http.RoundTripper every API call goes through.
//
// Requests to the API origin get credentials attached. An auth-failure
// response on a non-auth endpoint waits for (or starts) the single-flight
// refresh and is then reissued exactly once. Requests to any other origin
// pass straight through.
type interceptor struct {
	next        http.RoundTripper
	origin      *url.URL
	authPaths   map[string]struct{}
	authFailure map[int]struct{}
	creds       *credentials
	coordinator *refresh.Coordinator
	metrics     *Metrics
	logger      *slog.Logger
}

func newInterceptor(next http.RoundTripper, cfg Config, base *url.URL, creds *credentials, coordinator *refresh.Coordinator, metrics *Metrics, logger *slog.Logger) *interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	authPaths := make(map[string]struct{}, 4)
	for _, p := range []string{cfg.API.LoginPath, cfg.API.RegisterPath, cfg.API.RefreshPath, cfg.API.LogoutPath} {
		authPaths[base.ResolveReference(&url.URL{Path: strings.TrimPrefix(p, "/")}).Path] = struct{}{}
	}
	authFailure := make(map[int]struct{}, len(cfg.Refresh.AuthFailureStatuses))
	for _, status := range cfg.Refresh.AuthFailureStatuses {
		authFailure[status] = struct{}{}
	}
	return &interceptor{
		next:        next,
		origin:      &url.URL{Scheme: base.Scheme, Host: base.Host},
		authPaths:   authPaths,
		authFailure: authFailure,
		creds:       creds,
		coordinator: coordinator,
		metrics:     metrics,
		logger:      logger,
	}
}

func (i *interceptor) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, i.origin.Scheme) && strings.EqualFold(u.Host, i.origin.Host)
}

func (i *interceptor) isAuthEndpoint(u *url.URL) bool {
	_, ok := i.authPaths[u.Path]
	return ok
}

func (i *interceptor) isAuthFailure(status int) bool {
	_, ok := i.authFailure[status]
	return ok
}

func (i *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if !i.sameOrigin(req.URL) {
		return i.next.RoundTrip(req)
	}

	req, err := ensureReplayable(req)
	if err != nil {
		return nil, err
	}

	ctx := req.Context()
	requestID := req.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = requestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// The generation is read before credentials are attached, so an attempt
	// that finishes in between is seen as "newer" and is not repeated.
	seen := i.coordinator.Generation()

	resp, err := i.send(req, requestID)
	if err != nil {
		return nil, err
	}
	if !i.isAuthFailure(resp.StatusCode) || i.isAuthEndpoint(req.URL) {
		return resp, nil
	}

	drain(resp)
	if i.coordinator.InFlight() {
		i.metrics.Inc(MetricRefreshJoined)
	}
	i.logger.Debug("authclient: auth failure, ensuring fresh session",
		"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "request_id", requestID)

	if err := i.coordinator.Ensure(ctx, seen); err != nil {
		return nil, err
	}

	i.metrics.Inc(MetricRequestRetried)
	retry, err := i.send(req, requestID)
	if err != nil {
		return nil, err
	}
	if i.isAuthFailure(retry.StatusCode) {
		i.metrics.Inc(MetricRetryFailed)
		i.logger.Warn("authclient: request rejected again after refresh",
			"method", req.Method, "path", req.URL.Path, "status", retry.StatusCode, "request_id", requestID)
		return nil, retryExhausted(req, retry)
	}
	return retry, nil
}

// send issues one attempt of req with fresh credentials.
func (i *interceptor) send(req *http.Request, requestID string) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		attempt.Body = body
	}
	attempt.Header.Set(requestIDHeader, requestID)
	gen := i.creds.attach(attempt)

	start := time.Now()
	resp, err := i.next.RoundTrip(attempt)
	i.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(resp.Header.Values("Set-Cookie")) > 0 && !i.creds.capture(gen, attempt.URL, resp) {
		i.logger.Debug("authclient: dropped cookies from a response that outlived its session",
			"method", req.Method, "path", req.URL.Path, "request_id", requestID)
	}
	return resp, nil
}

// ensureReplayable buffers a body that cannot be re-read, so the retry can
// resend it. The caller's request is left untouched.
func ensureReplayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	out := req.Clone(req.Context())
	out.ContentLength = int64(len(data))
	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxEnvelopeBytes))
	_ = resp.Body.Close()
}

// retryExhausted consumes resp and returns the FAILED outcome of a replay.
func retryExhausted(req *http.Request, resp *http.Response) error {
	defer resp.Body.Close()
	var env Envelope[json.RawMessage]
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	_ = json.Unmarshal(data, &env)
	return &APIError{
		Kind:       KindAuthenticationInvalid,
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		Path:       req.URL.Path,
		Message:    messageOr(env.Error, http.StatusText(resp.StatusCode)),
		Err:        ErrRetryExhausted,
	}
}

var _ http.RoundTripper = (*interceptor)(nil)

// ctxOrBackground mirrors http.Request.Context's nil handling for callers
// that build contexts by hand.
func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
