package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxEnvelopeBytes = 4 << 20

// ErrorMessages is the envelope's error field, which the backend sends as
// either a string or a list of strings.
type ErrorMessages []string

func (m *ErrorMessages) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*m = ErrorMessages{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

func (m ErrorMessages) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

func (m ErrorMessages) String() string {
	return strings.Join(m, ", ")
}

// Envelope is the wrapper every backend response uses.
type Envelope[T any] struct {
	Data       T             `json:"data"`
	StatusCode int           `json:"statusCode"`
	Timestamp  string        `json:"timestamp"`
	Path       string        `json:"path"`
	Method     string        `json:"method"`
	Success    bool          `json:"success"`
	Error      ErrorMessages `json:"error,omitempty"`
}

// Do sends one API call through the client's interceptor and decodes the
// envelope's data into T. endpoint is relative to Config.API.BaseURL; body,
// when non-nil, is sent as JSON.
//
// Failures are *APIError values except context cancellation, which is
// returned as the context's error.
func Do[T any](ctx context.Context, c *Client, method, endpoint string, query url.Values, body any) (*Envelope[T], error) {
	if c == nil || c.http == nil {
		return nil, ErrClientNotReady
	}
	raw, err := c.send(ctx, method, endpoint, query, body)
	if err != nil {
		return nil, err
	}
	out := &Envelope[T]{
		StatusCode: raw.StatusCode,
		Timestamp:  raw.Timestamp,
		Path:       raw.Path,
		Method:     raw.Method,
		Success:    raw.Success,
		Error:      raw.Error,
	}
	if len(raw.Data) > 0 && !bytes.Equal(raw.Data, []byte("null")) {
		if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
			return nil, &APIError{
				Kind:       KindServer,
				StatusCode: raw.StatusCode,
				Method:     method,
				Path:       endpoint,
				Message:    "decode data",
				Err:        errors.Join(ErrMalformedEnvelope, err),
			}
		}
	}
	return out, nil
}

func (c *Client) endpointURL(endpoint string, query url.Values) *url.URL {
	u := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(endpoint, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, body any) (*Envelope[json.RawMessage], error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint, query).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.API.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.API.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return nil, &APIError{Kind: KindNetworkFailure, StatusCode: resp.StatusCode, Method: method, Path: endpoint, Err: err}
	}

	var env Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(resp.StatusCode, method, endpoint, env.Error)
	}
	if decodeErr != nil {
		return nil, &APIError{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       endpoint,
			Message:    "decode envelope",
			Err:        errors.Join(ErrMalformedEnvelope, decodeErr),
		}
	}
	if !env.Success {
		return nil, &APIError{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       endpoint,
			Message:    messageOr(env.Error, "request not successful"),
		}
	}
	return &env, nil
}

func (c *Client) statusError(status int, method, endpoint string, messages ErrorMessages) *APIError {
	return &APIError{
		Kind:       classifyStatus(status, c.isRefreshEndpoint(endpoint)),
		StatusCode: status,
		Method:     method,
		Path:       endpoint,
		Message:    messageOr(messages, http.StatusText(status)),
	}
}

// transportError maps an http.Client error. The interceptor reports refresh
// failures and exhausted retries through this path.
func (c *Client) transportError(ctx context.Context, method, endpoint string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var apiErr *APIError
	switch {
	case errors.Is(err, ErrRefreshFailed), errors.Is(err, ErrRefreshPanicked):
		return &APIError{
			Kind:    KindAuthenticationInvalid,
			Method:  method,
			Path:    endpoint,
			Message: ErrRefreshFailed.Error(),
			Err:     err,
		}
	case errors.As(err, &apiErr):
		out := *apiErr
		out.Method, out.Path = method, endpoint
		return &out
	case ctx.Err() != nil:
		return fmt.Errorf("%s %s: %w", method, endpoint, ctx.Err())
	default:
		return &APIError{Kind: KindNetworkFailure, Method: method, Path: endpoint, Err: err}
	}
}

func (c *Client) isRefreshEndpoint(endpoint string) bool {
	return strings.Trim(endpoint, "/") == strings.Trim(c.cfg.API.RefreshPath, "/")
}

func messageOr(messages ErrorMessages, fallback string) string {
	if len(messages) == 0 {
		return fallback
	}
	return messages.String()
}
