package goAuthClient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goAuthClient/internal/refresh"
)

var (
	// ErrNetworkFailure is returned when the backend could not be reached.
	ErrNetworkFailure = errors.New("network failure")
	// ErrAuthenticationExpired marks an auth failure that a refresh may recover.
	ErrAuthenticationExpired = errors.New("authentication expired")
	// ErrAuthenticationInvalid marks an auth failure that ends the session.
	ErrAuthenticationInvalid = errors.New("authentication invalid")
	// ErrValidation marks a request the backend rejected as malformed.
	ErrValidation = errors.New("validation error")
	// ErrServer is the generic backend failure.
	ErrServer = errors.New("server error")

	// ErrInvalidCredentials is returned by Login when the backend rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned by operations that need a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshFailed is returned to every caller waiting on a failed refresh.
	ErrRefreshFailed = errors.New("session refresh failed")
	// ErrRetryExhausted is returned when a request fails authentication again after a refresh.
	ErrRetryExhausted = errors.New("request failed after refresh retry")
	// ErrClientNotReady is returned when a Client was not produced by Builder.Build.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrMalformedEnvelope is returned when a response body is not a valid envelope.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	// ErrRefreshPanicked is returned to refresh waiters when the attempt panicked.
	ErrRefreshPanicked = refresh.ErrPanicked
)

// ErrorKind classifies failures for propagation and user-facing rendering.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetworkFailure
	KindAuthenticationExpired
	KindAuthenticationInvalid
	KindValidation
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindAuthenticationExpired:
		return "authentication_expired"
	case KindAuthenticationInvalid:
		return "authentication_invalid"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetworkFailure:
		return ErrNetworkFailure
	case KindAuthenticationExpired:
		return ErrAuthenticationExpired
	case KindAuthenticationInvalid:
		return ErrAuthenticationInvalid
	case KindValidation:
		return ErrValidation
	default:
		return ErrServer
	}
}

// APIError is the typed failure returned by every backend call.
//
// It unwraps to the sentinel of its Kind, so callers can use errors.Is with
// ErrValidation, ErrServer and friends, and to the cause when one exists.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Method     string
	Path       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *APIError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// KindOf reports the ErrorKind carried by err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	switch {
	case errors.Is(err, ErrNetworkFailure):
		return KindNetworkFailure
	case errors.Is(err, ErrAuthenticationInvalid), errors.Is(err, ErrRefreshFailed):
		return KindAuthenticationInvalid
	case errors.Is(err, ErrAuthenticationExpired):
		return KindAuthenticationExpired
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials):
		return KindValidation
	case errors.Is(err, ErrServer):
		return KindServer
	}
	return KindUnknown
}

// classifyStatus maps an HTTP status to an ErrorKind. refreshEndpoint flips
// auth failures to KindAuthenticationInvalid, since nothing can recover them.
func classifyStatus(status int, refreshEndpoint bool) ErrorKind {
	switch {
	case status < http.StatusBadRequest:
		return KindUnknown
	case status == http.StatusUnauthorized:
		if refreshEndpoint {
			return KindAuthenticationInvalid
		}
		return KindAuthenticationExpired
	case status == http.StatusForbidden && refreshEndpoint:
		return KindAuthenticationInvalid
	case status == http.StatusBadRequest,
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindServer
	}
}
