package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status  int
		refresh bool
		want    ErrorKind
	}{
		{http.StatusOK, false, KindUnknown},
		{http.StatusBadRequest, false, KindValidation},
		{http.StatusUnauthorized, false, KindAuthenticationExpired},
		{http.StatusUnauthorized, true, KindAuthenticationInvalid},
		{http.StatusForbidden, false, KindServer},
		{http.StatusForbidden, true, KindAuthenticationInvalid},
		{http.StatusNotFound, false, KindServer},
		{http.StatusConflict, false, KindValidation},
		{http.StatusUnprocessableEntity, false, KindValidation},
		{http.StatusTooManyRequests, false, KindServer},
		{http.StatusInternalServerError, false, KindServer},
		{http.StatusInternalServerError, true, KindServer},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/refresh=%v", tt.status, tt.refresh), func(t *testing.T) {
			if got := classifyStatus(tt.status, tt.refresh); got != tt.want {
				t.Fatalf("classifyStatus(%d, %v) = %v, want %v", tt.status, tt.refresh, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"api error", &APIError{Kind: KindValidation}, KindValidation},
		{"wrapped api error", fmt.Errorf("create post: %w", &APIError{Kind: KindServer}), KindServer},
		{"refresh failed sentinel", fmt.Errorf("x: %w", ErrRefreshFailed), KindAuthenticationInvalid},
		{"invalid credentials", errors.Join(ErrInvalidCredentials, errors.New("401")), KindValidation},
		{"network sentinel", ErrNetworkFailure, KindNetworkFailure},
		{"plain", errors.New("boom"), KindUnknown},
		{"canceled", context.Canceled, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIErrorUnwrapsToKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &APIError{Kind: KindNetworkFailure, Method: "GET", Path: "posts", Err: cause}

	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatal("expected errors.Is to match the kind sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to match the cause")
	}
	if errors.Is(err, ErrServer) {
		t.Fatal("network failure must not match ErrServer")
	}
	if got := err.Error(); got != "GET posts: network_failure: dial tcp: refused" {
		t.Fatalf("unexpected Error() %q", got)
	}

	withStatus := &APIError{Kind: KindValidation, StatusCode: 400, Method: "POST", Path: "auth/register", Message: "email should not be empty"}
	if got := withStatus.Error(); got != "POST auth/register: validation (400): email should not be empty" {
		t.Fatalf("unexpected Error() %q", got)
	}
}

func TestErrorKindString(t *testing.T) {
	for kind, want := range map[ErrorKind]string{
		KindUnknown:               "unknown",
		KindNetworkFailure:        "network_failure",
		KindAuthenticationExpired: "authentication_expired",
		KindAuthenticationInvalid: "authentication_invalid",
		KindValidation:            "validation",
		KindServer:                "server",
	} {
		if got := kind.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
