package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root client builds this once and
// delegates session transitions to the matching flow implementation.
type Deps struct {
	Login     LoginDeps
	Logout    LogoutDeps
	Refresh   RefreshDeps
	CheckAuth CheckAuthDeps
	Expiry    ExpiryDeps
}

// AuditFunc emits one audit event.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error)

// Grant is what the backend reports when it issues credentials or
// identifies the current user.
type Grant struct {
	UserID string
	// ExpiresIn is the server-reported access lifetime, zero when absent.
	// Flows overwrite it with the resolved lifetime before Establish.
	ExpiresIn time.Duration
	// Payload is passed through to Establish untouched.
	Payload any
}

func orNoopMetric(f func(int)) func(int) {
	if f == nil {
		return func(int) {}
	}
	return f
}

func orNoopAudit(f AuditFunc) AuditFunc {
	if f == nil {
		return func(context.Context, string, bool, string, error) {}
	}
	return f
}

func orNoopWarn(f func(string, ...any)) func(string, ...any) {
	if f == nil {
		return func(string, ...any) {}
	}
	return f
}

func resolveExpiry(resolve func(time.Duration) time.Duration, reported time.Duration) time.Duration {
	if resolve == nil {
		return reported
	}
	return resolve(reported)
}
