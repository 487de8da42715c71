package flows

import (
	"context"
	"fmt"
	"time"
)

// RefreshMetrics carries metric IDs needed by the refresh flow.
type RefreshMetrics struct {
	RefreshStarted int
	RefreshSuccess int
	RefreshFailure int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	ClientNotReady   error
	RefreshFailed    error
	NotAuthenticated error
}

// RefreshDeps captures refresh dependencies. RunRefresh is the body of one
// single-flight attempt, so every side effect here happens once per attempt
// no matter how many requests are waiting on it.
type RefreshDeps struct {
	// Submit exchanges the refresh credential for a new access credential.
	Submit func(ctx context.Context) (Grant, error)
	// Authenticated reports whether a session was established before the attempt.
	Authenticated func() bool
	// Generation changes whenever a session is established or cleared. An
	// attempt that sees it change was overtaken by login or logout and has
	// no side effects.
	Generation    func() uint64
	UserID        func() string
	ResolveExpiry func(reported time.Duration) time.Duration
	Extend        func(expiresIn time.Duration)
	Schedule      func(expiresIn time.Duration)
	Persist       func(ctx context.Context) error
	// Clear drops session state, credentials, the timer and the snapshot.
	Clear func(ctx context.Context)
	// NavigateToLogin is only called when a live session was lost.
	NavigateToLogin func()

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh performs one refresh attempt.
//
// On success an authenticated session is extended and its expiry timer
// replaced. On failure the session is cleared and, if one was live, the
// user is sent to the login route. The returned error wraps
// Errors.RefreshFailed and the cause.
func RunRefresh(ctx context.Context, deps RefreshDeps) error {
	deps.MetricInc = orNoopMetric(deps.MetricInc)
	deps.EmitAudit = orNoopAudit(deps.EmitAudit)
	deps.Warn = orNoopWarn(deps.Warn)
	if deps.Submit == nil || deps.Authenticated == nil || deps.Clear == nil {
		return deps.Errors.ClientNotReady
	}

	userID := ""
	if deps.UserID != nil {
		userID = deps.UserID()
	}
	wasAuthenticated := deps.Authenticated()
	generation := currentGeneration(deps.Generation)

	deps.MetricInc(deps.Metrics.RefreshStarted)
	grant, err := deps.Submit(ctx)
	if generation != currentGeneration(deps.Generation) {
		if err == nil {
			err = deps.Errors.NotAuthenticated
		}
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, userID, err)
		deps.Warn("authclient: discarding refresh outcome, session changed during the attempt", "error", err)
		return fmt.Errorf("%w: %w", deps.Errors.RefreshFailed, err)
	}
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, userID, err)
		deps.Warn("authclient: session refresh failed", "error", err, "was_authenticated", wasAuthenticated)

		deps.Clear(ctx)
		if wasAuthenticated && deps.NavigateToLogin != nil {
			deps.NavigateToLogin()
		}
		return fmt.Errorf("%w: %w", deps.Errors.RefreshFailed, err)
	}

	// A refresh without a live session only renews cookies; the caller that
	// triggered it establishes the session itself.
	if wasAuthenticated {
		expiresIn := resolveExpiry(deps.ResolveExpiry, grant.ExpiresIn)
		if deps.Extend != nil {
			deps.Extend(expiresIn)
		}
		if deps.Schedule != nil {
			deps.Schedule(expiresIn)
		}
		if deps.Persist != nil {
			if err := deps.Persist(ctx); err != nil {
				deps.Warn("authclient: persisting session snapshot failed", "error", err)
			}
		}
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, userID, nil)
	return nil
}

func currentGeneration(f func() uint64) uint64 {
	if f == nil {
		return 0
	}
	return f()
}
