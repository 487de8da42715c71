package flows

import (
	"context"
	"errors"
	"time"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	ClientNotReady     error
	InvalidCredentials error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	// Submit posts the credentials to the backend.
	Submit func(ctx context.Context, identifier, password string) (Grant, error)
	// IsRejection reports whether err is the backend refusing the credentials.
	IsRejection func(error) bool
	// ResolveExpiry turns the reported lifetime into the one to schedule on.
	ResolveExpiry func(reported time.Duration) time.Duration
	Establish     func(grant Grant)
	Schedule      func(expiresIn time.Duration)
	Persist       func(ctx context.Context) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin submits credentials and, on success, establishes the session and
// arms exactly one expiry timer. A rejection is reported as
// Errors.InvalidCredentials wrapping the backend error.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (Grant, error) {
	deps.MetricInc = orNoopMetric(deps.MetricInc)
	deps.EmitAudit = orNoopAudit(deps.EmitAudit)
	deps.Warn = orNoopWarn(deps.Warn)
	if deps.Submit == nil || deps.Establish == nil || deps.Schedule == nil {
		return Grant{}, deps.Errors.ClientNotReady
	}

	grant, err := deps.Submit(ctx, identifier, password)
	if err != nil {
		if deps.IsRejection != nil && deps.IsRejection(err) {
			err = errors.Join(deps.Errors.InvalidCredentials, err)
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", err)
		deps.Warn("authclient: login failed", "identifier_set", identifier != "", "error", err)
		return Grant{}, err
	}

	grant.ExpiresIn = resolveExpiry(deps.ResolveExpiry, grant.ExpiresIn)
	deps.Establish(grant)
	deps.Schedule(grant.ExpiresIn)

	if deps.Persist != nil {
		if err := deps.Persist(ctx); err != nil {
			deps.Warn("authclient: persisting session snapshot failed", "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, grant.UserID, nil)
	return grant, nil
}
