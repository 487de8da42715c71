package flows

import (
	"context"
	"time"
)

// CheckAuthMetrics carries metric IDs needed by the startup check.
type CheckAuthMetrics struct {
	CheckAuthSuccess int
	CheckAuthFailure int
}

// CheckAuthEvents carries audit event names used by the startup check.
type CheckAuthEvents struct {
	CheckAuth string
}

// CheckAuthDeps captures startup check dependencies.
type CheckAuthDeps struct {
	// Restore loads a persisted snapshot into the credential jar, reporting
	// whether one was found. Optional.
	Restore func(ctx context.Context) (bool, error)
	// FetchProfile asks the backend who the current credentials belong to.
	FetchProfile  func(ctx context.Context) (Grant, error)
	ResolveExpiry func(reported time.Duration) time.Duration
	Establish     func(grant Grant)
	Schedule      func(expiresIn time.Duration)
	Persist       func(ctx context.Context) error
	Clear         func(ctx context.Context)

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics CheckAuthMetrics
	Events  CheckAuthEvents
}

// RunCheckAuth reports whether the existing credentials still identify a
// user. Being signed out is a normal outcome: every failure clears the
// session quietly and returns false.
func RunCheckAuth(ctx context.Context, deps CheckAuthDeps) bool {
	deps.MetricInc = orNoopMetric(deps.MetricInc)
	deps.EmitAudit = orNoopAudit(deps.EmitAudit)
	deps.Warn = orNoopWarn(deps.Warn)

	fail := func(err error) bool {
		if deps.Clear != nil {
			deps.Clear(ctx)
		}
		deps.MetricInc(deps.Metrics.CheckAuthFailure)
		deps.EmitAudit(ctx, deps.Events.CheckAuth, false, "", err)
		return false
	}

	if deps.FetchProfile == nil || deps.Establish == nil {
		return fail(nil)
	}

	if deps.Restore != nil {
		if _, err := deps.Restore(ctx); err != nil {
			deps.Warn("authclient: restoring session snapshot failed", "error", err)
		}
	}

	grant, err := deps.FetchProfile(ctx)
	if err != nil {
		return fail(err)
	}

	grant.ExpiresIn = resolveExpiry(deps.ResolveExpiry, grant.ExpiresIn)
	deps.Establish(grant)
	if deps.Schedule != nil {
		deps.Schedule(grant.ExpiresIn)
	}
	if deps.Persist != nil {
		if err := deps.Persist(ctx); err != nil {
			deps.Warn("authclient: persisting session snapshot failed", "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.CheckAuthSuccess)
	deps.EmitAudit(ctx, deps.Events.CheckAuth, true, grant.UserID, nil)
	return true
}
