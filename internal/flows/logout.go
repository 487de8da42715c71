package flows

import "context"

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout              int
	LogoutServerFailure int
}

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	Logout string
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	// Notify tells the backend to revoke the session. Best effort.
	Notify          func(ctx context.Context) error
	UserID          func() string
	Clear           func(ctx context.Context)
	NavigateToLogin func()

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics LogoutMetrics
	Events  LogoutEvents
}

// RunLogout notifies the backend and then clears local state whatever the
// backend answered. The notification error is returned for logging only;
// the session is gone either way.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	deps.MetricInc = orNoopMetric(deps.MetricInc)
	deps.EmitAudit = orNoopAudit(deps.EmitAudit)
	deps.Warn = orNoopWarn(deps.Warn)

	userID := ""
	if deps.UserID != nil {
		userID = deps.UserID()
	}

	var notifyErr error
	if deps.Notify != nil {
		notifyErr = deps.Notify(ctx)
		if notifyErr != nil {
			deps.MetricInc(deps.Metrics.LogoutServerFailure)
			deps.Warn("authclient: server logout failed, clearing local session anyway", "error", notifyErr)
		}
	}

	if deps.Clear != nil {
		deps.Clear(ctx)
	}
	if deps.NavigateToLogin != nil {
		deps.NavigateToLogin()
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, notifyErr == nil, userID, notifyErr)
	return notifyErr
}
