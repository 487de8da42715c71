package flows

import (
	"context"
	"time"
)

// ExpiryOutcome is what the expiry prompt led to.
type ExpiryOutcome int

const (
	// ExpirySkipped means no session was live when the timer fired.
	ExpirySkipped ExpiryOutcome = iota
	// ExpiryExtended means the user confirmed and the refresh succeeded.
	ExpiryExtended
	// ExpiryRefreshFailed means the user confirmed but the refresh failed;
	// the refresh flow already cleared the session.
	ExpiryRefreshFailed
	// ExpiryLoggedOut means the user declined or did not answer in time.
	ExpiryLoggedOut
)

func (o ExpiryOutcome) String() string {
	switch o {
	case ExpiryExtended:
		return "extended"
	case ExpiryRefreshFailed:
		return "refresh_failed"
	case ExpiryLoggedOut:
		return "logged_out"
	default:
		return "skipped"
	}
}

// ExpiryMetrics carries metric IDs needed by the expiry prompt flow.
type ExpiryMetrics struct {
	Prompted      int
	Extended      int
	ExpiredLogout int
}

// ExpiryEvents carries audit event names used by the expiry prompt flow.
type ExpiryEvents struct {
	Prompt   string
	Extended string
	Expired  string
}

// ExpiryDeps captures expiry prompt dependencies.
type ExpiryDeps struct {
	Authenticated func() bool
	UserID        func() string
	// Confirm asks the user whether to stay signed in.
	Confirm       func(ctx context.Context) (bool, error)
	PromptTimeout time.Duration
	Refresh       func(ctx context.Context) error
	Logout        func(ctx context.Context) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics ExpiryMetrics
	Events  ExpiryEvents
}

// RunExpiryPrompt runs when the session-expiry timer fires: the user either
// extends the session (refresh, which re-arms the timer) or lets it end
// (logout). A prompt error or timeout counts as letting it end.
func RunExpiryPrompt(ctx context.Context, deps ExpiryDeps) ExpiryOutcome {
	deps.MetricInc = orNoopMetric(deps.MetricInc)
	deps.EmitAudit = orNoopAudit(deps.EmitAudit)
	deps.Warn = orNoopWarn(deps.Warn)

	if deps.Authenticated == nil || !deps.Authenticated() {
		return ExpirySkipped
	}
	userID := ""
	if deps.UserID != nil {
		userID = deps.UserID()
	}

	deps.MetricInc(deps.Metrics.Prompted)
	deps.EmitAudit(ctx, deps.Events.Prompt, true, userID, nil)

	confirmed := false
	if deps.Confirm != nil {
		promptCtx := ctx
		if deps.PromptTimeout > 0 {
			var cancel context.CancelFunc
			promptCtx, cancel = context.WithTimeout(ctx, deps.PromptTimeout)
			defer cancel()
		}
		ok, err := deps.Confirm(promptCtx)
		if err != nil {
			deps.Warn("authclient: expiry prompt failed", "error", err)
		}
		confirmed = ok && err == nil
	}

	if confirmed && deps.Refresh != nil {
		if err := deps.Refresh(ctx); err != nil {
			deps.EmitAudit(ctx, deps.Events.Extended, false, userID, err)
			return ExpiryRefreshFailed
		}
		deps.MetricInc(deps.Metrics.Extended)
		deps.EmitAudit(ctx, deps.Events.Extended, true, userID, nil)
		return ExpiryExtended
	}

	if deps.Logout != nil {
		_ = deps.Logout(ctx)
	}
	deps.MetricInc(deps.Metrics.ExpiredLogout)
	deps.EmitAudit(ctx, deps.Events.Expired, true, userID, nil)
	return ExpiryLoggedOut
}
