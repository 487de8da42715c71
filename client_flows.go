package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/flows"
)

func (c *Client) flowAudit(ctx context.Context, event string, success bool, userID string, err error) {
	c.emitAudit(ctx, event, success, userID, err, nil)
}

func (c *Client) flowMetricInc(id int) {
	c.metrics.Inc(MetricID(id))
}

// runLogout defers the c.flows lookup, which is assigned after the deps are built.
func (c *Client) runLogout(ctx context.Context) error {
	return c.flows.Logout(ctx)
}

func (c *Client) flowDeps() flows.Deps {
	return flows.Deps{
		Login:     c.loginFlowDeps(),
		Logout:    c.logoutFlowDeps(),
		Refresh:   c.refreshFlowDeps(),
		CheckAuth: c.checkAuthFlowDeps(),
		Expiry:    c.expiryFlowDeps(),
	}
}

func (c *Client) loginFlowDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Submit:        c.submitLogin,
		IsRejection:   isLoginRejection,
		ResolveExpiry: c.resolveExpiry,
		Establish:     c.establish,
		Schedule:      c.schedule,
		Persist:       c.persist,
		MetricInc:     c.flowMetricInc,
		EmitAudit:     c.flowAudit,
		Warn:          c.logger.Warn,
		Metrics: flows.LoginMetrics{
			LoginSuccess: int(MetricLoginSuccess),
			LoginFailure: int(MetricLoginFailure),
		},
		Events: flows.LoginEvents{
			LoginSuccess: AuditLoginSuccess,
			LoginFailure: AuditLoginFailure,
		},
		Errors: flows.LoginErrors{
			ClientNotReady:     ErrClientNotReady,
			InvalidCredentials: ErrInvalidCredentials,
		},
	}
}

func (c *Client) logoutFlowDeps() flows.LogoutDeps {
	return flows.LogoutDeps{
		Notify:          c.notifyLogout,
		UserID:          c.state.userID,
		Clear:           c.clearLocal,
		NavigateToLogin: c.navigateToLogin,
		MetricInc:       c.flowMetricInc,
		EmitAudit:       c.flowAudit,
		Warn:            c.logger.Warn,
		Metrics: flows.LogoutMetrics{
			Logout:              int(MetricLogout),
			LogoutServerFailure: int(MetricLogoutServerFailure),
		},
		Events: flows.LogoutEvents{
			Logout: AuditLogout,
		},
	}
}

func (c *Client) refreshFlowDeps() flows.RefreshDeps {
	return flows.RefreshDeps{
		Submit:          c.submitRefresh,
		Authenticated:   c.state.authenticated,
		Generation:      c.state.generation,
		UserID:          c.state.userID,
		ResolveExpiry:   c.resolveExpiry,
		Extend:          c.extend,
		Schedule:        c.schedule,
		Persist:         c.persist,
		Clear:           c.clearLocal,
		NavigateToLogin: c.navigateToLogin,
		MetricInc:       c.flowMetricInc,
		EmitAudit:       c.flowAudit,
		Warn:            c.logger.Warn,
		Metrics: flows.RefreshMetrics{
			RefreshStarted: int(MetricRefreshStarted),
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
		},
		Events: flows.RefreshEvents{
			RefreshSuccess: AuditRefreshSuccess,
			RefreshFailure: AuditRefreshFailure,
		},
		Errors: flows.RefreshErrors{
			ClientNotReady:   ErrClientNotReady,
			RefreshFailed:    ErrRefreshFailed,
			NotAuthenticated: ErrNotAuthenticated,
		},
	}
}

func (c *Client) checkAuthFlowDeps() flows.CheckAuthDeps {
	return flows.CheckAuthDeps{
		Restore:       c.restore,
		FetchProfile:  c.fetchIdentity,
		ResolveExpiry: c.resolveExpiry,
		Establish:     c.establish,
		Schedule:      c.schedule,
		Persist:       c.persist,
		Clear:         c.clearLocal,
		MetricInc:     c.flowMetricInc,
		EmitAudit:     c.flowAudit,
		Warn:          c.logger.Warn,
		Metrics: flows.CheckAuthMetrics{
			CheckAuthSuccess: int(MetricCheckAuthSuccess),
			CheckAuthFailure: int(MetricCheckAuthFailure),
		},
		Events: flows.CheckAuthEvents{
			CheckAuth: AuditCheckAuth,
		},
	}
}

func (c *Client) expiryFlowDeps() flows.ExpiryDeps {
	return flows.ExpiryDeps{
		Authenticated: c.state.authenticated,
		UserID:        c.state.userID,
		Confirm:       c.confirmExtend,
		PromptTimeout: c.cfg.Expiry.PromptTimeout,
		Refresh:       c.Refresh,
		Logout:        c.runLogout,
		MetricInc:     c.flowMetricInc,
		EmitAudit:     c.flowAudit,
		Warn:          c.logger.Warn,
		Metrics: flows.ExpiryMetrics{
			Prompted:      int(MetricSessionExpiryPrompted),
			Extended:      int(MetricSessionExtended),
			ExpiredLogout: int(MetricSessionExpiredLogout),
		},
		Events: flows.ExpiryEvents{
			Prompt:   AuditSessionExpiryPrompt,
			Extended: AuditSessionExtended,
			Expired:  AuditSessionExpired,
		},
	}
}
