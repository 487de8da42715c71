package goAuthClient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/expiry"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/i18n"
	"github.com/MrEthical07/goAuthClient/internal/refresh"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
)

// Client is the session-aware API client.
//
// Client methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
type Client struct {
	cfg     Config
	baseURL *url.URL
	http    *http.Client

	creds       *credentials
	state       sessionState
	coordinator *refresh.Coordinator
	expiry      *expiry.Scheduler
	flows       flows.Service
	store       session.Store

	prompter  Prompter
	navigator Navigator
	loading   LoadingIndicator
	localizer *i18n.Localizer

	audit   *audit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time

	lifecycle context.Context
	shutdown  context.CancelFunc
	closeOnce sync.Once
}

func (c *Client) ready() bool {
	return c != nil && c.http != nil && c.flows.Initialized()
}

// Login signs in with creds. A backend rejection returns an error matching
// ErrInvalidCredentials. On success the session is authenticated and exactly
// one expiry warning is armed, replacing any earlier one.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	if !c.ready() {
		return Session{}, ErrClientNotReady
	}
	ctx = ctxOrBackground(ctx)
	c.loading.Show()
	defer c.loading.Hide()

	if _, err := c.flows.Login(ctx, creds.Email, creds.Password); err != nil {
		return Session{}, err
	}
	return c.state.snapshot(), nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, reg Registration) (*Profile, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	ctx = ctxOrBackground(ctx)
	c.loading.Show()
	defer c.loading.Hide()

	env, err := Do[Profile](ctx, c, http.MethodPost, c.cfg.API.RegisterPath, nil, reg)
	if err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		c.emitAudit(ctx, AuditRegister, false, "", err, nil)
		return nil, err
	}
	c.metrics.Inc(MetricRegisterSuccess)
	c.emitAudit(ctx, AuditRegister, true, env.Data.ID, nil, nil)
	return &env.Data, nil
}

// Logout ends the session. The backend is told on a best-effort basis;
// local state is cleared and the user sent to the login route whatever
// the backend answered.
func (c *Client) Logout(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}
	ctx = ctxOrBackground(ctx)
	c.loading.Show()
	defer c.loading.Hide()

	_ = c.flows.Logout(ctx)
	return nil
}

// CheckAuth is run at startup. It restores a persisted snapshot when a store
// is configured and asks the backend who the credentials belong to. Being
// signed out is not an error: any failure clears the session and returns
// false.
func (c *Client) CheckAuth(ctx context.Context) bool {
	if !c.ready() {
		return false
	}
	return c.flows.CheckAuth(ctxOrBackground(ctx))
}

// Refresh renews the session through the single-flight coordinator. If a
// refresh is already running, Refresh waits for it instead of starting
// another.
func (c *Client) Refresh(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}
	ctx = ctxOrBackground(ctx)
	return c.coordinator.Ensure(ctx, c.coordinator.Generation())
}

// Profile fetches the signed-in user's profile and refreshes the cached copy
// on the session.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	env, err := Do[Profile](ctxOrBackground(ctx), c, http.MethodGet, c.cfg.API.ProfilePath, nil, nil)
	if err != nil {
		return nil, err
	}
	c.state.setProfile(&env.Data)
	return &env.Data, nil
}

// UpdateProfile applies update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	env, err := Do[Profile](ctxOrBackground(ctx), c, http.MethodPut, c.cfg.API.ProfilePath, nil, update)
	if err != nil {
		return nil, err
	}
	c.state.setProfile(&env.Data)
	return &env.Data, nil
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	if c == nil {
		return Session{}
	}
	return c.state.snapshot()
}

// IsAuthenticated reports whether a session is established.
func (c *Client) IsAuthenticated() bool {
	return c != nil && c.state.authenticated()
}

// HTTPClient returns the http.Client carrying the interceptor, for calls the
// typed helpers do not cover. Requests to other origins pass through
// untouched.
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return c.http
}

// MetricsSnapshot returns a copy of the client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped returns how many audit events were lost to backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close disarms the expiry warning, stops background work and flushes the
// audit dispatcher. It does not log out.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		if c.expiry != nil {
			c.expiry.Cancel()
		}
		if c.shutdown != nil {
			c.shutdown()
		}
		if c.audit != nil {
			c.audit.Close()
		}
	})
}

/*
====================================
SESSION TRANSITIONS
====================================
*/

// resolveExpiry picks the lifetime to schedule on: the backend's report,
// else the access cookie's exp claim, else the configured default.
func (c *Client) resolveExpiry(reported time.Duration) time.Duration {
	if reported > 0 {
		return reported
	}
	if raw := c.creds.accessToken(); raw != "" {
		if left, err := jwt.ExpiresIn(raw, c.now()); err == nil && left > 0 {
			return left
		}
	}
	return c.cfg.Expiry.DefaultExpiresIn
}

func (c *Client) establish(grant flows.Grant) {
	profile, _ := grant.Payload.(*Profile)
	c.creds.advance()
	c.state.establish(grant.UserID, c.now().Add(grant.ExpiresIn), profile)
}

func (c *Client) extend(expiresIn time.Duration) {
	c.state.extend(c.now().Add(expiresIn))
}

func (c *Client) schedule(expiresIn time.Duration) {
	if !c.cfg.Expiry.Enabled || c.expiry == nil {
		return
	}
	delay := c.expiry.Schedule(expiresIn, c.onExpiryWarning)
	c.logger.Debug("authclient: session expiry warning armed", "expires_in", expiresIn, "delay", delay)
}

func (c *Client) persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	snap := c.state.snapshot()
	if !snap.Authenticated {
		return nil
	}
	record := &session.Record{
		UserID:    snap.UserID,
		ExpiresAt: snap.ExpiresAt.Unix(),
		SavedAt:   c.now().Unix(),
		Cookies:   c.creds.export(),
	}
	return c.store.Save(ctx, c.cfg.Session.StoreKey, record, c.cfg.Session.PersistTTL)
}

func (c *Client) restore(ctx context.Context) (bool, error) {
	if c.store == nil || c.creds.hasAny() {
		return false, nil
	}
	record, err := c.store.Load(ctx, c.cfg.Session.StoreKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	c.creds.restore(record.Cookies)
	return true, nil
}

// clearLocal drops every trace of the session: state, timer, cookies and
// the persisted snapshot.
func (c *Client) clearLocal(ctx context.Context) {
	c.state.clear()
	c.expiry.Cancel()
	if err := c.creds.reset(); err != nil {
		c.logger.Warn("authclient: resetting credentials failed", "error", err)
	}
	if c.store != nil {
		if err := c.store.Delete(ctx, c.cfg.Session.StoreKey); err != nil {
			c.logger.Warn("authclient: deleting session snapshot failed", "error", err)
		}
	}
}

func (c *Client) navigateToLogin() {
	c.navigator.Navigate(c.cfg.Session.LoginRoute)
}

func (c *Client) submitLogin(ctx context.Context, email, password string) (flows.Grant, error) {
	env, err := Do[authPayload](ctx, c, http.MethodPost, c.cfg.API.LoginPath, nil, Credentials{Email: email, Password: password})
	if err != nil {
		return flows.Grant{}, err
	}
	if env.Data.User == nil || env.Data.User.ID == "" {
		return flows.Grant{}, &APIError{
			Kind:       KindServer,
			StatusCode: env.StatusCode,
			Method:     http.MethodPost,
			Path:       c.cfg.API.LoginPath,
			Message:    "login response has no user",
			Err:        ErrMalformedEnvelope,
		}
	}
	return flows.Grant{
		UserID:    env.Data.User.ID,
		ExpiresIn: time.Duration(env.Data.ExpiresIn) * time.Second,
		Payload:   env.Data.User,
	}, nil
}

func (c *Client) fetchIdentity(ctx context.Context) (flows.Grant, error) {
	if !c.creds.hasAny() {
		return flows.Grant{}, ErrNotAuthenticated
	}
	env, err := Do[Profile](ctx, c, http.MethodGet, c.cfg.API.ProfilePath, nil, nil)
	if err != nil {
		return flows.Grant{}, err
	}
	return flows.Grant{UserID: env.Data.ID, Payload: &env.Data}, nil
}

func (c *Client) submitRefresh(ctx context.Context) (flows.Grant, error) {
	env, err := Do[authPayload](ctx, c, http.MethodPost, c.cfg.API.RefreshPath, nil, struct{}{})
	if err != nil {
		return flows.Grant{}, err
	}
	return flows.Grant{ExpiresIn: time.Duration(env.Data.ExpiresIn) * time.Second}, nil
}

func (c *Client) notifyLogout(ctx context.Context) error {
	_, err := Do[json.RawMessage](ctx, c, http.MethodPost, c.cfg.API.LogoutPath, nil, struct{}{})
	return err
}

// onExpiryWarning runs on the timer goroutine.
func (c *Client) onExpiryWarning() {
	ctx := c.lifecycle
	if ctx.Err() != nil {
		return
	}
	outcome := c.flows.ExpiryPrompt(ctx)
	c.logger.Info("authclient: session expiry prompt handled", "outcome", outcome.String())
	if outcome == flows.ExpiryRefreshFailed {
		_ = c.prompter.Alert(ctx, Prompt{
			Title:   c.localizer.Text(i18n.KeySessionExpiredTitle),
			Message: c.localizer.Text(i18n.KeySessionExpiredBody),
		})
	}
}

func (c *Client) confirmExtend(ctx context.Context) (bool, error) {
	decision, err := c.prompter.Confirm(ctx, Prompt{
		Title:   c.localizer.Text(i18n.KeySessionExpiringTitle),
		Message: c.localizer.Text(i18n.KeySessionExpiringBody),
	})
	if err != nil {
		return false, err
	}
	return decision == DecisionConfirm, nil
}

func isLoginRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
