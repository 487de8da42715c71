package goAuthClient

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAuthClient/session"
)

func withStore(store session.Store) envOption {
	return func(_ *Config, b *Builder) {
		b.WithSessionStore(store)
	}
}

func withTransport(rt http.RoundTripper) envOption {
	return func(_ *Config, b *Builder) {
		b.WithHTTPTransport(rt)
	}
}

func TestLoginEstablishesSessionAndArmsOneTimer(t *testing.T) {
	loader := &countingLoader{}
	env := newTestEnv(t, func(_ *Config, b *Builder) { b.WithLoadingIndicator(loader) })

	s := env.login()
	if !s.Authenticated || s.UserID != env.user.ID {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.Profile == nil || s.Profile.Username != "ana" {
		t.Fatalf("expected profile on session, got %+v", s.Profile)
	}
	if loader.shown.Load() != 1 || loader.hidden.Load() != 1 {
		t.Fatalf("expected loader shown and hidden once, got %d/%d", loader.shown.Load(), loader.hidden.Load())
	}

	active := env.timers.active()
	if len(active) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(active))
	}
	// 15 minute token, 60 second warning window.
	if active[0].delay != 14*time.Minute {
		t.Fatalf("expected delay 14m, got %v", active[0].delay)
	}

	env.login()
	if got := len(env.timers.all()); got != 2 {
		t.Fatalf("expected two scheduled timers, got %d", got)
	}
	if got := len(env.timers.active()); got != 1 {
		t.Fatalf("second login must replace the first timer, %d armed", got)
	}
	if got := env.client.MetricsSnapshot().Counters[MetricLoginSuccess]; got != 2 {
		t.Fatalf("expected two login successes, got %d", got)
	}
}

func TestLoginFallsBackToTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.server.OmitExpiresIn(true)

	env.login()
	active := env.timers.active()
	if len(active) != 1 {
		t.Fatalf("expected one armed timer, got %d", len(active))
	}
	if d := active[0].delay; d < 14*time.Minute-3*time.Second || d > 14*time.Minute {
		t.Fatalf("expected delay derived from exp claim, got %v", d)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.Login(context.Background(), Credentials{Email: testEmail, Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if env.client.IsAuthenticated() {
		t.Fatal("rejected login must not authenticate")
	}
	if len(env.timers.all()) != 0 {
		t.Fatal("rejected login must not arm a timer")
	}
	if env.server.RefreshCalls() != 0 {
		t.Fatal("auth endpoints must not trigger a refresh")
	}
	if got := env.client.Message(err).Message; got != "The email or password you entered is incorrect." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLoginNetworkFailureIsNotInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, withTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})))

	_, err := env.client.Login(context.Background(), Credentials{Email: testEmail, Password: testPassword})
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("network failure reported as invalid credentials: %v", err)
	}
	if KindOf(err) != KindNetworkFailure || !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.server.FailLogout(true)

	if err := env.client.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
	if env.client.IsAuthenticated() {
		t.Fatal("session must be cleared")
	}
	if got := env.navigator.Paths(); len(got) != 1 || got[0] != "/login" {
		t.Fatalf("expected one navigation to /login, got %v", got)
	}
	if len(env.timers.active()) != 0 {
		t.Fatal("logout must disarm the expiry timer")
	}
	if env.server.LogoutCalls() != 1 {
		t.Fatalf("expected one logout call, got %d", env.server.LogoutCalls())
	}
	if got := env.client.MetricsSnapshot().Counters[MetricLogoutServerFailure]; got != 1 {
		t.Fatalf("expected logout server failure metric, got %d", got)
	}
}

func TestLogoutClearsOnNetworkError(t *testing.T) {
	var failLogout atomic.Bool
	env := newTestEnv(t, withTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if failLogout.Load() && r.URL.Path == "/api/auth/logout" {
			return nil, errors.New("connection reset by peer")
		}
		return http.DefaultTransport.RoundTrip(r)
	})))
	env.login()
	failLogout.Store(true)

	if err := env.client.Logout(context.Background()); err != nil {
		t.Fatalf("logout must not fail: %v", err)
	}
	if env.client.IsAuthenticated() {
		t.Fatal("session must be cleared")
	}
	if got := env.navigator.Paths(); len(got) != 1 {
		t.Fatalf("expected one navigation, got %v", got)
	}
	if _, err := env.client.Profile(context.Background()); KindOf(err) != KindAuthenticationInvalid {
		t.Fatalf("credentials must be gone after logout, got %v", err)
	}
}

func TestCheckAuthWithoutCredentialsIsSilent(t *testing.T) {
	var calls atomic.Int64
	env := newTestEnv(t, withTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return http.DefaultTransport.RoundTrip(r)
	})))

	if env.client.CheckAuth(context.Background()) {
		t.Fatal("expected no session")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no backend calls, got %d", calls.Load())
	}
	if len(env.navigator.Paths()) != 0 || len(env.prompter.Alerts()) != 0 {
		t.Fatal("startup check must not navigate or alert")
	}
}

func TestCheckAuthUsesLiveCookies(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	if !env.client.CheckAuth(context.Background()) {
		t.Fatal("expected live session")
	}
	if got := env.client.MetricsSnapshot().Counters[MetricCheckAuthSuccess]; got != 1 {
		t.Fatalf("expected check auth success metric, got %d", got)
	}
}

func TestCheckAuthRestoresPersistedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	stores := []struct {
		name  string
		store session.Store
	}{
		{name: "memory", store: session.NewMemoryStore()},
		{name: "redis", store: session.NewRedisStore(rdb, "authclient:test:")},
	}
	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withStore(tt.store))
			env.login()

			restarted := env.newClient(withStore(tt.store))
			if !restarted.CheckAuth(context.Background()) {
				t.Fatal("expected restored session")
			}
			if got := restarted.Session().UserID; got != env.user.ID {
				t.Fatalf("expected user %q, got %q", env.user.ID, got)
			}
			if len(env.timers.active()) != 1 {
				t.Fatal("restored session must arm the expiry timer")
			}
		})
	}
}

func TestCheckAuthRefreshesExpiredAccessQuietly(t *testing.T) {
	store := session.NewMemoryStore()
	env := newTestEnv(t, withStore(store))
	env.login()
	env.server.ExpireAccessTokens()

	restarted := env.newClient(withStore(store))
	if !restarted.CheckAuth(context.Background()) {
		t.Fatal("expected session after refresh")
	}
	if env.server.RefreshCalls() != 1 {
		t.Fatalf("expected one refresh, got %d", env.server.RefreshCalls())
	}
	if len(env.navigator.Paths()) != 0 {
		t.Fatal("startup check must not navigate")
	}
}

func TestCheckAuthFailureClearsSnapshot(t *testing.T) {
	store := session.NewMemoryStore()
	env := newTestEnv(t, withStore(store))
	env.login()
	env.server.ExpireAccessTokens()
	env.server.InvalidateRefresh()

	restarted := env.newClient(withStore(store))
	if restarted.CheckAuth(context.Background()) {
		t.Fatal("expected no session")
	}
	if len(env.navigator.Paths()) != 0 || len(env.prompter.Alerts()) != 0 {
		t.Fatal("startup check must fail silently")
	}
	if _, err := store.Load(context.Background(), DefaultConfig().Session.StoreKey); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected snapshot removed, got %v", err)
	}
}

func TestLogoutRemovesSnapshot(t *testing.T) {
	store := session.NewMemoryStore()
	env := newTestEnv(t, withStore(store))
	env.login()

	if _, err := store.Load(context.Background(), DefaultConfig().Session.StoreKey); err != nil {
		t.Fatalf("expected snapshot after login: %v", err)
	}
	if err := env.client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := store.Load(context.Background(), DefaultConfig().Session.StoreKey); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected snapshot removed, got %v", err)
	}
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.client.Register(context.Background(), Registration{
		Email:    "new@example.com",
		Username: "newbie",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Username != "newbie" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if env.client.IsAuthenticated() {
		t.Fatal("register must not sign in")
	}
}

func TestRegisterValidationKeepsServerMessages(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.Register(context.Background(), Registration{Email: ""})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Kind != KindValidation || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	want := "email should not be empty, password must be longer than or equal to 6 characters, username should not be empty"
	if apiErr.Message != want {
		t.Fatalf("message = %q, want %q", apiErr.Message, want)
	}
}

func TestUnbuiltClientIsNotReady(t *testing.T) {
	var c Client
	if _, err := c.Login(context.Background(), Credentials{}); !errors.Is(err, ErrClientNotReady) {
		t.Fatalf("expected ErrClientNotReady, got %v", err)
	}
	if c.CheckAuth(context.Background()) {
		t.Fatal("unbuilt client must not report a session")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}
