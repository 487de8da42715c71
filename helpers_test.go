package goAuthClient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/devserver"
	"github.com/MrEthical07/goAuthClient/internal/expiry"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "secret1"
	adminEmail   = "root@example.com"
)

type fakePrompter struct {
	mu         sync.Mutex
	decision   Decision
	confirmErr error
	confirms   []Prompt
	alerts     []Prompt
}

func (p *fakePrompter) Confirm(_ context.Context, prompt Prompt) (Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, prompt)
	return p.decision, p.confirmErr
}

func (p *fakePrompter) Alert(_ context.Context, prompt Prompt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, prompt)
	return nil
}

func (p *fakePrompter) Alerts() []Prompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Prompt(nil), p.alerts...)
}

func (p *fakePrompter) Confirms() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.confirms)
}

type fakeNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *fakeNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *fakeNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type countingLoader struct {
	shown  atomic.Int64
	hidden atomic.Int64
}

func (l *countingLoader) Show() { l.shown.Add(1) }
func (l *countingLoader) Hide() { l.hidden.Add(1) }

// manualTimers replaces time.AfterFunc so tests decide when the expiry
// warning fires.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fire    func()
	stopped atomic.Bool
}

func (t *manualTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

func (m *manualTimers) afterFunc(d time.Duration, f func()) expiry.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fire: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *manualTimers) all() []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*manualTimer(nil), m.timers...)
}

func (m *manualTimers) active() []*manualTimer {
	var out []*manualTimer
	for _, t := range m.all() {
		if !t.stopped.Load() {
			out = append(out, t)
		}
	}
	return out
}

// fireActive runs the single armed warning on the calling goroutine.
func (m *manualTimers) fireActive(t *testing.T) {
	t.Helper()
	active := m.active()
	if len(active) != 1 {
		t.Fatalf("expected exactly one armed timer, got %d", len(active))
	}
	active[0].stopped.Store(true)
	active[0].fire()
}

// roundTripFunc lets a test intercept what the interceptor forwards.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type testEnv struct {
	t         *testing.T
	server    *devserver.Server
	ts        *httptest.Server
	client    *Client
	prompter  *fakePrompter
	navigator *fakeNavigator
	timers    *manualTimers
	user      devserver.User
}

type envOption func(*Config, *Builder)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	server, err := devserver.New(devserver.Config{})
	if err != nil {
		t.Fatalf("devserver: %v", err)
	}
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	env := &testEnv{
		t:      t,
		server: server,
		ts:     ts,
		user:   server.AddUser(devserver.User{Email: testEmail, Password: testPassword, Username: "ana", FirstName: "Ana"}),
	}
	server.AddUser(devserver.User{Email: adminEmail, Password: testPassword, Username: "root", Role: "admin"})
	env.client = env.newClient(opts...)
	return env
}

// newClient builds another client against the same backend, as a second
// process or a restart would.
func (e *testEnv) newClient(opts ...envOption) *Client {
	e.t.Helper()
	cfg := DefaultConfig()
	cfg.API.BaseURL = e.ts.URL + "/api/"
	cfg.Refresh.Timeout = 5 * time.Second

	e.prompter = &fakePrompter{}
	e.navigator = &fakeNavigator{}
	e.timers = &manualTimers{}

	b := New().
		WithPrompter(e.prompter).
		WithNavigator(e.navigator).
		withAfterFunc(e.timers.afterFunc)
	for _, opt := range opts {
		opt(&cfg, b)
	}
	c, err := b.WithConfig(cfg).Build()
	if err != nil {
		e.t.Fatalf("Build failed: %v", err)
	}
	e.t.Cleanup(c.Close)
	return c
}

func (e *testEnv) login() Session {
	e.t.Helper()
	s, err := e.client.Login(context.Background(), Credentials{Email: testEmail, Password: testPassword})
	if err != nil {
		e.t.Fatalf("login: %v", err)
	}
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func forcedStatus(status int, path string) *http.Response {
	body := `{"data":null,"success":false,"error":"forced","path":"` + path + `"}`
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
