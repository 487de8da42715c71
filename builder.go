package goAuthClient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/expiry"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/i18n"
	"github.com/MrEthical07/goAuthClient/internal/refresh"
	"github.com/MrEthical07/goAuthClient/session"
)

// Builder assembles a Client.
//
// Builder instances are intended to be configured during initialization and
// then discarded. Build may be called once.
type Builder struct {
	config Config

	transport http.RoundTripper
	store     session.Store
	prompter  Prompter
	navigator Navigator
	loading   LoadingIndicator
	auditSink AuditSink
	logger    *slog.Logger
	catalogs  fs.FS
	now       func() time.Time
	afterFunc expiry.AfterFunc

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPTransport sets the RoundTripper the interceptor forwards to.
// http.DefaultTransport is used when unset.
func (b *Builder) WithHTTPTransport(rt http.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithSessionStore enables snapshot persistence. Without a store the session
// lives only as long as the process.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithPrompter sets the component that asks the user to extend an expiring
// session and shows error alerts.
func (b *Builder) WithPrompter(p Prompter) *Builder {
	b.prompter = p
	return b
}

// WithNavigator sets the component that routes to the login screen.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithLoadingIndicator sets the busy indicator shown during login, register
// and logout.
func (b *Builder) WithLoadingIndicator(l LoadingIndicator) *Builder {
	b.loading = l
	return b
}

// WithAuditSink sets where audit events go. Audit must also be enabled in
// the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Logging is discarded when unset.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMessageCatalogs replaces the embedded message catalogs with the
// locales/*.yaml files found in fsys.
func (b *Builder) WithMessageCatalogs(fsys fs.FS) *Builder {
	b.catalogs = fsys
	return b
}

// WithClock overrides time.Now for expiry bookkeeping and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// withAfterFunc swaps the expiry timer source. Tests use it to fire the
// warning by hand.
func (b *Builder) withAfterFunc(f expiry.AfterFunc) *Builder {
	b.afterFunc = f
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse API BaseURL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	creds, err := newCredentials(base, cfg.Session.AccessCookieName)
	if err != nil {
		return nil, err
	}

	// -------- MESSAGES --------
	var bundle *i18n.Bundle
	if b.catalogs != nil {
		bundle, err = i18n.LoadFromFS(b.catalogs)
	} else {
		bundle, err = i18n.LoadEmbedded()
	}
	if err != nil {
		return nil, fmt.Errorf("load message catalogs: %w", err)
	}

	c := &Client{
		cfg:       cfg,
		baseURL:   base,
		creds:     creds,
		store:     b.store,
		prompter:  b.prompter,
		navigator: b.navigator,
		loading:   b.loading,
		localizer: bundle.Localizer(cfg.Locale),
		metrics:   NewMetrics(cfg.Metrics),
		logger:    b.logger,
		now:       b.now,
	}
	if c.prompter == nil {
		c.prompter = NoopPrompter{}
	}
	if c.navigator == nil {
		c.navigator = NoopNavigator{}
	}
	if c.loading == nil {
		c.loading = NoopLoadingIndicator{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	// -------- REFRESH AND EXPIRY --------
	c.coordinator = refresh.NewCoordinator(func(ctx context.Context) error {
		return c.flows.Refresh(ctx)
	}, cfg.Refresh.Timeout)
	c.expiry = expiry.NewScheduler(cfg.Expiry.WarningWindow, cfg.Expiry.MinimumDelay, b.afterFunc)

	// -------- TRANSPORT --------
	c.http = &http.Client{
		Transport: newInterceptor(b.transport, cfg, base, creds, c.coordinator, c.metrics, c.logger),
		Timeout:   cfg.API.RequestTimeout,
	}

	c.lifecycle, c.shutdown = context.WithCancel(context.Background())
	c.flows = flows.New(c.flowDeps())

	b.built = true

	c.logger.Debug("authclient: client built",
		"base_url", base.String(),
		"locale", c.localizer.Tag().String(),
		"expiry_enabled", cfg.Expiry.Enabled,
		"persistence", c.store != nil,
	)
	return c, nil
}
