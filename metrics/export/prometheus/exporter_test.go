package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authclient "github.com/MrEthical07/goAuthClient"
)

type fakeSource struct {
	snapshot authclient.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authclient.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters:   map[authclient.MetricID]uint64{},
			Histograms: map[authclient.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricRefreshStarted: 1,
				authclient.MetricRequestRetried: 7,
			},
			Histograms: map[authclient.MetricID][]uint64{
				authclient.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"authclient_refresh_started_total 1",
		"authclient_request_retried_total 7",
		"authclient_request_latency_seconds_bucket{le=\"0.005\"} 1",
		"authclient_request_latency_seconds_bucket{le=\"+Inf\"} 36",
		"authclient_request_latency_seconds_count 36",
		"authclient_audit_dropped_total 2",
		"# TYPE authclient_login_success_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if out != exp.Render() {
		t.Fatal("expected deterministic output")
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters:   map[authclient.MetricID]uint64{authclient.MetricLoginSuccess: 1},
			Histograms: map[authclient.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authclient_login_success_total 1") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestRenderPublishesRefreshCoalescing(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricRefreshStarted: 2,
				authclient.MetricRefreshJoined:  6,
				authclient.MetricRequestRetried: 8,
				authclient.MetricRetryFailed:    2,
			},
			Histograms: map[authclient.MetricID][]uint64{},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE authclient_refresh_coalescing_ratio gauge",
		"authclient_refresh_coalescing_ratio 4\n",
		"authclient_retry_rejected_ratio 0.25\n",
		"authclient_request_latency_seconds_count 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestEscapeHelp(t *testing.T) {
	if got := escapeHelp("a\\b\nc"); got != `a\\b\nc` {
		t.Fatalf("escapeHelp() = %q", got)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricLoginSuccess:   1000,
				authclient.MetricLoginFailure:   40,
				authclient.MetricRefreshStarted: 800,
				authclient.MetricRefreshJoined:  4000,
				authclient.MetricRequestRetried: 4800,
			},
			Histograms: map[authclient.MetricID][]uint64{
				authclient.MetricRequestLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
