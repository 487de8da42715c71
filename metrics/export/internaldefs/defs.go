package internaldefs

import (
	authclient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   authclient.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   authclient.MetricID
	Name string
	Help string
}

// CounterDefs lists every client counter in export order.
var CounterDefs = []CounterDef{
	{ID: authclient.MetricLoginSuccess, Name: "authclient_login_success_total", Help: "Successful logins."},
	{ID: authclient.MetricLoginFailure, Name: "authclient_login_failure_total", Help: "Failed logins."},
	{ID: authclient.MetricRegisterSuccess, Name: "authclient_register_success_total", Help: "Successful registrations."},
	{ID: authclient.MetricRegisterFailure, Name: "authclient_register_failure_total", Help: "Failed registrations."},
	{ID: authclient.MetricLogout, Name: "authclient_logout_total", Help: "Completed logouts."},
	{ID: authclient.MetricLogoutServerFailure, Name: "authclient_logout_server_failure_total", Help: "Logouts whose backend call failed."},
	{ID: authclient.MetricRefreshStarted, Name: "authclient_refresh_started_total", Help: "Refresh calls sent to the backend."},
	{ID: authclient.MetricRefreshSuccess, Name: "authclient_refresh_success_total", Help: "Successful refresh attempts."},
	{ID: authclient.MetricRefreshFailure, Name: "authclient_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authclient.MetricRefreshJoined, Name: "authclient_refresh_joined_total", Help: "Callers that joined an in-flight refresh."},
	{ID: authclient.MetricRequestRetried, Name: "authclient_request_retried_total", Help: "Requests replayed after refresh."},
	{ID: authclient.MetricRetryFailed, Name: "authclient_retry_failed_total", Help: "Replayed requests rejected again."},
	{ID: authclient.MetricSessionExpiryPrompted, Name: "authclient_session_expiry_prompted_total", Help: "Session expiry warnings shown."},
	{ID: authclient.MetricSessionExtended, Name: "authclient_session_extended_total", Help: "Sessions extended from the expiry warning."},
	{ID: authclient.MetricSessionExpiredLogout, Name: "authclient_session_expired_logout_total", Help: "Sessions ended from the expiry warning."},
	{ID: authclient.MetricCheckAuthSuccess, Name: "authclient_check_auth_success_total", Help: "Startup checks that found a session."},
	{ID: authclient.MetricCheckAuthFailure, Name: "authclient_check_auth_failure_total", Help: "Startup checks that found no session."},
}

// HistogramDefs lists every client histogram.
var HistogramDefs = []HistogramDef{
	{ID: authclient.MetricRequestLatency, Name: "authclient_request_latency_seconds", Help: "API round-trip latency."},
}

// HistogramBounds are the Prometheus le labels for the latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the metric-name safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "authclient_audit_dropped_total"

// GaugeDef names one value derived from the counters of a snapshot.
type GaugeDef struct {
	Name    string
	Help    string
	Compute func(counters map[authclient.MetricID]uint64) float64
}

// GaugeDefs lists the derived refresh gauges in export order.
var GaugeDefs = []GaugeDef{
	{
		Name:    "authclient_refresh_coalescing_ratio",
		Help:    "Auth-failed callers served per backend refresh; 1 means no coalescing.",
		Compute: RefreshCoalescingRatio,
	},
	{
		Name:    "authclient_retry_rejected_ratio",
		Help:    "Share of replayed requests rejected again after a refresh.",
		Compute: RetryRejectedRatio,
	},
}

// RefreshCoalescingRatio is (started + joined) / started, or 0 before the
// first refresh.
func RefreshCoalescingRatio(counters map[authclient.MetricID]uint64) float64 {
	started := counters[authclient.MetricRefreshStarted]
	if started == 0 {
		return 0
	}
	return float64(started+counters[authclient.MetricRefreshJoined]) / float64(started)
}

// RetryRejectedRatio is retry_failed / request_retried, or 0 with no retries.
func RetryRejectedRatio(counters map[authclient.MetricID]uint64) float64 {
	retried := counters[authclient.MetricRequestRetried]
	if retried == 0 {
		return 0
	}
	return float64(counters[authclient.MetricRetryFailed]) / float64(retried)
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
