package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	authclient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() authclient.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter serves a client's auth and refresh metrics in the
// Prometheus text format. Besides the raw counters it publishes derived
// gauges such as how many auth-failed callers each backend refresh served.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from client on every scrape.
func NewPrometheusExporter(client *authclient.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when metrics are disabled on
// the client and nothing was ever dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := familyWriter{}
	w.b.Grow(8192)
	for _, def := range internaldefs.CounterDefs {
		w.sample(def.Name, def.Help, "counter", strconv.FormatUint(snapshot.Counters[def.ID], 10))
	}
	w.sample(internaldefs.AuditDroppedName, "Dropped audit events due to dispatcher backpressure.", "counter", strconv.FormatUint(dropped, 10))
	for _, def := range internaldefs.GaugeDefs {
		w.sample(def.Name, def.Help, "gauge", strconv.FormatFloat(def.Compute(snapshot.Counters), 'g', -1, 64))
	}
	for _, def := range internaldefs.HistogramDefs {
		w.latency(def, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])))
	}
	return w.b.String()
}

type familyWriter struct {
	b strings.Builder
}

func (w *familyWriter) header(name, help, kind string) {
	w.b.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (w *familyWriter) sample(name, help, kind, value string) {
	w.header(name, help, kind)
	w.b.WriteString(name + " " + value + "\n")
}

// latency writes one request latency histogram. Snapshots carry bucket
// counts only, so _sum is always 0.
func (w *familyWriter) latency(def internaldefs.HistogramDef, cumulative [8]uint64) {
	w.header(def.Name, def.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.b.WriteString(def.Name + `_bucket{le="` + le + `"} ` + strconv.FormatUint(cumulative[i], 10) + "\n")
	}
	w.b.WriteString(def.Name + "_count " + strconv.FormatUint(cumulative[len(cumulative)-1], 10) + "\n")
	w.b.WriteString(def.Name + "_sum 0\n")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
