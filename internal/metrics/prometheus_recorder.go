package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	resolveDuration  *prom.HistogramVec
	resolveResults   *prom.CounterVec
	markersRemoved   prom.Counter
	generateDuration prom.Histogram
	generateResults  *prom.CounterVec
	httpDuration     *prom.HistogramVec
	httpRequests     *prom.CounterVec
	lrClients        prom.Gauge
	lrBroadcasts     prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		resolveDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "reqaz",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of source resolution calls",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		resolveResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reqaz",
			Name:      "resolve_results_total",
			Help:      "Resolution outcomes by result",
		}, []string{"result"}),
		markersRemoved: prom.NewCounter(prom.CounterOpts{
			Namespace: "reqaz",
			Name:      "markers_removed_total",
			Help:      "Marker elements stripped from HTML documents",
		}),
		generateDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "reqaz",
			Name:      "generate_entry_duration_seconds",
			Help:      "Duration of individual pipeline entries",
			Buckets:   prom.DefBuckets,
		}),
		generateResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reqaz",
			Name:      "generate_entries_total",
			Help:      "Pipeline entries by outcome",
		}, []string{"result"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "reqaz",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of served HTTP requests",
			Buckets:   prom.DefBuckets,
		}, []string{"method"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reqaz",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by method and status",
		}, []string{"method", "status"}),
		lrClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "reqaz",
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
		lrBroadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: "reqaz",
			Name:      "livereload_broadcasts_total",
			Help:      "Live reload change broadcasts",
		}),
	}
	reg.MustRegister(
		pr.resolveDuration, pr.resolveResults, pr.markersRemoved,
		pr.generateDuration, pr.generateResults,
		pr.httpDuration, pr.httpRequests,
		pr.lrClients, pr.lrBroadcasts,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveResolveDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.resolveDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncResolveResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.resolveResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddMarkersRemoved(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.markersRemoved.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveGenerateEntry(d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.generateDuration.Observe(d.Seconds())
	p.generateResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpDuration.WithLabelValues(method).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.lrClients.Set(float64(n))
}

func (p *PrometheusRecorder) IncLiveReloadBroadcast() {
	if p == nil {
		return
	}
	p.lrBroadcasts.Inc()
}
