package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_render"

// Recorder owns the service's Prometheus collectors. It satisfies the
// observer interfaces of the renderer pool and the exporter.
type Recorder struct {
	registry *prometheus.Registry

	renderDuration *prometheus.HistogramVec
	renderTotal    *prometheus.CounterVec
	sectionErrors  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec

	conversionDuration *prometheus.HistogramVec
	conversionTotal    *prometheus.CounterVec
	browserLaunches    *prometheus.CounterVec
	browserReplaced    *prometheus.CounterVec
	conversionRetries  *prometheus.CounterVec

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	httpInFlight prometheus.Gauge

	grpcDuration *prometheus.HistogramVec
	grpcTotal    *prometheus.CounterVec
}

// NewRecorder registers all collectors on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,

		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "End-to-end render time by output format.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"format", "status"}),
		renderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "requests_total",
			Help:      "Render calls by output format, template and status.",
		}, []string{"format", "template", "status"}),
		sectionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "section_errors_total",
			Help:      "Sections replaced by an error marker.",
		}, []string{"section"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "PDF cache lookups by result.",
		}, []string{"result"}),

		conversionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "conversion_duration_seconds",
			Help:      "HTML to PDF conversion time including a retry.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 5, 10, 30, 60},
		}, []string{"engine"}),
		conversionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "conversions_total",
			Help:      "HTML to PDF conversions by status.",
		}, []string{"engine", "status"}),
		browserLaunches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "browser_launches_total",
			Help:      "Headless browser launches.",
		}, []string{"engine"}),
		browserReplaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "browser_replacements_total",
			Help:      "Dead browsers replaced by a fresh launch.",
		}, []string{"engine"}),
		conversionRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "retries_total",
			Help:      "Conversions retried after a lost connection.",
		}, []string{"engine"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "HTTP requests currently being served.",
		}),

		grpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
		grpcTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "gRPC calls.",
		}, []string{"method", "code"}),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RenderObserved implements exporter.Observer
func (r *Recorder) RenderObserved(format, templateID string, d time.Duration, err error) {
	if templateID == "" {
		templateID = "inline"
	}
	r.renderDuration.WithLabelValues(format, status(err)).Observe(d.Seconds())
	r.renderTotal.WithLabelValues(format, templateID, status(err)).Inc()
}

// CacheLookup implements exporter.Observer
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// SectionFailed implements exporter.Observer
func (r *Recorder) SectionFailed(kind string) {
	r.sectionErrors.WithLabelValues(kind).Inc()
}

// ConversionObserved implements pdf.Observer
func (r *Recorder) ConversionObserved(engine string, d time.Duration, err error) {
	r.conversionDuration.WithLabelValues(engine).Observe(d.Seconds())
	r.conversionTotal.WithLabelValues(engine, status(err)).Inc()
}

// BrowserLaunched implements pdf.Observer
func (r *Recorder) BrowserLaunched(engine string) {
	r.browserLaunches.WithLabelValues(engine).Inc()
}

// BrowserReplaced implements pdf.Observer
func (r *Recorder) BrowserReplaced(engine string) {
	r.browserReplaced.WithLabelValues(engine).Inc()
}

// ConversionRetried implements pdf.Observer
func (r *Recorder) ConversionRetried(engine string) {
	r.conversionRetries.WithLabelValues(engine).Inc()
}

// ObserveHTTP records one finished HTTP request
func (r *Recorder) ObserveHTTP(method, path string, code int, d time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(code)}
	r.httpDuration.With(labels).Observe(d.Seconds())
	r.httpTotal.With(labels).Inc()
}

// ObserveGRPC records one finished gRPC call
func (r *Recorder) ObserveGRPC(method, code string, d time.Duration) {
	r.grpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
	r.grpcTotal.WithLabelValues(method, code).Inc()
}
