// Package metrics exposes study activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
)

// Recorder collects study metrics on its own registry. It implements
// session.Observer.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	ratingsTotal      *prometheus.CounterVec
	undosTotal        prometheus.Counter
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionAccuracy   prometheus.Histogram
	queueRemaining    prometheus.Gauge
	flushDuration     prometheus.Histogram
}

var _ session.Observer = (*Recorder)(nil)

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,

		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "knolstudy_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "knolstudy_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		ratingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "knolstudy_ratings_total",
			Help: "Total number of applied ratings by bucket",
		}, []string{"rating"}),

		undosTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "knolstudy_undos_total",
			Help: "Total number of undone ratings",
		}),

		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "knolstudy_sessions_started_total",
			Help: "Total number of study sessions started",
		}),

		sessionsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "knolstudy_sessions_completed_total",
			Help: "Total number of study sessions run to the end of their queue",
		}),

		sessionAccuracy: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "knolstudy_session_accuracy_percent",
			Help:    "Accuracy of completed sessions",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),

		queueRemaining: f.NewGauge(prometheus.GaugeOpts{
			Name: "knolstudy_queue_remaining",
			Help: "Cards left in the active session queue",
		}),

		flushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "knolstudy_flush_duration_seconds",
			Help:    "Duration of write-behind flushes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) SessionStarted(s *session.State) {
	r.sessionsStarted.Inc()
	r.queueRemaining.Set(float64(s.Remaining()))
}

func (r *Recorder) CardRated(s *session.State, l domain.ReviewLog) {
	r.ratingsTotal.WithLabelValues(l.Rating.String()).Inc()
	r.queueRemaining.Set(float64(s.Remaining()))
}

func (r *Recorder) RatingUndone(s *session.State, _ session.UndoRecord) {
	r.undosTotal.Inc()
	r.queueRemaining.Set(float64(s.Remaining()))
}

func (r *Recorder) SessionCompleted(_ *session.State, sum session.Summary) {
	r.sessionsCompleted.Inc()
	r.sessionAccuracy.Observe(float64(sum.AccuracyPercent))
	r.queueRemaining.Set(0)
}

// ObserveFlush records the duration of one write-behind flush.
func (r *Recorder) ObserveFlush(d time.Duration) {
	r.flushDuration.Observe(d.Seconds())
}

// Middleware counts and times requests. endpoint labels the route so
// path parameters do not explode cardinality.
func (r *Recorder) Middleware(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(sw.status)).Inc()
		r.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
