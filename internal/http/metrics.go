package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rebuildhq/storeconnect/internal/http/middlewares"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de requests HTTP por método, path y status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de los requests HTTP.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests HTTP en vuelo.",
		},
	)
)

func init() {
	registerCollector(httpRequestsTotal)
	registerCollector(httpRequestDuration)
	registerCollector(httpInflight)
}

// registerCollector registra ignorando AlreadyRegistered (tests re-importan).
func registerCollector(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

// WithMetrics instrumenta cada request con counter, histograma e inflight.
func WithMetrics() middlewares.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpInflight.Inc()
			defer httpInflight.Dec()

			rec := &metricsRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := normalizePath(r.URL.Path)
			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (m *metricsRecorder) WriteHeader(code int) {
	if !m.wroteHeader {
		m.status = code
		m.wroteHeader = true
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *metricsRecorder) Write(b []byte) (int, error) {
	if !m.wroteHeader {
		m.status = http.StatusOK
		m.wroteHeader = true
	}
	return m.ResponseWriter.Write(b)
}

// normalizePath colapsa segmentos dinámicos (ids numéricos, tokens largos)
// para no explotar la cardinalidad de los labels.
func normalizePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segs[i] = ":id"
			continue
		}
		if len(s) > 40 {
			segs[i] = ":token"
		}
	}
	return strings.Join(segs, "/")
}

// =================================================================================
// DB POOL COLLECTOR
// =================================================================================

// dbPoolCollector expone métricas del pool pgx.
type dbPoolCollector struct {
	stats func() *pgxpool.Stat

	total    *prometheus.Desc
	idle     *prometheus.Desc
	acquired *prometheus.Desc
	maxConns *prometheus.Desc
}

// RegisterPoolMetrics registra el collector del pool (no-op si stats es nil).
func RegisterPoolMetrics(stats func() *pgxpool.Stat) {
	if stats == nil {
		return
	}
	registerCollector(&dbPoolCollector{
		stats:    stats,
		total:    prometheus.NewDesc("db_pool_total_conns", "Conexiones totales del pool.", nil, nil),
		idle:     prometheus.NewDesc("db_pool_idle_conns", "Conexiones idle del pool.", nil, nil),
		acquired: prometheus.NewDesc("db_pool_acquired_conns", "Conexiones en uso del pool.", nil, nil),
		maxConns: prometheus.NewDesc("db_pool_max_conns", "Tamaño máximo del pool.", nil, nil),
	})
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.idle
	ch <- c.acquired
	ch <- c.maxConns
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	if st == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(st.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(st.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(st.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(st.MaxConns()))
}
