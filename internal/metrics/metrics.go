package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Metrics holds the simulator's prometheus collectors on a private registry
type Metrics struct {
	registry  *prometheus.Registry
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New creates and registers the simulator collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "sensor_sim", Name: "readings_published_total", Help: "Readings accepted by the publish endpoint."},
			[]string{"sensor", "anomalous"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "sensor_sim", Name: "publish_failures_total", Help: "Readings dropped after a failed publish, by error kind."},
			[]string{"sensor", "kind"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sensor_sim",
			Name:      "publish_duration_seconds",
			Help:      "Latency of publish calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.published, m.failures, m.duration)
	return m
}

// ObservePublish records the outcome of one publish call
func (m *Metrics) ObservePublish(sensor string, anomalous bool, took time.Duration, err error) {
	m.duration.Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(sensor, string(publisher.KindOf(err))).Inc()
		return
	}
	m.published.WithLabelValues(sensor, strconv.FormatBool(anomalous)).Inc()
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Printf("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
}
