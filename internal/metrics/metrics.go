package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranchwatch_checks_total",
			Help: "Availability checks by classified outcome",
		},
		[]string{"outcome"},
	)

	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranchwatch_check_duration_seconds",
			Help:    "Duration of availability checks in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	FindingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranchwatch_findings_total",
			Help: "Newly available dates detected",
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranchwatch_alerts_total",
			Help: "Alerts dispatched by the detector",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranchwatch_notifications_total",
			Help: "Per-channel notification attempts",
		},
		[]string{"channel", "result"},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranchwatch_persist_failures_total",
			Help: "Findings that could not be written to the storage backend",
		},
	)

	ErrorStreak = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranchwatch_error_streak",
			Help: "Consecutive failed availability checks",
		},
	)

	KnownDates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranchwatch_known_dates",
			Help: "Dates seen available since the process started",
		},
	)

	SessionRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranchwatch_session_refresh_total",
			Help: "Session keep-alive rounds by result",
		},
		[]string{"result"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranchwatch_proxy_failures_total",
			Help: "Total number of proxy failures during checks",
		},
		[]string{"proxy_url"},
	)
)

// RecordCheck counts one classified availability check.
func RecordCheck(outcome string, d time.Duration) {
	ChecksTotal.WithLabelValues(outcome).Inc()
	CheckDuration.Observe(d.Seconds())
}

// RecordNotification counts one channel delivery attempt.
func RecordNotification(channel string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, result).Inc()
}

// StatusFunc returns a JSON-encodable snapshot served on /status.
type StatusFunc func() any

// Handler routes /metrics, /healthz and, when status is non-nil, /status.
func Handler(status StatusFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	if status != nil {
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(status()); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
	}

	return r
}

// Server encapsulates the HTTP server for metrics and status.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Start binds addr and serves h in the background. Binding happens before
// Start returns so a bad address is reported to the caller.
func Start(addr string, h http.Handler, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("metrics server listening", "addr", ln.Addr().String())
	return &Server{srv: srv, ln: ln, logger: logger}, nil
}

// Addr is the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
