package metrics

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all the Prometheus metrics for edgevet.
type Metrics struct {
	// Counters
	Decisions      *prometheus.CounterVec
	OracleRequests *prometheus.CounterVec
	SinkErrors     *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec

	// Gauges
	QueueDepth *prometheus.GaugeVec

	// Histograms
	OracleLatency prometheus.Histogram
	HTTPDuration  *prometheus.HistogramVec
}

// Config holds configuration for the metrics server.
type Config struct {
	Enabled    bool
	Addr       string
	TLSCert    string
	TLSKey     string
	ClientCA   string
	RequireTLS bool
}

// LoadConfig loads metrics configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Enabled:    getBool("METRICS_ENABLED", false),
		Addr:       getOr("METRICS_ADDR", "127.0.0.1:9090"),
		TLSCert:    getOr("METRICS_TLS_CERT", ""),
		TLSKey:     getOr("METRICS_TLS_KEY", ""),
		ClientCA:   getOr("METRICS_CLIENT_CA", ""),
		RequireTLS: getBool("METRICS_REQUIRE_TLS", false),
	}
}

// NewMetrics creates all edgevet metrics and registers them on reg. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry to avoid
// duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgevet_decisions_total",
				Help: "Total decisions by verdict and deciding rule",
			},
			[]string{"verdict", "rule"},
		),

		OracleRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgevet_oracle_requests_total",
				Help: "Total ISP oracle lookups by outcome (ok, error, no_tag, cache, prefilter, no_credential)",
			},
			[]string{"outcome"},
		),

		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgevet_sink_errors_total",
				Help: "Total errors writing to a sink",
			},
			[]string{"sink", "error_type"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgevet_http_requests_total",
				Help: "Total HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgevet_queue_depth",
				Help: "Current depth of a sink's internal batch queue",
			},
			[]string{"sink"},
		),

		OracleLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edgevet_oracle_latency_seconds",
				Help:    "Latency of the external ISP classification call",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgevet_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint", "method"},
		),
	}

	reg.MustRegister(
		m.Decisions,
		m.OracleRequests,
		m.SinkErrors,
		m.HTTPRequests,
		m.QueueDepth,
		m.OracleLatency,
		m.HTTPDuration,
	)

	return m
}

// Server serves /metrics on its own listener, optionally with TLS/mTLS.
type Server struct {
	server *http.Server
	config Config
	log    zerolog.Logger
}

// NewServer creates a new metrics server.
func NewServer(config Config, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:         config.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if config.RequireTLS && config.TLSCert != "" && config.TLSKey != "" {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if config.ClientCA != "" {
			clientCAs, err := loadCertPool(config.ClientCA)
			if err != nil {
				logger.Error().Err(err).Str("ca", config.ClientCA).Msg("metrics: failed to load client CA")
			} else {
				tlsConfig.ClientCAs = clientCAs
				tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
			}
		}
		srv.TLSConfig = tlsConfig
	}

	return &Server{
		server: srv,
		config: config,
		log:    logger,
	}
}

// Start starts the metrics server in a separate goroutine.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info().Msg("metrics: disabled (METRICS_ENABLED=false)")
		return nil
	}
	if s.config.RequireTLS && (s.config.TLSCert == "" || s.config.TLSKey == "") {
		// Serving plain HTTP here would silently violate the operator's
		// TLS requirement.
		s.log.Error().Msg("metrics: TLS required but METRICS_TLS_CERT/METRICS_TLS_KEY not set, refusing to start")
		return fmt.Errorf("metrics: TLS required but cert/key not configured")
	}

	go func() {
		var err error
		if s.config.RequireTLS {
			s.log.Info().Str("addr", s.config.Addr).Msg("metrics: HTTPS server listening")
			err = s.server.ListenAndServeTLS(s.config.TLSCert, s.config.TLSKey)
		} else {
			s.log.Info().Str("addr", s.config.Addr).Msg("metrics: HTTP server listening")
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("metrics: server error")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func loadCertPool(certFile string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates parsed from %s", certFile)
	}
	return pool, nil
}

// Helper functions
func getOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Convenience methods for common operations
func (m *Metrics) IncrementDecisions(verdict, rule string) {
	m.Decisions.WithLabelValues(verdict, rule).Inc()
}

func (m *Metrics) IncrementOracleRequests(outcome string) {
	m.OracleRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementSinkErrors(sink, errorType string) {
	m.SinkErrors.WithLabelValues(sink, errorType).Inc()
}

func (m *Metrics) IncrementHTTPRequests(endpoint, method, status string) {
	m.HTTPRequests.WithLabelValues(endpoint, method, status).Inc()
}

func (m *Metrics) SetQueueDepth(sink string, depth float64) {
	m.QueueDepth.WithLabelValues(sink).Set(depth)
}

func (m *Metrics) ObserveOracleLatency(duration time.Duration) {
	m.OracleLatency.Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPDuration(endpoint, method string, duration time.Duration) {
	m.HTTPDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}
