package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestNewMetricsRegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncrementDecisions("bot", "honeypot")
	m.IncrementDecisions("bot", "honeypot")
	m.IncrementDecisions("user", "default")
	m.IncrementOracleRequests("cache")
	m.IncrementSinkErrors("postgres", "enqueue")
	m.IncrementHTTPRequests("/decide", "POST", "200")
	m.SetQueueDepth("postgres", 12)
	m.ObserveOracleLatency(250 * time.Millisecond)
	m.ObserveHTTPDuration("/decide", "POST", 3*time.Millisecond)

	if got := testutil.ToFloat64(m.Decisions.WithLabelValues("bot", "honeypot")); got != 2 {
		t.Errorf("decisions{bot,honeypot} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.OracleRequests.WithLabelValues("cache")); got != 1 {
		t.Errorf("oracle_requests{cache} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth.WithLabelValues("postgres")); got != 12 {
		t.Errorf("queue_depth{postgres} = %v, want 12", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"edgevet_decisions_total":        false,
		"edgevet_oracle_requests_total":  false,
		"edgevet_sink_errors_total":      false,
		"edgevet_http_requests_total":    false,
		"edgevet_queue_depth":            false,
		"edgevet_oracle_latency_seconds": false,
		"edgevet_http_duration_seconds":  false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"METRICS_ENABLED", "METRICS_ADDR", "METRICS_TLS_CERT", "METRICS_TLS_KEY", "METRICS_CLIENT_CA", "METRICS_REQUIRE_TLS"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.Enabled {
		t.Error("metrics should default to disabled")
	}
	if cfg.Addr != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.RequireTLS {
		t.Error("RequireTLS should default to false")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_ADDR", "0.0.0.0:9100")

	cfg := LoadConfig()
	if !cfg.Enabled || cfg.Addr != "0.0.0.0:9100" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestStartRefusesMissingTLSMaterial(t *testing.T) {
	// RequireTLS with no cert/key must fail loudly instead of silently
	// serving plain HTTP.
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no cert or key", Config{Enabled: true, RequireTLS: true, Addr: "127.0.0.1:0"}},
		{"cert without key", Config{Enabled: true, RequireTLS: true, Addr: "127.0.0.1:0", TLSCert: "/etc/edgevet/tls.crt"}},
		{"key without cert", Config{Enabled: true, RequireTLS: true, Addr: "127.0.0.1:0", TLSKey: "/etc/edgevet/tls.key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.cfg, zerolog.Nop())
			if err := srv.Start(context.Background()); err == nil {
				t.Error("Start should refuse to serve without TLS material")
			}
		})
	}
}

func TestDisabledServerIsANoop(t *testing.T) {
	srv := NewServer(Config{Enabled: false, Addr: "127.0.0.1:0"}, zerolog.Nop())
	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Errorf("start: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
