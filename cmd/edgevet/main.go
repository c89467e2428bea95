package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/classify"
	httpx "github.com/edgevet/edgevet/internal/http"
	"github.com/edgevet/edgevet/internal/metrics"
	"github.com/edgevet/edgevet/internal/oracle"
	sig "github.com/edgevet/edgevet/internal/signal"
	"github.com/edgevet/edgevet/internal/sink"
	"github.com/edgevet/edgevet/pkg/config"
)

func newLogger(format string) zerolog.Logger {
	if format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// initializeSinks starts one sink per requested output type, skipping
// unknown names and sinks that fail to start.
func initializeSinks(ctx context.Context, outputs []string, logger zerolog.Logger, m *metrics.Metrics) []sink.Sink {
	sinks := make([]sink.Sink, 0, len(outputs))
	for _, output := range outputs {
		var s sink.Sink
		switch output {
		case "log":
			s = sink.NewLogSink(logger)
		case "kafka":
			s = sink.NewKafkaSinkFromEnv()
		case "postgres":
			pg := sink.NewPGSinkFromEnv()
			pg.SetMetrics(m)
			s = pg
		default:
			logger.Warn().Str("output", output).Msg("unknown output type, skipping")
			continue
		}
		if err := s.Start(ctx); err != nil {
			logger.Error().Err(err).Str("sink", s.Name()).Msg("sink failed to start, skipping")
			continue
		}
		sinks = append(sinks, s)
	}
	return sinks
}

func main() {
	testMode := flag.Bool("test", false, "push sample decisions through the pipeline and exit")
	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg.LogFormat)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks := initializeSinks(ctx, cfg.Outputs, logger, m)
	if len(sinks) == 0 {
		logger.Warn().Msg("no sinks started, decisions will not be recorded")
	}
	emit := func(rec sig.Record) {
		for _, s := range sinks {
			if err := s.Enqueue(rec); err != nil {
				m.IncrementSinkErrors(s.Name(), "enqueue")
				logger.Error().Err(err).Str("sink", s.Name()).Msg("sink enqueue failed")
			}
		}
	}

	policy := classify.PolicyFromConfig(cfg)

	if *testMode {
		runTestMode(policy, emit, logger)
		for _, s := range sinks {
			_ = s.Close()
		}
		return
	}

	llm, err := oracle.NewLLMFromConfig(cfg, logger, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid oracle configuration")
	}
	engine := classify.NewEngine(policy, llm)

	metricsServer := metrics.NewServer(metrics.LoadConfig(), logger)
	if err := metricsServer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("metrics server failed to start")
	}

	env := httpx.Env{
		Cfg:     cfg,
		Engine:  engine,
		Emit:    emit,
		Log:     logger,
		Metrics: m,
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      httpx.NewMux(env),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("model", cfg.LLMModel).Msg("edgevet listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	for _, s := range sinks {
		_ = s.Close()
	}
}
