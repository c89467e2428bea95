package sink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/signal"
)

// LogSink writes each decision record as one structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) Start(ctx context.Context) error { return nil }

func (s *LogSink) Enqueue(rec signal.Record) error {
	s.log.Info().
		Str("decision_id", rec.DecisionID).
		Str("ts", rec.TS).
		Str("verdict", rec.Verdict).
		Str("rule", rec.Rule).
		Str("reason", rec.Reason).
		Str("oracle_category", rec.OracleCategory).
		Str("client_ip", rec.ClientIP).
		Interface("signals", rec.Signals).
		Msg("decision record")
	return nil
}

func (s *LogSink) Close() error { return nil }

func (s *LogSink) Name() string { return "log" }
