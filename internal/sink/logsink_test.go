package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/signal"
)

func TestLogSinkEnqueue(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(zerolog.New(&buf))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	rec := signal.Record{
		DecisionID:     "dec-1",
		TS:             "2026-01-02T03:04:05Z",
		Verdict:        "bot",
		Rule:           "honeypot",
		Reason:         "honeypot triggered",
		OracleCategory: "",
		ClientIP:       "203.0.113.7",
		Signals:        signal.RequestSignals{UA: "curl/8.0", ISP: "Example Hosting"},
	}
	if err := s.Enqueue(rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if line["decision_id"] != "dec-1" || line["verdict"] != "bot" || line["rule"] != "honeypot" {
		t.Errorf("line = %v", line)
	}
	signals, ok := line["signals"].(map[string]any)
	if !ok || signals["ua"] != "curl/8.0" {
		t.Errorf("signals not embedded: %v", line["signals"])
	}

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLogSinkName(t *testing.T) {
	if got := NewLogSink(zerolog.Nop()).Name(); got != "log" {
		t.Errorf("Name() = %q", got)
	}
}
