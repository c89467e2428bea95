package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/classify"
	"github.com/edgevet/edgevet/internal/oracle"
	"github.com/edgevet/edgevet/internal/signal"
)

// sampleSignals covers each rule of the cascade once.
func sampleSignals() []signal.RequestSignals {
	yes := true
	no := false

	return []signal.RequestSignals{
		{
			// Honeypot hit: everything else looks clean.
			UA:              "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			JSEnabled:       &yes,
			SupportsCookies: &yes,
			ScreenRes:       "1920x1080",
			Lang:            "en-US",
			HoneypotVisited: true,
		},
		{
			// Edge flagged a datacenter origin.
			UA:              "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
			JSEnabled:       &yes,
			SupportsCookies: &yes,
			IsDataCenterASN: true,
		},
		{
			// Cloud ISP: the oracle stub answers unsafe.
			UA:              "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			JSEnabled:       &yes,
			SupportsCookies: &yes,
			ScreenRes:       "1440x900",
			Lang:            "en-US",
			ISP:             "Microsoft Azure",
		},
		{
			// Scripted client: no JS, no cookies, curl UA.
			UA:        "curl/8.5.0",
			JSEnabled: &no,
		},
		{
			// Clean residential request.
			UA:              "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			JSEnabled:       &yes,
			SupportsCookies: &yes,
			ScreenRes:       "1920x1080",
			Lang:            "en-US",
			Timezone:        "America/New_York",
			ISP:             "Comcast Cable",
		},
	}
}

// runTestMode pushes the sample signals through a real engine with a
// keyword-only oracle (prefilter answers, no network) and emits the
// resulting records to the configured sinks.
func runTestMode(policy classify.Policy, emit func(signal.Record), logger zerolog.Logger) {
	logger.Info().Msg("TEST MODE: generating sample decisions")

	llm := oracle.NewLLM(oracle.LLMConfig{
		Model:    "disabled",
		BaseURL:  "http://localhost:0",
		Timeout:  time.Second,
		Fallback: oracle.CategoryVerification,
	}, logger, nil)
	engine := classify.NewEngine(policy, llm)

	samples := sampleSignals()
	for i, s := range samples {
		outcome := engine.Decide(context.Background(), &s)
		rec := signal.Record{
			DecisionID: uuid.New().String(),
			TS:         time.Now().UTC().Format(time.RFC3339Nano),
			Verdict:    string(outcome.Verdict),
			Reason:     outcome.Reason,
			Rule:       outcome.Rule,
			Signals:    s,
			ClientIP:   "203.0.113.42",
		}
		if outcome.Oracle != nil {
			rec.OracleCategory = string(outcome.Oracle.Category)
			rec.OracleRationale = outcome.Oracle.Rationale
		}
		logger.Info().
			Int("sample", i+1).
			Int("total", len(samples)).
			Str("verdict", rec.Verdict).
			Str("rule", rec.Rule).
			Msg("sending test decision")
		emit(rec)

		if i < len(samples)-1 {
			time.Sleep(200 * time.Millisecond)
		}
	}

	logger.Info().Msg("TEST MODE: all sample decisions sent")
}
