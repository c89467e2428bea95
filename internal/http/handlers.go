package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/classify"
	"github.com/edgevet/edgevet/internal/metrics"
	"github.com/edgevet/edgevet/internal/signal"
	"github.com/edgevet/edgevet/pkg/config"
)

// Env carries the handler dependencies, constructed once in main.
type Env struct {
	Cfg     config.Config
	Engine  *classify.Engine
	Emit    func(signal.Record) // injected sink fan-out
	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// statusResponse is the static liveness payload.
type statusResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// decisionResponse is the /decide reply. The decision endpoint always
// returns 200 with a verdict; oracle trouble degrades one rule, never the
// whole decision.
type decisionResponse struct {
	DecisionID  string                 `json:"decision_id"`
	Verdict     string                 `json:"verdict"`
	Reason      string                 `json:"reason"`
	Rule        string                 `json:"rule"`
	Details     *signal.RequestSignals `json:"details,omitempty"`
	AIReasoning string                 `json:"ai_reasoning,omitempty"`
}

func (e Env) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(statusResponse{Status: "ok", Model: e.Cfg.LLMModel})
}

func (e Env) Readyz(w http.ResponseWriter, r *http.Request) {
	// TODO: verify sink connectivity (Kafka/PG) before returning 200
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Decide adjudicates one RequestSignals bundle. POST only, JSON in, JSON
// out.
func (e Env) Decide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		http.Error(w, "content-type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	defer r.Body.Close()

	var sig signal.RequestSignals
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, e.Cfg.MaxBodyBytes))
	if err := dec.Decode(&sig); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	clientIP := signal.EnrichServerFields(r, &sig, e.Cfg)
	outcome := e.Engine.Decide(r.Context(), &sig)

	rec := signal.Record{
		DecisionID: uuid.New().String(),
		TS:         time.Now().UTC().Format(time.RFC3339Nano),
		Verdict:    string(outcome.Verdict),
		Reason:     outcome.Reason,
		Rule:       outcome.Rule,
		Signals:    sig,
		ClientIP:   clientIP,
	}
	resp := decisionResponse{
		DecisionID: rec.DecisionID,
		Verdict:    rec.Verdict,
		Reason:     rec.Reason,
		Rule:       rec.Rule,
		Details:    &sig,
	}
	if outcome.Oracle != nil {
		rec.OracleCategory = string(outcome.Oracle.Category)
		rec.OracleRationale = outcome.Oracle.Rationale
		resp.AIReasoning = outcome.Oracle.Rationale
	}

	if e.Emit != nil {
		e.Emit(rec)
	}
	if e.Metrics != nil {
		e.Metrics.IncrementDecisions(rec.Verdict, rec.Rule)
	}
	e.Log.Info().
		Str("decision_id", rec.DecisionID).
		Str("verdict", rec.Verdict).
		Str("rule", rec.Rule).
		Str("isp", sig.ISP).
		Str("client_ip", clientIP).
		Msg("decision")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
