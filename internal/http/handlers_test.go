package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/edgevet/edgevet/internal/classify"
	"github.com/edgevet/edgevet/internal/oracle"
	"github.com/edgevet/edgevet/internal/signal"
	"github.com/edgevet/edgevet/pkg/config"
)

func testEnv(o oracle.Classifier, emit func(signal.Record)) Env {
	return Env{
		Cfg: config.Config{
			LLMModel:     "test-model",
			MaxBodyBytes: 1 << 20,
		},
		Engine: classify.NewEngine(classify.DefaultPolicy(), o),
		Emit:   emit,
		Log:    zerolog.Nop(),
	}
}

func postDecide(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, decisionResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/decide", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp decisionResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
		}
	}
	return rr, resp
}

func TestHealthz(t *testing.T) {
	e := testEnv(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	e.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Model != "test-model" {
		t.Errorf("body = %+v", got)
	}
}

func TestReadyz(t *testing.T) {
	e := testEnv(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	e.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "ready" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestDecideRejectsNonPost(t *testing.T) {
	e := testEnv(nil, nil)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/decide", nil)
		rr := httptest.NewRecorder()
		e.Decide(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status = %d, want %d", method, rr.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestDecideRejectsWrongContentType(t *testing.T) {
	e := testEnv(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/decide", strings.NewReader("ua=curl"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.Decide(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnsupportedMediaType)
	}
}

func TestDecideRejectsBadJSON(t *testing.T) {
	e := testEnv(nil, nil)
	rr, _ := postDecide(t, http.HandlerFunc(e.Decide), `{"ua": `)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDecideHoneypot(t *testing.T) {
	var emitted []signal.Record
	e := testEnv(nil, func(rec signal.Record) { emitted = append(emitted, rec) })

	rr, resp := postDecide(t, http.HandlerFunc(e.Decide), `{"honeypotVisited": true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Verdict != "bot" || resp.Rule != "honeypot" {
		t.Errorf("verdict = %q rule = %q", resp.Verdict, resp.Rule)
	}
	if resp.DecisionID == "" {
		t.Error("decision_id missing")
	}
	if len(emitted) != 1 {
		t.Fatalf("emitted %d records, want 1", len(emitted))
	}
	if emitted[0].Verdict != "bot" || emitted[0].DecisionID != resp.DecisionID {
		t.Errorf("record = %+v", emitted[0])
	}
}

func TestDecideCleanRequest(t *testing.T) {
	o := oracle.Static{Result: oracle.Result{Category: oracle.CategorySafe, Rationale: "residential ISP [safe]"}}
	var emitted []signal.Record
	e := testEnv(o, func(rec signal.Record) { emitted = append(emitted, rec) })

	body := `{
		"ua": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"jsEnabled": true,
		"supportsCookies": true,
		"screenRes": "1920x1080",
		"lang": "en-US",
		"timezone": "America/New_York",
		"isp": "Comcast Cable"
	}`
	rr, resp := postDecide(t, http.HandlerFunc(e.Decide), body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Verdict != "user" || resp.Rule != "default" {
		t.Errorf("verdict = %q rule = %q reason = %q", resp.Verdict, resp.Rule, resp.Reason)
	}
	if !strings.Contains(resp.AIReasoning, "residential") {
		t.Errorf("ai_reasoning = %q", resp.AIReasoning)
	}
	if len(emitted) != 1 || emitted[0].OracleCategory != "safe" {
		t.Errorf("record = %+v", emitted)
	}
}

func TestDecideUnsafeNetwork(t *testing.T) {
	o := oracle.Static{Result: oracle.Result{Category: oracle.CategoryUnsafe, Rationale: "cloud provider [unsafe]"}}
	e := testEnv(o, nil)

	body := `{
		"ua": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		"jsEnabled": true,
		"supportsCookies": true,
		"isp": "Example Hosting GmbH"
	}`
	rr, resp := postDecide(t, http.HandlerFunc(e.Decide), body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Verdict != "bot" || resp.Rule != "network_reputation" {
		t.Errorf("verdict = %q rule = %q", resp.Verdict, resp.Rule)
	}
}

func TestDecideAlwaysReturns200WithVerdict(t *testing.T) {
	// Even a fully empty payload yields a decision, not an error.
	e := testEnv(nil, nil)
	rr, resp := postDecide(t, http.HandlerFunc(e.Decide), `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp.Verdict == "" || resp.Rule == "" || resp.Reason == "" {
		t.Errorf("incomplete decision: %+v", resp)
	}
}

func TestDecideFillsUAFromHeader(t *testing.T) {
	var emitted []signal.Record
	e := testEnv(nil, func(rec signal.Record) { emitted = append(emitted, rec) })

	req := httptest.NewRequest(http.MethodPost, "/decide", strings.NewReader(`{"jsEnabled": true, "supportsCookies": true, "screenRes": "1920x1080"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15")
	rr := httptest.NewRecorder()
	e.Decide(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(emitted) != 1 || emitted[0].Signals.UA == "" {
		t.Errorf("UA not enriched from header: %+v", emitted)
	}
}

func TestDecideBodyLimit(t *testing.T) {
	e := testEnv(nil, nil)
	e.Cfg.MaxBodyBytes = 64

	big := `{"ua": "` + strings.Repeat("x", 256) + `"}`
	rr, _ := postDecide(t, http.HandlerFunc(e.Decide), big)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMuxRouting(t *testing.T) {
	e := testEnv(nil, nil)
	h := NewMux(e)

	t.Run("root serves liveness", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("unknown path 404s", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("decide is wired", func(t *testing.T) {
		rr, resp := postDecide(t, h, `{"honeypotVisited": true}`)
		if rr.Code != http.StatusOK || resp.Verdict != "bot" {
			t.Errorf("status = %d verdict = %q", rr.Code, resp.Verdict)
		}
	})
}
