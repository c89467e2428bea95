package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/edgevet/edgevet/internal/metrics"
	"github.com/edgevet/edgevet/pkg/config"
)

const (
	maxTokens          = 250
	temperature        = 0.1
	maxErrorBodyLength = 512
	defaultCacheSize   = 4096
)

// LLMConfig holds the settings for the hosted-model classifier. It is
// constructed once at startup and passed in; nothing here is read from the
// environment at request time.
type LLMConfig struct {
	Token    string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Fallback Category // substituted on any failure; must not be CategorySafe
	CacheTTL time.Duration
}

// LLM classifies ISP names through an OpenAI-style chat-completions
// endpoint. A static keyword prefilter and a short-TTL cache run before the
// network call, and a circuit breaker keeps a misbehaving provider from
// slowing every request.
type LLM struct {
	cfg     LLMConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	cache   *resultCache
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewLLMFromConfig builds the classifier from the process configuration.
func NewLLMFromConfig(cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) (*LLM, error) {
	fallback, err := ParseCategory(cfg.OracleFallback)
	if err != nil {
		return nil, err
	}
	if fallback == CategorySafe {
		// Falling back to safe on oracle failure would defeat the check.
		return nil, fmt.Errorf("oracle fallback category must not be %q", CategorySafe)
	}
	return NewLLM(LLMConfig{
		Token:    cfg.HFToken,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  time.Duration(cfg.OracleTimeoutMS) * time.Millisecond,
		Fallback: fallback,
		CacheTTL: time.Duration(cfg.OracleCacheTTL) * time.Millisecond,
	}, logger, m), nil
}

// NewLLM builds the classifier from explicit settings.
func NewLLM(cfg LLMConfig, logger zerolog.Logger, m *metrics.Metrics) *LLM {
	o := &LLM{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log:     logger,
		metrics: m,
	}
	if cfg.CacheTTL > 0 {
		o.cache = newResultCache(cfg.CacheTTL, defaultCacheSize)
	}
	o.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "isp-oracle",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("oracle circuit breaker state change")
		},
	})
	return o
}

// Classify resolves an ISP name to a trust category. It never returns an
// error: any failure along the way yields the configured fallback category
// with a diagnostic rationale.
func (o *LLM) Classify(ctx context.Context, isp string) Result {
	if isp == "" {
		return Result{Category: o.cfg.Fallback, Rationale: "no ISP name provided"}
	}
	if res, ok := prefilter(isp); ok {
		o.observe("prefilter")
		return res
	}
	if res, ok := o.cache.get(isp); ok {
		o.observe("cache")
		return res
	}
	if o.cfg.Token == "" {
		o.observe("no_credential")
		return Result{Category: o.cfg.Fallback, Rationale: "no inference credential configured"}
	}

	start := time.Now()
	reply, err := o.breaker.Execute(func() (string, error) {
		return o.chatCompletion(ctx, isp)
	})
	if o.metrics != nil {
		o.metrics.ObserveOracleLatency(time.Since(start))
	}
	if err != nil {
		o.observe("error")
		o.log.Warn().Err(err).Str("isp", isp).Msg("oracle call failed, using fallback category")
		return Result{
			Category:  o.cfg.Fallback,
			Rationale: fmt.Sprintf("classification error: %v", err),
		}
	}

	category, ok := extractCategory(reply)
	if !ok {
		o.observe("no_tag")
		o.log.Warn().Str("isp", isp).Msg("no category tag in model response, using fallback category")
		res := Result{
			Category:  o.cfg.Fallback,
			Rationale: "no category tag found in model response; fallback applied. Model said: " + reply,
		}
		o.cache.put(isp, res)
		return res
	}

	o.observe("ok")
	res := Result{Category: category, Rationale: reply}
	o.cache.put(isp, res)
	o.log.Debug().Str("isp", isp).Str("category", string(category)).Msg("oracle classified ISP")
	return res
}

func (o *LLM) observe(outcome string) {
	if o.metrics != nil {
		o.metrics.IncrementOracleRequests(outcome)
	}
}

// --- chat-completions wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatCompletion performs one synchronous round trip to the inference
// provider and returns the raw reply text.
func (o *LLM) chatCompletion(ctx context.Context, isp string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(isp)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.Token)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > maxErrorBodyLength {
			snippet = snippet[:maxErrorBodyLength]
		}
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat response contained no content")
	}
	return parsed.Choices[0].Message.Content, nil
}
