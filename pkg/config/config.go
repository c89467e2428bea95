package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServerAddr   string
	TrustProxy   bool
	MaxBodyBytes int64    // bytes for /decide payload
	Outputs      []string // enabled sinks: log, kafka, postgres
	LogFormat    string   // "json" or "console"

	// Oracle (external LLM) settings.
	HFToken         string // credential for the inference provider; empty disables the network call
	LLMModel        string
	LLMBaseURL      string
	OracleTimeoutMS int64
	OracleCacheTTL  int64 // milliseconds; 0 disables the cache

	// Policy knobs. See classify.PolicyFromConfig for how these combine.
	OracleFallback      string // "verification" or "unsafe"; never "safe"
	IndeterminateAction string // "captcha" or "bot"
	BrowserAction       string // "captcha" or "bot"
	MinUALength         int64
	LocaleAllowlist     []string // empty disables the locale rule
	RequireTimezone     bool
}

func getOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func getBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "t", "true", "y", "yes":
		return true
	case "0", "f", "false", "n", "no":
		return false
	}
	return def
}
func getInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getStringSlice(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func Load() Config {
	return Config{
		ServerAddr:   getOr("SERVER_ADDR", ":19820"),
		TrustProxy:   getBool("TRUST_PROXY", false),
		MaxBodyBytes: getInt64("MAX_BODY_BYTES", 1<<20), // 1 MiB default
		Outputs:      getStringSlice("OUTPUTS", "log"),  // default to log only
		LogFormat:    getOr("LOG_FORMAT", "json"),

		HFToken:         getOr("HF_TOKEN", ""),
		LLMModel:        getOr("LLM_MODEL", "deepseek-ai/DeepSeek-R1-0528-Qwen3-8B"),
		LLMBaseURL:      getOr("LLM_BASE_URL", "https://router.huggingface.co/v1"),
		OracleTimeoutMS: getInt64("ORACLE_TIMEOUT_MS", 5000),
		OracleCacheTTL:  getInt64("ORACLE_CACHE_TTL_MS", 300000), // 5 minutes

		OracleFallback:      getOr("ORACLE_FALLBACK", "verification"),
		IndeterminateAction: getOr("INDETERMINATE_VERDICT", "captcha"),
		BrowserAction:       getOr("BROWSER_VERDICT", "captcha"),
		MinUALength:         getInt64("MIN_UA_LENGTH", 20),
		LocaleAllowlist:     getStringSlice("LOCALE_ALLOWLIST", ""),
		RequireTimezone:     getBool("REQUIRE_TIMEZONE", false),
	}
}
