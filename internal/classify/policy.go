package classify

import (
	"github.com/edgevet/edgevet/internal/oracle"
	"github.com/edgevet/edgevet/pkg/config"
)

// Verdict is the final classification of a request.
type Verdict string

const (
	VerdictBot     Verdict = "bot"
	VerdictCaptcha Verdict = "captcha"
	VerdictUser    Verdict = "user"
)

// Policy captures every knob the rule variants disagree on. The deployed
// behavior is a Policy value, not a code path: all observed variants are
// reproducible by changing configuration.
type Policy struct {
	// MinUALength is the shortest user-agent considered plausible.
	MinUALength int

	// BotKeywords flags a user-agent containing any of these substrings
	// (matched case-insensitively).
	BotKeywords []string

	// DegenerateResolutions are screen sizes no real display reports.
	DegenerateResolutions []string

	// BrowserVerdict is issued when the browser-integrity rule fires.
	// Captcha by default: these are soft signals, so "needs verification"
	// rather than an outright ban.
	BrowserVerdict Verdict

	// IndeterminateVerdict is issued when the oracle returns the
	// verification category.
	IndeterminateVerdict Verdict

	// LocaleAllowlist enables the locale plausibility rule when non-empty:
	// a language tag outside the list yields captcha.
	LocaleAllowlist []string

	// RequireTimezone extends the locale rule to a missing timezone.
	RequireTimezone bool
}

// originalLocales is the allow-list the strict deployment shipped with.
var originalLocales = []string{"en-US", "en-CA", "en", "fr", "es", "de", "fr-CA", "ja-JP"}

// defaultBotKeywords covers common automation tools and scanners.
var defaultBotKeywords = []string{
	"bot", "curl", "python", "wget", "scrapy",
	"headless", "phantom", "selenium", "spider",
	"zgrab", "nmap", "masscan",
}

// DefaultPolicy is the lenient deployment: soft browser signals ask for
// verification instead of banning, and the locale rule is off.
func DefaultPolicy() Policy {
	return Policy{
		MinUALength:           20,
		BotKeywords:           defaultBotKeywords,
		DegenerateResolutions: []string{"0x0", "1x1"},
		BrowserVerdict:        VerdictCaptcha,
		IndeterminateVerdict:  VerdictCaptcha,
	}
}

// StrictPolicy is the conservative deployment: every soft signal is treated
// as bot traffic and the locale rule is on.
func StrictPolicy() Policy {
	p := DefaultPolicy()
	p.BrowserVerdict = VerdictBot
	p.IndeterminateVerdict = VerdictBot
	p.LocaleAllowlist = originalLocales
	p.RequireTimezone = true
	return p
}

// PolicyFromConfig builds a Policy from the process configuration, starting
// from the default preset.
func PolicyFromConfig(cfg config.Config) Policy {
	p := DefaultPolicy()
	if cfg.MinUALength > 0 {
		p.MinUALength = int(cfg.MinUALength)
	}
	if cfg.BrowserAction == string(VerdictBot) {
		p.BrowserVerdict = VerdictBot
	}
	if cfg.IndeterminateAction == string(VerdictBot) {
		p.IndeterminateVerdict = VerdictBot
	}
	p.LocaleAllowlist = cfg.LocaleAllowlist
	p.RequireTimezone = cfg.RequireTimezone
	return p
}

// dispositionFor maps an oracle category onto the cascade's next move.
func (p Policy) dispositionFor(c oracle.Category) (Verdict, bool) {
	switch {
	case c.IsUnsafe():
		return VerdictBot, true
	case c.IsIndeterminate():
		return p.IndeterminateVerdict, true
	}
	return "", false // known-safe: proceed to the next rule
}
