package classify

import (
	"strings"

	"github.com/edgevet/edgevet/internal/signal"
)

// browserSuspicion describes why the browser-integrity rule fired.
type browserSuspicion struct {
	suspicious bool
	detail     string
}

// checkBrowser computes the browser-integrity rule: the logical OR of JS
// disabled, cookies unsupported, an implausibly short user-agent, a
// user-agent containing an automation keyword, and a degenerate screen
// resolution. Absent booleans count as failing.
func (p Policy) checkBrowser(s *signal.RequestSignals) browserSuspicion {
	if !s.JSOK() {
		return browserSuspicion{true, "JavaScript disabled or unreported"}
	}
	if !s.CookiesOK() {
		return browserSuspicion{true, "cookies unsupported or unreported"}
	}
	if len(s.UA) < p.MinUALength {
		return browserSuspicion{true, "user-agent shorter than minimum length"}
	}
	lowerUA := strings.ToLower(s.UA)
	for _, kw := range p.BotKeywords {
		if strings.Contains(lowerUA, kw) {
			return browserSuspicion{true, "user-agent contains automation keyword: " + kw}
		}
	}
	for _, res := range p.DegenerateResolutions {
		if s.ScreenRes == res {
			return browserSuspicion{true, "degenerate screen resolution: " + res}
		}
	}
	return browserSuspicion{}
}

// checkLocale computes the optional locale plausibility rule. A nil
// allow-list disables the language check entirely.
func (p Policy) checkLocale(s *signal.RequestSignals) browserSuspicion {
	if len(p.LocaleAllowlist) > 0 {
		allowed := false
		for _, tag := range p.LocaleAllowlist {
			if s.Lang == tag {
				allowed = true
				break
			}
		}
		if !allowed {
			return browserSuspicion{true, "language not in expected locale set"}
		}
	}
	if p.RequireTimezone && s.Timezone == "" {
		return browserSuspicion{true, "timezone missing"}
	}
	return browserSuspicion{}
}
