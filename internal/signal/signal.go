package signal

// RequestSignals is the snapshot of client signals the edge layer sends for
// adjudication. Every field is optional; absent booleans arrive as nil and
// are treated as failing the corresponding check. The struct is read-only
// through the decision pipeline.
type RequestSignals struct {
	UA              string `json:"ua,omitempty"`
	SupportsCookies *bool  `json:"supportsCookies,omitempty"`
	JSEnabled       *bool  `json:"jsEnabled,omitempty"`
	ScreenRes       string `json:"screenRes,omitempty"` // "WxH", e.g. "1920x1080"
	Lang            string `json:"lang,omitempty"`      // BCP 47 tag, e.g. "en-US"
	Timezone        string `json:"timezone,omitempty"`
	ISP             string `json:"isp,omitempty"`

	// Opaque client metadata. Logged for observability, never consulted by
	// the rule cascade.
	Headers     map[string]string `json:"headers,omitempty"`
	Fingerprint map[string]any    `json:"fingerprint,omitempty"`

	// Abuse flags precomputed by the edge/CDN layer.
	IsBotUserAgent      bool `json:"isBotUserAgent,omitempty"`
	IsScraperISP        bool `json:"isScraperISP,omitempty"`
	IsIPAbuser          bool `json:"isIPAbuser,omitempty"`
	IsSuspiciousTraffic bool `json:"isSuspiciousTraffic,omitempty"`
	IsDataCenterASN     bool `json:"isDataCenterASN,omitempty"`

	HoneypotVisited bool `json:"honeypotVisited,omitempty"`
}

// AnyAbuseFlag reports whether at least one edge abuse flag is set.
func (s *RequestSignals) AnyAbuseFlag() bool {
	return s.IsBotUserAgent || s.IsScraperISP || s.IsIPAbuser ||
		s.IsSuspiciousTraffic || s.IsDataCenterASN
}

// AbuseFlagReason names the flag category for the reason text. Datacenter
// origin and known-bot user agents are the most specific signals, so they
// win when several flags fired; anything else collapses to a generic label.
func (s *RequestSignals) AbuseFlagReason() string {
	n := 0
	for _, f := range []bool{s.IsBotUserAgent, s.IsScraperISP, s.IsIPAbuser, s.IsSuspiciousTraffic, s.IsDataCenterASN} {
		if f {
			n++
		}
	}
	switch {
	case s.IsDataCenterASN:
		return "datacenter ASN"
	case s.IsBotUserAgent:
		return "bot user-agent"
	case n > 1:
		return "multiple abuse flags"
	case s.IsScraperISP:
		return "scraper ISP"
	case s.IsIPAbuser:
		return "IP abuse history"
	case s.IsSuspiciousTraffic:
		return "suspicious traffic pattern"
	}
	return ""
}

// CookiesOK treats an absent supportsCookies as failing.
func (s *RequestSignals) CookiesOK() bool {
	return s.SupportsCookies != nil && *s.SupportsCookies
}

// JSOK treats an absent jsEnabled as failing.
func (s *RequestSignals) JSOK() bool {
	return s.JSEnabled != nil && *s.JSEnabled
}
