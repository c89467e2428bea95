// Package classify implements the fixed-priority rule cascade that turns a
// bundle of request signals into a verdict. The cascade is deterministic;
// the one non-deterministic dependency (the ISP oracle) sits behind the
// oracle.Classifier interface and is consulted lazily, only when no earlier
// rule matched and an ISP name is present.
package classify

import (
	"context"

	"github.com/edgevet/edgevet/internal/oracle"
	"github.com/edgevet/edgevet/internal/signal"
)

// Rule tags identify which cascade step decided, for logs and metrics.
const (
	RuleHoneypot   = "honeypot"
	RuleAbuseFlags = "abuse_flags"
	RuleNetwork    = "network_reputation"
	RuleBrowser    = "browser_integrity"
	RuleLocale     = "locale_plausibility"
	RuleDefault    = "default"
)

// Outcome is the cascade's complete answer for one request.
type Outcome struct {
	Verdict Verdict
	Reason  string
	Rule    string

	// Oracle holds the ISP classification when the network rule ran.
	Oracle *oracle.Result
}

// Engine evaluates the cascade under a fixed Policy.
type Engine struct {
	policy Policy
	oracle oracle.Classifier
}

// NewEngine builds an Engine. The oracle may be nil, in which case the
// network reputation rule is skipped (equivalent to an empty ISP).
func NewEngine(policy Policy, o oracle.Classifier) *Engine {
	return &Engine{policy: policy, oracle: o}
}

// Decide runs the cascade. It is total: every input maps to exactly one
// verdict and it never returns an error. First match wins.
func (e *Engine) Decide(ctx context.Context, s *signal.RequestSignals) Outcome {
	// 1. Honeypot: a visit to a trap URL outranks every other signal.
	if s.HoneypotVisited {
		return Outcome{Verdict: VerdictBot, Reason: "honeypot triggered", Rule: RuleHoneypot}
	}

	// 2. Edge abuse flags.
	if s.AnyAbuseFlag() {
		return Outcome{
			Verdict: VerdictBot,
			Reason:  "unsafe network detected: " + s.AbuseFlagReason(),
			Rule:    RuleAbuseFlags,
		}
	}

	// 3. Network reputation. An empty ISP means "no information", not
	// "safe": the rule is skipped and the cascade continues.
	var oracleResult *oracle.Result
	if s.ISP != "" && e.oracle != nil {
		res := e.oracle.Classify(ctx, s.ISP)
		oracleResult = &res
		if verdict, decided := e.policy.dispositionFor(res.Category); decided {
			reason := "unsafe network detected"
			if verdict != VerdictBot {
				reason = "network requires verification"
			}
			return Outcome{Verdict: verdict, Reason: reason, Rule: RuleNetwork, Oracle: oracleResult}
		}
	}

	// 4. Browser integrity.
	if b := e.policy.checkBrowser(s); b.suspicious {
		return Outcome{
			Verdict: e.policy.BrowserVerdict,
			Reason:  "automation suspected: " + b.detail,
			Rule:    RuleBrowser,
			Oracle:  oracleResult,
		}
	}

	// 5. Locale plausibility (disabled unless the policy carries an
	// allow-list or requires a timezone).
	if l := e.policy.checkLocale(s); l.suspicious {
		return Outcome{
			Verdict: VerdictCaptcha,
			Reason:  "verification required: " + l.detail,
			Rule:    RuleLocale,
			Oracle:  oracleResult,
		}
	}

	// 6. Default.
	return Outcome{Verdict: VerdictUser, Reason: "all checks passed", Rule: RuleDefault, Oracle: oracleResult}
}
