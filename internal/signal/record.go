package signal

// Record is the audit envelope written to the decision sinks, one per
// adjudicated request. Optional fields are omitted when empty.
type Record struct {
	DecisionID string `json:"decision_id,omitempty"`
	TS         string `json:"ts,omitempty"` // ISO8601

	Verdict string `json:"verdict,omitempty"` // "bot", "captcha", "user"
	Reason  string `json:"reason,omitempty"`
	Rule    string `json:"rule,omitempty"` // machine tag of the rule that decided

	Signals RequestSignals `json:"signals,omitempty"`

	// Oracle output, present only when the ISP rule ran.
	OracleCategory  string `json:"oracle_category,omitempty"`
	OracleRationale string `json:"oracle_rationale,omitempty"`

	ClientIP string `json:"client_ip,omitempty"`
}
