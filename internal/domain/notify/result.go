package notify

// Outcome classifies how a notification attempt ended. Outcomes are
// results, not errors: an unconfigured or misaddressed channel reports
// itself here instead of failing the pipeline.
type Outcome string

const (
	// OutcomeSent means delivered on the primary path.
	OutcomeSent Outcome = "sent"

	// OutcomeSentFallback means the template was rejected and the plain
	// text fallback was delivered instead.
	OutcomeSentFallback Outcome = "sent_fallback"

	// OutcomeNotConfigured means transport credentials are absent.
	OutcomeNotConfigured Outcome = "not_configured"

	// OutcomeCredentialExpired means the transport rejected its credential.
	OutcomeCredentialExpired Outcome = "credential_expired"

	// OutcomeNoRecipient means there was no address to deliver to.
	OutcomeNoRecipient Outcome = "no_recipient"

	// OutcomeFailed means a transport failure on the final attempt.
	OutcomeFailed Outcome = "failed"
)

// Delivered reports whether the outcome represents a successful send.
func (o Outcome) Delivered() bool {
	return o == OutcomeSent || o == OutcomeSentFallback
}

// ChatResult is the outcome of one chat send to one recipient.
type ChatResult struct {
	Recipient string  `json:"recipient"`
	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`
}

// AdminResult aggregates the admin fan-out: per-recipient outcomes plus
// an overall flag that is true when at least one recipient succeeded.
type AdminResult struct {
	Delivered bool         `json:"delivered"`
	Results   []ChatResult `json:"results"`
}

// TokenResult is the outcome of one push send to one device token.
type TokenResult struct {
	Token        string `json:"token"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Unregistered bool   `json:"unregistered,omitempty"`
}

// PushSummary counts a push batch.
type PushSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// PushResult aggregates a push batch: summary, per-token details, and
// the overall outcome (OutcomeSent when at least one token succeeded).
type PushResult struct {
	Outcome Outcome       `json:"outcome"`
	Summary PushSummary   `json:"summary"`
	Results []TokenResult `json:"results,omitempty"`
}

// maskToken shortens a push token for logs and API responses.
func maskToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
