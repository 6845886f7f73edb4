// Package spam classifies public submissions. The decision never rejects a
// submission; it only tags it so that notification can be suppressed.
package spam

import (
	"context"
	"strings"
)

// Reason is the classification tag stored with a spam submission
type Reason string

// Spam reasons
const (
	ReasonHoneypot             Reason = "honeypot_triggered"
	ReasonMissingToken         Reason = "missing_recaptcha_token"
	ReasonRecaptchaUnavailable Reason = "recaptcha_unavailable"
	ReasonRecaptchaFailed      Reason = "recaptcha_failed"
)

// Verdict is the outcome of an external verification
type Verdict struct {
	OK     bool
	Reason Reason
}

// Verifier verifies a client token with an external anti-abuse provider.
// Implementations must bound the call with a timeout and report transport
// failures as a Verdict with ReasonRecaptchaUnavailable.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) Verdict
}

// Input holds the parts of a submission relevant for the decision
type Input struct {
	Honeypot string
	Token    string
	ClientIP string
}

// Decision is the result of Engine.Classify
type Decision struct {
	Spam   bool
	Reason Reason
}

// ReasonPtr returns the reason as a nullable string for storage
func (d Decision) ReasonPtr() *string {
	if !d.Spam || d.Reason == "" {
		return nil
	}
	r := string(d.Reason)
	return &r
}

// Engine runs the two-stage spam decision: a local honeypot check followed
// by external verification. A nil verifier means verification is not
// configured, in which case the second stage passes every submission.
type Engine struct {
	verifier Verifier
}

// NewEngine creates a new Engine; verifier may be nil
func NewEngine(verifier Verifier) *Engine {
	return &Engine{verifier: verifier}
}

// VerificationEnabled reports whether an external verifier is configured
func (e *Engine) VerificationEnabled() bool {
	return e != nil && e.verifier != nil
}

// Classify decides whether a submission is spam. The first positive signal
// wins; the external verifier is not called when the honeypot triggers.
func (e *Engine) Classify(ctx context.Context, in Input) Decision {
	if HoneypotTriggered(in.Honeypot) {
		return Decision{
			Spam:   true,
			Reason: ReasonHoneypot,
		}
	}
	if !e.VerificationEnabled() {
		return Decision{}
	}
	if in.Token == "" {
		return Decision{
			Spam:   true,
			Reason: ReasonMissingToken,
		}
	}
	v := e.verifier.Verify(ctx, in.Token, in.ClientIP)
	if v.OK {
		return Decision{}
	}
	reason := v.Reason
	if reason == "" {
		reason = ReasonRecaptchaFailed
	}
	return Decision{
		Spam:   true,
		Reason: reason,
	}
}

// HoneypotTriggered reports whether the honeypot field carries a value.
// Real users never see the field, so any non-blank value marks a bot.
func HoneypotTriggered(value string) bool {
	return strings.TrimSpace(value) != ""
}
