// Package proposals defines the flashcard proposal provider abstraction and
// its two implementations: an OpenRouter-backed client and a deterministic
// mock used when no API key is configured.
//
// A provider receives normalized source text and returns either a list of
// front/back proposals or a low-quality rejection (a business outcome, not an
// error). Transport failures, timeouts, and malformed provider output are
// returned as errors; the caller records those as failed generation attempts.
package proposals

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Proposal is a candidate front/back flashcard pair returned by a provider.
// Proposals are ephemeral; persistence of accepted ones is the flashcard
// service's concern.
type Proposal struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Result is the business outcome of a provider call. Either Proposals is
// non-empty, or LowQuality is set with a human-readable reason the caller can
// surface to the user.
type Result struct {
	Proposals  []Proposal
	LowQuality bool
	Message    string
}

// Provider generates flashcard proposals from normalized source text.
//
// Implementations must honor ctx for cancellation and bound their own request
// time; they must be safe for concurrent use. The selection between
// implementations happens once at process wiring time, never per request.
type Provider interface {
	// Generate returns proposals or a low-quality rejection for the given
	// normalized text. A non-nil error means a provider-level failure
	// (timeout, upstream error, unparseable output).
	Generate(ctx context.Context, text string) (*Result, error)

	// Name identifies the implementation in logs and metrics.
	Name() string
}

// providerCalls counts provider invocations by implementation and outcome
// (success, low_quality, error).
var providerCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "proposal_provider_calls_total",
		Help: "Total proposal provider calls by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

func init() {
	prometheus.MustRegister(providerCalls)
}

func observe(provider string, res *Result, err error) {
	switch {
	case err != nil:
		providerCalls.WithLabelValues(provider, "error").Inc()
	case res != nil && res.LowQuality:
		providerCalls.WithLabelValues(provider, "low_quality").Inc()
	default:
		providerCalls.WithLabelValues(provider, "success").Inc()
	}
}
