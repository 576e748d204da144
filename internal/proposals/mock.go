package proposals

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// MockProvider is a deterministic, dependency-free provider used when no
// OpenRouter API key is configured. Its verdict depends only on the input
// length: texts shorter than LowQualityBelow runes are rejected as low
// quality, everything else yields the same fixed set of generic proposals.
type MockProvider struct {
	// LowQualityBelow is the rune-count threshold under which input is
	// rejected as low quality.
	LowQualityBelow int
}

// NewMockProvider returns a mock that rejects input shorter than
// lowQualityBelow runes.
func NewMockProvider(lowQualityBelow int) *MockProvider {
	return &MockProvider{LowQualityBelow: lowQualityBelow}
}

// Name implements Provider.
func (*MockProvider) Name() string { return "mock" }

// Generate implements Provider. It never fails and ignores ctx beyond the
// usual cancellation check.
func (m *MockProvider) Generate(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		observe(m.Name(), nil, err)
		return nil, err
	}

	n := utf8.RuneCountInString(text)
	if n < m.LowQualityBelow {
		res := &Result{
			LowQuality: true,
			Message:    fmt.Sprintf("source text too thin to extract useful flashcards (%d characters)", n),
		}
		observe(m.Name(), res, nil)
		return res, nil
	}

	res := &Result{Proposals: mockProposals()}
	observe(m.Name(), res, nil)
	return res, nil
}

// mockProposals returns a fresh copy so callers cannot mutate shared state.
func mockProposals() []Proposal {
	return []Proposal{
		{Front: "What is spaced repetition?", Back: "A learning technique that schedules reviews at increasing intervals to improve long-term retention."},
		{Front: "What does the forgetting curve describe?", Back: "The decline of memory retention over time when information is not reinforced."},
		{Front: "Why keep flashcards atomic?", Back: "Each card should test a single fact so that recall success or failure is unambiguous."},
	}
}
