package proposals

import (
	"context"
	"strings"
	"testing"
)

func TestMockProvider_LowQualityThreshold(t *testing.T) {
	m := NewMockProvider(1200)
	ctx := context.Background()

	cases := map[string]struct {
		length         int
		wantLowQuality bool
	}{
		"one below threshold": {length: 1199, wantLowQuality: true},
		"exactly threshold":   {length: 1200, wantLowQuality: false},
		"well above":          {length: 5000, wantLowQuality: false},
		"empty":               {length: 0, wantLowQuality: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := m.Generate(ctx, strings.Repeat("x", tc.length))
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if res.LowQuality != tc.wantLowQuality {
				t.Fatalf("length %d: low_quality = %v, want %v", tc.length, res.LowQuality, tc.wantLowQuality)
			}
			if tc.wantLowQuality {
				if len(res.Proposals) != 0 {
					t.Fatalf("low-quality result carries proposals")
				}
				if res.Message == "" {
					t.Fatalf("low-quality result missing message")
				}
			} else if len(res.Proposals) == 0 {
				t.Fatalf("accepted input produced no proposals")
			}
		})
	}
}

func TestMockProvider_ThresholdCountsRunes(t *testing.T) {
	m := NewMockProvider(10)
	// 10 multi-byte runes: must pass even though the byte length is larger.
	res, err := m.Generate(context.Background(), strings.Repeat("é", 10))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.LowQuality {
		t.Fatalf("10 runes rejected by a 10-rune threshold")
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	m := NewMockProvider(5)
	text := strings.Repeat("x", 50)

	a, _ := m.Generate(context.Background(), text)
	b, _ := m.Generate(context.Background(), text)
	if len(a.Proposals) != len(b.Proposals) {
		t.Fatalf("proposal counts differ across calls")
	}
	for i := range a.Proposals {
		if a.Proposals[i] != b.Proposals[i] {
			t.Fatalf("proposal %d differs across calls", i)
		}
	}

	// Callers mutating a result must not affect later calls.
	a.Proposals[0].Front = "mutated"
	c, _ := m.Generate(context.Background(), text)
	if c.Proposals[0].Front == "mutated" {
		t.Fatalf("mock shares proposal memory across calls")
	}
}

func TestMockProvider_CancelledContext(t *testing.T) {
	m := NewMockProvider(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Generate(ctx, "enough text here"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestMockProvider_Name(t *testing.T) {
	if got := NewMockProvider(1).Name(); got != "mock" {
		t.Fatalf("Name = %q", got)
	}
}
