package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := map[string]struct {
		in   string
		def  int
		want int
	}{
		"empty":    {"", 7, 7},
		"valid":    {"42", 7, 42},
		"negative": {"-3", 7, -3},
		"garbage":  {"abc", 7, 7},
		"float":    {"1.5", 7, 7},
	}
	for name, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Fatalf("%s: AtoiDefault(%q, %d) = %d, want %d", name, tc.in, tc.def, got, tc.want)
		}
	}
}

func TestComputeTotalPages(t *testing.T) {
	cases := map[string]struct {
		total    int64
		pageSize int
		want     int
	}{
		"zero total":     {0, 20, 0},
		"negative total": {-5, 20, 0},
		"zero page size": {10, 0, 0},
		"exact fit":      {40, 20, 2},
		"rounds up":      {41, 20, 3},
		"single page":    {1, 20, 1},
	}
	for name, tc := range cases {
		if got := ComputeTotalPages(tc.total, tc.pageSize); got != tc.want {
			t.Fatalf("%s: ComputeTotalPages(%d, %d) = %d, want %d", name, tc.total, tc.pageSize, got, tc.want)
		}
	}
}
