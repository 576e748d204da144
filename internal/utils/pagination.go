// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent of
// domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int, falling back to def when the
// string is empty or not a valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ComputeTotalPages returns the number of pages needed to hold total items at
// pageSize per page. Zero totals yield zero pages; pageSize is assumed >= 1.
func ComputeTotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
