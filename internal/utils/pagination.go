// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Limit parses a list "limit" query value. Zero, negative, or unparsable
// input means no limit (0); values above max are clamped when max > 0.
func Limit(s string, max int) int {
	n := AtoiDefault(strings.TrimSpace(s), 0)
	if n <= 0 {
		return 0
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// Take returns at most n leading items; n <= 0 returns items unchanged.
func Take[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
