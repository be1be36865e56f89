package services

import (
	"regexp"
	"strings"
)

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^[\d\s()+\-]{7,20}$`)
)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool { return emailRE.MatchString(strings.TrimSpace(s)) }

// ValidPhone accepts 7 to 20 characters of digits, spaces, parens, dashes and plus.
func ValidPhone(s string) bool { return phoneRE.MatchString(strings.TrimSpace(s)) }

type field struct {
	name  string
	value string
}

// firstMissing returns the name of the first blank field, in order.
func firstMissing(fields ...field) string {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}
