package middleware

import (
	"regexp"
	"strings"
)

// Form traffic carries names, emails, and phone numbers, and the admin
// endpoints take emails in query strings (DELETE /newsletter?email=...).
// These patterns scrub them from anything that reaches the access log.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+(?:@|%40)[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact replaces UUIDs, email addresses (raw or URL-encoded), and phone
// numbers in s. UUIDs go first so the phone pattern cannot eat their digits.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

var defaultMaskedHeaders = []string{"authorization", "cookie", "set-cookie"}

// headerMasker returns a function that renders request headers for logging:
// masked names become "[REDACTED]" and every other value is passed through
// Redact.
func headerMasker(extra []string) func(map[string][]string) map[string]string {
	mask := make(map[string]struct{}, len(defaultMaskedHeaders)+len(extra))
	for _, h := range append(append([]string{}, defaultMaskedHeaders...), extra...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}
	return func(hdr map[string][]string) map[string]string {
		out := make(map[string]string, len(hdr))
		for k, vv := range hdr {
			if _, ok := mask[strings.ToLower(k)]; ok {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = Redact(strings.Join(vv, ", "))
		}
		return out
	}
}
