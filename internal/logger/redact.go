package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// Redactor masks secrets in log messages and field values.
type Redactor struct {
	keys     []string
	patterns []*regexp.Regexp
}

var jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

// DefaultRedactor masks password, token, secret and authorization fields and
// anything shaped like a JWT.
func DefaultRedactor() *Redactor {
	return &Redactor{
		keys:     []string{"password", "token", "secret", "authorization", "dsn", "db_uri"},
		patterns: []*regexp.Regexp{jwtPattern},
	}
}

// Redact masks matching patterns in s.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

// RedactFields returns a copy of fields with sensitive values masked.
func (r *Redactor) RedactFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if r.sensitive(k) {
			out[k] = redacted
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = r.Redact(s)
			continue
		}
		out[k] = v
	}
	return out
}

func (r *Redactor) sensitive(key string) bool {
	key = strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
