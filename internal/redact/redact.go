// Package redact scrubs credentials, tokens and personal data from strings
// before they are logged. Database and Redis errors routinely echo
// connection strings, and share failures can echo the target's email.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: URLs go before emails so "user:pass@host" is treated as a
// credential, and JWTs before generic keys.
var rules = []rule{
	{
		pattern:     regexp.MustCompile(`(?i)\b(postgres(?:ql)?|rediss?|mysql)://[^@\s]+@`),
		placeholder: "${1}://" + RedactedCredentialPlaceholder + "@",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*|\s+)['"]?[^'"&\s]{3,}`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		placeholder: RedactedJWTPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9_\-.~+/]{8,}=*`),
		placeholder: "${1} " + RedactedKeyPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		placeholder: "${1}${2}" + RedactedKeyPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: RedactedEmailPlaceholder,
	},
	{
		pattern: regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\S]*?\b(FROM|INTO|SET)\b\s+\w+`),
		placeholder: RedactedSQLPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?:/[\w.-]+){3,}`),
		placeholder: RedactedPathPlaceholder,
	},
}

// String redacts sensitive fragments from input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts sensitive fragments from err.Error(). A nil err yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
