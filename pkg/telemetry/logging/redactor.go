package logging

import (
	"log/slog"
	"regexp"
)

// Secret-bearing attribute keys whose values are always masked.
var secretKeys = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"authorization": {},
	"token":         {},
}

var secretPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	// API keys with the common sk- prefix.
	{regexp.MustCompile(`sk-[a-zA-Z0-9]+`), "sk-***"},
	// Bearer tokens in header dumps.
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
}

// redactAttr is a slog ReplaceAttr hook that masks secrets in attribute
// values.
func redactAttr(groups []string, a slog.Attr) slog.Attr {
	if _, secret := secretKeys[a.Key]; secret {
		return slog.String(a.Key, "***")
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	val := a.Value.String()
	redacted := RedactString(val)
	if redacted != val {
		return slog.String(a.Key, redacted)
	}
	return a
}

// RedactString masks any embedded API keys or bearer tokens in s.
func RedactString(s string) string {
	for _, p := range secretPatterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
