// Package credential turns the operator's captured browser session into the
// cookie map attached to availability checks.
package credential

import (
	"sort"
	"strings"
)

// Parse splits a raw Cookie header value into name/value pairs. Segments are
// separated by ';' and split on the first '='. Segments without '=' or with
// an empty name are skipped. The result is never nil.
func Parse(s string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}

// Format renders cookies as a Cookie header value with names sorted, so the
// same map always produces the same string.
func Format(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(cookies[name])
	}
	return b.String()
}
