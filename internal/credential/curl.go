package credential

import "strings"

var cookieFlags = []string{" -b ", " --cookie "}

// ExtractFromCurl pulls the cookie argument out of a "Copy as cURL" capture.
// Line continuations are collapsed first. A single- or double-quoted value
// is returned without its quotes; an unquoted one runs to the next flag or
// the end of input. It reports false when no cookie flag is present or the
// argument is empty.
func ExtractFromCurl(text string) (string, bool) {
	text = strings.ReplaceAll(text, "\\\r\n", " ")
	text = strings.ReplaceAll(text, "\\\n", " ")

	rest, ok := afterFlag(text)
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)

	var value string
	switch {
	case quoted(rest, '\''):
		value, _, _ = strings.Cut(rest[1:], "'")
	case quoted(rest, '"'):
		value, _, _ = strings.Cut(rest[1:], `"`)
	default:
		value, _, _ = strings.Cut(rest, " -")
	}

	if value == "" {
		return "", false
	}
	return value, true
}

// afterFlag returns the text following the first cookie flag.
func afterFlag(text string) (string, bool) {
	at, width := -1, 0
	for _, flag := range cookieFlags {
		if i := strings.Index(text, flag); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(flag)
		}
	}
	if at < 0 {
		return "", false
	}
	return text[at+width:], true
}

// quoted reports whether s opens with q and closes it somewhere later.
func quoted(s string, q byte) bool {
	return len(s) > 1 && s[0] == q && strings.IndexByte(s[1:], q) >= 0
}
