package credential

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoCookieFlag is returned when a curl capture carries no cookie argument.
var ErrNoCookieFlag = errors.New("credential: no -b/--cookie argument in curl command")

// Source lists the places a cookie string may come from. Resolve consults
// them in field order and uses the first one set.
type Source struct {
	Cookies     string
	CookiesFile string
	CurlCommand string
	CurlFile    string
}

// Resolve returns the cookie string from the highest-priority source and a
// label naming it. An empty Source resolves to "" with label "none", which
// is a valid (unauthenticated) state.
func Resolve(src Source) (cookies, from string, err error) {
	switch {
	case src.Cookies != "":
		return src.Cookies, "cookies", nil

	case src.CookiesFile != "":
		c, err := ReadFile(src.CookiesFile)
		if err != nil {
			return "", "cookies-file", err
		}
		return c, "cookies-file", nil

	case src.CurlCommand != "":
		c, ok := ExtractFromCurl(src.CurlCommand)
		if !ok {
			return "", "curl-command", ErrNoCookieFlag
		}
		return c, "curl-command", nil

	case src.CurlFile != "":
		data, err := os.ReadFile(src.CurlFile)
		if err != nil {
			return "", "curl-file", fmt.Errorf("credential: read curl file: %w", err)
		}
		c, ok := ExtractFromCurl(string(data))
		if !ok {
			return "", "curl-file", ErrNoCookieFlag
		}
		return c, "curl-file", nil
	}
	return "", "none", nil
}
