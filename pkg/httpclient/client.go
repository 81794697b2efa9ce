package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps followed redirects. Negative disables following.
	MaxRedirects int
	// UseCookieJar attaches an in-memory jar so Set-Cookie responses persist
	// across requests made through the same Client.
	UseCookieJar bool
	// Seed cookies are loaded into the jar for SeedURL when UseCookieJar is set.
	SeedURL     *url.URL
	SeedCookies map[string]string
	// Transport overrides the round tripper, e.g. a uTLS fingerprinted one.
	Transport http.RoundTripper
}

// Client wraps a standard http.Client with a fixed timeout, redirect policy
// and optional cookie jar.
type Client struct {
	*http.Client
}

// ErrNilContext is returned by Do when called without a context.
var ErrNilContext = errors.New("httpclient: context cannot be nil")

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("httpclient: stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		if cfg.SeedURL != nil && len(cfg.SeedCookies) > 0 {
			jar.SetCookies(cfg.SeedURL, toCookies(cfg.SeedCookies))
		}
		c.Jar = jar
	}

	return &Client{Client: c}, nil
}

// Do executes req bound to ctx. The context governs cancellation in
// addition to the client-wide timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	resp, err := c.Client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}

// Cookies returns the jar's cookies for u as a name/value map, or nil when
// the client has no jar.
func (c *Client) Cookies(u *url.URL) map[string]string {
	if c.Jar == nil || u == nil {
		return nil
	}
	out := make(map[string]string)
	for _, ck := range c.Jar.Cookies(u) {
		out[ck.Name] = ck.Value
	}
	return out
}

func toCookies(m map[string]string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(m))
	for name, value := range m {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
