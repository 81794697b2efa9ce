// Package session keeps an authenticated lottery session warm by browsing
// the lottery pages with the stored cookies and saving whatever the site
// hands back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/ranchwatch/internal/availability"
	"github.com/FranksOps/ranchwatch/internal/bypass"
	"github.com/FranksOps/ranchwatch/internal/credential"
	"github.com/FranksOps/ranchwatch/internal/fingerprint"
	"github.com/FranksOps/ranchwatch/internal/metrics"
	"github.com/FranksOps/ranchwatch/pkg/httpclient"
	"github.com/FranksOps/ranchwatch/pkg/ratelimit"
	"github.com/FranksOps/ranchwatch/pkg/useragent"
)

const (
	DefaultInterval  = 30 * time.Minute
	DefaultPageDelay = 2 * time.Second

	maxPage = 4 << 20
)

// ErrCaptcha means the site answered with an interactive challenge and the
// cookies must be renewed from a real browser.
var ErrCaptcha = errors.New("session: captcha detected, renew cookies manually")

// DefaultPages are visited in order on every round.
func DefaultPages() []string {
	return []string{availability.LandingPage, availability.CheckPage}
}

// Config controls a Refresher.
type Config struct {
	Pages   []string
	Cookies map[string]string
	// CookiesFile receives the refreshed cookie string. Empty skips saving.
	CookiesFile string

	Interval time.Duration
	// PageDelay spaces page visits; negative disables it.
	PageDelay time.Duration
	Timeout   time.Duration

	Fingerprint fingerprint.Profile
	Transport   http.RoundTripper
	Logger      *slog.Logger
}

// Refresher browses the lottery pages with a cookie jar seeded from the
// operator's cookies.
type Refresher struct {
	cfg     Config
	pages   []*url.URL
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New validates cfg and builds the jar-backed client.
func New(cfg Config) (*Refresher, error) {
	if len(cfg.Pages) == 0 {
		cfg.Pages = DefaultPages()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = DefaultPageDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = availability.DefaultTimeout
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	pages := make([]*url.URL, 0, len(cfg.Pages))
	for _, p := range cfg.Pages {
		u, err := url.Parse(p)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("session: bad page url %q", p)
		}
		pages = append(pages, u)
	}

	transport := cfg.Transport
	if transport == nil {
		var err error
		transport, err = fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{Proxy: http.ProxyFromEnvironment})
		if err != nil {
			return nil, fmt.Errorf("session: transport: %w", err)
		}
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 10,
		UseCookieJar: true,
		SeedURL:      pages[0],
		SeedCookies:  cfg.Cookies,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("session: http client: %w", err)
	}

	return &Refresher{
		cfg:     cfg,
		pages:   pages,
		http:    hc,
		limiter: ratelimit.NewLimiter(max(cfg.PageDelay, 0), 0),
		logger:  cfg.Logger,
	}, nil
}

// Cookies returns the jar contents across every visited page.
func (r *Refresher) Cookies() map[string]string {
	out := make(map[string]string)
	for _, u := range r.pages {
		for k, v := range r.http.Cookies(u) {
			out[k] = v
		}
	}
	return out
}

// RefreshOnce visits every page and, when all of them load cleanly, saves
// the jar's cookies.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.logger.Info("attempting to refresh session")

	if err := r.visitAll(ctx); err != nil {
		metrics.SessionRefreshTotal.WithLabelValues("failure").Inc()
		return err
	}

	cookies := credential.Format(r.Cookies())
	if r.cfg.CookiesFile != "" {
		if err := credential.WriteFile(r.cfg.CookiesFile, cookies); err != nil {
			metrics.SessionRefreshTotal.WithLabelValues("failure").Inc()
			return err
		}
		r.logger.Info("updated cookies saved", "file", r.cfg.CookiesFile)
	}

	metrics.SessionRefreshTotal.WithLabelValues("success").Inc()
	return nil
}

func (r *Refresher) visitAll(ctx context.Context) error {
	for _, u := range r.pages {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		err := r.visit(ctx, u)
		r.limiter.Done()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Refresher) visit(ctx context.Context, u *url.URL) error {
	r.logger.Info("visiting page", "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("session: build request: %w", err)
	}
	req.Header = navigationHeaders()

	resp, err := r.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("session: visit %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPage))
	if err != nil {
		return fmt.Errorf("session: read %s: %w", u, err)
	}

	if resp.StatusCode != http.StatusOK {
		if vendor, ok := bypass.Detect(resp.StatusCode, resp.Header, body); ok {
			return fmt.Errorf("session: visit %s: HTTP %d (%s challenge)", u, resp.StatusCode, vendor)
		}
		return fmt.Errorf("session: visit %s: HTTP %d", u, resp.StatusCode)
	}
	if bypass.HasCaptcha(body) {
		r.logger.Warn("captcha detected, session may need manual renewal", "url", u.String())
		return ErrCaptcha
	}

	r.logger.Info("visited page", "url", u.String(), "status", resp.StatusCode)
	return nil
}

// Run refreshes every Interval until ctx ends. Failed rounds are logged and
// retried on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("starting session refresher", "interval", r.cfg.Interval)
	for {
		if err := r.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Warn("session refresh failed, will try again later", "error", err)
		} else {
			r.logger.Info("session refreshed", "next_refresh_in", r.cfg.Interval)
		}

		if err := ratelimit.Sleep(ctx, r.cfg.Interval); err != nil {
			break
		}
	}
	r.logger.Info("session refresher stopped")
	return nil
}

func navigationHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", useragent.ChromeLinux)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache")
	return h
}
