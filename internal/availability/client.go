package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/ranchwatch/internal/bypass"
	"github.com/FranksOps/ranchwatch/internal/credential"
	"github.com/FranksOps/ranchwatch/internal/fingerprint"
	"github.com/FranksOps/ranchwatch/internal/metrics"
	"github.com/FranksOps/ranchwatch/pkg/httpclient"
	"github.com/FranksOps/ranchwatch/pkg/proxy"
	"github.com/FranksOps/ranchwatch/pkg/useragent"
)

const (
	// Origin is the lottery site every request claims to come from.
	Origin = "https://secure.phantomranchlottery.com"
	// DefaultEndpoint is the calendar API.
	DefaultEndpoint = Origin + "/phantom-ranch-lottery/availability/calendar"
	// CheckPage is the page that issues calendar requests in a browser.
	CheckPage = Origin + "/phantom-ranch-lottery/availability/check"
	// LandingPage is the lottery entry page.
	LandingPage = Origin + "/phantom-ranch-lottery"

	DefaultTimeout = 30 * time.Second

	maxBody     = 2 << 20
	logBodySize = 500
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// DefaultHeaders returns the header profile the calendar page sends. The
// upstream anti-bot layer checks the tracing headers along with the rest.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	h.Set("Origin", Origin)
	h.Set("Referer", CheckPage)
	h.Set("Sec-Ch-Ua", `"Chromium";v="136", "Google Chrome";v="136", "Not.A/Brand";v="99"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Linux"`)
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("User-Agent", useragent.ChromeLinux)
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set("Traceparent", "00-471a9749bf000db57c8f4a6f0793de6a-d2f6eea960adb4be-01")
	h.Set("Tracestate", "657574@nr=0-1-657574-1134572858-d2f6eea960adb4be----1747836451074")
	h.Set("Newrelic", "eyJ2IjpbMCwxXSwiZCI6eyJ0eSI6IkJyb3dzZXIiLCJhYyI6IjY1NzU3NCIsImFwIjoiMTEzNDU3Mjg1OCIsImlkIjoiZDJmNmVlYTk2MGFkYjRiZSIsInRyIjoiNDcxYTk3NDliZjAwMGRiNTdjOGY0YTZmMDc5M2RlNmEiLCJ0aSI6MTc0NzgzNjQ1MTA3NH19")
	h.Set("X-Newrelic-Id", "UgMAVFFXGwIAV1VXBQEBX1U=")
	return h
}

// Config is fixed at construction; a Client never mutates it.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	Stay     StayQuery
	// Headers replaces DefaultHeaders when non-nil.
	Headers http.Header
	Cookies map[string]string
	// Fingerprint selects the TLS ClientHello; empty means Chrome.
	Fingerprint fingerprint.Profile
	ProxyPool   *proxy.Pool
	// UAPool, when set, overrides the profile's User-Agent per request.
	UAPool *useragent.Pool
	// Transport bypasses the fingerprinted transport; used by tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client issues calendar checks.
type Client struct {
	cfg     Config
	headers http.Header
	cookie  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// NewClient validates cfg and builds the transport.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("availability: bad endpoint: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if _, err := NewStayQuery(cfg.Stay.Nights, cfg.Stay.PeoplePerRoom); err != nil {
		return nil, err
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	headers := cfg.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}

	transport := cfg.Transport
	if transport == nil {
		// Proxy rotation is per request: the chosen proxy rides in the
		// request context and the transport's proxy func reads it back.
		proxyFunc := func(req *http.Request) (*url.URL, error) {
			if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
				return u, nil
			}
			return http.ProxyFromEnvironment(req)
		}

		var err error
		transport, err = fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{Proxy: proxyFunc})
		if err != nil {
			return nil, fmt.Errorf("availability: transport: %w", err)
		}
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: -1,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("availability: http client: %w", err)
	}

	return &Client{
		cfg:     cfg,
		headers: headers.Clone(),
		cookie:  credential.Format(cfg.Cookies),
		http:    hc,
		logger:  cfg.Logger,
	}, nil
}

// Check asks the calendar API about the window starting at date. Every
// upstream or transport problem is reported as an Error result; the returned
// error is non-nil only when ctx ended, in which case the Result is zero.
func (c *Client) Check(ctx context.Context, date time.Time) (Result, error) {
	start := time.Now()
	res, err := c.check(ctx, date)
	if err != nil {
		return Result{}, err
	}
	metrics.RecordCheck(res.Outcome.String(), time.Since(start))
	return res, nil
}

func (c *Client) check(ctx context.Context, date time.Time) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	c.logger.Info("checking availability",
		"date", date.Format(DateLayout), "nights", c.cfg.Stay.Nights)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		strings.NewReader(c.cfg.Stay.Payload(date)))
	if err != nil {
		return Result{Outcome: Error, Message: err.Error()}, nil
	}
	req.Header = c.headers.Clone()
	if c.cfg.UAPool != nil {
		req.Header.Set("User-Agent", c.cfg.UAPool.Next())
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	activeProxy := c.cfg.ProxyPool.Next()
	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	resp, err := c.http.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = c.cfg.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		c.logger.Error("request failed", "error", err)
		return Result{Outcome: Error, Message: err.Error()}, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = c.cfg.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{Outcome: Error, Message: fmt.Sprintf("read body: %v", err), StatusCode: resp.StatusCode}, nil
	}

	if resp.StatusCode != http.StatusOK {
		res := Result{
			Outcome:    Error,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
		res.Detection, _ = bypass.Detect(resp.StatusCode, resp.Header, body)
		c.logger.Error("unexpected status",
			"status", resp.StatusCode, "detection", res.Detection, "body", snippet(body))
		return res, nil
	}

	var decoded calendarResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Error("undecodable response", "error", err, "body", snippet(body))
		return Result{Outcome: Error, Message: fmt.Sprintf("decode response: %v", err), StatusCode: resp.StatusCode}, nil
	}

	res := classify(decoded)
	if res.Outcome == Empty {
		c.logger.Warn("unsuccessful API response", "msg", res.Message)
	}
	return res, nil
}

func snippet(body []byte) string {
	if len(body) <= logBodySize {
		return string(body)
	}
	return string(body[:logBodySize]) + "..."
}
