package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNilURL is returned when a nil proxy URL is reported.
	ErrNilURL = errors.New("proxy: url cannot be nil")
	// ErrUnknown is returned when a reported proxy is not in the pool.
	ErrUnknown = errors.New("proxy: not found in pool")
)

// endpoint is one proxy with its health counters.
type endpoint struct {
	url       *url.URL
	failures  int
	successes int
	benched   time.Time // zero when healthy
}

// Pool rotates outbound requests across proxies, benching any proxy that
// fails MaxFailures times in a row for Cooldown.
type Pool struct {
	mu          sync.Mutex
	endpoints   []*endpoint
	cursor      int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// Config defines settings for the Proxy Pool.
type Config struct {
	// MaxFailures before benching a proxy. Defaults to 3.
	MaxFailures int
	// Cooldown is how long a benched proxy sits out. Defaults to 5m.
	Cooldown time.Duration
}

// NewPool creates an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// LoadFile adds one proxy per line from path. Blank lines and lines
// starting with '#' are ignored.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: open %s: %w", path, err)
	}
	defer f.Close()

	var raws []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("proxy: read %s: %w", path, err)
	}
	return p.Add(raws...)
}

// Add parses raw proxy addresses; a missing scheme defaults to http.
func (p *Pool) Add(raws ...string) error {
	parsed := make([]*endpoint, 0, len(raws))
	for _, raw := range raws {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy: parse %q: %w", raw, err)
		}
		parsed = append(parsed, &endpoint{url: u})
	}

	p.mu.Lock()
	p.endpoints = append(p.endpoints, parsed...)
	p.mu.Unlock()
	return nil
}

// Len reports how many proxies the pool holds, benched or not.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Next returns the next healthy proxy in rotation, or nil when the pool is
// empty or every proxy is benched.
func (p *Pool) Next() *url.URL {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.endpoints)
	now := p.now()
	for i := 0; i < n; i++ {
		ep := p.endpoints[p.cursor]
		p.cursor = (p.cursor + 1) % n

		if !ep.benched.IsZero() && now.After(ep.benched) {
			ep.benched = time.Time{}
			ep.failures = 0
		}
		if ep.benched.IsZero() {
			return ep.url
		}
	}
	return nil
}

// MarkSuccess records a successful request through proxyURL.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(ep *endpoint) {
		ep.successes++
		if ep.failures > 0 {
			ep.failures--
		}
	})
}

// MarkFailure records a failed request through proxyURL, benching it once
// failures reach the configured maximum.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(ep *endpoint) {
		ep.failures++
		if ep.failures >= p.maxFailures {
			ep.benched = p.now().Add(p.cooldown)
		}
	})
}

func (p *Pool) mark(proxyURL *url.URL, fn func(*endpoint)) error {
	if proxyURL == nil {
		return ErrNilURL
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	target := proxyURL.String()
	for _, ep := range p.endpoints {
		if ep.url.String() == target {
			fn(ep)
			return nil
		}
	}
	return ErrUnknown
}
