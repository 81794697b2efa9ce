package useragent

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// ChromeLinux is the desktop Chrome build the availability header profile
// was captured from. Its sec-ch-ua hints must stay in step with it.
const ChromeLinux = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

// DefaultPool holds Chrome builds only, so that rotating agents never
// contradicts the Chrome TLS fingerprint used by the transport.
var DefaultPool = []string{
	ChromeLinux,
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
}

// Pool hands out User-Agent strings either round-robin or at random.
// It is safe for concurrent use.
type Pool struct {
	agents []string
	next   atomic.Uint64
}

// NewPool copies agents into a new pool. An empty slice selects a pool that
// only ever returns ChromeLinux.
func NewPool(agents []string) *Pool {
	if len(agents) == 0 {
		agents = []string{ChromeLinux}
	}
	owned := make([]string, len(agents))
	copy(owned, agents)
	return &Pool{agents: owned}
}

// Next returns agents in round-robin order.
func (p *Pool) Next() string {
	if p == nil || len(p.agents) == 0 {
		return ChromeLinux
	}
	i := p.next.Add(1) - 1
	return p.agents[i%uint64(len(p.agents))]
}

// Random picks an agent using crypto/rand, falling back to Next.
func (p *Pool) Random() string {
	if p == nil || len(p.agents) == 0 {
		return ChromeLinux
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.agents))))
	if err != nil {
		return p.Next()
	}
	return p.agents[n.Int64()]
}

// Len reports how many agents the pool rotates through.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.agents)
}

// All returns a copy of the pool contents.
func (p *Pool) All() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.agents))
	copy(out, p.agents)
	return out
}
