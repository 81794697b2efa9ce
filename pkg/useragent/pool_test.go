package useragent

import (
	"strings"
	"sync"
	"testing"
)

func TestNewPool_DefaultsToChromeLinux(t *testing.T) {
	p := NewPool(nil)
	if p.Len() != 1 {
		t.Fatalf("expected single-agent pool, got %d", p.Len())
	}
	for i := 0; i < 3; i++ {
		if got := p.Next(); got != ChromeLinux {
			t.Errorf("expected ChromeLinux, got %q", got)
		}
	}
}

func TestPool_NextRoundRobin(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})
	want := []string{"a", "b", "c", "a", "b"}
	for i, w := range want {
		if got := p.Next(); got != w {
			t.Errorf("call %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestPool_CopiesInput(t *testing.T) {
	in := []string{"a", "b"}
	p := NewPool(in)
	in[0] = "mutated"
	if p.All()[0] != "a" {
		t.Errorf("pool should not observe caller mutation")
	}

	out := p.All()
	out[1] = "mutated"
	if p.All()[1] != "b" {
		t.Errorf("All should return a copy")
	}
}

func TestPool_RandomReturnsMember(t *testing.T) {
	p := NewPool(DefaultPool)
	members := make(map[string]bool, len(DefaultPool))
	for _, ua := range DefaultPool {
		members[ua] = true
	}
	for i := 0; i < 50; i++ {
		if ua := p.Random(); !members[ua] {
			t.Fatalf("Random returned non-member %q", ua)
		}
	}
}

func TestDefaultPool_ChromeOnly(t *testing.T) {
	for _, ua := range DefaultPool {
		if !strings.Contains(ua, "Chrome/") || strings.Contains(ua, "Firefox") {
			t.Errorf("non-Chrome agent in DefaultPool: %q", ua)
		}
	}
}

func TestPool_ConcurrentNext(t *testing.T) {
	p := NewPool([]string{"x", "y"})
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ua := p.Next()
			mu.Lock()
			counts[ua]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counts["x"] != 50 || counts["y"] != 50 {
		t.Errorf("expected even distribution, got %v", counts)
	}
}

func TestPool_NilSafe(t *testing.T) {
	var p *Pool
	if p.Next() != ChromeLinux || p.Random() != ChromeLinux {
		t.Errorf("nil pool should fall back to ChromeLinux")
	}
	if p.Len() != 0 || p.All() != nil {
		t.Errorf("nil pool should be empty")
	}
}
