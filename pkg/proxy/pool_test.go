package proxy

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPool_RoundRobin(t *testing.T) {
	p := NewPool(Config{})
	if err := p.Add("http://proxy1:8080", "http://proxy2:8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first == nil || second == nil || third == nil {
		t.Fatal("expected proxies from pool")
	}
	if first.Host == second.Host {
		t.Errorf("expected rotation, got %s twice", first.Host)
	}
	if first.Host != third.Host {
		t.Errorf("expected wraparound back to %s, got %s", first.Host, third.Host)
	}
}

func TestPool_EmptyReturnsNil(t *testing.T) {
	p := NewPool(Config{})
	if p.Next() != nil {
		t.Error("expected nil from empty pool")
	}
}

func TestPool_SchemeDefaulting(t *testing.T) {
	p := NewPool(Config{})
	if err := p.Add("bare-host:3128"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := p.Next()
	if u == nil || u.Scheme != "http" {
		t.Errorf("expected http scheme default, got %v", u)
	}
}

func TestPool_FailureCooldown(t *testing.T) {
	p := NewPool(Config{MaxFailures: 2, Cooldown: 50 * time.Millisecond})
	if err := p.Add("http://flaky:8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := p.Next()
	_ = p.MarkFailure(u)
	_ = p.MarkFailure(u)

	if p.Next() != nil {
		t.Error("expected proxy disabled after max failures")
	}

	time.Sleep(60 * time.Millisecond)

	if p.Next() == nil {
		t.Error("expected proxy revived after cooldown")
	}
}

func TestPool_MarkSuccessDecrementsFailures(t *testing.T) {
	p := NewPool(Config{MaxFailures: 2, Cooldown: time.Minute})
	if err := p.Add("http://ok:8080"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := p.Next()
	_ = p.MarkFailure(u)
	if err := p.MarkSuccess(u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = p.MarkFailure(u)

	// One failure was forgiven, so the proxy must still be healthy
	if p.Next() == nil {
		t.Error("expected proxy still available")
	}
}

func TestPool_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# comment\nhttp://proxy1:8080\n\nproxy2:8080\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	p := NewPool(Config{})
	if err := p.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	seen[p.Next().Host] = true
	seen[p.Next().Host] = true

	if !seen["proxy1:8080"] || !seen["proxy2:8080"] {
		t.Errorf("expected both proxies loaded, got %v", seen)
	}
}
