package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// slowProvider blocks in Describe to make resolution timing observable.
type slowProvider struct {
	name     string
	delay    time.Duration
	err      error
	inflight *atomic.Int32
	peak     *atomic.Int32
}

func (p *slowProvider) Name() string { return p.name }

func (p *slowProvider) Describe(ctx context.Context, req *RequestContext) (string, error) {
	if p.inflight != nil {
		n := p.inflight.Add(1)
		for {
			cur := p.peak.Load()
			if n <= cur || p.peak.CompareAndSwap(cur, n) {
				break
			}
		}
		defer p.inflight.Add(-1)
	}
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if p.err != nil {
		return "", p.err
	}
	return "description of " + p.name, nil
}

func (p *slowProvider) Call(ctx context.Context, req *RequestContext, args map[string]any) (any, error) {
	return nil, nil
}

func TestCatalog_ResolvesProvidersConcurrently(t *testing.T) {
	reg := newTestRegistry(t, nil)
	for i := 0; i < 8; i++ {
		p := &slowProvider{name: fmt.Sprintf("tool%02d", i), delay: 20 * time.Millisecond}
		if err := reg.Add(p); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	start := time.Now()
	catalog, err := reg.Catalog(t.Context(), bobContext())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(catalog) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(catalog))
	}
	// Sequential resolution would take 8 * 20ms; leave generous headroom
	// for slow CI machines while still ruling it out.
	if elapsed > 120*time.Millisecond {
		t.Errorf("catalog took %v, providers do not appear to resolve in parallel", elapsed)
	}
}

func TestCatalog_HonorsResolveLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	reg := New(nil, WithResolveLimit(2))
	for i := 0; i < 6; i++ {
		p := &slowProvider{
			name:     fmt.Sprintf("tool%02d", i),
			delay:    10 * time.Millisecond,
			inflight: &inflight,
			peak:     &peak,
		}
		if err := reg.Add(p); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if _, err := reg.Catalog(t.Context(), bobContext()); err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("observed %d concurrent resolutions, limit is 2", got)
	}
}

func TestCatalog_ProviderFailureFailsRequest(t *testing.T) {
	reg := newTestRegistry(t, nil)
	boom := errors.New("backend unavailable")
	if err := reg.Add(&slowProvider{name: "good", delay: time.Millisecond}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := reg.Add(&slowProvider{name: "bad", delay: time.Millisecond, err: boom}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := reg.Add(staticEcho, WithName("echo")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	catalog, err := reg.Catalog(t.Context(), bobContext())
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	// No partial catalog: static entries are withheld too.
	if catalog != nil {
		t.Errorf("expected nil catalog on failure, got %d entries", len(catalog))
	}
}

func TestCatalog_FailureErrorNamesTool(t *testing.T) {
	reg := newTestRegistry(t, nil)
	boom := errors.New("boom")
	if err := reg.Add(&slowProvider{name: "flaky", err: boom}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, err := reg.Catalog(t.Context(), bobContext())
	if err == nil {
		t.Fatal("expected error")
	}
	if want := `resolving tool "flaky"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not mention %s", err.Error(), want)
	}
}

func TestCatalog_CanceledContextPropagates(t *testing.T) {
	reg := newTestRegistry(t, nil)
	if err := reg.Add(&slowProvider{name: "slow", delay: time.Second}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := reg.Catalog(ctx, bobContext())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v, provider delay leaked into the request", elapsed)
	}
}

func TestCatalog_EmptyRegistry(t *testing.T) {
	reg := newTestRegistry(t, nil)
	catalog, err := reg.Catalog(t.Context(), bobContext())
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(catalog) != 0 {
		t.Errorf("expected empty catalog, got %d entries", len(catalog))
	}
}
