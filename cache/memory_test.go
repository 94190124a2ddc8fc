package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
)

// fakeClock is a manually advanced clock for deterministic TTL/LRU tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(policy Policy) (*MemoryCache, *fakeClock) {
	c := NewMemoryCache(policy)
	clock := newFakeClock()
	c.now = clock.Now
	return c, clock
}

func testResponse(content string) request.Response {
	return request.Content(request.Metadata{Mode: mode.Manual}, content, true)
}

func meta() EntryMeta {
	return EntryMeta{Mode: mode.Manual, ContextHash: "c0ffee0000000000", RequestHash: "beef000000000000"}
}

func TestMemoryCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache(DefaultPolicy())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get on empty cache should return ok=false")
	}

	if err := c.Set(ctx, "k", testResponse("v"), meta()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("Get after Set should return ok=true")
	}
	if got.Content != "v" || got.Type != request.TypeContent {
		t.Errorf("Get returned %+v", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Get after Delete should return ok=false")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete on missing key should not error, got: %v", err)
	}
}

func TestMemoryCache_SetRejectsInvalidKey(t *testing.T) {
	c, _ := newTestCache(DefaultPolicy())
	if err := c.Set(context.Background(), "", testResponse("v"), meta()); err != ErrInvalidKey {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "k", testResponse("v"), meta())

	clock.Advance(29 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before TTL")
	}

	clock.Advance(time.Second + time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("entry should be expired after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed lazily, Len = %d", c.Len())
	}
	if s := c.Stats(); s.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", s.Expirations)
	}
}

func TestMemoryCache_AccessDoesNotExtendTTL(t *testing.T) {
	c, clock := newTestCache(DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "k", testResponse("v"), meta())
	clock.Advance(20 * time.Second)
	_, _ = c.Get(ctx, "k")
	clock.Advance(11 * time.Second)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("recency refresh must not extend TTL")
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 3
	c, clock := newTestCache(policy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), testResponse("v"), meta())
		clock.Advance(time.Millisecond)
	}

	// Overflow insert evicts k0, the least recently accessed.
	_ = c.Set(ctx, "k3", testResponse("v"), meta())

	if _, ok := c.Get(ctx, "k0"); ok {
		t.Error("k0 should have been evicted")
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if _, ok := c.Get(ctx, k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestMemoryCache_GetProtectsFromEviction(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 3
	c, clock := newTestCache(policy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), testResponse("v"), meta())
		clock.Advance(time.Millisecond)
	}

	// Touch k0 so k1 becomes the least recently accessed.
	_, _ = c.Get(ctx, "k0")
	clock.Advance(time.Millisecond)

	_ = c.Set(ctx, "k3", testResponse("v"), meta())

	if _, ok := c.Get(ctx, "k0"); !ok {
		t.Error("k0 was accessed and should survive")
	}
	if _, ok := c.Get(ctx, "k1"); ok {
		t.Error("k1 should have been evicted")
	}
}

func TestMemoryCache_TieBreakByInsertionOrder(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 2
	c, _ := newTestCache(policy) // clock never advances: all timestamps tie
	ctx := context.Background()

	_ = c.Set(ctx, "first", testResponse("v"), meta())
	_ = c.Set(ctx, "second", testResponse("v"), meta())
	_ = c.Set(ctx, "third", testResponse("v"), meta())

	if _, ok := c.Get(ctx, "first"); ok {
		t.Error("first inserted entry should be evicted on a timestamp tie")
	}
	if _, ok := c.Get(ctx, "second"); !ok {
		t.Error("second should survive")
	}
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 2
	c, _ := newTestCache(policy)
	ctx := context.Background()

	_ = c.Set(ctx, "a", testResponse("1"), meta())
	_ = c.Set(ctx, "b", testResponse("1"), meta())
	_ = c.Set(ctx, "a", testResponse("2"), meta())

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	got, _ := c.Get(ctx, "a")
	if got.Content != "2" {
		t.Errorf("overwrite not applied, got %q", got.Content)
	}
	if s := c.Stats(); s.Evictions != 0 {
		t.Errorf("Evictions = %d, want 0", s.Evictions)
	}
}

func TestMemoryCache_ResponsesAreCopied(t *testing.T) {
	c, _ := newTestCache(DefaultPolicy())
	ctx := context.Background()

	resp := request.WithSuggestions(request.Metadata{Mode: mode.Hybrid}, "x",
		[]request.Suggestion{{Type: "style", Text: "orig"}}, true)
	_ = c.Set(ctx, "k", resp, meta())

	resp.Suggestions[0].Text = "caller mutated input"
	got, _ := c.Get(ctx, "k")
	if got.Suggestions[0].Text != "orig" {
		t.Fatal("cache shares the caller's slice on Set")
	}

	got.Suggestions[0].Text = "caller mutated output"
	again, _ := c.Get(ctx, "k")
	if again.Suggestions[0].Text != "orig" {
		t.Fatal("cache shares its slice on Get")
	}
}

func TestMemoryCache_SentinelEntries(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxSentinelEntries = 2
	c, clock := newTestCache(policy)
	ctx := context.Background()

	sentinel := EntryMeta{Mode: mode.Hybrid, ContextHash: SentinelHash, RequestHash: "abc"}
	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("s%d", i), testResponse("v"), sentinel)
		clock.Advance(time.Millisecond)
	}
	_ = c.Set(ctx, "regular", testResponse("v"), meta())

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 2 sentinel + 1 regular", c.Len())
	}
	if _, ok := c.Get(ctx, "s0"); ok {
		t.Error("oldest sentinel entry should be evicted past the cap")
	}

	clock.Advance(policy.SentinelTTL)
	if _, ok := c.Get(ctx, "s2"); ok {
		t.Error("sentinel entry should expire after SentinelTTL")
	}
	if _, ok := c.Get(ctx, "regular"); !ok {
		t.Error("regular entry should outlive sentinel TTL")
	}
}

func TestMemoryCache_NoCachePolicy(t *testing.T) {
	c, _ := newTestCache(NoCachePolicy())
	ctx := context.Background()

	if err := c.Set(ctx, "k", testResponse("v"), meta()); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("NoCachePolicy should store nothing")
	}
}

func TestMemoryCache_Cleanup(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 10
	c, clock := newTestCache(policy)
	ctx := context.Background()

	_ = c.Set(ctx, "old", testResponse("v"), meta())
	clock.Advance(20 * time.Second)
	_ = c.Set(ctx, "young", testResponse("v"), meta())
	clock.Advance(15 * time.Second)

	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCache_CleanupTrimsOversize(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 5
	c, clock := newTestCache(policy)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), testResponse("v"), meta())
		clock.Advance(time.Millisecond)
	}

	// Shrink capacity under the cache, as a reconfiguration would.
	c.policy.MaxEntries = 2
	if removed := c.Cleanup(); removed != 3 {
		t.Fatalf("Cleanup removed %d, want 3", removed)
	}
	for _, k := range []string{"k3", "k4"} {
		if _, ok := c.Get(ctx, k); !ok {
			t.Errorf("%s is most recent and should survive", k)
		}
	}
}

func TestMemoryCache_StartDestroy(t *testing.T) {
	policy := DefaultPolicy()
	policy.TTL = 20 * time.Millisecond
	policy.CleanupInterval = 5 * time.Millisecond
	c := NewMemoryCache(policy)
	c.Start()
	c.Start() // second call is a no-op

	_ = c.Set(context.Background(), "k", testResponse("v"), meta())

	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Fatal("background sweep did not remove the expired entry")
	}

	c.Destroy()
	c.Destroy() // idempotent
}

func TestMemoryCache_DestroyWithoutStart(t *testing.T) {
	c := NewMemoryCache(DefaultPolicy())
	_ = c.Set(context.Background(), "k", testResponse("v"), meta())
	c.Destroy()
	if c.Len() != 0 {
		t.Error("Destroy should clear entries")
	}
	c.Start() // no goroutine may start after Destroy
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 16
	c := NewMemoryCache(policy)
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := fmt.Sprintf("key-%d", (id+j)%32)
				switch j % 4 {
				case 0:
					_ = c.Set(ctx, key, testResponse("v"), meta())
				case 1:
					_, _ = c.Get(ctx, key)
				case 2:
					_ = c.Delete(ctx, key)
				case 3:
					c.Cleanup()
				}
			}
		}(i)
	}

	wg.Wait()

	if c.Len() > policy.MaxEntries {
		t.Errorf("Len = %d exceeds MaxEntries %d", c.Len(), policy.MaxEntries)
	}
}
