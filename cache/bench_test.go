package cache

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
)

// BenchmarkMemoryCache_Get_Hit measures cache hit performance.
func BenchmarkMemoryCache_Get_Hit(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	_ = c.Set(ctx, "key", testResponse("value"), meta())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "key")
	}
}

// BenchmarkMemoryCache_Get_Miss measures cache miss performance.
func BenchmarkMemoryCache_Get_Miss(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "missing")
	}
}

// BenchmarkMemoryCache_Set_Evicting measures writes into a full cache.
func BenchmarkMemoryCache_Set_Evicting(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("hybrid|%016x|ctx", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, keys[i%len(keys)], testResponse("value"), meta())
	}
}

// BenchmarkMemoryCache_Parallel measures mixed access under contention.
func BenchmarkMemoryCache_Parallel(b *testing.B) {
	c := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	_ = c.Set(ctx, "key", testResponse("value"), meta())

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%4 == 0 {
				_ = c.Set(ctx, "key", testResponse("value"), meta())
			} else {
				_, _ = c.Get(ctx, "key")
			}
			i++
		}
	})
}

// BenchmarkKeyer_HashRequest_Large shows that hashing cost is bounded by
// the content limit, not the content size.
func BenchmarkKeyer_HashRequest_Large(b *testing.B) {
	keyer := NewDefaultKeyer()
	req := request.Request{Kind: request.KindAnalysis, Content: strings.Repeat("lorem ipsum ", 4000)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.HashRequest(req)
	}
}

// BenchmarkKey measures composite key construction.
func BenchmarkKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Key(mode.FullyAuto, "0123456789abcdef", "fedcba9876543210")
	}
}
