package cache_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/modeflow/cache"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	defer c.Destroy()

	ctx := context.Background()
	key := cache.Key(mode.Manual, "0123456789abcdef", "fedcba9876543210")
	resp := request.Content(request.Metadata{Mode: mode.Manual}, "hello", true)

	_ = c.Set(ctx, key, resp, cache.EntryMeta{Mode: mode.Manual})

	if got, ok := c.Get(ctx, key); ok {
		fmt.Println("Type:", got.Type)
		fmt.Println("Content:", got.Content)
	}
	// Output:
	// Type: content
	// Content: hello
}

func ExampleKey() {
	fmt.Println(cache.Key(mode.Hybrid, "aaaa", "bbbb"))
	fmt.Println(cache.DebounceKey(mode.Hybrid, request.KindRewrite, "bbbb"))
	// Output:
	// hybrid|aaaa|bbbb
	// hybrid|rewrite|bbbb
}

func ExampleDefaultKeyer() {
	keyer := cache.NewDefaultKeyer()

	a, _ := keyer.HashRequest(request.Request{Kind: request.KindRewrite, Content: "Call me Ishmael."})
	b, _ := keyer.HashRequest(request.Request{Kind: request.KindRewrite, Content: "Call me Ishmael."})

	fmt.Println("Stable:", a == b)
	fmt.Println("Length:", len(a))
	// Output:
	// Stable: true
	// Length: 16
}
