package upstream_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/modeflow/upstream"
)

func ExampleFunc() {
	backend := upstream.Func(func(_ context.Context, call upstream.Call) (string, error) {
		return "continued: " + call.Content, nil
	})

	out, _ := backend.Invoke(context.Background(), upstream.Call{Kind: "completion", Content: "It was late"})
	fmt.Println(out)
	// Output: continued: It was late
}

func ExampleError() {
	err := upstream.Wrap("invoke", &upstream.Error{Op: "invoke", StatusCode: 503})

	fmt.Println(errors.Is(err, upstream.ErrUpstream))
	fmt.Println(upstream.IsRetryable(err))
	// Output:
	// true
	// true
}
