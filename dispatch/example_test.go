package dispatch_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/modeflow/dispatch"
	"github.com/jonwraymond/modeflow/mode"
	"github.com/jonwraymond/modeflow/request"
	"github.com/jonwraymond/modeflow/upstream"
)

func ExampleDispatcher_Process() {
	backend := upstream.Func(func(_ context.Context, call upstream.Call) (string, error) {
		return "and the lights went out.", nil
	})

	cfg := dispatch.DefaultConfig()
	cfg.DebounceDelay = 0
	d, err := dispatch.New(backend, cfg)
	if err != nil {
		panic(err)
	}
	defer d.Cleanup()

	req := request.Request{Kind: request.KindCompletion, Content: "The storm arrived", ExplicitlyUserInitiated: true}
	wctx := request.WritingContext{DocumentType: "story", WritingPhase: "drafting", UserExperience: request.ExperienceBeginner}

	for _, m := range []mode.Mode{mode.Manual, mode.Hybrid, mode.FullyAuto} {
		resp, err := d.Process(context.Background(), req, wctx, m)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %s approval=%v\n", m, resp.Type, resp.ApprovalRequired)
	}

	req.ExplicitlyUserInitiated = false
	resp, _ := d.Process(context.Background(), req, wctx, mode.Manual)
	fmt.Printf("manual, not asked: %s\n", resp.Type)

	// Output:
	// manual: content approval=true
	// hybrid: suggestion approval=true
	// fully-auto: enhancement approval=false
	// manual, not asked: silent
}
