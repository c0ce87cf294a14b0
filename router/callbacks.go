package router

import (
	"context"
	"time"

	"github.com/hupe1980/pathway/core"
)

// Hooks observe a request's lifecycle. Every hook is optional; a failing
// hook is logged and never changes the outcome of the request.
//
// BeforeAgent runs on the invoking goroutine, which in Concurrent mode means
// concurrently with other agents. AfterAgent and OnRouted run sequentially
// during the merge, in invocation order.
type Hooks struct {
	BeforeAgent func(ctx context.Context, agent string) error
	AfterAgent  func(ctx context.Context, agent string, out core.Output, dur time.Duration) error
	OnRouted    func(ctx context.Context, st *core.State) error
}

// Chain combines hooks so that each runs in order. The first error is reported
// after all have run.
func Chain(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeAgent: func(ctx context.Context, agent string) error {
			var first error
			for _, h := range hooks {
				if h.BeforeAgent != nil {
					if err := h.BeforeAgent(ctx, agent); err != nil && first == nil {
						first = err
					}
				}
			}
			return first
		},
		AfterAgent: func(ctx context.Context, agent string, out core.Output, dur time.Duration) error {
			var first error
			for _, h := range hooks {
				if h.AfterAgent != nil {
					if err := h.AfterAgent(ctx, agent, out, dur); err != nil && first == nil {
						first = err
					}
				}
			}
			return first
		},
		OnRouted: func(ctx context.Context, st *core.State) error {
			var first error
			for _, h := range hooks {
				if h.OnRouted != nil {
					if err := h.OnRouted(ctx, st); err != nil && first == nil {
						first = err
					}
				}
			}
			return first
		},
	}
}
