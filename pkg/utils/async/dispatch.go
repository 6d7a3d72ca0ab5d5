package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/ctxlog"
)

// Group runs handlers in the background and lets the owner wait for all of them.
// The serve command uses it to drain in-flight runs on shutdown.
type Group struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	inflight int
}

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (values will be preserved, but cancellation won't affect the async handler)
//   - handler: Function to execute asynchronously
func (g *Group) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	g.wg.Add(1)
	g.mu.Lock()
	g.inflight++
	g.mu.Unlock()

	go func() {
		defer func() {
			g.mu.Lock()
			g.inflight--
			g.mu.Unlock()
			g.wg.Done()
		}()
		run(newCtx, handler)
	}()
}

// Inflight returns the number of handlers still running
func (g *Group) Inflight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight
}

// Wait blocks until every dispatched handler returned or ctx is done
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func run(ctx context.Context, handler func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger := ctxlog.From(ctx)
			logger.Error("panic in async handler",
				"recover", r,
				"stack", string(stack))
		}
	}()

	if err := handler(ctx); err != nil {
		logger := ctxlog.From(ctx)
		logger.Error("error in async handler", "error", err)
	}
}

// newBackgroundContext creates a new background context preserving the ctxlog logger
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
