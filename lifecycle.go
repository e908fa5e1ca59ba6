package persist

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Lifecycle is the process lifecycle hook consumed by the cache: handlers
// registered with OnExit run once at normal shutdown.
type Lifecycle interface {
	OnExit(fn func())
}

// ExitHook is a Lifecycle owned by the application's composition root.
type ExitHook struct {
	mu       sync.Mutex
	handlers []func()
	fired    bool
}

// NewExitHook returns an empty hook.
func NewExitHook() *ExitHook {
	return &ExitHook{}
}

// OnExit registers fn. Handlers registered after Fire are ignored.
func (h *ExitHook) OnExit(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fired {
		return
	}
	h.handlers = append(h.handlers, fn)
}

// Fire runs every handler in registration order. A panicking handler does not
// stop the others. Only the first call does anything; it returns after all
// handlers have returned.
func (h *ExitHook) Fire() {
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	handlers := h.handlers
	h.handlers = nil
	h.mu.Unlock()

	for _, fn := range handlers {
		runExitHandler(fn)
	}
}

// FireOn fires the hook on the first of the given signals or when ctx is done.
// The returned channel is closed once the handlers have returned.
func (h *ExitHook) FireOn(ctx context.Context, signals ...os.Signal) <-chan struct{} {
	done := make(chan struct{})
	sigCtx := ctx
	stop := func() {}
	if len(signals) > 0 {
		sigCtx, stop = signal.NotifyContext(ctx, signals...)
	}
	go func() {
		defer close(done)
		defer stop()
		<-sigCtx.Done()
		h.Fire()
	}()
	return done
}

func runExitHandler(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
