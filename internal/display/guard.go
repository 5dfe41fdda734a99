package display

import (
	"context"
	"sync"
	"time"
)

// Guard owns every timer, listener and goroutine started for one surface and
// tears them all down together. Once closed, nothing new can be started.
type Guard struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	cleanups []func()
	timers   map[*pendingTimer]struct{}
}

type pendingTimer struct {
	timer *time.Timer
}

func NewGuard(parent context.Context) *Guard {
	ctx, cancel := context.WithCancel(parent)
	return &Guard{ctx: ctx, cancel: cancel, timers: make(map[*pendingTimer]struct{})}
}

// Context is cancelled when the guard closes.
func (g *Guard) Context() context.Context {
	return g.ctx
}

// Closed reports whether Close has been called.
func (g *Guard) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Defer registers fn to run on Close. If the guard is already closed fn runs
// immediately and Defer reports false.
func (g *Guard) Defer(fn func()) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		fn()
		return false
	}
	g.cleanups = append(g.cleanups, fn)
	g.mu.Unlock()
	return true
}

// Go runs fn in a goroutine tracked by the guard. fn must return once ctx is done.
func (g *Guard) Go(fn func(ctx context.Context)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
	return true
}

// Every calls fn on each tick of d until the guard closes. Ticks that arrive
// while fn is still running are dropped.
func (g *Guard) Every(d time.Duration, fn func(ctx context.Context)) bool {
	return g.Go(func(ctx context.Context) {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

// After calls fn once after d unless the guard closes first. The returned
// function cancels the timer. A timer is forgotten once it fires or is stopped.
func (g *Guard) After(d time.Duration, fn func()) (stop func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return func() {}
	}

	p := &pendingTimer{}
	p.timer = time.AfterFunc(d, func() {
		if g.forget(p) {
			fn()
		}
	})
	g.timers[p] = struct{}{}
	return func() {
		if g.forget(p) {
			p.timer.Stop()
		}
	}
}

// forget drops a pending timer. It reports false once the timer has fired,
// been stopped or the guard has closed.
func (g *Guard) forget(p *pendingTimer) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.timers[p]; !ok || g.closed {
		return false
	}
	delete(g.timers, p)
	return true
}

// pending returns the number of After timers that have neither fired nor been stopped.
func (g *Guard) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}

// Close cancels the context and runs the cleanups in reverse order. It does
// not wait for goroutines; use Wait for that.
func (g *Guard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	cleanups := g.cleanups
	g.cleanups = nil
	timers := g.timers
	g.timers = make(map[*pendingTimer]struct{})
	g.mu.Unlock()

	g.cancel()
	for p := range timers {
		p.timer.Stop()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Wait blocks until every goroutine started with Go has returned.
func (g *Guard) Wait() {
	g.wg.Wait()
}
