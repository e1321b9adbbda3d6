// FILE: lixenwraith/logsetup/worker.go
package logsetup

import (
	"context"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Group is an errgroup whose goroutines run under worker capture. Each
// goroutine is named "<name>-<n>"; a captured panic becomes its error.
type Group struct {
	g    *errgroup.Group
	b    *Bridge
	name string
	seq  atomic.Uint64
}

// NewGroup returns a group and a context canceled on the first error
func (b *Bridge) NewGroup(ctx context.Context, name string) (*Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &Group{g: g, b: b, name: name}, ctx
}

// SetLimit bounds the number of active goroutines, negative removes the limit
func (g *Group) SetLimit(n int) {
	g.g.SetLimit(n)
}

// Go runs fn in a new named goroutine
func (g *Group) Go(fn func() error) {
	g.g.Go(g.b.WrapErr(g.nextName(), fn))
}

// TryGo runs fn only when below the limit
func (g *Group) TryGo(fn func() error) bool {
	return g.g.TryGo(g.b.WrapErr(g.nextName(), fn))
}

// Wait blocks until all goroutines returned and yields the first error
func (g *Group) Wait() error {
	return g.g.Wait()
}

func (g *Group) nextName() string {
	return g.name + "-" + strconv.FormatUint(g.seq.Add(1), 10)
}

// Pool is an ants worker pool whose panic handler feeds the bridge. Tasks
// run with the pool name as their goroutine name.
type Pool struct {
	p    *ants.Pool
	b    *Bridge
	name string
}

// NewPool creates a pool of size workers. The panic handler option is
// always installed last and overrides any supplied one.
func (b *Bridge) NewPool(name string, size int, opts ...ants.Option) (*Pool, error) {
	pool := &Pool{b: b, name: name}
	opts = append(opts, ants.WithPanicHandler(pool.handlePanic))
	p, err := ants.NewPool(size, opts...)
	if err != nil {
		return nil, fmtErrorf("failed to create pool '%s': %w", name, err)
	}
	pool.p = p
	return pool, nil
}

// Submit queues fn on the pool
func (p *Pool) Submit(fn func()) error {
	return p.p.Submit(func() {
		id := goroutineID()
		threadNames.Store(id, p.name)
		returned := false
		// On panic the name stays until handlePanic ran
		defer func() {
			if returned {
				threadNames.Delete(id)
			}
		}()
		fn()
		returned = true
	})
}

// handlePanic runs on the panicking worker from ants' deferred recover
func (p *Pool) handlePanic(v any) {
	defer threadNames.Delete(goroutineID())
	p.b.handleWorker(v, debug.Stack())
}

// Running returns the number of busy workers
func (p *Pool) Running() int {
	return p.p.Running()
}

// Cap returns the pool capacity
func (p *Pool) Cap() int {
	return p.p.Cap()
}

// Release closes the pool without waiting for running tasks
func (p *Pool) Release() {
	p.p.Release()
}

// ReleaseTimeout closes the pool and waits up to timeout for running tasks
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	return p.p.ReleaseTimeout(timeout)
}
