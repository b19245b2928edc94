package tokamak

import (
	"sync"
	"sync/atomic"

	"github.com/dflemstr/tokamak-go/internal/strand"
)

// Future is the result of a Run or RunVoid invocation: it resolves once
// the closure has completed an attempt without suspending, successfully
// or not.
type Future[A any] struct {
	ch   chan Result[A]
	once sync.Once

	mu       sync.Mutex
	resolved bool
	value    A
	err      error
	waiters  []func()
}

func newFuture[A any]() *Future[A] {
	return &Future[A]{ch: make(chan Result[A], 1)}
}

func (f *Future[A]) complete(v A, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.value, f.err = v, err
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()

	f.ch <- Result[A]{Value: v, Err: err}
	for _, w := range waiters {
		w()
	}
}

// Ready implements Awaitable.
func (f *Future[A]) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Value implements Awaitable.
func (f *Future[A]) Value() (A, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// OnComplete implements Awaitable.
func (f *Future[A]) OnComplete(cb func()) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		cb()
		return
	}
	f.waiters = append(f.waiters, cb)
	f.mu.Unlock()
}

// Cancel implements Awaitable. A Run invocation cannot itself be
// cancelled from outside once started; only the futures it awaits can
// be, so this is a no-op.
func (f *Future[A]) Cancel() {}

// Run starts replaying closure against a fresh Context bound to the
// calling strand, and returns a Future that resolves when the closure
// completes an attempt without suspending. If closure suspends (an Await
// inside it reaches a future that has not resolved), Run returns
// immediately with an unresolved Future that completes later, once the
// futures the closure awaits have resolved and a subsequent attempt runs
// to completion.
func Run[A any](closure func() (A, error)) *Future[A] {
	fut := newFuture[A]()
	id := strand.Current()
	ctx := newContext()
	ctx.active = true

	previous, existed := bindContext(id, ctx)
	defer unbindContext(id, previous, existed)

	tryComplete(ctx, closure, fut)
	return fut
}

// RunVoid is Run specialised to closures with no result value.
func RunVoid(closure func() error) *Future[struct{}] {
	return Run[struct{}](func() (struct{}, error) {
		return struct{}{}, closure()
	})
}

// tryComplete runs one attempt of closure against ctx's trace. On a
// normal return it commits the trace and resolves fut. On the break
// signal it rolls the trace back and, if anything is pending, arranges
// for asyncTryComplete to re-enter once it resolves. On a
// DeterminismError or any other error it resolves fut with that failure.
// An IllegalStateError escapes this function as a panic, unrecovered:
// it is a programmer error, never an invocation outcome.
func tryComplete[A any](ctx *context, closure func() (A, error), fut *Future[A]) {
	var result A
	var resultErr error
	broke := false

	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if isBreakSignal(r) {
				broke = true
				return
			}
			if isErr, ok := r.(*IllegalStateError); ok {
				panic(isErr)
			}
			if detErr, ok := r.(*DeterminismError); ok {
				resultErr = detErr
				return
			}
			if err, ok := r.(error); ok {
				resultErr = err
				return
			}
			panic(r)
		}()
		result, resultErr = closure()
	}()

	if broke {
		if err := ctx.trace.rollback(); err != nil {
			panic(err)
		}
		pending := ctx.takePending()
		if len(pending) == 0 {
			panic(illegalStatef("tokamak: attempt suspended with nothing pending"))
		}
		asyncTryComplete(ctx, closure, fut, pending)
		return
	}

	if resultErr != nil {
		ctx.active = false
		fut.complete(result, resultErr)
		return
	}

	if err := ctx.commit(); err != nil {
		ctx.active = false
		var zero A
		fut.complete(zero, err)
		return
	}

	ctx.active = false
	fut.complete(result, nil)
}

// asyncTryComplete registers a one-shot completion handler on every
// future the attempt that just broke is blocked on. The first one to
// fire wins: it cancels the rest, binds ctx onto *whichever strand the
// completion callback happens to run on* (a future's fan-out goroutine,
// not necessarily the strand that called Run), and re-enters tryComplete.
// Any handler that loses the race is a no-op.
func asyncTryComplete[A any](ctx *context, closure func() (A, error), fut *Future[A], pending []future) {
	var fired atomic.Bool

	for _, p := range pending {
		p := p
		p.onComplete(func() {
			if !fired.CompareAndSwap(false, true) {
				return
			}
			for _, other := range pending {
				if other != p {
					other.cancel()
				}
			}

			id := strand.Current()
			previous, existed := bindContext(id, ctx)
			defer unbindContext(id, previous, existed)
			ctx.active = true
			tryComplete(ctx, closure, fut)
		})
	}
}
