package tokamak

import "sync"

// Awaitable is the contract the runtime requires of a host future: poll
// whether it is resolved, extract its value or error once resolved, attach
// a one-shot completion callback, and request (advisory) cancellation.
//
// Await adapts any Awaitable[A] into the ambient Trace without requiring
// the host future type to know anything about this library.
type Awaitable[A any] interface {
	// Ready reports whether the future has resolved, successfully or not.
	Ready() bool
	// Value returns the resolved value or error. Only valid once Ready
	// returns true.
	Value() (A, error)
	// OnComplete registers a callback to run once, the first time the
	// future resolves. If the future is already resolved, OnComplete
	// must invoke cb before returning.
	OnComplete(cb func())
	// Cancel requests cancellation. Best-effort: implementations that
	// cannot cancel may treat this as a no-op.
	Cancel()
}

// future is the type-erased form of Awaitable that the Trace and the
// PendingSet operate on internally, after Operation has adapted a caller's
// Awaitable[A].
type future interface {
	ready() bool
	value() (any, error)
	onComplete(cb func())
	cancel()
}

type awaitableAdapter[A any] struct {
	inner Awaitable[A]
}

func (a *awaitableAdapter[A]) ready() bool { return a.inner.Ready() }

func (a *awaitableAdapter[A]) value() (any, error) {
	v, err := a.inner.Value()
	return v, err
}

func (a *awaitableAdapter[A]) onComplete(cb func()) { a.inner.OnComplete(cb) }

func (a *awaitableAdapter[A]) cancel() { a.inner.Cancel() }

// resolvedTrigger is a pending-set entry with no observable value, used by
// the retry-on-error path (§4.4) to give the replay driver something
// non-empty to wait on when an operation wants to retry immediately rather
// than because it is blocked on a real asynchronous value. Because it is
// already ready, the driver's one-shot handler fires synchronously the
// moment it is installed, re-entering the attempt loop right away — the
// same observable effect as an immediate in-loop retry, routed through the
// ordinary wake-up path instead of a special case.
type resolvedTrigger struct{}

func (resolvedTrigger) ready() bool            { return true }
func (resolvedTrigger) value() (any, error)    { return nil, nil }
func (resolvedTrigger) onComplete(cb func())   { cb() }
func (resolvedTrigger) cancel()                {}

// ChanAwaitable adapts a channel that will receive exactly one Result[A]
// into an Awaitable[A]. It is the simplest way to bridge arbitrary Go
// asynchrony (a goroutine, a client library's callback) into Await.
type ChanAwaitable[A any] struct {
	ch   <-chan Result[A]
	once sync.Once

	mu       sync.Mutex
	resolved bool
	value    A
	err      error
	waiters  []func()
}

// Result is a resolved value-or-error pair, the payload a ChanAwaitable
// expects to receive exactly once.
type Result[A any] struct {
	Value A
	Err   error
}

// FromChannel creates a ChanAwaitable backed by ch. The producer must send
// exactly one Result to ch and then may close it (or not); FromChannel
// never sends to or closes ch itself.
func FromChannel[A any](ch <-chan Result[A]) *ChanAwaitable[A] {
	return &ChanAwaitable[A]{ch: ch}
}

// Go runs fn on a new goroutine and returns an Awaitable that resolves with
// its result.
func Go[A any](fn func() (A, error)) *ChanAwaitable[A] {
	ch := make(chan Result[A], 1)
	go func() {
		v, err := fn()
		ch <- Result[A]{Value: v, Err: err}
	}()
	return FromChannel[A](ch)
}

// resolved is an Awaitable that is synchronously ready from the moment
// it is constructed, with no background goroutine involved. Resolved and
// Failed use this rather than routing through ChanAwaitable, since a
// channel handoff is inherently racy about exactly when Ready becomes
// true relative to the constructor returning.
type resolved[A any] struct {
	value A
	err   error
}

func (r resolved[A]) Ready() bool             { return true }
func (r resolved[A]) Value() (A, error)       { return r.value, r.err }
func (r resolved[A]) OnComplete(cb func())    { cb() }
func (r resolved[A]) Cancel()                 {}

// Resolved returns an Awaitable that is already resolved with v.
func Resolved[A any](v A) Awaitable[A] {
	return resolved[A]{value: v}
}

// Failed returns an Awaitable that is already resolved with err.
func Failed[A any](err error) Awaitable[A] {
	return resolved[A]{err: err}
}

// start launches, at most once, the single goroutine that blocks on the
// channel and fans the result out to every registered waiter. Lazy so that
// a ChanAwaitable nobody ever polls or attaches a callback to costs
// nothing.
func (f *ChanAwaitable[A]) start() {
	f.once.Do(func() {
		go func() {
			r, ok := <-f.ch

			f.mu.Lock()
			f.resolved = true
			if ok {
				f.value, f.err = r.Value, r.Err
			}
			waiters := f.waiters
			f.waiters = nil
			f.mu.Unlock()

			for _, w := range waiters {
				w()
			}
		}()
	})
}

// Ready implements Awaitable.
func (f *ChanAwaitable[A]) Ready() bool {
	f.start()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Value implements Awaitable.
func (f *ChanAwaitable[A]) Value() (A, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// OnComplete implements Awaitable.
func (f *ChanAwaitable[A]) OnComplete(cb func()) {
	f.start()

	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		cb()
		return
	}
	f.waiters = append(f.waiters, cb)
	f.mu.Unlock()
}

// Cancel implements Awaitable. ChanAwaitable has no way to signal its
// producer, so cancellation is a no-op, consistent with the advisory
// contract in §4.7.
func (f *ChanAwaitable[A]) Cancel() {}
