package tokamak

import "reflect"

// Operation is a configured await/once point: the retry-on-error policy
// that applies to it. The zero-value Operation (as used by the package
// level Await/Once/OnceVoid convenience functions) retries on nothing,
// meaning any error raised by the awaited future or the once closure
// fails the invocation outright.
type Operation[A any] struct {
	retryOn []reflect.Type
}

// NewOperationBuilder starts building an Operation[A].
func NewOperationBuilder[A any]() *OperationBuilder[A] {
	return &OperationBuilder[A]{}
}

// OperationBuilder accumulates retry-on error kinds before Build.
type OperationBuilder[A any] struct {
	retryOn []reflect.Type
}

// RetryOn registers sample's dynamic type as a kind of error that should
// cause the attempt to restart from scratch rather than fail the
// invocation. sample is used only for its type; its value is discarded.
func (b *OperationBuilder[A]) RetryOn(sample error) *OperationBuilder[A] {
	if sample != nil {
		b.retryOn = append(b.retryOn, reflect.TypeOf(sample))
	}
	return b
}

// RetryOnSamples registers every sample in samples, in order. It exists
// so a policy.Group's resolved samples can be applied in one call rather
// than one RetryOn per element.
func (b *OperationBuilder[A]) RetryOnSamples(samples ...error) *OperationBuilder[A] {
	for _, sample := range samples {
		b.RetryOn(sample)
	}
	return b
}

// Build finalises the Operation.
func (b *OperationBuilder[A]) Build() Operation[A] {
	return Operation[A]{retryOn: b.retryOn}
}

func (op Operation[A]) retries(err error) bool {
	if err == nil {
		return false
	}
	t := reflect.TypeOf(err)
	for _, kind := range op.retryOn {
		if t == kind {
			return true
		}
	}
	return false
}

// Await suspends the current attempt on f using this Operation's retry
// policy, within the context bound to the calling strand. It must be
// called from inside the closure passed to Run (directly or transitively
// on the same strand); otherwise it raises IllegalStateError.
func (op Operation[A]) Await(f Awaitable[A]) A {
	return await[A](op, &awaitableAdapter[A]{inner: f})
}

// Once memoises the result of fn at its call site: the first attempt to
// reach this call site runs fn and records its outcome; every later
// attempt that reaches the same call site (on replay, or via a later
// retry) returns the recorded outcome without running fn again.
func (op Operation[A]) Once(fn func() (A, error)) A {
	return once[A](op, fn)
}

// OnceVoid is Once specialised to closures with no result value, under
// this Operation's retry policy.
func (op Operation[A]) OnceVoid(fn func() error) {
	onceVoid(Operation[struct{}]{retryOn: op.retryOn}, fn)
}

// Await is the package-level convenience for Operation[A]{}.Await: an
// await point with no retry policy. Calls await directly, at the same
// stack depth below the user's call site as Operation.Await, so call-site
// capture sees the same frame regardless of which form is used.
func Await[A any](f Awaitable[A]) A {
	return await[A](Operation[A]{}, &awaitableAdapter[A]{inner: f})
}

// Once is the package-level convenience for Operation[A]{}.Once.
func Once[A any](fn func() (A, error)) A {
	return once[A](Operation[A]{}, fn)
}

// OnceVoid is Once specialised to closures with no result value. Calls
// onceVoid directly rather than through Once, for the same call-site-depth
// reason Await and Once do.
func OnceVoid(fn func() error) {
	onceVoid(Operation[struct{}]{}, fn)
}

// await is the shared implementation behind Operation.Await: it records
// (or revisits) a call-site slot, and either returns a previously
// memoised value/error, adopts an already-resolved future's outcome, or
// suspends the attempt on a not-yet-resolved future.
//
// If rec already holds a future handle from a prior attempt at this call
// site, that handle — not the freshly supplied f, which on replay is
// typically a brand-new, not-yet-ready future built by re-running the same
// closure expression — is the one polled and read, per spec.md §4.4: "If
// Record already holds a future handle from a prior attempt: check
// readiness." f is stored and used only while the record is unset: the
// first time this call site is reached, or after a retry-eligible failure
// returned the record to unset.
func await[A any](op Operation[A], f future) A {
	ctx := currentContext()
	if err := ctx.requireActive(); err != nil {
		panic(err)
	}

	rec, err := ctx.trace.record(1)
	if err != nil {
		handleTraceError(err)
	}

	if rec.kind == recordValue {
		return rec.value.(A)
	}

	target := f
	if rec.kind == recordFuture {
		target = rec.fut
	}

	if !target.ready() {
		rec.kind = recordFuture
		rec.fut = target
		ctx.addPending(target)
		raiseBreak()
	}

	v, ferr := target.value()
	if ferr != nil {
		handleThrowable(ctx, op, rec, ferr)
		panic("unreachable")
	}

	rec.kind = recordValue
	rec.value = v
	return v.(A)
}

// once is the shared implementation behind Operation.Once: fn runs at
// most once per call site across the whole invocation's attempts.
func once[A any](op Operation[A], fn func() (A, error)) A {
	ctx := currentContext()
	if err := ctx.requireActive(); err != nil {
		panic(err)
	}

	rec, err := ctx.trace.record(1)
	if err != nil {
		handleTraceError(err)
	}

	if rec.kind == recordValue {
		return rec.value.(A)
	}

	v, ferr := fn()
	if ferr != nil {
		handleThrowable(ctx, op, rec, ferr)
		panic("unreachable")
	}

	rec.kind = recordValue
	rec.value = v
	return v
}

// onceVoid is the void-closure counterpart of once. On success it tags
// the record with the sentinel-true kind (spec.md §3) rather than a
// throwaway payload; a later attempt that reaches the same call site
// short-circuits on the sentinel without re-invoking fn, same as once
// short-circuits on a memoised value.
func onceVoid(op Operation[struct{}], fn func() error) {
	ctx := currentContext()
	if err := ctx.requireActive(); err != nil {
		panic(err)
	}

	rec, err := ctx.trace.record(1)
	if err != nil {
		handleTraceError(err)
	}

	if rec.kind == recordSentinel {
		return
	}

	if ferr := fn(); ferr != nil {
		handleThrowable(ctx, op, rec, ferr)
		panic("unreachable")
	}

	rec.kind = recordSentinel
}

// handleThrowable implements the retry-on-error policy shared by await,
// once and onceVoid. A retry-eligible error is never memoised onto rec —
// the record is returned to unset, dropping any future handle a prior
// attempt stored there, so the next attempt re-invokes fn (or checks the
// awaited future the caller passes in fresh) at this same call site
// instead of short-circuiting — and restarts the attempt immediately via
// the break signal. Anything else propagates as a panic for the replay
// driver to turn into the invocation's failure.
func handleThrowable[A any](ctx *context, op Operation[A], rec *Record, err error) {
	if op.retries(err) {
		rec.kind = recordUnset
		rec.fut = nil
		ctx.addPending(resolvedTrigger{})
		raiseBreak()
	}
	panic(err)
}

// handleTraceError turns a Trace error into the right panic: a
// DeterminismError propagates as-is for the driver to catch, anything
// else (committed-trace misuse) is a programmer error.
func handleTraceError(err error) {
	panic(err)
}
