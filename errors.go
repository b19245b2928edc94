package tokamak

import (
	"fmt"
	"strings"
)

// DeterminismError is raised when a closure's replayed execution diverges
// from the call-site sequence recorded on a prior attempt: either a
// different operation executed at a position a prior attempt already
// recorded, or the closure returned before retracing every operation the
// prior attempt had recorded.
//
// DeterminismError is always the invocation's failure; it is never
// retried and never wrapped by a retry-on policy.
type DeterminismError struct {
	// Expected is the call site the prior attempt executed at this
	// position (nil for the early-return case, where there was no
	// mismatched site, only leftover records).
	Expected *CallSite
	// Actual is the call site the current attempt executed at this
	// position (nil for the early-return case).
	Actual *CallSite
	// Remaining lists the prior attempt's records from the point of
	// divergence (or from the point of early return) to the end, in
	// execution order.
	Remaining []CallSite
	earlyReturn bool
}

func (e *DeterminismError) Error() string {
	var b strings.Builder
	b.WriteString("Code is not deterministic; ")
	if e.earlyReturn {
		b.WriteString("it now returned early but last time the following operations were executed:")
	} else {
		fmt.Fprintf(&b, "it now executed %s but last time it executed:", e.Actual)
	}
	b.WriteString(formatCallSites(e.Remaining))
	b.WriteString("You need to remove the source of non-determinism; consider using tokamak.Once()")
	return b.String()
}

func formatCallSites(sites []CallSite) string {
	var b strings.Builder
	b.WriteString("\n\n")
	for _, s := range sites {
		b.WriteString("  - ")
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// IllegalStateError reports programmer misuse of the API: a negative
// capture depth, a missing source position, use of Await/Once outside an
// active Run, or an operation attempted on a Context that has already
// committed.
//
// IllegalStateError is never delivered to the invocation's result Future;
// it propagates synchronously out of the call that triggered it, before
// the caller ever sees a Future to fail.
type IllegalStateError struct {
	msg string
}

func (e *IllegalStateError) Error() string { return e.msg }

func illegalStatef(format string, args ...any) *IllegalStateError {
	return &IllegalStateError{msg: fmt.Sprintf(format, args...)}
}
