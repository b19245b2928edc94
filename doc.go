// Package tokamak lets you write asynchronous code as if it were
// synchronous. A closure passed to Run may call Await on any number of
// futures and Once on any number of side-effecting closures, in whatever
// control flow it likes — loops, conditionals, early returns — and read
// each one's result as an ordinary value, with no callbacks and no
// explicit state machine.
//
// Under the hood, Run may invoke the closure more than once: the first
// time it reaches an Await whose future has not yet resolved, the
// closure's execution so far is discarded and re-run from the top once
// that future resolves. Tokamak makes this safe by recording the
// sequence of call sites the closure visits and the value each Await or
// Once produced there; a replay that reaches the same call site gets the
// recorded value back instead of re-evaluating it, so code with no
// external side effects outside of Once blocks behaves exactly as if it
// had run once, straight through, blocking at each Await.
//
// This only works if the closure is otherwise deterministic: the
// sequence of call sites it visits, and the order it visits them in,
// must depend only on values obtained through Await and Once, never on
// anything else (wall-clock time, map iteration order, a random number
// generator). A closure that violates this is caught, not silently
// miscompiled: Run fails the returned Future with a DeterminismError
// naming exactly where replay diverged from the recorded history.
package tokamak
