package tokamak

// recordKind tags what, if anything, a Record's slot holds. Kept as an
// explicit tag (Open Question 2, spec.md §9) rather than relying on
// a nil check, so that a zero Go value is never confused with "unset".
type recordKind int

const (
	recordUnset recordKind = iota
	recordFuture
	recordValue
	recordSentinel
)

// Record is one slot in a Trace: a CallSite fixed at creation time, plus a
// memoised outcome that starts unset. An await may first store a pending
// future handle (recordFuture) and later the resolved value (recordValue);
// once and onceVoid go straight from unset to recordValue or
// recordSentinel. A retry-eligible error returns the slot to unset.
type Record struct {
	Site  CallSite
	kind  recordKind
	fut   future
	value any
}

// Trace is the ordered operation log for one in-flight attempt. It owns
// the memoised value of every operation and is the sole enforcer of the
// replay determinism contract: between a rollback and the next commit,
// the sequence of record calls must reproduce the previous attempt's
// prefix of call sites exactly, optionally extending it.
type Trace struct {
	records   []*Record
	cursor    int
	committed bool
}

func newTrace() *Trace {
	return &Trace{}
}

// record captures the call site depth+1 frames above its caller (so
// depth 1, as passed by await/once, names the user code that called the
// Await/Once wrapper) and
// either follows the existing record at the current cursor position (after
// checking its call site matches) or appends a fresh one. It advances the
// cursor by one and returns the record in either case.
func (t *Trace) record(depth int) (*Record, error) {
	if t.committed {
		return nil, illegalStatef("trace: record called on a committed trace")
	}

	site, err := captureCallSite(depth + 1)
	if err != nil {
		return nil, err
	}

	if t.cursor < len(t.records) {
		existing := t.records[t.cursor]
		if existing.Site != site {
			return nil, t.determinismMismatch(site)
		}
	} else {
		t.records = append(t.records, &Record{Site: site})
	}

	rec := t.records[t.cursor]
	t.cursor++
	return rec, nil
}

func (t *Trace) determinismMismatch(actual CallSite) *DeterminismError {
	expected := t.records[t.cursor].Site
	remaining := make([]CallSite, 0, len(t.records)-t.cursor)
	for _, r := range t.records[t.cursor:] {
		remaining = append(remaining, r.Site)
	}
	return &DeterminismError{
		Expected:  &expected,
		Actual:    &actual,
		Remaining: remaining,
	}
}

// rollback resets the cursor to zero without discarding records or their
// memoised values, so the next attempt can revisit them without
// re-invoking the work they captured.
func (t *Trace) rollback() error {
	if t.committed {
		return illegalStatef("trace: rollback called on a committed trace")
	}
	t.cursor = 0
	return nil
}

// commit marks the trace final. It fails with a DeterminismError if the
// attempt returned before retracing every record a prior attempt had
// reached — an early return relative to the longest observed path.
func (t *Trace) commit() error {
	if t.committed {
		return illegalStatef("trace: commit called on an already-committed trace")
	}
	if t.cursor != len(t.records) {
		remaining := make([]CallSite, 0, len(t.records)-t.cursor)
		for _, r := range t.records[t.cursor:] {
			remaining = append(remaining, r.Site)
		}
		return &DeterminismError{Remaining: remaining, earlyReturn: true}
	}
	t.committed = true
	return nil
}

// reset clears every record and the cursor, and drops the committed flag,
// returning the trace to the state it was in at creation.
func (t *Trace) reset() {
	t.records = nil
	t.cursor = 0
	t.committed = false
}
