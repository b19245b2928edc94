package tokamak

// context is the per-invocation state bound to a strand while an attempt
// of Run's closure is executing: the Trace being replayed against, and the
// set of futures the current attempt discovered it is blocked on.
//
// A context is only "active" between the moment Run binds it to the
// current strand and the moment the invocation resolves (commits or
// fails); the flag stays set across suspensions and re-entries.
// Await and Once consult the active flag to raise IllegalStateError when
// called from outside any Run — the Go port's answer to Open Question 4;
// the Java original has no such check because ThreadLocal.withInitial
// always hands back *some* Context.
type context struct {
	trace   *Trace
	pending []future
	active  bool
}

func newContext() *context {
	return &context{trace: newTrace()}
}

// reset discards any pending futures from the previous attempt and clears
// the trace's cursor (but not its records) so the next attempt can replay
// from the start.
func (c *context) reset() error {
	c.pending = nil
	return c.trace.rollback()
}

// addPending registers f as something the current attempt is blocked on.
// Operation calls this immediately before raising the break signal.
func (c *context) addPending(f future) {
	c.pending = append(c.pending, f)
}

// takePending returns and clears the set of futures the attempt that just
// broke is blocked on.
func (c *context) takePending() []future {
	p := c.pending
	c.pending = nil
	return p
}

// commit finalises the trace for the attempt that just completed without
// breaking.
func (c *context) commit() error {
	return c.trace.commit()
}

// requireActive raises IllegalStateError if no Run invocation currently
// owns this strand's context.
func (c *context) requireActive() error {
	if !c.active {
		return illegalStatef("tokamak: Await/Once called outside an active Run on this strand")
	}
	return nil
}
