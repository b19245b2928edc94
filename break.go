package tokamak

// breakSignal is the internal, non-local jump used to abort the current
// attempt at the point it hits an unresolved await. It is never observed
// by user code: the only place that may recover it is the replay driver's
// attempt loop, which identity-checks the recovered value against
// theBreakSignal before treating it as the expected suspension.
//
// It carries no message and no stack trace: it exists purely as a jump
// target, not as diagnostic information.
type breakSignal struct{}

// theBreakSignal is the single instance of breakSignal in the process.
// Catching any *breakSignal that is not this exact pointer is itself a
// bug (some other code panicked with a counterfeit value of the same
// type) and must not be treated as a suspension.
var theBreakSignal = &breakSignal{}

// raiseBreak aborts the current attempt by panicking with the process-wide
// break sentinel.
func raiseBreak() {
	panic(theBreakSignal)
}

// isBreakSignal reports whether a recovered panic value is the break
// sentinel, and panics if it is a counterfeit of the same type raised by
// something other than this package.
func isBreakSignal(recovered any) bool {
	if recovered == nil {
		return false
	}
	sig, ok := recovered.(*breakSignal)
	if !ok {
		return false
	}
	if sig != theBreakSignal {
		panic("tokamak: observed a counterfeit break signal; catching *breakSignal outside the replay driver is a bug")
	}
	return true
}
