package tokamak

import "github.com/dflemstr/tokamak-go/internal/strand"

// contextSlot holds the one context bound to each strand (goroutine) that
// is currently inside a Run attempt. It is the Go port's substitute for
// the Java original's ThreadLocal<Context>.
var contextSlot = strand.NewSlot(newContext)

// currentContext returns the context bound to the calling strand,
// creating an empty, inactive one on first use.
func currentContext() *context {
	return contextSlot.Get()
}

// bindContext saves the context currently bound to id and installs c in
// its place, returning what to pass to unbindContext to restore it. The
// replay driver uses this pair when a completion callback re-enters
// tryComplete on a strand other than the one that started the attempt.
func bindContext(id strand.ID, c *context) (previous *context, existed bool) {
	return contextSlot.Bind(id, c)
}

func unbindContext(id strand.ID, previous *context, existed bool) {
	contextSlot.Unbind(id, previous, existed)
}
