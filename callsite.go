package tokamak

import (
	"fmt"
	"runtime"
	"strings"
)

// CallSite identifies a source position: the file and line of a call, plus
// the enclosing unit (package, and receiver type if any) and operation
// (function or method) that contains it.
//
// CallSite is the key the Trace uses to correlate a replayed operation with
// its prior record: two CallSites are equal iff all four fields match.
type CallSite struct {
	File      string
	Line      int
	Unit      string
	Operation string
}

// captureCallSite walks the live call stack and returns the site depth+1
// frames above its caller. depth 0 names the function that called
// captureCallSite's caller; depth 1 names the frame above that, and so on
// up the chain.
//
// capture fails with an *IllegalStateError if depth is negative or the runtime
// has no source position for the requested frame (stripped binary, cgo
// boundary, etc).
func captureCallSite(depth int) (CallSite, error) {
	if depth < 0 {
		return CallSite{}, illegalStatef("callsite: depth must be non-negative, got %d", depth)
	}

	// +2: runtime.Caller(0) is this function and 1 is its caller; skip both.
	pc, file, line, ok := runtime.Caller(depth + 2)
	if !ok {
		return CallSite{}, illegalStatef("callsite: no source position at depth %d", depth)
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return CallSite{}, illegalStatef("callsite: no function metadata at depth %d", depth)
	}

	unit, operation := splitFuncName(fn.Name())
	return CallSite{File: file, Line: line, Unit: unit, Operation: operation}, nil
}

// splitFuncName splits a runtime function name of the form
// "import/path.Func", "import/path.(*Type).Method" or
// "import/path.Type.Method" into (unit, operation), where unit is the
// package (plus receiver type, if any) and operation is the bare
// function/method name.
func splitFuncName(name string) (unit, operation string) {
	slash := strings.LastIndexByte(name, '/')
	rest := name
	prefix := ""
	if slash >= 0 {
		prefix = name[:slash+1]
		rest = name[slash+1:]
	}

	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return prefix + rest, ""
	}
	pkg := rest[:dot]
	tail := rest[dot+1:]

	lastDot := strings.LastIndexByte(tail, '.')
	if lastDot < 0 {
		return prefix + pkg, tail
	}
	return prefix + pkg + "." + tail[:lastDot], tail[lastDot+1:]
}

// String renders the canonical diagnostic form "{unit}.{operation}({file}:{line})".
func (c CallSite) String() string {
	return fmt.Sprintf("%s.%s(%s:%d)", c.Unit, c.Operation, c.File, c.Line)
}
