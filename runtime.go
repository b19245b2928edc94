package tokamak

import (
	"log/slog"

	"github.com/dflemstr/tokamak-go/internal/diagnostics"
	"github.com/dflemstr/tokamak-go/internal/invocationid"
)

// Runtime bundles the ambient services an invocation may use beyond the
// pure replay mechanism: structured logging and, optionally, a
// diagnostics store recording each invocation's outcome for later
// inspection. Neither participates in replay determinism; both are
// strictly observational.
type Runtime struct {
	logger      *slog.Logger
	diagnostics *diagnostics.Store
	ids         invocationid.Generator
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the structured logger a Runtime uses to log each
// invocation's start and outcome. The default is slog.Default().
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = logger }
}

// WithDiagnostics attaches a diagnostics store that records one entry per
// completed (committed or permanently failed) invocation. A Runtime with
// no diagnostics store records nothing.
func WithDiagnostics(store *diagnostics.Store) RuntimeOption {
	return func(r *Runtime) { r.diagnostics = store }
}

// WithIDGenerator overrides the generator used to mint the correlation id
// attached to an invocation's log lines and diagnostics row. The default
// is invocationid.UUIDv7Generator, which FixedGenerator (from the same
// package) can replace for deterministic tests.
func WithIDGenerator(gen invocationid.Generator) RuntimeOption {
	return func(r *Runtime) { r.ids = gen }
}

// NewRuntime builds a Runtime from the given options.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		logger: slog.Default(),
		ids:    invocationid.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRuntime = NewRuntime()

// RunWith starts replaying closure under r's logging and diagnostics. Go
// does not allow methods to carry their own type parameters, so this is a
// free function taking the Runtime explicitly rather than a method.
func RunWith[A any](r *Runtime, closure func() (A, error)) *Future[A] {
	id := r.ids.Generate()
	log := r.logger.With("invocation_id", id)

	log.Debug("tokamak: starting invocation")
	fut := Run(closure)
	fut.OnComplete(func() {
		v, err := fut.Value()
		if err != nil {
			log.Warn("tokamak: invocation failed", "error", err)
		} else {
			log.Debug("tokamak: invocation committed")
		}
		if r.diagnostics != nil {
			_ = r.diagnostics.Record(id, err, v)
		}
	})
	return fut
}

// RunVoidWith is RunWith specialised to closures with no result value.
func RunVoidWith(r *Runtime, closure func() error) *Future[struct{}] {
	return RunWith(r, func() (struct{}, error) {
		return struct{}{}, closure()
	})
}
