package tokamak_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokamak "github.com/dflemstr/tokamak-go"
)

// S1: a closure with no operations commits on the first attempt.
func TestClosureWithNoOperationsCommitsImmediately(t *testing.T) {
	fut := tokamak.Run(func() (int, error) {
		return 42, nil
	})

	require.True(t, fut.Ready())
	v, err := fut.Value()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

// S2: a mix of await and once across two asynchronous awaits, each once
// closure running exactly once despite the intervening suspensions.
func TestAwaitAndOnceInterleaveAcrossSuspensions(t *testing.T) {
	counter := 0

	fut := tokamak.Run(func() (int, error) {
		a := tokamak.Await[int](tokamak.Go(func() (int, error) { return 3, nil }))
		b := tokamak.Once(func() (int, error) {
			counter++
			return counter, nil
		})
		c := tokamak.Await[int](tokamak.Go(func() (int, error) { return 4, nil }))
		tokamak.Once(func() (int, error) {
			counter++
			return 0, nil
		})
		return a + b + c, nil
	})

	waitFor(t, fut)
	v, err := fut.Value()
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Equal(t, 2, counter)
}

// S3: once blocks are idempotent across replays even when they mutate
// shared state (here, a set and a counter), and the final expression is
// deterministic given the memoised values.
func TestOnceBlocksAreIdempotentAcrossReplays(t *testing.T) {
	counter := 0
	var set map[int]struct{}

	fut := tokamak.Run(func() (int, error) {
		set = tokamak.Once(func() (map[int]struct{}, error) {
			return map[int]struct{}{}, nil
		})
		tokamak.Once(func() (struct{}, error) {
			set[42] = struct{}{}
			return struct{}{}, nil
		})
		a := tokamak.Await[int](tokamak.Go(func() (int, error) { return 2, nil }))
		b := tokamak.Await[int](tokamak.Go(func() (int, error) { return 3, nil }))
		tokamak.Once(func() (struct{}, error) {
			counter++
			return struct{}{}, nil
		})
		c := tokamak.Await[int](tokamak.Go(func() (int, error) { return len(set) + 4, nil }))
		tokamak.Once(func() (struct{}, error) {
			counter++
			return struct{}{}, nil
		})
		d := counter + 5
		return a * b * c * d, nil
	})

	waitFor(t, fut)
	v, err := fut.Value()
	require.NoError(t, err)
	assert.Equal(t, 210, v)
	assert.Equal(t, 2, counter)
	assert.Equal(t, map[int]struct{}{42: {}}, set)
}

// S4: diverging at a call site that a prior attempt already recorded is
// a DeterminismError naming the expected/actual sites and the remaining
// recorded operations.
func TestDivergingCallSiteIsADeterminismError(t *testing.T) {
	attempt := 0
	ch := make(chan tokamak.Result[int], 1)
	pending := tokamak.FromChannel(ch)

	fut := tokamak.Run(func() (int, error) {
		attempt++
		f := func() (int, error) { return tokamak.Once(func() (int, error) { return 1, nil }), nil }
		g := func() (int, error) { return tokamak.Await[int](pending), nil }

		if attempt == 1 {
			mustOK(f())
			return mustOK(g()), nil
		}
		return mustOK(g()), nil
	})

	assert.False(t, fut.Ready())
	ch <- tokamak.Result[int]{Value: 1}

	waitFor(t, fut)
	_, err := fut.Value()
	require.Error(t, err)
	var detErr *tokamak.DeterminismError
	require.ErrorAs(t, err, &detErr)
	assert.Contains(t, err.Error(), "Code is not deterministic")
	assert.Contains(t, err.Error(), "consider using tokamak.Once()")
}

// S5: returning earlier than a prior attempt's recorded operations is
// also a DeterminismError, with the early-return message variant.
func TestEarlyReturnIsADeterminismError(t *testing.T) {
	attempt := 0
	ch := make(chan tokamak.Result[int], 1)
	pending := tokamak.FromChannel(ch)

	fut := tokamak.Run(func() (int, error) {
		attempt++
		tokamak.Once(func() (int, error) { return 1, nil })
		tokamak.Await[int](tokamak.Resolved(2))
		if attempt > 1 {
			return 0, nil
		}
		tokamak.Await[int](pending)
		return 0, nil
	})

	assert.False(t, fut.Ready())
	ch <- tokamak.Result[int]{Value: 1}

	waitFor(t, fut)
	_, err := fut.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned early but last time")
}

// S6: an unresolved await suspends the whole attempt; once it resolves,
// replay reaches every once block it already passed through without
// re-running their closures.
func TestSuspensionReplaysWithoutRerunningOnce(t *testing.T) {
	invocations := 0
	ch := make(chan tokamak.Result[string], 1)
	pending := tokamak.FromChannel(ch)

	fut := tokamak.Run(func() (string, error) {
		first := tokamak.Once(func() (string, error) {
			invocations++
			return "x", nil
		})
		tokamak.Await[string](pending)
		return first, nil
	})

	assert.False(t, fut.Ready())
	ch <- tokamak.Result[string]{Value: "unblocked"}

	waitFor(t, fut)
	v, err := fut.Value()
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	assert.Equal(t, 1, invocations)
}

// invariant 6: a retry-eligible error restarts the attempt and re-invokes
// the operation that raised it, without memoising the failure, while once
// operations preceding it that already succeeded are not re-run.
func TestRetryOnErrorRetriesWithoutMemoisingFailure(t *testing.T) {
	var precedingRuns, retryingRuns int
	transient := errors.New("transient")
	op := tokamak.NewOperationBuilder[int]().RetryOn(transient).Build()

	fut := tokamak.Run(func() (int, error) {
		a := tokamak.Once(func() (int, error) {
			precedingRuns++
			return 1, nil
		})

		b := op.Once(func() (int, error) {
			retryingRuns++
			if retryingRuns < 3 {
				return 0, transient
			}
			return 2, nil
		})

		return a + b, nil
	})

	waitFor(t, fut)
	v, err := fut.Value()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, precedingRuns)
	assert.Equal(t, 3, retryingRuns)
}

// A non-retry-eligible error surfaces as the invocation's failure without
// being memoised, and is never retried.
func TestNonRetryableErrorFailsWithoutRetrying(t *testing.T) {
	var runs int
	fatal := errors.New("fatal")

	fut := tokamak.Run(func() (int, error) {
		return tokamak.Once(func() (int, error) {
			runs++
			return 0, fatal
		}), nil
	})

	waitFor(t, fut)
	_, err := fut.Value()
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, runs)
}

func mustOK[A any](v A, err error) A {
	if err != nil {
		panic(err)
	}
	return v
}

func waitFor(t *testing.T, f interface{ Ready() bool }) {
	t.Helper()
	deadline := 0
	for !f.Ready() {
		deadline++
		if deadline > 1_000_000 {
			t.Fatal("future never resolved")
		}
	}
}
