package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/dflemstr/tokamak-go/internal/canonical"
)

// Snapshot is the canonical-JSON-comparable form of a Recorder's steps,
// keyed by scenario name so golden files read intelligibly on their own.
type Snapshot struct {
	Scenario string `json:"scenario"`
	Steps    []Step `json:"steps"`
}

// AssertGolden compares rec's recorded steps for scenario against the
// checked-in golden file testdata/{scenario}.golden, failing t if
// they differ. Run with `go test ./internal/harness/... -update` (or
// wherever the calling package's tests live) to regenerate golden files
// after an intentional behaviour change.
func AssertGolden(t *testing.T, scenario string, rec *Recorder) {
	t.Helper()

	snap := toCanonicalMap(scenario, rec.Steps())
	encoded, err := canonical.Marshal(snap)
	if err != nil {
		t.Fatalf("harness: encoding snapshot for %s: %v", scenario, err)
	}

	g := goldie.New(t)
	g.Assert(t, scenario, encoded)
}

func toCanonicalMap(scenario string, steps []Step) map[string]any {
	stepList := make([]any, len(steps))
	for i, s := range steps {
		stepList[i] = map[string]any{
			"attempt":   int64(s.Attempt),
			"operation": s.Operation,
			"detail":    s.Detail,
		}
	}
	return map[string]any{
		"scenario": scenario,
		"steps":    stepList,
	}
}
