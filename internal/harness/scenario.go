// Package harness provides scenario-driven testing support for Tokamak
// invocations: a YAML description of what a test exercises, a recorder
// closures under test can report their observable steps to, and a
// golden-file comparison of those recorded steps against a checked-in
// snapshot.
//
// Unlike a query engine's scenario harness, which can describe an entire
// invocation declaratively (an action URI plus arguments), a Tokamak
// closure is arbitrary Go code — there is no declarative form for "await
// this, then once that". So a Scenario here names and documents a test
// rather than driving it: the Go test function still writes the closure
// by hand, and reports its steps to a Recorder as it runs.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario documents one test case. Fields beyond Name and Description
// are metadata for humans reading testdata/scenarios/*.yaml; the test
// that claims a Scenario by name is responsible for actually exercising
// the behaviour it describes.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Attempts is the expected number of attempts (break/resume cycles)
	// the scenario's invocation should take to reach a final outcome.
	Attempts int `yaml:"attempts,omitempty"`
}

// LoadScenarios reads every scenario described in the YAML file at path.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: reading %s: %w", path, err)
	}

	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("harness: parsing %s: %w", path, err)
	}
	return doc.Scenarios, nil
}

// Find returns the scenario named name, or false if none matches.
func Find(scenarios []Scenario, name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
