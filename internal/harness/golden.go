package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/zerv/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Keys: name, output, semver, pep440, document on success; name, error on
// failure.
func Snapshot(name string, result *Result) ([]byte, error) {
	obj := ir.Object{"name": ir.String(name)}
	if result.Err != "" {
		obj["error"] = ir.String(result.Err)
		return ir.MarshalCanonical(obj)
	}

	obj["output"] = ir.String(result.Output)
	obj["semver"] = ir.String(result.SemVer)
	obj["pep440"] = ir.String(result.PEP440)
	if result.Document != nil {
		doc, err := result.Document.Value()
		if err != nil {
			return nil, err
		}
		obj["document"] = doc
	}
	return ir.MarshalCanonical(obj)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
