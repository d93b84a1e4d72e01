package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes scenario and compares its compiled query text
// against a golden fixture under testdata/golden/{scenario.Name}.golden.
// Regenerate fixtures with `go test ./internal/harness -update`.
func RunWithGolden(t *testing.T, scenario Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %q: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(result.Query))

	return result
}
