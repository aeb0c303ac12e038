package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/zerv/internal/testutil"
	"github.com/roach88/zerv/internal/zerv"
)

func assertionResult() *Result {
	z := testutil.Version(1, 2, 3).PreRelease(zerv.Rc, 1).Branch("main").Zerv(testutil.StandardSchema())
	return &Result{Pass: true, SemVer: "1.2.3-rc.1", zerv: z}
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"var equals", Assertion{Type: AssertVarEquals, Field: "minor", Value: "2"}, ""},
		{"var equals label", Assertion{Type: AssertVarEquals, Field: "pre_release", Value: "rc"}, ""},
		{"var equals mismatch", Assertion{Type: AssertVarEquals, Field: "minor", Value: "9"}, `minor = "9"`},
		{"var absent", Assertion{Type: AssertVarEquals, Field: "post", Absent: true}, ""},
		{"var absent but set", Assertion{Type: AssertVarEquals, Field: "bumped_branch", Absent: true}, "bumped_branch unset"},
		{"var unset", Assertion{Type: AssertVarEquals, Field: "dev", Value: "1"}, "dev unset"},
		{"section contains", Assertion{Type: AssertSectionContains, Section: "core", Field: "patch"}, ""},
		{"section missing var", Assertion{Type: AssertSectionContains, Section: "build", Field: "distance"}, "build contains"},
		{"section length", Assertion{Type: AssertSectionLength, Section: "core", Count: 3}, ""},
		{"section length mismatch", Assertion{Type: AssertSectionLength, Section: "core", Count: 2}, "core has 2 components"},
		{"unknown type", Assertion{Type: "trace_order"}, "unknown assertion type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(assertionResult(), []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertionsWithoutVersion(t *testing.T) {
	assert.Nil(t, EvaluateAssertions(&Result{}, nil))

	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: AssertVarEquals, Field: "major"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "successful run")
}

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertSectionLength,
		Expected: "core has 2 components",
		Actual:   `core = [var("major")]`,
		Version:  "1.0.0",
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: section_length")
	assert.Contains(t, msg, "Expected: core has 2 components")
	assert.Contains(t, msg, `Actual: core = [var("major")]`)
	assert.Contains(t, msg, "Version: 1.0.0")
}
