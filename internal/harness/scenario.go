package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/zerv/internal/pipeline"
	"github.com/roach88/zerv/internal/zerv"
)

// Scenario defines one pipeline invocation and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is vcs, stdin, or none. Inferred when empty.
	Source string `yaml:"source,omitempty"`

	// Input is the stdin text for the stdin source.
	Input       string `yaml:"input,omitempty"`
	InputFormat string `yaml:"input_format,omitempty"`

	// VCS is repository data in the vcs data file layout.
	VCS map[string]any `yaml:"vcs,omitempty"`

	Context ContextSpec    `yaml:"context,omitempty"`
	Custom  map[string]any `yaml:"custom,omitempty"`

	// Clock is the fixed Unix time for the run. Zero selects
	// testutil.DefaultUnix.
	Clock int64 `yaml:"clock,omitempty"`

	// Schema names a preset. SchemaText is inline schema text.
	Schema     string `yaml:"schema,omitempty"`
	SchemaText string `yaml:"schema_text,omitempty"`

	// Overrides and Bumps are keyed by precedence name.
	Overrides map[string]string `yaml:"overrides,omitempty"`
	Bumps     map[string]string `yaml:"bumps,omitempty"`

	// Positions holds positional specs keyed by section name.
	Positions map[string]PositionSpec `yaml:"positions,omitempty"`

	OutputFormat   string `yaml:"output_format,omitempty"`
	OutputTemplate string `yaml:"output_template,omitempty"`
	OutputPrefix   string `yaml:"output_prefix,omitempty"`

	Expect     Expect      `yaml:"expect,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ContextSpec overrides repository context.
type ContextSpec struct {
	TagVersion      *string `yaml:"tag_version,omitempty"`
	Distance        *uint64 `yaml:"distance,omitempty"`
	Dirty           *bool   `yaml:"dirty,omitempty"`
	Branch          *string `yaml:"branch,omitempty"`
	CommitHash      *string `yaml:"commit_hash,omitempty"`
	BumpedTimestamp *int64  `yaml:"bumped_timestamp,omitempty"`
	Clean           bool    `yaml:"clean,omitempty"`
	NoBumpContext   bool    `yaml:"no_bump_context,omitempty"`
}

// PositionSpec lists positional overrides ("index=value") and bumps
// ("index[=n]") for one section.
type PositionSpec struct {
	Overrides []string `yaml:"overrides,omitempty"`
	Bumps     []string `yaml:"bumps,omitempty"`
}

// Expect holds exact expectations. Empty fields are not checked.
type Expect struct {
	Output string `yaml:"output,omitempty"`
	SemVer string `yaml:"semver,omitempty"`
	PEP440 string `yaml:"pep440,omitempty"`

	// Zerv is a Zerv document (JSON or YAML) the result must match.
	Zerv string `yaml:"zerv,omitempty"`

	// Error is a substring the pipeline error must contain.
	Error string `yaml:"error,omitempty"`
}

func (e Expect) isZero() bool {
	return e == Expect{}
}

// Assertion validates the final version.
type Assertion struct {
	// Type is one of var_equals, section_contains, section_length.
	Type string `yaml:"type"`

	// Field is the var name (var_equals, section_contains).
	Field string `yaml:"field,omitempty"`

	// Value is the expected rendered value (var_equals).
	Value string `yaml:"value,omitempty"`

	// Absent asserts the var is unset (var_equals).
	Absent bool `yaml:"absent,omitempty"`

	// Section is core, extra_core, or build.
	Section string `yaml:"section,omitempty"`

	// Count is the expected component count (section_length).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVarEquals       = "var_equals"
	AssertSectionContains = "section_contains"
	AssertSectionLength   = "section_length"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Expect.isZero() && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect.Error != "" && (s.Expect.Output != "" || s.Expect.SemVer != "" || s.Expect.PEP440 != "" || s.Expect.Zerv != "" || len(s.Assertions) > 0) {
		return fmt.Errorf("expect.error cannot be combined with output expectations")
	}

	switch s.Source {
	case "", pipeline.SourceVCS, pipeline.SourceStdin, pipeline.SourceNone:
	default:
		return fmt.Errorf("unknown source %q", s.Source)
	}

	for name := range s.Overrides {
		if _, err := zerv.ParsePrecedence(name); err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
	}
	for name := range s.Bumps {
		if _, err := zerv.ParsePrecedence(name); err != nil {
			return fmt.Errorf("bumps: %w", err)
		}
	}
	for name := range s.Positions {
		if _, err := zerv.ParseSection(name); err != nil {
			return fmt.Errorf("positions: %w", err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertVarEquals:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for var_equals", index)
		}
		if _, err := zerv.ParseVar(a.Field); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Absent && a.Value != "" {
			return fmt.Errorf("assertions[%d]: value and absent are exclusive", index)
		}
	case AssertSectionContains:
		if _, err := zerv.ParseSection(a.Section); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if _, err := zerv.ParseVar(a.Field); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertSectionLength:
		if _, err := zerv.ParseSection(a.Section); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for section_length", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
