package harness

import (
	"github.com/roach88/zerv/internal/ir"
	"github.com/roach88/zerv/internal/zerv"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Output      string `json:"output,omitempty"`
	SemVer      string `json:"semver,omitempty"`
	PEP440      string `json:"pep440,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Document is the transformed version, nil when the pipeline failed.
	Document *ir.Document `json:"document,omitempty"`

	// Err is the pipeline error message, empty on success.
	Err string `json:"error,omitempty"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	zerv *zerv.Zerv
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
