package harness

import "github.com/roach88/siblingmerge/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Output is what the operation produced: a record for clean and
	// coalesce, an array of {entity, matchedEntities} rows for combine.
	Output ir.Value `json:"output"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	input  ir.Value
	before ir.Value
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
