// Package pipelineerr holds the small set of typed errors the pipeline
// driver surfaces to callers, mirroring spec §7's error kinds. Client-level
// errors (budget, output parsing) are defined once in pkg/llm and aliased
// here so the driver and the invocation layer share one type each.
package pipelineerr

import (
	"fmt"

	"github.com/corvidlabs/noctua/pkg/llm"
)

// BudgetExceededError is raised when a stage's spend would exceed its
// allotted budget. Defined in pkg/llm; aliased here for driver-level use.
type BudgetExceededError = llm.BudgetExceededError

// OutputParseError is raised when a model's structured output could not be
// recovered into the expected shape even after recovery attempts. Defined
// in pkg/llm; aliased here for driver-level use.
type OutputParseError = llm.OutputParseError

// TransientAPIError wraps an underlying transient failure (rate limit,
// network error) that exhausted its retry budget.
type TransientAPIError struct {
	Stage   string
	Attempts int
	Cause   error
}

func (e *TransientAPIError) Error() string {
	return fmt.Sprintf("%s: transient failure persisted after %d attempt(s): %v", e.Stage, e.Attempts, e.Cause)
}

func (e *TransientAPIError) Unwrap() error { return e.Cause }

// MissingArtifactError is raised when a stage's expected output file is
// still absent after the single reinforced retry (C4).
type MissingArtifactError struct {
	Stage string
	Path  string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s: expected artifact %s was not created", e.Stage, e.Path)
}

// GuardrailDeniedError is raised when a tool call was blocked by the
// guardrail and the stage has no further recourse.
type GuardrailDeniedError struct {
	Tool   string
	Reason string
}

func (e *GuardrailDeniedError) Error() string {
	return fmt.Sprintf("guardrail blocked %s: %s", e.Tool, e.Reason)
}
