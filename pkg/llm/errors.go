package llm

import "fmt"

// BudgetExceededError is returned by Invoke when the running cost estimate
// for the call crosses InvokeConfig.BudgetUSD before the model finishes.
type BudgetExceededError struct {
	SpentUSD  float64
	BudgetUSD float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: spent $%.2f of $%.2f", e.SpentUSD, e.BudgetUSD)
}

// OutputParseError is returned when InvokeConfig.Schema was set but the
// model's final turn could not be parsed or did not validate against it.
type OutputParseError struct {
	SchemaName string
	Message    string
}

func (e *OutputParseError) Error() string {
	return fmt.Sprintf("structured output %q failed validation: %s", e.SchemaName, e.Message)
}

// ModelError wraps a transport-level failure from the provider, carrying an
// HTTP-ish status code so pkg/retry can classify it via StatusCoder.
type ModelError struct {
	Status  int
	Message string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (status %d): %s", e.Status, e.Message)
}

func (e *ModelError) StatusCode() int {
	return e.Status
}
