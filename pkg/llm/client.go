// Package llm defines the LLM invocation primitive (C2): a single
// invoke(prompt, config) -> result call the pipeline stages depend on, plus
// a concrete Gemini-backed implementation. Token accounting and transport
// internals beyond what's needed to enforce per-stage budgets are
// deliberately thin — Client is a contract, not a general LLM framework.
package llm

import "context"

// Role is the speaker of one Message in a conversation trail.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ReasoningEffort tunes how much the model "thinks" before answering.
// Interpretation is provider-specific; the Gemini client maps it onto a
// thinking-budget hint.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// Message is one turn in the conversation trail returned by Invoke.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// Tool is the contract a pipeline stage's tool set is built from (C1). A
// stage composes its tool set by name; Invoke never inspects a tool beyond
// this surface.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string
	// Description is shown to the model to explain when to call the tool.
	Description() string
	// ParametersSchema is a JSON Schema object describing the tool's
	// arguments.
	ParametersSchema() map[string]interface{}
	// Execute runs the tool with its raw JSON arguments and returns the
	// text result surfaced back to the model.
	Execute(ctx context.Context, argsJSON string) (string, error)
}

// GuardrailFunc vets a tool call before it runs. A tripped result is
// surfaced to the model as a tool error instead of executing the tool.
type GuardrailFunc func(toolName, argsJSON string) GuardrailResult

// GuardrailResult mirrors pkg/guardrail.Result without this package
// depending on guardrail's implementation — callers own the policy.
type GuardrailResult struct {
	TripwireTriggered bool
	OutputInfo        string
}

// ToolEventObserver is notified synchronously as tool calls start and end
// during an Invoke call, letting a caller surface stage_tool_start /
// stage_tool_end events (C8) without this package knowing the event model.
type ToolEventObserver interface {
	ToolStart(toolName string)
	ToolEnd(toolName string, durationMs int64)
}

// Usage carries token accounting for one Invoke call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// CostEstimator converts token usage into an estimated USD cost. Callers
// supply one (or accept the provider default) to enforce per-stage
// budgets; the estimate need not be exact.
type CostEstimator func(model string, usage Usage) float64

// InvokeConfig configures one Invoke call.
type InvokeConfig struct {
	Model             string
	Tools             []Tool
	MaxTurns          int
	BudgetUSD         float64
	ReasoningEffort   ReasoningEffort
	InstructionPrefix string

	// Schema, when non-nil, requests structured output. FinalOutputRaw on
	// the result is only populated when the model's final turn parses as
	// JSON.
	Schema     map[string]interface{}
	SchemaName string

	Guardrail     GuardrailFunc
	ToolObserver  ToolEventObserver
	CostEstimator CostEstimator
}

// FinishReason enumerates why Invoke stopped producing turns.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishMaxTurns  FinishReason = "max_turns"
	FinishBudget    FinishReason = "budget_exceeded"
	FinishCancelled FinishReason = "cancelled"
)

// Result is what Invoke returns on success.
type Result struct {
	// Output is the model's final free-text answer, if any.
	Output string
	// FinalOutputRaw is the raw JSON of the model's structured output,
	// populated only when InvokeConfig.Schema was supplied.
	FinalOutputRaw []byte
	Messages       []Message
	NumTurns       int
	FinishReason   FinishReason
	TotalCostUSD   float64
	Usage          Usage
}

// Client is the C2 contract: a single invoke(prompt, config) -> result
// call. Errors returned are one of BudgetExceededError, OutputParseError,
// ModelError, or a generic wrapped error — see errors.go.
type Client interface {
	Invoke(ctx context.Context, prompt string, cfg InvokeConfig) (*Result, error)
	// ModelName reports the default model this client talks to, for
	// display/logging purposes.
	ModelName() string
}
