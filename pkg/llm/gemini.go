package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// defaultModel is used when InvokeConfig.Model is empty.
const defaultModel = "gemini-2.5-flash-lite"

// defaultMaxTurns bounds the tool-calling loop when InvokeConfig.MaxTurns is
// unset (<= 0).
const defaultMaxTurns = 12

// defaultPerCallTimeout bounds a single GenerateContent round trip.
const defaultPerCallTimeout = 120 * time.Second

// GeminiClient implements Client against Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client with the given API key and
// default model. The default model is "gemini-2.5-flash-lite" if none is
// specified.
func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = defaultModel
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}

// Invoke runs the tool-calling loop: send the prompt (plus InstructionPrefix
// as a system instruction), execute any function calls the model requests
// via cfg.Tools, vetted by cfg.Guardrail, feed the results back, and repeat
// until the model stops calling tools, MaxTurns is hit, the budget is
// exceeded, or ctx is cancelled.
func (c *GeminiClient) Invoke(ctx context.Context, prompt string, cfg InvokeConfig) (*Result, error) {
	model := cfg.Model
	if model == "" {
		model = c.model
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	estimator := cfg.CostEstimator
	if estimator == nil {
		estimator = defaultCostEstimator
	}

	genConfig := &genai.GenerateContentConfig{}
	if cfg.InstructionPrefix != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(cfg.InstructionPrefix)},
		}
	}
	if thinkingBudget, ok := thinkingBudgetFor(cfg.ReasoningEffort); ok {
		genConfig.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(thinkingBudget)}
	}
	toolsByName := make(map[string]Tool, len(cfg.Tools))
	for _, t := range cfg.Tools {
		toolsByName[t.Name()] = t
		genConfig.Tools = append(genConfig.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{functionDeclarationFor(t)},
		})
	}
	if cfg.Schema != nil && len(cfg.Tools) == 0 {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = jsonSchemaToGenai(cfg.Schema)
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(prompt)}},
	}
	messages := []Message{{Role: RoleUser, Content: prompt}}

	var totalCost float64
	var totalUsage Usage

	for turn := 1; turn <= maxTurns; turn++ {
		select {
		case <-ctx.Done():
			return &Result{Messages: messages, NumTurns: turn - 1, FinishReason: FinishCancelled, TotalCostUSD: totalCost, Usage: totalUsage}, ctx.Err()
		default:
		}

		callCtx, cancel := context.WithTimeout(ctx, defaultPerCallTimeout)
		resp, err := c.client.Models.GenerateContent(callCtx, model, contents, genConfig)
		cancel()
		if err != nil {
			return nil, &ModelError{Status: 0, Message: fmt.Sprintf("gemini (model: %s) request failed: %v", model, err)}
		}

		if resp.UsageMetadata != nil {
			totalUsage.PromptTokens += int(resp.UsageMetadata.PromptTokenCount)
			totalUsage.CompletionTokens += int(resp.UsageMetadata.CandidatesTokenCount)
		}
		totalCost = estimator(model, totalUsage)
		if cfg.BudgetUSD > 0 && totalCost > cfg.BudgetUSD {
			return nil, &BudgetExceededError{SpentUSD: totalCost, BudgetUSD: cfg.BudgetUSD}
		}

		calls := functionCalls(resp)
		if len(calls) == 0 {
			text := resp.Text()
			messages = append(messages, Message{Role: RoleAssistant, Content: text})
			result := &Result{
				Output:       text,
				Messages:     messages,
				NumTurns:     turn,
				FinishReason: FinishStop,
				TotalCostUSD: totalCost,
				Usage:        totalUsage,
			}
			if cfg.Schema != nil {
				raw, perr := extractStructuredOutput(text)
				if perr != nil {
					return nil, &OutputParseError{SchemaName: cfg.SchemaName, Message: perr.Error()}
				}
				result.FinalOutputRaw = raw
			}
			return result, nil
		}

		modelContent := candidateContent(resp)
		contents = append(contents, modelContent)
		messages = append(messages, Message{Role: RoleAssistant, Content: summarizeCalls(calls)})

		var responseParts []*genai.Part
		for _, call := range calls {
			argsJSON, _ := json.Marshal(call.Args)

			if cfg.ToolObserver != nil {
				cfg.ToolObserver.ToolStart(call.Name)
			}
			start := time.Now()

			var resultText string
			if cfg.Guardrail != nil {
				if gr := cfg.Guardrail(call.Name, string(argsJSON)); gr.TripwireTriggered {
					resultText = "blocked by guardrail: " + gr.OutputInfo
					responseParts = append(responseParts, functionResponsePart(call.Name, resultText))
					if cfg.ToolObserver != nil {
						cfg.ToolObserver.ToolEnd(call.Name, time.Since(start).Milliseconds())
					}
					messages = append(messages, Message{Role: RoleTool, Content: resultText})
					continue
				}
			}

			tool, ok := toolsByName[call.Name]
			if !ok {
				resultText = fmt.Sprintf("unknown tool %q", call.Name)
			} else {
				out, terr := tool.Execute(ctx, string(argsJSON))
				if terr != nil {
					resultText = "error: " + terr.Error()
				} else {
					resultText = out
				}
			}

			if cfg.ToolObserver != nil {
				cfg.ToolObserver.ToolEnd(call.Name, time.Since(start).Milliseconds())
			}
			messages = append(messages, Message{Role: RoleTool, Content: resultText})
			responseParts = append(responseParts, functionResponsePart(call.Name, resultText))
		}

		contents = append(contents, &genai.Content{Role: "user", Parts: responseParts})
	}

	return &Result{Messages: messages, NumTurns: maxTurns, FinishReason: FinishMaxTurns, TotalCostUSD: totalCost, Usage: totalUsage}, nil
}

// thinkingBudgetFor maps a ReasoningEffort onto Gemini's thinking-token
// budget hint. ok is false for the zero value, leaving the provider default.
func thinkingBudgetFor(effort ReasoningEffort) (int32, bool) {
	switch effort {
	case EffortLow:
		return 512, true
	case EffortMedium:
		return 2048, true
	case EffortHigh:
		return 8192, true
	default:
		return 0, false
	}
}

// functionDeclarationFor converts a Tool's JSON-Schema parameters into the
// genai function-declaration shape the model is offered.
func functionDeclarationFor(t Tool) *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  jsonSchemaToGenai(t.ParametersSchema()),
	}
}

type functionCall struct {
	Name string
	Args map[string]interface{}
}

func functionCalls(resp *genai.GenerateContentResponse) []functionCall {
	var calls []functionCall
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return calls
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, functionCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args})
		}
	}
	return calls
}

func candidateContent(resp *genai.GenerateContentResponse) *genai.Content {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &genai.Content{Role: "model"}
	}
	return resp.Candidates[0].Content
}

func summarizeCalls(calls []functionCall) string {
	if len(calls) == 1 {
		return fmt.Sprintf("called %s", calls[0].Name)
	}
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return fmt.Sprintf("called %d tools: %v", len(calls), names)
}

func functionResponsePart(name, result string) *genai.Part {
	return genai.NewPartFromFunctionResponse(name, map[string]interface{}{"result": result})
}

// extractStructuredOutput parses text as JSON, recovering from fenced code
// blocks or leading/trailing prose a model sometimes wraps its JSON in
// (spec §4.1.1/§7's malformed-output recovery path).
func extractStructuredOutput(text string) ([]byte, error) {
	trimmed := stripCodeFence(text)
	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		if start, end, ok := findJSONObject(trimmed); ok {
			candidate := trimmed[start:end]
			if err2 := json.Unmarshal([]byte(candidate), &v); err2 == nil {
				return []byte(candidate), nil
			}
		}
		return nil, fmt.Errorf("could not parse model output as JSON: %w", err)
	}
	return []byte(trimmed), nil
}

// jsonSchemaToGenai converts a plain JSON-Schema map (the shape every tool
// and report validator in this module uses) into genai's typed Schema.
func jsonSchemaToGenai(schema map[string]interface{}) *genai.Schema {
	if schema == nil {
		return nil
	}
	out := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		out.Type = genaiType(t)
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]interface{}); ok {
				out.Properties[name] = jsonSchemaToGenai(sub)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		out.Items = jsonSchemaToGenai(items)
	}
	if req, ok := schema["required"].([]string); ok {
		out.Required = req
	} else if reqAny, ok := schema["required"].([]interface{}); ok {
		for _, r := range reqAny {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if enumAny, ok := schema["enum"].([]interface{}); ok {
		for _, e := range enumAny {
			if s, ok := e.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
