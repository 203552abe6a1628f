package llm

// modelPricing is USD per 1000 tokens, (prompt, completion). Approximate
// published Gemini rates; good enough for budget-ceiling enforcement, which
// only needs to be in the right order of magnitude (spec §4.1.6).
var modelPricing = map[string][2]float64{
	"gemini-2.5-flash-lite": {0.0001, 0.0004},
	"gemini-2.5-flash":      {0.0003, 0.0025},
	"gemini-2.5-pro":        {0.00125, 0.01},
}

const fallbackPromptRate = 0.0002
const fallbackCompletionRate = 0.0008

// defaultCostEstimator is the CostEstimator used when InvokeConfig doesn't
// supply one.
func defaultCostEstimator(model string, usage Usage) float64 {
	rates, ok := modelPricing[model]
	promptRate, completionRate := fallbackPromptRate, fallbackCompletionRate
	if ok {
		promptRate, completionRate = rates[0], rates[1]
	}
	return float64(usage.PromptTokens)/1000*promptRate + float64(usage.CompletionTokens)/1000*completionRate
}
