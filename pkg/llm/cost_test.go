package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCostEstimatorKnownModel(t *testing.T) {
	cost := defaultCostEstimator("gemini-2.5-flash-lite", Usage{PromptTokens: 1000, CompletionTokens: 1000})
	assert.InDelta(t, 0.0001+0.0004, cost, 1e-9)
}

func TestDefaultCostEstimatorUnknownModelFallsBack(t *testing.T) {
	cost := defaultCostEstimator("some-future-model", Usage{PromptTokens: 1000, CompletionTokens: 0})
	assert.InDelta(t, fallbackPromptRate, cost, 1e-9)
}

func TestDefaultCostEstimatorZeroUsage(t *testing.T) {
	assert.Equal(t, 0.0, defaultCostEstimator("gemini-2.5-pro", Usage{}))
}
