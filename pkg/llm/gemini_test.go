package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestThinkingBudgetFor(t *testing.T) {
	cases := []struct {
		effort ReasoningEffort
		want   int32
		ok     bool
	}{
		{EffortLow, 512, true},
		{EffortMedium, 2048, true},
		{EffortHigh, 8192, true},
		{ReasoningEffort(""), 0, false},
	}
	for _, c := range cases {
		got, ok := thinkingBudgetFor(c.effort)
		assert.Equal(t, c.ok, ok)
		if ok {
			assert.Equal(t, c.want, got)
		}
	}
}

func TestJSONSchemaToGenaiObject(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string"},
			"age":  map[string]interface{}{"type": "integer"},
		},
		"required": []interface{}{"name"},
	}
	out := jsonSchemaToGenai(schema)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, genai.TypeString, out.Properties["name"].Type)
	assert.Equal(t, genai.TypeInteger, out.Properties["age"].Type)
	assert.Equal(t, []string{"name"}, out.Required)
}

func TestJSONSchemaToGenaiArray(t *testing.T) {
	schema := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}
	out := jsonSchemaToGenai(schema)
	assert.Equal(t, genai.TypeArray, out.Type)
	assert.Equal(t, genai.TypeString, out.Items.Type)
}

func TestSummarizeCalls(t *testing.T) {
	assert.Equal(t, "called web_probe", summarizeCalls([]functionCall{{Name: "web_probe"}}))
	assert.Contains(t, summarizeCalls([]functionCall{{Name: "a"}, {Name: "b"}}), "called 2 tools")
}
