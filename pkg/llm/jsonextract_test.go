package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripCodeFence(in))
	}
}

func TestFindJSONObject(t *testing.T) {
	text := `Sure, here's the result:\n{"a": "b}race", "n": 1}\nHope that helps.`
	start, end, ok := findJSONObject(text)
	require.True(t, ok)
	assert.Equal(t, `{"a": "b}race", "n": 1}`, text[start:end])
}

func TestFindJSONObjectNoObject(t *testing.T) {
	_, _, ok := findJSONObject("no object here")
	assert.False(t, ok)
}

func TestExtractStructuredOutputRecoversFromProse(t *testing.T) {
	raw, err := extractStructuredOutput("Here you go:\n```json\n{\"ok\":true}\n```\nThanks")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestExtractStructuredOutputFailsOnGarbage(t *testing.T) {
	_, err := extractStructuredOutput("not json at all, sorry")
	assert.Error(t, err)
}
