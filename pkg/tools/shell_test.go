package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunsCommand(t *testing.T) {
	dir := t.TempDir()
	s := NewShellTool(dir, nil)
	out, err := s.Execute(context.Background(), argsJSON(t, map[string]string{"command": "echo hello"}))
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestShellBlockedByGuardrail(t *testing.T) {
	dir := t.TempDir()
	guardrail := func(toolName, argsJSON, workDir string) (bool, string) {
		return true, "blocked command pattern matched"
	}
	s := NewShellTool(dir, guardrail)
	_, err := s.Execute(context.Background(), argsJSON(t, map[string]string{"command": "rm -rf /"}))
	assert.Error(t, err)
}

func TestShellTimesOut(t *testing.T) {
	dir := t.TempDir()
	s := NewShellTool(dir, nil)
	out, err := s.Execute(context.Background(), argsJSON(t, map[string]interface{}{"command": "sleep 5", "timeout_seconds": 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	_ = out
}
