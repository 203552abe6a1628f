package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScraperTestToolSuccess(t *testing.T) {
	dir := t.TempDir()
	tool := NewScraperTestTool(dir)
	out, err := tool.Execute(context.Background(), argsJSON(t, map[string]string{"command": "echo '{\"records\":[]}'"}))
	require.NoError(t, err)

	var result ExecResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestScraperTestToolNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	tool := NewScraperTestTool(dir)
	out, err := tool.Execute(context.Background(), argsJSON(t, map[string]string{"command": "exit 3"}))
	require.NoError(t, err)

	var result ExecResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3, result.ExitCode)
}

func TestScraperTestToolTimeoutReportsExitCode124(t *testing.T) {
	dir := t.TempDir()
	tool := NewScraperTestTool(dir)
	out, err := tool.Execute(context.Background(), argsJSON(t, map[string]interface{}{"command": "sleep 5", "timeout_seconds": 1}))
	require.NoError(t, err)

	var result ExecResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.TimedOut)
	assert.Equal(t, 124, result.ExitCode)
}

func TestScraperLintToolReportsFailures(t *testing.T) {
	dir := t.TempDir()
	tool := NewScraperLintTool(dir)
	out, err := tool.Execute(context.Background(), argsJSON(t, map[string]string{"command": "echo 'type error' 1>&2; exit 1"}))
	require.NoError(t, err)

	var result ExecResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "type error")
}
