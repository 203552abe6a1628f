package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileReadTool reads a file inside the scraper's working directory.
type FileReadTool struct {
	workDir string
}

func NewFileReadTool(workDir string) *FileReadTool { return &FileReadTool{workDir: workDir} }

func (t *FileReadTool) Name() string { return "file_read" }

func (t *FileReadTool) Description() string {
	return "Read a file inside the scraper working directory and return its contents."
}

func (t *FileReadTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{"type": "string", "description": "path relative to the scraper directory"},
		},
		"required": []interface{}{"path"},
	}
}

func (t *FileReadTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	fullPath, err := resolveWithinWorkDir(params.Path, t.workDir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", params.Path)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// FileWriteTool writes (creating or overwriting) a file inside the
// scraper's working directory, creating parent directories as needed.
type FileWriteTool struct {
	workDir string
}

func NewFileWriteTool(workDir string) *FileWriteTool { return &FileWriteTool{workDir: workDir} }

func (t *FileWriteTool) Name() string { return "file_write" }

func (t *FileWriteTool) Description() string {
	return "Write content to a file inside the scraper working directory, creating parent directories as needed."
}

func (t *FileWriteTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":    map[string]interface{}{"type": "string"},
			"content": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"path", "content"},
	}
}

func (t *FileWriteTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	fullPath, err := resolveWithinWorkDir(params.Path, t.workDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(params.Content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(params.Content), params.Path), nil
}

// FileEditTool performs an exact string replacement within a file,
// refusing to act when the match is absent, or when it is ambiguous and
// replace_all is not set (so the model can't silently touch the wrong
// occurrence). With replace_all set, every occurrence is replaced.
type FileEditTool struct {
	workDir string
}

func NewFileEditTool(workDir string) *FileEditTool { return &FileEditTool{workDir: workDir} }

func (t *FileEditTool) Name() string { return "file_edit" }

func (t *FileEditTool) Description() string {
	return "Replace an exact, unique substring in a file. Fails if old_string is missing or appears more than once, unless replace_all is set."
}

func (t *FileEditTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":        map[string]interface{}{"type": "string"},
			"old_string":  map[string]interface{}{"type": "string"},
			"new_string":  map[string]interface{}{"type": "string"},
			"replace_all": map[string]interface{}{"type": "boolean"},
		},
		"required": []interface{}{"path", "old_string", "new_string"},
	}
}

func (t *FileEditTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		Path       string `json:"path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	fullPath, err := resolveWithinWorkDir(params.Path, t.workDir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	content := string(data)

	count := strings.Count(content, params.OldString)
	if count == 0 {
		return "", fmt.Errorf("old_string not found in %s", params.Path)
	}
	if count > 1 && !params.ReplaceAll {
		return "", fmt.Errorf("old_string is not unique in %s (%d occurrences); pass replace_all or widen the match", params.Path, count)
	}

	n := 1
	if params.ReplaceAll {
		n = -1
	}
	updated := strings.Replace(content, params.OldString, params.NewString, n)
	if err := os.WriteFile(fullPath, []byte(updated), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("replaced %d occurrence(s) in %s", count, params.Path), nil
}

// FileGlobTool lists files under the working directory matching a
// doublestar pattern (e.g. "**/*.ts").
type FileGlobTool struct {
	workDir string
}

func NewFileGlobTool(workDir string) *FileGlobTool { return &FileGlobTool{workDir: workDir} }

func (t *FileGlobTool) Name() string { return "file_glob" }

func (t *FileGlobTool) Description() string {
	return "List files under the scraper directory matching a glob pattern, e.g. \"**/*.ts\"."
}

func (t *FileGlobTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"pattern"},
	}
}

func (t *FileGlobTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	fsys := os.DirFS(t.workDir)
	matches, err := doublestar.Glob(fsys, params.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return "no files matched", nil
	}
	out, err := json.Marshal(matches)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
