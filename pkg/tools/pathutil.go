// Package tools implements the C1 tool contracts the pipeline offers the
// model during each stage: file access, shell, grep, web reconnaissance,
// and scraper execution.
package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolveWithinWorkDir joins path onto workDir (or treats it as already
// absolute) and rejects anything that escapes workDir, mirroring the
// teacher's path-traversal guard used for every file-backed tool.
func resolveWithinWorkDir(path, workDir string) (string, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(workDir, target)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("invalid work dir: %w", err)
	}

	if absTarget == absWorkDir {
		return absTarget, nil
	}
	if !strings.HasPrefix(absTarget, absWorkDir+string(filepath.Separator)) {
		return "", fmt.Errorf("access denied: path %q is outside the scraper directory", path)
	}
	return absTarget, nil
}
