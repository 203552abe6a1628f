package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	grepMaxMatchesPerFile = 5
	grepMaxTotalMatches   = 100
	grepMaxLineLen        = 200
)

// GrepTool searches file contents under the working directory for a regex
// pattern, optionally restricted to a file glob.
type GrepTool struct {
	workDir string
}

func NewGrepTool(workDir string) *GrepTool { return &GrepTool{workDir: workDir} }

func (t *GrepTool) Name() string { return "grep" }

func (t *GrepTool) Description() string {
	return "Search file contents under the scraper directory for a regex pattern. Returns matching file:line: text entries."
}

func (t *GrepTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern":      map[string]interface{}{"type": "string"},
			"file_pattern": map[string]interface{}{"type": "string", "description": "glob filter, e.g. *.ts"},
		},
		"required": []interface{}{"pattern"},
	}
}

func (t *GrepTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		Pattern     string `json:"pattern"`
		FilePattern string `json:"file_pattern"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(params.Pattern))
	}

	var results []string
	total := 0
	err = filepath.Walk(t.workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if total >= grepMaxTotalMatches {
			return filepath.SkipAll
		}
		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if params.FilePattern != "" {
			matched, _ := filepath.Match(params.FilePattern, info.Name())
			if !matched {
				return nil
			}
		}
		if info.Size() > 1<<20 {
			return nil
		}

		rel, _ := filepath.Rel(t.workDir, path)
		fileMatches := grepFile(path, rel, re)
		for _, m := range fileMatches {
			results = append(results, m)
			total++
			if total >= grepMaxTotalMatches {
				results = append(results, fmt.Sprintf("... (stopped at %d matches)", grepMaxTotalMatches))
				break
			}
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return "", err
	}
	if len(results) == 0 {
		return "no matches found", nil
	}
	return strings.Join(results, "\n"), nil
}

func grepFile(path, rel string, re *regexp.Regexp) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var matches []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if len(matches) >= grepMaxMatchesPerFile {
			break
		}
		line := scanner.Text()
		if re.MatchString(line) {
			if len(line) > grepMaxLineLen {
				line = line[:grepMaxLineLen] + "..."
			}
			matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, lineNum, line))
		}
	}
	return matches
}
