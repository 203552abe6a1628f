package tools

import "github.com/corvidlabs/noctua/pkg/llm"

// Set composes the named tools a pipeline stage is allowed to call,
// mirroring the teacher's tool registry: one function per stage group
// instead of one monolithic tool list (spec §6's "tool surface by role").
type Set struct {
	workDir   string
	guardrail GuardrailCheck
}

// NewSet builds a tool composer scoped to a single scraper working
// directory, with a guardrail check shared by every shell-backed tool.
func NewSet(workDir string, guardrail GuardrailCheck) *Set {
	return &Set{workDir: workDir, guardrail: guardrail}
}

// Reconnaissance returns the tool set for the RECON stage: web_probe,
// web_intercept_api, file_read.
func (s *Set) Reconnaissance() []llm.Tool {
	return []llm.Tool{
		NewWebProbeTool(),
		NewWebInterceptAPITool(),
		NewFileReadTool(s.workDir),
	}
}

// Code returns the tool set shared by SCHEMA, CODEGEN, and HARDEN: shell,
// file read/write/edit/glob, grep.
func (s *Set) Code() []llm.Tool {
	return []llm.Tool{
		NewShellTool(s.workDir, s.guardrail),
		NewFileReadTool(s.workDir),
		NewFileWriteTool(s.workDir),
		NewFileEditTool(s.workDir),
		NewFileGlobTool(s.workDir),
		NewGrepTool(s.workDir),
	}
}

// Test returns the tool set for the TEST stage: shell, file read,
// scraper_test, scraper_lint, file_glob.
func (s *Set) Test() []llm.Tool {
	return []llm.Tool{
		NewShellTool(s.workDir, s.guardrail),
		NewFileReadTool(s.workDir),
		NewScraperTestTool(s.workDir),
		NewScraperLintTool(s.workDir),
		NewFileGlobTool(s.workDir),
	}
}

// Repair returns the tool set for the REPAIR stage: shell, file
// read/write/edit, web_probe, file_glob.
func (s *Set) Repair() []llm.Tool {
	return []llm.Tool{
		NewShellTool(s.workDir, s.guardrail),
		NewFileReadTool(s.workDir),
		NewFileWriteTool(s.workDir),
		NewFileEditTool(s.workDir),
		NewWebProbeTool(),
		NewFileGlobTool(s.workDir),
	}
}
