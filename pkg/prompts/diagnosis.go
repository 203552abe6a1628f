package prompts

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/noctua/pkg/state"
)

// DiagnosisCategory classifies the primary failure of the last TestReport
// into one of the four buckets the repair prompt steers on: module,
// navigation, selector/timeout, or general.
type DiagnosisCategory string

const (
	DiagnosisModule    DiagnosisCategory = "module_error"
	DiagnosisNavigation DiagnosisCategory = "navigation_error"
	DiagnosisSelector  DiagnosisCategory = "selector_error"
	DiagnosisGeneral   DiagnosisCategory = "general_error"
)

// Diagnosis is the classified verdict on the most recent TestReport, handed
// to Repair so it can open with the likely failure class rather than dump
// raw logs and hope.
type Diagnosis struct {
	Category DiagnosisCategory
	Message  string
}

// Diagnose classifies the primary failure of the most recent test result.
// It scans stderr and every schema-error message together for module,
// selector/timeout and navigation markers, then falls back to the timeout
// flag, the record count, and the number of schema errors.
func Diagnose(s *state.PipelineState) Diagnosis {
	r := s.LastTestReport()
	if r == nil {
		return Diagnosis{Category: DiagnosisGeneral, Message: "No prior test run to diagnose."}
	}

	text := r.Stderr
	for _, se := range r.SchemaErrors {
		text += " " + se.Message
	}
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "cannot find module") || strings.Contains(lower, "module not found") || strings.Contains(lower, "err_module_not_found"):
		return Diagnosis{
			Category: DiagnosisModule,
			Message:  "A required module failed to resolve — check the import paths written during CODEGEN, especially the relative scaffold import.",
		}
	case strings.Contains(lower, "selector") && (strings.Contains(lower, "timeout") || r.TimedOut):
		return Diagnosis{
			Category: DiagnosisSelector,
			Message:  "A selector never matched within the page's load time — the target markup likely differs from what reconnaissance observed, or the page needs more time/a different wait condition.",
		}
	case r.TimedOut:
		return Diagnosis{
			Category: DiagnosisSelector,
			Message:  "The scraper run hit the execution timeout — treat this as a selector/wait-condition problem unless stderr says otherwise.",
		}
	case strings.Contains(lower, "net::err") || strings.Contains(lower, "enotfound") || strings.Contains(lower, "econnrefused") || strings.Contains(lower, "navigation"):
		return Diagnosis{
			Category: DiagnosisNavigation,
			Message:  "Navigation to the target page failed — the URL, redirect chain, or network reachability is likely wrong.",
		}
	case r.RecordCount == 0:
		return Diagnosis{
			Category: DiagnosisGeneral,
			Message:  "The scraper ran to completion but returned zero records — the selectors likely don't match the live page, or pagination/navigation never reaches data.",
		}
	case len(r.SchemaErrors) > 0:
		return Diagnosis{
			Category: DiagnosisGeneral,
			Message:  fmt.Sprintf("The scraper returned %d record(s) but %d failed schema validation: %s", r.RecordCount, len(r.SchemaErrors), summarizeSchemaErrors(r.SchemaErrors)),
		}
	default:
		return Diagnosis{Category: DiagnosisGeneral, Message: "Test report did not mark success but matched no specific failure pattern; inspect stdout/stderr below."}
	}
}

func summarizeSchemaErrors(errs []state.SchemaError) string {
	paths := make([]string, 0, len(errs))
	seen := map[string]bool{}
	for _, e := range errs {
		if !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	return strings.Join(paths, ", ")
}
