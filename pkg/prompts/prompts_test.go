package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvidlabs/noctua/pkg/state"
)

func testState() *state.PipelineState {
	return &state.PipelineState{
		TargetURL:         "https://example.com/products",
		UserIntent:        "scrape product prices",
		WorkDir:           "/tmp/noctua/.noctua/pipelines/scrape-product-prices",
		ScraperDir:        "/tmp/noctua/.noctua/pipelines/scrape-product-prices/scraper",
		MaxRepairAttempts: 3,
	}
}

func TestExploreIsPureAndDeterministic(t *testing.T) {
	s := testState()
	first := Explore(s)
	second := Explore(s)
	assert.Equal(t, first, second)
	assert.Contains(t, first, s.TargetURL)
	assert.Contains(t, first, s.UserIntent)
}

func TestSynthesizeEmbedsFindingsVerbatim(t *testing.T) {
	s := testState()
	out := Synthesize(s, "found a product listing with 40 cards per page")
	assert.Contains(t, out, "found a product listing with 40 cards per page")
	assert.Contains(t, out, s.TargetURL)
}

func TestSchemaReferencesBothPaths(t *testing.T) {
	out := Schema(testState(), "/work/recon/report.json", "/work/scraper/schema.ts")
	assert.Contains(t, out, "/work/recon/report.json")
	assert.Contains(t, out, "/work/scraper/schema.ts")
}

func TestCodegenUsesDeterministicScaffoldImport(t *testing.T) {
	s := testState()
	out := Codegen(s, "site is static HTML with a product listing", "/work/scraper/schema.ts")
	assert.Contains(t, out, "../scaffold")
	assert.Contains(t, out, "site is static HTML with a product listing")
}

func TestTestPromptNamesTheRunCommand(t *testing.T) {
	out := Test(testState())
	assert.Contains(t, out, "npx tsx index.ts --limit 5")
}

func TestRepairIncludesHistoryAndDiagnosis(t *testing.T) {
	s := testState()
	s.RepairAttempts = 1
	s.TestResults = []state.TestReport{
		{Success: false, RecordCount: 0, SchemaErrors: nil, Stderr: "TypeError: cannot read property 'price'"},
	}
	diag := Diagnose(s)
	out := Repair(s, diag)
	assert.Contains(t, out, "attempt 1 of 3")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "TypeError")
	assert.Contains(t, out, string(diag.Category))
}

func TestRepairIncludesKnownEntryPointsWhenAvailable(t *testing.T) {
	s := testState()
	s.TestResults = []state.TestReport{{Success: false}}
	s.ReconReport = &state.ReconReport{
		Pages: []state.Page{{URL: "https://example.com/search", Purpose: state.PageSearch}},
	}
	out := Repair(s, Diagnose(s))
	assert.Contains(t, out, "https://example.com/search")
}

func TestHardenListsHardeningFeatures(t *testing.T) {
	out := Harden(testState())
	assert.Contains(t, out, "Retries with backoff")
	assert.Contains(t, out, "Rate limiting")
}

func TestRelativeScaffoldImport(t *testing.T) {
	cases := []struct {
		name       string
		scraperDir string
		root       string
		want       string
	}{
		{"one level down", "/work/scraper", "/work", "../scaffold"},
		{"three levels down", "/work/pipelines/p1/scraper", "/work", "../../../scaffold"},
		{"same dir", "/work", "/work", "./scaffold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeScaffoldImport(tc.scraperDir, tc.root))
		})
	}
}

func TestDiagnoseClassifiesFailureModes(t *testing.T) {
	cases := []struct {
		name   string
		report state.TestReport
		want   DiagnosisCategory
	}{
		{
			"selector timeout",
			state.TestReport{SchemaErrors: []state.SchemaError{{Message: "Timeout 15000ms exceeded waiting for selector '.row'"}}},
			DiagnosisSelector,
		},
		{
			"missing module",
			state.TestReport{SchemaErrors: []state.SchemaError{{Message: "Cannot find module './scraper.js'"}}},
			DiagnosisModule,
		},
		{
			"navigation failure",
			state.TestReport{Stderr: "net::ERR_NAME_NOT_RESOLVED at https://example.com"},
			DiagnosisNavigation,
		},
		{
			"execution timeout with no message",
			state.TestReport{TimedOut: true},
			DiagnosisSelector,
		},
		{
			"zero records, no specific message",
			state.TestReport{ExitCode: 0, RecordCount: 0},
			DiagnosisGeneral,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testState()
			s.TestResults = []state.TestReport{tc.report}
			assert.Equal(t, tc.want, Diagnose(s).Category)
		})
	}
}

func TestDiagnoseWithNoHistoryIsGeneral(t *testing.T) {
	assert.Equal(t, DiagnosisGeneral, Diagnose(testState()).Category)
}
