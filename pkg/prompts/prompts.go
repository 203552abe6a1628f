// Package prompts builds the per-stage prompt text the pipeline hands to
// the LLM invocation primitive (C6). Every builder is a pure function of
// PipelineState (plus any stage-local inputs) — no I/O, no side effects.
package prompts

import (
	"fmt"
	"strings"

	"github.com/corvidlabs/noctua/pkg/state"
)

// Explore frames the reconnaissance task for RECON's Phase A: free-form
// tool-driven exploration of the target site.
func Explore(s *state.PipelineState) string {
	var b strings.Builder
	b.WriteString("# SITE RECONNAISSANCE\n\n")
	fmt.Fprintf(&b, "Target URL: %s\n", s.TargetURL)
	fmt.Fprintf(&b, "User intent: %s\n\n", s.UserIntent)
	b.WriteString("Explore the site using the tools available to you. Work through these steps:\n\n")
	b.WriteString("1. Probe the target URL and note its structure (title, headings, repeated card/list elements).\n")
	b.WriteString("2. Find the page(s) that actually hold the data the user wants — a search form, a listing, or a detail page.\n")
	b.WriteString("3. Map any search/filter form fields: names, types, and whether they're required.\n")
	b.WriteString("4. Intercept any JSON/XHR API endpoints that back the page's data — prefer an API source over HTML parsing when one exists.\n")
	b.WriteString("5. Check for anti-bot defenses: CAPTCHA, Cloudflare challenge pages, rate limiting, or an auth wall.\n")
	b.WriteString("6. Extract a few sample records in whatever shape the data naturally takes.\n\n")
	b.WriteString("When you're done, write a detailed summary of everything you found: site structure, data location, ")
	b.WriteString("form fields, pagination, API endpoints, anti-bot signals, and sample data. This summary is the only ")
	b.WriteString("record of your exploration — be thorough.\n")
	return b.String()
}

// Synthesize asks the model to turn Explore's findings into a structured
// ReconReport, with no further tool access.
func Synthesize(s *state.PipelineState, findings string) string {
	var b strings.Builder
	b.WriteString("# SYNTHESIZE RECONNAISSANCE REPORT\n\n")
	fmt.Fprintf(&b, "Target URL: %s\n", s.TargetURL)
	fmt.Fprintf(&b, "User intent: %s\n\n", s.UserIntent)
	b.WriteString("Below are the findings from exploring this site. Turn them into a single JSON object matching the ")
	b.WriteString("required report schema exactly — every field must be present, using empty strings/arrays/false for ")
	b.WriteString("anything not observed rather than omitting the field.\n\n")
	b.WriteString("## Findings\n\n")
	b.WriteString(findings)
	b.WriteString("\n\nRespond with ONLY the JSON object, no prose and no code fence.\n")
	return b.String()
}

// Schema asks the model to write the record validation schema file.
func Schema(s *state.PipelineState, reconReportPath, schemaOutputPath string) string {
	var b strings.Builder
	b.WriteString("# WRITE RECORD SCHEMA\n\n")
	fmt.Fprintf(&b, "Read the reconnaissance report at %s.\n", reconReportPath)
	fmt.Fprintf(&b, "Write a validation schema for one scraped record to %s.\n\n", schemaOutputPath)
	b.WriteString("Use the shape implied by the report's sample data and page structure. Fields the report marks as ")
	b.WriteString("sometimes-absent should be nullable rather than optional, e.g.:\n\n")
	b.WriteString("```ts\n")
	b.WriteString("import { z } from \"zod\";\n\n")
	b.WriteString("export const recordSchema = z.object({\n")
	b.WriteString("  title: z.string(),\n")
	b.WriteString("  price: z.number().nullable(),\n")
	b.WriteString("  url: z.string().url(),\n")
	b.WriteString("});\n\n")
	b.WriteString("export type Record = z.infer<typeof recordSchema>;\n")
	b.WriteString("```\n")
	return b.String()
}

// Codegen asks the model to write the scraper implementation and its CLI
// entrypoint, anchored by two worked examples and a deterministic relative
// import path back to the project's scaffold.
func Codegen(s *state.PipelineState, reconSummary, schemaPath string) string {
	scaffoldImport := RelativeScaffoldImport(s.ScraperDir, s.WorkDir)

	var b strings.Builder
	b.WriteString("# GENERATE SCRAPER\n\n")
	fmt.Fprintf(&b, "Target URL: %s\n", s.TargetURL)
	fmt.Fprintf(&b, "User intent: %s\n\n", s.UserIntent)
	b.WriteString("## Reconnaissance summary\n\n")
	b.WriteString(reconSummary)
	fmt.Fprintf(&b, "\n\nSchema file: %s\n\n", schemaPath)
	fmt.Fprintf(&b, "Import the shared scraper scaffold from %q.\n\n", scaffoldImport)
	b.WriteString("Write exactly two files:\n\n")
	b.WriteString("- `scraper.ts` — the scraping logic: fetch/parse, apply the schema, return validated records.\n")
	b.WriteString("- `index.ts` — a CLI entrypoint accepting `--limit <n>` that runs the scraper and prints JSON records to stdout.\n\n")
	b.WriteString("## Worked example — scraper.ts shape\n\n")
	b.WriteString("```ts\n")
	fmt.Fprintf(&b, "import { scaffold } from %q;\n", scaffoldImport)
	b.WriteString("import { recordSchema, type Record } from \"./schema\";\n\n")
	b.WriteString("export async function scrape(limit: number): Promise<Record[]> {\n")
	b.WriteString("  const page = await scaffold.fetchPage(targetUrl);\n")
	b.WriteString("  const rows = scaffold.parseRows(page, \".product-card\");\n")
	b.WriteString("  return rows.slice(0, limit).map((row) => recordSchema.parse(scaffold.extract(row)));\n")
	b.WriteString("}\n")
	b.WriteString("```\n\n")
	b.WriteString("## Worked example — index.ts shape\n\n")
	b.WriteString("```ts\n")
	b.WriteString("import { scrape } from \"./scraper\";\n\n")
	b.WriteString("const limitArg = process.argv.indexOf(\"--limit\");\n")
	b.WriteString("const limit = limitArg >= 0 ? Number(process.argv[limitArg + 1]) : 20;\n\n")
	b.WriteString("scrape(limit).then((records) => console.log(JSON.stringify({ records })));\n")
	b.WriteString("```\n")
	return b.String()
}

// Test emits the exact command to run the scraper and the TestReport
// schema the model must produce from its output.
func Test(s *state.PipelineState) string {
	var b strings.Builder
	b.WriteString("# TEST SCRAPER\n\n")
	b.WriteString("Run the scraper with:\n\n")
	b.WriteString("```\nnpx tsx index.ts --limit 5\n```\n\n")
	b.WriteString("using the scraper_test tool. Then validate the output:\n\n")
	b.WriteString("1. The process must exit 0 and must not time out.\n")
	b.WriteString("2. stdout must contain a JSON object with a `records` array.\n")
	b.WriteString("3. Each record must satisfy the schema written in `schema.ts`.\n")
	b.WriteString("4. Compute field coverage: for each schema field, the percentage (an integer from 0 to 100) of returned records where it's non-null.\n\n")
	b.WriteString("Report the outcome as a single JSON object matching the required TestReport schema exactly — every ")
	b.WriteString("field must be present (use 0/false/empty-array/empty-string for anything not applicable).\n")
	return b.String()
}

// Repair summarizes the test history and a classified diagnosis, then asks
// the model to fix the scraper.
func Repair(s *state.PipelineState, diagnosis Diagnosis) string {
	var b strings.Builder
	b.WriteString("# REPAIR SCRAPER\n\n")
	fmt.Fprintf(&b, "Repair attempt %d of %d.\n\n", s.RepairAttempts, s.MaxRepairAttempts)

	b.WriteString("## Test history\n\n")
	for i, r := range s.TestResults {
		status := "FAIL"
		if r.Success {
			status = "PASS"
		}
		fmt.Fprintf(&b, "%d. %s — %d records, %d error(s)\n", i+1, status, r.RecordCount, len(r.SchemaErrors))
		for _, se := range r.SchemaErrors {
			fmt.Fprintf(&b, "   - %s: %s\n", se.Path, se.Message)
		}
		if r.Stderr != "" {
			fmt.Fprintf(&b, "   stderr: %s\n", truncate(r.Stderr, 500))
		}
	}

	b.WriteString("\n## Diagnosis\n\n")
	fmt.Fprintf(&b, "Category: %s\n", diagnosis.Category)
	fmt.Fprintf(&b, "%s\n\n", diagnosis.Message)

	if s.ReconReport != nil {
		if urls := s.ReconReport.SearchOrListingURLs(); len(urls) > 0 {
			b.WriteString("Known search/listing entry points, in case navigation is the problem:\n")
			for _, u := range urls {
				fmt.Fprintf(&b, "- %s\n", u)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("Make targeted edits to fix the failure, then stop — the TEST stage will re-run afterward.\n")
	return b.String()
}

// Harden enumerates the production-hardening features to add once the
// scraper passes its first test run.
func Harden(s *state.PipelineState) string {
	var b strings.Builder
	b.WriteString("# HARDEN SCRAPER\n\n")
	b.WriteString("The scraper passes its test run. Make targeted edits to add:\n\n")
	b.WriteString("1. Retries with backoff around network requests.\n")
	b.WriteString("2. Rate limiting between page/record fetches.\n")
	b.WriteString("3. Per-record error handling — one bad record must not abort the whole run.\n")
	b.WriteString("4. Progress logging (records processed so far, current page).\n")
	b.WriteString("5. CLI argument validation for `--limit` (reject non-positive values with a clear error).\n\n")
	b.WriteString("Do not change the record schema or the CLI's output shape.\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RelativeScaffoldImport computes the relative import path from scraperDir
// back to the project root's shared scaffold module, by counting directory
// levels between the two (spec §4.5's "computes the relative scaffold path
// deterministically").
func RelativeScaffoldImport(scraperDir, projectRoot string) string {
	depth := directoryDepthBelow(scraperDir, projectRoot)
	if depth <= 0 {
		return "./scaffold"
	}
	segments := make([]string, depth)
	for i := range segments {
		segments[i] = ".."
	}
	return strings.Join(segments, "/") + "/scaffold"
}

func directoryDepthBelow(dir, root string) int {
	dir = strings.TrimRight(dir, "/")
	root = strings.TrimRight(root, "/")
	if !strings.HasPrefix(dir, root) {
		return 1
	}
	rel := strings.TrimPrefix(dir, root)
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return 0
	}
	return len(strings.Split(rel, "/"))
}
