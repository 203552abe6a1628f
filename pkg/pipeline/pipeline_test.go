package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/noctua/pkg/events"
	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/state"
)

// scriptedClient replays one canned llm.Result per call, in order, so a
// test can drive the driver through an exact stage sequence without a real
// model or tool-execution loop.
type scriptedClient struct {
	steps []func(prompt string, cfg llm.InvokeConfig) (*llm.Result, error)
	i     int
}

func (c *scriptedClient) ModelName() string { return "scripted-model" }

func (c *scriptedClient) Invoke(_ context.Context, prompt string, cfg llm.InvokeConfig) (*llm.Result, error) {
	if c.i >= len(c.steps) {
		return nil, assertionError("no scripted step left for call")
	}
	step := c.steps[c.i]
	c.i++
	return step(prompt, cfg)
}

type assertionError string

func (e assertionError) Error() string { return string(e) }

const validReconJSON = `{
  "url": "https://example.com/products",
  "siteName": "Example Store",
  "siteType": "static_html",
  "pages": [
    {
      "url": "https://example.com/products",
      "purpose": "listing",
      "formFields": [],
      "dataElements": [".product-card"],
      "pagination": {"type": "next_link", "nextLinkSelector": ".next", "urlParamName": ""}
    }
  ],
  "apiEndpoints": [],
  "antiBot": {"captcha": false, "cloudflare": false, "rateLimit": false, "requiresAuth": false},
  "suggestedStrategy": "listing",
  "sampleDataJson": "[]"
}`

func testReportJSONFixture(success bool, recordCount int) string {
	successStr := "false"
	if success {
		successStr = "true"
	}
	return `{
  "success": ` + successStr + `,
  "exitCode": 0,
  "timedOut": false,
  "recordCount": ` + strconv.Itoa(recordCount) + `,
  "durationMs": 500,
  "schemaErrors": [],
  "sampleRecordsJson": "[]",
  "fieldCoverage": {},
  "stdout": "ok",
  "stderr": ""
}`
}

func exploreStep() func(string, llm.InvokeConfig) (*llm.Result, error) {
	return func(_ string, _ llm.InvokeConfig) (*llm.Result, error) {
		return &llm.Result{
			Output:       "Explored https://example.com/products. It is a static HTML listing of product cards with a next-link pager.",
			NumTurns:     3,
			FinishReason: llm.FinishStop,
		}, nil
	}
}

func synthesizeStep() func(string, llm.InvokeConfig) (*llm.Result, error) {
	return func(_ string, _ llm.InvokeConfig) (*llm.Result, error) {
		return &llm.Result{FinalOutputRaw: []byte(validReconJSON), FinishReason: llm.FinishStop}, nil
	}
}

func fileWritingStep(paths ...string) func(string, llm.InvokeConfig) (*llm.Result, error) {
	return func(_ string, _ llm.InvokeConfig) (*llm.Result, error) {
		for _, p := range paths {
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(p, []byte("// generated by test fixture\n"), 0o644); err != nil {
				return nil, err
			}
		}
		return &llm.Result{Output: "done", FinishReason: llm.FinishStop}, nil
	}
}

func testResultStep(success bool, recordCount int) func(string, llm.InvokeConfig) (*llm.Result, error) {
	return func(_ string, _ llm.InvokeConfig) (*llm.Result, error) {
		return &llm.Result{FinalOutputRaw: []byte(testReportJSONFixture(success, recordCount)), FinishReason: llm.FinishStop}, nil
	}
}

func noopStep() func(string, llm.InvokeConfig) (*llm.Result, error) {
	return func(_ string, _ llm.InvokeConfig) (*llm.Result, error) {
		return &llm.Result{Output: "ok", FinishReason: llm.FinishStop}, nil
	}
}

func pathsFor(baseDir, targetURL, intent string, maxRepair int) (scraperDir string) {
	probe := state.New(baseDir, targetURL, intent, maxRepair)
	return probe.ScraperDir
}

func TestRunSuccessEmitsFullStageSequence(t *testing.T) {
	baseDir := t.TempDir()
	targetURL := "https://example.com/products"
	intent := "scrape product prices"
	scraperDir := pathsFor(baseDir, targetURL, intent, 3)

	client := &scriptedClient{steps: []func(string, llm.InvokeConfig) (*llm.Result, error){
		exploreStep(),
		synthesizeStep(),
		fileWritingStep(filepath.Join(scraperDir, "schema.ts")),
		fileWritingStep(filepath.Join(scraperDir, "scraper.ts"), filepath.Join(scraperDir, "index.ts")),
		testResultStep(true, 7),
		noopStep(), // harden
	}}

	var captured []events.Event
	opts := Options{
		BaseDir:           baseDir,
		Client:            client,
		Model:             "scripted-model",
		MaxRepairAttempts: 3,
		Observer:          func(e events.Event) { captured = append(captured, e) },
	}

	st, err := Run(context.Background(), targetURL, intent, opts)
	require.NoError(t, err)
	require.Equal(t, state.StageDone, st.CurrentStage)
	assert.Empty(t, st.Error)

	_, statErr := os.Stat(filepath.Join(scraperDir, "index.ts"))
	assert.NoError(t, statErr, "scraperDir/index.ts must exist on success")

	var kinds []events.Kind
	for _, e := range captured {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, events.KindPipelineComplete)
	assert.NotContains(t, kinds, events.KindPipelineFailed)
	assert.Equal(t, events.KindPipelineComplete, kinds[len(kinds)-1])

	var startedStages []events.Stage
	for _, e := range captured {
		if e.Kind == events.KindStageStart {
			startedStages = append(startedStages, e.Stage)
		}
	}
	assert.Equal(t, []events.Stage{state.StageRecon, state.StageSchema, state.StageCodegen, state.StageTest, state.StageHarden}, startedStages)

	startCount, completeOrErrorCount := 0, 0
	for _, e := range captured {
		switch e.Kind {
		case events.KindStageStart:
			startCount++
		case events.KindStageComplete, events.KindStageError:
			completeOrErrorCount++
		}
	}
	assert.Equal(t, startCount, completeOrErrorCount)

	var pipelineCompleteCount int
	var recordCount int
	for _, e := range captured {
		if e.Kind == events.KindPipelineComplete {
			pipelineCompleteCount++
			recordCount = e.RecordCount
		}
	}
	assert.Equal(t, 1, pipelineCompleteCount)
	assert.Equal(t, 7, recordCount)

	diskState, ok, err := state.LoadState(st.WorkDir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.CurrentStage, diskState.CurrentStage)
}

func TestRunRepairExhaustionFailsAtRepairStage(t *testing.T) {
	baseDir := t.TempDir()
	targetURL := "https://example.com/products"
	intent := "scrape product prices, repair exhaustion case"
	scraperDir := pathsFor(baseDir, targetURL, intent, 2)

	client := &scriptedClient{steps: []func(string, llm.InvokeConfig) (*llm.Result, error){
		exploreStep(),
		synthesizeStep(),
		fileWritingStep(filepath.Join(scraperDir, "schema.ts")),
		fileWritingStep(filepath.Join(scraperDir, "scraper.ts"), filepath.Join(scraperDir, "index.ts")),
		testResultStep(false, 0), // test 1: fail
		noopStep(),                // repair 1
		testResultStep(false, 0), // test 2: fail
		noopStep(),                // repair 2
		testResultStep(false, 0), // test 3: fail -> repairAttempts (2) >= maxRepairAttempts (2)
	}}

	var captured []events.Event
	opts := Options{
		BaseDir:           baseDir,
		Client:            client,
		Model:             "scripted-model",
		MaxRepairAttempts: 2,
		Observer:          func(e events.Event) { captured = append(captured, e) },
	}

	st, err := Run(context.Background(), targetURL, intent, opts)
	require.NoError(t, err)
	assert.Equal(t, state.StageFailed, st.CurrentStage)
	assert.NotEmpty(t, st.Error)
	assert.Equal(t, 2, st.RepairAttempts)
	assert.LessOrEqual(t, st.RepairAttempts, st.MaxRepairAttempts)

	var testResultCount, repairAttemptCount, pipelineFailedCount int
	var failedStage events.Stage
	for _, e := range captured {
		switch e.Kind {
		case events.KindTestResult:
			testResultCount++
		case events.KindRepairAttempt:
			repairAttemptCount++
		case events.KindPipelineFailed:
			pipelineFailedCount++
			failedStage = e.Stage
		}
	}
	assert.Equal(t, 3, testResultCount)
	assert.Equal(t, 2, repairAttemptCount)
	assert.Equal(t, 1, pipelineFailedCount)
	assert.Equal(t, state.StageRepair, failedStage)

	// Every stage_start must be paired with exactly one stage_complete or
	// stage_error for that same stage occurrence — the exhaustion branch
	// fails the pipeline without a repair stage having been (re-)started,
	// so it must not emit an orphan stage_error{repair}.
	startCount, completeOrErrorCount := 0, 0
	for _, e := range captured {
		switch e.Kind {
		case events.KindStageStart:
			startCount++
		case events.KindStageComplete, events.KindStageError:
			completeOrErrorCount++
		}
	}
	assert.Equal(t, startCount, completeOrErrorCount)
}

// The boundary behavior "transient failure on attempts 1/2, success on
// attempt 3" is exercised at the retry-policy level in
// pkg/retry.TestDoRetriesTransientThenSucceeds, where delays can be
// milliseconds; Explore's real backoff bases (30s/60s) make that scenario
// impractical to re-drive end-to-end here.
