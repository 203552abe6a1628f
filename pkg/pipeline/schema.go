package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/pipelineerr"
	"github.com/corvidlabs/noctua/pkg/prompts"
	"github.com/corvidlabs/noctua/pkg/state"
)

func (d *driver) runSchema(ctx context.Context) error {
	d.state.CurrentStage = state.StageSchema
	d.persist()
	d.emitter.StageStart(state.StageSchema)
	start := time.Now()

	schemaPath := filepath.Join(d.state.ScraperDir, "schema.ts")
	reconReportPath := filepath.Join(d.state.WorkDir, "recon-report.json")
	prompt := prompts.Schema(d.state, reconReportPath, schemaPath)

	cfg := llm.InvokeConfig{
		Model:           d.model,
		Tools:           d.toolSet.Code(),
		MaxTurns:        codeStageMaxTurns,
		BudgetUSD:       d.budgets.Schema,
		ReasoningEffort: llm.EffortLow,
		Guardrail:       d.guardrailFunc,
		ToolObserver:    d.toolObserver(state.StageSchema),
		CostEstimator:   d.costEstimator,
	}

	hint := "Write the schema file with the file_write tool to exactly this path: " + schemaPath
	_, err := d.runWithFilePresenceRetry(ctx, prompt, cfg, []string{schemaPath}, hint)
	if err != nil {
		d.failStage(state.StageSchema, err)
		return err
	}
	if missing := missingFiles([]string{schemaPath}); len(missing) > 0 {
		err := &pipelineerr.MissingArtifactError{Stage: "schema", Path: schemaPath}
		d.failStage(state.StageSchema, err)
		return err
	}

	d.state.SchemaPath = schemaPath
	d.persist()
	d.emitter.StageComplete(state.StageSchema, time.Since(start).Milliseconds(), "schema.ts written")
	return nil
}
