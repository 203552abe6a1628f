package pipeline

import (
	"context"
	"time"

	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/prompts"
	"github.com/corvidlabs/noctua/pkg/state"
)

func (d *driver) runHarden(ctx context.Context) error {
	d.state.CurrentStage = state.StageHarden
	d.persist()
	d.emitter.StageStart(state.StageHarden)
	start := time.Now()

	prompt := prompts.Harden(d.state)
	cfg := llm.InvokeConfig{
		Model:           d.model,
		Tools:           d.toolSet.Code(),
		MaxTurns:        codeStageMaxTurns,
		BudgetUSD:       d.budgets.Harden,
		ReasoningEffort: llm.EffortMedium,
		Guardrail:       d.guardrailFunc,
		ToolObserver:    d.toolObserver(state.StageHarden),
		CostEstimator:   d.costEstimator,
	}

	if _, err := d.client.Invoke(ctx, prompt, cfg); err != nil {
		d.failStage(state.StageHarden, err)
		return err
	}

	d.state.MarkDone()
	d.persist()
	d.emitter.StageComplete(state.StageHarden, time.Since(start).Milliseconds(), "hardening applied")

	recordCount := 0
	if lr := d.state.LastTestReport(); lr != nil {
		recordCount = lr.RecordCount
	}
	d.emitter.PipelineComplete(d.state.ScraperDir, recordCount)
	return nil
}
