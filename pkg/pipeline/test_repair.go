package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/prompts"
	"github.com/corvidlabs/noctua/pkg/report"
	"github.com/corvidlabs/noctua/pkg/state"
)

// runTestRepairLoop alternates TEST and REPAIR until a test run succeeds
// (stage advances to HARDEN) or repairAttempts reaches maxRepairAttempts
// (pipeline fails at the repair stage).
func (d *driver) runTestRepairLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tr, err := d.runTest(ctx)
		if err != nil {
			d.failStage(state.StageTest, err)
			return err
		}

		if tr.Success {
			d.state.CurrentStage = state.StageHarden
			d.persist()
			return nil
		}

		if d.state.RepairAttempts >= d.state.MaxRepairAttempts {
			err := fmt.Errorf("repair attempts exhausted: %d/%d, last test had %d record(s) and %d schema error(s)",
				d.state.RepairAttempts, d.state.MaxRepairAttempts, tr.RecordCount, len(tr.SchemaErrors))
			// No repair stage was started for this attempt — repair wasn't
			// re-entered, so there's no open stage_start{repair} to pair a
			// stage_error with. Fail the pipeline against the repair stage
			// without fabricating an unpaired terminal event.
			d.state.CurrentStage = state.StageRepair
			d.state.MarkFailed(err)
			d.persist()
			d.emitter.PipelineFailed(err.Error(), state.StageRepair)
			return err
		}

		if err := d.runRepair(ctx); err != nil {
			d.failStage(state.StageRepair, err)
			return err
		}
		d.state.CurrentStage = state.StageTest
		d.persist()
	}
}

func (d *driver) runTest(ctx context.Context) (*state.TestReport, error) {
	d.state.CurrentStage = state.StageTest
	d.persist()
	d.emitter.StageStart(state.StageTest)
	start := time.Now()

	prompt := prompts.Test(d.state)
	cfg := llm.InvokeConfig{
		Model:           d.model,
		Tools:           d.toolSet.Test(),
		MaxTurns:        codeStageMaxTurns,
		BudgetUSD:       d.budgets.Test,
		ReasoningEffort: llm.EffortLow,
		Guardrail:       d.guardrailFunc,
		ToolObserver:    d.toolObserver(state.StageTest),
		Schema:          report.TestReportSchema(),
		SchemaName:      "TestReport",
		CostEstimator:   d.costEstimator,
	}

	result, err := d.client.Invoke(ctx, prompt, cfg)
	if err != nil {
		return nil, fmt.Errorf("test stage: %w", err)
	}

	raw := result.FinalOutputRaw
	if len(raw) == 0 && result.Output != "" {
		raw = []byte(result.Output)
	}
	tr, err := report.ParseTestReport(raw)
	if err != nil {
		return nil, fmt.Errorf("test stage: %w", err)
	}

	d.state.TestResults = append(d.state.TestResults, *tr)
	d.persistTestReport(tr)
	d.emitter.TestResult(*tr, len(d.state.TestResults))

	summary := "test failed"
	if tr.Success {
		summary = fmt.Sprintf("test passed: %d record(s)", tr.RecordCount)
	}
	d.emitter.StageComplete(state.StageTest, time.Since(start).Milliseconds(), summary)
	d.persist()
	return tr, nil
}

func (d *driver) runRepair(ctx context.Context) error {
	d.state.RepairAttempts++
	d.emitter.RepairAttempt(d.state.RepairAttempts, d.state.MaxRepairAttempts)

	d.state.CurrentStage = state.StageRepair
	d.persist()
	d.emitter.StageStart(state.StageRepair)
	start := time.Now()

	diagnosis := prompts.Diagnose(d.state)
	prompt := prompts.Repair(d.state, diagnosis)
	cfg := llm.InvokeConfig{
		Model:           d.model,
		Tools:           d.toolSet.Repair(),
		MaxTurns:        codeStageMaxTurns,
		BudgetUSD:       d.budgets.Repair,
		ReasoningEffort: llm.EffortHigh,
		Guardrail:       d.guardrailFunc,
		ToolObserver:    d.toolObserver(state.StageRepair),
		CostEstimator:   d.costEstimator,
	}

	if _, err := d.client.Invoke(ctx, prompt, cfg); err != nil {
		return fmt.Errorf("repair stage (attempt %d): %w", d.state.RepairAttempts, err)
	}

	d.emitter.StageComplete(state.StageRepair, time.Since(start).Milliseconds(),
		fmt.Sprintf("repair attempt %d applied, category=%s", d.state.RepairAttempts, diagnosis.Category))
	d.persist()
	return nil
}
