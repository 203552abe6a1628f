// Package pipeline sequences the six named stages of a scraper-development
// run (C9): RECON, SCHEMA, CODEGEN, TEST/REPAIR, HARDEN. It owns stage
// budgets, retry policy, guardrail wiring, event emission, and state
// persistence; the LLM invocation primitive and tool implementations are
// injected.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/corvidlabs/noctua/pkg/events"
	"github.com/corvidlabs/noctua/pkg/guardrail"
	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/pipelinelog"
	"github.com/corvidlabs/noctua/pkg/state"
	"github.com/corvidlabs/noctua/pkg/tools"
)

// Options configures one pipeline run.
type Options struct {
	BaseDir           string
	Client            llm.Client
	Model             string
	MaxRepairAttempts int
	Observer          events.Observer
	CostEstimator     llm.CostEstimator
	Budgets           Budgets
}

// Run constructs the workspace, sequences every stage, and returns the
// final PipelineState. Per spec §7, the function never propagates an
// internal stage failure as a Go error — every failure is mapped onto
// state.currentStage = failed plus a pipeline_failed event, and the
// returned error is nil. A non-nil error here means the run could not even
// be set up (workspace/log creation failed).
func Run(ctx context.Context, targetURL, userIntent string, opts Options) (*state.PipelineState, error) {
	if opts.Budgets.isZero() {
		opts.Budgets = DefaultBudgets()
	}

	st := state.New(opts.BaseDir, targetURL, userIntent, opts.MaxRepairAttempts)
	if err := os.MkdirAll(st.ScraperDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scraper dir: %w", err)
	}

	logger, err := pipelinelog.New(st.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("create pipeline logger: %w", err)
	}
	defer logger.Close()

	d := newDriver(st, opts, logger)
	if err := state.SaveState(st); err != nil {
		return nil, fmt.Errorf("persist initial state: %w", err)
	}

	logger.Info("pipeline starting", "targetUrl", targetURL, "intent", userIntent, "workDir", st.WorkDir)

	stages := []func(context.Context) error{
		d.runRecon,
		d.runSchema,
		d.runCodegen,
		d.runTestRepairLoop,
		d.runHarden,
	}
	for _, stage := range stages {
		if ctx.Err() != nil {
			logger.Warn("pipeline cancelled", "stage", st.CurrentStage)
			return st, nil
		}
		if err := stage(ctx); err != nil {
			logger.Error("stage failed", "stage", st.CurrentStage, "error", err)
			return st, nil
		}
	}
	return st, nil
}

// driver holds everything a stage needs that isn't part of PipelineState
// itself: the invocation client, the tool composer, the guardrail adapter,
// the event emitter, and the logger.
type driver struct {
	state   *state.PipelineState
	client  llm.Client
	model   string
	logger  *pipelinelog.Logger
	emitter *events.Emitter
	toolSet *tools.Set
	budgets Budgets

	guardrailFunc llm.GuardrailFunc
	costEstimator llm.CostEstimator
}

func newDriver(st *state.PipelineState, opts Options, logger *pipelinelog.Logger) *driver {
	toolSet := tools.NewSet(st.ScraperDir, func(toolName, argsJSON, workDir string) (bool, string) {
		res := guardrail.Check(toolName, argsJSON, workDir)
		return res.TripwireTriggered, res.OutputInfo
	})

	d := &driver{
		state:         st,
		client:        opts.Client,
		model:         opts.Model,
		logger:        logger,
		emitter:       events.NewEmitter(opts.Observer),
		toolSet:       toolSet,
		budgets:       opts.Budgets,
		costEstimator: opts.CostEstimator,
	}
	d.guardrailFunc = func(toolName, argsJSON string) llm.GuardrailResult {
		res := guardrail.Check(toolName, argsJSON, st.ScraperDir)
		return llm.GuardrailResult{TripwireTriggered: res.TripwireTriggered, OutputInfo: res.OutputInfo}
	}
	return d
}

// persist writes the current state to disk, logging (but not failing) on
// error — losing a snapshot mid-run should never crash the driver.
func (d *driver) persist() {
	if err := state.SaveState(d.state); err != nil {
		d.logger.Error("failed to persist state", "error", err)
	}
}

// failStage marks the pipeline failed, persists state before emitting any
// terminal event (spec §5's ordering guarantee), then emits stage_error
// followed by pipeline_failed.
func (d *driver) failStage(stage state.Stage, err error) {
	d.state.CurrentStage = stage
	d.state.MarkFailed(err)
	d.persist()
	d.emitter.StageError(stage, err)
	d.emitter.PipelineFailed(err.Error(), stage)
}

// toolObserver adapts the event emitter to llm.ToolEventObserver, tagging
// every tool event with the stage that's currently running.
type toolObserver struct {
	emitter *events.Emitter
	stage   state.Stage
}

func (o *toolObserver) ToolStart(toolName string) {
	o.emitter.StageToolStart(o.stage, toolName)
}

func (o *toolObserver) ToolEnd(toolName string, durationMs int64) {
	o.emitter.StageToolEnd(o.stage, toolName, durationMs)
}

func (d *driver) toolObserver(stage state.Stage) llm.ToolEventObserver {
	return &toolObserver{emitter: d.emitter, stage: stage}
}
