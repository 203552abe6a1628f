// Package events defines the PipelineEvent sum type observable to the
// outer world (C8) and the single-observer emitter that publishes it.
package events

import (
	"github.com/corvidlabs/noctua/pkg/state"
)

// Kind discriminates the PipelineEvent sum type.
type Kind string

const (
	KindStageStart     Kind = "stage_start"
	KindStageComplete  Kind = "stage_complete"
	KindStageError     Kind = "stage_error"
	KindStageToolStart Kind = "stage_tool_start"
	KindStageToolEnd   Kind = "stage_tool_end"
	KindTestResult     Kind = "test_result"
	KindRepairAttempt  Kind = "repair_attempt"
	KindPipelineComplete Kind = "pipeline_complete"
	KindPipelineFailed Kind = "pipeline_failed"
)

// Event is the tagged union of everything the pipeline driver can report.
// Only the fields relevant to Kind are populated; this mirrors a
// discriminated union without needing one interface type per variant,
// which keeps callers' switch statements flat.
type Event struct {
	Kind Kind `json:"kind"`

	Stage Stage `json:"stage,omitempty"`

	// stage_complete / stage_tool_end
	DurationMs int64  `json:"durationMs,omitempty"`
	Summary    string `json:"summary,omitempty"`

	// stage_error / pipeline_failed
	Error string `json:"error,omitempty"`

	// stage_tool_start / stage_tool_end
	Tool string `json:"tool,omitempty"`

	// test_result
	Report  *state.TestReport `json:"report,omitempty"`
	Attempt int               `json:"attempt,omitempty"`

	// repair_attempt
	MaxAttempts int `json:"maxAttempts,omitempty"`

	// pipeline_complete
	ScraperDir  string `json:"scraperDir,omitempty"`
	RecordCount int    `json:"recordCount,omitempty"`
}

// Stage aliases state.Stage so callers of this package don't need to import
// pkg/state just to name a stage when building events.
type Stage = state.Stage

// Observer receives events synchronously from the driver. Implementations
// must not block for long — there is no buffering between the driver and
// the observer.
type Observer func(Event)

// Emitter publishes events to a single observer. A nil observer is a valid
// no-op sink.
type Emitter struct {
	observer Observer
}

// NewEmitter wraps observer (which may be nil) in an Emitter.
func NewEmitter(observer Observer) *Emitter {
	return &Emitter{observer: observer}
}

// Emit invokes the observer, recovering from and discarding any panic it
// raises — the driver never fails because of observer errors.
func (e *Emitter) Emit(ev Event) {
	if e == nil || e.observer == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.observer(ev)
}

func (e *Emitter) StageStart(stage Stage) {
	e.Emit(Event{Kind: KindStageStart, Stage: stage})
}

func (e *Emitter) StageComplete(stage Stage, durationMs int64, summary string) {
	e.Emit(Event{Kind: KindStageComplete, Stage: stage, DurationMs: durationMs, Summary: summary})
}

func (e *Emitter) StageError(stage Stage, err error) {
	e.Emit(Event{Kind: KindStageError, Stage: stage, Error: err.Error()})
}

func (e *Emitter) StageToolStart(stage Stage, tool string) {
	e.Emit(Event{Kind: KindStageToolStart, Stage: stage, Tool: tool})
}

func (e *Emitter) StageToolEnd(stage Stage, tool string, durationMs int64) {
	e.Emit(Event{Kind: KindStageToolEnd, Stage: stage, Tool: tool, DurationMs: durationMs})
}

func (e *Emitter) TestResult(report state.TestReport, attempt int) {
	e.Emit(Event{Kind: KindTestResult, Stage: state.StageTest, Report: &report, Attempt: attempt})
}

func (e *Emitter) RepairAttempt(attempt, maxAttempts int) {
	e.Emit(Event{Kind: KindRepairAttempt, Stage: state.StageRepair, Attempt: attempt, MaxAttempts: maxAttempts})
}

func (e *Emitter) PipelineComplete(scraperDir string, recordCount int) {
	e.Emit(Event{Kind: KindPipelineComplete, ScraperDir: scraperDir, RecordCount: recordCount})
}

func (e *Emitter) PipelineFailed(reason string, stage Stage) {
	e.Emit(Event{Kind: KindPipelineFailed, Error: reason, Stage: stage})
}
