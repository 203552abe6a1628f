package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/prompts"
	"github.com/corvidlabs/noctua/pkg/report"
	"github.com/corvidlabs/noctua/pkg/retry"
	"github.com/corvidlabs/noctua/pkg/state"
)

func (d *driver) runRecon(ctx context.Context) error {
	d.state.CurrentStage = state.StageRecon
	d.persist()
	d.emitter.StageStart(state.StageRecon)
	start := time.Now()

	findings, err := d.runExplore(ctx)
	if err != nil {
		d.failStage(state.StageRecon, err)
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(reconCooldown):
	}

	rr, err := d.runSynthesize(ctx, findings)
	if err != nil {
		d.failStage(state.StageRecon, err)
		return err
	}

	d.state.ReconReport = rr
	d.persist()
	if err := d.persistReconReport(rr); err != nil {
		d.logger.Warn("failed to persist recon-report.json", "error", err)
	}

	summary := fmt.Sprintf("%s (%s), %d page(s), strategy=%s", rr.SiteName, rr.SiteType, len(rr.Pages), rr.SuggestedStrategy)
	d.emitter.StageComplete(state.StageRecon, time.Since(start).Milliseconds(), summary)
	return nil
}

func (d *driver) runExplore(ctx context.Context) (string, error) {
	prompt := prompts.Explore(d.state)
	cfg := llm.InvokeConfig{
		Model:             d.model,
		Tools:             d.toolSet.Reconnaissance(),
		MaxTurns:          exploreMaxTurns,
		BudgetUSD:         d.budgets.Recon * reconExploreFraction,
		ReasoningEffort:   llm.EffortMedium,
		InstructionPrefix: "You are performing site reconnaissance ahead of writing a scraper.",
		Guardrail:         d.guardrailFunc,
		ToolObserver:      d.toolObserver(state.StageRecon),
		CostEstimator:     d.costEstimator,
	}

	var result *llm.Result
	err := retry.Do(ctx, exploreRetryAttempts, exploreRetryBase, func() error {
		r, invokeErr := d.client.Invoke(ctx, prompt, cfg)
		if invokeErr != nil {
			return invokeErr
		}
		result = r
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		d.logger.WithStage("recon").Warn("explore phase transient failure, retrying", "attempt", attempt, "delay", delay, "error", err)
	})
	if err != nil {
		return "", fmt.Errorf("explore phase: %w", err)
	}

	findings := extractFindings(result)
	if len(findings) < minFindingsLen {
		return "", fmt.Errorf("explore phase produced %d char(s) of findings, below the %d minimum", len(findings), minFindingsLen)
	}

	if err := os.WriteFile(filepath.Join(d.state.WorkDir, "findings.txt"), []byte(findings), 0o644); err != nil {
		return "", fmt.Errorf("persist findings: %w", err)
	}
	return findings, nil
}

// extractFindings prefers the model's free-text output; if that's empty it
// falls back to concatenating assistant/tool message content from the
// trail, then truncates to maxFindingsLen (spec §4.1.1).
func extractFindings(r *llm.Result) string {
	findings := strings.TrimSpace(r.Output)
	if findings == "" {
		var b strings.Builder
		for _, m := range r.Messages {
			if m.Role == llm.RoleAssistant || m.Role == llm.RoleTool {
				if m.Content == "" {
					continue
				}
				b.WriteString(m.Content)
				b.WriteString("\n")
			}
		}
		findings = strings.TrimSpace(b.String())
	}
	if len(findings) > maxFindingsLen {
		findings = findings[:maxFindingsLen]
	}
	return findings
}

// runSynthesize implements Phase B. Unlike every other invocation in the
// driver, its retry condition is "transient failure OR output validation
// failure" rather than transient-only, so it uses a bespoke loop instead of
// pkg/retry.Do (which only retries transient errors).
func (d *driver) runSynthesize(ctx context.Context, findings string) (*state.ReconReport, error) {
	prompt := prompts.Synthesize(d.state, findings)
	cfg := llm.InvokeConfig{
		Model:           d.model,
		MaxTurns:        synthesizeMaxTurns,
		BudgetUSD:       d.budgets.Recon * reconSynthesizeFraction,
		ReasoningEffort: llm.EffortMedium,
		Schema:          report.ReconReportSchema(),
		SchemaName:      "ReconReport",
		CostEstimator:   d.costEstimator,
	}

	delays := []time.Duration{15 * time.Second, 30 * time.Second}
	var lastResult *llm.Result
	var lastValidationErr error

	for attempt := 1; attempt <= synthesizeRetryAttempts; attempt++ {
		result, invokeErr := d.client.Invoke(ctx, prompt, cfg)
		if invokeErr != nil {
			var outErr *llm.OutputParseError
			if !retry.IsTransient(invokeErr) && !errors.As(invokeErr, &outErr) {
				return nil, fmt.Errorf("synthesize phase: %w", invokeErr)
			}
			lastValidationErr = invokeErr
		} else {
			lastResult = result
			raw := result.FinalOutputRaw
			if len(raw) == 0 && result.Output != "" {
				raw = []byte(result.Output)
			}
			d.persistSynthAttempt(attempt, raw)

			rr, parseErr := report.ParseReconReport(raw)
			if parseErr == nil {
				return rr, nil
			}
			lastValidationErr = parseErr
		}

		if attempt == synthesizeRetryAttempts {
			break
		}
		d.logger.WithStage("recon").Warn("synthesize phase retrying", "attempt", attempt, "error", lastValidationErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt-1]):
		}
	}

	numTurns, finishReason := 0, llm.FinishReason("")
	if lastResult != nil {
		numTurns, finishReason = lastResult.NumTurns, lastResult.FinishReason
	}
	return nil, fmt.Errorf(
		"synthesize phase failed after %d attempts: findings=%d chars, lastNumTurns=%d, lastFinishReason=%s, lastValidationError=%v",
		synthesizeRetryAttempts, len(findings), numTurns, finishReason, lastValidationErr,
	)
}

func (d *driver) persistSynthAttempt(attempt int, raw []byte) {
	path := filepath.Join(d.state.WorkDir, fmt.Sprintf("synth-attempt-%d.txt", attempt))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		d.logger.Warn("failed to persist synth attempt", "attempt", attempt, "error", err)
	}
}

func (d *driver) persistReconReport(rr *state.ReconReport) error {
	wire, err := rr.ToWire()
	if err != nil {
		return err
	}
	data, err := reconReportJSON(wire)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.state.WorkDir, "recon-report.json"), data, 0o644)
}
