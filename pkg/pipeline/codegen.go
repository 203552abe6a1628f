package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/corvidlabs/noctua/pkg/llm"
	"github.com/corvidlabs/noctua/pkg/pipelineerr"
	"github.com/corvidlabs/noctua/pkg/prompts"
	"github.com/corvidlabs/noctua/pkg/state"
)

func (d *driver) runCodegen(ctx context.Context) error {
	d.state.CurrentStage = state.StageCodegen
	d.persist()
	d.emitter.StageStart(state.StageCodegen)
	start := time.Now()

	scraperPath := filepath.Join(d.state.ScraperDir, "scraper.ts")
	indexPath := filepath.Join(d.state.ScraperDir, "index.ts")
	prompt := prompts.Codegen(d.state, reconSummary(d.state.ReconReport), d.state.SchemaPath)

	cfg := llm.InvokeConfig{
		Model:           d.model,
		Tools:           d.toolSet.Code(),
		MaxTurns:        codeStageMaxTurns,
		BudgetUSD:       d.budgets.Codegen,
		ReasoningEffort: llm.EffortHigh,
		Guardrail:       d.guardrailFunc,
		ToolObserver:    d.toolObserver(state.StageCodegen),
		CostEstimator:   d.costEstimator,
	}

	expected := []string{scraperPath, indexPath}
	hint := fmt.Sprintf("Write both scraper.ts and index.ts with the file_write tool to exactly these paths: %s, %s", scraperPath, indexPath)
	_, err := d.runWithFilePresenceRetry(ctx, prompt, cfg, expected, hint)
	if err != nil {
		d.failStage(state.StageCodegen, err)
		return err
	}
	if missing := missingFiles(expected); len(missing) > 0 {
		err := &pipelineerr.MissingArtifactError{Stage: "codegen", Path: missing[0]}
		d.failStage(state.StageCodegen, err)
		return err
	}

	d.persist()
	d.emitter.StageComplete(state.StageCodegen, time.Since(start).Milliseconds(), "scraper.ts and index.ts written")
	return nil
}

// reconSummary renders a compact text summary of a ReconReport for
// embedding in the codegen prompt, since the prompt builder is a pure
// function over plain strings rather than the report type itself.
func reconSummary(rr *state.ReconReport) string {
	if rr == nil {
		return "(no reconnaissance report available)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Site: %s (%s)\n", rr.SiteName, rr.SiteType)
	fmt.Fprintf(&b, "Suggested strategy: %s\n", rr.SuggestedStrategy)
	if rr.AntiBot.Captcha || rr.AntiBot.Cloudflare || rr.AntiBot.RateLimit || rr.AntiBot.RequiresAuth {
		fmt.Fprintf(&b, "Anti-bot: captcha=%t cloudflare=%t rateLimit=%t requiresAuth=%t\n",
			rr.AntiBot.Captcha, rr.AntiBot.Cloudflare, rr.AntiBot.RateLimit, rr.AntiBot.RequiresAuth)
	}
	for _, p := range rr.Pages {
		fmt.Fprintf(&b, "- %s [%s]", p.URL, p.Purpose)
		if p.Pagination != nil {
			fmt.Fprintf(&b, " pagination=%s", p.Pagination.Type)
		}
		if len(p.DataElements) > 0 {
			fmt.Fprintf(&b, " dataElements=%s", strings.Join(p.DataElements, ","))
		}
		b.WriteString("\n")
	}
	for _, ep := range rr.APIEndpoints {
		fmt.Fprintf(&b, "- API: %s %s\n", ep.Method, ep.URL)
	}
	return b.String()
}
