package pipeline

import "time"

// Budgets carries the per-stage USD ceilings (spec §4.1.6). The zero value
// is not valid; callers get DefaultBudgets() unless they override it.
type Budgets struct {
	Recon   float64
	Schema  float64
	Codegen float64
	Test    float64
	Repair  float64
	Harden  float64
}

// DefaultBudgets returns the spec's default: 100 USD per stage.
func DefaultBudgets() Budgets {
	return Budgets{Recon: 100, Schema: 100, Codegen: 100, Test: 100, Repair: 100, Harden: 100}
}

func (b Budgets) isZero() bool {
	return b == Budgets{}
}

const (
	// reconExploreFraction/reconSynthesizeFraction split RECON's total
	// budget 70/30 between its two phases.
	reconExploreFraction    = 0.7
	reconSynthesizeFraction = 0.3

	// exploreMaxTurns is a safety net, not an expected value — the budget
	// fires first in practice (spec §4.1.1, §9).
	exploreMaxTurns = 1000

	exploreRetryAttempts   = 3
	exploreRetryBase       = 30 * time.Second
	synthesizeRetryAttempts = 3
	synthesizeRetryBase     = 15 * time.Second
	synthesizeMaxTurns      = 1

	reconCooldown = 15 * time.Second

	minFindingsLen = 50
	maxFindingsLen = 15000

	// codeStageMaxTurns bounds SCHEMA/CODEGEN/TEST/REPAIR/HARDEN
	// invocations; these stages are tool-driven but scoped, so a much
	// smaller cap than Explore's is enough headroom.
	codeStageMaxTurns = 40
)
