// Package state holds the pipeline's single live record — PipelineState —
// and its on-disk JSON snapshot.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage is one of the six named phases of the pipeline, plus the two
// terminal states.
type Stage string

const (
	StageRecon  Stage = "recon"
	StageSchema Stage = "schema"
	StageCodegen Stage = "codegen"
	StageTest   Stage = "test"
	StageRepair Stage = "repair"
	StageHarden Stage = "harden"
	StageDone   Stage = "done"
	StageFailed Stage = "failed"
)

// DefaultMaxRepairAttempts is used when the caller does not override it.
const DefaultMaxRepairAttempts = 5

// PipelineState is the single live record of a run. It is created once at
// the start of a run, mutated only by the pipeline driver, and persisted to
// workDir/state.json after every state-affecting mutation.
type PipelineState struct {
	TraceID     string `json:"traceId"`
	ProjectName string `json:"projectName"`
	TargetURL   string `json:"targetUrl"`
	UserIntent  string `json:"userIntent"`

	WorkDir    string `json:"workDir"`
	ScraperDir string `json:"scraperDir"`

	CurrentStage Stage `json:"currentStage"`

	ReconReport *ReconReport `json:"reconReport,omitempty"`
	SchemaPath  string       `json:"schemaPath,omitempty"`

	TestResults []TestReport `json:"testResults"`

	RepairAttempts    int `json:"repairAttempts"`
	MaxRepairAttempts int `json:"maxRepairAttempts"`

	Error string `json:"error,omitempty"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// New constructs a fresh PipelineState rooted at baseDir, deriving the
// project name (and therefore workDir) from userIntent.
func New(baseDir, targetURL, userIntent string, maxRepairAttempts int) *PipelineState {
	if maxRepairAttempts <= 0 {
		maxRepairAttempts = DefaultMaxRepairAttempts
	}
	project := Slugify(userIntent)
	workDir := filepath.Join(baseDir, ".noctua", "pipelines", project)
	return &PipelineState{
		TraceID:           uuid.NewString(),
		ProjectName:       project,
		TargetURL:         targetURL,
		UserIntent:        userIntent,
		WorkDir:           workDir,
		ScraperDir:        filepath.Join(workDir, "scraper"),
		CurrentStage:      StageRecon,
		TestResults:       []TestReport{},
		MaxRepairAttempts: maxRepairAttempts,
		StartedAt:         time.Now().UTC(),
	}
}

// MarkFailed transitions the state to failed, recording the error. It does
// not persist; callers persist via SaveState after calling this.
func (s *PipelineState) MarkFailed(err error) {
	s.CurrentStage = StageFailed
	if err != nil {
		s.Error = err.Error()
	}
	now := time.Now().UTC()
	s.CompletedAt = &now
}

// MarkDone transitions the state to done and stamps CompletedAt.
func (s *PipelineState) MarkDone() {
	s.CurrentStage = StageDone
	now := time.Now().UTC()
	s.CompletedAt = &now
}

// LastTestReport returns the most recent TestReport, or nil if none exist.
func (s *PipelineState) LastTestReport() *TestReport {
	if len(s.TestResults) == 0 {
		return nil
	}
	return &s.TestResults[len(s.TestResults)-1]
}

// StatePath returns the canonical on-disk path for this run's state.json.
func (s *PipelineState) StatePath() string {
	return filepath.Join(s.WorkDir, "state.json")
}

// SaveState writes the full state as indented JSON. It is intentionally not
// incremental — on every transition we write the whole document, which
// keeps state.json trivially inspectable by a human mid-run.
func SaveState(s *PipelineState) error {
	if err := os.MkdirAll(s.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.StatePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.StatePath())
}

// LoadState reads and parses workDir/state.json. The bool is false (with a
// nil error) when no state file exists yet.
func LoadState(workDir string) (*PipelineState, bool, error) {
	data, err := os.ReadFile(filepath.Join(workDir, "state.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state: %w", err)
	}
	var s PipelineState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("parse state: %w", err)
	}
	return &s, true, nil
}

var slugCollapse = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text, collapses runs of non-alphanumerics to a single
// dash, trims leading/trailing dashes, and truncates to 50 chars. It is
// idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(text string) string {
	lowered := strings.ToLower(text)
	collapsed := slugCollapse.ReplaceAllString(lowered, "-")
	trimmed := strings.Trim(collapsed, "-")
	if len(trimmed) > 50 {
		trimmed = strings.Trim(trimmed[:50], "-")
	}
	if trimmed == "" {
		trimmed = "project"
	}
	return trimmed
}
