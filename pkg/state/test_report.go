package state

// TimeoutExitCode is the exit code TestReport.ExitCode carries when the
// scraper-test tool's own execution timeout trips.
const TimeoutExitCode = 124

// SchemaError is one validation complaint raised while checking a scraper
// run's output against its schema.
type SchemaError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// TestReport is the outcome of one scraper execution under --limit 5.
type TestReport struct {
	Success       bool                     `json:"success"`
	ExitCode      int                      `json:"exitCode"`
	TimedOut      bool                     `json:"timedOut"`
	RecordCount   int                      `json:"recordCount"`
	DurationMs    int64                    `json:"durationMs"`
	SchemaErrors  []SchemaError            `json:"schemaErrors,omitempty"`
	SampleRecords []map[string]interface{} `json:"sampleRecords,omitempty"`
	FieldCoverage map[string]int           `json:"fieldCoverage,omitempty"`
	Stdout        string                   `json:"stdout,omitempty"`
	Stderr        string                   `json:"stderr,omitempty"`
}

// --- Wire form -------------------------------------------------------------

// SchemaErrorWire always carries Path (possibly empty) rather than omitting
// it, matching the strict-schema nullable-instead-of-optional rule.
type SchemaErrorWire struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// TestReportWire is the strict rendering of TestReport. SampleRecords is
// carried as a JSON-encoded string for the same reason ReconReportWire
// carries SampleDataJSON: strict schema validators reject free-form maps.
type TestReportWire struct {
	Success            bool              `json:"success"`
	ExitCode           int               `json:"exitCode"`
	TimedOut           bool              `json:"timedOut"`
	RecordCount        int               `json:"recordCount"`
	DurationMs         int64             `json:"durationMs"`
	SchemaErrors       []SchemaErrorWire `json:"schemaErrors"`
	SampleRecordsJSON  string            `json:"sampleRecordsJson"`
	FieldCoverage      map[string]int    `json:"fieldCoverage"`
	Stdout             string            `json:"stdout"`
	Stderr             string            `json:"stderr"`
}

// ToInternal converts a wire-form TestReport to its internal form.
func (w *TestReportWire) ToInternal() (*TestReport, error) {
	t := &TestReport{
		Success:       w.Success,
		ExitCode:      w.ExitCode,
		TimedOut:      w.TimedOut,
		RecordCount:   w.RecordCount,
		DurationMs:    w.DurationMs,
		FieldCoverage: w.FieldCoverage,
		Stdout:        w.Stdout,
		Stderr:        w.Stderr,
	}
	for _, se := range w.SchemaErrors {
		t.SchemaErrors = append(t.SchemaErrors, SchemaError{Path: se.Path, Message: se.Message})
	}
	if w.SampleRecordsJSON != "" && w.SampleRecordsJSON != "[]" {
		sample, err := parseRecords(w.SampleRecordsJSON)
		if err != nil {
			return nil, err
		}
		t.SampleRecords = sample
	}
	return t, nil
}

// ToWire converts an internal TestReport to its wire form.
func (t *TestReport) ToWire() (*TestReportWire, error) {
	w := &TestReportWire{
		Success:       t.Success,
		ExitCode:      t.ExitCode,
		TimedOut:      t.TimedOut,
		RecordCount:   t.RecordCount,
		DurationMs:    t.DurationMs,
		SchemaErrors:  []SchemaErrorWire{},
		FieldCoverage: t.FieldCoverage,
		Stdout:        t.Stdout,
		Stderr:        t.Stderr,
	}
	if w.FieldCoverage == nil {
		w.FieldCoverage = map[string]int{}
	}
	for _, se := range t.SchemaErrors {
		w.SchemaErrors = append(w.SchemaErrors, SchemaErrorWire{Path: se.Path, Message: se.Message})
	}
	data, err := encodeRecords(t.SampleRecords)
	if err != nil {
		return nil, err
	}
	w.SampleRecordsJSON = data
	return w, nil
}
