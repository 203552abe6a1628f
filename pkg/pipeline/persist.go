package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/corvidlabs/noctua/pkg/state"
)

func reconReportJSON(w *state.ReconReportWire) ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

func testReportJSON(w *state.TestReportWire) ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

// persistTestReport writes the wire form of the most recent TestReport to
// workDir/test-report.json (spec §6).
func (d *driver) persistTestReport(tr *state.TestReport) {
	wire, err := tr.ToWire()
	if err != nil {
		d.logger.Warn("failed to convert test report to wire form", "error", err)
		return
	}
	data, err := testReportJSON(wire)
	if err != nil {
		d.logger.Warn("failed to marshal test report", "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(d.state.WorkDir, "test-report.json"), data, 0o644); err != nil {
		d.logger.Warn("failed to persist test-report.json", "error", err)
	}
}
