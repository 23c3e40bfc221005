package registry

import (
	"path/filepath"
	"testing"

	"pyesg/internal/validate"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	t.Chdir(t.TempDir())
	r, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpen_CreatesSchema(t *testing.T) {
	r := openTestRegistry(t)

	var version int
	if err := r.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestGenerationRun_StartAndFinish(t *testing.T) {
	r := openTestRegistry(t)

	id, err := r.StartGenerationRun("config.json", filepath.Join("out", "scenario.pyesg"), 7, 1000, 40)
	if err != nil {
		t.Fatalf("StartGenerationRun: %v", err)
	}
	if id == "" {
		t.Fatal("StartGenerationRun returned empty id")
	}

	if err := r.FinishGenerationRun(id, nil); err != nil {
		t.Fatalf("FinishGenerationRun: %v", err)
	}

	runs, err := r.RecentGenerationRuns(10)
	if err != nil {
		t.Fatalf("RecentGenerationRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].Status != "completed" {
		t.Errorf("Status = %q, want completed", runs[0].Status)
	}
	if runs[0].FinishedAt == nil {
		t.Error("FinishedAt is nil, want set")
	}
}

func TestGenerationRun_FinishWithError(t *testing.T) {
	r := openTestRegistry(t)

	id, err := r.StartGenerationRun("config.json", "scenario.pyesg", 7, 1000, 40)
	if err != nil {
		t.Fatalf("StartGenerationRun: %v", err)
	}

	if err := r.FinishGenerationRun(id, errUnwritable); err != nil {
		t.Fatalf("FinishGenerationRun: %v", err)
	}

	runs, err := r.RecentGenerationRuns(10)
	if err != nil {
		t.Fatalf("RecentGenerationRuns: %v", err)
	}
	if runs[0].Status != "failed" {
		t.Errorf("Status = %q, want failed", runs[0].Status)
	}
	if runs[0].ErrorMessage != errUnwritable.Error() {
		t.Errorf("ErrorMessage = %q, want %q", runs[0].ErrorMessage, errUnwritable.Error())
	}
}

func TestValidationRun_StartAndFinishPersistsResults(t *testing.T) {
	r := openTestRegistry(t)

	id, err := r.StartValidationRun("", "validation.json", "report.json")
	if err != nil {
		t.Fatalf("StartValidationRun: %v", err)
	}

	report := &validate.Report{
		Results: []*validate.Result{
			{
				AssetClassID: "GBP_Nominal",
				AnalysisID:   validate.AnalysisAverageDiscountFactor,
				ResultType:   validate.ResultTypeMartingale,
				Results: validate.MartingaleSeries{
					Time:      []float64{1, 2},
					SampleMean: []float64{0.98, 0.96},
				},
			},
		},
	}

	if err := r.FinishValidationRun(id, report, nil); err != nil {
		t.Fatalf("FinishValidationRun: %v", err)
	}

	var count int
	if err := r.sql.QueryRow("SELECT COUNT(*) FROM validation_results WHERE validation_run_id = ?", id).Scan(&count); err != nil {
		t.Fatalf("query validation_results: %v", err)
	}
	if count != 1 {
		t.Errorf("validation_results rows = %d, want 1", count)
	}
}

var errUnwritable = fmtError("output path is not writable")

type fmtError string

func (e fmtError) Error() string { return string(e) }
