package registry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pyesg/internal/validate"
)

// GenerationRun describes one recorded scenario-generation invocation.
type GenerationRun struct {
	ID                      string
	StartedAt               time.Time
	FinishedAt              *time.Time
	ConfigPath              string
	OutputPath              string
	RandomSeed              int64
	NumberOfSimulations     int
	NumberOfProjectionSteps int
	Status                  string
	ErrorMessage            string
}

// StartGenerationRun inserts a new "running" generation run and returns its
// id for later completion via FinishGenerationRun.
func (r *Registry) StartGenerationRun(configPath, outputPath string, randomSeed int64, numberOfSimulations, numberOfProjectionSteps int) (string, error) {
	id := uuid.NewString()
	_, err := r.sql.Exec(
		`INSERT INTO generation_runs (id, started_at, config_path, output_path, random_seed, number_of_simulations, number_of_projection_steps, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'running')`,
		id, time.Now().UTC().Format(time.RFC3339), configPath, outputPath, randomSeed, numberOfSimulations, numberOfProjectionSteps,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishGenerationRun marks a generation run complete, recording runErr (nil
// on success) as its terminal status.
func (r *Registry) FinishGenerationRun(id string, runErr error) error {
	status, message := "completed", ""
	if runErr != nil {
		status, message = "failed", runErr.Error()
	}
	_, err := r.sql.Exec(
		`UPDATE generation_runs SET finished_at = ?, status = ?, error_message = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, message, id,
	)
	return err
}

// StartValidationRun inserts a new "running" validation run, optionally
// linked to the generation run that produced the scenario it validates.
func (r *Registry) StartValidationRun(generationRunID, configPath, reportPath string) (string, error) {
	id := uuid.NewString()
	_, err := r.sql.Exec(
		`INSERT INTO validation_runs (id, generation_run_id, started_at, config_path, report_path, status)
		 VALUES (?, ?, ?, ?, ?, 'running')`,
		id, nullableString(generationRunID), time.Now().UTC().Format(time.RFC3339), configPath, reportPath,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishValidationRun marks a validation run complete and persists every
// result in its report.
func (r *Registry) FinishValidationRun(id string, report *validate.Report, runErr error) error {
	status, message := "completed", ""
	if runErr != nil {
		status, message = "failed", runErr.Error()
	}

	if report != nil {
		for _, result := range report.Results {
			data, err := json.Marshal(result.Results)
			if err != nil {
				return err
			}
			if _, err := r.sql.Exec(
				`INSERT INTO validation_results (validation_run_id, asset_class_id, analysis_id, result_type, results_json)
				 VALUES (?, ?, ?, ?, ?)`,
				id, result.AssetClassID, result.AnalysisID, result.ResultType, string(data),
			); err != nil {
				return err
			}
		}
	}

	_, err := r.sql.Exec(
		`UPDATE validation_runs SET finished_at = ?, status = ?, error_message = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, message, id,
	)
	return err
}

// RecentGenerationRuns returns the most recent generation runs, most recent
// first, up to limit rows.
func (r *Registry) RecentGenerationRuns(limit int) ([]GenerationRun, error) {
	rows, err := r.sql.Query(
		`SELECT id, started_at, finished_at, config_path, output_path, random_seed, number_of_simulations, number_of_projection_steps, status, error_message
		 FROM generation_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []GenerationRun
	for rows.Next() {
		var run GenerationRun
		var startedAt string
		var finishedAt, errorMessage *string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.ConfigPath, &run.OutputPath, &run.RandomSeed, &run.NumberOfSimulations, &run.NumberOfProjectionSteps, &run.Status, &errorMessage); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if finishedAt != nil {
			t, _ := time.Parse(time.RFC3339, *finishedAt)
			run.FinishedAt = &t
		}
		if errorMessage != nil {
			run.ErrorMessage = *errorMessage
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
