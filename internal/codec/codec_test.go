package codec

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"pyesg/internal/pyesgerr"
)

func writeFixture(t *testing.T, path string, numSims, numOutputs, numSteps int) ([]string, []time.Time) {
	t.Helper()

	outputIDs := make([]string, numOutputs)
	for i := range outputIDs {
		outputIDs[i] = string(rune('a' + i))
	}
	stepDates := make([]time.Time, numSteps)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range stepDates {
		stepDates[i] = base.AddDate(0, 0, i)
	}

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteHeader(numSims, outputIDs, stepDates); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	tensor := make([][][]float32, numOutputs)
	for o := range tensor {
		tensor[o] = make([][]float32, numSteps)
		for s := range tensor[o] {
			tensor[o][s] = make([]float32, numSims)
			for sim := range tensor[o][s] {
				tensor[o][s][sim] = float32(o*1000 + s*10 + sim)
			}
		}
	}
	if err := w.WriteBatch(0, 1, tensor); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	return outputIDs, stepDates
}

func TestWriterReader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.pyesg")
	outputIDs, stepDates := writeFixture(t, path, 3, 2, 4)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumberOfSimulations() != 3 {
		t.Errorf("NumberOfSimulations() = %d, want 3", r.NumberOfSimulations())
	}
	if r.NumberOfOutputs() != 2 {
		t.Errorf("NumberOfOutputs() = %d, want 2", r.NumberOfOutputs())
	}
	if r.NumberOfTimeSteps() != 4 {
		t.Errorf("NumberOfTimeSteps() = %d, want 4", r.NumberOfTimeSteps())
	}
	for i, id := range r.OutputIDs() {
		if id != outputIDs[i] {
			t.Errorf("OutputIDs()[%d] = %q, want %q", i, id, outputIDs[i])
		}
	}
	for i, d := range r.StepDates() {
		if !d.Equal(stepDates[i]) {
			t.Errorf("StepDates()[%d] = %v, want %v", i, d, stepDates[i])
		}
	}

	paths, err := r.PathsForOutput("b")
	if err != nil {
		t.Fatalf("PathsForOutput: %v", err)
	}
	if len(paths) != 3 || len(paths[0]) != 4 {
		t.Fatalf("PathsForOutput shape = %dx%d, want 3x4", len(paths), len(paths[0]))
	}
	if paths[2][3] != float32(1000+30+2) {
		t.Errorf("paths[2][3] = %v, want %v", paths[2][3], float32(1032))
	}

	forStep, err := r.PathsForStep("b", 3)
	if err != nil {
		t.Fatalf("PathsForStep: %v", err)
	}
	for sim := range forStep {
		if forStep[sim] != paths[sim][3] {
			t.Errorf("PathsForStep mismatch at sim %d: %v != %v", sim, forStep[sim], paths[sim][3])
		}
	}

	single, err := r.Path("b", 2)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	for step := range single {
		if single[step] != paths[2][step] {
			t.Errorf("Path mismatch at step %d: %v != %v", step, single[step], paths[2][step])
		}
	}

	if _, err := r.PathsForOutput("nonexistent"); !pyesgerr.Is(err, pyesgerr.OutputNotFound) {
		t.Errorf("expected OutputNotFound, got %v", err)
	}
	if _, err := r.PathsForOutput(5); !pyesgerr.Is(err, pyesgerr.OutputNotFound) {
		t.Errorf("expected OutputNotFound for out-of-range index, got %v", err)
	}
	if _, err := r.PathsForStep("b", 99); !pyesgerr.Is(err, pyesgerr.OutputNotFound) {
		t.Errorf("expected OutputNotFound for out-of-range step, got %v", err)
	}
}

func TestReader_RejectsUnfinalisedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.pyesg")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteHeader(1, []string{"a"}, []time.Time{time.Now()}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = Open(path)
	if !pyesgerr.Is(err, pyesgerr.IOFailure) {
		t.Fatalf("expected IOFailure for unfinalised file, got %v", err)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 3.14159, float32(math.Pi), -1e10} {
		if got := bitsToFloat32(float32ToBits(v)); got != v {
			t.Errorf("bit round trip for %v gave %v", v, got)
		}
	}
}
