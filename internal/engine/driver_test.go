package engine

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"pyesg/internal/codec"
	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

func hullWhiteTestConfig(outputDir string) *config.Configuration {
	cfg := config.Default()
	cfg.NumberOfSimulations = 20
	cfg.NumberOfProjectionSteps = 5
	cfg.NumberOfBatches = 2
	cfg.RandomSeed = 128
	cfg.StartDate = "2018-01-01"
	cfg.OutputFileDirectory = outputDir
	cfg.OutputFileName = "scenario.pyesg"

	assetClass := &config.AssetClass{
		ID:      "GBP_Nominal",
		ModelID: ModelHullWhite,
		Parameters: config.Parameters{
			"alpha": 0.05,
			"sigma": 0.02,
			"yc_1":  0.03,
			"yc_5":  0.035,
			"yc_10": 0.04,
		},
		RandomDrivers: []string{"GBP_Nominal"},
	}
	assetClass.AddOutput("discount_factor", OutputDiscountFactor, nil, nil)
	assetClass.AddOutput("zcb_5", OutputZeroCouponBond, nil, config.Parameters{"term": 5})
	assetClass.AddOutput("cash_account", OutputCashAccount, nil, nil)

	cfg.Economies = []*config.Economy{
		{ID: "GBP", AssetClasses: []*config.AssetClass{assetClass}},
	}
	return cfg
}

func TestGenerate_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := hullWhiteTestConfig(dir)

	if err := Generate(cfg, cfg.OutputPath()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	reader, err := codec.Open(cfg.OutputPath())
	if err != nil {
		t.Fatalf("codec.Open: %v", err)
	}
	defer reader.Close()

	if reader.NumberOfSimulations() != cfg.NumberOfSimulations {
		t.Errorf("NumberOfSimulations() = %d, want %d", reader.NumberOfSimulations(), cfg.NumberOfSimulations)
	}
	if reader.NumberOfOutputs() != 3 {
		t.Errorf("NumberOfOutputs() = %d, want 3", reader.NumberOfOutputs())
	}

	discountPaths, err := reader.PathsForOutput("discount_factor")
	if err != nil {
		t.Fatalf("PathsForOutput(discount_factor): %v", err)
	}
	for sim, path := range discountPaths {
		if math.Abs(float64(path[0])-1.0) > 1e-5 {
			t.Errorf("discount_factor[sim=%d][0] = %v, want 1", sim, path[0])
		}
	}

	cashPaths, err := reader.PathsForOutput("cash_account")
	if err != nil {
		t.Fatalf("PathsForOutput(cash_account): %v", err)
	}
	for sim := range discountPaths {
		for step := range discountPaths[sim] {
			got := float64(discountPaths[sim][step]) * float64(cashPaths[sim][step])
			if math.Abs(got-1.0) > 1e-4 {
				t.Errorf("sim=%d step=%d: discount_factor*cash_account = %v, want 1", sim, step, got)
			}
		}
	}
}

func TestGenerate_DeterministicAcrossRuns(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	cfg1 := hullWhiteTestConfig(dir1)
	cfg2 := hullWhiteTestConfig(dir2)

	if err := Generate(cfg1, cfg1.OutputPath()); err != nil {
		t.Fatalf("Generate(1): %v", err)
	}
	if err := Generate(cfg2, cfg2.OutputPath()); err != nil {
		t.Fatalf("Generate(2): %v", err)
	}

	data1, err := os.ReadFile(cfg1.OutputPath())
	if err != nil {
		t.Fatalf("read 1: %v", err)
	}
	data2, err := os.ReadFile(cfg2.OutputPath())
	if err != nil {
		t.Fatalf("read 2: %v", err)
	}
	if len(data1) != len(data2) {
		t.Fatalf("file sizes differ: %d vs %d", len(data1), len(data2))
	}
	// Skip the 8-byte finalisation timestamp prefix, which legitimately
	// differs between runs.
	for i := 8; i < len(data1); i++ {
		if data1[i] != data2[i] {
			t.Fatalf("files diverge at byte %d", i)
		}
	}
}

func TestGenerate_UnsupportedOutputType(t *testing.T) {
	dir := t.TempDir()
	cfg := hullWhiteTestConfig(dir)
	cfg.Economies[0].AssetClasses[0].AddOutput("bond_index_5", OutputBondIndex, nil, config.Parameters{"term": 5})

	err := Generate(cfg, filepath.Join(dir, "unused.pyesg"))
	if !pyesgerr.Is(err, pyesgerr.OutputNotSupported) {
		t.Fatalf("expected OutputNotSupported, got %v", err)
	}
}
