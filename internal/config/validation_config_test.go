package config

import (
	"testing"

	"pyesg/internal/pyesgerr"
)

func TestValidationConfiguration_Validate(t *testing.T) {
	cfg := &ValidationConfiguration{
		OutputFileDirectory: ".",
		OutputFileName:      "report.json",
		AssetClasses: []*ValidationAssetClass{
			{
				ID: "nominal_rate",
				ValidationAnalyses: []*ValidationAnalysis{
					{ID: "average_discount_factor", Parameters: Parameters{}},
				},
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidationConfiguration_Validate_NoAssetClasses(t *testing.T) {
	cfg := &ValidationConfiguration{OutputFileName: "report.json"}
	if err := cfg.Validate(); !pyesgerr.Is(err, pyesgerr.ConfigInvalid) {
		t.Errorf("expected ConfigInvalid, got %v", err)
	}
}

func TestValidationConfiguration_Validate_EmptyAnalyses(t *testing.T) {
	cfg := &ValidationConfiguration{
		OutputFileName: "report.json",
		AssetClasses: []*ValidationAssetClass{
			{ID: "nominal_rate"},
		},
	}
	if err := cfg.Validate(); !pyesgerr.Is(err, pyesgerr.ConfigInvalid) {
		t.Errorf("expected ConfigInvalid, got %v", err)
	}
}
