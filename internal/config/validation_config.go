package config

import (
	"encoding/json"
	"fmt"
	"os"

	"pyesg/internal/pyesgerr"
)

// ValidationAnalysis is a single requested analysis (e.g. a martingale
// check or a log-return moments report) against one asset class's output.
type ValidationAnalysis struct {
	ID         string     `json:"id"`
	Parameters Parameters `json:"parameters"`
}

// ValidationAssetClass groups the validation analyses requested for a
// single asset class id.
type ValidationAssetClass struct {
	ID                 string                `json:"id"`
	ValidationAnalyses []*ValidationAnalysis `json:"validation_analyses"`
}

// ValidationConfiguration describes a validation run: which analyses to
// perform against which asset classes, and where to write the report.
type ValidationConfiguration struct {
	OutputFileDirectory string                  `json:"output_file_directory"`
	OutputFileName      string                  `json:"output_file_name"`
	AssetClasses        []*ValidationAssetClass `json:"asset_classes"`
}

// LoadValidationConfigurationFromFile reads and decodes a
// ValidationConfiguration from a JSON file.
func LoadValidationConfigurationFromFile(path string) (*ValidationConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "reading validation configuration file %s", path)
	}
	var cfg ValidationConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "parsing validation configuration file %s", path)
	}
	return &cfg, nil
}

// SaveToFile writes the validation configuration to path as indented JSON.
func (v *ValidationConfiguration) SaveToFile(path string) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "encoding validation configuration")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pyesgerr.Wrap(pyesgerr.IOFailure, err, "writing validation configuration file %s", path)
	}
	return nil
}

// OutputPath returns the full path to the validation report this
// configuration will generate.
func (v *ValidationConfiguration) OutputPath() string {
	return fmt.Sprintf("%s/%s", v.OutputFileDirectory, v.OutputFileName)
}

// Validate checks that the configuration names at least one asset class
// and that every one of them names a non-empty set of analyses.
func (v *ValidationConfiguration) Validate() error {
	if v.OutputFileName == "" {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "output_file_name must not be empty")
	}
	if len(v.AssetClasses) == 0 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "validation configuration must name at least one asset class")
	}
	for _, assetClass := range v.AssetClasses {
		if len(assetClass.ValidationAnalyses) == 0 {
			return pyesgerr.New(pyesgerr.ConfigInvalid, "asset class %q has no validation analyses configured", assetClass.ID)
		}
	}
	return nil
}
