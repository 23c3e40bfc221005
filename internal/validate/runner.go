package validate

import (
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"pyesg/internal/codec"
	"pyesg/internal/config"
	"pyesg/internal/logger"
	"pyesg/internal/pyesgerr"
)

const logTag = "validate"

// Report is the full output of a validation run: one Result per requested
// (asset class, analysis) pair, in no particular order since analyses run
// concurrently.
type Report struct {
	Results []*Result `json:"results"`
}

// Run executes every analysis named in validationCfg against the scenario
// artifact at scenarioPath, described by genCfg, and returns the combined
// report. Independent (asset class, analysis) pairs run concurrently.
func Run(genCfg *config.Configuration, validationCfg *config.ValidationConfiguration, scenarioPath string) (*Report, error) {
	if err := validationCfg.Validate(); err != nil {
		return nil, err
	}

	reader, err := codec.Open(scenarioPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	extractor := NewDataExtractor(genCfg, reader)

	var (
		mu      sync.Mutex
		results []*Result
	)
	group := new(errgroup.Group)

	for _, validationAssetClass := range validationCfg.AssetClasses {
		assetClass, err := extractor.AssetClass(validationAssetClass.ID)
		if err != nil {
			return nil, err
		}
		for _, analysis := range validationAssetClass.ValidationAnalyses {
			assetClass, analysis := assetClass, analysis
			group.Go(func() error {
				logger.Info(logTag, "running "+analysis.ID+" for "+assetClass.ID)
				result, err := Validate(extractor, assetClass, analysis)
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &Report{Results: results}, nil
}

// WriteReport writes the report as indented JSON to path, matching the
// configured validation output file location.
func WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "    ")
	if err != nil {
		return pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "encoding validation report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pyesgerr.Wrap(pyesgerr.IOFailure, err, "writing validation report %s", path)
	}
	return nil
}
