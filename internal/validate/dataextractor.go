// Package validate implements post-generation validation analyses against
// a finalised .pyesg artifact: martingale checks on discounted prices and
// log-return moment reports, matching the outputs a generation run declared.
package validate

import (
	"reflect"
	"sync"

	"pyesg/internal/codec"
	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

// DataExtractor resolves declared outputs by (asset class, output type,
// parameters) against a Configuration and reads their simulated paths from
// a Reader, caching path lookups by the resolved output id so repeated
// analyses against the same output only hit disk once. Safe for concurrent
// use: validators run concurrently across asset classes and analyses, but
// the underlying Reader seeks its file on every read, so access is
// serialised through mu.
type DataExtractor struct {
	cfg    *config.Configuration
	reader *codec.Reader

	mu    sync.Mutex
	cache map[string][][]float64
}

// NewDataExtractor builds a DataExtractor over an already-open reader and
// the configuration that produced it.
func NewDataExtractor(cfg *config.Configuration, reader *codec.Reader) *DataExtractor {
	return &DataExtractor{cfg: cfg, reader: reader, cache: make(map[string][][]float64)}
}

// AnnualisationFactor returns the number of projection steps per year for
// the configuration's projection frequency.
func (d *DataExtractor) AnnualisationFactor() (float64, error) {
	return d.cfg.ProjectionFrequency.AnnualisationFactor()
}

// AssetClass resolves an asset class by id across every economy.
func (d *DataExtractor) AssetClass(assetClassID string) (*config.AssetClass, error) {
	for _, assetClass := range d.cfg.AllAssetClasses() {
		if assetClass.ID == assetClassID {
			return assetClass, nil
		}
	}
	return nil, pyesgerr.New(pyesgerr.OutputNotFound, "asset class %q not found", assetClassID)
}

// GetOutput finds the declared output of the given type and parameters on
// assetClass, matching parameters by value equality.
func (d *DataExtractor) GetOutput(assetClass *config.AssetClass, outputType string, parameters config.Parameters) (*config.Output, error) {
	for _, output := range assetClass.Outputs {
		if output.Type != outputType {
			continue
		}
		if parametersEqual(output.Parameters, parameters) {
			return output, nil
		}
	}
	return nil, pyesgerr.New(pyesgerr.OutputNotFound, "asset class %q has no %q output matching %v", assetClass.ID, outputType, parameters)
}

// GetOutputSimulations returns the full simulated path table (sim-major,
// one row per simulation, one column per time step including step 0) for
// the declared output matching outputType and parameters on assetClass.
func (d *DataExtractor) GetOutputSimulations(assetClass *config.AssetClass, outputType string, parameters config.Parameters) ([][]float64, error) {
	output, err := d.GetOutput(assetClass, outputType, parameters)
	if err != nil {
		return nil, err
	}
	return d.getByOutputID(output.ID)
}

func (d *DataExtractor) getByOutputID(outputID string) ([][]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.cache[outputID]; ok {
		return cached, nil
	}
	paths, err := d.reader.PathsForOutput(outputID)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, len(paths))
	for i, path := range paths {
		row := make([]float64, len(path))
		for j, v := range path {
			row[j] = float64(v)
		}
		rows[i] = row
	}
	d.cache[outputID] = rows
	return rows, nil
}

func parametersEqual(a, b config.Parameters) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]float64(a), map[string]float64(b))
}
