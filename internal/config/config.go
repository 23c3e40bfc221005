// Package config holds the JSON-decodable configuration model for a pyESG
// run: the economies and asset classes to project, their outputs and
// parameters, the correlation matrix between random drivers, and the
// top-level run settings (simulation count, projection frequency, output
// location, random seed).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"pyesg/internal/pyesgerr"
)

// ProjectionFrequency is the calendar frequency at which projection steps
// are taken.
type ProjectionFrequency string

const (
	Annually ProjectionFrequency = "annually"
	Monthly  ProjectionFrequency = "monthly"
	Weekly   ProjectionFrequency = "weekly"
)

// AnnualisationFactor returns the number of projection steps per year for
// the frequency, used to scale volatility parameters.
func (f ProjectionFrequency) AnnualisationFactor() (float64, error) {
	switch f {
	case Annually:
		return 1.0, nil
	case Monthly:
		return 12.0, nil
	case Weekly:
		return 52.0, nil
	default:
		return 0, pyesgerr.New(pyesgerr.ConfigInvalid, "unknown projection frequency %q", f)
	}
}

// Parameters is a named set of floating point model parameters.
type Parameters map[string]float64

// Output describes a single model output to be produced for an asset
// class: a cash account, a zero-coupon bond at some term, a total return
// index and so on.
type Output struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	InitialValue *float64   `json:"initial_value"`
	Parameters   Parameters `json:"parameters"`
}

// AssetClass describes a single modelled asset class: the stochastic model
// driving it, the outputs to record, the random drivers it consumes, and
// the other asset classes it depends on (e.g. an equity model depending on
// a nominal rate model for its drift).
type AssetClass struct {
	ID            string     `json:"id"`
	ModelID       string     `json:"model_id"`
	Parameters    Parameters `json:"parameters"`
	Outputs       []*Output  `json:"outputs"`
	RandomDrivers []string   `json:"random_drivers"`
	Dependencies  []string   `json:"dependencies"`
}

// AddOutput appends a new output to the asset class's output list.
func (a *AssetClass) AddOutput(id, outputType string, initialValue *float64, parameters Parameters) {
	if parameters == nil {
		parameters = Parameters{}
	}
	a.Outputs = append(a.Outputs, &Output{
		ID:           id,
		Type:         outputType,
		InitialValue: initialValue,
		Parameters:   parameters,
	})
}

// Economy groups the asset classes being modelled for a single currency or
// region.
type Economy struct {
	ID           string        `json:"id"`
	AssetClasses []*AssetClass `json:"asset_classes"`
}

// correlationEntry is the wire representation of a single correlation
// matrix entry.
type correlationEntry struct {
	RowID       string  `json:"row_id"`
	ColumnID    string  `json:"column_id"`
	Correlation float64 `json:"correlation"`
}

// Correlations is a sparse representation of the correlation matrix
// between random drivers, keyed by an unordered pair of driver ids. Pairs
// not present default to zero correlation, and a driver always has
// correlation 1 with itself.
type Correlations struct {
	entries map[[2]string]float64
}

// NewCorrelations returns an empty correlation matrix.
func NewCorrelations() *Correlations {
	return &Correlations{entries: make(map[[2]string]float64)}
}

func correlationKey(rowID, columnID string) [2]string {
	if rowID <= columnID {
		return [2]string{rowID, columnID}
	}
	return [2]string{columnID, rowID}
}

// Get returns the correlation between two random drivers. It is 1 if the
// ids are equal, 0 if unspecified, and the set value otherwise.
func (c *Correlations) Get(rowID, columnID string) float64 {
	if rowID == columnID {
		return 1.0
	}
	if c == nil || c.entries == nil {
		return 0.0
	}
	return c.entries[correlationKey(rowID, columnID)]
}

// Set records the correlation between two distinct random drivers. Setting
// a driver's correlation with itself is a no-op, matching the diagonal
// being implicitly 1.
func (c *Correlations) Set(rowID, columnID string, correlation float64) {
	if rowID == columnID {
		return
	}
	if c.entries == nil {
		c.entries = make(map[[2]string]float64)
	}
	c.entries[correlationKey(rowID, columnID)] = correlation
}

// Keys returns the driver id pairs with an explicit correlation entry, in
// no particular order.
func (c *Correlations) Keys() [][2]string {
	if c == nil {
		return nil
	}
	keys := make([][2]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// MarshalJSON encodes the correlation matrix as a flat list of entries.
func (c *Correlations) MarshalJSON() ([]byte, error) {
	entries := make([]correlationEntry, 0, len(c.entries))
	for key, correlation := range c.entries {
		entries = append(entries, correlationEntry{RowID: key[0], ColumnID: key[1], Correlation: correlation})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes the correlation matrix from a flat list of entries.
func (c *Correlations) UnmarshalJSON(data []byte) error {
	var entries []correlationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "decoding correlations")
	}
	c.entries = make(map[[2]string]float64, len(entries))
	for _, e := range entries {
		c.Set(e.RowID, e.ColumnID, e.Correlation)
	}
	return nil
}

// Configuration is the full pyESG run configuration: the economies to
// project, run-level parameters such as simulation count and projection
// frequency, and the correlation structure across all random drivers.
type Configuration struct {
	NumberOfSimulations     int                 `json:"number_of_simulations"`
	NumberOfProjectionSteps int                 `json:"number_of_projection_steps"`
	OutputFileDirectory     string              `json:"output_file_directory"`
	OutputFileName          string              `json:"output_file_name"`
	ProjectionFrequency     ProjectionFrequency `json:"projection_frequency"`
	NumberOfBatches         int                 `json:"number_of_batches"`
	RandomSeed              int64               `json:"random_seed"`
	StartDate               string              `json:"start_date"`
	Economies               []*Economy          `json:"economies"`
	Correlations            *Correlations       `json:"correlations"`
}

// Default returns a Configuration with sensible defaults for a minimal,
// single-economy run. Callers add economies and asset classes before
// generating.
func Default() *Configuration {
	return &Configuration{
		NumberOfSimulations:     1000,
		NumberOfProjectionSteps: 40,
		OutputFileDirectory:     ".",
		OutputFileName:          "scenario.pyesg",
		ProjectionFrequency:     Annually,
		NumberOfBatches:         1,
		RandomSeed:              0,
		Correlations:            NewCorrelations(),
	}
}

// LoadFromFile reads and decodes a Configuration from a JSON file.
func LoadFromFile(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "reading configuration file %s", path)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "parsing configuration file %s", path)
	}
	return cfg, nil
}

// SaveToFile writes the configuration to path as indented JSON.
func (c *Configuration) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "encoding configuration")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pyesgerr.Wrap(pyesgerr.IOFailure, err, "writing configuration file %s", path)
	}
	return nil
}

// OutputPath returns the full path to the scenario artifact this
// configuration will generate.
func (c *Configuration) OutputPath() string {
	return fmt.Sprintf("%s/%s", c.OutputFileDirectory, c.OutputFileName)
}

// Validate checks the configuration's high level invariants: required
// ranges, a known projection frequency, and a batch count that evenly
// divides the simulation count.
func (c *Configuration) Validate() error {
	if c.NumberOfSimulations < 1 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "number_of_simulations must be at least 1, got %d", c.NumberOfSimulations)
	}
	if c.NumberOfProjectionSteps < 1 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "number_of_projection_steps must be at least 1, got %d", c.NumberOfProjectionSteps)
	}
	if c.NumberOfBatches < 1 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "number_of_batches must be at least 1, got %d", c.NumberOfBatches)
	}
	if c.NumberOfSimulations%c.NumberOfBatches != 0 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "number_of_simulations (%d) must be a multiple of number_of_batches (%d)", c.NumberOfSimulations, c.NumberOfBatches)
	}
	if _, err := c.ProjectionFrequency.AnnualisationFactor(); err != nil {
		return err
	}
	if c.OutputFileName == "" {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "output_file_name must not be empty")
	}

	seenAssetClasses := make(map[string]bool)
	seenOutputs := make(map[string]bool)
	seenDrivers := make(map[string]bool)
	for _, economy := range c.Economies {
		for _, assetClass := range economy.AssetClasses {
			if seenAssetClasses[assetClass.ID] {
				return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate asset class id %q", assetClass.ID)
			}
			seenAssetClasses[assetClass.ID] = true

			for _, output := range assetClass.Outputs {
				if seenOutputs[output.ID] {
					return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate output id %q", output.ID)
				}
				seenOutputs[output.ID] = true
			}
			for _, driver := range assetClass.RandomDrivers {
				if seenDrivers[driver] {
					return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate random driver id %q", driver)
				}
				seenDrivers[driver] = true
			}
		}
	}

	return nil
}

// AllAssetClasses returns every asset class across every economy, in
// declaration order.
func (c *Configuration) AllAssetClasses() []*AssetClass {
	var all []*AssetClass
	for _, economy := range c.Economies {
		all = append(all, economy.AssetClasses...)
	}
	return all
}

// AllOutputIDs returns the ids of every output across every asset class,
// in declaration order.
func (c *Configuration) AllOutputIDs() []string {
	var ids []string
	for _, assetClass := range c.AllAssetClasses() {
		for _, output := range assetClass.Outputs {
			ids = append(ids, output.ID)
		}
	}
	return ids
}

// AllRandomDriverIDs returns the ids of every random driver across every
// asset class, in declaration order.
func (c *Configuration) AllRandomDriverIDs() []string {
	var ids []string
	for _, assetClass := range c.AllAssetClasses() {
		ids = append(ids, assetClass.RandomDrivers...)
	}
	return ids
}
