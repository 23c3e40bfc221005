package engine

import (
	"time"

	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

// Settings flattens a Configuration into the values the simulation driver
// actually consumes: asset class and output ordering, projection dates,
// the random driver correlation structure (as a Cholesky factor, ready for
// sampling), and a seeded generator.
type Settings struct {
	Config *config.Configuration

	AssetClassIDs   []string
	AssetClasses    []*config.AssetClass
	OutputIDs       []string
	RandomDriverIDs []string

	NumberOfOutputs       int
	NumberOfRandomDrivers int

	AnnualisationFactor float64
	ProjectionDates     []time.Time

	CorrelationCholesky [][]float64

	RNG *SeededRNG

	BatchSize int
}

// NewSettings builds a Settings from cfg. cfg must already have passed
// Configuration.Validate.
func NewSettings(cfg *config.Configuration) (*Settings, error) {
	assetClasses := cfg.AllAssetClasses()
	assetClassIDs := make([]string, len(assetClasses))
	for i, ac := range assetClasses {
		assetClassIDs[i] = ac.ID
	}

	outputIDs := cfg.AllOutputIDs()
	driverIDs := cfg.AllRandomDriverIDs()

	annualisationFactor, err := cfg.ProjectionFrequency.AnnualisationFactor()
	if err != nil {
		return nil, err
	}

	projectionDates, err := buildProjectionDates(cfg)
	if err != nil {
		return nil, err
	}

	matrix := buildCorrelationMatrix(driverIDs, cfg.Correlations.Get)
	cholesky, err := choleskyDecompose(matrix)
	if err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "building random driver correlation structure")
	}

	s := &Settings{
		Config:                cfg,
		AssetClassIDs:         assetClassIDs,
		AssetClasses:          assetClasses,
		OutputIDs:             outputIDs,
		RandomDriverIDs:       driverIDs,
		NumberOfOutputs:       len(outputIDs),
		NumberOfRandomDrivers: len(driverIDs),
		AnnualisationFactor:   annualisationFactor,
		ProjectionDates:       projectionDates,
		CorrelationCholesky:   cholesky,
		RNG:                   NewSeededRNG(cfg.RandomSeed),
		BatchSize:             cfg.NumberOfSimulations / cfg.NumberOfBatches,
	}

	if err := validateSettings(s); err != nil {
		return nil, err
	}

	return s, nil
}

// buildProjectionDates returns the projection dates for the configuration,
// including the initial step, using calendar-exact stepping rather than a
// fixed day count: an "annually" projection from 2026-01-31 lands on
// 2027-01-31, 2028-01-31, etc., matching what a real cashflow schedule
// would do.
func buildProjectionDates(cfg *config.Configuration) ([]time.Time, error) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "parsing start_date %q", cfg.StartDate)
	}

	var step func(t time.Time, steps int) time.Time
	switch cfg.ProjectionFrequency {
	case config.Annually:
		step = func(t time.Time, steps int) time.Time { return t.AddDate(steps, 0, 0) }
	case config.Monthly:
		step = func(t time.Time, steps int) time.Time { return t.AddDate(0, steps, 0) }
	case config.Weekly:
		step = func(t time.Time, steps int) time.Time { return t.AddDate(0, 0, 7*steps) }
	default:
		return nil, pyesgerr.New(pyesgerr.ConfigInvalid, "unknown projection frequency %q", cfg.ProjectionFrequency)
	}

	dates := make([]time.Time, cfg.NumberOfProjectionSteps+1)
	for i := range dates {
		dates[i] = step(start, i)
	}
	return dates, nil
}

// validateSettings checks high level invariants that only make sense once
// the configuration has been flattened: duplicate ids across the whole
// run, and a batch size that evenly divides the simulation count.
func validateSettings(s *Settings) error {
	if s.Config.NumberOfSimulations%s.Config.NumberOfBatches != 0 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "number_of_simulations (%d) must be a multiple of number_of_batches (%d)", s.Config.NumberOfSimulations, s.Config.NumberOfBatches)
	}

	if dup := firstDuplicate(s.AssetClassIDs); dup != "" {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate asset class id %q", dup)
	}
	if dup := firstDuplicate(s.OutputIDs); dup != "" {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate output id %q", dup)
	}
	if dup := firstDuplicate(s.RandomDriverIDs); dup != "" {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "duplicate random driver id %q", dup)
	}

	for _, assetClass := range s.AssetClasses {
		for _, dependencyID := range assetClass.Dependencies {
			if !contains(s.AssetClassIDs, dependencyID) {
				return pyesgerr.New(pyesgerr.ConfigInvalid, "asset class %q depends on unknown asset class %q", assetClass.ID, dependencyID)
			}
		}
	}

	for _, key := range s.Config.Correlations.Keys() {
		rowID, columnID := key[0], key[1]
		if !contains(s.RandomDriverIDs, rowID) {
			return pyesgerr.New(pyesgerr.ConfigInvalid, "correlation entry references unknown random driver %q", rowID)
		}
		if !contains(s.RandomDriverIDs, columnID) {
			return pyesgerr.New(pyesgerr.ConfigInvalid, "correlation entry references unknown random driver %q", columnID)
		}
	}

	return nil
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id
		}
		seen[id] = true
	}
	return ""
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
