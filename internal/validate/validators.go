package validate

import (
	"math"
	"sort"
	"strings"

	"pyesg/internal/config"
	"pyesg/internal/engine"
	"pyesg/internal/pyesgerr"
	"pyesg/internal/yieldcurve"
)

const defaultConfidenceLevel = 0.95

// validatorFunc performs one named analysis against one asset class.
type validatorFunc func(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error)

// validators lists every analysis id this package knows how to run.
// discounted_bond_index is deliberately absent: bond_index is never
// produced by any model kernel (see engine's hull_white/black_scholes
// dispatch), so no validator exists for it either.
var validators = map[string]validatorFunc{
	AnalysisAverageDiscountFactor:            validateAverageDiscountFactor,
	AnalysisDiscountedZeroCouponBond:         validateDiscountedZeroCouponBond,
	AnalysisDiscountedTotalReturnIndex:       validateDiscountedTotalReturnIndex,
	AnalysisTotalReturnIndexLogReturnMoments: validateTRILogReturnMoments,
}

// Validate dispatches analysis to the validator registered for its id.
func Validate(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error) {
	fn, ok := validators[analysis.ID]
	if !ok {
		return nil, pyesgerr.New(pyesgerr.OutputNotSupported, "validation analysis %q is not supported", analysis.ID)
	}
	return fn(extractor, assetClass, analysis)
}

func confidenceLevel(params config.Parameters) float64 {
	if v, ok := params["confidence_level"]; ok {
		return v
	}
	return defaultConfidenceLevel
}

// extractTerms collects the values of every "term_<n>" parameter, ordered
// by key, mirroring the yield curve's "yc_<term>" parameter convention.
func extractTerms(params config.Parameters) []float64 {
	var keys []string
	for key := range params {
		if strings.HasPrefix(key, "term_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	terms := make([]float64, len(keys))
	for i, key := range keys {
		terms[i] = params[key]
	}
	return terms
}

func priceToYield(time, price float64) float64 {
	return -math.Log(price) / time
}

func curveFor(assetClass *config.AssetClass) (*yieldcurve.Curve, error) {
	return yieldcurve.ExtractFromParameters(assetClass.Parameters)
}

// validateAverageDiscountFactor checks the discount factor against the
// yield curve it was built from. Step 0 is skipped: the discount factor is
// deterministically 1 there, so it carries no information to validate.
func validateAverageDiscountFactor(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error) {
	full, err := extractor.GetOutputSimulations(assetClass, engine.OutputDiscountFactor, config.Parameters{})
	if err != nil {
		return nil, err
	}
	f, err := extractor.AnnualisationFactor()
	if err != nil {
		return nil, err
	}
	curve, err := curveFor(assetClass)
	if err != nil {
		return nil, err
	}

	data := dropFirstColumn(full)
	sampleMean, lowerCI, upperCI := meanAndConfidenceInterval(data, confidenceLevel(analysis.Parameters))

	numSteps := len(data[0])
	series := MartingaleSeries{
		Time:                    make([]float64, numSteps),
		SampleMean:              make([]float64, numSteps),
		LowerConfidenceInterval: make([]float64, numSteps),
		UpperConfidenceInterval: make([]float64, numSteps),
		ExpectedValue:           make([]float64, numSteps),
	}
	for i := 0; i < numSteps; i++ {
		t := float64(i+1) / f
		series.Time[i] = t
		series.SampleMean[i] = priceToYield(t, sampleMean[i])
		// Yield and price move inversely: the price CI's upper bound maps
		// to the yield CI's lower bound, and vice versa.
		series.LowerConfidenceInterval[i] = priceToYield(t, upperCI[i])
		series.UpperConfidenceInterval[i] = priceToYield(t, lowerCI[i])
		expected, err := curve.Rate(t)
		if err != nil {
			return nil, err
		}
		series.ExpectedValue[i] = expected
	}

	return &Result{
		AssetClassID: assetClass.ID,
		AnalysisID:   AnalysisAverageDiscountFactor,
		ResultType:   ResultTypeMartingale,
		Results:      series,
	}, nil
}

// validateDiscountedTotalReturnIndex checks the total return index paths,
// as stored and with no discount factor applied here, against their
// constant initial value. Unlike the
// discount-factor checks this analysis includes step 0 and applies no
// price-to-yield transform, since a total return index is not a bond
// price.
func validateDiscountedTotalReturnIndex(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error) {
	output, err := extractor.GetOutput(assetClass, engine.OutputTotalReturnIndex, config.Parameters{})
	if err != nil {
		return nil, err
	}
	full, err := extractor.GetOutputSimulations(assetClass, engine.OutputTotalReturnIndex, config.Parameters{})
	if err != nil {
		return nil, err
	}
	f, err := extractor.AnnualisationFactor()
	if err != nil {
		return nil, err
	}

	sampleMean, lowerCI, upperCI := meanAndConfidenceInterval(full, confidenceLevel(analysis.Parameters))

	var initial float64
	if output.InitialValue != nil {
		initial = *output.InitialValue
	}

	numSteps := len(full[0])
	series := MartingaleSeries{
		Time:                    make([]float64, numSteps),
		SampleMean:              sampleMean,
		LowerConfidenceInterval: lowerCI,
		UpperConfidenceInterval: upperCI,
		ExpectedValue:           make([]float64, numSteps),
	}
	for i := 0; i < numSteps; i++ {
		series.Time[i] = float64(i) / f
		series.ExpectedValue[i] = initial
	}

	return &Result{
		AssetClassID: assetClass.ID,
		AnalysisID:   AnalysisDiscountedTotalReturnIndex,
		ResultType:   ResultTypeMartingale,
		Results:      series,
	}, nil
}

// validateDiscountedZeroCouponBond checks discount_factor * zero_coupon_bond
// against the yield curve, once per requested term.
func validateDiscountedZeroCouponBond(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error) {
	terms := extractTerms(analysis.Parameters)
	f, err := extractor.AnnualisationFactor()
	if err != nil {
		return nil, err
	}
	curve, err := curveFor(assetClass)
	if err != nil {
		return nil, err
	}

	discountFactor, err := extractor.GetOutputSimulations(assetClass, engine.OutputDiscountFactor, config.Parameters{})
	if err != nil {
		return nil, err
	}

	results := make([]ZCBTermResult, 0, len(terms))
	for _, term := range terms {
		zcb, err := extractor.GetOutputSimulations(assetClass, engine.OutputZeroCouponBond, config.Parameters{"term": term})
		if err != nil {
			return nil, err
		}

		product := elementwiseProduct(discountFactor, zcb)
		data := dropFirstColumn(product)
		sampleMean, lowerCI, upperCI := meanAndConfidenceInterval(data, confidenceLevel(analysis.Parameters))

		numSteps := len(data[0])
		series := MartingaleSeries{
			Time:                    make([]float64, numSteps),
			SampleMean:              make([]float64, numSteps),
			LowerConfidenceInterval: make([]float64, numSteps),
			UpperConfidenceInterval: make([]float64, numSteps),
			ExpectedValue:           make([]float64, numSteps),
		}
		for i := 0; i < numSteps; i++ {
			t := float64(i+1) / f
			series.Time[i] = t
			series.SampleMean[i] = priceToYield(t+term, sampleMean[i])
			series.LowerConfidenceInterval[i] = priceToYield(t+term, upperCI[i])
			series.UpperConfidenceInterval[i] = priceToYield(t+term, lowerCI[i])
			expected, err := curve.Rate(t + term)
			if err != nil {
				return nil, err
			}
			series.ExpectedValue[i] = expected
		}

		results = append(results, ZCBTermResult{Term: term, MartingaleSeries: series})
	}

	return &Result{
		AssetClassID: assetClass.ID,
		AnalysisID:   AnalysisDiscountedZeroCouponBond,
		ResultType:   ResultTypeMartingale,
		Results:      results,
	}, nil
}

// validateTRILogReturnMoments reports the annualised moments of the total
// return index's log returns.
func validateTRILogReturnMoments(extractor *DataExtractor, assetClass *config.AssetClass, analysis *config.ValidationAnalysis) (*Result, error) {
	full, err := extractor.GetOutputSimulations(assetClass, engine.OutputTotalReturnIndex, config.Parameters{})
	if err != nil {
		return nil, err
	}
	f, err := extractor.AnnualisationFactor()
	if err != nil {
		return nil, err
	}

	returns := logReturns(full)
	mean, volatility, skewness, kurtosis := moments(returns, f)

	numSteps := len(returns[0])
	series := MomentsSeries{
		Time:       make([]float64, numSteps),
		Mean:       mean,
		Volatility: volatility,
		Skewness:   skewness,
		Kurtosis:   kurtosis,
	}
	for i := 0; i < numSteps; i++ {
		series.Time[i] = float64(i+1) / f
	}

	return &Result{
		AssetClassID: assetClass.ID,
		AnalysisID:   AnalysisTotalReturnIndexLogReturnMoments,
		ResultType:   ResultTypeMoments,
		Results:      series,
	}, nil
}

func dropFirstColumn(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = row[1:]
	}
	return out
}

func elementwiseProduct(a, b [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i := range a {
		row := make([]float64, len(a[i]))
		for j := range row {
			row[j] = a[i][j] * b[i][j]
		}
		out[i] = row
	}
	return out
}
