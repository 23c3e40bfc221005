package validate

// Result type tags, matching the two families of analysis this package
// performs: a martingale check compares a discounted, risk-neutral price
// against its theoretical expectation; a moments report summarises the
// distribution of an output's log returns.
const (
	ResultTypeMartingale = "martingale"
	ResultTypeMoments    = "moments"
)

// Analysis id strings, matching the ids a ValidationAnalysis names.
const (
	AnalysisAverageDiscountFactor       = "average_discount_factor"
	AnalysisDiscountedBondIndex         = "discounted_bond_index"
	AnalysisDiscountedTotalReturnIndex  = "discounted_total_return_index"
	AnalysisDiscountedZeroCouponBond    = "discounted_zero_coupon_bond"
	AnalysisTotalReturnIndexLogReturnMoments = "total_return_index_log_return_moments"
)

// MartingaleSeries is a single time-indexed series of sample-mean and
// confidence-interval statistics against an expected (theoretical) value.
type MartingaleSeries struct {
	Time                  []float64 `json:"time"`
	SampleMean            []float64 `json:"sample_mean"`
	LowerConfidenceInterval []float64 `json:"lower_confidence_interval"`
	UpperConfidenceInterval []float64 `json:"upper_confidence_interval"`
	ExpectedValue         []float64 `json:"expected_value"`
}

// ZCBTermResult is one term's martingale series, as discounted_zero_coupon_bond
// reports one series per requested term.
type ZCBTermResult struct {
	Term float64 `json:"term"`
	MartingaleSeries
}

// MomentsSeries is a time-indexed series of annualised log-return moments.
type MomentsSeries struct {
	Time       []float64 `json:"time"`
	Mean       []float64 `json:"mean"`
	Volatility []float64 `json:"volatility"`
	Skewness   []float64 `json:"skewness"`
	Kurtosis   []float64 `json:"kurtosis"`
}

// Result is the outer envelope returned for every validation analysis.
type Result struct {
	AssetClassID string `json:"asset_class_id"`
	AnalysisID   string `json:"analysis_id"`
	ResultType   string `json:"result_type"`
	Results      any    `json:"results"`
}
