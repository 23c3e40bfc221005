package validate

import (
	"math"
	"testing"
)

func TestInvNorm_KnownQuantiles(t *testing.T) {
	cases := []struct {
		p, want float64
	}{
		{0.5, 0.0},
		{0.975, 1.959964},
		{0.025, -1.959964},
	}
	for _, c := range cases {
		got := invNorm(c.p)
		if math.Abs(got-c.want) > 1e-4 {
			t.Errorf("invNorm(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestMeanAndConfidenceInterval_ConstantColumn(t *testing.T) {
	data := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	mean, lower, upper := meanAndConfidenceInterval(data, 0.95)
	for i := range mean {
		if mean[i] != 1 {
			t.Errorf("mean[%d] = %v, want 1", i, mean[i])
		}
		if lower[i] != 1 || upper[i] != 1 {
			t.Errorf("CI[%d] = [%v, %v], want [1, 1] for a zero-variance column", i, lower[i], upper[i])
		}
	}
}

func TestMeanAndConfidenceInterval_WidensWithVariance(t *testing.T) {
	data := [][]float64{{0}, {1}, {2}, {3}, {4}}
	mean, lower, upper := meanAndConfidenceInterval(data, 0.95)
	if mean[0] != 2 {
		t.Fatalf("mean = %v, want 2", mean[0])
	}
	if !(lower[0] < mean[0] && mean[0] < upper[0]) {
		t.Fatalf("expected lower < mean < upper, got [%v, %v, %v]", lower[0], mean[0], upper[0])
	}
}

func TestLogReturns(t *testing.T) {
	data := [][]float64{{100, 110, 121}}
	returns := logReturns(data)
	if len(returns[0]) != 2 {
		t.Fatalf("len(returns[0]) = %d, want 2", len(returns[0]))
	}
	want := math.Log(1.1)
	for _, r := range returns[0] {
		if math.Abs(r-want) > 1e-9 {
			t.Errorf("log return = %v, want %v", r, want)
		}
	}
}

func TestMoments_ZeroVarianceSeries(t *testing.T) {
	data := [][]float64{{0.01}, {0.01}, {0.01}}
	mean, vol, skew, kurt := moments(data, 1.0)
	if math.Abs(mean[0]-0.01) > 1e-9 {
		t.Errorf("mean = %v, want 0.01", mean[0])
	}
	if vol[0] != 0 {
		t.Errorf("volatility = %v, want 0 for a constant series", vol[0])
	}
	if skew[0] != 0 || kurt[0] != 0 {
		t.Errorf("skew/kurtosis = %v/%v, want 0/0 for a constant series", skew[0], kurt[0])
	}
}
