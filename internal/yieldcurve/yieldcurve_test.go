package yieldcurve

import (
	"math"
	"testing"

	"pyesg/internal/pyesgerr"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRate_ExactPoint(t *testing.T) {
	c := New()
	c.AddPoint(5, 0.03)
	c.AddPoint(10, 0.04)

	got, err := c.Rate(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(got, 0.03) {
		t.Errorf("Rate(5) = %v, want 0.03", got)
	}
}

func TestRate_ImplicitZero(t *testing.T) {
	c := New()
	c.AddPoint(5, 0.03)

	got, err := c.Rate(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("Rate(0) = %v, want 0", got)
	}
}

func TestRate_Interpolation(t *testing.T) {
	c := New()
	c.AddPoint(0, 0)
	c.AddPoint(10, 0.10)

	got, err := c.Rate(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.05
	if !approxEqual(got, want) {
		t.Errorf("Rate(5) = %v, want %v", got, want)
	}
}

func TestRate_UnsortedInsertOrder(t *testing.T) {
	c := New()
	c.AddPoint(10, 0.10)
	c.AddPoint(2, 0.02)
	c.AddPoint(6, 0.06)

	got, err := c.Rate(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.04
	if !approxEqual(got, want) {
		t.Errorf("Rate(4) = %v, want %v", got, want)
	}
}

func TestRate_OutOfRange(t *testing.T) {
	c := New()
	c.AddPoint(1, 0.01)
	c.AddPoint(40, 0.05)

	_, err := c.Rate(41)
	if !pyesgerr.Is(err, pyesgerr.YieldCurveDomain) {
		t.Fatalf("expected YieldCurveDomain error, got %v", err)
	}
}

func TestRate_NegativeTerm(t *testing.T) {
	c := New()
	c.AddPoint(1, 0.01)

	_, err := c.Rate(-1)
	if !pyesgerr.Is(err, pyesgerr.YieldCurveDomain) {
		t.Fatalf("expected YieldCurveDomain error, got %v", err)
	}
}

func TestZCBPrice(t *testing.T) {
	c := New()
	c.AddPoint(0, 0)
	c.AddPoint(1, 0.05)

	price, err := c.ZCBPrice(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Exp(-0.05)
	if !approxEqual(price, want) {
		t.Errorf("ZCBPrice(1) = %v, want %v", price, want)
	}
}

func TestZCBPrice_AtZero(t *testing.T) {
	c := New()
	c.AddPoint(0, 0)
	c.AddPoint(1, 0.05)

	price, err := c.ZCBPrice(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(price, 1.0) {
		t.Errorf("ZCBPrice(0) = %v, want 1.0", price)
	}
}

func TestExtractFromParameters(t *testing.T) {
	params := map[string]float64{
		"alpha":  0.05,
		"sigma":  0.02,
		"yc_0.5": 0.01,
		"yc_1":   0.015,
		"yc_10":  0.03,
	}
	curve, err := ExtractFromParameters(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rate, err := curve.Rate(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(rate, 0.015) {
		t.Errorf("Rate(1) = %v, want 0.015", rate)
	}

	rate, err = curve.Rate(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(rate, 0.01) {
		t.Errorf("Rate(0.5) = %v, want 0.01", rate)
	}
}

func TestExtractFromParameters_MalformedSuffix(t *testing.T) {
	params := map[string]float64{
		"yc_notanumber": 0.01,
	}
	_, err := ExtractFromParameters(params)
	if !pyesgerr.Is(err, pyesgerr.ConfigInvalid) {
		t.Fatalf("expected ConfigInvalid error, got %v", err)
	}
}
