// Package yieldcurve implements a piecewise-linear continuously-compounded
// spot-rate curve and the zero-coupon bond prices derived from it.
package yieldcurve

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"pyesg/internal/pyesgerr"
)

// Curve is a piecewise-linear yield curve. Points may be added in any
// order; the curve sorts and caches its bounds lazily on first query.
type Curve struct {
	points  map[float64]float64
	terms   []float64
	rates   []float64
	sorted  bool
	minTerm float64
	maxTerm float64
}

// New returns an empty curve with the implicit (0, 0) point.
func New() *Curve {
	return &Curve{
		points: map[float64]float64{0: 0},
	}
}

// AddPoint adds or replaces a point on the curve.
func (c *Curve) AddPoint(term, rate float64) {
	c.points[term] = rate
	c.sorted = false
}

func (c *Curve) resort() {
	c.terms = c.terms[:0]
	for t := range c.points {
		c.terms = append(c.terms, t)
	}
	sort.Float64s(c.terms)
	c.rates = make([]float64, len(c.terms))
	for i, t := range c.terms {
		c.rates[i] = c.points[t]
	}
	c.minTerm = c.terms[0]
	c.maxTerm = c.terms[len(c.terms)-1]
	c.sorted = true
}

// Rate returns the continuously compounded spot rate for the given term,
// interpolating linearly between the nearest stored points if the term
// was not specified exactly.
func (c *Curve) Rate(term float64) (float64, error) {
	if term < 0 {
		return 0, pyesgerr.New(pyesgerr.YieldCurveDomain, "negative term %v", term)
	}
	if rate, ok := c.points[term]; ok {
		return rate, nil
	}

	if !c.sorted {
		c.resort()
	}
	if len(c.terms) == 0 {
		return 0, pyesgerr.New(pyesgerr.YieldCurveDomain, "no points on yield curve")
	}
	if term > c.maxTerm {
		return 0, pyesgerr.New(pyesgerr.YieldCurveDomain, "term %v exceeds maximum term %v", term, c.maxTerm)
	}
	if term < c.minTerm {
		return 0, pyesgerr.New(pyesgerr.YieldCurveDomain, "term %v is below minimum term %v", term, c.minTerm)
	}

	// Find the index of the first stored term strictly after `term`.
	idxAfter := sort.SearchFloat64s(c.terms, term)
	termAfter := c.terms[idxAfter]
	termBefore := c.terms[idxAfter-1]
	rateAfter := c.rates[idxAfter]
	rateBefore := c.rates[idxAfter-1]

	return rateBefore + (term-termBefore)/(termAfter-termBefore)*(rateAfter-rateBefore), nil
}

// ZCBPrice returns the zero-coupon bond price P(t) = exp(-t*r(t)) for the
// given term.
func (c *Curve) ZCBPrice(term float64) (float64, error) {
	rate, err := c.Rate(term)
	if err != nil {
		return 0, err
	}
	return math.Exp(-term * rate), nil
}

// ExtractFromParameters builds a Curve from any parameter whose key has
// the form "yc_<term>", using the value as the rate for that term.
func ExtractFromParameters(parameters map[string]float64) (*Curve, error) {
	curve := New()
	const prefix = "yc_"
	for key, value := range parameters {
		if !strings.HasPrefix(strings.ToLower(key), prefix) {
			continue
		}
		termStr := key[len(prefix):]
		term, err := strconv.ParseFloat(termStr, 64)
		if err != nil {
			return nil, pyesgerr.Wrap(pyesgerr.ConfigInvalid, err, "malformed yield curve parameter %q", key)
		}
		curve.AddPoint(term, value)
	}
	return curve, nil
}
