package engine

import (
	"math"

	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

// newHullWhiteKernel dispatches a Hull-White output type to its kernel.
// bond_index is a recognised output type (see models.go) but no kernel is
// defined for it: the source model's output_class_mapping never included
// it either, so requesting it fails with OutputNotSupported exactly as it
// would upstream.
func newHullWhiteKernel(outputType string) (Kernel, error) {
	switch outputType {
	case OutputBrownianMotion:
		return &brownianMotionKernel{}, nil
	case OutputOUProcess:
		return &ouProcessKernel{}, nil
	case OutputDiscountFactor:
		return &discountFactorKernel{}, nil
	case OutputCashAccount:
		return &cashAccountKernel{}, nil
	case OutputZeroCouponBond:
		return &zeroCouponBondKernel{}, nil
	default:
		return nil, pyesgerr.New(pyesgerr.OutputNotSupported, "hull_white model has no output type %q", outputType)
	}
}

func zeroInitialValue() *float64 {
	v := 0.0
	return &v
}

// brownianMotionKernel drives B_s = B_{s-1} + sqrt(1/f)*Z_s, B_0 = 0.
type brownianMotionKernel struct{}

func (k *brownianMotionKernel) Initialise(n *Node) error {
	n.Spec.InitialValue = zeroInitialValue()
	return nil
}

func (k *brownianMotionKernel) Compute(n *Node, step int) ([]float64, error) {
	f := n.Model.Graph.Settings.AnnualisationFactor
	z := n.Model.GetRandomSample(step, 0)
	out := make([]float64, len(z))
	scale := math.Sqrt(1.0 / f)
	for i, prev := range n.Current {
		out[i] = prev + scale*z[i]
	}
	return out, nil
}

// ouProcessKernel drives X_s = exp(-alpha/f)*X_{s-1} + sqrt((1-exp(-2*alpha/f))/(2*alpha))*Z_s, X_0 = 0.
type ouProcessKernel struct {
	alpha float64
}

func (k *ouProcessKernel) Initialise(n *Node) error {
	alpha, err := requireParameter(n.Model.AssetClass.Parameters, "alpha")
	if err != nil {
		return err
	}
	k.alpha = alpha
	n.Spec.InitialValue = zeroInitialValue()
	return nil
}

func (k *ouProcessKernel) Compute(n *Node, step int) ([]float64, error) {
	f := n.Model.Graph.Settings.AnnualisationFactor
	dt := 1.0 / f
	previousStepFactor := math.Exp(-k.alpha * dt)
	incrementVariance := (1.0 - math.Exp(-2.0*k.alpha*dt)) / (2.0 * k.alpha)
	incrementScale := math.Sqrt(incrementVariance)

	z := n.Model.GetRandomSample(step, 0)
	out := make([]float64, len(z))
	for i, prev := range n.Current {
		out[i] = previousStepFactor*prev + incrementScale*z[i]
	}
	return out, nil
}

// discountFactorKernel computes D_s = P(t) * exp(-(A + C*B_s - C*X_s)).
type discountFactorKernel struct {
	alpha, sigma float64
	brownianNode *Node
	ouNode       *Node
}

func (k *discountFactorKernel) Initialise(n *Node) error {
	alpha, err := requireParameter(n.Model.AssetClass.Parameters, "alpha")
	if err != nil {
		return err
	}
	sigma, err := requireParameter(n.Model.AssetClass.Parameters, "sigma")
	if err != nil {
		return err
	}
	k.alpha, k.sigma = alpha, sigma

	brownianNode, err := n.GetOrCreate(OutputBrownianMotion, config.Parameters{}, "")
	if err != nil {
		return err
	}
	ouNode, err := n.GetOrCreate(OutputOUProcess, config.Parameters{}, "")
	if err != nil {
		return err
	}
	k.brownianNode, k.ouNode = brownianNode, ouNode
	return nil
}

func (k *discountFactorKernel) Compute(n *Node, step int) ([]float64, error) {
	f := n.Model.Graph.Settings.AnnualisationFactor
	t := float64(step) / f

	zcb, err := n.Model.YieldCurve.ZCBPrice(t)
	if err != nil {
		return nil, err
	}

	brownian, err := k.brownianNode.ValueAt(step)
	if err != nil {
		return nil, err
	}
	ou, err := k.ouNode.ValueAt(step)
	if err != nil {
		return nil, err
	}

	alpha, sigma := k.alpha, k.sigma
	termA := (sigma * sigma) / (4 * alpha * alpha * alpha) *
		(2*alpha*t - 3 + 4*math.Exp(-alpha*t) - math.Exp(-2*alpha*t))
	c := sigma / alpha

	out := make([]float64, len(brownian))
	for i := range out {
		out[i] = zcb * math.Exp(-(termA + c*brownian[i] - c*ou[i]))
	}
	return out, nil
}

// cashAccountKernel computes M_s = 1 / D_s.
type cashAccountKernel struct {
	discountFactorNode *Node
}

func (k *cashAccountKernel) Initialise(n *Node) error {
	node, err := n.GetOrCreate(OutputDiscountFactor, config.Parameters{}, "")
	if err != nil {
		return err
	}
	k.discountFactorNode = node
	return nil
}

func (k *cashAccountKernel) Compute(n *Node, step int) ([]float64, error) {
	discount, err := k.discountFactorNode.ValueAt(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(discount))
	for i, d := range discount {
		out[i] = 1.0 / d
	}
	return out, nil
}

// zeroCouponBondKernel computes the price of a zero-coupon bond of term
// tau maturing at t+tau:
//
//	ZCB_s = P(t+tau)/P(t) * exp(G - (sigma/alpha)*(1-exp(-alpha*tau))*X_s)
type zeroCouponBondKernel struct {
	alpha, sigma, term float64
	ouNode             *Node
}

func (k *zeroCouponBondKernel) Initialise(n *Node) error {
	alpha, err := requireParameter(n.Model.AssetClass.Parameters, "alpha")
	if err != nil {
		return err
	}
	sigma, err := requireParameter(n.Model.AssetClass.Parameters, "sigma")
	if err != nil {
		return err
	}
	term, err := requireParameter(n.Spec.Parameters, "term")
	if err != nil {
		return err
	}
	k.alpha, k.sigma, k.term = alpha, sigma, term

	ouNode, err := n.GetOrCreate(OutputOUProcess, config.Parameters{}, "")
	if err != nil {
		return err
	}
	k.ouNode = ouNode
	return nil
}

func (k *zeroCouponBondKernel) Compute(n *Node, step int) ([]float64, error) {
	f := n.Model.Graph.Settings.AnnualisationFactor
	t := float64(step) / f
	alpha, sigma, tau := k.alpha, k.sigma, k.term

	detTerm := (sigma * sigma) / (4.0 * alpha * alpha * alpha) * (
		(1.0-math.Exp(-2.0*alpha*tau))*(1.0-math.Exp(-2.0*alpha*t)) -
			4.0*(1.0-math.Exp(-alpha*tau))*(1.0-math.Exp(-alpha*t)))
	stochScale := sigma / alpha * (1.0 - math.Exp(-alpha*tau))

	zcbNow, err := n.Model.YieldCurve.ZCBPrice(t)
	if err != nil {
		return nil, err
	}
	zcbExpiry, err := n.Model.YieldCurve.ZCBPrice(t + tau)
	if err != nil {
		return nil, err
	}

	ou, err := k.ouNode.ValueAt(step)
	if err != nil {
		return nil, err
	}

	ratio := zcbExpiry / zcbNow
	out := make([]float64, len(ou))
	for i, x := range ou {
		out[i] = ratio * math.Exp(detTerm-stochScale*x)
	}
	return out, nil
}
