package engine

import (
	"math"

	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

func newBlackScholesKernel(outputType string) (Kernel, error) {
	switch outputType {
	case OutputTotalReturnIndex:
		return &totalReturnIndexKernel{}, nil
	default:
		return nil, pyesgerr.New(pyesgerr.OutputNotSupported, "black_scholes model has no output type %q", outputType)
	}
}

// totalReturnIndexKernel computes the Black-Scholes total return index
// recurrence, using the discount factor of the asset class's first
// dependency (a Hull-White nominal rate economy) for the risk-free growth
// component.
type totalReturnIndexKernel struct {
	sigma              float64
	discountFactorNode *Node
}

func (k *totalReturnIndexKernel) Initialise(n *Node) error {
	sigma, err := requireParameter(n.Model.AssetClass.Parameters, "sigma")
	if err != nil {
		return err
	}
	k.sigma = sigma

	dependencies := n.Model.AssetClass.Dependencies
	if len(dependencies) == 0 {
		return pyesgerr.New(pyesgerr.ConfigInvalid, "asset class %q (black_scholes) declares no dependencies; a nominal rate asset class is required", n.Model.AssetClass.ID)
	}

	node, err := n.GetOrCreate(OutputDiscountFactor, config.Parameters{}, dependencies[0])
	if err != nil {
		return err
	}
	k.discountFactorNode = node
	return nil
}

// Compute implements TRI_s = TRI_{s-1} * exp(-sigma^2/(2f) + sigma*Z_s/f) * (D_{s-1}/D_s).
//
// The sigma*Z_s term is scaled by 1/f rather than the conventional
// sqrt(1/f); this is preserved from the source as-is (see the design
// notes on this model).
func (k *totalReturnIndexKernel) Compute(n *Node, step int) ([]float64, error) {
	f := n.Model.Graph.Settings.AnnualisationFactor
	z := n.Model.GetRandomSample(step, 0)

	// Force the discount factor's own node to advance to this step first,
	// so its Previous field holds the prior step's value afterwards.
	discountNow, err := k.discountFactorNode.ValueAt(step)
	if err != nil {
		return nil, err
	}
	discountPrevious := k.discountFactorNode.Previous

	out := make([]float64, len(z))
	for i, prev := range n.Current {
		expTerm := -0.5/f*k.sigma*k.sigma + k.sigma/f*z[i]
		nominalRateGrowth := discountPrevious[i] / discountNow[i]
		out[i] = prev * math.Exp(expTerm) * nominalRateGrowth
	}
	return out, nil
}
