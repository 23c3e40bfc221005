package engine

import (
	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
	"pyesg/internal/yieldcurve"
)

// Recognised model ids.
const (
	ModelHullWhite    = "hull_white"
	ModelBlackScholes = "black_scholes"
)

// Recognised output types. bond_index is a placeholder: the source never
// wires a kernel to it (see newHullWhiteKernel), so it always fails with
// OutputNotSupported, matching the original's actual behaviour.
const (
	OutputBondIndex       = "bond_index"
	OutputCashAccount      = "cash_account"
	OutputDiscountFactor   = "discount_factor"
	OutputZeroCouponBond   = "zero_coupon_bond"
	OutputTotalReturnIndex = "total_return_index"
	OutputBrownianMotion   = "brownian_motion"
	OutputOUProcess        = "ou_process"
)

// Model is one asset class's live model instance: its declared and
// dependency-created output nodes, the random driver columns assigned to
// it for the current batch, and (Hull-White only) the yield curve
// extracted from its parameters.
type Model struct {
	Graph      *Graph
	AssetClass *config.AssetClass
	Outputs    []*Node

	// RandomSamples holds this model's driver columns for the current
	// batch, shaped [step-1][sim][local driver index], covering
	// projection steps 1..T. Assigned once per batch by the driver.
	RandomSamples [][][]float64

	YieldCurve *yieldcurve.Curve
}

// NewModel validates the asset class's model id and, for Hull-White,
// extracts its yield curve from its parameters.
func NewModel(graph *Graph, assetClass *config.AssetClass) (*Model, error) {
	if !isSupportedModelID(assetClass.ModelID) {
		return nil, pyesgerr.New(pyesgerr.ModelNotSupported, "asset class %q references unknown model %q", assetClass.ID, assetClass.ModelID)
	}

	m := &Model{Graph: graph, AssetClass: assetClass}

	if assetClass.ModelID == ModelHullWhite {
		curve, err := yieldcurve.ExtractFromParameters(assetClass.Parameters)
		if err != nil {
			return nil, err
		}
		m.YieldCurve = curve
	}

	return m, nil
}

func isSupportedModelID(modelID string) bool {
	return modelID == ModelHullWhite || modelID == ModelBlackScholes
}

// InitialiseDeclaredOutputs creates a node for every output the asset
// class declares, assigning it a global output index starting at
// startIndex, and returns the next free index. Kernel.Initialise is
// deliberately not called here: the driver calls it in a later pass, once
// every model's declared outputs exist, so a kernel's GetOrCreate can
// reach any other model's outputs by asset class id.
func (m *Model) InitialiseDeclaredOutputs(startIndex int) (int, error) {
	nextIndex := startIndex
	for _, spec := range m.AssetClass.Outputs {
		node, err := m.newOutputNode(spec, nextIndex)
		if err != nil {
			return 0, err
		}
		m.Outputs = append(m.Outputs, node)
		m.Graph.UserDeclaredOutputs = append(m.Graph.UserDeclaredOutputs, node)
		nextIndex++
	}
	return nextIndex, nil
}

func (m *Model) newOutputNode(spec *config.Output, outputIndex int) (*Node, error) {
	kernel, err := newKernel(m.AssetClass.ModelID, spec.Type)
	if err != nil {
		return nil, err
	}
	return newNode(m, spec, outputIndex, kernel), nil
}

// GetRandomSample returns the batch-size vector of driver samples for
// this model's localDriverIndex-th random driver at the given projection
// step (1-indexed; step 0 is deterministic and never calls this).
func (m *Model) GetRandomSample(step, localDriverIndex int) []float64 {
	layer := m.RandomSamples[step-1]
	out := make([]float64, len(layer))
	for sim, row := range layer {
		out[sim] = row[localDriverIndex]
	}
	return out
}

func newKernel(modelID, outputType string) (Kernel, error) {
	switch modelID {
	case ModelHullWhite:
		return newHullWhiteKernel(outputType)
	case ModelBlackScholes:
		return newBlackScholesKernel(outputType)
	default:
		return nil, pyesgerr.New(pyesgerr.ModelNotSupported, "unknown model %q", modelID)
	}
}

// requireParameter looks up a named parameter, failing fast rather than
// silently defaulting, since a missing alpha/sigma/term is a configuration
// mistake, not a legitimate zero.
func requireParameter(params config.Parameters, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, pyesgerr.New(pyesgerr.ConfigInvalid, "missing required parameter %q", key)
	}
	return v, nil
}
