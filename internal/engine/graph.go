package engine

import (
	"pyesg/internal/config"
	"pyesg/internal/pyesgerr"
)

// Graph owns every model in a run and the two lists the simulation driver
// walks each step: dependency-created outputs and user-declared outputs.
// It also owns the batch buffer outputs are written into as they are
// computed.
type Graph struct {
	Settings *Settings

	Models               []*Model
	modelsByAssetClassID map[string]*Model

	DependencyOutputs   []*Node
	UserDeclaredOutputs []*Node

	BatchSize   int
	BatchBuffer [][][]float32 // [outputIndex][step][sim]
}

// NewGraph creates an empty Graph for the given settings. Models are
// attached with AddModel once constructed.
func NewGraph(settings *Settings) *Graph {
	return &Graph{
		Settings:             settings,
		modelsByAssetClassID: make(map[string]*Model),
		BatchSize:            settings.BatchSize,
	}
}

// AddModel registers a model with the graph, indexed by its asset class
// id for dependency lookups.
func (g *Graph) AddModel(m *Model) {
	g.Models = append(g.Models, m)
	g.modelsByAssetClassID[m.AssetClass.ID] = m
}

func (g *Graph) modelByAssetClassID(id string) (*Model, error) {
	m, ok := g.modelsByAssetClassID[id]
	if !ok {
		return nil, pyesgerr.New(pyesgerr.DependencyMissing, "asset class %q does not exist", id)
	}
	return m, nil
}

// ResetBatchBuffer (re)allocates a zero-filled batch buffer shaped
// [numberOfOutputs][T+1][batchSize].
func (g *Graph) ResetBatchBuffer() {
	numSteps := g.Settings.Config.NumberOfProjectionSteps + 1
	buffer := make([][][]float32, g.Settings.NumberOfOutputs)
	for i := range buffer {
		buffer[i] = make([][]float32, numSteps)
		for s := range buffer[i] {
			buffer[i][s] = make([]float32, g.BatchSize)
		}
	}
	g.BatchBuffer = buffer
}

func (g *Graph) writeToBuffer(outputIndex, step int, values []float64) {
	row := g.BatchBuffer[outputIndex][step]
	for i, v := range values {
		row[i] = float32(v)
	}
}

// StepWalkOrder returns the nodes to invoke value_at on for every
// projection step, in dependency-then-declared order.
func (g *Graph) StepWalkOrder() []*Node {
	order := make([]*Node, 0, len(g.DependencyOutputs)+len(g.UserDeclaredOutputs))
	order = append(order, g.DependencyOutputs...)
	order = append(order, g.UserDeclaredOutputs...)
	return order
}

// Kernel is the per-output-type computation contract a model exposes for
// one output. Initialise runs once, right after the node is created, and
// may call Node.GetOrCreate to wire up dependency outputs. Compute runs
// once per (batch, step) the node is asked for a value it has not yet
// memoised.
type Kernel interface {
	Initialise(n *Node) error
	Compute(n *Node, step int) ([]float64, error)
}

// Node is a single output's runtime state: the memoised current and
// previous step values, and the kernel that computes new ones. A node is
// either user-declared (OutputIndex >= 0, written into the batch buffer)
// or created lazily as another output's dependency (OutputIndex == -1).
type Node struct {
	Model       *Model
	Spec        *config.Output
	OutputIndex int

	CurrentStep int
	Current     []float64
	Previous    []float64

	Kernel Kernel
}

func newNode(model *Model, spec *config.Output, outputIndex int, kernel Kernel) *Node {
	return &Node{
		Model:       model,
		Spec:        spec,
		OutputIndex: outputIndex,
		CurrentStep: -1,
		Kernel:      kernel,
	}
}

// ValueAt returns this node's value vector for the given step, computing
// and memoising it if necessary. Per the node lifecycle: a memoised step
// is returned as-is; step 0 with a declared initial value is a constant
// vector; otherwise the kernel computes it, possibly recursing into other
// nodes' ValueAt. Once computed, the previous memoised vector is retained
// as Previous and the new one becomes Current.
func (n *Node) ValueAt(step int) ([]float64, error) {
	if n.CurrentStep == step {
		return n.Current, nil
	}

	var values []float64
	if step == 0 && n.Spec.InitialValue != nil {
		values = filledVector(n.Model.Graph.BatchSize, *n.Spec.InitialValue)
	} else {
		computed, err := n.Kernel.Compute(n, step)
		if err != nil {
			return nil, err
		}
		values = computed
	}

	n.Previous = n.Current
	n.Current = values
	n.CurrentStep = step

	if n.OutputIndex >= 0 {
		n.Model.Graph.writeToBuffer(n.OutputIndex, step, values)
	}

	return values, nil
}

// GetOrCreate resolves a dependency output by (type, parameters), on this
// node's own model if assetClassID is empty, or on a named asset class's
// model otherwise. An existing matching node is returned as-is; otherwise
// a new node is created, appended to both the owning model's output list
// and the graph's dependency list, and initialised before being returned.
func (n *Node) GetOrCreate(outputType string, parameters config.Parameters, assetClassID string) (*Node, error) {
	model := n.Model
	if assetClassID != "" {
		found, err := n.Model.Graph.modelByAssetClassID(assetClassID)
		if err != nil {
			return nil, err
		}
		model = found
	}

	for _, existing := range model.Outputs {
		if existing.Spec.Type == outputType && parametersEqual(existing.Spec.Parameters, parameters) {
			return existing, nil
		}
	}

	spec := &config.Output{Type: outputType, Parameters: parameters}
	node, err := model.newOutputNode(spec, -1)
	if err != nil {
		return nil, err
	}

	model.Outputs = append(model.Outputs, node)
	n.Model.Graph.DependencyOutputs = append(n.Model.Graph.DependencyOutputs, node)

	if err := node.Kernel.Initialise(node); err != nil {
		return nil, err
	}
	return node, nil
}

func parametersEqual(a, b config.Parameters) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func filledVector(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
