// Package engine implements the simulation engine: the output graph
// (graph.go), the asset-class models and kernels (models.go, hullwhite.go,
// blackscholes.go), the settings wiring (settings.go), the seeded Gaussian
// source (rng.go) and the batch/step driver in this file.
package engine

import (
	"fmt"

	"pyesg/internal/codec"
	"pyesg/internal/config"
	"pyesg/internal/logger"
)

const logTag = "engine"

// Generate runs a full scenario generation: it validates cfg, builds the
// output graph for every asset class, walks batches and steps, and writes
// the resulting paths to a .pyesg file at outputPath.
func Generate(cfg *config.Configuration, outputPath string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	settings, err := NewSettings(cfg)
	if err != nil {
		return err
	}

	graph := NewGraph(settings)
	if err := buildModels(graph, settings); err != nil {
		return err
	}
	if err := initialiseOutputs(graph); err != nil {
		return err
	}

	writer, err := codec.NewWriter(outputPath)
	if err != nil {
		return err
	}
	if err := writer.WriteHeader(cfg.NumberOfSimulations, settings.OutputIDs, settings.ProjectionDates); err != nil {
		writer.Close()
		return err
	}

	numBatches := cfg.NumberOfBatches
	for batchIndex := 0; batchIndex < numBatches; batchIndex++ {
		logger.Info(logTag, logBatchMsg(batchIndex, numBatches))

		graph.ResetBatchBuffer()
		tensor := drawGaussianTensor(settings)
		assignDriverSlices(graph, settings, tensor)

		for step := 0; step <= cfg.NumberOfProjectionSteps; step++ {
			for _, node := range graph.StepWalkOrder() {
				if _, err := node.ValueAt(step); err != nil {
					writer.Close()
					return err
				}
			}
		}

		if err := writer.WriteBatch(batchIndex, numBatches, graph.BatchBuffer); err != nil {
			writer.Close()
			return err
		}
	}

	return writer.Finalise()
}

// buildModels instantiates one Model per asset class, in settings order,
// and creates a node for every declared output, assigning global output
// indices that match settings.OutputIDs.
func buildModels(graph *Graph, settings *Settings) error {
	nextIndex := 0
	for _, assetClass := range settings.AssetClasses {
		model, err := NewModel(graph, assetClass)
		if err != nil {
			return err
		}
		graph.AddModel(model)

		next, err := model.InitialiseDeclaredOutputs(nextIndex)
		if err != nil {
			return err
		}
		nextIndex = next
	}
	return nil
}

// initialiseOutputs runs Kernel.Initialise over every declared output,
// after every model's declared outputs already exist, so a kernel's
// GetOrCreate call can reach any other model's outputs by asset class id.
// Dependency-created nodes are initialised as soon as GetOrCreate builds
// them, so they never need a separate pass here.
func initialiseOutputs(graph *Graph) error {
	for _, node := range graph.UserDeclaredOutputs {
		if err := node.Kernel.Initialise(node); err != nil {
			return err
		}
	}
	return nil
}

// drawGaussianTensor draws this batch's correlated Gaussian driver tensor,
// of shape [T][batchSize][N], continuing the shared settings.RNG stream
// rather than reseeding per batch.
func drawGaussianTensor(settings *Settings) [][][]float64 {
	numSteps := settings.Config.NumberOfProjectionSteps
	tensor := make([][][]float64, numSteps)
	for step := range tensor {
		layer := make([][]float64, settings.BatchSize)
		for sim := range layer {
			layer[sim] = settings.RNG.CorrelatedNormals(settings.CorrelationCholesky)
		}
		tensor[step] = layer
	}
	return tensor
}

// assignDriverSlices gives each model the (T, batchSize, k_m) slice of the
// batch tensor corresponding to its own random_drivers, indexed into the
// full N-wide tensor by global driver position.
func assignDriverSlices(graph *Graph, settings *Settings, tensor [][][]float64) {
	driverIndex := make(map[string]int, len(settings.RandomDriverIDs))
	for i, id := range settings.RandomDriverIDs {
		driverIndex[id] = i
	}

	for _, model := range graph.Models {
		localIndices := make([]int, len(model.AssetClass.RandomDrivers))
		for i, id := range model.AssetClass.RandomDrivers {
			localIndices[i] = driverIndex[id]
		}

		slice := make([][][]float64, len(tensor))
		for step, layer := range tensor {
			row := make([][]float64, len(layer))
			for sim, full := range layer {
				values := make([]float64, len(localIndices))
				for i, globalIdx := range localIndices {
					values[i] = full[globalIdx]
				}
				row[sim] = values
			}
			slice[step] = row
		}
		model.RandomSamples = slice
	}
}

func logBatchMsg(batchIndex, numBatches int) string {
	if numBatches <= 1 {
		return "generating scenario"
	}
	return fmt.Sprintf("generating batch %d/%d", batchIndex+1, numBatches)
}
