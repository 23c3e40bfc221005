package codec

import (
	"io"
	"os"
	"time"
)

// Writer writes a ".pyesg" binary artifact. The zero value is not usable;
// construct with NewWriter.
type Writer struct {
	file           *os.File
	headerEnd      int64
	numOutputs     int
	numSteps       int
	batchSizeHint  int
	numSimulations int
}

// NewWriter creates (truncating if necessary) the file at path and
// returns a Writer ready for WriteHeader.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, wrapIO(err, "create %s", path)
	}
	return &Writer{file: f}, nil
}

// WriteHeader writes the file header: simulation count, output ids and
// step dates. It must be called exactly once, before any WriteBatch call.
func (w *Writer) WriteHeader(numSimulations int, outputIDs []string, stepDates []time.Time) error {
	if _, err := w.file.Seek(timestampPrefixSize, io.SeekStart); err != nil {
		return wrapIO(err, "seek to header start")
	}

	if err := writeUint32(w.file, uint32(numSimulations)); err != nil {
		return err
	}
	if err := writeUint32(w.file, uint32(len(outputIDs))); err != nil {
		return err
	}
	if err := writeUint32(w.file, uint32(len(stepDates))); err != nil {
		return err
	}
	for _, id := range outputIDs {
		if err := writeLengthPrefixedString(w.file, id); err != nil {
			return err
		}
	}
	for _, d := range stepDates {
		if err := writeUint64(w.file, timeToUnix(d)); err != nil {
			return err
		}
	}

	pos, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return wrapIO(err, "tell after header")
	}
	w.headerEnd = pos
	w.numOutputs = len(outputIDs)
	w.numSteps = len(stepDates)
	w.numSimulations = numSimulations
	return nil
}

// WriteBatch writes one batch's worth of values for every output. tensor
// has shape [numOutputs][numSteps][batchSize] and represents the
// simulations for batch batchIndex (0-based) out of totalBatches.
func (w *Writer) WriteBatch(batchIndex, totalBatches int, tensor [][][]float32) error {
	if len(tensor) != w.numOutputs {
		return wrapIO(nil, "batch tensor has %d outputs, want %d", len(tensor), w.numOutputs)
	}
	for i, outputSteps := range tensor {
		if len(outputSteps) != w.numSteps {
			return wrapIO(nil, "output %d has %d steps, want %d", i, len(outputSteps), w.numSteps)
		}
		batchSize := len(outputSteps[0])
		sizeOfEachOutput := int64(totalBatches) * int64(batchSize) * int64(w.numSteps) * sizeOfFloat
		startOfBatchWithinOutput := int64(batchIndex) * int64(batchSize) * int64(w.numSteps) * sizeOfFloat
		seekPos := w.headerEnd + int64(i)*sizeOfEachOutput + startOfBatchWithinOutput

		if _, err := w.file.Seek(seekPos, io.SeekStart); err != nil {
			return wrapIO(err, "seek to output %d batch %d", i, batchIndex)
		}

		// Transpose (step-major) -> (sim-major) and flatten, matching the
		// on-disk simulation-major/step-minor row layout.
		flat := make([]float32, batchSize*w.numSteps)
		for sim := 0; sim < batchSize; sim++ {
			for step := 0; step < w.numSteps; step++ {
				flat[sim*w.numSteps+step] = outputSteps[step][sim]
			}
		}
		if err := writeSingles(w.file, flat); err != nil {
			return err
		}
	}
	return nil
}

// Finalise writes the current unix timestamp into the reserved 8-byte
// prefix and closes the file. A file is only valid for reading once this
// has run.
func (w *Writer) Finalise() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return wrapIO(err, "seek to timestamp prefix")
	}
	if err := writeUint64(w.file, timeToUnix(timeNow())); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return wrapIO(err, "close file")
	}
	return nil
}

// Close aborts the write, closing the underlying file without
// finalising it, leaving the file in the invalid (zero-timestamp) state.
func (w *Writer) Close() error {
	return w.file.Close()
}

func timeNow() time.Time {
	return time.Now()
}
