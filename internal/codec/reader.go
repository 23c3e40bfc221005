package codec

import (
	"io"
	"os"
	"time"

	"pyesg/internal/pyesgerr"
)

// Reader reads a finalised ".pyesg" binary artifact.
type Reader struct {
	file           *os.File
	timeSaved      time.Time
	numSimulations int
	numOutputs     int
	numSteps       int
	outputIDs      []string
	outputIndex    map[string]int
	stepDates      []time.Time
	headerEnd      int64
}

// Open opens path for reading and parses its header. It fails with
// IOFailure if the file has not been finalised (zero timestamp prefix).
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapIO(err, "open %s", path)
	}

	r := &Reader{file: f}
	if err := r.parseHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	ts, err := readUint64(r.file)
	if err != nil {
		return err
	}
	if ts == 0 {
		return pyesgerr.New(pyesgerr.IOFailure, "file is not finalised (zero timestamp prefix)")
	}
	r.timeSaved = unixToTime(ts)

	numSims, err := readUint32(r.file)
	if err != nil {
		return err
	}
	numOutputs, err := readUint32(r.file)
	if err != nil {
		return err
	}
	numSteps, err := readUint32(r.file)
	if err != nil {
		return err
	}
	r.numSimulations = int(numSims)
	r.numOutputs = int(numOutputs)
	r.numSteps = int(numSteps)

	r.outputIDs = make([]string, r.numOutputs)
	r.outputIndex = make(map[string]int, r.numOutputs)
	for i := range r.outputIDs {
		id, err := readLengthPrefixedString(r.file)
		if err != nil {
			return err
		}
		r.outputIDs[i] = id
		r.outputIndex[id] = i
	}

	r.stepDates = make([]time.Time, r.numSteps)
	for i := range r.stepDates {
		u, err := readUint64(r.file)
		if err != nil {
			return err
		}
		r.stepDates[i] = unixToTime(u)
	}

	pos, err := r.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return wrapIO(err, "tell after header")
	}
	r.headerEnd = pos
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// TimeSaved returns the time the artifact was finalised.
func (r *Reader) TimeSaved() time.Time { return r.timeSaved }

// NumberOfSimulations returns S.
func (r *Reader) NumberOfSimulations() int { return r.numSimulations }

// NumberOfOutputs returns O.
func (r *Reader) NumberOfOutputs() int { return r.numOutputs }

// NumberOfTimeSteps returns T+1 (including the initial step).
func (r *Reader) NumberOfTimeSteps() int { return r.numSteps }

// OutputIDs returns the ids of all outputs in declaration order.
func (r *Reader) OutputIDs() []string { return r.outputIDs }

// StepDates returns the dates for all time steps, including the initial one.
func (r *Reader) StepDates() []time.Time { return r.stepDates }

// outputIndexFor resolves a key (output id string or zero-based int index)
// to an output index.
func (r *Reader) outputIndexFor(key any) (int, error) {
	switch v := key.(type) {
	case string:
		idx, ok := r.outputIndex[v]
		if !ok {
			return 0, pyesgerr.New(pyesgerr.OutputNotFound, "output id %q not found", v)
		}
		return idx, nil
	case int:
		if v < 0 || v >= r.numOutputs {
			return 0, pyesgerr.New(pyesgerr.OutputNotFound, "output index %d out of range [0,%d)", v, r.numOutputs)
		}
		return v, nil
	default:
		return 0, pyesgerr.New(pyesgerr.OutputNotFound, "output key must be string or int, got %T", key)
	}
}

func (r *Reader) seekPositionForOutput(outputIndex int) int64 {
	return r.headerEnd + int64(outputIndex)*int64(r.numSimulations)*int64(r.numSteps)*sizeOfFloat
}

// PathsForOutput returns all S paths for the given output, each of length
// T+1, simulation-major (paths[sim][step]).
func (r *Reader) PathsForOutput(key any) ([][]float32, error) {
	idx, err := r.outputIndexFor(key)
	if err != nil {
		return nil, err
	}
	if _, err := r.file.Seek(r.seekPositionForOutput(idx), io.SeekStart); err != nil {
		return nil, wrapIO(err, "seek to output %v", key)
	}
	flat, err := readSingles(r.file, r.numSimulations*r.numSteps)
	if err != nil {
		return nil, err
	}
	paths := make([][]float32, r.numSimulations)
	for sim := range paths {
		paths[sim] = flat[sim*r.numSteps : (sim+1)*r.numSteps]
	}
	return paths, nil
}

// PathsForStep returns the value of the given output at the given step,
// across all S simulations.
func (r *Reader) PathsForStep(key any, step int) ([]float32, error) {
	if step < 0 || step >= r.numSteps {
		return nil, pyesgerr.New(pyesgerr.OutputNotFound, "step %d out of range [0,%d)", step, r.numSteps)
	}
	idx, err := r.outputIndexFor(key)
	if err != nil {
		return nil, err
	}

	startPos := r.seekPositionForOutput(idx) + int64(step)*sizeOfFloat
	if _, err := r.file.Seek(startPos, io.SeekStart); err != nil {
		return nil, wrapIO(err, "seek to output %v step %d", key, step)
	}

	bytesBetweenSims := int64(r.numSteps) * sizeOfFloat
	values := make([]float32, r.numSimulations)
	for i := 0; i < r.numSimulations; i++ {
		v, err := readSingle(r.file)
		if err != nil {
			return nil, err
		}
		values[i] = v
		if i < r.numSimulations-1 {
			if _, err := r.file.Seek(bytesBetweenSims-sizeOfFloat, io.SeekCurrent); err != nil {
				return nil, wrapIO(err, "seek within output %v step %d", key, step)
			}
		}
	}
	return values, nil
}

// Path returns all T+1 steps of the given output for a single (zero-based)
// simulation index.
func (r *Reader) Path(key any, sim int) ([]float32, error) {
	if sim < 0 || sim >= r.numSimulations {
		return nil, pyesgerr.New(pyesgerr.OutputNotFound, "simulation index %d out of range [0,%d)", sim, r.numSimulations)
	}
	idx, err := r.outputIndexFor(key)
	if err != nil {
		return nil, err
	}

	startPos := r.seekPositionForOutput(idx) + int64(sim)*int64(r.numSteps)*sizeOfFloat
	if _, err := r.file.Seek(startPos, io.SeekStart); err != nil {
		return nil, wrapIO(err, "seek to output %v simulation %d", key, sim)
	}
	return readSingles(r.file, r.numSteps)
}
