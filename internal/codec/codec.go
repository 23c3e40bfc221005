// Package codec implements the seekable little-endian binary format used
// to persist generated scenarios (the ".pyesg" artifact) and to read it
// back for validation.
//
// Layout:
//
//	[0..8)   uint64   finalisation timestamp (unix seconds), written last
//	[8..12)  uint32   number of simulations S
//	[12..16) uint32   number of outputs O
//	[16..20) uint32   number of time steps T+1
//	then      O strings  output ids, each uint32 length + UTF-8 bytes
//	then      (T+1) uint64  step dates (unix seconds)
//	then      O blocks, each S*(T+1)*4 bytes: S rows of (T+1) float32s
package codec

import (
	"io"
	"math"
	"time"

	"pyesg/internal/pyesgerr"
)

const (
	timestampPrefixSize = 8
	sizeOfFloat         = 4
)

// headerEndOffset returns the absolute file offset at which the header
// ends for the given output ids and step count: the 8-byte timestamp
// prefix plus the counts, output ids and step dates that follow it.
func headerEndOffset(outputIDs []string, numSteps int) int64 {
	// 3 uint32 fields: S, O, T+1
	offset := int64(timestampPrefixSize) + 4 + 4 + 4
	for _, id := range outputIDs {
		offset += 4 + int64(len(id))
	}
	offset += int64(numSteps) * 8
	return offset
}

func wrapIO(err error, format string, args ...any) error {
	if err == nil {
		return pyesgerr.New(pyesgerr.IOFailure, format, args...)
	}
	return pyesgerr.Wrap(pyesgerr.IOFailure, err, format, args...)
}

func float32ToBits(f float32) uint32 {
	return math.Float32bits(f)
}

func bitsToFloat32(b uint32) float32 {
	return math.Float32frombits(b)
}

func unixToTime(u uint64) time.Time {
	return time.Unix(int64(u), 0).UTC()
}

func timeToUnix(t time.Time) uint64 {
	return uint64(t.Unix())
}

// writeSeeker is the subset of *os.File the Writer needs.
type writeSeeker interface {
	io.Writer
	io.Seeker
}

// readSeeker is the subset of *os.File the Reader needs.
type readSeeker interface {
	io.Reader
	io.Seeker
}
