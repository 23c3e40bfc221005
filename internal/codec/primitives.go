package codec

import (
	"encoding/binary"
	"io"
)

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return wrapIO(err, "write uint32")
	}
	return nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return wrapIO(err, "write uint64")
	}
	return nil
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return wrapIO(err, "write string %q", s)
	}
	return nil
}

func writeSingles(w io.Writer, values []float32) error {
	buf := make([]byte, len(values)*sizeOfFloat)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*sizeOfFloat:], float32ToBits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return wrapIO(err, "write %d floats", len(values))
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapIO(err, "read uint32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapIO(err, "read uint64")
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapIO(err, "read string of length %d", n)
	}
	return string(buf), nil
}

func readSingle(r io.Reader) (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapIO(err, "read float32")
	}
	return bitsToFloat32(binary.LittleEndian.Uint32(buf[:])), nil
}

func readSingles(r io.Reader, n int) ([]float32, error) {
	buf := make([]byte, n*sizeOfFloat)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapIO(err, "read %d floats", n)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = bitsToFloat32(binary.LittleEndian.Uint32(buf[i*sizeOfFloat:]))
	}
	return out, nil
}
