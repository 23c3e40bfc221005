package validate

import (
	"testing"

	"pyesg/internal/codec"
)

func openTestReader(t *testing.T, path string) *codec.Reader {
	t.Helper()
	reader, err := codec.Open(path)
	if err != nil {
		t.Fatalf("codec.Open(%s): %v", path, err)
	}
	return reader
}
