package engine

import "testing"

func TestPCG32_Deterministic(t *testing.T) {
	a := NewPCG32(42)
	b := NewPCG32(42)
	for i := 0; i < 100; i++ {
		va, vb := a.Uint32(), b.Uint32()
		if va != vb {
			t.Fatalf("draw %d diverged: %d != %d", i, va, vb)
		}
	}
}

func TestPCG32_DifferentSeedsDiverge(t *testing.T) {
	a := NewPCG32(1)
	b := NewPCG32(2)
	same := true
	for i := 0; i < 20; i++ {
		if a.Uint32() != b.Uint32() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical sequences")
	}
}

func TestSeededRNG_Reset(t *testing.T) {
	rng := NewSeededRNG(7)
	first := make([]float64, 10)
	for i := range first {
		first[i] = rng.NormFloat64()
	}
	rng.Reset()
	for i := range first {
		if got := rng.NormFloat64(); got != first[i] {
			t.Fatalf("after reset, draw %d = %v, want %v", i, got, first[i])
		}
	}
}

func TestSeededRNG_Float64InUnitInterval(t *testing.T) {
	rng := NewSeededRNG(123)
	for i := 0; i < 10000; i++ {
		v := rng.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %v, out of [0,1)", v)
		}
	}
}

func TestSeededRNG_CorrelatedNormals_Identity(t *testing.T) {
	rng := NewSeededRNG(5)
	identity := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	independentSeed := NewSeededRNG(5)
	want := independentSeed.IndependentNormals(3)
	got := rng.CorrelatedNormals(identity)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CorrelatedNormals with identity[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
