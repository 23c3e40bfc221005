package engine

import (
	"math"

	"pyesg/internal/pyesgerr"
)

// choleskyDecompose computes the lower-triangular Cholesky factor L of a
// symmetric positive semi-definite matrix m, such that L*L' = m. It uses
// the standard Cholesky-Banachiewicz algorithm, extended to tolerate a
// slightly rank-deficient matrix (a zero or small negative pivot below
// epsilon is treated as zero) since correlation matrices built from
// user-supplied pairwise correlations are only guaranteed symmetric, not
// strictly positive definite.
func choleskyDecompose(m [][]float64) ([][]float64, error) {
	n := len(m)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}

	const epsilon = 1e-10

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k < j; k++ {
				sum += l[i][k] * l[j][k]
			}

			if i == j {
				diag := m[i][i] - sum
				if diag < -epsilon {
					return nil, pyesgerr.New(pyesgerr.ConfigInvalid, "correlation matrix is not positive semi-definite at row %d (diag=%v)", i, diag)
				}
				if diag < 0 {
					diag = 0
				}
				l[i][j] = math.Sqrt(diag)
			} else {
				if l[j][j] < epsilon {
					l[i][j] = 0
					continue
				}
				l[i][j] = (m[i][j] - sum) / l[j][j]
			}
		}
	}

	return l, nil
}

// buildCorrelationMatrix reifies a sparse pairwise correlation lookup into
// a dense, symmetric driverIDs x driverIDs matrix, with 1 on the diagonal.
func buildCorrelationMatrix(driverIDs []string, get func(rowID, columnID string) float64) [][]float64 {
	n := len(driverIDs)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i, rowID := range driverIDs {
		for j, columnID := range driverIDs {
			matrix[i][j] = get(rowID, columnID)
		}
	}
	return matrix
}
