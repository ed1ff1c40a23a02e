package matrix

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// BlockDiag returns a block diagonal matrix built from blocks placed along its diagonal.
// Blocks do not need to be square. Off-block elements are zero.
// It panics if any of the blocks is nil.
func BlockDiag(blocks ...mat.Matrix) *mat.Dense {
	rows, cols := 0, 0
	for _, b := range blocks {
		r, c := b.Dims()
		rows += r
		cols += c
	}

	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}

	out := mat.NewDense(rows, cols, nil)
	r0, c0 := 0, 0
	for _, b := range blocks {
		r, c := b.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.Set(r0+i, c0+j, b.At(i, j))
			}
		}
		r0 += r
		c0 += c
	}

	return out
}

// BlockDiagSym returns a symmetric block diagonal matrix built from symmetric blocks.
// It panics if any of the blocks is nil.
func BlockDiagSym(blocks ...mat.Symmetric) *mat.SymDense {
	n := 0
	for _, b := range blocks {
		n += b.SymmetricDim()
	}

	if n == 0 {
		return &mat.SymDense{}
	}

	out := mat.NewSymDense(n, nil)
	k := 0
	for _, b := range blocks {
		size := b.SymmetricDim()
		for i := 0; i < size; i++ {
			for j := i; j < size; j++ {
				out.SetSym(k+i, k+j, b.At(i, j))
			}
		}
		k += size
	}

	return out
}

// Symmetrize returns a symmetric matrix (m + m')/2.
// It panics if m is nil or not square.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	rows, cols := m.Dims()
	if rows != cols {
		panic(mat.ErrSquare)
	}

	out := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			out.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return out
}

// IsSymmetric checks whether m is square and symmetric within tolerance tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	rows, cols := m.Dims()
	if rows != cols {
		return false
	}

	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			if !scalar.EqualWithinAbsOrRel(m.At(i, j), m.At(j, i), tol, tol) {
				return false
			}
		}
	}

	return true
}

// IsBlockDiag checks whether every element of m outside of n diagonal blocks
// of size [br x bc] is zero. It returns false if m dimensions are not [n*br x n*bc].
func IsBlockDiag(m mat.Matrix, n, br, bc int) bool {
	rows, cols := m.Dims()
	if rows != n*br || cols != n*bc {
		return false
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if i/br == j/bc {
				continue
			}
			if m.At(i, j) != 0 {
				return false
			}
		}
	}

	return true
}

// MinEigen returns the smallest eigenvalue of the symmetric matrix m.
// It returns NaN if the eigen decomposition fails.
func MinEigen(m mat.Symmetric) float64 {
	var eig mat.EigenSym
	if ok := eig.Factorize(m, false); !ok {
		return math.NaN()
	}

	return floats.Min(eig.Values(nil))
}
