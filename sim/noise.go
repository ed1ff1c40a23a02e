package sim

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/milosgajdos/go-track/rnd"
	"gonum.org/v1/gonum/mat"
)

// covNoise is zero-mean noise with positive semi-definite covariance
type covNoise struct {
	cov  *mat.SymDense
	seed uint64
	src  *rand.Rand
}

// newCovNoise creates zero-mean noise with covariance cov.
// Zero seed draws samples from the global source.
func newCovNoise(cov mat.Symmetric, seed uint64) *covNoise {
	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	n := &covNoise{cov: c, seed: seed}
	_ = n.Reset()

	return n
}

// Mean returns zero mean.
func (n *covNoise) Mean() []float64 {
	return make([]float64, n.cov.SymmetricDim())
}

// Cov returns noise covariance.
func (n *covNoise) Cov() mat.Symmetric {
	cov := mat.NewSymDense(n.cov.SymmetricDim(), nil)
	cov.CopySym(n.cov)

	return cov
}

// Sample returns a sample of the noise; it returns zero vector if sampling fails.
func (n *covNoise) Sample() mat.Vector {
	s, err := rnd.WithCovN(n.cov, 1, n.src)
	if err != nil {
		return mat.NewVecDense(n.cov.SymmetricDim(), nil)
	}

	return s.ColView(0)
}

// Reset restarts the sample sequence of seeded noise.
func (n *covNoise) Reset() error {
	n.src = nil
	if n.seed != 0 {
		n.src = rand.New(rand.NewSource(n.seed))
	}

	return nil
}

// String implements the Stringer interface.
func (n *covNoise) String() string {
	return fmt.Sprintf("covNoise{\nCov=%v\n}", mat.Formatted(n.cov, mat.Prefix("    "), mat.Squeeze()))
}
