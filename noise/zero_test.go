package noise

import (
	"testing"

	filter "github.com/milosgajdos/go-track"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var _ filter.Noise = (*Zero)(nil)

func TestNewZeroSizes(t *testing.T) {
	assert := assert.New(t)

	testCases := []struct {
		size  int
		valid bool
	}{
		{1, true},
		{8, true},
		{0, false},
		{-3, false},
	}

	for _, tc := range testCases {
		z, err := NewZero(tc.size)
		if !tc.valid {
			assert.Nil(z, "size %d", tc.size)
			assert.Error(err, "size %d", tc.size)
			continue
		}

		assert.NoError(err, "size %d", tc.size)
		assert.Len(z.Mean(), tc.size)
		assert.Equal(tc.size, z.Cov().SymmetricDim())
		assert.Equal(tc.size, z.Sample().Len())
	}
}

func TestZeroLeavesOutputUnchanged(t *testing.T) {
	assert := assert.New(t)

	// noise free measurement of 3 channels
	y := mat.NewVecDense(3, []float64{0.5, -2, 7})

	z, err := NewZero(y.Len())
	assert.NoError(err)

	for i := 0; i < 10; i++ {
		out := mat.NewVecDense(y.Len(), nil)
		out.AddVec(y, z.Sample())
		assert.True(mat.Equal(y, out))
	}

	assert.Equal(0.0, mat.Norm(z.Cov(), 1))
	assert.Equal([]float64{0, 0, 0}, z.Mean())
}

func TestZeroCopies(t *testing.T) {
	assert := assert.New(t)

	z, err := NewZero(2)
	assert.NoError(err)

	// modifying returned values must not leak into the noise
	mean := z.Mean()
	mean[0] = 10
	cov := z.Cov().(*mat.SymDense)
	cov.SetSym(0, 1, 3)
	s := z.Sample().(*mat.VecDense)
	s.SetVec(1, 4)

	assert.Equal([]float64{0, 0}, z.Mean())
	assert.Equal(0.0, mat.Norm(z.Cov(), 1))
	assert.Equal(0.0, mat.Norm(z.Sample(), 2))

	assert.NoError(z.Reset())
	assert.Equal(0.0, mat.Norm(z.Sample(), 2))
}

func TestZeroString(t *testing.T) {
	assert := assert.New(t)

	z, err := NewZero(2)
	assert.NoError(err)
	assert.Equal("Zero{\nMean=[0 0]\nCov=⎡0  0⎤\n    ⎣0  0⎦\n}", z.String())
}
