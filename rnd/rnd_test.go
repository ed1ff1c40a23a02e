package rnd

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestWithCovN(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.0, 0.0, 0.0, 1.0}
	covTest := mat.NewSymDense(2, data)
	covR, _ := covTest.Dims()

	// n must be bigger than 1
	nTest := -3
	res, err := WithCovN(covTest, nTest, nil)
	assert.Error(err)
	assert.Nil(res)

	nTest = 1
	res, err = WithCovN(covTest, nTest, nil)
	assert.NoError(err)
	assert.NotNil(res)

	// 2 samples
	nTest = 2
	res, err = WithCovN(covTest, nTest, nil)
	assert.NoError(err)
	assert.NotNil(res)
	r, c := res.Dims()
	assert.Equal(r, covR)
	assert.Equal(c, nTest)
}

func TestWithCovNSeeded(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})

	s1, err := WithCovN(cov, 10, rand.New(rand.NewSource(3)))
	assert.NoError(err)
	s2, err := WithCovN(cov, 10, rand.New(rand.NewSource(3)))
	assert.NoError(err)

	assert.True(mat.Equal(s1, s2))
}

func TestWithCovNSingular(t *testing.T) {
	assert := assert.New(t)

	// only the last state is noisy
	cov := mat.NewSymDense(3, []float64{
		0, 0, 0,
		0, 0, 0,
		0, 0, 4,
	})

	n := 5000
	res, err := WithCovN(cov, n, rand.New(rand.NewSource(1)))
	assert.NoError(err)

	for j := 0; j < n; j++ {
		assert.InDelta(0.0, res.At(0, j), 1e-12)
		assert.InDelta(0.0, res.At(1, j), 1e-12)
	}

	v := stat.Variance(mat.Row(nil, 2, res), nil)
	assert.InDelta(4.0, v, 0.3)
}
