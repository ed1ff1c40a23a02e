package model

import (
	"errors"
	"testing"

	"github.com/milosgajdos/go-track/matrix"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newConfig(m StateModel, n int) *Config {
	sq := make([]float64, n)
	sr := make([]float64, n)
	for i := 0; i < n; i++ {
		sq[i] = 0.1 * float64(i+1)
		sr[i] = 0.05 * float64(i+1)
	}

	return &Config{
		Model:               m,
		Channels:            n,
		SamplingPeriod:      0.04,
		Rho:                 0.9,
		ProcessNoiseStd:     sq,
		MeasurementNoiseStd: sr,
	}
}

func negativeCov(n int) *mat.SymDense {
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, -5)
	}

	return cov
}

func TestBuildDims(t *testing.T) {
	assert := assert.New(t)

	for _, m := range []StateModel{ConstVelMeasurePos, ConstVelColoredNoiseMeasureVel, ConstAccColoredNoiseMeasureVel} {
		nx, ny := m.Dims()
		for n := 1; n <= 5; n++ {
			sys, err := Build(newConfig(m, n))
			assert.NoError(err)
			assert.NotNil(sys)

			assert.Equal(m, sys.StateModel())
			assert.Equal(n, sys.Channels())

			sx, sy := sys.SystemDims()
			assert.Equal(n*nx, sx)
			assert.Equal(n*ny, sy)

			assert.True(matrix.IsBlockDiag(sys.SystemMatrix(), n, nx, nx), "F %v n=%d", m, n)
			assert.True(matrix.IsBlockDiag(sys.OutputMatrix(), n, ny, nx), "H %v n=%d", m, n)
			assert.True(matrix.IsBlockDiag(sys.StateNoiseCov(), n, nx, nx), "Q %v n=%d", m, n)
			assert.True(matrix.IsBlockDiag(sys.OutputNoiseCov(), n, ny, ny), "R %v n=%d", m, n)

			// Q is positive semi-definite and R positive definite
			assert.True(matrix.MinEigen(sys.StateNoiseCov()) >= -1e-12)
			assert.True(matrix.MinEigen(sys.OutputNoiseCov()) > 0)
		}
	}
}

func TestConstVelMeasurePos(t *testing.T) {
	assert := assert.New(t)

	dt := 0.5
	sys, err := NewConstVelMeasurePos(2, []float64{2, 1}, []float64{0.5, 3}, dt)
	assert.NoError(err)

	F := mat.NewDense(4, 4, []float64{
		1, dt, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, dt,
		0, 0, 0, 1,
	})
	assert.True(mat.Equal(F, sys.SystemMatrix()))

	H := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 0, 1, 0,
	})
	assert.True(mat.Equal(H, sys.OutputMatrix()))

	// dt^3/3 = 1/24, dt^2/2 = 1/8
	Q := mat.NewDense(4, 4, []float64{
		4.0 / 24, 4.0 / 8, 0, 0,
		4.0 / 8, 4 * dt, 0, 0,
		0, 0, 1.0 / 24, 1.0 / 8,
		0, 0, 1.0 / 8, dt,
	})
	assert.True(mat.EqualApprox(Q, sys.StateNoiseCov(), 1e-15))

	R := mat.NewDense(2, 2, []float64{0.25, 0, 0, 9})
	assert.True(mat.Equal(R, sys.OutputNoiseCov()))
}

func TestConstVelColoredNoiseMeasureVel(t *testing.T) {
	assert := assert.New(t)

	rho := 0.5
	sys, err := NewConstVelColoredNoiseMeasureVel(1, []float64{2}, []float64{0.1}, rho)
	assert.NoError(err)

	F := mat.NewDense(2, 2, []float64{1, 1, 0, rho})
	assert.True(mat.Equal(F, sys.SystemMatrix()))

	H := mat.NewDense(1, 2, []float64{1, 0})
	assert.True(mat.Equal(H, sys.OutputMatrix()))

	// stationary variance of AR(1) term: q/(1-rho^2) = sq^2
	Q := mat.NewDense(2, 2, []float64{0, 0, 0, 4 * (1 - rho*rho)})
	assert.True(mat.EqualApprox(Q, sys.StateNoiseCov(), 1e-15))
	assert.InDelta(4.0, sys.StateNoiseCov().At(1, 1)/(1-rho*rho), 1e-12)

	assert.InDelta(0.01, sys.OutputNoiseCov().At(0, 0), 1e-15)

	// white noise
	sys, err = NewConstVelColoredNoiseMeasureVel(1, []float64{2}, []float64{0.1}, 0)
	assert.NoError(err)
	assert.Equal(0.0, sys.SystemMatrix().At(1, 1))
	assert.Equal(4.0, sys.StateNoiseCov().At(1, 1))
}

func TestConstAccColoredNoiseMeasureVel(t *testing.T) {
	assert := assert.New(t)

	dt, rho := 0.04, 0.9
	sys, err := NewConstAccColoredNoiseMeasureVel(2, []float64{0.1, 0.2}, []float64{0.05, 0.5}, rho, dt)
	assert.NoError(err)

	F := mat.NewDense(6, 6, []float64{
		1, dt, 0, 0, 0, 0,
		0, 1, 1, 0, 0, 0,
		0, 0, rho, 0, 0, 0,
		0, 0, 0, 1, dt, 0,
		0, 0, 0, 0, 1, 1,
		0, 0, 0, 0, 0, rho,
	})
	assert.True(mat.Equal(F, sys.SystemMatrix()))

	H := mat.NewDense(2, 6, []float64{
		1, 0, 0, 0, 0, 0,
		0, 0, 0, 1, 0, 0,
	})
	assert.True(mat.Equal(H, sys.OutputMatrix()))

	q := sys.StateNoiseCov()
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			switch {
			case i == 2 && j == 2:
				assert.InDelta(0.01*(1-rho*rho), q.At(i, j), 1e-15)
			case i == 5 && j == 5:
				assert.InDelta(0.04*(1-rho*rho), q.At(i, j), 1e-15)
			default:
				assert.Equal(0.0, q.At(i, j))
			}
		}
	}

	R := mat.NewDense(2, 2, []float64{0.0025, 0, 0, 0.25})
	assert.True(mat.EqualApprox(R, sys.OutputNoiseCov(), 1e-15))
}

func TestBuildErrors(t *testing.T) {
	assert := assert.New(t)

	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = Unknown }},
		{"unsupported model", func(c *Config) { c.Model = StateModel(42) }},
		{"zero channels", func(c *Config) { c.Channels = 0 }},
		{"negative process noise", func(c *Config) { c.ProcessNoiseStd[0] = -1 }},
		{"negative measurement noise", func(c *Config) { c.MeasurementNoiseStd[1] = -0.1 }},
		{"short process noise", func(c *Config) { c.ProcessNoiseStd = c.ProcessNoiseStd[:1] }},
		{"long measurement noise", func(c *Config) { c.MeasurementNoiseStd = append(c.MeasurementNoiseStd, 1) }},
		{"unit rho", func(c *Config) { c.Rho = 1 }},
		{"negative unit rho", func(c *Config) { c.Rho = -1 }},
		{"zero sampling period", func(c *Config) { c.SamplingPeriod = 0 }},
		{"negative sampling period", func(c *Config) { c.SamplingPeriod = -0.1 }},
		{"negative init variance", func(c *Config) { c.InitVariance = -1 }},
		{"init cov size", func(c *Config) { c.InitCov = mat.NewSymDense(2, nil) }},
		{"negative init cov", func(c *Config) { c.InitCov = negativeCov(6) }},
		{"indefinite init cov", func(c *Config) {
			cov := mat.NewSymDense(6, nil)
			for i := 0; i < 6; i++ {
				cov.SetSym(i, i, 1)
			}
			cov.SetSym(0, 1, 2)
			c.InitCov = cov
		}},
	}

	for _, tc := range testCases {
		c := newConfig(ConstAccColoredNoiseMeasureVel, 2)
		tc.modify(c)

		sys, err := Build(c)
		assert.Nil(sys, tc.name)
		assert.Error(err, tc.name)
		assert.True(errors.Is(err, ErrInvalidConfig), tc.name)
	}

	sys, err := Build(nil)
	assert.Nil(sys)
	assert.True(errors.Is(err, ErrInvalidConfig))

	// singular initial covariance is positive semi-definite
	c := newConfig(ConstVelMeasurePos, 1)
	c.InitCov = mat.NewSymDense(2, []float64{1, 1, 1, 1})
	sys, err = Build(c)
	assert.NotNil(sys)
	assert.NoError(err)

	// rho is ignored by models without colored noise
	c = newConfig(ConstVelMeasurePos, 1)
	c.Rho = 3
	sys, err = Build(c)
	assert.NotNil(sys)
	assert.NoError(err)
}

func TestBuildDeterministic(t *testing.T) {
	assert := assert.New(t)

	c := newConfig(ConstAccColoredNoiseMeasureVel, 3)

	s1, err := Build(c)
	assert.NoError(err)
	s2, err := Build(c)
	assert.NoError(err)

	assert.True(mat.Equal(s1.SystemMatrix(), s2.SystemMatrix()))
	assert.True(mat.Equal(s1.OutputMatrix(), s2.OutputMatrix()))
	assert.True(mat.Equal(s1.StateNoiseCov(), s2.StateNoiseCov()))
	assert.True(mat.Equal(s1.OutputNoiseCov(), s2.OutputNoiseCov()))
}
