package model

import (
	"fmt"

	"github.com/milosgajdos/go-track/matrix"
	"gonum.org/v1/gonum/mat"
)

// block contains system matrices of a single signal channel
type block struct {
	f *mat.Dense
	h *mat.Dense
	q *mat.SymDense
	r *mat.SymDense
}

// Build builds stacked system matrices for the configuration c.
// It returns error wrapping ErrInvalidConfig if c is not valid.
func Build(c *Config) (*System, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Model {
	case ConstVelMeasurePos:
		return NewConstVelMeasurePos(c.Channels, c.ProcessNoiseStd, c.MeasurementNoiseStd, c.SamplingPeriod)
	case ConstVelColoredNoiseMeasureVel:
		return NewConstVelColoredNoiseMeasureVel(c.Channels, c.ProcessNoiseStd, c.MeasurementNoiseStd, c.Rho)
	case ConstAccColoredNoiseMeasureVel:
		return NewConstAccColoredNoiseMeasureVel(c.Channels, c.ProcessNoiseStd, c.MeasurementNoiseStd, c.Rho, c.SamplingPeriod)
	}

	return nil, fmt.Errorf("%w: unsupported state model: %v", ErrInvalidConfig, c.Model)
}

// NewConstVelMeasurePos builds system of n channels with constant velocity
// state model whose positions are measured.
// Channel state is [position, velocity]:
//
//	F = |1 dt|  H = |1 0|
//	    |0  1|
//
// Process noise is white acceleration noise with variance sq[i]^2 integrated over dt:
//
//	Q = sq^2 * |dt^3/3 dt^2/2|  R = sr^2
//	           |dt^2/2     dt|
//
// It returns error if n is smaller than 1, noise slices do not have n non-negative
// elements or dt is not positive.
func NewConstVelMeasurePos(n int, sq, sr []float64, dt float64) (*System, error) {
	if err := checkChannels(n, sq, sr); err != nil {
		return nil, err
	}

	if err := checkPeriod(dt); err != nil {
		return nil, err
	}

	dt2 := dt * dt
	dt3 := dt2 * dt

	return stack(ConstVelMeasurePos, n, func(i int) block {
		v := sq[i] * sq[i]
		return block{
			f: mat.NewDense(2, 2, []float64{1, dt, 0, 1}),
			h: mat.NewDense(1, 2, []float64{1, 0}),
			q: mat.NewSymDense(2, []float64{
				v * dt3 / 3, v * dt2 / 2,
				v * dt2 / 2, v * dt,
			}),
			r: mat.NewSymDense(1, []float64{sr[i] * sr[i]}),
		}
	}), nil
}

// NewConstVelColoredNoiseMeasureVel builds system of n channels with constant
// velocity state model disturbed by AR(1) colored noise whose velocities are measured.
// Channel state is [velocity, colored noise]:
//
//	F = |1   1|  H = |1 0|
//	    |0 rho|
//
// Process noise drives the colored noise term so that its stationary variance is sq[i]^2:
//
//	Q = |0                0|  R = sr^2
//	    |0 sq^2*(1 - rho^2)|
//
// It returns error if n is smaller than 1, noise slices do not have n non-negative
// elements or |rho| >= 1.
func NewConstVelColoredNoiseMeasureVel(n int, sq, sr []float64, rho float64) (*System, error) {
	if err := checkChannels(n, sq, sr); err != nil {
		return nil, err
	}

	if err := checkRho(rho); err != nil {
		return nil, err
	}

	return stack(ConstVelColoredNoiseMeasureVel, n, func(i int) block {
		q := mat.NewSymDense(2, nil)
		q.SetSym(1, 1, sq[i]*sq[i]*(1-rho*rho))

		return block{
			f: mat.NewDense(2, 2, []float64{1, 1, 0, rho}),
			h: mat.NewDense(1, 2, []float64{1, 0}),
			q: q,
			r: mat.NewSymDense(1, []float64{sr[i] * sr[i]}),
		}
	}), nil
}

// NewConstAccColoredNoiseMeasureVel builds system of n channels with constant
// acceleration state model disturbed by AR(1) colored noise whose velocities are measured.
// Channel state is [velocity, acceleration, colored noise]:
//
//	F = |1 dt   0|  H = |1 0 0|
//	    |0  1   1|
//	    |0  0 rho|
//
// Process noise drives the colored noise term exactly as in NewConstVelColoredNoiseMeasureVel.
// It returns error if n is smaller than 1, noise slices do not have n non-negative
// elements, |rho| >= 1 or dt is not positive.
func NewConstAccColoredNoiseMeasureVel(n int, sq, sr []float64, rho, dt float64) (*System, error) {
	if err := checkChannels(n, sq, sr); err != nil {
		return nil, err
	}

	if err := checkRho(rho); err != nil {
		return nil, err
	}

	if err := checkPeriod(dt); err != nil {
		return nil, err
	}

	return stack(ConstAccColoredNoiseMeasureVel, n, func(i int) block {
		q := mat.NewSymDense(3, nil)
		q.SetSym(2, 2, sq[i]*sq[i]*(1-rho*rho))

		return block{
			f: mat.NewDense(3, 3, []float64{
				1, dt, 0,
				0, 1, 1,
				0, 0, rho,
			}),
			h: mat.NewDense(1, 3, []float64{1, 0, 0}),
			q: q,
			r: mat.NewSymDense(1, []float64{sr[i] * sr[i]}),
		}
	}), nil
}

// stack places n channel blocks along the diagonals of the system matrices
func stack(m StateModel, n int, channel func(int) block) *System {
	fs := make([]mat.Matrix, n)
	hs := make([]mat.Matrix, n)
	qs := make([]mat.Symmetric, n)
	rs := make([]mat.Symmetric, n)

	for i := 0; i < n; i++ {
		b := channel(i)
		fs[i], hs[i], qs[i], rs[i] = b.f, b.h, b.q, b.r
	}

	return &System{
		model:    m,
		channels: n,
		f:        matrix.BlockDiag(fs...),
		h:        matrix.BlockDiag(hs...),
		q:        matrix.BlockDiagSym(qs...),
		r:        matrix.BlockDiagSym(rs...),
	}
}
