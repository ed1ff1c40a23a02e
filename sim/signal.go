// Package sim simulates signal channels driven by a stacked kinematic model
// and plots simulation results.
package sim

import (
	"fmt"

	"golang.org/x/exp/rand"

	filter "github.com/milosgajdos/go-track"
	"github.com/milosgajdos/go-track/model"
	"github.com/milosgajdos/go-track/noise"
	"github.com/milosgajdos/go-track/rnd"
	"gonum.org/v1/gonum/mat"
)

// Signal generates ground truth states and noisy measurements of a system.
//
//	x[k+1] = F*x[k] + w[k],  w ~ N(0, Q)
//	z[k]   = H*x[k] + v[k],  v ~ N(0, R)
type Signal struct {
	// sys is simulated system
	sys *model.System
	// x is current true state
	x *mat.VecDense
	// src is process noise source
	src *rand.Rand
	// meas is measurement noise
	meas filter.Noise
}

// NewSignal creates new Signal of system sys starting in state x0 and returns it.
// Noise sources are seeded with seed; zero seed makes the simulation seeded from time.
// It returns error if x0 does not match sys dimensions or measurement noise can't be created.
func NewSignal(sys *model.System, x0 mat.Vector, seed uint64) (*Signal, error) {
	if sys == nil {
		return nil, fmt.Errorf("invalid system: %v", sys)
	}

	nx, ny := sys.SystemDims()
	if x0 == nil || x0.Len() != nx {
		return nil, fmt.Errorf("invalid initial state: expected length %d", nx)
	}

	meas, err := measurementNoise(sys.OutputNoiseCov(), ny, seed)
	if err != nil {
		return nil, err
	}

	var src *rand.Rand
	if seed != 0 {
		src = rand.New(rand.NewSource(seed))
	}

	x := &mat.VecDense{}
	x.CloneFromVec(x0)

	return &Signal{
		sys:  sys,
		x:    x,
		src:  src,
		meas: meas,
	}, nil
}

// measurementNoise returns noise with covariance r.
// Zero r yields Zero noise and positive definite r yields Gaussian noise.
// Singular r, i.e. some channels measured without noise, is sampled via SVD.
func measurementNoise(r mat.Symmetric, ny int, seed uint64) (filter.Noise, error) {
	if mat.Norm(r, 1) == 0 {
		return noise.NewZero(ny)
	}

	// measurement noise must not repeat the process noise sequence
	if seed != 0 {
		seed++
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(r); !ok {
		return newCovNoise(r, seed), nil
	}

	g, err := noise.NewGaussianWithSeed(make([]float64, ny), r, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement noise: %w", err)
	}

	return g, nil
}

// State returns current true state.
func (s *Signal) State() mat.Vector {
	x := &mat.VecDense{}
	x.CloneFromVec(s.x)

	return x
}

// Step advances the true state by one sampling period and returns it together with its measurement.
func (s *Signal) Step() (x, z mat.Vector, err error) {
	wd, err := rnd.WithCovN(s.sys.StateNoiseCov(), 1, s.src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sample process noise: %w", err)
	}

	return s.step(wd.ColView(0))
}

func (s *Signal) step(wd mat.Vector) (mat.Vector, mat.Vector, error) {
	x, err := s.sys.Propagate(s.x, wd)
	if err != nil {
		return nil, nil, err
	}

	z, err := s.sys.Observe(x, s.meas.Sample())
	if err != nil {
		return nil, nil, err
	}

	s.x.CopyVec(x)

	return x, z, nil
}

// Run advances the true state n times and returns the true states and measurements.
// Row k of truth holds the state after k+1 steps and row k of measure holds its measurement.
// It returns error if n is not positive.
func (s *Signal) Run(n int) (truth, measure *mat.Dense, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("invalid number of steps: %d", n)
	}

	wd, err := rnd.WithCovN(s.sys.StateNoiseCov(), n, s.src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sample process noise: %w", err)
	}

	nx, ny := s.sys.SystemDims()
	truth = mat.NewDense(n, nx, nil)
	measure = mat.NewDense(n, ny, nil)

	for k := 0; k < n; k++ {
		x, z, err := s.step(wd.ColView(k))
		if err != nil {
			return nil, nil, err
		}

		truth.SetRow(k, mat.Col(nil, 0, x))
		measure.SetRow(k, mat.Col(nil, 0, z))
	}

	return truth, measure, nil
}
