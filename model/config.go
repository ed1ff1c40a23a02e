package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/milosgajdos/go-track/matrix"
	"gonum.org/v1/gonum/mat"
)

// DefaultInitVariance is the variance of every state element in the default
// initial covariance. It is large to reflect prior ignorance of the state.
const DefaultInitVariance = 100.0

// psdTol is relative tolerance of negative eigenvalues of initial covariance
const psdTol = 1e-12

// ErrInvalidConfig is returned when filter configuration is invalid.
var ErrInvalidConfig = errors.New("invalid filter configuration")

// Config is a filter configuration
type Config struct {
	// Model is the state model of every signal channel
	Model StateModel
	// Channels is the number of independent signal channels
	Channels int
	// SamplingPeriod is the period between two measurements in seconds
	SamplingPeriod float64
	// Rho is AR(1) correlation coefficient of colored noise models
	Rho float64
	// ProcessNoiseStd contains process noise standard deviation of each channel
	ProcessNoiseStd []float64
	// MeasurementNoiseStd contains measurement noise standard deviation of each channel
	MeasurementNoiseStd []float64
	// InitVariance scales identity initial covariance; zero means DefaultInitVariance
	InitVariance float64
	// InitCov is optional initial covariance; it overrides InitVariance
	InitCov mat.Symmetric
}

// StateSize returns the size of the stacked state vector.
func (c *Config) StateSize() int {
	nx, _ := c.Model.Dims()
	return c.Channels * nx
}

// MeasureSize returns the size of the stacked measurement vector.
func (c *Config) MeasureSize() int {
	_, ny := c.Model.Dims()
	return c.Channels * ny
}

// Validate checks the configuration.
// It returns error wrapping ErrInvalidConfig if either of the following conditions is met:
//   - model is Unknown or unsupported
//   - channel count is smaller than 1
//   - sampling period is not positive
//   - noise vectors do not have one element per channel or contain negative values
//   - |rho| >= 1 for colored noise models
//   - initial variance is negative
//   - initial covariance does not match state size or is not positive semi-definite
func (c *Config) Validate() error {
	if nx, _ := c.Model.Dims(); nx == 0 {
		return fmt.Errorf("%w: unsupported state model: %v", ErrInvalidConfig, c.Model)
	}

	if err := checkChannels(c.Channels, c.ProcessNoiseStd, c.MeasurementNoiseStd); err != nil {
		return err
	}

	if err := checkPeriod(c.SamplingPeriod); err != nil {
		return err
	}

	if c.Model.ColoredNoise() {
		if err := checkRho(c.Rho); err != nil {
			return err
		}
	}

	if c.InitVariance < 0 || math.IsNaN(c.InitVariance) {
		return fmt.Errorf("%w: invalid initial variance: %v", ErrInvalidConfig, c.InitVariance)
	}

	if c.InitCov != nil {
		return checkInitCov(c.InitCov, c.StateSize())
	}

	return nil
}

// checkInitCov checks cov is a [n x n] positive semi-definite matrix.
// Eigenvalues down to -psdTol times the largest diagonal element are accepted as rounding error.
func checkInitCov(cov mat.Symmetric, n int) error {
	if cov.SymmetricDim() != n {
		return fmt.Errorf("%w: invalid initial covariance dimension: %d != %d",
			ErrInvalidConfig, cov.SymmetricDim(), n)
	}

	scale := 1.0
	for i := 0; i < n; i++ {
		scale = math.Max(scale, math.Abs(cov.At(i, i)))
	}

	if eig := matrix.MinEigen(cov); !(eig >= -psdTol*scale) {
		return fmt.Errorf("%w: initial covariance is not positive semi-definite: min eigenvalue %v",
			ErrInvalidConfig, eig)
	}

	return nil
}

func checkChannels(n int, processStd, measureStd []float64) error {
	if n < 1 {
		return fmt.Errorf("%w: invalid channel count: %d", ErrInvalidConfig, n)
	}

	if err := checkStd("process", processStd, n); err != nil {
		return err
	}

	return checkStd("measurement", measureStd, n)
}

func checkPeriod(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("%w: invalid sampling period: %v", ErrInvalidConfig, dt)
	}

	return nil
}

func checkRho(rho float64) error {
	if !(math.Abs(rho) < 1) {
		return fmt.Errorf("%w: invalid correlation coefficient: %v", ErrInvalidConfig, rho)
	}

	return nil
}

func checkStd(kind string, std []float64, n int) error {
	if len(std) != n {
		return fmt.Errorf("%w: invalid %s noise size: %d != %d", ErrInvalidConfig, kind, len(std), n)
	}

	for i, s := range std {
		if !(s >= 0) || math.IsInf(s, 1) {
			return fmt.Errorf("%w: invalid %s noise std of channel %d: %v", ErrInvalidConfig, kind, i, s)
		}
	}

	return nil
}

// InitialCov returns initial state covariance of the configured filter.
// It returns a copy of InitCov if it is set, otherwise it returns a diagonal
// matrix with InitVariance, or DefaultInitVariance if InitVariance is zero.
func (c *Config) InitialCov() *mat.SymDense {
	n := c.StateSize()
	cov := mat.NewSymDense(n, nil)

	if c.InitCov != nil {
		cov.CopySym(c.InitCov)
		return cov
	}

	v := c.InitVariance
	if v == 0 {
		v = DefaultInitVariance
	}

	for i := 0; i < n; i++ {
		cov.SetSym(i, i, v)
	}

	return cov
}
