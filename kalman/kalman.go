// Package kalman defines linear Kalman filter behaviour shared by its implementations.
package kalman

import (
	filter "github.com/milosgajdos/go-track"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// Run predicts the next state and corrects it with measurement
	Run(x, z mat.Vector) (filter.Estimate, error)
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// SetCov sets Kalman filter state covariance
	SetCov(mat.Symmetric) error
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
	// Innovation returns innovation vector of the last update
	Innovation() mat.Vector
}
