package kf

import (
	"errors"
	"fmt"

	filter "github.com/milosgajdos/go-track"
	"github.com/milosgajdos/go-track/estimate"
	"github.com/milosgajdos/go-track/matrix"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// maxCond is the largest accepted condition number of innovation covariance
const maxCond = 1e15

// ErrSingularInnovation is returned when innovation covariance can't be factorized.
var ErrSingularInnovation = errors.New("singular innovation covariance")

// KF is Kalman Filter
type KF struct {
	// m is KF system model
	m filter.DiscreteModel
	// p is the KF covariance matrix
	p *mat.SymDense
	// pNext is the covariance used by the next Update
	pNext *mat.SymDense
	// xPred is the state predicted by the last Predict
	xPred *mat.VecDense
	// pPred is the covariance predicted by the last Predict
	pPred *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      dynamical system model
//   - init:   initial condition of the filter
//
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - model matrices do not match model dimensions
//   - initial condition does not match model dimensions
func New(m filter.DiscreteModel, init filter.InitCond) (*KF, error) {
	nx, ny := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	rows, cols := m.SystemMatrix().Dims()
	if rows != nx || cols != nx {
		return nil, fmt.Errorf("invalid propagation matrix dimensions: [%d x %d]", rows, cols)
	}

	rows, cols = m.OutputMatrix().Dims()
	if rows != ny || cols != nx {
		return nil, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", rows, cols)
	}

	if n := m.StateNoiseCov().SymmetricDim(); n != nx {
		return nil, fmt.Errorf("invalid state noise dimension: %d != %d", n, nx)
	}

	if n := m.OutputNoiseCov().SymmetricDim(); n != ny {
		return nil, fmt.Errorf("invalid output noise dimension: %d != %d", n, ny)
	}

	if init == nil {
		return nil, fmt.Errorf("invalid initial condition: %v", init)
	}

	if n := init.State().Len(); n != nx {
		return nil, fmt.Errorf("invalid initial state dimension: %d != %d", n, nx)
	}

	if n := init.Cov().SymmetricDim(); n != nx {
		return nil, fmt.Errorf("invalid initial covariance dimension: %d != %d", n, nx)
	}

	// initialize covariance matrix to initial condition covariance
	p := mat.NewSymDense(nx, nil)
	p.CopySym(init.Cov())

	// predicted state covariance
	pNext := mat.NewSymDense(nx, nil)
	pNext.CopySym(p)

	pPred := mat.NewSymDense(nx, nil)
	pPred.CopySym(p)

	xPred := &mat.VecDense{}
	xPred.CloneFromVec(init.State())

	return &KF{
		m:     m,
		p:     p,
		pNext: pNext,
		xPred: xPred,
		pPred: pPred,
		inn:   mat.NewVecDense(ny, nil),
		k:     mat.NewDense(nx, ny, nil),
	}, nil
}

// Predict propagates state x to the next step and returns its estimate.
// Predicted covariance is F*P*F' + Q; it is used by the next call to Update.
// It returns error if x can't be propagated.
func (k *KF) Predict(x mat.Vector) (filter.Estimate, error) {
	xNext, err := k.m.Propagate(x, nil)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	f := k.m.SystemMatrix()

	cov := &mat.Dense{}
	cov.Product(f, k.p, f.T())
	cov.Add(cov, k.m.StateNoiseCov())

	k.pNext.CopySym(matrix.Symmetrize(cov))
	k.pPred.CopySym(k.pNext)
	k.xPred.CopyVec(xNext)

	return estimate.NewBaseWithCov(xNext, k.pNext)
}

// Update corrects state x using the measurement z and returns corrected estimate.
// It uses the covariance computed by the last call to Predict.
// It returns error if either invalid state or measurement was supplied or if
// innovation covariance is singular. KF is not modified when error is returned.
func (k *KF) Update(x, z mat.Vector) (filter.Estimate, error) {
	nx, ny := k.m.SystemDims()

	if z == nil || z.Len() != ny {
		return nil, fmt.Errorf("invalid measurement supplied: %v", z)
	}

	// observe system output in the next step
	y, err := k.m.Observe(x, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to observe system output: %w", err)
	}

	h := k.m.OutputMatrix()
	r := k.m.OutputNoiseCov()

	// P*H'
	pxy := mat.NewDense(nx, ny, nil)
	pxy.Mul(k.pNext, h.T())

	// H*P*H' + R
	pyy := mat.NewDense(ny, ny, nil)
	pyy.Mul(h, pxy)
	pyy.Add(pyy, r)

	var chol mat.Cholesky
	if ok := chol.Factorize(matrix.Symmetrize(pyy)); !ok {
		return nil, fmt.Errorf("%w: not positive definite", ErrSingularInnovation)
	}

	if cond := chol.Cond(); cond > maxCond {
		return nil, fmt.Errorf("%w: condition number %g", ErrSingularInnovation, cond)
	}

	// S*K' = H*P is solved for K' instead of inverting S
	gainT := &mat.Dense{}
	if err := chol.SolveTo(gainT, pxy.T()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularInnovation, err)
	}
	gain := mat.DenseCopyOf(gainT.T())

	// innovation vector
	inn := mat.NewVecDense(ny, nil)
	inn.SubVec(z, y)

	// update state x
	xNext := mat.NewVecDense(nx, nil)
	xNext.MulVec(gain, inn)
	xNext.AddVec(x, xNext)

	// Joseph form update
	eye, err := gomatrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}
	a := &mat.Dense{}
	// K*H
	a.Mul(gain, h)
	// eye - K*H
	a.Sub(eye, a)

	// (I-K*H)*P*(I-K*H)'
	apa := &mat.Dense{}
	apa.Product(a, k.pNext, a.T())

	// K*R*K'
	krk := &mat.Dense{}
	krk.Product(gain, r, gain.T())

	apa.Add(apa, krk)

	// update KF innovation vector, gain and covariance
	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	k.p.CopySym(matrix.Symmetrize(apa))
	k.pNext.CopySym(k.p)

	return estimate.NewBaseWithCov(xNext, k.p)
}

// Run runs one step of KF for given state x and measurement z.
// It predicts the next state of x and corrects it using measurement z.
// It returns error if it either fails to propagate or correct state x.
func (k *KF) Run(x, z mat.Vector) (filter.Estimate, error) {
	if _, ny := k.m.SystemDims(); z == nil || z.Len() != ny {
		return nil, fmt.Errorf("invalid measurement supplied: %v", z)
	}

	pNext := mat.NewSymDense(k.pNext.SymmetricDim(), nil)
	pNext.CopySym(k.pNext)
	pPred := mat.NewSymDense(k.pPred.SymmetricDim(), nil)
	pPred.CopySym(k.pPred)
	xPred := mat.VecDenseCopyOf(k.xPred)

	pred, err := k.Predict(x)
	if err != nil {
		return nil, err
	}

	est, err := k.Update(pred.Val(), z)
	if err != nil {
		// roll back prediction
		k.pNext.CopySym(pNext)
		k.pPred.CopySym(pPred)
		k.xPred.CopyVec(xPred)
		return nil, err
	}

	return est, nil
}

// Model returns KF model
func (k *KF) Model() filter.DiscreteModel {
	return k.m
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("invalid covariance matrix dims: [%d x %d]", cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)
	k.pNext.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Prediction returns state and covariance predicted by the last call to Predict.
// Before the first prediction it returns the initial condition.
func (k *KF) Prediction() (filter.Estimate, error) {
	return estimate.NewBaseWithCov(k.xPred, k.pPred)
}

// Innovation returns innovation vector of the last update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}
