package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// System is a stacked linear discrete-time system of independent signal channels.
//
//	x[k+1] = F*x[k] + w[k],  w ~ N(0, Q)
//	z[k]   = H*x[k] + v[k],  v ~ N(0, R)
//
// System matrices are block diagonal: every channel contributes one block.
// System is immutable; the returned matrices must not be modified.
type System struct {
	model    StateModel
	channels int
	// F is state transition matrix
	f *mat.Dense
	// H is measurement matrix
	h *mat.Dense
	// Q is process noise covariance
	q *mat.SymDense
	// R is measurement noise covariance
	r *mat.SymDense
}

// StateModel returns system state model.
func (s *System) StateModel() StateModel { return s.model }

// Channels returns the number of stacked signal channels.
func (s *System) Channels() int { return s.channels }

// SystemDims returns stacked state vector length (nx) and stacked measurement vector length (ny).
func (s *System) SystemDims() (nx, ny int) {
	nx, _ = s.f.Dims()
	ny, _ = s.h.Dims()
	return nx, ny
}

// SystemMatrix returns state transition matrix F.
func (s *System) SystemMatrix() mat.Matrix { return s.f }

// OutputMatrix returns measurement matrix H.
func (s *System) OutputMatrix() mat.Matrix { return s.h }

// StateNoiseCov returns process noise covariance Q.
func (s *System) StateNoiseCov() mat.Symmetric { return s.q }

// OutputNoiseCov returns measurement noise covariance R.
func (s *System) OutputNoiseCov() mat.Symmetric { return s.r }

// Propagate propagates internal state x to the next step.
// wd is added to the propagated state as process noise if it is not nil.
func (s *System) Propagate(x, wd mat.Vector) (mat.Vector, error) {
	nx, _ := s.SystemDims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector length: %d != %d", x.Len(), nx)
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(s.f, x)

	if wd != nil {
		if wd.Len() != nx {
			return nil, fmt.Errorf("invalid process noise length: %d != %d", wd.Len(), nx)
		}
		out.AddVec(out, wd)
	}

	return out, nil
}

// Observe observes external state of the system given internal state x.
// wn is added to the output as measurement noise if it is not nil.
func (s *System) Observe(x, wn mat.Vector) (mat.Vector, error) {
	nx, ny := s.SystemDims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector length: %d != %d", x.Len(), nx)
	}

	out := mat.NewVecDense(ny, nil)
	out.MulVec(s.h, x)

	if wn != nil {
		if wn.Len() != ny {
			return nil, fmt.Errorf("invalid measurement noise length: %d != %d", wn.Len(), ny)
		}
		out.AddVec(out, wn)
	}

	return out, nil
}

// String implements the Stringer interface.
func (s *System) String() string {
	return fmt.Sprintf("System{\nModel=%v\nChannels=%d\nF=%v\nH=%v\nQ=%v\nR=%v\n}",
		s.model, s.channels,
		mat.Formatted(s.f, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(s.h, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(s.q, mat.Prefix("  "), mat.Squeeze()),
		mat.Formatted(s.r, mat.Prefix("  "), mat.Squeeze()))
}
