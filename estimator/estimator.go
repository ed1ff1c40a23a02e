// Package estimator implements recursive state estimation of independent
// signal channels sharing one kinematic state model.
//
// An Estimator is not safe for concurrent use: callers that share one
// Estimator between goroutines must serialize access to it.
package estimator

import (
	"errors"
	"fmt"

	filter "github.com/milosgajdos/go-track"
	"github.com/milosgajdos/go-track/kalman/kf"
	"github.com/milosgajdos/go-track/model"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotConfigured is returned when filtering with estimator which has no usable configuration.
	ErrNotConfigured = errors.New("estimator not configured")
	// ErrInvalidMeasurement is returned when measurement does not match the configured system.
	ErrInvalidMeasurement = errors.New("invalid measurement")
	// ErrSingularInnovation is returned when Kalman gain can't be computed.
	ErrSingularInnovation = kf.ErrSingularInnovation
)

// Estimator is a linear Kalman filter of channels independent signal channels
type Estimator struct {
	// model is selected state model
	model model.StateModel
	// cfg is the last successfully applied configuration
	cfg *model.Config
	// sys is system built from cfg
	sys *model.System
	// kf is Kalman filter running on sys
	kf *kf.KF
	// x is current state estimate
	x *mat.VecDense
}

// New creates new Estimator with Unknown state model and returns it.
// Estimator must be configured before it accepts measurements.
func New() *Estimator {
	return &Estimator{model: model.Unknown}
}

// NewWithConfig creates new Estimator configured with c and returns it.
// It returns error if c is invalid.
func NewWithConfig(c *model.Config) (*Estimator, error) {
	e := New()
	if err := e.Configure(c); err != nil {
		return nil, err
	}

	return e, nil
}

// SelectModel selects state model m and derives state and measurement sizes from it.
// It does not build the system: if m differs from the configured model the
// estimator rejects measurements until it is configured again.
func (e *Estimator) SelectModel(m model.StateModel) {
	e.model = m
}

// StateModel returns selected state model.
func (e *Estimator) StateModel() model.StateModel {
	return e.model
}

// StateSize returns state vector size of a single channel.
func (e *Estimator) StateSize() int {
	nx, _ := e.model.Dims()
	return nx
}

// MeasureSize returns measurement vector size of a single channel.
func (e *Estimator) MeasureSize() int {
	_, ny := e.model.Dims()
	return ny
}

// Channels returns configured number of channels or 0 if the estimator is not configured.
func (e *Estimator) Channels() int {
	if e.cfg == nil {
		return 0
	}

	return e.cfg.Channels
}

// Configure validates c, builds the system matrices and resets the state to
// zero and its covariance to the initial covariance of c.
// It returns error wrapping model.ErrInvalidConfig if c is invalid; the
// estimator keeps its previous configuration and state in that case.
func (e *Estimator) Configure(c *model.Config) error {
	if c == nil {
		return fmt.Errorf("%w: nil config", model.ErrInvalidConfig)
	}

	cfg := copyConfig(c)

	sys, err := model.Build(cfg)
	if err != nil {
		return err
	}

	init := model.NewZeroInitCond(cfg)

	f, err := kf.New(sys, init)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}

	x := &mat.VecDense{}
	x.CloneFromVec(init.State())

	e.model = cfg.Model
	e.cfg = cfg
	e.sys = sys
	e.kf = f
	e.x = x

	return nil
}

// Filter runs one predict-update recursion with measurement z and returns the new estimate.
// z must contain one measurement per channel, channels stacked in order.
// It returns error if the estimator is not configured, z has wrong length or
// the innovation covariance is singular. State is not modified when error is returned.
func (e *Estimator) Filter(z mat.Vector) (filter.Estimate, error) {
	if !e.ready() {
		return nil, fmt.Errorf("%w: state model %v", ErrNotConfigured, e.model)
	}

	if ny := e.cfg.MeasureSize(); z == nil || z.Len() != ny {
		n := 0
		if z != nil {
			n = z.Len()
		}
		return nil, fmt.Errorf("%w: length %d != %d", ErrInvalidMeasurement, n, ny)
	}

	est, err := e.kf.Run(e.x, z)
	if err != nil {
		return nil, err
	}

	e.x.CloneFromVec(est.Val())

	return est, nil
}

// State returns current state estimate.
// It returns nil if the estimator is not configured.
func (e *Estimator) State() mat.Vector {
	if e.x == nil {
		return nil
	}

	x := &mat.VecDense{}
	x.CloneFromVec(e.x)

	return x
}

// Cov returns current state estimate covariance.
// It returns nil if the estimator is not configured.
func (e *Estimator) Cov() mat.Symmetric {
	if e.kf == nil {
		return nil
	}

	return e.kf.Cov()
}

// Gain returns Kalman gain of the last recursion.
// It returns nil if the estimator is not configured.
func (e *Estimator) Gain() mat.Matrix {
	if e.kf == nil {
		return nil
	}

	return e.kf.Gain()
}

// Prediction returns state and covariance predicted in the last recursion,
// before they were corrected by the measurement.
// It returns error if the estimator is not configured.
func (e *Estimator) Prediction() (filter.Estimate, error) {
	if !e.ready() {
		return nil, fmt.Errorf("%w: state model %v", ErrNotConfigured, e.model)
	}

	return e.kf.Prediction()
}

// System returns the configured system or nil if the estimator is not configured.
func (e *Estimator) System() *model.System {
	return e.sys
}

// Config returns a copy of the configuration applied last or nil if the estimator is not configured.
func (e *Estimator) Config() *model.Config {
	if e.cfg == nil {
		return nil
	}

	return copyConfig(e.cfg)
}

// ChannelState returns state estimate of channel i.
// It returns error if the estimator is not configured or i is out of range.
func (e *Estimator) ChannelState(i int) (mat.Vector, error) {
	if !e.ready() {
		return nil, fmt.Errorf("%w: state model %v", ErrNotConfigured, e.model)
	}

	if i < 0 || i >= e.cfg.Channels {
		return nil, fmt.Errorf("invalid channel: %d", i)
	}

	nx := e.StateSize()
	x := &mat.VecDense{}
	x.CloneFromVec(e.x.SliceVec(i*nx, (i+1)*nx))

	return x, nil
}

// ready returns true if the estimator can accept measurements
func (e *Estimator) ready() bool {
	return e.model != model.Unknown && e.kf != nil && e.sys.StateModel() == e.model
}

func copyConfig(c *model.Config) *model.Config {
	cfg := *c
	cfg.ProcessNoiseStd = append([]float64(nil), c.ProcessNoiseStd...)
	cfg.MeasurementNoiseStd = append([]float64(nil), c.MeasurementNoiseStd...)

	if c.InitCov != nil && c.InitCov.SymmetricDim() > 0 {
		cov := mat.NewSymDense(c.InitCov.SymmetricDim(), nil)
		cov.CopySym(c.InitCov)
		cfg.InitCov = cov
	}

	return &cfg
}
