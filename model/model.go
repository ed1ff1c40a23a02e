// Package model provides the catalog of supported kinematic state models and
// builds the stacked system matrices used by linear Kalman filters.
package model

import "fmt"

// StateModel is a kinematic state model of a tracked signal
type StateModel int

const (
	// Unknown marks state model which has not been initialized
	Unknown StateModel = iota
	// ConstVelMeasurePos models a target moving with constant velocity
	// whose successive positions are measured.
	// Channel state is [position, velocity].
	ConstVelMeasurePos
	// ConstVelColoredNoiseMeasureVel models a target moving with constant
	// velocity disturbed by colored (AR(1)) acceleration noise whose
	// velocities are measured.
	// Channel state is [velocity, colored noise].
	ConstVelColoredNoiseMeasureVel
	// ConstAccColoredNoiseMeasureVel models a target moving with constant
	// acceleration disturbed by colored (AR(1)) noise whose velocities
	// are measured.
	// Channel state is [velocity, acceleration, colored noise].
	ConstAccColoredNoiseMeasureVel
)

var names = map[StateModel]string{
	Unknown:                        "unknown",
	ConstVelMeasurePos:             "const_vel_measure_pos",
	ConstVelColoredNoiseMeasureVel: "const_vel_colored_noise_measure_vel",
	ConstAccColoredNoiseMeasureVel: "const_acc_colored_noise_measure_vel",
}

// Dims returns the state and measurement vector sizes of a single signal channel.
// Unknown and unsupported models have zero dimensions.
func (m StateModel) Dims() (stateSize, measureSize int) {
	switch m {
	case ConstVelMeasurePos, ConstVelColoredNoiseMeasureVel:
		return 2, 1
	case ConstAccColoredNoiseMeasureVel:
		return 3, 1
	default:
		return 0, 0
	}
}

// ColoredNoise returns true if the model contains AR(1) colored noise term.
func (m StateModel) ColoredNoise() bool {
	return m == ConstVelColoredNoiseMeasureVel || m == ConstAccColoredNoiseMeasureVel
}

// String implements the Stringer interface.
func (m StateModel) String() string {
	if name, ok := names[m]; ok {
		return name
	}

	return fmt.Sprintf("StateModel(%d)", int(m))
}

// ParseStateModel returns state model with the given name.
// It returns error if the name does not match any known model.
func ParseStateModel(name string) (StateModel, error) {
	for m, n := range names {
		if n == name {
			return m, nil
		}
	}

	return Unknown, fmt.Errorf("unknown state model: %q", name)
}
