package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateModelDims(t *testing.T) {
	assert := assert.New(t)

	testCases := []struct {
		model   StateModel
		state   int
		measure int
		colored bool
	}{
		{ConstVelMeasurePos, 2, 1, false},
		{ConstVelColoredNoiseMeasureVel, 2, 1, true},
		{ConstAccColoredNoiseMeasureVel, 3, 1, true},
		{Unknown, 0, 0, false},
		{StateModel(42), 0, 0, false},
	}

	for _, tc := range testCases {
		nx, ny := tc.model.Dims()
		assert.Equal(tc.state, nx, tc.model.String())
		assert.Equal(tc.measure, ny, tc.model.String())
		assert.Equal(tc.colored, tc.model.ColoredNoise(), tc.model.String())
	}
}

func TestParseStateModel(t *testing.T) {
	assert := assert.New(t)

	for _, m := range []StateModel{Unknown, ConstVelMeasurePos, ConstVelColoredNoiseMeasureVel, ConstAccColoredNoiseMeasureVel} {
		parsed, err := ParseStateModel(m.String())
		assert.NoError(err)
		assert.Equal(m, parsed)
	}

	m, err := ParseStateModel("const_jerk")
	assert.Error(err)
	assert.Equal(Unknown, m)

	assert.Equal("StateModel(42)", StateModel(42).String())
}
