package movement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/creaturesim/internal/game/movement"
)

func TestEffectiveSpeed(t *testing.T) {
	c := movement.DefaultCurve
	assert.Equal(t, 278, c.EffectiveSpeed(220))
	assert.Equal(t, 1, c.EffectiveSpeed(-600), "half below -B clamps to 1")
	assert.Equal(t, 1, c.EffectiveSpeed(-300), "curve is negative for slow speeds")
	assert.Equal(t, 1, c.EffectiveSpeed(0), "curve is negative near zero")
}

func TestEffectiveSpeed_HalvesWithIntegerDivision(t *testing.T) {
	c := movement.DefaultCurve
	// A float half of 221 would give ln(371.79) and round to 279.
	assert.Equal(t, 278, c.EffectiveSpeed(221))
	assert.Equal(t, c.EffectiveSpeed(220), c.EffectiveSpeed(221))
}

func TestStepDuration_KnownValue(t *testing.T) {
	// 1000*150/278 = 539 -> 550
	assert.Equal(t, int64(550), movement.StepDuration(220, 150, movement.DefaultCurve))
}

func TestStepDuration_SlowSpeedIsLong(t *testing.T) {
	assert.Equal(t, int64(150000), movement.StepDuration(0, 150, movement.DefaultCurve))
}

func TestStepDuration_Property_MultipleOfTick(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.IntRange(-500, 3000).Draw(rt, "speed")
		ground := rapid.IntRange(1, 500).Draw(rt, "ground")
		d := movement.StepDuration(speed, ground, movement.DefaultCurve)
		assert.Positive(rt, d)
		assert.Zero(rt, d%movement.TickMs)
	})
}

func TestStepDuration_Property_MonotonicInSpeed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.IntRange(100, 2000).Draw(rt, "speed")
		faster := speed + rapid.IntRange(0, 500).Draw(rt, "delta")
		ground := rapid.IntRange(50, 300).Draw(rt, "ground")
		assert.LessOrEqual(rt,
			movement.StepDuration(faster, ground, movement.DefaultCurve),
			movement.StepDuration(speed, ground, movement.DefaultCurve))
	})
}
