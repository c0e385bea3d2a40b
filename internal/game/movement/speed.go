// Package movement holds the step-timing formula shared by every walking creature.
package movement

import "math"

// TickMs is the scheduler granularity step durations are rounded up to.
const TickMs = 50

// SpeedCurve is the logarithmic curve mapping step speed to effective speed.
type SpeedCurve struct {
	A float64
	B float64
	C float64
}

// DefaultCurve is the curve used when configuration does not override it.
var DefaultCurve = SpeedCurve{A: 857.36, B: 261.29, C: -4795.01}

// EffectiveSpeed maps a step speed through the curve. The step speed is
// halved with integer division before it enters the logarithm.
//
// Postcondition: Returns a value >= 1. Step speeds whose half is at or
// below -B yield 1.
func (c SpeedCurve) EffectiveSpeed(stepSpeed int) int {
	half := float64(stepSpeed / 2)
	if half+c.B <= 0 {
		return 1
	}
	v := int(math.Floor(c.A*math.Log(half+c.B) + c.C + 0.5))
	if v < 1 {
		return 1
	}
	return v
}

// StepDuration returns the time in ms to cross one orthogonal tile of the
// given ground speed.
//
// Precondition: groundSpeed > 0; callers substitute world.DefaultGroundSpeed.
// Postcondition: The result is a positive multiple of TickMs.
func StepDuration(stepSpeed, groundSpeed int, curve SpeedCurve) int64 {
	eff := int64(curve.EffectiveSpeed(stepSpeed))
	raw := 1000 * int64(groundSpeed) / eff
	d := (raw + TickMs - 1) / TickMs * TickMs
	if d < TickMs {
		d = TickMs
	}
	return d
}
