package motorboard

import (
	"math"

	"github.com/samber/lo"
)

const (
	// MaxSpeed is the full scale command speed.
	MaxSpeed = 255
	// MaxDuty is the full scale PWM duty, in ticks.
	MaxDuty = 4095
	// DefaultBrakeLevel is the duty put on both channels of a braked motor.
	DefaultBrakeLevel = 1000
)

// Config is the mutable state commands are translated against.
type Config struct {
	// Reverse flips the effective direction of a motor, indexed by MotorID-1.
	Reverse [4]bool
	// BrakeLevel is in [0, MaxDuty].
	BrakeLevel int
}

// DefaultConfig returns M1 and M2 normal, M3 and M4 reversed and a brake level of 1000, which
// suits the stock chassis.
func DefaultConfig() Config {
	return Config{
		Reverse:    [4]bool{false, false, true, true},
		BrakeLevel: DefaultBrakeLevel,
	}
}

// Reversed reports whether motor m is configured as reversed.
func (c Config) Reversed(m MotorID) bool {
	if !m.Valid() {
		return false
	}
	return c.Reverse[m-1]
}

// SetReversal overwrites all four reversal flags.
func (c *Config) SetReversal(m1, m2, m3, m4 bool) {
	c.Reverse = [4]bool{m1, m2, m3, m4}
}

// SetBrakeLevel stores level clamped to [0, MaxDuty] and reports whether it had to be clamped.
func (c *Config) SetBrakeLevel(level int) bool {
	c.BrakeLevel = lo.Clamp(level, 0, MaxDuty)
	return c.BrakeLevel != level
}

// ClampSpeed limits speed to [0, MaxSpeed].
func ClampSpeed(speed int) int {
	return lo.Clamp(speed, 0, MaxSpeed)
}

// Duty scales a speed to a duty cycle: round(speed * 4095 / 255) after clamping, so 0 and 255
// map to 0 and full scale.
func Duty(speed int) int {
	return int(math.Round(float64(ClampSpeed(speed)) * MaxDuty / MaxSpeed))
}
