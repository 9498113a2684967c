package motorboard

import (
	"fmt"
	"maps"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// NumChannels is the number of PWM channels a board exposes.
const NumChannels = 16

// ChannelPair binds a motor to the two channels of its H-bridge.
type ChannelPair struct {
	// Forward is driven for a positive command on a non-inverted chip.
	Forward int
	Reverse int
	// Inverted swaps which channel a command sign drives. It models a chip whose output
	// polarity is backwards relative to the command.
	Inverted bool
	// Partner is the motor sharing this motor's chip, or zero. Driving a coupled motor
	// brakes its partner.
	Partner MotorID
}

// Coupled reports whether the motor shares its chip with another motor.
func (p ChannelPair) Coupled() bool {
	return p.Partner != 0
}

// drive returns the writes that run the pair in the direction of sign at duty. A zero sign
// releases both channels.
func (p ChannelPair) drive(sign, duty int) Plan {
	forward, reverse := 0, 0
	switch {
	case sign == 0:
	case (sign > 0) != p.Inverted:
		forward = duty
	default:
		reverse = duty
	}
	return p.set(forward, reverse)
}

func (p ChannelPair) brake(level int) Plan {
	return p.set(level, level)
}

func (p ChannelPair) release() Plan {
	return p.set(0, 0)
}

// set always writes the forward channel first.
func (p ChannelPair) set(forward, reverse int) Plan {
	return Plan{
		{Channel: p.Forward, Off: forward},
		{Channel: p.Reverse, Off: reverse},
	}
}

// Decode reports the state the pair is in given the duty on its forward and reverse channels.
func (p ChannelPair) Decode(forward, reverse int) MotorState {
	switch {
	case forward == 0 && reverse == 0:
		return MotorState{Mode: Stopped}
	case forward == reverse:
		return MotorState{Mode: Braked, Duty: forward}
	case forward != 0 && reverse != 0:
		return MotorState{Mode: Conflicting, Duty: max(forward, reverse)}
	}
	positive := forward != 0
	if p.Inverted {
		positive = !positive
	}
	if positive {
		return MotorState{Mode: Clockwise, Duty: forward + reverse}
	}
	return MotorState{Mode: CounterClockwise, Duty: forward + reverse}
}

// Wiring maps every motor to its channel pair.
type Wiring map[MotorID]ChannelPair

// DefaultWiring returns the stock board layout. M1 and M2 sit on a normal chip, M3 and M4 share
// a chip with inverted polarity.
func DefaultWiring() Wiring {
	return Wiring{
		M1: {Forward: 7, Reverse: 6},
		M2: {Forward: 5, Reverse: 4},
		M3: {Forward: 3, Reverse: 2, Inverted: true, Partner: M4},
		M4: {Forward: 1, Reverse: 0, Inverted: true, Partner: M3},
	}
}

// Validate checks that all four motors are wired to distinct channels and that partners point at
// each other.
func (w Wiring) Validate() error {
	var used []int
	for _, m := range AllMotors {
		pair, ok := w[m]
		if !ok {
			return errors.Errorf("motor %v is not wired", m)
		}
		for _, ch := range []int{pair.Forward, pair.Reverse} {
			if ch < 0 || ch >= NumChannels {
				return errors.Errorf("motor %v channel %d out of range [0, %d)", m, ch, NumChannels)
			}
			if lo.Contains(used, ch) {
				return errors.Errorf("channel %d is wired to more than one motor", ch)
			}
			used = append(used, ch)
		}
		if !pair.Coupled() {
			continue
		}
		if pair.Partner == m || !pair.Partner.Valid() {
			return errors.Errorf("motor %v has invalid partner %v", m, pair.Partner)
		}
		if w[pair.Partner].Partner != m {
			return errors.Errorf("motor %v is coupled to %v but not the other way around", m, pair.Partner)
		}
	}
	return nil
}

// Copy returns an independent copy of w.
func (w Wiring) Copy() Wiring {
	return maps.Clone(w)
}

// MotorMode is what a motor's channel pair is doing.
type MotorMode int

// Motor modes.
const (
	Stopped MotorMode = iota
	Braked
	Clockwise
	CounterClockwise
	// Conflicting means both channels carry different nonzero duties, which no command produces.
	Conflicting
)

func (m MotorMode) String() string {
	switch m {
	case Stopped:
		return "stopped"
	case Braked:
		return "braked"
	case Clockwise:
		return "CW"
	case CounterClockwise:
		return "CCW"
	case Conflicting:
		return "conflicting"
	default:
		return fmt.Sprintf("MotorMode(%d)", int(m))
	}
}

// MotorState is a decoded motor pair.
type MotorState struct {
	Mode MotorMode
	Duty int
}

func (s MotorState) String() string {
	switch s.Mode {
	case Stopped:
		return s.Mode.String()
	case Braked:
		return fmt.Sprintf("braked @ %d", s.Duty)
	default:
		return fmt.Sprintf("%v @ duty %d", s.Mode, s.Duty)
	}
}
