// Package motorboard translates motor and mecanum chassis commands into PWM channel writes for a
// four motor H-bridge board driven by a PCA9685.
//
// Translation is pure: the Plan functions map a Wiring, a Config and a command to the ordered
// channel writes that realize it. A Board owns a Config and replays plans on a ChannelSink, which
// may be real hardware or the simulator in the sim package.
package motorboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MotorID identifies one of the four motors.
type MotorID int

// The four motors. M1 and M2 sit on an independent H-bridge chip, M3 and M4 share one.
const (
	M1 MotorID = iota + 1
	M2
	M3
	M4
)

// AllMotors lists every motor in index order.
var AllMotors = []MotorID{M1, M2, M3, M4}

// Valid reports whether m is one of M1 through M4.
func (m MotorID) Valid() bool {
	return m >= M1 && m <= M4
}

func (m MotorID) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MotorID(%d)", int(m))
	}
	return "M" + strconv.Itoa(int(m))
}

// ParseMotorID accepts "m1", "M1" or "1".
func ParseMotorID(s string) (MotorID, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "m")
	n, err := strconv.Atoi(trimmed)
	if err != nil || !MotorID(n).Valid() {
		return 0, errors.Errorf("unknown motor %q, expected one of m1, m2, m3, m4", s)
	}
	return MotorID(n), nil
}

// Direction is the rotation of a single motor, stored as a sign.
type Direction int

// Directions.
const (
	CW  Direction = 1
	CCW Direction = -1
)

// Valid reports whether d is CW or CCW.
func (d Direction) Valid() bool {
	return d == CW || d == CCW
}

func (d Direction) String() string {
	switch d {
	case CW:
		return "CW"
	case CCW:
		return "CCW"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "cw", "clockwise", "ccw" and "counterclockwise".
func ParseDirection(s string) (Direction, error) {
	switch normalizeName(s) {
	case "cw", "clockwise":
		return CW, nil
	case "ccw", "counterclockwise", "anticlockwise":
		return CCW, nil
	default:
		return 0, errors.Errorf("unknown direction %q, expected cw or ccw", s)
	}
}

// ChassisDirection is a whole vehicle movement.
type ChassisDirection int

// Chassis directions.
const (
	Forward ChassisDirection = iota
	Backward
	StrafeLeft
	StrafeRight
	RotateCW
	RotateCCW
	DiagonalForwardRight
	DiagonalForwardLeft
	DiagonalBackwardRight
	DiagonalBackwardLeft
)

var chassisDirectionNames = []string{
	Forward:               "forward",
	Backward:              "backward",
	StrafeLeft:            "strafe-left",
	StrafeRight:           "strafe-right",
	RotateCW:              "rotate-cw",
	RotateCCW:             "rotate-ccw",
	DiagonalForwardRight:  "diagonal-forward-right",
	DiagonalForwardLeft:   "diagonal-forward-left",
	DiagonalBackwardRight: "diagonal-backward-right",
	DiagonalBackwardLeft:  "diagonal-backward-left",
}

// AllChassisDirections lists every chassis direction.
var AllChassisDirections = []ChassisDirection{
	Forward, Backward, StrafeLeft, StrafeRight, RotateCW, RotateCCW,
	DiagonalForwardRight, DiagonalForwardLeft, DiagonalBackwardRight, DiagonalBackwardLeft,
}

// Valid reports whether d is a known chassis direction.
func (d ChassisDirection) Valid() bool {
	return d >= Forward && d <= DiagonalBackwardLeft
}

func (d ChassisDirection) String() string {
	if !d.Valid() {
		return fmt.Sprintf("ChassisDirection(%d)", int(d))
	}
	return chassisDirectionNames[d]
}

// ParseChassisDirection accepts names such as "strafe-left", "StrafeLeft" or "strafe_left".
// "diag" may stand in for "diagonal".
func ParseChassisDirection(s string) (ChassisDirection, error) {
	name := normalizeName(s)
	if rest, ok := strings.CutPrefix(name, "diag"); ok && !strings.HasPrefix(rest, "onal") {
		name = "diagonal" + rest
	}
	for _, d := range AllChassisDirections {
		if normalizeName(chassisDirectionNames[d]) == name {
			return d, nil
		}
	}
	return 0, errors.Errorf("unknown chassis direction %q, expected one of %s",
		s, strings.Join(chassisDirectionNames, ", "))
}

func normalizeName(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
