package motorboard

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidMotorError is returned in strict mode for a motor outside M1 through M4.
type InvalidMotorError struct {
	Motor MotorID
}

func (e *InvalidMotorError) Error() string {
	return fmt.Sprintf("invalid motor %d, must be between %d and %d", int(e.Motor), int(M1), int(M4))
}

// NewInvalidMotorError returns an error for an unknown motor.
func NewInvalidMotorError(m MotorID) error {
	return &InvalidMotorError{Motor: m}
}

// InvalidDirectionError is returned in strict mode for a direction other than CW or CCW.
type InvalidDirectionError struct {
	Direction Direction
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid direction %d, must be %d (CW) or %d (CCW)", int(e.Direction), int(CW), int(CCW))
}

// NewInvalidDirectionError returns an error for an unknown motor direction.
func NewInvalidDirectionError(d Direction) error {
	return &InvalidDirectionError{Direction: d}
}

// InvalidChassisDirectionError is returned in strict mode for an unknown chassis direction.
type InvalidChassisDirectionError struct {
	Direction ChassisDirection
}

func (e *InvalidChassisDirectionError) Error() string {
	return fmt.Sprintf("invalid chassis direction %d", int(e.Direction))
}

// NewInvalidChassisDirectionError returns an error for an unknown chassis direction.
func NewInvalidChassisDirectionError(d ChassisDirection) error {
	return &InvalidChassisDirectionError{Direction: d}
}

// OutOfRangeError is returned in strict mode for a value that would otherwise be clamped.
type OutOfRangeError struct {
	Name     string
	Value    int
	Min, Max int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Name, e.Value, e.Min, e.Max)
}

// NewOutOfRangeError returns an error for a value outside [lower, upper].
func NewOutOfRangeError(name string, value, lower, upper int) error {
	return &OutOfRangeError{Name: name, Value: value, Min: lower, Max: upper}
}

// NewInvalidHeadingError returns an error for a heading that is not a finite number.
func NewInvalidHeadingError(degrees float64) error {
	return errors.Errorf("invalid heading %v, must be a finite number of degrees", degrees)
}
