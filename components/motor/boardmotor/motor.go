// Package boardmotor exposes a single motor of a motor board as a power controlled motor.
package boardmotor

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/mecadrive/components/motorboard"
	"go.viam.com/mecadrive/logging"
)

// Controller is the part of a motor board a Motor needs.
type Controller interface {
	RunMotor(ctx context.Context, m motorboard.MotorID, d motorboard.Direction, speed int) error
	StopMotor(ctx context.Context, m motorboard.MotorID) error
}

// Config tunes a Motor.
type Config struct {
	// MinPowerPct is the smallest power magnitude that still drives the motor; anything below
	// stops it instead.
	MinPowerPct float64
}

// Motor is one motor on a board.
type Motor struct {
	mu              sync.Mutex
	board           Controller
	id              motorboard.MotorID
	minPowerPct     float64
	isOn            bool
	currentPowerPct float64
	logger          logging.Logger
}

// New returns the motor id of board.
func New(board Controller, id motorboard.MotorID, conf Config, logger logging.Logger) (*Motor, error) {
	if board == nil {
		return nil, errors.New("motor needs a board")
	}
	if !id.Valid() {
		return nil, motorboard.NewInvalidMotorError(id)
	}
	if conf.MinPowerPct < 0 || conf.MinPowerPct > 1 {
		return nil, errors.Errorf("min_power_pct %v must be between 0 and 1", conf.MinPowerPct)
	}
	return &Motor{
		board:       board,
		id:          id,
		minPowerPct: conf.MinPowerPct,
		logger:      logger.Sublogger(id.String()),
	}, nil
}

// ID returns which motor of the board this is.
func (m *Motor) ID() motorboard.MotorID {
	return m.id
}

// SetPower runs the motor at powerPct in [-1, 1]; the sign selects the direction. Power
// outside the range is clamped.
func (m *Motor) SetPower(ctx context.Context, powerPct float64) error {
	if math.IsNaN(powerPct) {
		return errors.New("power must be a number")
	}
	if math.Abs(powerPct) <= m.minPowerPct || powerPct == 0 {
		return m.Stop(ctx)
	}
	powerPct = math.Max(-1, math.Min(1, powerPct))

	m.mu.Lock()
	defer m.mu.Unlock()

	direction := motorboard.CW
	if powerPct < 0 {
		direction = motorboard.CCW
	}
	speed := int(math.Round(math.Abs(powerPct) * motorboard.MaxSpeed))
	if err := m.board.RunMotor(ctx, m.id, direction, speed); err != nil {
		return errors.Wrapf(err, "failed to set power of %v", m.id)
	}
	m.isOn = true
	m.currentPowerPct = powerPct
	return nil
}

// Stop releases the motor. A motor sharing its chip stops its partner too.
func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.board.StopMotor(ctx, m.id); err != nil {
		return errors.Wrapf(err, "failed to stop %v", m.id)
	}
	m.isOn = false
	m.currentPowerPct = 0
	return nil
}

// IsPowered reports whether the motor was last told to run and at what power. The board has no
// feedback, so this is what was commanded and not what the motor does.
func (m *Motor) IsPowered(ctx context.Context) (bool, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOn, m.currentPowerPct, nil
}

// IsMoving is IsPowered without the power.
func (m *Motor) IsMoving(ctx context.Context) (bool, error) {
	on, _, err := m.IsPowered(ctx)
	return on, err
}
