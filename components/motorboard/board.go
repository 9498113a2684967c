package motorboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mecadrive/logging"
)

// ChannelSink accepts PWM channel writes. Implementations initialize their device on first use
// and ignore channels they do not have.
type ChannelSink interface {
	SetChannel(ctx context.Context, channel, on, off int) error
}

// PlanObserver is implemented by sinks that want to see each command as a whole after its
// writes have been applied.
type PlanObserver interface {
	ObservePlan(ctx context.Context, summary string, plan Plan)
}

// Option customizes a Board.
type Option func(*Board)

// WithStrictValidation makes invalid input return a typed error instead of being clamped or
// ignored.
func WithStrictValidation() Option {
	return func(b *Board) {
		b.strict = true
	}
}

// WithWiring replaces the stock channel layout.
func WithWiring(w Wiring) Option {
	return func(b *Board) {
		b.wiring = w.Copy()
	}
}

// WithConfig replaces the default reversal flags and brake level. The brake level is clamped.
func WithConfig(conf Config) Option {
	return func(b *Board) {
		b.conf = conf
		b.conf.SetBrakeLevel(conf.BrakeLevel)
	}
}

// Board drives four motors through a ChannelSink. Each command runs to completion before the
// next one starts.
type Board struct {
	mu     sync.Mutex
	sink   ChannelSink
	wiring Wiring
	conf   Config
	strict bool
	logger logging.Logger
}

// NewBoard returns a Board writing to sink with the default wiring and configuration.
func NewBoard(sink ChannelSink, logger logging.Logger, opts ...Option) (*Board, error) {
	if sink == nil {
		return nil, errors.New("motor board needs a channel sink")
	}
	b := &Board{
		sink:   sink,
		wiring: DefaultWiring(),
		conf:   DefaultConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.wiring.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid motor wiring")
	}
	return b, nil
}

// Config returns a copy of the current configuration.
func (b *Board) Config() Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conf
}

// Wiring returns a copy of the channel layout.
func (b *Board) Wiring() Wiring {
	return b.wiring.Copy()
}

// Strict reports whether invalid input is rejected.
func (b *Board) Strict() bool {
	return b.strict
}

// SetReversal overwrites all four reversal flags. It affects future commands only.
func (b *Board) SetReversal(m1, m2, m3, m4 bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conf.SetReversal(m1, m2, m3, m4)
	b.logger.Infof("Motor directions configured: M1=%s, M2=%s, M3=%s, M4=%s",
		reversalName(m1), reversalName(m2), reversalName(m3), reversalName(m4))
}

// SetBrakeLevel stores the duty used for braked motors. Motors already braked keep their old
// level until the next command.
func (b *Board) SetBrakeLevel(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.strict && (level < 0 || level > MaxDuty) {
		return NewOutOfRangeError("brake level", level, 0, MaxDuty)
	}
	if b.conf.SetBrakeLevel(level) {
		b.logger.Warnf("brake level %d clamped to %d", level, b.conf.BrakeLevel)
	}
	b.logger.Infof("Brake strength set to: %d", b.conf.BrakeLevel)
	return nil
}

// RunMotor drives one motor. Driving M3 or M4 brakes the other motor of the shared chip.
func (b *Board) RunMotor(ctx context.Context, m MotorID, d Direction, speed int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !m.Valid() {
		return b.reject(NewInvalidMotorError(m))
	}
	if !d.Valid() {
		return b.reject(NewInvalidDirectionError(d))
	}
	if err := b.checkSpeed(speed); err != nil {
		return err
	}
	summary := fmt.Sprintf("Motor %v: %v @ speed %d", m, d, ClampSpeed(speed))
	return b.apply(ctx, summary, PlanRun(b.wiring, b.conf, m, d, speed), false)
}

// MoveChassis moves the whole chassis in one of the ten chassis directions.
func (b *Board) MoveChassis(ctx context.Context, d ChassisDirection, speed int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moveChassis(ctx, d, speed)
}

// MoveByHeading moves the chassis toward the translation direction nearest to a compass heading,
// 0 degrees being straight ahead and 90 to the right.
func (b *Board) MoveByHeading(ctx context.Context, degrees float64, speed int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := HeadingDirection(degrees)
	if !ok {
		return b.reject(NewInvalidHeadingError(degrees))
	}
	b.logger.CDebugf(ctx, "heading %.1f resolved to %v", degrees, d)
	return b.moveChassis(ctx, d, speed)
}

// must hold b.mu.
func (b *Board) moveChassis(ctx context.Context, d ChassisDirection, speed int) error {
	if !d.Valid() {
		return b.reject(NewInvalidChassisDirectionError(d))
	}
	if err := b.checkSpeed(speed); err != nil {
		return err
	}
	summary := fmt.Sprintf("Mecanum: %v @ speed %d", d, ClampSpeed(speed))
	return b.apply(ctx, summary, PlanChassis(b.wiring, b.conf, d, speed), false)
}

// StopMotor releases one motor. Stopping M3 or M4 releases both.
func (b *Board) StopMotor(ctx context.Context, m MotorID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !m.Valid() {
		return b.reject(NewInvalidMotorError(m))
	}
	summary := fmt.Sprintf("Motor %v stopped", m)
	if pair := b.wiring[m]; pair.Coupled() {
		first, second := m, pair.Partner
		if second < first {
			first, second = second, first
		}
		summary = fmt.Sprintf("Motors %v and %v stopped (shared chip)", first, second)
	}
	return b.apply(ctx, summary, PlanStop(b.wiring, m), true)
}

// StopAll stops every motor in index order. Every write is attempted even if an earlier one fails.
func (b *Board) StopAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apply(ctx, "All motors stopped", PlanStopAll(b.wiring), true)
}

// Close stops every motor. The sink is owned by the caller and stays open.
func (b *Board) Close(ctx context.Context) error {
	return b.StopAll(ctx)
}

// reject logs invalid input in lenient mode and returns it in strict mode.
func (b *Board) reject(err error) error {
	if b.strict {
		return err
	}
	b.logger.Warnw("ignoring command", "reason", err.Error())
	return nil
}

func (b *Board) checkSpeed(speed int) error {
	if speed >= 0 && speed <= MaxSpeed {
		return nil
	}
	if b.strict {
		return NewOutOfRangeError("speed", speed, 0, MaxSpeed)
	}
	b.logger.Warnf("speed %d clamped to %d", speed, ClampSpeed(speed))
	return nil
}

// apply replays plan on the sink. The context is only consulted before the first write; once a
// plan starts it runs to the end or to the first failure. With attemptAll every write is tried
// and the failures are combined.
func (b *Board) apply(ctx context.Context, summary string, plan Plan, attemptAll bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.logger.CDebugw(ctx, summary, "writes", len(plan))
	var errs error
	for _, w := range plan {
		if err := b.sink.SetChannel(ctx, w.Channel, w.On, w.Off); err != nil {
			err = errors.Wrapf(err, "failed to set channel %d", w.Channel)
			if !attemptAll {
				return err
			}
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}
	if obs, ok := b.sink.(PlanObserver); ok {
		obs.ObservePlan(ctx, summary, plan)
	}
	return nil
}

func reversalName(reversed bool) string {
	if reversed {
		return "REV"
	}
	return "FWD"
}
