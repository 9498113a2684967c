// Package pca9685 drives the PCA9685 16 channel, 12 bit PWM expander over I2C. The chip is
// initialized lazily on the first channel write; callers never have to sequence it themselves.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCA9685.pdf
package pca9685

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/mecadrive/components/board/genericlinux/buses"
	"go.viam.com/mecadrive/logging"
)

const (
	// DefaultAddress is the chip's address with all address pins low.
	DefaultAddress = 0x40
	// DefaultFrequencyHz is the PWM frequency motor boards run at.
	DefaultFrequencyHz = 50
	// NumChannels is the number of PWM outputs.
	NumChannels = 16
	// MaxTick is the largest on/off tick within one PWM period.
	MaxTick = 4095

	// The prescaler is 8 bits wide, which bounds the output frequency.
	MinFrequencyHz = 24
	MaxFrequencyHz = 1526

	oscillatorHz = 25_000_000
	settleDelay  = 5 * time.Millisecond
)

const (
	regMode1     = 0x00
	regLED0OnL   = 0x06
	regAllLEDOnL = 0xFA
	regPrescale  = 0xFE

	mode1AllCall = 0x01
	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80
)

// Config describes where the chip lives and how fast it runs.
type Config struct {
	Address     byte
	FrequencyHz float64
}

// Option customizes a PCA9685.
type Option func(*PCA9685)

// WithClock replaces the clock used for the oscillator settle delay.
func WithClock(c clock.Clock) Option {
	return func(pca *PCA9685) {
		pca.clock = c
	}
}

// PCA9685 is one chip on a bus.
type PCA9685 struct {
	mu          sync.Mutex
	bus         buses.I2C
	address     byte
	frequencyHz float64
	clock       clock.Clock
	logger      logging.Logger
	initialized bool
}

// New returns a driver for the chip described by conf. No bus traffic happens until the first
// channel write or an explicit Initialize.
func New(bus buses.I2C, conf Config, logger logging.Logger, opts ...Option) *PCA9685 {
	if conf.Address == 0 {
		conf.Address = DefaultAddress
	}
	if conf.FrequencyHz == 0 {
		conf.FrequencyHz = DefaultFrequencyHz
	}
	pca := &PCA9685{
		bus:         bus,
		address:     conf.Address,
		frequencyHz: lo.Clamp(conf.FrequencyHz, MinFrequencyHz, MaxFrequencyHz),
		clock:       clock.New(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(pca)
	}
	return pca
}

// Prescale returns the PRESCALE register value for a frequency: round(25MHz / 4096 / freq) - 1.
func Prescale(frequencyHz float64) byte {
	frequencyHz = lo.Clamp(frequencyHz, MinFrequencyHz, MaxFrequencyHz)
	return byte(math.Round(oscillatorHz/4096/frequencyHz) - 1)
}

// Initialize resets the chip and programs its frequency. It is a no-op once it has succeeded;
// a failed attempt is retried on the next call.
func (pca *PCA9685) Initialize(ctx context.Context) error {
	pca.mu.Lock()
	defer pca.mu.Unlock()
	return pca.initialize(ctx)
}

// Initialized reports whether the chip has been set up.
func (pca *PCA9685) Initialized() bool {
	pca.mu.Lock()
	defer pca.mu.Unlock()
	return pca.initialized
}

// must hold pca.mu.
func (pca *PCA9685) initialize(ctx context.Context) (err error) {
	if pca.initialized {
		return nil
	}

	handle, err := pca.bus.OpenHandle(pca.address)
	if err != nil {
		return errors.Wrapf(err, "failed to open PCA9685 at %#x", pca.address)
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	if err := handle.WriteByteData(ctx, regMode1, 0x00); err != nil {
		return errors.Wrap(err, "failed to reset PCA9685 MODE1")
	}

	prescale := Prescale(pca.frequencyHz)
	oldMode, err := handle.ReadByteData(ctx, regMode1)
	if err != nil {
		return errors.Wrap(err, "failed to read PCA9685 MODE1")
	}
	// The prescaler can only be written while the oscillator is asleep.
	sleepMode := (oldMode & 0x7F) | mode1Sleep
	if err := handle.WriteByteData(ctx, regMode1, sleepMode); err != nil {
		return errors.Wrap(err, "failed to put PCA9685 to sleep")
	}
	if err := handle.WriteByteData(ctx, regPrescale, prescale); err != nil {
		return errors.Wrap(err, "failed to write PCA9685 prescaler")
	}
	if err := handle.WriteByteData(ctx, regMode1, oldMode); err != nil {
		return errors.Wrap(err, "failed to wake PCA9685")
	}
	pca.clock.Sleep(settleDelay)
	if err := handle.WriteByteData(ctx, regMode1, oldMode|mode1Restart|mode1AutoInc|mode1AllCall); err != nil {
		return errors.Wrap(err, "failed to restart PCA9685")
	}

	pca.initialized = true
	pca.logger.CDebugf(ctx, "PCA9685 at %#x running at %.0f Hz (prescale %d)", pca.address, pca.frequencyHz, prescale)
	return nil
}

// SetChannel sets the on and off ticks of one channel. Ticks are clamped to [0, MaxTick] and a
// channel outside [0, NumChannels) is ignored.
func (pca *PCA9685) SetChannel(ctx context.Context, channel, on, off int) (err error) {
	if channel < 0 || channel >= NumChannels {
		pca.logger.CDebugf(ctx, "ignoring write to PCA9685 channel %d", channel)
		return nil
	}

	pca.mu.Lock()
	defer pca.mu.Unlock()
	if err := pca.initialize(ctx); err != nil {
		return err
	}

	on = lo.Clamp(on, 0, MaxTick)
	off = lo.Clamp(off, 0, MaxTick)

	handle, err := pca.bus.OpenHandle(pca.address)
	if err != nil {
		return errors.Wrapf(err, "failed to open PCA9685 at %#x", pca.address)
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	register := byte(regLED0OnL + 4*channel)
	if err := handle.WriteBlockData(ctx, register, encodeTicks(on, off)); err != nil {
		return errors.Wrapf(err, "failed to write PCA9685 channel %d", channel)
	}
	pca.logger.CDebugw(ctx, "set channel", "channel", channel, "on", on, "off", off)
	return nil
}

// Channel reads back the on and off ticks of one channel.
func (pca *PCA9685) Channel(ctx context.Context, channel int) (on, off int, err error) {
	if channel < 0 || channel >= NumChannels {
		return 0, 0, errors.Errorf("PCA9685 channel %d out of range [0, %d)", channel, NumChannels)
	}

	pca.mu.Lock()
	defer pca.mu.Unlock()

	handle, err := pca.bus.OpenHandle(pca.address)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to open PCA9685 at %#x", pca.address)
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	raw, err := handle.ReadBlockData(ctx, byte(regLED0OnL+4*channel), 4)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to read PCA9685 channel %d", channel)
	}
	on, off = decodeTicks(raw)
	return on, off, nil
}

// Close turns every channel off through the ALL_LED registers. A chip that was never
// initialized is left untouched.
func (pca *PCA9685) Close(ctx context.Context) (err error) {
	pca.mu.Lock()
	defer pca.mu.Unlock()
	if !pca.initialized {
		return nil
	}

	handle, err := pca.bus.OpenHandle(pca.address)
	if err != nil {
		return errors.Wrapf(err, "failed to open PCA9685 at %#x", pca.address)
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	if err := handle.WriteBlockData(ctx, regAllLEDOnL, encodeTicks(0, 0)); err != nil {
		return errors.Wrap(err, "failed to turn off all PCA9685 channels")
	}
	return nil
}

// encodeTicks lays out ON_L, ON_H, OFF_L, OFF_H.
func encodeTicks(on, off int) []byte {
	return []byte{
		byte(on & 0xFF), byte((on >> 8) & 0xFF),
		byte(off & 0xFF), byte((off >> 8) & 0xFF),
	}
}

// decodeTicks drops the full-on/full-off bits, which this driver never sets.
func decodeTicks(raw []byte) (on, off int) {
	on = int(raw[0]) | int(raw[1]&0x0F)<<8
	off = int(raw[2]) | int(raw[3]&0x0F)<<8
	return on, off
}
