// Package sim is a hardware free channel sink for a motor board. It keeps the duty of every
// channel, decodes what each motor is doing and logs commands the way a console simulator would.
package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/mecadrive/components/motorboard"
	"go.viam.com/mecadrive/logging"
)

type channel struct {
	on, off int
}

// Sink records channel writes in memory.
type Sink struct {
	mu       sync.Mutex
	channels [motorboard.NumChannels]channel
	writes   int
	wiring   motorboard.Wiring
	logger   logging.Logger
}

var (
	_ motorboard.ChannelSink   = &Sink{}
	_ motorboard.PlanObserver  = &Sink{}
	_ motorboard.ChannelReader = &Sink{}
)

// NewSink returns a simulator for a board with the given wiring, or the stock wiring if nil.
func NewSink(logger logging.Logger, wiring motorboard.Wiring) *Sink {
	if wiring == nil {
		wiring = motorboard.DefaultWiring()
	}
	return &Sink{wiring: wiring.Copy(), logger: logger}
}

// SetChannel stores a channel's ticks, clamped like the real chip. Unknown channels are ignored.
func (s *Sink) SetChannel(ctx context.Context, ch, on, off int) error {
	if ch < 0 || ch >= motorboard.NumChannels {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch] = channel{
		on:  lo.Clamp(on, 0, motorboard.MaxDuty),
		off: lo.Clamp(off, 0, motorboard.MaxDuty),
	}
	s.writes++
	return nil
}

// Channel returns a channel's ticks.
func (s *Sink) Channel(ctx context.Context, ch int) (int, int, error) {
	if ch < 0 || ch >= motorboard.NumChannels {
		return 0, 0, errors.Errorf("channel %d out of range [0, %d)", ch, motorboard.NumChannels)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].on, s.channels[ch].off, nil
}

// Writes returns how many channel writes have been applied.
func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// States decodes every motor.
func (s *Sink) States() map[motorboard.MotorID]motorboard.MotorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make(map[motorboard.MotorID]motorboard.MotorState, len(s.wiring))
	for m, pair := range s.wiring {
		states[m] = pair.Decode(s.channels[pair.Forward].off, s.channels[pair.Reverse].off)
	}
	return states
}

// ObservePlan logs a finished command and the motors it left running.
func (s *Sink) ObservePlan(ctx context.Context, summary string, plan motorboard.Plan) {
	s.logger.Info(summary)
	states := s.States()
	var active []string
	for _, m := range motorboard.AllMotors {
		state, ok := states[m]
		if !ok || (state.Mode != motorboard.Clockwise && state.Mode != motorboard.CounterClockwise) {
			continue
		}
		active = append(active, fmt.Sprintf("%v:%v@%d", m, state.Mode, state.Duty))
	}
	if len(active) > 0 {
		s.logger.Infof("  Active: %s", strings.Join(active, ", "))
	}
}

// Render returns a table of every motor's channels and state.
func (s *Sink) Render(ctx context.Context) (string, error) {
	statuses, err := motorboard.ReadStatus(ctx, s.wiring, s)
	if err != nil {
		return "", err
	}
	return motorboard.StatusTable(statuses), nil
}
