package motorboard

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

// ChannelReader reads back what a channel is set to.
type ChannelReader interface {
	Channel(ctx context.Context, channel int) (on, off int, err error)
}

// MotorStatus is one motor as read back from its channels.
type MotorStatus struct {
	Motor       MotorID
	Pair        ChannelPair
	ForwardDuty int
	ReverseDuty int
	State       MotorState
}

// ReadStatus reads every motor's channels and decodes them.
func ReadStatus(ctx context.Context, w Wiring, reader ChannelReader) ([]MotorStatus, error) {
	statuses := make([]MotorStatus, 0, len(AllMotors))
	for _, m := range AllMotors {
		pair, ok := w[m]
		if !ok {
			continue
		}
		_, forward, err := reader.Channel(ctx, pair.Forward)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %v", m)
		}
		_, reverse, err := reader.Channel(ctx, pair.Reverse)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %v", m)
		}
		statuses = append(statuses, MotorStatus{
			Motor:       m,
			Pair:        pair,
			ForwardDuty: forward,
			ReverseDuty: reverse,
			State:       pair.Decode(forward, reverse),
		})
	}
	return statuses, nil
}

// StatusTable renders statuses with one row per motor.
func StatusTable(statuses []MotorStatus) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Motor", "Channels", "Forward", "Reverse", "State"})
	for _, s := range statuses {
		channels := fmt.Sprintf("%d/%d", s.Pair.Forward, s.Pair.Reverse)
		if s.Pair.Inverted {
			channels += " (inverted)"
		}
		t.AppendRow([]interface{}{
			s.Motor.String(),
			channels,
			s.ForwardDuty,
			s.ReverseDuty,
			s.State.String(),
		})
	}
	return t.Render()
}
