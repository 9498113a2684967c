package motorboard

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/mecadrive/logging"
)

type recordingSink struct {
	mu     sync.Mutex
	writes Plan
	failOn map[int]bool
}

func (s *recordingSink) SetChannel(ctx context.Context, channel, on, off int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[channel] {
		return errors.Errorf("bus error on %d", channel)
	}
	s.writes = append(s.writes, ChannelWrite{Channel: channel, On: on, Off: off})
	return nil
}

func (s *recordingSink) take() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	writes := s.writes
	s.writes = nil
	return writes
}

type observingSink struct {
	recordingSink
	summaries []string
}

func (s *observingSink) ObservePlan(ctx context.Context, summary string, plan Plan) {
	s.summaries = append(s.summaries, summary)
}

func newTestBoard(t *testing.T, opts ...Option) (*Board, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	b, err := NewBoard(sink, logging.NewTestLogger(t), opts...)
	test.That(t, err, test.ShouldBeNil)
	return b, sink
}

func TestNewBoard(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewBoard(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	broken := DefaultWiring()
	broken[M2] = ChannelPair{Forward: 7, Reverse: 4}
	_, err = NewBoard(&recordingSink{}, logger, WithWiring(broken))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "channel 7")

	b, err := NewBoard(&recordingSink{}, logger, WithConfig(Config{BrakeLevel: 9000}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Config().BrakeLevel, test.ShouldEqual, MaxDuty)
	test.That(t, b.Config().Reverse, test.ShouldResemble, [4]bool{})
	test.That(t, b.Strict(), test.ShouldBeFalse)
}

func TestRunMotor(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)

	test.That(t, b.RunMotor(ctx, M1, CW, 255), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, Plan{set(7, 4095), set(6, 0)})

	test.That(t, b.RunMotor(ctx, M4, CCW, 100), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, Plan{set(1, 0), set(0, 1606), set(3, 1000), set(2, 1000)})
}

func TestScenarioStrafeRight(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)

	test.That(t, b.MoveChassis(ctx, StrafeRight, 200), test.ShouldBeNil)
	writes := sink.take()
	test.That(t, writes, test.ShouldHaveLength, 8)
	byChannel := map[int]int{}
	for _, w := range writes {
		byChannel[w.Channel] = w.Off
	}
	test.That(t, byChannel[6], test.ShouldEqual, 3212)
	test.That(t, byChannel[7], test.ShouldEqual, 0)
	test.That(t, byChannel[5], test.ShouldEqual, 3212)
	test.That(t, byChannel[4], test.ShouldEqual, 0)
	for _, ch := range []int{3, 2, 1, 0} {
		test.That(t, byChannel[ch], test.ShouldEqual, DefaultBrakeLevel)
	}
}

func TestLenientValidation(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	logger, logs := logging.NewObservedTestLogger(t)
	b, err := NewBoard(sink, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, b.RunMotor(ctx, 0, CW, 100), test.ShouldBeNil)
	test.That(t, b.RunMotor(ctx, 5, CW, 100), test.ShouldBeNil)
	test.That(t, b.RunMotor(ctx, M1, Direction(0), 100), test.ShouldBeNil)
	test.That(t, b.MoveChassis(ctx, ChassisDirection(42), 100), test.ShouldBeNil)
	test.That(t, b.StopMotor(ctx, 7), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldBeEmpty)
	test.That(t, logs.FilterMessageSnippet("ignoring command").Len(), test.ShouldEqual, 5)

	test.That(t, b.RunMotor(ctx, M1, CW, 1000), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, Plan{set(7, 4095), set(6, 0)})
	test.That(t, logs.FilterMessageSnippet("speed 1000 clamped to 255").Len(), test.ShouldEqual, 1)

	test.That(t, b.SetBrakeLevel(-5), test.ShouldBeNil)
	test.That(t, b.Config().BrakeLevel, test.ShouldEqual, 0)
	test.That(t, logs.FilterMessageSnippet("Brake strength set to: 0").Len(), test.ShouldEqual, 1)
}

func TestStrictValidation(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t, WithStrictValidation())
	test.That(t, b.Strict(), test.ShouldBeTrue)

	err := b.RunMotor(ctx, 5, CW, 100)
	var motorErr *InvalidMotorError
	test.That(t, errors.As(err, &motorErr), test.ShouldBeTrue)
	test.That(t, motorErr.Motor, test.ShouldEqual, MotorID(5))

	err = b.RunMotor(ctx, M1, Direction(2), 100)
	test.That(t, err, test.ShouldHaveSameTypeAs, &InvalidDirectionError{})

	err = b.RunMotor(ctx, M1, CW, 256)
	var rangeErr *OutOfRangeError
	test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)
	test.That(t, rangeErr.Name, test.ShouldEqual, "speed")
	test.That(t, rangeErr.Value, test.ShouldEqual, 256)

	err = b.MoveChassis(ctx, ChassisDirection(10), 100)
	test.That(t, err, test.ShouldHaveSameTypeAs, &InvalidChassisDirectionError{})

	err = b.SetBrakeLevel(5000)
	test.That(t, err, test.ShouldHaveSameTypeAs, &OutOfRangeError{})
	test.That(t, b.Config().BrakeLevel, test.ShouldEqual, DefaultBrakeLevel)

	test.That(t, b.StopMotor(ctx, 0), test.ShouldHaveSameTypeAs, &InvalidMotorError{})
	test.That(t, sink.take(), test.ShouldBeEmpty)

	// valid input is unaffected by strict mode
	test.That(t, b.RunMotor(ctx, M2, CW, 255), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, Plan{set(5, 4095), set(4, 0)})
}

func TestConfiguration(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)

	test.That(t, b.Config(), test.ShouldResemble, DefaultConfig())

	b.SetReversal(true, true, true, true)
	test.That(t, b.RunMotor(ctx, M1, CW, 100), test.ShouldBeNil)
	reversed := sink.take()

	b.SetReversal(false, false, false, false)
	test.That(t, b.RunMotor(ctx, M1, CCW, 100), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, reversed)

	// a brake level change only affects later commands
	test.That(t, b.RunMotor(ctx, M3, CW, 100), test.ShouldBeNil)
	sink.take()
	test.That(t, b.SetBrakeLevel(2500), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldBeEmpty)
	test.That(t, b.RunMotor(ctx, M3, CW, 100), test.ShouldBeNil)
	test.That(t, sink.take()[2:], test.ShouldResemble, Plan{set(1, 2500), set(0, 2500)})
}

func TestStop(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)

	test.That(t, b.StopMotor(ctx, M3), test.ShouldBeNil)
	m3 := sink.take()
	test.That(t, b.StopMotor(ctx, M4), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, m3)
	test.That(t, m3, test.ShouldResemble, Plan{set(3, 0), set(2, 0), set(1, 0), set(0, 0)})

	test.That(t, b.StopAll(ctx), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, PlanStopAll(DefaultWiring()))

	test.That(t, b.Close(ctx), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldHaveLength, 12)
}

func TestBusErrors(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)
	sink.failOn = map[int]bool{6: true, 2: true}

	err := b.RunMotor(ctx, M1, CW, 100)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to set channel 6")
	test.That(t, sink.take(), test.ShouldResemble, Plan{set(7, 1606)})

	err = b.StopAll(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "channel 6")
	test.That(t, err.Error(), test.ShouldContainSubstring, "channel 2")
	// every other write was still attempted
	test.That(t, sink.take(), test.ShouldHaveLength, 12-3)
}

func TestCanceledContext(t *testing.T) {
	b, sink := newTestBoard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.MoveChassis(ctx, Forward, 100)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, sink.take(), test.ShouldBeEmpty)
}

func TestMoveByHeading(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)
	conf := DefaultConfig()
	w := DefaultWiring()

	test.That(t, b.MoveByHeading(ctx, 90, 100), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, PlanChassis(w, conf, StrafeRight, 100))

	test.That(t, b.MoveByHeading(ctx, -45, 100), test.ShouldBeNil)
	test.That(t, sink.take(), test.ShouldResemble, PlanChassis(w, conf, DiagonalForwardLeft, 100))

	strict, _ := newTestBoard(t, WithStrictValidation())
	test.That(t, strict.MoveByHeading(ctx, math.NaN(), 100), test.ShouldNotBeNil)
}

func TestPlanObserver(t *testing.T) {
	ctx := context.Background()
	sink := &observingSink{}
	b, err := NewBoard(sink, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, b.RunMotor(ctx, M1, CW, 300), test.ShouldBeNil)
	test.That(t, b.MoveChassis(ctx, StrafeLeft, 100), test.ShouldBeNil)
	test.That(t, b.StopMotor(ctx, M4), test.ShouldBeNil)
	test.That(t, b.StopMotor(ctx, M2), test.ShouldBeNil)
	test.That(t, b.StopAll(ctx), test.ShouldBeNil)
	test.That(t, sink.summaries, test.ShouldResemble, []string{
		"Motor M1: CW @ speed 255",
		"Mecanum: strafe-left @ speed 100",
		"Motors M3 and M4 stopped (shared chip)",
		"Motor M2 stopped",
		"All motors stopped",
	})
}

func TestConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	b, sink := newTestBoard(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				test.That(t, b.MoveChassis(ctx, Forward, 100), test.ShouldBeNil)
			} else {
				test.That(t, b.StopAll(ctx), test.ShouldBeNil)
			}
		}(i)
	}
	wg.Wait()

	// commands never interleave, so the log splits cleanly into whole plans
	writes := sink.take()
	forward := PlanChassis(DefaultWiring(), DefaultConfig(), Forward, 100)
	stopAll := PlanStopAll(DefaultWiring())
	for len(writes) > 0 {
		switch {
		case len(writes) >= len(forward) && planEqual(writes[:len(forward)], forward):
			writes = writes[len(forward):]
		case len(writes) >= len(stopAll) && planEqual(writes[:len(stopAll)], stopAll):
			writes = writes[len(stopAll):]
		default:
			t.Fatalf("interleaved writes: %v", writes)
		}
	}
}

func planEqual(a, b Plan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
