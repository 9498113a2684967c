package motorboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func set(channel, duty int) ChannelWrite {
	return ChannelWrite{Channel: channel, Off: duty}
}

func TestDuty(t *testing.T) {
	for _, tc := range []struct {
		speed int
		duty  int
	}{
		{-10, 0},
		{0, 0},
		{1, 16},
		{100, 1606},
		{150, 2409},
		{200, 3212},
		{255, 4095},
		{1000, 4095},
	} {
		test.That(t, Duty(tc.speed), test.ShouldEqual, tc.duty)
	}

	for speed := -300; speed <= 600; speed++ {
		clamped := ClampSpeed(speed)
		test.That(t, clamped, test.ShouldBeBetweenOrEqual, 0, MaxSpeed)
		test.That(t, Duty(speed), test.ShouldBeBetweenOrEqual, 0, MaxDuty)
	}
}

func TestPlanRun(t *testing.T) {
	w := DefaultWiring()

	t.Run("M1 full speed", func(t *testing.T) {
		plan := PlanRun(w, DefaultConfig(), M1, CW, 255)
		test.That(t, cmp.Diff(Plan{set(7, 4095), set(6, 0)}, plan), test.ShouldBeEmpty)
	})

	t.Run("M2 counter clockwise", func(t *testing.T) {
		plan := PlanRun(w, DefaultConfig(), M2, CCW, 150)
		test.That(t, cmp.Diff(Plan{set(5, 0), set(4, 2409)}, plan), test.ShouldBeEmpty)
	})

	t.Run("M3 brakes M4", func(t *testing.T) {
		var conf Config
		conf.SetBrakeLevel(DefaultBrakeLevel)
		plan := PlanRun(w, conf, M3, CW, 100)
		test.That(t, cmp.Diff(Plan{set(3, 0), set(2, 1606), set(1, 1000), set(0, 1000)}, plan), test.ShouldBeEmpty)

		plan = PlanRun(w, conf, M3, CCW, 100)
		test.That(t, cmp.Diff(Plan{set(3, 1606), set(2, 0), set(1, 1000), set(0, 1000)}, plan), test.ShouldBeEmpty)
	})

	t.Run("M4 brakes M3", func(t *testing.T) {
		var conf Config
		conf.SetBrakeLevel(2000)
		plan := PlanRun(w, conf, M4, CW, 255)
		test.That(t, cmp.Diff(Plan{set(1, 0), set(0, 4095), set(3, 2000), set(2, 2000)}, plan), test.ShouldBeEmpty)
	})

	t.Run("reversed coupled motor", func(t *testing.T) {
		plan := PlanRun(w, DefaultConfig(), M3, CW, 100)
		test.That(t, cmp.Diff(Plan{set(3, 1606), set(2, 0), set(1, 1000), set(0, 1000)}, plan), test.ShouldBeEmpty)
	})

	t.Run("invalid input", func(t *testing.T) {
		test.That(t, PlanRun(w, DefaultConfig(), 0, CW, 100), test.ShouldBeEmpty)
		test.That(t, PlanRun(w, DefaultConfig(), 5, CW, 100), test.ShouldBeEmpty)
		test.That(t, PlanRun(w, DefaultConfig(), M1, 0, 100), test.ShouldBeEmpty)
	})
}

func TestIndependentMotorExclusivity(t *testing.T) {
	w := DefaultWiring()
	for _, m := range []MotorID{M1, M2} {
		for _, d := range []Direction{CW, CCW} {
			for speed := -5; speed <= 260; speed++ {
				plan := PlanRun(w, DefaultConfig(), m, d, speed)
				test.That(t, plan, test.ShouldHaveLength, 2)
				forward, reverse := plan[0].Off, plan[1].Off
				if ClampSpeed(speed) == 0 {
					test.That(t, forward, test.ShouldEqual, 0)
					test.That(t, reverse, test.ShouldEqual, 0)
					continue
				}
				test.That(t, (forward == 0) != (reverse == 0), test.ShouldBeTrue)
				test.That(t, forward+reverse, test.ShouldEqual, Duty(speed))
			}
		}
	}
}

func TestCoupledMotorBrakesPartner(t *testing.T) {
	w := DefaultWiring()
	for _, level := range []int{0, 1, 1000, 4095} {
		conf := DefaultConfig()
		conf.SetBrakeLevel(level)
		for _, d := range []Direction{CW, CCW} {
			for _, speed := range []int{0, 100, 255} {
				plan := PlanRun(w, conf, M3, d, speed)
				test.That(t, plan[2:], test.ShouldResemble, Plan{set(1, level), set(0, level)})

				plan = PlanRun(w, conf, M4, d, speed)
				test.That(t, plan[2:], test.ShouldResemble, Plan{set(3, level), set(2, level)})
			}
		}
	}
}

func TestReversalFlipsDirection(t *testing.T) {
	w := DefaultWiring()
	var normal, reversed Config
	normal.SetReversal(false, false, false, false)
	reversed.SetReversal(true, true, true, true)
	for _, m := range AllMotors {
		for _, speed := range []int{0, 100, 255} {
			test.That(t, PlanRun(w, reversed, m, CW, speed), test.ShouldResemble, PlanRun(w, normal, m, CCW, speed))
			test.That(t, PlanRun(w, reversed, m, CCW, speed), test.ShouldResemble, PlanRun(w, normal, m, CW, speed))
		}
	}
}

func TestPlanChassis(t *testing.T) {
	w := DefaultWiring()
	conf := DefaultConfig()

	for _, tc := range []struct {
		direction ChassisDirection
		speed     int
		expected  Plan
	}{
		{
			Forward, 100,
			Plan{set(7, 1606), set(6, 0), set(5, 1606), set(4, 0), set(3, 0), set(2, 1606), set(1, 0), set(0, 1606)},
		},
		{
			Backward, 100,
			Plan{set(7, 0), set(6, 1606), set(5, 0), set(4, 1606), set(3, 1606), set(2, 0), set(1, 1606), set(0, 0)},
		},
		{
			StrafeRight, 200,
			Plan{set(7, 0), set(6, 3212), set(5, 3212), set(4, 0), set(3, 1000), set(2, 1000), set(1, 1000), set(0, 1000)},
		},
		{
			StrafeLeft, 100,
			Plan{set(7, 0), set(6, 0), set(5, 0), set(4, 0), set(3, 1606), set(2, 0), set(1, 1606), set(0, 0)},
		},
		{
			DiagonalForwardRight, 255,
			Plan{set(7, 0), set(6, 0), set(5, 4095), set(4, 0), set(3, 1000), set(2, 1000), set(1, 0), set(0, 4095)},
		},
		{
			DiagonalForwardLeft, 255,
			Plan{set(7, 4095), set(6, 0), set(5, 0), set(4, 0), set(3, 0), set(2, 4095), set(1, 1000), set(0, 1000)},
		},
		{
			DiagonalBackwardRight, 255,
			Plan{set(7, 0), set(6, 4095), set(5, 0), set(4, 0), set(3, 4095), set(2, 0), set(1, 1000), set(0, 1000)},
		},
		{
			DiagonalBackwardLeft, 255,
			Plan{set(7, 0), set(6, 0), set(5, 0), set(4, 4095), set(3, 1000), set(2, 1000), set(1, 4095), set(0, 0)},
		},
	} {
		t.Run(tc.direction.String(), func(t *testing.T) {
			test.That(t, cmp.Diff(tc.expected, PlanChassis(w, conf, tc.direction, tc.speed)), test.ShouldBeEmpty)
		})
	}

	t.Run("rotations match forward and backward", func(t *testing.T) {
		test.That(t, PlanChassis(w, conf, RotateCW, 120), test.ShouldResemble, PlanChassis(w, conf, Forward, 120))
		test.That(t, PlanChassis(w, conf, RotateCCW, 120), test.ShouldResemble, PlanChassis(w, conf, Backward, 120))
	})

	t.Run("forward and backward are inverse", func(t *testing.T) {
		forward, _ := ChassisIntents(Forward)
		backward, _ := ChassisIntents(Backward)
		for i := range forward {
			test.That(t, backward[i], test.ShouldEqual, -forward[i])
		}
	})

	t.Run("clamped speed", func(t *testing.T) {
		test.That(t, PlanChassis(w, conf, Forward, 999), test.ShouldResemble, PlanChassis(w, conf, Forward, 255))
		test.That(t, PlanChassis(w, conf, Forward, -3), test.ShouldResemble, PlanChassis(w, conf, Forward, 0))
	})

	t.Run("invalid direction", func(t *testing.T) {
		test.That(t, PlanChassis(w, conf, ChassisDirection(10), 100), test.ShouldBeEmpty)
		test.That(t, PlanChassis(w, conf, ChassisDirection(-1), 100), test.ShouldBeEmpty)
	})
}

func TestChassisPairInvariant(t *testing.T) {
	w := DefaultWiring()
	conf := DefaultConfig()
	for _, d := range AllChassisDirections {
		plan := PlanChassis(w, conf, d, 180)
		test.That(t, plan, test.ShouldHaveLength, 8)
		for i := 0; i < len(plan); i += 2 {
			forward, reverse := plan[i].Off, plan[i+1].Off
			if forward != 0 && reverse != 0 {
				// both channels driven only when braking
				test.That(t, forward, test.ShouldEqual, conf.BrakeLevel)
				test.That(t, reverse, test.ShouldEqual, conf.BrakeLevel)
			}
		}
	}
}

func TestPlanStop(t *testing.T) {
	w := DefaultWiring()
	test.That(t, PlanStop(w, M1), test.ShouldResemble, Plan{set(7, 0), set(6, 0)})
	test.That(t, PlanStop(w, M2), test.ShouldResemble, Plan{set(5, 0), set(4, 0)})

	shared := Plan{set(3, 0), set(2, 0), set(1, 0), set(0, 0)}
	test.That(t, PlanStop(w, M3), test.ShouldResemble, shared)
	test.That(t, PlanStop(w, M4), test.ShouldResemble, shared)
	test.That(t, PlanStop(w, 9), test.ShouldBeEmpty)

	all := PlanStopAll(w)
	channels := make([]int, 0, len(all))
	for _, write := range all {
		test.That(t, write.Off, test.ShouldEqual, 0)
		channels = append(channels, write.Channel)
	}
	test.That(t, channels, test.ShouldResemble, []int{7, 6, 5, 4, 3, 2, 1, 0, 3, 2, 1, 0})
}
