package motorboard

// ChannelWrite sets one PWM channel's on and off ticks.
type ChannelWrite struct {
	Channel int
	On      int
	Off     int
}

// Plan is an ordered list of channel writes.
type Plan []ChannelWrite

// chassisIntents holds the per motor direction intents (M1, M2, M3, M4) of each chassis direction
// before reversal flags. M3 and M4 are negated relative to M1 and M2 for their mounting.
//
// The strafes are asymmetric: the shared chip cannot drive M3 and M4 in opposite directions, so
// StrafeRight uses M1 and M2 only and StrafeLeft uses M3 and M4 only.
var chassisIntents = [...][4]int{
	Forward:               {1, 1, -1, -1},
	Backward:              {-1, -1, 1, 1},
	StrafeRight:           {-1, 1, 0, 0},
	StrafeLeft:            {0, 0, 1, 1},
	RotateCW:              {1, 1, -1, -1},
	RotateCCW:             {-1, -1, 1, 1},
	DiagonalForwardRight:  {0, 1, 0, -1},
	DiagonalForwardLeft:   {1, 0, -1, 0},
	DiagonalBackwardRight: {-1, 0, 1, 0},
	DiagonalBackwardLeft:  {0, -1, 0, 1},
}

// ChassisIntents returns the raw intents of d for M1 through M4.
func ChassisIntents(d ChassisDirection) ([4]int, bool) {
	if !d.Valid() {
		return [4]int{}, false
	}
	return chassisIntents[d], true
}

func effectiveSign(conf Config, m MotorID, sign int) int {
	if conf.Reversed(m) {
		return -sign
	}
	return sign
}

// PlanRun drives motor m in direction d at speed, braking its partner if it has one. An invalid
// motor or direction yields an empty plan.
func PlanRun(w Wiring, conf Config, m MotorID, d Direction, speed int) Plan {
	pair, ok := w[m]
	if !ok || !d.Valid() {
		return nil
	}
	plan := pair.drive(effectiveSign(conf, m, int(d)), Duty(speed))
	if pair.Coupled() {
		plan = append(plan, w[pair.Partner].brake(conf.BrakeLevel)...)
	}
	return plan
}

// PlanChassis moves the whole chassis. A motor with no intent is released if it sits on its own
// chip and braked if it shares one.
func PlanChassis(w Wiring, conf Config, d ChassisDirection, speed int) Plan {
	intents, ok := ChassisIntents(d)
	if !ok {
		return nil
	}
	duty := Duty(speed)
	var plan Plan
	for i, m := range AllMotors {
		pair, ok := w[m]
		if !ok {
			continue
		}
		sign := effectiveSign(conf, m, intents[i])
		switch {
		case sign != 0:
			plan = append(plan, pair.drive(sign, duty)...)
		case pair.Coupled():
			plan = append(plan, pair.brake(conf.BrakeLevel)...)
		default:
			plan = append(plan, pair.release()...)
		}
	}
	return plan
}

// PlanStop releases motor m. Stopping a coupled motor releases both motors of its chip, lowest
// motor first.
func PlanStop(w Wiring, m MotorID) Plan {
	pair, ok := w[m]
	if !ok {
		return nil
	}
	if !pair.Coupled() {
		return pair.release()
	}
	first, second := m, pair.Partner
	if second < first {
		first, second = second, first
	}
	return append(w[first].release(), w[second].release()...)
}

// PlanStopAll stops every motor in index order. Coupled motors are released once per motor of
// the pair.
func PlanStopAll(w Wiring) Plan {
	var plan Plan
	for _, m := range AllMotors {
		plan = append(plan, PlanStop(w, m)...)
	}
	return plan
}
