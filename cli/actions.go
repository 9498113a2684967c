package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/mecadrive/components/board/genericlinux/buses"
	"go.viam.com/mecadrive/components/board/pca9685"
	"go.viam.com/mecadrive/components/motorboard"
	"go.viam.com/mecadrive/components/motorboard/sim"
	"go.viam.com/mecadrive/config"
	"go.viam.com/mecadrive/logging"
)

// session is one invocation's view of the board. Configuration lives only as long as the process,
// so it is rebuilt from the config file and flags every time.
type session struct {
	board  *motorboard.Board
	reader motorboard.ChannelReader
	logger logging.Logger
	closer io.Closer
}

// close leaves the motors as they are; only the bus is released.
func (s *session) close() error {
	// stderr cannot be synced on every platform
	utils.UncheckedError(s.logger.Sync())
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("mecadrive")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

// loadConfig reads the config file if one is given and applies flag overrides on top of it.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	conf := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if conf, err = config.Read(path, logger); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %q", path)
		}
	}

	if c.IsSet(flagSim) {
		conf.Simulate = c.Bool(flagSim)
	}
	if c.IsSet(flagBus) {
		conf.I2CBus = c.String(flagBus)
	}
	if c.IsSet(flagAddress) {
		conf.Address = c.Int(flagAddress)
	}
	if c.IsSet(flagStrict) {
		conf.Strict = c.Bool(flagStrict)
	}
	if c.IsSet(flagBrakeLevel) {
		level := c.Int(flagBrakeLevel)
		conf.BrakeLevel = &level
	}
	if c.IsSet(flagReverse) {
		reversed, err := parseReverse(c.StringSlice(flagReverse))
		if err != nil {
			return nil, err
		}
		for _, m := range motorboard.AllMotors {
			conf.Reverse.Set(m, reversed[m])
		}
	}

	if err := conf.Validate("flags"); err != nil {
		return nil, err
	}
	return conf, nil
}

func parseReverse(values []string) (map[motorboard.MotorID]bool, error) {
	reversed := map[motorboard.MotorID]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, "none") {
			continue
		}
		m, err := motorboard.ParseMotorID(v)
		if err != nil {
			return nil, errors.Wrapf(err, "bad --%s", flagReverse)
		}
		reversed[m] = true
	}
	return reversed, nil
}

func newSession(c *cli.Context) (*session, error) {
	logger := newLogger(c)
	conf, err := loadConfig(c, logger)
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger}
	var sink motorboard.ChannelSink
	if conf.Simulate {
		simulator := sim.NewSink(logger.Sublogger("sim"), nil)
		sink, s.reader = simulator, simulator
	} else {
		bus, err := buses.NewI2cBus(conf.I2CBus)
		if err != nil {
			return nil, err
		}
		if closer, ok := bus.(io.Closer); ok {
			s.closer = closer
		}
		pca := pca9685.New(bus, conf.PCA9685Config(), logger.Sublogger("pca9685"))
		sink, s.reader = pca, pca
	}

	s.board, err = motorboard.NewBoard(sink, logger, conf.BoardOptions(logger)...)
	if err != nil {
		return nil, multierr.Combine(err, s.close())
	}
	return s, nil
}

func withSession(c *cli.Context, f func(ctx context.Context, s *session) error) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close())
	}()
	return f(c.Context, s)
}

// RunAction runs one motor.
func RunAction(c *cli.Context) error {
	m, err := motorboard.ParseMotorID(c.String(flagMotor))
	if err != nil {
		return err
	}
	d, err := motorboard.ParseDirection(c.String(flagDirection))
	if err != nil {
		return err
	}
	return withSession(c, func(ctx context.Context, s *session) error {
		return s.board.RunMotor(ctx, m, d, c.Int(flagSpeed))
	})
}

// StopAction stops one motor.
func StopAction(c *cli.Context) error {
	m, err := motorboard.ParseMotorID(c.String(flagMotor))
	if err != nil {
		return err
	}
	return withSession(c, func(ctx context.Context, s *session) error {
		return s.board.StopMotor(ctx, m)
	})
}

// StopAllAction stops every motor.
func StopAllAction(c *cli.Context) error {
	return withSession(c, func(ctx context.Context, s *session) error {
		return s.board.StopAll(ctx)
	})
}

// MoveAction moves the chassis in a named direction.
func MoveAction(c *cli.Context) error {
	d, err := motorboard.ParseChassisDirection(c.String(flagDirection))
	if err != nil {
		return err
	}
	return withSession(c, func(ctx context.Context, s *session) error {
		return s.board.MoveChassis(ctx, d, c.Int(flagSpeed))
	})
}

// HeadingAction moves the chassis toward a compass heading.
func HeadingAction(c *cli.Context) error {
	return withSession(c, func(ctx context.Context, s *session) error {
		return s.board.MoveByHeading(ctx, c.Float64(flagDegrees), c.Int(flagSpeed))
	})
}

// StatusAction prints the configuration and every motor's channels.
func StatusAction(c *cli.Context) error {
	return withSession(c, func(ctx context.Context, s *session) error {
		statuses, err := motorboard.ReadStatus(ctx, s.board.Wiring(), s.reader)
		if err != nil {
			return err
		}
		conf := s.board.Config()
		reversed := make([]string, 0, len(motorboard.AllMotors))
		for _, m := range motorboard.AllMotors {
			if conf.Reversed(m) {
				reversed = append(reversed, m.String())
			}
		}
		if len(reversed) == 0 {
			reversed = append(reversed, "none")
		}
		printf(c.App.Writer, "reversed: %s, brake level: %d", strings.Join(reversed, ","), conf.BrakeLevel)
		printf(c.App.Writer, "%s", motorboard.StatusTable(statuses))
		return nil
	})
}

// DemoAction holds every chassis direction for a while and then stops all motors. Interrupting it
// still stops the motors.
func DemoAction(c *cli.Context) error {
	return withSession(c, func(ctx context.Context, s *session) error {
		var err error
		for _, d := range motorboard.AllChassisDirections {
			printf(c.App.Writer, "%v", d)
			if err = s.board.MoveChassis(ctx, d, c.Int(flagSpeed)); err != nil {
				break
			}
			if !utils.SelectContextOrWait(ctx, c.Duration(flagPause)) {
				err = ctx.Err()
				break
			}
		}
		return multierr.Combine(err, s.board.StopAll(context.Background()))
	})
}

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
