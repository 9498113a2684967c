// Package cli contains the command line interface of a motor board.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// Global flags.
	flagConfig     = "config"
	flagDebug      = "debug"
	flagSim        = "sim"
	flagBus        = "bus"
	flagAddress    = "address"
	flagStrict     = "strict"
	flagReverse    = "reverse"
	flagBrakeLevel = "brake-level"

	// Command flags.
	flagMotor     = "motor"
	flagDirection = "direction"
	flagSpeed     = "speed"
	flagDegrees   = "degrees"
	flagPause     = "pause"

	defaultSpeed = 100
)

func speedFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    flagSpeed,
		Aliases: []string{"s"},
		Value:   defaultSpeed,
		Usage:   "speed from 0 to 255",
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "mecadrive",
		Usage:           "drive a four motor PCA9685 board and its mecanum chassis",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagSim,
				Usage: "drive the in-memory simulator instead of hardware",
			},
			&cli.StringFlag{
				Name:  flagBus,
				Usage: "I2C bus the board is on, e.g. 1 for /dev/i2c-1",
			},
			&cli.IntFlag{
				Name:  flagAddress,
				Usage: "I2C address of the PCA9685 (default 0x40)",
			},
			&cli.BoolFlag{
				Name:  flagStrict,
				Usage: "reject out of range input instead of clamping it",
			},
			&cli.StringSliceFlag{
				Name:  flagReverse,
				Usage: "motors to reverse, e.g. m3,m4, or none; overrides the config",
			},
			&cli.IntFlag{
				Name:  flagBrakeLevel,
				Usage: "duty from 0 to 4095 applied to both channels of a braked motor",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a single motor",
				UsageText: fmt.Sprintf("mecadrive run --%s <m1-m4> --%s <cw|ccw> [--%s <0-255>]", flagMotor, flagDirection, flagSpeed),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagMotor,
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "motor to run: m1, m2, m3 or m4",
					},
					&cli.StringFlag{
						Name:    flagDirection,
						Aliases: []string{"d"},
						Value:   "cw",
						Usage:   "cw or ccw",
					},
					speedFlag(),
				},
				Action: RunAction,
			},
			{
				Name:  "stop",
				Usage: "stop a single motor; stopping m3 or m4 stops both",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagMotor,
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "motor to stop: m1, m2, m3 or m4",
					},
				},
				Action: StopAction,
			},
			{
				Name:   "stop-all",
				Usage:  "stop every motor",
				Action: StopAllAction,
			},
			{
				Name:  "move",
				Usage: "move the mecanum chassis",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagDirection,
						Aliases:  []string{"d"},
						Required: true,
						Usage: "forward, backward, strafe-left, strafe-right, rotate-cw, rotate-ccw, " +
							"diagonal-forward-right, diagonal-forward-left, diagonal-backward-right or diagonal-backward-left",
					},
					speedFlag(),
				},
				Action: MoveAction,
			},
			{
				Name:  "heading",
				Usage: "move the mecanum chassis toward a compass heading, 0 ahead and 90 to the right",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     flagDegrees,
						Required: true,
						Usage:    "heading in degrees",
					},
					speedFlag(),
				},
				Action: HeadingAction,
			},
			{
				Name:   "status",
				Usage:  "print what every motor's channels are set to",
				Action: StatusAction,
			},
			{
				Name:  "demo",
				Usage: "cycle through every chassis direction, then stop",
				Flags: []cli.Flag{
					speedFlag(),
					&cli.DurationFlag{
						Name:  flagPause,
						Value: time.Second,
						Usage: "how long to hold each direction",
					},
				},
				Action: DemoAction,
			},
		},
	}
}
