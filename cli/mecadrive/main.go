// Package main is the mecadrive command itself.
package main

import (
	"os"

	"go.viam.com/mecadrive/cli"
	"go.viam.com/mecadrive/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("mecadrive").Fatal(err)
	}
}
