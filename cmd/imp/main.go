// Command imp compiles and runs imp statement-stream programs: run,
// dump-ir and build, built on urfave/cli/v3.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/imp/version"
)

func main() {
	app := &cli.Command{
		Name:  "imp",
		Usage: "compile and run imp statement-stream programs",
		Commands: []*cli.Command{
			runCommand,
			dumpIRCommand,
			buildCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "version",
				Usage: "print the imp toolchain version and exit",
				Action: func(ctx context.Context, cmd *cli.Command, v bool) error {
					if v {
						fmt.Println(version.Version())
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
