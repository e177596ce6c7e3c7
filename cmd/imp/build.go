package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/wudi/imp/bytecode"
)

var buildCommand = &cli.Command{
	Name:      "build",
	Usage:     "compile a .imp source file to a .impc bytecode file",
	ArgsUsage: "<file.imp>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "o",
			Aliases: []string{"output"},
			Usage:   "output path (default: input path with .impc extension)",
		},
		&cli.BoolFlag{
			Name:  "strict-bytecode",
			Usage: "accepted for compatibility; encoding is always strict",
		},
	},
	Action: buildAction,
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("build: missing file argument")
	}

	mod, err := loadModule(path)
	if err != nil {
		return err
	}

	out := cmd.String("o")
	if out == "" {
		out = outputPath(path)
	}

	if err := bytecode.EncodeToPath(mod, out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	encoded, err := bytecode.Encode(mod)
	if err == nil {
		fmt.Printf("wrote %s (%s)\n", out, humanize.Bytes(uint64(len(encoded))))
	} else {
		fmt.Printf("wrote %s\n", out)
	}
	return nil
}

// outputPath replaces path's extension with ".impc", the default
// output name when -o isn't given.
func outputPath(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".impc"
}
