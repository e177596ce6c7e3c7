package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/wudi/imp/compiler"
	"github.com/wudi/imp/values"
	"github.com/wudi/imp/vm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "run a .imp source file or .impc bytecode file",
	ArgsUsage: "<file.(imp|impc)>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "strict-bytecode",
			Usage: "accepted for compatibility; decode is always strict",
		},
		&cli.BoolFlag{
			Name:  "repl",
			Usage: "read #call statements interactively instead of from a file",
		},
	},
	Action: runAction,
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("repl") {
		return runREPL()
	}

	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("run: missing file argument")
	}

	mod, err := loadModule(path)
	if err != nil {
		return err
	}

	machine := vm.New(vm.Config{
		NoJIT: os.Getenv("IMP_NO_JIT") != "",
		Print: func(s string) { fmt.Println(s) },
	})
	rets, exports, err := machine.RunMainFull(mod)
	if err != nil {
		return err
	}
	printRunResult(rets, exports)
	return nil
}

// printRunResult renders the init function's return vector and, when
// non-empty, the module's exports.
func printRunResult(rets []values.Value, exports map[string]values.Value) {
	parts := make([]string, len(rets))
	for i, v := range rets {
		parts[i] = v.GoString()
	}
	fmt.Printf("returns: [%s]\n", strings.Join(parts, ", "))

	if len(exports) == 0 {
		return
	}
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]string, len(names))
	for i, name := range names {
		entries[i] = fmt.Sprintf("%s: %s", name, exports[name].GoString())
	}
	fmt.Printf("exports: {%s}\n", strings.Join(entries, ", "))
}

// runREPL is a line-oriented REPL that reads #call statements and
// recompiles-and-reruns the accumulated program after every
// statement.
func runREPL() error {
	var lines []string
	machine := vm.New(vm.Config{
		NoJIT: os.Getenv("IMP_NO_JIT") != "",
		Print: func(s string) { fmt.Println(s) },
	})

	readLine, closeFn, err := replReader()
	if err != nil {
		return err
	}
	defer closeFn()

	for {
		line, ok := readLine()
		if !ok {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)

		src := strings.Join(lines, "\n")
		mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "repl"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			lines = lines[:len(lines)-1]
			continue
		}
		rets, exports, err := machine.RunMainFull(mod)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			lines = lines[:len(lines)-1]
			continue
		}
		printRunResult(rets, exports)
	}
}

// replReader picks an interactive readline.Instance when stdin is a
// TTY, falling back to a plain line scanner otherwise (piped input,
// CI, tests).
func replReader() (func() (string, bool), func(), error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		rl, err := readline.New("imp> ")
		if err != nil {
			return nil, nil, err
		}
		return func() (string, bool) {
			line, err := rl.Readline()
			if err != nil {
				return "", false
			}
			return line, true
		}, func() { rl.Close() }, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	return func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}, func() {}, nil
}
