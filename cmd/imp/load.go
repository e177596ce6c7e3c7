package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/imp/bytecode"
	"github.com/wudi/imp/compiler"
	"github.com/wudi/imp/config"
	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/loader"
)

// loadModule compiles or decodes path into a CompiledModule. A ".impc"
// extension is treated as bytecode; anything else (including "-" for
// stdin) is compiled as source text.
func loadModule(path string) (*ir.CompiledModule, error) {
	if strings.EqualFold(filepath.Ext(path), ".impc") {
		return bytecode.DecodeFromPath(path)
	}

	if path == "-" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return compiler.CompileProgram(string(src), compiler.CompileOpts{ModuleName: "stdin"})
	}

	roots, err := projectImportRoots()
	if err != nil {
		return nil, err
	}
	fs := loader.FS{Roots: roots}
	return compiler.CompileModule(path, fs)
}

// projectImportRoots reads the optional imp.yaml project file from the
// current directory for extra module search roots.
func projectImportRoots() ([]string, error) {
	pf, err := config.Load("imp.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading imp.yaml: %w", err)
	}
	return pf.ImportRoots, nil
}
