// Package compiler lowers a parsed, macro-expanded call stream into a
// slot-addressed ir.CompiledModule: it splits top-level code from
// declared functions, assigns slots, resolves two-pass labels, and
// recursively compiles imports.
package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/macro"
	"github.com/wudi/imp/parser"
)

// ModuleLoader is the external collaborator that resolves and reads
// imported source files. The filesystem implementation lives in
// package loader; tests can substitute an in-memory one.
type ModuleLoader interface {
	// Load reads the source text at path.
	Load(path string) (string, error)
	// Canonicalize normalizes path for the import cache/cycle-detection
	// key (symlink resolution, case folding on case-insensitive
	// filesystems).
	Canonicalize(path string) (string, error)
	// Dir returns the directory a relative import path should resolve
	// against, given the canonical path of the importing file.
	Dir(canonicalPath string) string
}

// CompileOpts configures a single compile entry point.
type CompileOpts struct {
	ModuleName string
}

// CompileProgram compiles src as a standalone module with no import
// support: any core::import call is a compile error. Used for
// one-shot compilation of a program with no filesystem context.
func CompileProgram(src string, opts CompileOpts) (*ir.CompiledModule, error) {
	return compileSource(src, opts.ModuleName, noopLoader{}, map[string]*ir.CompiledModule{}, map[string]bool{}, "")
}

// CompileModule compiles the file at path, recursively compiling any
// imports through loader. The cache and visiting sets are created
// fresh for this call tree.
func CompileModule(path string, loader ModuleLoader) (*ir.CompiledModule, error) {
	return compileModuleInternal(path, loader, map[string]*ir.CompiledModule{}, map[string]bool{})
}

func compileModuleInternal(path string, loader ModuleLoader, cache map[string]*ir.CompiledModule, visiting map[string]bool) (*ir.CompiledModule, error) {
	canonical, err := loader.Canonicalize(path)
	if err != nil {
		return nil, errf(1, "cannot resolve import %q: %s", path, err)
	}
	if mod, ok := cache[canonical]; ok {
		return mod, nil
	}
	if visiting[canonical] {
		return nil, errf(1, "cyclic import detected at %s", canonical)
	}
	visiting[canonical] = true
	defer delete(visiting, canonical)

	src, err := loader.Load(path)
	if err != nil {
		return nil, errf(1, "cannot read import %q: %s", path, err)
	}

	mod, err := compileSource(src, moduleNameFromPath(path), loader, cache, visiting, loader.Dir(canonical))
	if err != nil {
		return nil, err
	}
	cache[canonical] = mod
	return mod, nil
}

func moduleNameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func compileSource(src, moduleName string, loader ModuleLoader, cache map[string]*ir.CompiledModule, visiting map[string]bool, baseDir string) (*ir.CompiledModule, error) {
	prog, err := parser.ParseCalls(src)
	if err != nil {
		return nil, err
	}

	expanded, err := macro.Expand(prog.Calls)
	if err != nil {
		return nil, err
	}

	topLevel, decls, err := splitFunctions(expanded)
	if err != nil {
		return nil, err
	}

	mb := newModuleBuilder(moduleName)

	// Reserve function globals in declaration order, ids 1..N.
	funcGlobals := make([]ir.FuncGlobal, 0, len(decls))
	for i, decl := range decls {
		funcID := uint32(i + 1)
		slot := mb.resolveGlobal(decl.Target.Namespace, decl.Target.Name)
		funcGlobals = append(funcGlobals, ir.FuncGlobal{Slot: slot, FuncID: funcID})
	}

	functions := make([]*ir.CompiledFunction, 0, len(decls)+1)
	for i, decl := range decls {
		funcID := uint32(i + 1)
		fn, err := compileFunctionBody(mb, decl.Body, decl.ArgNames, decl.RetCount, decl.RetShape, funcID, decl.Target.String())
		if err != nil {
			return nil, err
		}
		functions = append(functions, fn)
	}

	imports, err := compileImports(mb, topLevel, loader, cache, visiting, baseDir)
	if err != nil {
		return nil, err
	}

	exports, err := collectExports(mb, topLevel)
	if err != nil {
		return nil, err
	}

	initBody := filterMetaCalls(topLevel)
	initFn, err := compileFunctionBody(mb, initBody, nil, 0, ir.AnyShape(), 0, "<init>")
	if err != nil {
		return nil, err
	}

	functions = append([]*ir.CompiledFunction{initFn}, functions...)

	return &ir.CompiledModule{
		Name:            moduleName,
		InitFunc:        0,
		Functions:       functions,
		FunctionGlobals: funcGlobals,
		Exports:         exports,
		Imports:         imports,
		GlobalCount:     mb.next,
	}, nil
}

func compileFunctionBody(mb *moduleBuilder, body []*ast.Call, argNames []string, retCount uint32, retShape ir.RetShape, funcID uint32, name string) (*ir.CompiledFunction, error) {
	env := newSlotEnv(argNames, retCount)
	fc := newFunctionCompiler(mb, env)

	for _, c := range body {
		if err := fc.lowerCall(c); err != nil {
			return nil, err
		}
	}

	if len(fc.code) == 0 || fc.code[len(fc.code)-1].Op != ir.OpExit {
		fc.emit(ir.Instruction{Op: ir.OpExit})
	}

	for _, p := range fc.pending {
		pc, ok := fc.labels[p.label]
		if !ok {
			return nil, errf(p.line, "unknown label %q", p.label)
		}
		switch p.field {
		case 1:
			fc.code[p.instrIndex].PC = pc
		case 2:
			fc.code[p.instrIndex].PC2 = pc
		}
	}

	errCount := env.nextErr
	if errCount < 1 {
		errCount = 1
	}

	return &ir.CompiledFunction{
		ID:         funcID,
		Code:       fc.code,
		LocalCount: env.nextLocal,
		ArgCount:   env.nextArg,
		RetCount:   env.nextRet,
		ErrCount:   errCount,
		Meta: ir.FuncMeta{
			Name:     name,
			ArgCount: env.nextArg,
			RetCount: env.nextRet,
			RetShape: retShape,
		},
	}, nil
}

// filterMetaCalls strips core::import and core::mod::export calls out
// of the top-level body before it is lowered as the init function —
// they carry no runtime instruction of their own.
func filterMetaCalls(calls []*ast.Call) []*ast.Call {
	out := make([]*ast.Call, 0, len(calls))
	for _, c := range calls {
		if c.Target.Namespace == "core" && (c.Target.Name == "import" || c.Target.Name == "mod::export") {
			continue
		}
		out = append(out, c)
	}
	return out
}

type noopLoader struct{}

func (noopLoader) Load(path string) (string, error) {
	return "", fmt.Errorf("imports are not supported when compiling a standalone program")
}
func (noopLoader) Canonicalize(path string) (string, error) { return path, nil }
func (noopLoader) Dir(canonicalPath string) string          { return "" }
