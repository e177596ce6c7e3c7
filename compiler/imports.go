package compiler

import (
	"path/filepath"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// compileImports resolves every top-level core::import call: the
// import path is resolved relative to the importing module's
// directory (absolute paths pass through as-is), the target is
// recursively compiled (memoized by canonical path; cycles rejected),
// and each of its exports gets a destination global allocated under
// the import's alias namespace.
func compileImports(mb *moduleBuilder, topLevel []*ast.Call, loader ModuleLoader, cache map[string]*ir.CompiledModule, visiting map[string]bool, baseDir string) ([]*ir.ImportBinding, error) {
	var bindings []*ir.ImportBinding

	for _, c := range topLevel {
		if !(c.Target.Namespace == "core" && c.Target.Name == "import") {
			continue
		}

		alias, err := getStringArg(c, "alias")
		if err != nil {
			return nil, err
		}
		path, err := getStringArg(c, "path")
		if err != nil {
			return nil, err
		}

		resolved := resolveImportPath(path, baseDir)

		imported, err := compileModuleInternal(resolved, loader, cache, visiting)
		if err != nil {
			return nil, err
		}

		var exportBindings []ir.ExportBinding
		for _, exp := range imported.Exports {
			dest := mb.resolveGlobal(alias, exp.Name)
			exportBindings = append(exportBindings, ir.ExportBinding{Name: exp.Name, Slot: dest})
		}

		bindings = append(bindings, &ir.ImportBinding{
			Path:           path,
			Alias:          alias,
			Module:         imported,
			ExportToGlobal: exportBindings,
		})
	}

	return bindings, nil
}

func resolveImportPath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
