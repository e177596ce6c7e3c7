package compiler

import (
	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// collectExports records (name, global_slot) for every top-level
// core::mod::export call. The exported value must reference a module
// global — local/arg/return/err namespaces don't outlive the init
// invocation, so exporting one would be meaningless.
func collectExports(mb *moduleBuilder, topLevel []*ast.Call) ([]ir.Export, error) {
	var exports []ir.Export

	for _, c := range topLevel {
		if !(c.Target.Namespace == "core" && c.Target.Name == "mod::export") {
			continue
		}

		name, err := getStringArg(c, "name")
		if err != nil {
			return nil, err
		}
		ref, err := getRefArg(c, "value")
		if err != nil {
			return nil, err
		}
		switch ref.Namespace {
		case "local", "arg", "return", "err":
			return nil, errf(c.Line, "core::mod::export value must reference a module global, not %s::%s", ref.Namespace, ref.Name)
		}

		slot := mb.resolveGlobal(ref.Namespace, ref.Name)
		exports = append(exports, ir.Export{Name: name, Slot: slot})
	}

	return exports, nil
}
