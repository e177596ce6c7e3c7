// Package macro expands annotated calls into plain core:: call
// sequences before the module compiler ever sees them. One macro is
// defined: @safe on core::div.
package macro

import (
	"fmt"

	"github.com/wudi/imp/ast"
)

// Expand rewrites calls so that every annotation has been consumed.
// It never mutates its input; annotated calls are replaced by fresh
// Call values.
func Expand(calls []*ast.Call) ([]*ast.Call, error) {
	out := make([]*ast.Call, 0, len(calls))
	counter := 0

	for _, c := range calls {
		if len(c.Annotations) == 0 {
			out = append(out, c)
			continue
		}
		if !c.HasAnnotation(ast.AnnoSafe) {
			cleared := *c
			cleared.Annotations = nil
			out = append(out, &cleared)
			continue
		}
		if !(c.Target.Namespace == "core" && c.Target.Name == "div") {
			cleared := *c
			cleared.Annotations = nil
			out = append(out, &cleared)
			continue
		}

		counter++
		expanded, err := expandSafeDiv(c, counter)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}

	return out, nil
}

func expandSafeDiv(c *ast.Call, n int) ([]*ast.Call, error) {
	outArg, ok := c.Arg("out")
	if !ok || outArg.Kind != ast.AtomRef {
		return nil, fmt.Errorf("line %d: @safe core::div requires out=<ref>", c.Line)
	}

	handler := fmt.Sprintf("H_%d", n)
	end := fmt.Sprintf("E_%d", n)
	line := c.Line

	cleared := *c
	cleared.Annotations = nil

	return []*ast.Call{
		call(line, "core", "try::push", ast.Arg{Key: "handler", Value: ast.StrAtom(handler)}),
		&cleared,
		call(line, "core", "jump", ast.Arg{Key: "target", Value: ast.StrAtom(end)}),
		call(line, "core", "label", ast.Arg{Key: "name", Value: ast.StrAtom(handler)}),
		call(line, "core", "const",
			ast.Arg{Key: "out", Value: outArg},
			ast.Arg{Key: "value", Value: ast.NullAtom()}),
		call(line, "core", "label", ast.Arg{Key: "name", Value: ast.StrAtom(end)}),
		call(line, "core", "try::pop"),
	}, nil
}

func call(line int, ns, name string, args ...ast.Arg) *ast.Call {
	return &ast.Call{
		Target: ast.RefPath{Namespace: ns, Name: name},
		Args:   args,
		Line:   line,
	}
}
