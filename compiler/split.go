package compiler

import (
	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// functionDecl is one core::fn::begin ... core::fn::end block: its
// target name, declared parameter names, declared return arity/shape,
// and the body calls collected between the markers.
type functionDecl struct {
	Target   ast.RefPath
	ArgNames []string
	RetCount uint32
	RetShape ir.RetShape
	Body     []*ast.Call
	Line     int
}

// splitFunctions partitions calls into the top-level body and the
// declared functions. Nested begins, a lone end, and an unclosed begin
// are all compile errors.
func splitFunctions(calls []*ast.Call) ([]*ast.Call, []*functionDecl, error) {
	var topLevel []*ast.Call
	var fns []*functionDecl

	var current *functionDecl
	beginLine := 0

	for _, c := range calls {
		if c.Target.Namespace == "core" && c.Target.Name == "fn::begin" {
			if current != nil {
				return nil, nil, errf(c.Line, "nested functions are not allowed")
			}
			decl, err := newFunctionDecl(c)
			if err != nil {
				return nil, nil, err
			}
			current = decl
			beginLine = c.Line
			continue
		}
		if c.Target.Namespace == "core" && c.Target.Name == "fn::end" {
			if current == nil {
				return nil, nil, errf(c.Line, "core::fn::end without core::fn::begin")
			}
			fns = append(fns, current)
			current = nil
			continue
		}
		if current != nil {
			current.Body = append(current.Body, c)
		} else {
			topLevel = append(topLevel, c)
		}
	}

	if current != nil {
		return nil, nil, errf(beginLine, "unclosed core::fn::begin block")
	}

	return topLevel, fns, nil
}

func newFunctionDecl(c *ast.Call) (*functionDecl, error) {
	target, err := getTargetArg(c, "name")
	if err != nil {
		return nil, err
	}

	var argNames []string
	if raw, ok := c.Arg("args"); ok {
		text, err := atomAsString(raw)
		if err != nil {
			return nil, errf(c.Line, "core::fn::begin args: %s", err)
		}
		argNames = ir.ParseCSV(text)
	}

	retCount := uint32(1)
	if raw, ok := c.Arg("retcount"); ok {
		n, err := atomAsNumber(raw)
		if err != nil {
			return nil, errf(c.Line, "core::fn::begin retcount: %s", err)
		}
		retCount = uint32(n)
	}

	retShape := ir.AnyShape()
	if raw, ok := c.Arg("retshape"); ok {
		text, err := atomAsString(raw)
		if err != nil {
			return nil, errf(c.Line, "core::fn::begin retshape: %s", err)
		}
		retShape = parseRetShape(text)
	}

	return &functionDecl{
		Target:   target,
		ArgNames: argNames,
		RetCount: retCount,
		RetShape: retShape,
		Line:     c.Line,
	}, nil
}

// getTargetArg accepts either a ref atom (unquoted ns::name) or a
// string atom parseable as one, since a function/import name both
// read naturally either way in source text.
func getTargetArg(c *ast.Call, key string) (ast.RefPath, error) {
	a, ok := c.Arg(key)
	if !ok {
		return ast.RefPath{}, errf(c.Line, "%s:: call missing required argument %q", c.Target.Name, key)
	}
	switch a.Kind {
	case ast.AtomRef:
		return a.Ref, nil
	case ast.AtomStr:
		if ref, ok := ast.ParseRefPath(a.Str); ok {
			return ref, nil
		}
	}
	return ast.RefPath{}, errf(c.Line, "%s:: argument %q must be a namespace::name reference", c.Target.Name, key)
}
