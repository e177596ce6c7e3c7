package compiler

import (
	"fmt"
	"strconv"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// atomAsString renders an Atom the way a literal argument value is
// expected to read as plain text: used for args="a,b,c" lists,
// retshape strings, throw code/msg, and obj::set's literal key.
func atomAsString(a ast.Atom) (string, error) {
	switch a.Kind {
	case ast.AtomStr:
		return a.Str, nil
	case ast.AtomNull:
		return "null", nil
	case ast.AtomBool:
		return strconv.FormatBool(a.Bool), nil
	case ast.AtomNum:
		return strconv.FormatFloat(a.Num, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a literal value, got a ref")
	}
}

func atomAsNumber(a ast.Atom) (float64, error) {
	switch a.Kind {
	case ast.AtomNum:
		return a.Num, nil
	case ast.AtomStr:
		n, err := strconv.ParseFloat(a.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", a.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number")
	}
}

func atomToConstValue(a ast.Atom) ir.ConstValue {
	switch a.Kind {
	case ast.AtomNull:
		return ir.NullConst()
	case ast.AtomBool:
		return ir.BoolConst(a.Bool)
	case ast.AtomNum:
		return ir.NumConst(a.Num)
	case ast.AtomStr:
		return ir.StrConst(a.Str)
	default:
		return ir.NullConst()
	}
}

// getStringArg fetches a required string-ish argument from c.
func getStringArg(c *ast.Call, key string) (string, error) {
	a, ok := c.Arg(key)
	if !ok {
		return "", errf(c.Line, "%s:: call missing required argument %q", c.Target.Name, key)
	}
	return atomAsString(a)
}

// getRefArg fetches a required ref argument, erroring if it is a
// literal.
func getRefArg(c *ast.Call, key string) (ast.RefPath, error) {
	a, ok := c.Arg(key)
	if !ok {
		return ast.RefPath{}, errf(c.Line, "%s:: call missing required argument %q", c.Target.Name, key)
	}
	if a.Kind != ast.AtomRef {
		return ast.RefPath{}, errf(c.Line, "%s:: argument %q must be a ref", c.Target.Name, key)
	}
	return a.Ref, nil
}
