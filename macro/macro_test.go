package macro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/parser"
)

func TestExpandPassesThroughUnannotated(t *testing.T) {
	prog, err := parser.ParseCalls(`#call core::const out=local::x value=1;`)
	require.NoError(t, err)
	out, err := Expand(prog.Calls)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, prog.Calls[0], out[0])
}

func TestExpandClearsUnsupportedAnnotation(t *testing.T) {
	prog, err := parser.ParseCalls(`#call @safe core::mov from=local::a to=local::b;`)
	require.NoError(t, err)
	out, err := Expand(prog.Calls)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Empty(t, out[0].Annotations)
}

func TestExpandClearsUnrecognizedAnnotation(t *testing.T) {
	prog, err := parser.ParseCalls(`#call @fancy core::mov from=local::a to=local::b;`)
	require.NoError(t, err)
	out, err := Expand(prog.Calls)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Empty(t, out[0].Annotations)
}

func TestExpandSafeDivSequence(t *testing.T) {
	prog, err := parser.ParseCalls(`#call @safe core::div a=local::a b=local::b out=local::c;`)
	require.NoError(t, err)
	out, err := Expand(prog.Calls)
	require.NoError(t, err)
	require.Len(t, out, 7)

	require.Equal(t, "try::push", out[0].Target.Name)
	h, ok := out[0].Arg("handler")
	require.True(t, ok)

	require.Equal(t, "div", out[1].Target.Name)
	require.Empty(t, out[1].Annotations)

	require.Equal(t, "jump", out[2].Target.Name)
	e, ok := out[2].Arg("target")
	require.True(t, ok)

	require.Equal(t, "label", out[3].Target.Name)
	name, _ := out[3].Arg("name")
	require.Equal(t, h.Str, name.Str)

	require.Equal(t, "const", out[4].Target.Name)
	v, ok := out[4].Arg("value")
	require.True(t, ok)
	require.Equal(t, ast.AtomNull, v.Kind)

	require.Equal(t, "label", out[5].Target.Name)
	name2, _ := out[5].Arg("name")
	require.Equal(t, e.Str, name2.Str)

	require.Equal(t, "try::pop", out[6].Target.Name)
}

func TestExpandSafeDivRequiresRefOut(t *testing.T) {
	prog, err := parser.ParseCalls(`#call @safe core::div a=local::a b=local::b out=1;`)
	require.NoError(t, err)
	_, err = Expand(prog.Calls)
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires out=<ref>")
}
