package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/imp/ast"
)

func TestParseCallsBasic(t *testing.T) {
	prog, err := ParseCalls(`#call core::add a=1 b=2 out=local::sum;`)
	require.NoError(t, err)
	require.Len(t, prog.Calls, 1)
	c := prog.Calls[0]
	require.Equal(t, "core", c.Target.Namespace)
	require.Equal(t, "add", c.Target.Name)
	a, ok := c.Arg("a")
	require.True(t, ok)
	require.Equal(t, 1.0, a.Num)
	out, ok := c.Arg("out")
	require.True(t, ok)
	require.Equal(t, ast.AtomRef, out.Kind)
}

func TestParseCallsAnnotations(t *testing.T) {
	prog, err := ParseCalls(`#call @safe core::div a=local::x b=local::y out=local::q;`)
	require.NoError(t, err)
	require.True(t, prog.Calls[0].HasAnnotation("safe"))
}

func TestParseCallsQuotedStringWithSemicolon(t *testing.T) {
	prog, err := ParseCalls(`#call core::print value="hi; there";`)
	require.NoError(t, err)
	v, ok := prog.Calls[0].Arg("value")
	require.True(t, ok)
	require.Equal(t, "hi; there", v.Str)
}

func TestParseCallsMultipleStatements(t *testing.T) {
	prog, err := ParseCalls(`#call core::a x=1;
#call core::b y=2;`)
	require.NoError(t, err)
	require.Len(t, prog.Calls, 2)
	require.Equal(t, 2, prog.Calls[1].Line)
}

func TestParseCallsMissingSemicolonErrors(t *testing.T) {
	_, err := ParseCalls(`#call core::a x=1`)
	require.Error(t, err)
}

func TestParseCallsRequiresCallPrefix(t *testing.T) {
	_, err := ParseCalls(`core::a x=1;`)
	require.Error(t, err)
}

func TestParseCallsBadArgForm(t *testing.T) {
	_, err := ParseCalls(`#call core::a justaword;`)
	require.Error(t, err)
}
