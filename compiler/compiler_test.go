package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/imp/ir"
)

// memLoader is an in-memory ModuleLoader for tests, avoiding any real
// filesystem access.
type memLoader struct {
	files map[string]string
}

func (l memLoader) Load(path string) (string, error) {
	src, ok := l.files[path]
	if !ok {
		return "", fmt.Errorf("no such file %q", path)
	}
	return src, nil
}

func (l memLoader) Canonicalize(path string) (string, error) { return path, nil }
func (l memLoader) Dir(canonicalPath string) string          { return "" }

func TestCompileProgramBasicArithmetic(t *testing.T) {
	src := `#call core::const out=local::x value=2;
#call core::const out=local::y value=3;
#call core::add a=local::x b=local::y out=return::value;
#call core::exit;`

	mod, err := CompileProgram(src, CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	init := mod.Function(0)
	require.NotNil(t, init)
	require.Equal(t, ir.OpExit, init.Code[len(init.Code)-1].Op)

	var sawAdd bool
	for _, instr := range init.Code {
		if instr.Op == ir.OpAdd {
			sawAdd = true
			require.Equal(t, ir.SlotRet, instr.Out.Kind)
		}
	}
	require.True(t, sawAdd)
}

func TestCompileProgramSafeDivExpandsToTryScaffold(t *testing.T) {
	src := `#call @safe core::div a=local::a b=local::b out=local::c;
#call core::mov from=local::c to=return::value;
#call core::exit;`

	mod, err := CompileProgram(src, CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	init := mod.Function(0)

	var ops []ir.Op
	for _, instr := range init.Code {
		ops = append(ops, instr.Op)
	}
	require.Contains(t, ops, ir.OpTryPush)
	require.Contains(t, ops, ir.OpDiv)
	require.Contains(t, ops, ir.OpTryPop)
}

func TestCompileFunctionDeclarationAndInvoke(t *testing.T) {
	src := `#call core::fn::begin name=my::inc args=x retcount=1 retshape=scalar;
#call core::const out=local::one value=1;
#call core::add a=arg::x b=local::one out=return::value;
#call core::exit;
#call core::fn::end;
#call core::const out=local::five value=5;
#call my::inc arg0=local::five out=local::result;
#call core::mov from=local::result to=return::value;
#call core::exit;`

	mod, err := CompileProgram(src, CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	require.Len(t, mod.Functions, 2)
	require.Len(t, mod.FunctionGlobals, 1)
	require.Equal(t, uint32(1), mod.FunctionGlobals[0].FuncID)

	fn := mod.Function(1)
	require.NotNil(t, fn)
	require.Equal(t, ir.RetScalar, fn.Meta.RetShape.Kind)

	init := mod.Function(0)
	var sawInvoke bool
	for _, instr := range init.Code {
		if instr.Op == ir.OpInvoke {
			sawInvoke = true
		}
	}
	require.True(t, sawInvoke)
}

func TestCompileUnknownLabelErrors(t *testing.T) {
	src := `#call core::jump target=nope;
#call core::exit;`
	_, err := CompileProgram(src, CompileOpts{ModuleName: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown label")
}

func TestCompileNestedFunctionErrors(t *testing.T) {
	src := `#call core::fn::begin name=a::a;
#call core::fn::begin name=b::b;
#call core::fn::end;
#call core::fn::end;`
	_, err := CompileProgram(src, CompileOpts{ModuleName: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nested functions")
}

func TestCompileImportsAndExports(t *testing.T) {
	loader := memLoader{files: map[string]string{
		"a.imp": `#call core::fn::begin name=a::inc args=x retcount=1;
#call core::const out=local::one value=1;
#call core::add a=arg::x b=local::one out=return::value;
#call core::exit;
#call core::fn::end;
#call core::mod::export name=inc value=a::inc;`,
		"b.imp": `#call core::import alias=p path=a.imp;
#call p::inc arg0=local::zero out=local::r;
#call core::mov from=local::r to=return::value;
#call core::exit;`,
	}}

	mod, err := CompileModule("b.imp", loader)
	require.NoError(t, err)
	require.Len(t, mod.Imports, 1)
	require.Equal(t, "a.imp", mod.Imports[0].Path)
	require.Len(t, mod.Imports[0].ExportToGlobal, 1)
	require.Equal(t, "inc", mod.Imports[0].ExportToGlobal[0].Name)
}

func TestCompileCyclicImportFails(t *testing.T) {
	loader := memLoader{files: map[string]string{
		"a.imp": `#call core::import alias=b path=b.imp;
#call core::exit;`,
		"b.imp": `#call core::import alias=a path=a.imp;
#call core::exit;`,
	}}

	_, err := CompileModule("a.imp", loader)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cyclic import")
}

func TestParseRetShapeGrammar(t *testing.T) {
	require.Equal(t, ir.RetScalar, parseRetShape("Scalar").Kind)
	require.Equal(t, ir.RetAny, parseRetShape("").Kind)
	require.Equal(t, ir.RetAny, parseRetShape("garbage").Kind)
	either := parseRetShape("either(ok, err)")
	require.Equal(t, ir.RetEither, either.Kind)
	require.Equal(t, []string{"ok", "err"}, either.Tags)
}
