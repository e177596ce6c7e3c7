package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/imp/compiler"
	"github.com/wudi/imp/values"
)

// memLoader is an in-memory compiler.ModuleLoader for tests.
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

func runProgram(t *testing.T, src string, noJIT bool) map[string]values.Value {
	t.Helper()
	mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	v := New(Config{NoJIT: noJIT})
	exports, err := v.RunMain(mod)
	require.NoError(t, err)
	return exports
}

func initReturns(t *testing.T, src string, noJIT bool) []values.Value {
	t.Helper()
	mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	v := New(Config{NoJIT: noJIT})
	globals, err := v.buildModuleGlobals(mod)
	require.NoError(t, err)
	rets, err := v.executeFunction(mod, mod.Function(mod.InitFunc), nil, globals)
	require.NoError(t, err)
	return rets
}

func TestScenarioBasicArithmetic(t *testing.T) {
	src := `#call core::const out=local::x value=2;
#call core::const out=local::y value=3;
#call core::add a=local::x b=local::y out=return::value;
#call core::exit;`

	for _, noJIT := range []bool{true, false} {
		rets := initReturns(t, src, noJIT)
		require.Len(t, rets, 1)
		require.Equal(t, values.KindNum, rets[0].Kind)
		require.Equal(t, 5.0, rets[0].Num)
	}
}

func TestScenarioSafeDivByZeroYieldsNull(t *testing.T) {
	src := `#call core::const out=local::a value=1;
#call core::const out=local::b value=0;
#call @safe core::div a=local::a b=local::b out=return::value;
#call core::exit;`

	for _, noJIT := range []bool{true, false} {
		rets := initReturns(t, src, noJIT)
		require.Len(t, rets, 1)
		require.Equal(t, values.KindNull, rets[0].Kind)
	}
}

func TestScenarioBranch(t *testing.T) {
	src := `#call core::const out=local::flag value=true;
#call core::br cond=local::flag then=yes else=no;
#call core::label name=no;
#call core::const out=return::value value=2;
#call core::jump target=end;
#call core::label name=yes;
#call core::const out=return::value value=1;
#call core::jump target=end;
#call core::label name=end;
#call core::exit;`

	for _, noJIT := range []bool{true, false} {
		rets := initReturns(t, src, noJIT)
		require.Len(t, rets, 1)
		require.Equal(t, 1.0, rets[0].Num)
	}
}

func TestScenarioCrossModuleInvokeLoop(t *testing.T) {
	loader := memLoader{files: map[string]string{
		"a.imp": `#call core::fn::begin name=a::inc args=x retcount=1 retshape=scalar;
#call core::const out=local::one value=1;
#call core::add a=arg::x b=local::one out=return::value;
#call core::exit;
#call core::fn::end;
#call core::mod::export name=inc value=a::inc;`,
		"b.imp": `#call core::import alias=p path=a.imp;
#call core::const out=local::i value=0;
#call core::const out=local::limit value=1000;
#call core::label name=loop;
#call core::lt a=local::i b=local::limit out=local::cond;
#call core::br cond=local::cond then=body else=end;
#call core::label name=body;
#call p::inc arg0=local::i out=local::i;
#call core::jump target=loop;
#call core::label name=end;
#call core::mov from=local::i to=return::value;
#call core::exit;`,
	}}

	for _, noJIT := range []bool{true, false} {
		mod, err := compiler.CompileModule("b.imp", loader)
		require.NoError(t, err)
		v := New(Config{NoJIT: noJIT})
		globals, err := v.buildModuleGlobals(mod)
		require.NoError(t, err)
		rets, err := v.executeFunction(mod, mod.Function(mod.InitFunc), nil, globals)
		require.NoError(t, err)
		require.Len(t, rets, 1)
		require.Equal(t, 1000.0, rets[0].Num)
	}
}

func TestForeignCallsDoNotShareGlobalsAcrossInvocations(t *testing.T) {
	loader := memLoader{files: map[string]string{
		"a.imp": `#call core::fn::begin name=a::bump args=x retcount=1 retshape=scalar;
#call core::const out=local::nullv value=null;
#call core::eq a=a::n b=local::nullv out=local::isnull;
#call core::br cond=local::isnull then=initn else=useit;
#call core::label name=initn;
#call core::const out=a::n value=0;
#call core::jump target=useit;
#call core::label name=useit;
#call core::add a=a::n b=arg::x out=a::n;
#call core::mov from=a::n to=return::value;
#call core::exit;
#call core::fn::end;
#call core::mod::export name=bump value=a::bump;`,
		"b.imp": `#call core::import alias=p path=a.imp;
#call core::const out=local::five value=5;
#call p::bump arg0=local::five out=local::r1;
#call p::bump arg0=local::five out=local::r2;
#call core::obj::new out=local::pair;
#call core::obj::set obj=local::pair key="first" value=local::r1 out=local::pair;
#call core::obj::set obj=local::pair key="second" value=local::r2 out=local::pair;
#call core::mov from=local::pair to=return::value;
#call core::exit;`,
	}}

	for _, noJIT := range []bool{true, false} {
		mod, err := compiler.CompileModule("b.imp", loader)
		require.NoError(t, err)
		v := New(Config{NoJIT: noJIT})
		globals, err := v.buildModuleGlobals(mod)
		require.NoError(t, err)
		rets, err := v.executeFunction(mod, mod.Function(mod.InitFunc), nil, globals)
		require.NoError(t, err)
		require.Len(t, rets, 1)
		require.Equal(t, values.KindObj, rets[0].Kind)
		// Each foreign invocation gets its own fresh globals, so the
		// module-level accumulator never survives between calls: both
		// calls see a::n reset and return 5, not 5 then 10.
		require.Equal(t, 5.0, rets[0].Obj["first"].Num)
		require.Equal(t, 5.0, rets[0].Obj["second"].Num)
	}
}

func TestScenarioObjectAndStringOps(t *testing.T) {
	src := `#call core::obj::new out=local::o;
#call core::const out=local::ada value="Ada";
#call core::obj::set obj=local::o key="name" value=local::ada out=local::o;
#call core::obj::has obj=local::o key="name" out=local::hasname;
#call core::obj::get obj=local::o key="name" out=local::got;
#call core::const out=local::bang value="!";
#call core::str::concat a=local::got b=local::bang out=local::joined;
#call core::str::len value=local::joined out=return::value;
#call core::exit;`

	for _, noJIT := range []bool{true, false} {
		rets := initReturns(t, src, noJIT)
		require.Len(t, rets, 1)
		require.Equal(t, 4.0, rets[0].Num)
	}
}

func TestScenarioRetShapeViolationIsRuntimeError(t *testing.T) {
	src := `#call core::fn::begin name=m::f retcount=1 retshape=either(ok,err);
#call core::const out=return::value value="maybe";
#call core::exit;
#call core::fn::end;
#call core::const out=local::dummy value=0;
#call m::f out=local::r;
#call core::mov from=local::dummy to=return::value;
#call core::exit;`

	for _, noJIT := range []bool{true, false} {
		mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "m"})
		require.NoError(t, err)
		v := New(Config{NoJIT: noJIT})
		_, err = v.RunMain(mod)
		require.Error(t, err)
		require.Contains(t, err.Error(), "either")
	}
}

func TestInterpreterAndJITAgree(t *testing.T) {
	src := `#call core::const out=local::x value=7;
#call core::const out=local::y value=6;
#call core::mul a=local::x b=local::y out=return::value;
#call core::exit;`

	interpreted := initReturns(t, src, true)
	jitted := initReturns(t, src, false)
	require.Equal(t, interpreted, jitted)
}

func TestUncaughtThrowPropagates(t *testing.T) {
	src := `#call core::throw code="boom" msg="kaboom";
#call core::exit;`

	mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "m"})
	require.NoError(t, err)
	v := New(Config{})
	_, err = v.RunMain(mod)
	require.Error(t, err)
	var thrown *ThrownError
	require.ErrorAs(t, err, &thrown)
	require.Equal(t, "boom", thrown.Code)
}

func TestCaughtThrowJumpsToHandler(t *testing.T) {
	src := `#call core::try::push handler=h;
#call core::throw code="boom" msg="kaboom";
#call core::jump target=end;
#call core::label name=h;
#call core::const out=local::one value=1;
#call core::mov from=local::one to=return::value;
#call core::jump target=end;
#call core::label name=end;
#call core::exit;`

	rets := initReturns(t, src, true)
	require.Len(t, rets, 1)
	require.Equal(t, 1.0, rets[0].Num)
}
