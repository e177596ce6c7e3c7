package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/imp/compiler"
	"github.com/wudi/imp/ir"
)

func compileFixture(t *testing.T) *ir.CompiledModule {
	t.Helper()
	src := `#call core::fn::begin name=m::inc args=x retcount=1 retshape=scalar;
#call core::const out=local::one value=1;
#call core::add a=arg::x b=local::one out=return::value;
#call core::exit;
#call core::fn::end;
#call core::const out=local::five value=5;
#call m::inc arg0=local::five out=local::result;
#call @safe core::div a=local::result b=local::five out=local::q;
#call core::obj::new out=local::o;
#call core::obj::set obj=local::o key="name" value=local::q;
#call core::mov from=local::result to=return::value;
#call core::exit;`
	mod, err := compiler.CompileProgram(src, compiler.CompileOpts{ModuleName: "fixture"})
	require.NoError(t, err)
	return mod
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mod := compileFixture(t)

	data, err := Encode(mod)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, mod.Name, decoded.Name)
	require.Equal(t, mod.GlobalCount, decoded.GlobalCount)
	require.Equal(t, len(mod.Functions), len(decoded.Functions))
	require.Equal(t, len(mod.Exports), len(decoded.Exports))
	require.Equal(t, len(mod.Imports), len(decoded.Imports))

	for i, fn := range mod.Functions {
		require.Equal(t, fn.ID, decoded.Functions[i].ID)
		require.Equal(t, fn.Meta.Name, decoded.Functions[i].Meta.Name)
		require.Equal(t, len(fn.Code), len(decoded.Functions[i].Code))
		for j, instr := range fn.Code {
			require.Equal(t, instr.Op, decoded.Functions[i].Code[j].Op)
		}
	}
}

func TestEncodeDecodeIsIdempotent(t *testing.T) {
	mod := compileFixture(t)

	data1, err := Encode(mod)
	require.NoError(t, err)
	decoded, err := Decode(data1)
	require.NoError(t, err)
	data2, err := Encode(decoded)
	require.NoError(t, err)

	require.Equal(t, data1, data2)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{'X', 'X', 'X', 'X', 1, 0})
	require.Error(t, err)
	var bcErr *Error
	require.ErrorAs(t, err, &bcErr)
	require.Equal(t, ErrInvalidMagic, bcErr.Kind)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	data := append([]byte{}, Magic[:]...)
	data = append(data, 9, 0)
	_, err := Decode(data)
	require.Error(t, err)
	var bcErr *Error
	require.ErrorAs(t, err, &bcErr)
	require.Equal(t, ErrUnsupportedVersion, bcErr.Kind)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	mod := compileFixture(t)
	data, err := Encode(mod)
	require.NoError(t, err)

	_, err = Decode(append(data, 0xFF))
	require.Error(t, err)
	var bcErr *Error
	require.ErrorAs(t, err, &bcErr)
	require.Equal(t, ErrTrailingBytes, bcErr.Kind)
}

func TestDecodeRejectsTruncation(t *testing.T) {
	mod := compileFixture(t)
	data, err := Encode(mod)
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-4])
	require.Error(t, err)
}
