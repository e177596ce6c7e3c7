package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotString(t *testing.T) {
	require.Equal(t, "local:3", Local(3).String())
	require.Equal(t, "global:0", Global(0).String())
}

func TestRetShapeString(t *testing.T) {
	require.Equal(t, "scalar", ScalarShape().String())
	require.Equal(t, "any", AnyShape().String())
	require.Contains(t, EitherShape([]string{"ok", "err"}).String(), "ok")
}

func TestCompiledModuleFunctionLookup(t *testing.T) {
	m := &CompiledModule{
		Functions: []*CompiledFunction{
			{ID: 0, Meta: FuncMeta{Name: "<init>"}},
			{ID: 1, Meta: FuncMeta{Name: "a::b"}},
		},
	}
	f := m.Function(1)
	require.NotNil(t, f)
	require.Equal(t, "a::b", f.Meta.Name)
	require.Nil(t, m.Function(99))
}

func TestParseCSV(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, ParseCSV(" a, b ,c,"))
	require.Nil(t, ParseCSV(""))
}

func TestOpString(t *testing.T) {
	require.Equal(t, "StoreConst", OpStoreConst.String())
	require.Equal(t, "Unknown", Op(255).String())
}
