package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAtomPriority(t *testing.T) {
	cases := []struct {
		raw  string
		kind AtomKind
	}{
		{"null", AtomNull},
		{"true", AtomBool},
		{"false", AtomBool},
		{"3.5", AtomNum},
		{`"hello world"`, AtomStr},
		{"local::x", AtomRef},
		{"bareword", AtomStr},
	}
	for _, tc := range cases {
		atom, err := ParseAtom(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.kind, atom.Kind, tc.raw)
	}
}

func TestParseAtomQuotedEscapes(t *testing.T) {
	atom, err := ParseAtom(`"line\nbreak \"quoted\""`)
	require.NoError(t, err)
	require.Equal(t, AtomStr, atom.Kind)
	require.Equal(t, "line\nbreak \"quoted\"", atom.Str)
}

func TestParseAtomUnknownEscapeKeepsBackslash(t *testing.T) {
	atom, err := ParseAtom(`"\q"`)
	require.NoError(t, err)
	require.Equal(t, `\q`, atom.Str)
}

func TestParseRefPathRequiresBothHalves(t *testing.T) {
	_, ok := ParseRefPath("core::")
	require.False(t, ok)
	_, ok = ParseRefPath("::name")
	require.False(t, ok)
	ref, ok := ParseRefPath("core::div")
	require.True(t, ok)
	require.Equal(t, "core", ref.Namespace)
	require.Equal(t, "div", ref.Name)
}

func TestCallArgLookup(t *testing.T) {
	c := &Call{
		Target: RefPath{Namespace: "core", Name: "add"},
		Args: []Arg{
			{Key: "a", Value: NumAtom(1)},
			{Key: "b", Value: NumAtom(2)},
		},
	}
	v, ok := c.Arg("b")
	require.True(t, ok)
	require.Equal(t, 2.0, v.Num)
	_, ok = c.Arg("missing")
	require.False(t, ok)
}
