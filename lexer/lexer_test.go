package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Type == T_EOF {
			return toks
		}
	}
}

func TestLexerSplitsWordsAndSemicolons(t *testing.T) {
	toks := collect(t, `#call core::add a=1 b=2;`)
	require.Equal(t, T_WORD, toks[0].Type)
	require.Equal(t, "#call", toks[0].Value)
	require.Equal(t, "core::add", toks[1].Value)
	require.Equal(t, "a=1", toks[2].Value)
	require.Equal(t, "b=2", toks[3].Value)
	require.Equal(t, T_SEMICOLON, toks[4].Type)
	require.Equal(t, T_EOF, toks[5].Type)
}

func TestLexerKeepsQuotedSpacesAndSemicolons(t *testing.T) {
	toks := collect(t, `#call core::print value="hello; world";`)
	require.Equal(t, `value="hello; world"`, toks[2].Value)
	require.Equal(t, T_SEMICOLON, toks[3].Type)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	l := New(`#call core::print value="oops`)
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = l.NextToken()
	}
	require.Error(t, err)
}

func TestLexerTracksLineNumbers(t *testing.T) {
	toks := collect(t, "#call core::a x=1;\n#call core::b y=2;")
	require.Equal(t, 1, toks[0].Position.Line)
	// first token after the newline
	var afterNewline Token
	for _, tok := range toks {
		if tok.Value == "core::b" {
			afterNewline = tok
			break
		}
	}
	require.Equal(t, 2, afterNewline.Position.Line)
}
