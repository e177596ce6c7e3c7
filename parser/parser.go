// Package parser assembles lexer.Token output into an ast.Program: one
// ast.Call per #call statement, in source order.
package parser

import (
	"fmt"
	"strings"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/lexer"
)

// Parser builds an ast.Program from a token stream using one token of
// lookahead (currentToken/peekToken), in the style of a hand-written
// recursive-descent parser over a simple statement grammar.
type Parser struct {
	lexer        *lexer.Lexer
	currentToken lexer.Token
	peekToken    lexer.Token
	errors       []string
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) (*Parser, error) {
	p := &Parser{lexer: l}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) next() error {
	p.currentToken = p.peekToken
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peekToken = tok
	return nil
}

// Errors returns any non-fatal diagnostics accumulated while parsing.
// ParseProgram itself stops at, and returns, the first fatal error.
func (p *Parser) Errors() []string { return p.errors }

// ParseProgram reads the full token stream and returns the resulting
// call statements.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.currentToken.Type != lexer.T_EOF {
		call, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Calls = append(prog.Calls, call)
	}
	return prog, nil
}

func (p *Parser) parseStatement() (*ast.Call, error) {
	line := p.currentToken.Position.Line
	var words []string
	for p.currentToken.Type != lexer.T_SEMICOLON {
		if p.currentToken.Type == lexer.T_EOF {
			return nil, fmt.Errorf("line %d: statement missing terminating ';'", line)
		}
		words = append(words, p.currentToken.Value)
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	// consume the semicolon
	if err := p.next(); err != nil {
		return nil, err
	}
	return buildCall(words, line)
}

func buildCall(words []string, line int) (*ast.Call, error) {
	if len(words) == 0 || words[0] != "#call" {
		return nil, fmt.Errorf("line %d: statement must begin with #call", line)
	}
	words = words[1:]

	var annos []string
	for len(words) > 0 && strings.HasPrefix(words[0], "@") {
		annos = append(annos, strings.TrimPrefix(words[0], "@"))
		words = words[1:]
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("line %d: #call statement missing target", line)
	}
	target, ok := ast.ParseRefPath(words[0])
	if !ok {
		return nil, fmt.Errorf("line %d: invalid call target %q, expected namespace::name", line, words[0])
	}
	words = words[1:]

	call := &ast.Call{Annotations: annos, Target: target, Line: line}
	for _, w := range words {
		eq := strings.Index(w, "=")
		if eq < 0 {
			return nil, fmt.Errorf("line %d: argument %q is not in key=value form", line, w)
		}
		key, rawVal := w[:eq], w[eq+1:]
		if key == "" {
			return nil, fmt.Errorf("line %d: argument %q has an empty key", line, w)
		}
		val, err := ast.ParseAtom(rawVal)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		call.Args = append(call.Args, ast.Arg{Key: key, Value: val})
	}
	return call, nil
}

// ParseCalls is a convenience wrapper: lex src fully and parse it into
// a Program in one call.
func ParseCalls(src string) (*ast.Program, error) {
	p, err := New(lexer.New(src))
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}
