// Package ast holds the source-level representation of an imp program:
// a flat stream of call statements, each optionally annotated, each
// targeting a namespaced reference with key=value arguments.
package ast

import "strings"

// Arg is a single key=value argument attached to a Call.
type Arg struct {
	Key   string
	Value Atom
}

// Call is one #call statement: zero or more @annotations, a target
// reference, and its arguments in source order.
type Call struct {
	Annotations []string
	Target      RefPath
	Args        []Arg
	Line        int
}

// Arg looks up an argument by key. ok is false if the key is absent.
func (c *Call) Arg(key string) (Atom, bool) {
	for _, a := range c.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return Atom{}, false
}

// HasAnnotation reports whether name appears among c's annotations.
func (c *Call) HasAnnotation(name string) bool {
	for _, a := range c.Annotations {
		if a == name {
			return true
		}
	}
	return false
}

func (c *Call) String() string {
	var b strings.Builder
	b.WriteString("#call ")
	for _, a := range c.Annotations {
		b.WriteString("@")
		b.WriteString(a)
		b.WriteString(" ")
	}
	b.WriteString(c.Target.String())
	for _, a := range c.Args {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.String())
	}
	return b.String()
}

// Program is the full parsed statement stream of one source file.
type Program struct {
	Calls []*Call
}
