package compiler

import "fmt"

// CompileError is a line-attributed compile-time diagnostic: unknown
// label, cyclic import, bad ref, missing arg, nested function, and so
// on. Import failures are attributed to line 1 of the importing file,
// matching the rest of the compiler's per-call line tracking.
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errf(line int, format string, args ...interface{}) error {
	return &CompileError{Line: line, Message: fmt.Sprintf(format, args...)}
}
