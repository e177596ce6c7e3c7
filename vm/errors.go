package vm

import "fmt"

// RuntimeError is a generic engine-raised failure: a slot
// out of range, a type mismatch, an unknown function id, a failed
// return-shape check. It is always fatal to the current run, unlike a
// ThrownError which a try-stack handler can catch.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// ThrownError is a user-level throw (core::throw, or the synthetic
// div_zero raised by a division by zero) that has propagated out of a VM run because no try-stack
// handler in the dynamic call chain caught it.
type ThrownError struct {
	Code string
	Msg  string
}

func (e *ThrownError) Error() string {
	return fmt.Sprintf("uncaught throw %s: %s", e.Code, e.Msg)
}
