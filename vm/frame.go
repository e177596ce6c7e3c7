package vm

import (
	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/values"
)

// frame is one function activation: the code it is running,
// its program counter, its four per-invocation vectors, and the
// try-stack of handler PCs pushed by core::try::push. locals, args,
// returns and errs grow on demand when written past their current
// length (seeded with Null); globals are preallocated to their
// declared count and never grow.
type frame struct {
	fn       *ir.CompiledFunction
	pc       int
	locals   []values.Value
	args     []values.Value
	returns  []values.Value
	errs     []values.Value
	tryStack []int
	globals  *[]values.Value
}

func newFrame(fn *ir.CompiledFunction, callArgs []values.Value, globals *[]values.Value) *frame {
	args := make([]values.Value, fn.ArgCount)
	for i := range args {
		if i < len(callArgs) {
			args[i] = callArgs[i]
		} else {
			args[i] = values.NewNull()
		}
	}
	errs := make([]values.Value, fn.ErrCount)
	for i := range errs {
		errs[i] = values.NewNull()
	}
	if len(errs) == 0 {
		errs = []values.Value{values.NewNull()}
	}
	return &frame{
		fn:      fn,
		pc:      0,
		locals:  make([]values.Value, 0, fn.LocalCount),
		args:    args,
		returns: make([]values.Value, 0),
		errs:    errs,
		globals: globals,
	}
}

func growTo(vec []values.Value, n int) []values.Value {
	for len(vec) < n {
		vec = append(vec, values.NewNull())
	}
	return vec
}

// get reads a slot, bounds-checking it; out-of-range is a runtime
// error for every slot kind, including globals.
func (f *frame) get(s ir.Slot) (values.Value, error) {
	idx := int(s.Index)
	switch s.Kind {
	case ir.SlotLocal:
		if idx < 0 || idx >= len(f.locals) {
			return values.Value{}, runtimeErrorf("local slot %d out of range", idx)
		}
		return f.locals[idx], nil
	case ir.SlotArg:
		if idx < 0 || idx >= len(f.args) {
			return values.Value{}, runtimeErrorf("arg slot %d out of range", idx)
		}
		return f.args[idx], nil
	case ir.SlotRet:
		if idx < 0 || idx >= len(f.returns) {
			return values.Value{}, runtimeErrorf("return slot %d out of range", idx)
		}
		return f.returns[idx], nil
	case ir.SlotErr:
		if idx < 0 || idx >= len(f.errs) {
			return values.Value{}, runtimeErrorf("err slot %d out of range", idx)
		}
		return f.errs[idx], nil
	case ir.SlotGlobal:
		g := *f.globals
		if idx >= len(g) {
			return values.Value{}, runtimeErrorf("global slot %d out of range", idx)
		}
		return g[idx], nil
	default:
		return values.Value{}, runtimeErrorf("unknown slot kind %v", s.Kind)
	}
}

// set writes a slot. local/arg/ret/err vectors grow with Null to
// accommodate the write; globals are preallocated and bounds-checked.
func (f *frame) set(s ir.Slot, v values.Value) error {
	idx := int(s.Index)
	switch s.Kind {
	case ir.SlotLocal:
		f.locals = growTo(f.locals, idx+1)
		f.locals[idx] = v
	case ir.SlotArg:
		f.args = growTo(f.args, idx+1)
		f.args[idx] = v
	case ir.SlotRet:
		f.returns = growTo(f.returns, idx+1)
		f.returns[idx] = v
	case ir.SlotErr:
		f.errs = growTo(f.errs, idx+1)
		f.errs[idx] = v
	case ir.SlotGlobal:
		g := *f.globals
		if idx >= len(g) {
			return runtimeErrorf("global slot %d out of range", idx)
		}
		g[idx] = v
	default:
		return runtimeErrorf("unknown slot kind %v", s.Kind)
	}
	return nil
}

func (f *frame) pushTry(handlerPC int) {
	f.tryStack = append(f.tryStack, handlerPC)
}

// popTry pops and returns the innermost handler PC, or (-1, false) if
// the try-stack is empty.
func (f *frame) popTry() (int, bool) {
	if len(f.tryStack) == 0 {
		return -1, false
	}
	n := len(f.tryStack) - 1
	pc := f.tryStack[n]
	f.tryStack = f.tryStack[:n]
	return pc, true
}
