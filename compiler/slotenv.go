package compiler

import (
	"fmt"
	"strconv"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// slotEnv is the per-function slot allocator: four maps keyed by ref
// name within their namespace, a next-index counter for each, and a
// counter for synthesized temp names. Args and
// returns are seeded from the function's declaration and grow on
// demand when a call references a name beyond what was declared.
type slotEnv struct {
	locals map[string]uint32
	args   map[string]uint32
	rets   map[string]uint32
	errs   map[string]uint32

	nextLocal uint32
	nextArg   uint32
	nextRet   uint32
	nextErr   uint32

	tempCounter uint32
}

func newSlotEnv(argNames []string, retCount uint32) *slotEnv {
	e := &slotEnv{
		locals: make(map[string]uint32),
		args:   make(map[string]uint32),
		rets:   make(map[string]uint32),
		errs:   make(map[string]uint32),
	}
	for i, name := range argNames {
		e.args[name] = uint32(i)
	}
	e.nextArg = uint32(len(argNames))

	for i := uint32(0); i < retCount; i++ {
		e.rets[strconv.FormatUint(uint64(i), 10)] = i
		// "value" aliases index 0, but only once ret_count >= 1.
		e.rets["value"] = 0
	}
	e.nextRet = retCount

	return e
}

func (e *slotEnv) resolveLocal(name string) uint32 {
	if idx, ok := e.locals[name]; ok {
		return idx
	}
	idx := e.nextLocal
	e.locals[name] = idx
	e.nextLocal++
	return idx
}

func (e *slotEnv) resolveArg(name string) uint32 {
	if idx, ok := e.args[name]; ok {
		return idx
	}
	idx := e.nextArg
	e.args[name] = idx
	e.nextArg++
	return idx
}

func (e *slotEnv) resolveReturn(name string) uint32 {
	if idx, ok := e.rets[name]; ok {
		return idx
	}
	idx := e.nextRet
	e.rets[name] = idx
	e.nextRet++
	return idx
}

func (e *slotEnv) resolveErr(name string) uint32 {
	if idx, ok := e.errs[name]; ok {
		return idx
	}
	idx := e.nextErr
	e.errs[name] = idx
	e.nextErr++
	return idx
}

// resolveTempLocal allocates a synthesized local named
// __tmp_<prefix>_<counter> and returns its slot.
func (e *slotEnv) resolveTempLocal(prefix string) ir.Slot {
	name := fmt.Sprintf("__tmp_%s_%d", prefix, e.tempCounter)
	e.tempCounter++
	return ir.Local(e.resolveLocal(name))
}

// resolveRef dispatches a parsed ref to the right namespace: the four
// reserved namespaces resolve within this function's slot env; any
// other namespace denotes a module-wide global.
func (e *slotEnv) resolveRef(mb *moduleBuilder, ref ast.RefPath) ir.Slot {
	switch ref.Namespace {
	case "local":
		return ir.Local(e.resolveLocal(ref.Name))
	case "arg":
		return ir.Arg(e.resolveArg(ref.Name))
	case "return":
		return ir.Ret(e.resolveReturn(ref.Name))
	case "err":
		return ir.Err(e.resolveErr(ref.Name))
	default:
		return ir.Global(mb.resolveGlobal(ref.Namespace, ref.Name))
	}
}
