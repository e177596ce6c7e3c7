package vm

import (
	"sync"

	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/values"
)

// jit.go implements the engine's second dispatch mode: a
// per-function table of pre-decoded step closures, cached by
// (module, function id) and re-used across calls, plus simple hotspot
// counters. Named "JIT" for marketing continuity, but it performs no
// native code generation — every step still runs through the same
// instruction semantics as the plain interpreter (vm.step).

type jitKey struct {
	module string
	funcID uint32
}

// stepExec is one pre-decoded instruction: its operands are already
// closed over, so running it costs a function-pointer call rather
// than a slice index plus a fresh switch dispatch. It has the same
// contract as vm.step: pc advancement (including Jump/Branch targets)
// is handled internally, not by the caller.
type stepExec func(vm *VM, mod *ir.CompiledModule, f *frame) (done bool, rets []values.Value, err error)

type compiledSteps struct {
	steps []stepExec
	hits  uint64
}

// jitCache holds the pre-decoded step tables built so far, and a
// hotspot counter per function used only for diagnostics (dump-ir
// style tooling can surface it; it has no effect on results).
type jitCache struct {
	mu    sync.Mutex
	funcs map[jitKey]*compiledSteps
}

func newJITCache() *jitCache {
	return &jitCache{funcs: make(map[jitKey]*compiledSteps)}
}

// execute runs fn via its pre-decoded step table, building the table
// on first use. Control flow (Jump/Branch/invoke-time handler
// resolution) is expressed by each step setting f.pc itself, the same
// contract vm.step uses.
func (c *jitCache) execute(vm *VM, mod *ir.CompiledModule, fn *ir.CompiledFunction, args []values.Value, globals *[]values.Value) ([]values.Value, error) {
	key := jitKey{module: mod.Name, funcID: fn.ID}

	c.mu.Lock()
	cs, ok := c.funcs[key]
	if !ok {
		cs = &compiledSteps{steps: decodeSteps(fn)}
		c.funcs[key] = cs
	}
	cs.hits++
	c.mu.Unlock()

	f := newFrame(fn, args, globals)
	for {
		if f.pc < 0 || f.pc >= len(cs.steps) {
			return nil, runtimeErrorf("function %q: pc %d out of range", fn.Meta.Name, f.pc)
		}
		exec := cs.steps[f.pc]
		done, rets, err := exec(vm, mod, f)
		if err != nil {
			return nil, err
		}
		if done {
			return rets, nil
		}
	}
}

// hotspotCount reports how many times fn's step table has been
// entered. execute does not consult it, and nothing in this repository
// calls it.
func (c *jitCache) hotspotCount(moduleName string, funcID uint32) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cs, ok := c.funcs[jitKey{module: moduleName, funcID: funcID}]; ok {
		return cs.hits
	}
	return 0
}

// decodeSteps builds one stepExec per instruction in fn.Code. Each
// closure is bound directly to the function implementing that
// instruction's opcode (vm/ops.go), with the instruction itself
// already closed over — a specialized function pointer per variant,
// not a single generic closure re-dispatching through step's switch on
// every call. Jump/Branch targets were resolved to absolute PCs by the
// compiler, so no further relinking is needed here.
func decodeSteps(fn *ir.CompiledFunction) []stepExec {
	steps := make([]stepExec, len(fn.Code))
	for i := range fn.Code {
		instr := fn.Code[i]
		switch instr.Op {
		case ir.OpStoreConst:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opStoreConst(vm, mod, f, instr)
			}
		case ir.OpMove:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opMove(vm, mod, f, instr)
			}
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opBinaryArith(vm, mod, f, instr)
			}
		case ir.OpEq:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opEq(vm, mod, f, instr)
			}
		case ir.OpLt:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opLt(vm, mod, f, instr)
			}
		case ir.OpJump:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opJump(vm, mod, f, instr)
			}
		case ir.OpBranch:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opBranch(vm, mod, f, instr)
			}
		case ir.OpInvoke:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opInvoke(vm, mod, f, instr)
			}
		case ir.OpReturnSet:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opReturnSet(vm, mod, f, instr)
			}
		case ir.OpExit:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opExit(vm, mod, f, instr)
			}
		case ir.OpThrow:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opThrow(vm, mod, f, instr)
			}
		case ir.OpTryPush:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opTryPush(vm, mod, f, instr)
			}
		case ir.OpTryPop:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opTryPop(vm, mod, f, instr)
			}
		case ir.OpObjNew:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opObjNew(vm, mod, f, instr)
			}
		case ir.OpObjSet:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opObjSet(vm, mod, f, instr)
			}
		case ir.OpObjGet:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opObjGet(vm, mod, f, instr)
			}
		case ir.OpObjHas:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opObjHas(vm, mod, f, instr)
			}
		case ir.OpStrConcat:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opStrConcat(vm, mod, f, instr)
			}
		case ir.OpStrLen:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opStrLen(vm, mod, f, instr)
			}
		case ir.OpHostPrint:
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return opHostPrint(vm, mod, f, instr)
			}
		default:
			op := instr.Op
			steps[i] = func(vm *VM, mod *ir.CompiledModule, f *frame) (bool, []values.Value, error) {
				return false, nil, runtimeErrorf("unknown opcode %v", op)
			}
		}
	}
	return steps
}
