// Package vm executes a compiled module: a single-threaded,
// cooperative interpreter with a second pre-decoded dispatch path
// (vm/jit.go) selectable per the IMP_NO_JIT environment convention.
package vm

import (
	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/values"
)

// foreignIDBase is where freshly minted foreign function
// handles start counting from.
const foreignIDBase = 1_000_000

type foreignFunc struct {
	module *ir.CompiledModule
	funcID uint32
}

// Config selects the VM's dispatch mode and any host integration.
type Config struct {
	// NoJIT forces the plain switch-dispatch interpreter for every
	// call, mirroring the IMP_NO_JIT environment convention.
	NoJIT bool
	// Print receives core::host::print output. Defaults to no-op if nil.
	Print func(string)
}

// VM runs one or more modules. It owns the foreign-function-handle
// side table and the pre-decoded step cache (vm/jit.go),
// both of which persist across the calls made during a single run.
type VM struct {
	cfg           Config
	foreign       map[uint32]foreignFunc
	nextForeignID uint32
	jit           *jitCache
}

// New constructs a VM ready to run a module via RunMain.
func New(cfg Config) *VM {
	if cfg.Print == nil {
		cfg.Print = func(string) {}
	}
	return &VM{
		cfg:           cfg,
		foreign:       make(map[uint32]foreignFunc),
		nextForeignID: foreignIDBase,
		jit:           newJITCache(),
	}
}

// RunMain loads mod's globals (recursively running its imports),
// executes its init function, and returns the resulting export
// snapshot. Use RunMainFull to also observe the init function's own
// return vector (the CLI's "returns: ..." line).
func (vm *VM) RunMain(mod *ir.CompiledModule) (map[string]values.Value, error) {
	_, exports, err := vm.RunMainFull(mod)
	return exports, err
}

// RunMainFull is RunMain plus the init function's return vector
// (written via core::ret::set / return::value at top level).
func (vm *VM) RunMainFull(mod *ir.CompiledModule) ([]values.Value, map[string]values.Value, error) {
	globals, err := vm.buildModuleGlobals(mod)
	if err != nil {
		return nil, nil, err
	}
	initFn := mod.Function(mod.InitFunc)
	if initFn == nil {
		return nil, nil, runtimeErrorf("module %q has no init function", mod.Name)
	}
	rets, err := vm.executeFunction(mod, initFn, nil, globals)
	if err != nil {
		return nil, nil, err
	}
	exports := make(map[string]values.Value, len(mod.Exports))
	g := *globals
	for _, e := range mod.Exports {
		if int(e.Slot) < len(g) {
			exports[e.Name] = g[e.Slot]
		} else {
			exports[e.Name] = values.NewNull()
		}
	}
	return rets, exports, nil
}

// buildModuleGlobals allocates mod's global vector, seats function
// handles, and recursively runs each import (own, fresh globals),
// binding every exported value (registering a foreign function handle
// for Func exports) into mod's globals.
func (vm *VM) buildModuleGlobals(mod *ir.CompiledModule) (*[]values.Value, error) {
	globals := make([]values.Value, mod.GlobalCount)
	for i := range globals {
		globals[i] = values.NewNull()
	}
	for _, fg := range mod.FunctionGlobals {
		if int(fg.Slot) < len(globals) {
			globals[fg.Slot] = values.NewFunc(fg.FuncID)
		}
	}

	for _, imp := range mod.Imports {
		impGlobals, err := vm.buildModuleGlobals(imp.Module)
		if err != nil {
			return nil, err
		}
		initFn := imp.Module.Function(imp.Module.InitFunc)
		if initFn == nil {
			return nil, runtimeErrorf("imported module %q has no init function", imp.Module.Name)
		}
		if _, err := vm.executeFunction(imp.Module, initFn, nil, impGlobals); err != nil {
			return nil, err
		}

		ig := *impGlobals
		exportVals := make(map[string]values.Value, len(imp.Module.Exports))
		for _, e := range imp.Module.Exports {
			if int(e.Slot) < len(ig) {
				exportVals[e.Name] = ig[e.Slot]
			} else {
				exportVals[e.Name] = values.NewNull()
			}
		}

		for _, eb := range imp.ExportToGlobal {
			val := exportVals[eb.Name]
			if val.Kind == values.KindFunc {
				id := vm.nextForeignID
				vm.nextForeignID++
				vm.foreign[id] = foreignFunc{module: imp.Module, funcID: val.Func}
				val = values.NewFunc(id)
			}
			if int(eb.Slot) < len(globals) {
				globals[eb.Slot] = val
			}
		}
	}

	return &globals, nil
}

// executeFunction runs one function to completion (through Exit, an
// uncaught throw, or a runtime error), returning its return vector.
func (vm *VM) executeFunction(mod *ir.CompiledModule, fn *ir.CompiledFunction, args []values.Value, globals *[]values.Value) ([]values.Value, error) {
	if vm.cfg.NoJIT {
		return vm.interpret(mod, fn, args, globals)
	}
	return vm.jit.execute(vm, mod, fn, args, globals)
}

// interpret is the plain switch-dispatch loop.
func (vm *VM) interpret(mod *ir.CompiledModule, fn *ir.CompiledFunction, args []values.Value, globals *[]values.Value) ([]values.Value, error) {
	f := newFrame(fn, args, globals)
	for {
		if f.pc < 0 || f.pc >= len(fn.Code) {
			return nil, runtimeErrorf("function %q: pc %d out of range", fn.Meta.Name, f.pc)
		}
		instr := fn.Code[f.pc]
		done, rets, err := vm.step(mod, f, instr)
		if err != nil {
			return nil, err
		}
		if done {
			return rets, nil
		}
	}
}

// step executes one instruction against f, advancing f.pc unless the
// instruction itself set it (Jump/Branch/handler dispatch). It
// returns done=true with the function's return vector once Exit is
// reached. Each opcode's logic lives in its own function in
// vm/ops.go; step is just the dispatch table, the same one vm/jit.go
// specializes per instruction at decode time.
func (vm *VM) step(mod *ir.CompiledModule, f *frame, instr ir.Instruction) (done bool, rets []values.Value, err error) {
	switch instr.Op {
	case ir.OpStoreConst:
		return opStoreConst(vm, mod, f, instr)
	case ir.OpMove:
		return opMove(vm, mod, f, instr)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return opBinaryArith(vm, mod, f, instr)
	case ir.OpEq:
		return opEq(vm, mod, f, instr)
	case ir.OpLt:
		return opLt(vm, mod, f, instr)
	case ir.OpJump:
		return opJump(vm, mod, f, instr)
	case ir.OpBranch:
		return opBranch(vm, mod, f, instr)
	case ir.OpInvoke:
		return opInvoke(vm, mod, f, instr)
	case ir.OpReturnSet:
		return opReturnSet(vm, mod, f, instr)
	case ir.OpExit:
		return opExit(vm, mod, f, instr)
	case ir.OpThrow:
		return opThrow(vm, mod, f, instr)
	case ir.OpTryPush:
		return opTryPush(vm, mod, f, instr)
	case ir.OpTryPop:
		return opTryPop(vm, mod, f, instr)
	case ir.OpObjNew:
		return opObjNew(vm, mod, f, instr)
	case ir.OpObjSet:
		return opObjSet(vm, mod, f, instr)
	case ir.OpObjGet:
		return opObjGet(vm, mod, f, instr)
	case ir.OpObjHas:
		return opObjHas(vm, mod, f, instr)
	case ir.OpStrConcat:
		return opStrConcat(vm, mod, f, instr)
	case ir.OpStrLen:
		return opStrLen(vm, mod, f, instr)
	case ir.OpHostPrint:
		return opHostPrint(vm, mod, f, instr)
	default:
		return false, nil, runtimeErrorf("unknown opcode %v", instr.Op)
	}
}

// tryThrow pops f's innermost try handler, if any, and returns the
// carried Error value along with whether a handler was found.
func (f *frame) tryThrow(code, msg string) (values.Value, bool, int) {
	pc, ok := f.popTry()
	return values.NewError(code, msg), ok, pc
}

// dispatch resolves a function handle to same-module or foreign
// invocation. Same-module calls share the caller's globals; foreign
// calls build a fresh globals vector for the foreign module and
// recurse against it, seeded only with its function handles (its
// init function does not run again, so top-level state it established
// is not replayed on foreign calls).
func (vm *VM) dispatch(mod *ir.CompiledModule, globals *[]values.Value, handle uint32, args []values.Value) ([]values.Value, error) {
	if fn := mod.Function(handle); fn != nil {
		return vm.executeFunction(mod, fn, args, globals)
	}
	if ff, ok := vm.foreign[handle]; ok {
		fn := ff.module.Function(ff.funcID)
		if fn == nil {
			return nil, runtimeErrorf("foreign function id %d not found in module %q", ff.funcID, ff.module.Name)
		}
		foreignGlobals := vm.freshForeignGlobals(ff.module)
		return vm.executeFunction(ff.module, fn, args, foreignGlobals)
	}
	return nil, runtimeErrorf("unknown function id %d", handle)
}

// freshForeignGlobals allocates a fresh globals vector for a foreign
// module, seating only its function handles. It deliberately skips
// running the module's imports and init function: a foreign call
// invokes one exported function against a clean slate, not the
// module's own established top-level state.
func (vm *VM) freshForeignGlobals(mod *ir.CompiledModule) *[]values.Value {
	globals := make([]values.Value, mod.GlobalCount)
	for i := range globals {
		globals[i] = values.NewNull()
	}
	for _, fg := range mod.FunctionGlobals {
		if int(fg.Slot) < len(globals) {
			globals[fg.Slot] = values.NewFunc(fg.FuncID)
		}
	}
	return &globals
}

// objectKeyText converts a runtime value to the textual map key used
// by core::obj::get/core::obj::has. Obj and Func keys are
// runtime errors.
func objectKeyText(v values.Value) (string, error) {
	switch v.Kind {
	case values.KindObj, values.KindFunc:
		return "", runtimeErrorf("object key cannot be an object or function handle")
	default:
		return values.TextConversion(v)
	}
}

// validateRetShape checks the return vector against fn's declared
// RetShape at Exit.
func validateRetShape(shape ir.RetShape, rets []values.Value) error {
	switch shape.Kind {
	case ir.RetAny:
		return nil
	case ir.RetScalar:
		if len(rets) != 1 {
			return runtimeErrorf("scalar return shape requires exactly one return value, got %d", len(rets))
		}
		return nil
	case ir.RetEither:
		if len(rets) != 1 {
			return runtimeErrorf("either return shape requires exactly one return value, got %d", len(rets))
		}
		if rets[0].Kind != values.KindStr {
			return runtimeErrorf("either(%v) return shape requires a string value", shape.Tags)
		}
		for _, tag := range shape.Tags {
			if tag == rets[0].Str {
				return nil
			}
		}
		return runtimeErrorf("return value %q is not one of either(%v)", rets[0].Str, shape.Tags)
	case ir.RetRecord:
		if len(rets) != 1 {
			return runtimeErrorf("record return shape requires exactly one return value, got %d", len(rets))
		}
		if rets[0].Kind != values.KindObj {
			return runtimeErrorf("record(%v) return shape requires an object value", shape.Tags)
		}
		for _, field := range shape.Tags {
			if _, ok := rets[0].Obj[field]; !ok {
				return runtimeErrorf("record(%v) return value missing field %q", shape.Tags, field)
			}
		}
		return nil
	default:
		return nil
	}
}

