package vm

import (
	"github.com/wudi/imp/ir"
	"github.com/wudi/imp/values"
)

// ops.go holds one function per instruction variant, each responsible
// for its own operand fetch/store and pc advancement. vm.step
// dispatches to these by Op for the plain interpreter; vm/jit.go binds
// each pre-decoded step directly to the matching function, so a
// function's step table holds one specialized closure per instruction
// rather than a single generic one that re-dispatches through step's
// switch on every call.

func opStoreConst(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	if err := f.set(instr.Out, values.FromConst(instr.Const)); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opMove(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	v, err := f.get(instr.From)
	if err != nil {
		return false, nil, err
	}
	if err := f.set(instr.To, v); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opBinaryArith(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	a, err := f.get(instr.A)
	if err != nil {
		return false, nil, err
	}
	b, err := f.get(instr.B)
	if err != nil {
		return false, nil, err
	}
	an, err := a.AsNum()
	if err != nil {
		return false, nil, runtimeErrorf("%s: %v", instr.Op, err)
	}
	bn, err := b.AsNum()
	if err != nil {
		return false, nil, runtimeErrorf("%s: %v", instr.Op, err)
	}
	var result values.Value
	switch instr.Op {
	case ir.OpAdd:
		result = values.NewNum(an + bn)
	case ir.OpSub:
		result = values.NewNum(an - bn)
	case ir.OpMul:
		result = values.NewNum(an * bn)
	case ir.OpDiv:
		if bn == 0 {
			thrown, caught, handlerPC := f.tryThrow("div_zero", "division by zero")
			if caught {
				if err := f.set(ir.Err(0), thrown); err != nil {
					return false, nil, err
				}
				f.pc = handlerPC
				return false, nil, nil
			}
			return false, nil, &ThrownError{Code: "div_zero", Msg: "division by zero"}
		}
		result = values.NewNum(an / bn)
	}
	if err := f.set(instr.Out, result); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opEq(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	a, err := f.get(instr.A)
	if err != nil {
		return false, nil, err
	}
	b, err := f.get(instr.B)
	if err != nil {
		return false, nil, err
	}
	if err := f.set(instr.Out, values.NewBool(a.Equal(b))); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opLt(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	a, err := f.get(instr.A)
	if err != nil {
		return false, nil, err
	}
	b, err := f.get(instr.B)
	if err != nil {
		return false, nil, err
	}
	an, err := a.AsNum()
	if err != nil {
		return false, nil, runtimeErrorf("Lt: %v", err)
	}
	bn, err := b.AsNum()
	if err != nil {
		return false, nil, runtimeErrorf("Lt: %v", err)
	}
	if err := f.set(instr.Out, values.NewBool(an < bn)); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opJump(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	f.pc = instr.PC
	return false, nil, nil
}

func opBranch(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	cond, err := f.get(instr.Cond)
	if err != nil {
		return false, nil, err
	}
	if cond.Truthy() {
		f.pc = instr.PC
	} else {
		f.pc = instr.PC2
	}
	return false, nil, nil
}

func opInvoke(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	fnVal, err := f.get(instr.Fn)
	if err != nil {
		return false, nil, err
	}
	if fnVal.Kind != values.KindFunc {
		return false, nil, runtimeErrorf("invoke: slot does not hold a function handle")
	}
	callArgs := make([]values.Value, len(instr.Args))
	for i, a := range instr.Args {
		v, err := f.get(a)
		if err != nil {
			return false, nil, err
		}
		callArgs[i] = v
	}

	retVec, callErr := vm.dispatch(mod, f.globals, fnVal.Func, callArgs)
	if callErr != nil {
		thrown, ok := callErr.(*ThrownError)
		if !ok {
			return false, nil, callErr
		}
		ev := values.NewError(thrown.Code, thrown.Msg)
		handlerPC, caught := f.popTry()
		if !caught {
			return false, nil, thrown
		}
		if err := f.set(ir.Err(0), ev); err != nil {
			return false, nil, err
		}
		f.pc = handlerPC
		return false, nil, nil
	}
	var out values.Value
	if len(retVec) > 0 {
		out = retVec[0]
	} else {
		out = values.NewNull()
	}
	if err := f.set(instr.Out, out); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opReturnSet(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	v, err := f.get(instr.Value)
	if err != nil {
		return false, nil, err
	}
	if err := f.set(ir.Ret(instr.RetIndex), v); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opExit(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	if err := validateRetShape(f.fn.Meta.RetShape, f.returns); err != nil {
		return false, nil, err
	}
	return true, append([]values.Value(nil), f.returns...), nil
}

func opThrow(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	thrown, caught, handlerPC := f.tryThrow(instr.Code, instr.Msg)
	if caught {
		if err := f.set(ir.Err(0), thrown); err != nil {
			return false, nil, err
		}
		f.pc = handlerPC
		return false, nil, nil
	}
	return false, nil, &ThrownError{Code: instr.Code, Msg: instr.Msg}
}

func opTryPush(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	f.pushTry(instr.PC)
	f.pc++
	return false, nil, nil
}

func opTryPop(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	f.popTry()
	f.pc++
	return false, nil, nil
}

func opObjNew(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	if err := f.set(instr.Out, values.NewObj(make(map[string]values.Value))); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opObjSet(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	obj, err := f.get(instr.Obj)
	if err != nil {
		return false, nil, err
	}
	if obj.Kind != values.KindObj {
		return false, nil, runtimeErrorf("obj::set: target is not an object")
	}
	val, err := f.get(instr.Value)
	if err != nil {
		return false, nil, err
	}
	next := make(map[string]values.Value, len(obj.Obj)+1)
	for k, v := range obj.Obj {
		next[k] = v
	}
	next[instr.KeyText] = val
	if err := f.set(instr.Out, values.NewObj(next)); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opObjGet(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	obj, err := f.get(instr.Obj)
	if err != nil {
		return false, nil, err
	}
	if obj.Kind != values.KindObj {
		return false, nil, runtimeErrorf("obj::get: target is not an object")
	}
	keyVal, err := f.get(instr.Key)
	if err != nil {
		return false, nil, err
	}
	key, err := objectKeyText(keyVal)
	if err != nil {
		return false, nil, err
	}
	result, ok := obj.Obj[key]
	if !ok {
		result = values.NewNull()
	}
	if err := f.set(instr.Out, result); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opObjHas(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	obj, err := f.get(instr.Obj)
	if err != nil {
		return false, nil, err
	}
	if obj.Kind != values.KindObj {
		return false, nil, runtimeErrorf("obj::has: target is not an object")
	}
	keyVal, err := f.get(instr.Key)
	if err != nil {
		return false, nil, err
	}
	key, err := objectKeyText(keyVal)
	if err != nil {
		return false, nil, err
	}
	_, ok := obj.Obj[key]
	if err := f.set(instr.Out, values.NewBool(ok)); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opStrConcat(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	a, err := f.get(instr.A)
	if err != nil {
		return false, nil, err
	}
	b, err := f.get(instr.B)
	if err != nil {
		return false, nil, err
	}
	as, err := values.TextConversion(a)
	if err != nil {
		return false, nil, runtimeErrorf("str::concat: %v", err)
	}
	bs, err := values.TextConversion(b)
	if err != nil {
		return false, nil, runtimeErrorf("str::concat: %v", err)
	}
	if err := f.set(instr.Out, values.NewStr(as+bs)); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opStrLen(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	v, err := f.get(instr.Value)
	if err != nil {
		return false, nil, err
	}
	s, err := values.TextConversion(v)
	if err != nil {
		return false, nil, runtimeErrorf("str::len: %v", err)
	}
	n := 0
	for range s {
		n++
	}
	if err := f.set(instr.Out, values.NewNum(float64(n))); err != nil {
		return false, nil, err
	}
	f.pc++
	return false, nil, nil
}

func opHostPrint(vm *VM, mod *ir.CompiledModule, f *frame, instr ir.Instruction) (bool, []values.Value, error) {
	v, err := f.get(instr.Value)
	if err != nil {
		return false, nil, err
	}
	text, err := values.TextConversion(v)
	if err != nil {
		return false, nil, runtimeErrorf("host::print: %v", err)
	}
	vm.cfg.Print(text)
	f.pc++
	return false, nil, nil
}
