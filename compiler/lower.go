package compiler

import (
	"sort"
	"strings"

	"github.com/wudi/imp/ast"
	"github.com/wudi/imp/ir"
)

// pendingPatch records a placeholder PC that must be rewritten once
// every core::label in this function has been seen (two-pass label
// handling).
type pendingPatch struct {
	instrIndex int
	field      int // 1 = PC, 2 = PC2
	label      string
	line       int
}

// functionCompiler lowers one function body (or the init body) into a
// flat instruction array, threading a slot env and the module-wide
// global allocator through every call.
type functionCompiler struct {
	mb      *moduleBuilder
	env     *slotEnv
	code    []ir.Instruction
	labels  map[string]int
	pending []pendingPatch
}

func newFunctionCompiler(mb *moduleBuilder, env *slotEnv) *functionCompiler {
	return &functionCompiler{mb: mb, env: env, labels: make(map[string]int)}
}

func (fc *functionCompiler) emit(instr ir.Instruction) int {
	fc.code = append(fc.code, instr)
	return len(fc.code) - 1
}

func (fc *functionCompiler) refArg(c *ast.Call, key string) (ir.Slot, error) {
	ref, err := getRefArg(c, key)
	if err != nil {
		return ir.Slot{}, err
	}
	return fc.env.resolveRef(fc.mb, ref), nil
}

// atomToSlot resolves a key's value to a runtime slot: a ref resolves
// directly, while a literal atom is materialized into a fresh temp
// local holding a StoreConst of that value (used by obj::get/has's key
// and str::concat/len's operands).
func (fc *functionCompiler) atomToSlot(c *ast.Call, key, tempPrefix string) (ir.Slot, error) {
	a, ok := c.Arg(key)
	if !ok {
		return ir.Slot{}, errf(c.Line, "%s:: call missing required argument %q", c.Target.Name, key)
	}
	if a.Kind == ast.AtomRef {
		return fc.env.resolveRef(fc.mb, a.Ref), nil
	}
	tmp := fc.env.resolveTempLocal(tempPrefix)
	fc.emit(ir.Instruction{Op: ir.OpStoreConst, Out: tmp, Const: atomToConstValue(a)})
	return tmp, nil
}

func (fc *functionCompiler) lowerCall(c *ast.Call) error {
	if !c.Target.IsCoreTarget() {
		return fc.lowerImplicitInvoke(c)
	}

	switch c.Target.Name {
	case "const":
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		val, ok := c.Arg("value")
		if !ok {
			return errf(c.Line, "core::const missing required argument \"value\"")
		}
		if val.Kind == ast.AtomRef {
			return errf(c.Line, "core::const value cannot be a ref; use core::mov")
		}
		fc.emit(ir.Instruction{Op: ir.OpStoreConst, Out: out, Const: atomToConstValue(val)})
		return nil

	case "mov":
		from, err := fc.refArg(c, "from")
		if err != nil {
			return err
		}
		to, err := fc.refArg(c, "to")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpMove, From: from, To: to})
		return nil

	case "add", "sub", "mul", "div", "eq", "lt":
		a, err := fc.refArg(c, "a")
		if err != nil {
			return err
		}
		b, err := fc.refArg(c, "b")
		if err != nil {
			return err
		}
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: binaryOp(c.Target.Name), A: a, B: b, Out: out})
		return nil

	case "label":
		name, err := getStringArg(c, "name")
		if err != nil {
			return err
		}
		fc.labels[name] = len(fc.code)
		return nil

	case "jump":
		target, err := getStringArg(c, "target")
		if err != nil {
			return err
		}
		idx := fc.emit(ir.Instruction{Op: ir.OpJump})
		fc.pending = append(fc.pending, pendingPatch{instrIndex: idx, field: 1, label: target, line: c.Line})
		return nil

	case "br":
		cond, err := fc.refArg(c, "cond")
		if err != nil {
			return err
		}
		thenLabel, err := getStringArg(c, "then")
		if err != nil {
			return err
		}
		elseLabel, err := getStringArg(c, "else")
		if err != nil {
			return err
		}
		idx := fc.emit(ir.Instruction{Op: ir.OpBranch, Cond: cond})
		fc.pending = append(fc.pending, pendingPatch{instrIndex: idx, field: 1, label: thenLabel, line: c.Line})
		fc.pending = append(fc.pending, pendingPatch{instrIndex: idx, field: 2, label: elseLabel, line: c.Line})
		return nil

	case "invoke":
		fn, err := fc.refArg(c, "fn")
		if err != nil {
			return err
		}
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		args, err := collectInvokeArgs(fc, c)
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpInvoke, Fn: fn, Args: args, Out: out})
		return nil

	case "ret::set":
		slotAtom, ok := c.Arg("slot")
		if !ok {
			return errf(c.Line, "core::ret::set missing required argument \"slot\"")
		}
		n, err := atomAsNumber(slotAtom)
		if err != nil {
			return errf(c.Line, "core::ret::set slot: %s", err)
		}
		value, err := fc.refArg(c, "value")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpReturnSet, RetIndex: uint32(n), Value: value})
		return nil

	case "exit":
		fc.emit(ir.Instruction{Op: ir.OpExit})
		return nil

	case "throw":
		code, err := getStringArg(c, "code")
		if err != nil {
			return err
		}
		msg, err := getStringArg(c, "msg")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpThrow, Code: code, Msg: msg})
		return nil

	case "try::push":
		handler, err := getStringArg(c, "handler")
		if err != nil {
			return err
		}
		idx := fc.emit(ir.Instruction{Op: ir.OpTryPush})
		fc.pending = append(fc.pending, pendingPatch{instrIndex: idx, field: 1, label: handler, line: c.Line})
		return nil

	case "try::pop":
		fc.emit(ir.Instruction{Op: ir.OpTryPop})
		return nil

	case "obj::new":
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpObjNew, Out: out})
		return nil

	case "obj::set":
		obj, err := fc.refArg(c, "obj")
		if err != nil {
			return err
		}
		keyAtom, ok := c.Arg("key")
		if !ok {
			return errf(c.Line, "core::obj::set missing required argument \"key\"")
		}
		keyText, err := atomAsString(keyAtom)
		if err != nil {
			return errf(c.Line, "core::obj::set key must be a literal value: %s", err)
		}
		value, err := fc.refArg(c, "value")
		if err != nil {
			return err
		}
		out := obj
		if _, ok := c.Arg("out"); ok {
			out, err = fc.refArg(c, "out")
			if err != nil {
				return err
			}
		}
		fc.emit(ir.Instruction{Op: ir.OpObjSet, Obj: obj, KeyText: keyText, Value: value, Out: out})
		return nil

	case "obj::get", "obj::has":
		obj, err := fc.refArg(c, "obj")
		if err != nil {
			return err
		}
		key, err := fc.atomToSlot(c, "key", "key")
		if err != nil {
			return err
		}
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		op := ir.OpObjGet
		if c.Target.Name == "obj::has" {
			op = ir.OpObjHas
		}
		fc.emit(ir.Instruction{Op: op, Obj: obj, Key: key, Out: out})
		return nil

	case "str::concat":
		a, err := fc.atomToSlot(c, "a", "str")
		if err != nil {
			return err
		}
		b, err := fc.atomToSlot(c, "b", "str")
		if err != nil {
			return err
		}
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpStrConcat, A: a, B: b, Out: out})
		return nil

	case "str::len":
		value, err := fc.atomToSlot(c, "value", "str")
		if err != nil {
			return err
		}
		out, err := fc.refArg(c, "out")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpStrLen, Value: value, Out: out})
		return nil

	case "host::print":
		key := "slot"
		if _, ok := c.Arg("slot"); !ok {
			key = "value"
		}
		value, err := fc.atomToSlot(c, key, "print")
		if err != nil {
			return err
		}
		fc.emit(ir.Instruction{Op: ir.OpHostPrint, Value: value})
		return nil

	default:
		return errf(c.Line, "unknown core target %q", c.Target.Name)
	}
}

func binaryOp(name string) ir.Op {
	switch name {
	case "add":
		return ir.OpAdd
	case "sub":
		return ir.OpSub
	case "mul":
		return ir.OpMul
	case "div":
		return ir.OpDiv
	case "eq":
		return ir.OpEq
	case "lt":
		return ir.OpLt
	default:
		return ir.OpAdd
	}
}

func (fc *functionCompiler) lowerImplicitInvoke(c *ast.Call) error {
	fn := ir.Global(fc.mb.resolveGlobal(c.Target.Namespace, c.Target.Name))

	args, err := collectInvokeArgs(fc, c)
	if err != nil {
		return err
	}

	var out ir.Slot
	if _, ok := c.Arg("out"); ok {
		out, err = fc.refArg(c, "out")
		if err != nil {
			return err
		}
	} else {
		out = fc.env.resolveTempLocal("invoke_out")
	}

	fc.emit(ir.Instruction{Op: ir.OpInvoke, Fn: fn, Args: args, Out: out})
	return nil
}

// collectInvokeArgs resolves an invoke's arguments either from a CSV
// "args" list of refs, or from argN-keyed ref arguments sorted
// lexicographically.
func collectInvokeArgs(fc *functionCompiler, c *ast.Call) ([]ir.Slot, error) {
	if raw, ok := c.Arg("args"); ok {
		text, err := atomAsString(raw)
		if err != nil {
			return nil, errf(c.Line, "invoke args: %s", err)
		}
		var slots []ir.Slot
		for _, name := range ir.ParseCSV(text) {
			ref, ok := ast.ParseRefPath(name)
			if !ok {
				return nil, errf(c.Line, "invoke args entry %q is not a namespace::name ref", name)
			}
			slots = append(slots, fc.env.resolveRef(fc.mb, ref))
		}
		return slots, nil
	}

	var keys []string
	for _, a := range c.Args {
		if strings.HasPrefix(a.Key, "arg") {
			keys = append(keys, a.Key)
		}
	}
	sort.Strings(keys)

	var slots []ir.Slot
	for _, key := range keys {
		a, _ := c.Arg(key)
		if a.Kind != ast.AtomRef {
			return nil, errf(c.Line, "invoke argument %q must be a ref", key)
		}
		slots = append(slots, fc.env.resolveRef(fc.mb, a.Ref))
	}
	return slots, nil
}
