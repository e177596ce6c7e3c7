package bytecode

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wudi/imp/ir"
)

type reader struct {
	data []byte
	pos  int
}

func (r *reader) byte(context string) (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, eof(context)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) take(n int, context string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, eof(context)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u16(context string) (uint16, error) {
	b, err := r.take(2, context)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32(context string) (uint32, error) {
	b, err := r.take(4, context)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64(context string) (uint64, error) {
	b, err := r.take(8, context)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) string(context string) (string, error) {
	n, err := r.u32(context)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n), context)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", invalidUTF8(context)
	}
	return string(b), nil
}

func (r *reader) slot(context string) (ir.Slot, error) {
	tag, err := r.byte(context + " slot kind")
	if err != nil {
		return ir.Slot{}, err
	}
	if tag > byte(ir.SlotErr) {
		return ir.Slot{}, invalidTag(context+" slot kind", tag)
	}
	idx, err := r.u32(context + " slot index")
	if err != nil {
		return ir.Slot{}, err
	}
	return ir.Slot{Kind: ir.SlotKind(tag), Index: idx}, nil
}

func (r *reader) constValue(context string) (ir.ConstValue, error) {
	tag, err := r.byte(context + " const tag")
	if err != nil {
		return ir.ConstValue{}, err
	}
	switch ir.ConstKind(tag) {
	case ir.ConstNull:
		return ir.NullConst(), nil
	case ir.ConstBool:
		b, err := r.byte(context + " const bool")
		if err != nil {
			return ir.ConstValue{}, err
		}
		return ir.BoolConst(b != 0), nil
	case ir.ConstNum:
		bits, err := r.u64(context + " const num")
		if err != nil {
			return ir.ConstValue{}, err
		}
		return ir.NumConst(math.Float64frombits(bits)), nil
	case ir.ConstStr:
		s, err := r.string(context + " const str")
		if err != nil {
			return ir.ConstValue{}, err
		}
		return ir.StrConst(s), nil
	default:
		return ir.ConstValue{}, invalidTag(context+" const tag", tag)
	}
}

func (r *reader) retShape(context string) (ir.RetShape, error) {
	tag, err := r.byte(context + " retshape tag")
	if err != nil {
		return ir.RetShape{}, err
	}
	switch ir.RetShapeKind(tag) {
	case ir.RetScalar:
		return ir.ScalarShape(), nil
	case ir.RetAny:
		return ir.AnyShape(), nil
	case ir.RetEither, ir.RetRecord:
		n, err := r.u32(context + " retshape tags")
		if err != nil {
			return ir.RetShape{}, err
		}
		tags := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			tag, err := r.string(context + " retshape tag entry")
			if err != nil {
				return ir.RetShape{}, err
			}
			tags = append(tags, tag)
		}
		if ir.RetShapeKind(tag) == ir.RetEither {
			return ir.EitherShape(tags), nil
		}
		return ir.RecordShape(tags), nil
	default:
		return ir.RetShape{}, invalidTag(context+" retshape tag", tag)
	}
}

func (r *reader) instruction() (ir.Instruction, error) {
	opByte, err := r.byte("instruction op")
	if err != nil {
		return ir.Instruction{}, err
	}
	op := ir.Op(opByte)
	instr := ir.Instruction{Op: op}

	switch op {
	case ir.OpStoreConst:
		if instr.Out, err = r.slot("store_const out"); err != nil {
			return instr, err
		}
		if instr.Const, err = r.constValue("store_const"); err != nil {
			return instr, err
		}
	case ir.OpMove:
		if instr.From, err = r.slot("move from"); err != nil {
			return instr, err
		}
		if instr.To, err = r.slot("move to"); err != nil {
			return instr, err
		}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpEq, ir.OpLt, ir.OpStrConcat:
		if instr.A, err = r.slot("binary a"); err != nil {
			return instr, err
		}
		if instr.B, err = r.slot("binary b"); err != nil {
			return instr, err
		}
		if instr.Out, err = r.slot("binary out"); err != nil {
			return instr, err
		}
	case ir.OpJump:
		pc, err := r.u32("jump pc")
		if err != nil {
			return instr, err
		}
		instr.PC = int(pc)
	case ir.OpBranch:
		if instr.Cond, err = r.slot("branch cond"); err != nil {
			return instr, err
		}
		pc, err := r.u32("branch then")
		if err != nil {
			return instr, err
		}
		pc2, err := r.u32("branch else")
		if err != nil {
			return instr, err
		}
		instr.PC, instr.PC2 = int(pc), int(pc2)
	case ir.OpInvoke:
		if instr.Fn, err = r.slot("invoke fn"); err != nil {
			return instr, err
		}
		n, err := r.u32("invoke args len")
		if err != nil {
			return instr, err
		}
		args := make([]ir.Slot, 0, n)
		for i := uint32(0); i < n; i++ {
			s, err := r.slot("invoke arg")
			if err != nil {
				return instr, err
			}
			args = append(args, s)
		}
		instr.Args = args
		if instr.Out, err = r.slot("invoke out"); err != nil {
			return instr, err
		}
	case ir.OpReturnSet:
		idx, err := r.u32("ret_set index")
		if err != nil {
			return instr, err
		}
		instr.RetIndex = idx
		if instr.Value, err = r.slot("ret_set value"); err != nil {
			return instr, err
		}
	case ir.OpExit, ir.OpTryPop:
		// no operands
	case ir.OpThrow:
		if instr.Code, err = r.string("throw code"); err != nil {
			return instr, err
		}
		if instr.Msg, err = r.string("throw msg"); err != nil {
			return instr, err
		}
	case ir.OpTryPush:
		pc, err := r.u32("try_push pc")
		if err != nil {
			return instr, err
		}
		instr.PC = int(pc)
	case ir.OpObjNew:
		if instr.Out, err = r.slot("obj_new out"); err != nil {
			return instr, err
		}
	case ir.OpObjSet:
		if instr.Obj, err = r.slot("obj_set obj"); err != nil {
			return instr, err
		}
		if instr.KeyText, err = r.string("obj_set key"); err != nil {
			return instr, err
		}
		if instr.Value, err = r.slot("obj_set value"); err != nil {
			return instr, err
		}
		if instr.Out, err = r.slot("obj_set out"); err != nil {
			return instr, err
		}
	case ir.OpObjGet, ir.OpObjHas:
		if instr.Obj, err = r.slot("obj_get obj"); err != nil {
			return instr, err
		}
		if instr.Key, err = r.slot("obj_get key"); err != nil {
			return instr, err
		}
		if instr.Out, err = r.slot("obj_get out"); err != nil {
			return instr, err
		}
	case ir.OpStrLen:
		if instr.Value, err = r.slot("str_len value"); err != nil {
			return instr, err
		}
		if instr.Out, err = r.slot("str_len out"); err != nil {
			return instr, err
		}
	case ir.OpHostPrint:
		if instr.Value, err = r.slot("host_print value"); err != nil {
			return instr, err
		}
	default:
		return instr, invalidTag("instruction op", opByte)
	}

	return instr, nil
}

func (r *reader) function() (*ir.CompiledFunction, error) {
	id, err := r.u32("function id")
	if err != nil {
		return nil, err
	}
	localCount, err := r.u32("function local_count")
	if err != nil {
		return nil, err
	}
	argCount, err := r.u32("function arg_count")
	if err != nil {
		return nil, err
	}
	retCount, err := r.u32("function ret_count")
	if err != nil {
		return nil, err
	}
	errCount, err := r.u32("function err_count")
	if err != nil {
		return nil, err
	}

	name, err := r.string("function meta name")
	if err != nil {
		return nil, err
	}
	metaArgCount, err := r.u32("function meta arg_count")
	if err != nil {
		return nil, err
	}
	metaRetCount, err := r.u32("function meta ret_count")
	if err != nil {
		return nil, err
	}
	retShape, err := r.retShape("function meta")
	if err != nil {
		return nil, err
	}

	codeLen, err := r.u32("function code length")
	if err != nil {
		return nil, err
	}
	code := make([]ir.Instruction, 0, codeLen)
	for i := uint32(0); i < codeLen; i++ {
		instr, err := r.instruction()
		if err != nil {
			return nil, err
		}
		code = append(code, instr)
	}

	return &ir.CompiledFunction{
		ID:         id,
		Code:       code,
		LocalCount: localCount,
		ArgCount:   argCount,
		RetCount:   retCount,
		ErrCount:   errCount,
		Meta: ir.FuncMeta{
			Name:     name,
			ArgCount: metaArgCount,
			RetCount: metaRetCount,
			RetShape: retShape,
		},
	}, nil
}

func (r *reader) importBinding() (*ir.ImportBinding, error) {
	path, err := r.string("import path")
	if err != nil {
		return nil, err
	}
	alias, err := r.string("import alias")
	if err != nil {
		return nil, err
	}
	n, err := r.u32("import export count")
	if err != nil {
		return nil, err
	}
	exports := make([]ir.ExportBinding, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.string("import export name")
		if err != nil {
			return nil, err
		}
		slot, err := r.u32("import export slot")
		if err != nil {
			return nil, err
		}
		exports = append(exports, ir.ExportBinding{Name: name, Slot: slot})
	}
	mod, err := r.module()
	if err != nil {
		return nil, err
	}
	return &ir.ImportBinding{Path: path, Alias: alias, Module: mod, ExportToGlobal: exports}, nil
}

func (r *reader) module() (*ir.CompiledModule, error) {
	name, err := r.string("module name")
	if err != nil {
		return nil, err
	}
	initFunc, err := r.u32("module init_func")
	if err != nil {
		return nil, err
	}

	fnCount, err := r.u32("module functions length")
	if err != nil {
		return nil, err
	}
	functions := make([]*ir.CompiledFunction, 0, fnCount)
	for i := uint32(0); i < fnCount; i++ {
		fn, err := r.function()
		if err != nil {
			return nil, err
		}
		functions = append(functions, fn)
	}

	fgCount, err := r.u32("module function_globals length")
	if err != nil {
		return nil, err
	}
	funcGlobals := make([]ir.FuncGlobal, 0, fgCount)
	for i := uint32(0); i < fgCount; i++ {
		slot, err := r.u32("function_globals slot")
		if err != nil {
			return nil, err
		}
		funcID, err := r.u32("function_globals func_id")
		if err != nil {
			return nil, err
		}
		funcGlobals = append(funcGlobals, ir.FuncGlobal{Slot: slot, FuncID: funcID})
	}

	expCount, err := r.u32("module exports length")
	if err != nil {
		return nil, err
	}
	exports := make([]ir.Export, 0, expCount)
	for i := uint32(0); i < expCount; i++ {
		name, err := r.string("export name")
		if err != nil {
			return nil, err
		}
		slot, err := r.u32("export slot")
		if err != nil {
			return nil, err
		}
		exports = append(exports, ir.Export{Name: name, Slot: slot})
	}

	impCount, err := r.u32("module imports length")
	if err != nil {
		return nil, err
	}
	imports := make([]*ir.ImportBinding, 0, impCount)
	for i := uint32(0); i < impCount; i++ {
		imp, err := r.importBinding()
		if err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}

	globalCount, err := r.u32("module global_count")
	if err != nil {
		return nil, err
	}

	return &ir.CompiledModule{
		Name:            name,
		InitFunc:        initFunc,
		Functions:       functions,
		FunctionGlobals: funcGlobals,
		Exports:         exports,
		Imports:         imports,
		GlobalCount:     globalCount,
	}, nil
}
