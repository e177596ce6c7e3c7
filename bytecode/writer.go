package bytecode

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/wudi/imp/ir"
)

type writer struct {
	buf bytes.Buffer
}

func (w *writer) byte(b byte) { w.buf.WriteByte(b) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) bytes(b []byte) { w.buf.Write(b) }

func (w *writer) string(context, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return overflow(context)
	}
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
	return nil
}

func (w *writer) slot(s ir.Slot) {
	w.byte(byte(s.Kind))
	w.u32(s.Index)
}

func (w *writer) constValue(c ir.ConstValue) error {
	w.byte(byte(c.Kind))
	switch c.Kind {
	case ir.ConstBool:
		if c.Bool {
			w.byte(1)
		} else {
			w.byte(0)
		}
	case ir.ConstNum:
		w.u64(math.Float64bits(c.Num))
	case ir.ConstStr:
		return w.string("const string", c.Str)
	}
	return nil
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) retShape(r ir.RetShape) error {
	w.byte(byte(r.Kind))
	switch r.Kind {
	case ir.RetEither, ir.RetRecord:
		w.u32(uint32(len(r.Tags)))
		for _, tag := range r.Tags {
			if err := w.string("retshape tag", tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) instruction(instr ir.Instruction) error {
	w.byte(byte(instr.Op))
	switch instr.Op {
	case ir.OpStoreConst:
		w.slot(instr.Out)
		if err := w.constValue(instr.Const); err != nil {
			return err
		}
	case ir.OpMove:
		w.slot(instr.From)
		w.slot(instr.To)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpEq, ir.OpLt, ir.OpStrConcat:
		w.slot(instr.A)
		w.slot(instr.B)
		w.slot(instr.Out)
	case ir.OpJump:
		w.u32(uint32(instr.PC))
	case ir.OpBranch:
		w.slot(instr.Cond)
		w.u32(uint32(instr.PC))
		w.u32(uint32(instr.PC2))
	case ir.OpInvoke:
		w.slot(instr.Fn)
		w.u32(uint32(len(instr.Args)))
		for _, a := range instr.Args {
			w.slot(a)
		}
		w.slot(instr.Out)
	case ir.OpReturnSet:
		w.u32(instr.RetIndex)
		w.slot(instr.Value)
	case ir.OpExit, ir.OpTryPop:
		// no operands
	case ir.OpThrow:
		if err := w.string("throw code", instr.Code); err != nil {
			return err
		}
		if err := w.string("throw msg", instr.Msg); err != nil {
			return err
		}
	case ir.OpTryPush:
		w.u32(uint32(instr.PC))
	case ir.OpObjNew:
		w.slot(instr.Out)
	case ir.OpObjSet:
		w.slot(instr.Obj)
		if err := w.string("obj::set key", instr.KeyText); err != nil {
			return err
		}
		w.slot(instr.Value)
		w.slot(instr.Out)
	case ir.OpObjGet, ir.OpObjHas:
		w.slot(instr.Obj)
		w.slot(instr.Key)
		w.slot(instr.Out)
	case ir.OpStrLen:
		w.slot(instr.Value)
		w.slot(instr.Out)
	case ir.OpHostPrint:
		w.slot(instr.Value)
	}
	return nil
}

func (w *writer) function(fn *ir.CompiledFunction) error {
	w.u32(fn.ID)
	w.u32(fn.LocalCount)
	w.u32(fn.ArgCount)
	w.u32(fn.RetCount)
	w.u32(fn.ErrCount)

	if err := w.string("function meta name", fn.Meta.Name); err != nil {
		return err
	}
	w.u32(fn.Meta.ArgCount)
	w.u32(fn.Meta.RetCount)
	if err := w.retShape(fn.Meta.RetShape); err != nil {
		return err
	}

	if uint64(len(fn.Code)) > math.MaxUint32 {
		return overflow("function code")
	}
	w.u32(uint32(len(fn.Code)))
	for _, instr := range fn.Code {
		if err := w.instruction(instr); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) importBinding(b *ir.ImportBinding) error {
	if err := w.string("import path", b.Path); err != nil {
		return err
	}
	if err := w.string("import alias", b.Alias); err != nil {
		return err
	}
	w.u32(uint32(len(b.ExportToGlobal)))
	for _, e := range b.ExportToGlobal {
		if err := w.string("import export name", e.Name); err != nil {
			return err
		}
		w.u32(e.Slot)
	}
	return w.module(b.Module)
}

func (w *writer) module(m *ir.CompiledModule) error {
	if err := w.string("module name", m.Name); err != nil {
		return err
	}
	w.u32(m.InitFunc)

	w.u32(uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		if err := w.function(fn); err != nil {
			return err
		}
	}

	w.u32(uint32(len(m.FunctionGlobals)))
	for _, fg := range m.FunctionGlobals {
		w.u32(fg.Slot)
		w.u32(fg.FuncID)
	}

	w.u32(uint32(len(m.Exports)))
	for _, e := range m.Exports {
		if err := w.string("export name", e.Name); err != nil {
			return err
		}
		w.u32(e.Slot)
	}

	w.u32(uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		if err := w.importBinding(imp); err != nil {
			return err
		}
	}

	w.u32(m.GlobalCount)
	return nil
}
