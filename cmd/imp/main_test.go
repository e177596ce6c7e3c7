package main

import (
	"testing"

	"github.com/wudi/imp/ir"
)

func TestOutputPathReplacesExtension(t *testing.T) {
	cases := map[string]string{
		"prog.imp":       "prog.impc",
		"dir/prog.imp":   "dir/prog.impc",
		"noext":          "noext.impc",
		"a.b.imp":        "a.b.impc",
	}
	for in, want := range cases {
		if got := outputPath(in); got != want {
			t.Fatalf("outputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribeInstructionCoversEveryOp(t *testing.T) {
	instrs := []ir.Instruction{
		{Op: ir.OpStoreConst, Out: ir.Local(0), Const: ir.NumConst(1)},
		{Op: ir.OpMove, From: ir.Local(0), To: ir.Local(1)},
		{Op: ir.OpAdd, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpSub, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpMul, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpDiv, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpEq, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpLt, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpJump, PC: 3},
		{Op: ir.OpBranch, Cond: ir.Local(0), PC: 1, PC2: 2},
		{Op: ir.OpInvoke, Fn: ir.Global(0), Args: []ir.Slot{ir.Local(0)}, Out: ir.Local(1)},
		{Op: ir.OpReturnSet, RetIndex: 0, Value: ir.Local(0)},
		{Op: ir.OpExit},
		{Op: ir.OpThrow, Code: "boom", Msg: "kaboom"},
		{Op: ir.OpTryPush, PC: 5},
		{Op: ir.OpTryPop},
		{Op: ir.OpObjNew, Out: ir.Local(0)},
		{Op: ir.OpObjSet, Obj: ir.Local(0), KeyText: "k", Value: ir.Local(1), Out: ir.Local(0)},
		{Op: ir.OpObjGet, Obj: ir.Local(0), Key: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpObjHas, Obj: ir.Local(0), Key: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpStrConcat, A: ir.Local(0), B: ir.Local(1), Out: ir.Local(2)},
		{Op: ir.OpStrLen, Value: ir.Local(0), Out: ir.Local(1)},
		{Op: ir.OpHostPrint, Value: ir.Local(0)},
	}
	for _, instr := range instrs {
		if s := describeInstruction(instr); s == "" {
			t.Fatalf("describeInstruction(%v) returned empty string", instr.Op)
		}
	}
}
