package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/wudi/imp/bytecode"
	"github.com/wudi/imp/ir"
)

var dumpIRCommand = &cli.Command{
	Name:      "dump-ir",
	Usage:     "print the compiled instruction listing for a .imp or .impc file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "strict-bytecode",
			Usage: "accepted for compatibility; decode is always strict",
		},
	},
	Action: dumpIRAction,
}

func dumpIRAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("dump-ir: missing file argument")
	}

	mod, err := loadModule(path)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	fmt.Printf("module %q (dump-ir run %s)\n", mod.Name, runID)
	fmt.Printf("globals: %d  functions: %d  exports: %d  imports: %d\n",
		mod.GlobalCount, len(mod.Functions), len(mod.Exports), len(mod.Imports))

	for _, fn := range mod.Functions {
		dumpFunction(fn)
	}

	if encoded, err := bytecode.Encode(mod); err == nil {
		fmt.Printf("encoded size: %s\n", humanize.Bytes(uint64(len(encoded))))
	}
	return nil
}

func dumpFunction(fn *ir.CompiledFunction) {
	fmt.Printf("\nfunc #%d %q  args=%d ret=%d locals=%d errs=%d retshape=%s\n",
		fn.ID, fn.Meta.Name, fn.ArgCount, fn.RetCount, fn.LocalCount, fn.ErrCount, fn.Meta.RetShape)
	for pc, instr := range fn.Code {
		fmt.Printf("  %4d  %s\n", pc, describeInstruction(instr))
	}
}

func describeInstruction(instr ir.Instruction) string {
	switch instr.Op {
	case ir.OpStoreConst:
		return fmt.Sprintf("StoreConst %s <- %v", instr.Out, instr.Const)
	case ir.OpMove:
		return fmt.Sprintf("Move %s <- %s", instr.To, instr.From)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpEq, ir.OpLt, ir.OpStrConcat:
		return fmt.Sprintf("%s %s <- %s, %s", instr.Op, instr.Out, instr.A, instr.B)
	case ir.OpJump:
		return fmt.Sprintf("Jump %d", instr.PC)
	case ir.OpBranch:
		return fmt.Sprintf("Branch %s then=%d else=%d", instr.Cond, instr.PC, instr.PC2)
	case ir.OpInvoke:
		return fmt.Sprintf("Invoke %s(%v) -> %s", instr.Fn, instr.Args, instr.Out)
	case ir.OpReturnSet:
		return fmt.Sprintf("ReturnSet ret:%d <- %s", instr.RetIndex, instr.Value)
	case ir.OpExit:
		return "Exit"
	case ir.OpThrow:
		return fmt.Sprintf("Throw %s %q", instr.Code, instr.Msg)
	case ir.OpTryPush:
		return fmt.Sprintf("TryPush handler=%d", instr.PC)
	case ir.OpTryPop:
		return "TryPop"
	case ir.OpObjNew:
		return fmt.Sprintf("ObjNew %s", instr.Out)
	case ir.OpObjSet:
		return fmt.Sprintf("ObjSet %s[%q] = %s -> %s", instr.Obj, instr.KeyText, instr.Value, instr.Out)
	case ir.OpObjGet, ir.OpObjHas:
		return fmt.Sprintf("%s %s[%s] -> %s", instr.Op, instr.Obj, instr.Key, instr.Out)
	case ir.OpStrLen:
		return fmt.Sprintf("StrLen %s -> %s", instr.Value, instr.Out)
	case ir.OpHostPrint:
		return fmt.Sprintf("HostPrint %s", instr.Value)
	default:
		return instr.Op.String()
	}
}
