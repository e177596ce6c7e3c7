package ir

import "fmt"

// RetShapeKind tags a RetShape's constraint form.
type RetShapeKind byte

const (
	RetScalar RetShapeKind = 0
	RetEither RetShapeKind = 1
	RetRecord RetShapeKind = 2
	RetAny    RetShapeKind = 3
)

// RetShape is the declared structural constraint on a function's
// return vector, validated at Exit. Tags holds the either()
// members or the record() field names; it is empty for Scalar/Any.
type RetShape struct {
	Kind RetShapeKind
	Tags []string
}

func ScalarShape() RetShape { return RetShape{Kind: RetScalar} }
func AnyShape() RetShape    { return RetShape{Kind: RetAny} }
func EitherShape(tags []string) RetShape {
	return RetShape{Kind: RetEither, Tags: tags}
}
func RecordShape(fields []string) RetShape {
	return RetShape{Kind: RetRecord, Tags: fields}
}

func (r RetShape) String() string {
	switch r.Kind {
	case RetScalar:
		return "scalar"
	case RetAny:
		return "any"
	case RetEither:
		return fmt.Sprintf("either(%v)", r.Tags)
	case RetRecord:
		return fmt.Sprintf("record(%v)", r.Tags)
	default:
		return "unknown"
	}
}

// FuncMeta carries display metadata alongside a CompiledFunction's
// code, separated out because the bytecode codec serializes it as its
// own record.
type FuncMeta struct {
	Name     string
	ArgCount uint32
	RetCount uint32
	RetShape RetShape
}

// CompiledFunction is one lowered function body: its code and the
// sizes of its four per-invocation vectors, plus display metadata.
type CompiledFunction struct {
	ID         uint32
	Code       []Instruction
	LocalCount uint32
	ArgCount   uint32
	RetCount   uint32
	ErrCount   uint32
	Meta       FuncMeta
}

// ImportBinding describes one core::import: where the imported module
// came from, what it's aliased as in this module, the compiled module
// itself, and where each of its exports is bound in this module's
// globals.
type ImportBinding struct {
	Path           string
	Alias          string
	Module         *CompiledModule
	ExportToGlobal []ExportBinding
}

// ExportBinding pairs an exported name with the destination global
// slot index it is bound to in the importing module.
type ExportBinding struct {
	Name string
	Slot uint32
}

// FuncGlobal pre-seats a function handle into a global slot.
type FuncGlobal struct {
	Slot   uint32
	FuncID uint32
}

// Export is a named, module-level export: (name, global_slot).
type Export struct {
	Name string
	Slot uint32
}

// CompiledModule is the output of the module compiler: an
// immutable, self-contained unit that the bytecode codec and the VM
// both operate on.
type CompiledModule struct {
	Name            string
	InitFunc        uint32
	Functions       []*CompiledFunction
	FunctionGlobals []FuncGlobal
	Exports         []Export
	Imports         []*ImportBinding
	GlobalCount     uint32
}

// Function returns the function with the given id, or nil if absent.
func (m *CompiledModule) Function(id uint32) *CompiledFunction {
	for _, f := range m.Functions {
		if f.ID == id {
			return f
		}
	}
	return nil
}
