package ir

// Op is the byte tag of an instruction, matching the bytecode codec's
// wire tags exactly.
type Op byte

const (
	OpStoreConst Op = 0
	OpMove       Op = 1
	OpAdd        Op = 2
	OpSub        Op = 3
	OpMul        Op = 4
	OpDiv        Op = 5
	OpEq         Op = 6
	OpLt         Op = 7
	OpJump       Op = 8
	OpBranch     Op = 9
	OpInvoke     Op = 10
	OpReturnSet  Op = 11
	OpExit       Op = 12
	OpThrow      Op = 13
	OpTryPush    Op = 14
	OpTryPop     Op = 15
	OpObjNew     Op = 16
	OpObjSet     Op = 17
	OpObjGet     Op = 18
	OpObjHas     Op = 19
	OpStrConcat  Op = 20
	OpStrLen     Op = 21
	OpHostPrint  Op = 22
)

var opNames = map[Op]string{
	OpStoreConst: "StoreConst",
	OpMove:       "Move",
	OpAdd:        "Add",
	OpSub:        "Sub",
	OpMul:        "Mul",
	OpDiv:        "Div",
	OpEq:         "Eq",
	OpLt:         "Lt",
	OpJump:       "Jump",
	OpBranch:     "Branch",
	OpInvoke:     "Invoke",
	OpReturnSet:  "ReturnSet",
	OpExit:       "Exit",
	OpThrow:      "Throw",
	OpTryPush:    "TryPush",
	OpTryPop:     "TryPop",
	OpObjNew:     "ObjNew",
	OpObjSet:     "ObjSet",
	OpObjGet:     "ObjGet",
	OpObjHas:     "ObjHas",
	OpStrConcat:  "StrConcat",
	OpStrLen:     "StrLen",
	OpHostPrint:  "HostPrint",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "Unknown"
}

// Instruction is a fixed-shape operand record: which fields are
// meaningful is determined by Op. This keeps the bytecode codec and
// the VM's dispatch tables simple (a single struct type) at the cost
// of some unused fields per variant.
//
//   StoreConst  {Out, Const}
//   Move        {From, To}
//   Add/Sub/Mul/Div/Eq/Lt {A, B, Out}
//   Jump        {PC}
//   Branch      {Cond, PC, PC2}        (then=PC, else=PC2)
//   Invoke      {Fn, Args, Out}
//   ReturnSet   {RetIndex, Value}
//   Exit        (no operands)
//   Throw       {Code, Msg}
//   TryPush     {PC}                  (handler pc)
//   TryPop      (no operands)
//   ObjNew      {Out}
//   ObjSet      {Obj, KeyText, Value, Out}
//   ObjGet/Has  {Obj, Key, Out}
//   StrConcat   {A, B, Out}
//   StrLen      {Value, Out}
//   HostPrint   {Value}
type Instruction struct {
	Op Op

	A, B, Cond, Obj, Value, From, To, Fn, Out Slot
	Args                                      []Slot
	Key                                       Slot // ObjGet/ObjHas runtime key slot

	PC, PC2  int
	RetIndex uint32

	Const   ConstValue
	KeyText string // ObjSet's compile-time literal key
	Code    string // Throw code
	Msg     string // Throw msg
}
