// Package values holds the VM's runtime value representation,
// independent of package vm.
package values

import (
	"fmt"
	"strconv"

	"github.com/wudi/imp/ir"
)

// Kind tags a runtime Value.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindNum
	KindStr
	KindObj
	KindFunc
	KindError
)

// Value is a tagged runtime value: a fixed Kind plus whichever payload
// field that kind uses.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Obj  map[string]Value
	Func uint32
	Err  ErrPayload
}

// ErrPayload is the payload of a Value of kind KindError: a
// user-facing thrown error carried as data, distinct from the Go
// errors the engine raises around it.
type ErrPayload struct {
	Code string
	Msg  string
}

func NewNull() Value                 { return Value{Kind: KindNull} }
func NewBool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func NewNum(n float64) Value         { return Value{Kind: KindNum, Num: n} }
func NewStr(s string) Value          { return Value{Kind: KindStr, Str: s} }
func NewObj(m map[string]Value) Value { return Value{Kind: KindObj, Obj: m} }
func NewFunc(id uint32) Value        { return Value{Kind: KindFunc, Func: id} }
func NewError(code, msg string) Value {
	return Value{Kind: KindError, Err: ErrPayload{Code: code, Msg: msg}}
}

// FromConst materializes a compile-time ConstValue as a runtime Value.
func FromConst(c ir.ConstValue) Value {
	switch c.Kind {
	case ir.ConstNull:
		return NewNull()
	case ir.ConstBool:
		return NewBool(c.Bool)
	case ir.ConstNum:
		return NewNum(c.Num)
	case ir.ConstStr:
		return NewStr(c.Str)
	default:
		return NewNull()
	}
}

// ErrNotNumeric is returned by AsNum when v isn't a Num.
type ErrNotNumeric struct{}

func (ErrNotNumeric) Error() string { return "expected numeric value" }

// AsNum requires v to be a Num.
func (v Value) AsNum() (float64, error) {
	if v.Kind != KindNum {
		return 0, ErrNotNumeric{}
	}
	return v.Num, nil
}

// Truthy implements the boolean coercion table.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNum:
		return v.Num != 0
	case KindStr:
		return v.Str != ""
	case KindObj:
		return len(v.Obj) != 0
	case KindFunc, KindError:
		return true
	default:
		return false
	}
}

// Equal implements structural equality for core::eq.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNum:
		return v.Num == other.Num
	case KindStr:
		return v.Str == other.Str
	case KindFunc:
		return v.Func == other.Func
	case KindError:
		return v.Err.Code == other.Err.Code && v.Err.Msg == other.Err.Msg
	case KindObj:
		if len(v.Obj) != len(other.Obj) {
			return false
		}
		for k, val := range v.Obj {
			ov, ok := other.Obj[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ErrNotConvertible is returned by TextConversion for Obj/Func values.
type ErrNotConvertible struct{}

func (ErrNotConvertible) Error() string { return "cannot convert complex value to string" }

// TextConversion renders v the way core::str::concat/core::str::len
// read operands and the way core::obj::get/has convert a key.
// Obj and Func are not convertible.
func TextConversion(v Value) (string, error) {
	switch v.Kind {
	case KindNull:
		return "null", nil
	case KindBool:
		return strconv.FormatBool(v.Bool), nil
	case KindNum:
		return strconv.FormatFloat(v.Num, 'g', -1, 64), nil
	case KindStr:
		return v.Str, nil
	case KindError:
		return fmt.Sprintf("error(%s): %s", v.Err.Code, v.Err.Msg), nil
	default:
		return "", ErrNotConvertible{}
	}
}

func (v Value) GoString() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindBool:
		return fmt.Sprintf("Bool(%v)", v.Bool)
	case KindNum:
		return fmt.Sprintf("Num(%v)", v.Num)
	case KindStr:
		return fmt.Sprintf("Str(%q)", v.Str)
	case KindObj:
		return fmt.Sprintf("Obj(%v)", v.Obj)
	case KindFunc:
		return fmt.Sprintf("Func(%d)", v.Func)
	case KindError:
		return fmt.Sprintf("Error{code:%q, msg:%q}", v.Err.Code, v.Err.Msg)
	default:
		return "<unknown>"
	}
}
