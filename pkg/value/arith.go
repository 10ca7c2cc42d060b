package value

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ErrDivByZero is returned by Div/Rem when the Int divisor is zero,
// per §4.4: "Division and remainder by zero on Int are fatal; on Float
// produce infinity/NaN per host defaults."
var ErrDivByZero = errors.New("division by zero")

// Stringify renders v the way Str `+` concatenation stringifies its
// non-Str operand (§4.1).
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *Str:
		return x.Value
	case *Array:
		return fmt.Sprintf("array[%d]", len(x.Elements))
	case *Object:
		return "object"
	case *Function:
		return "function"
	default:
		return ""
	}
}

// Add implements §4.1's arithmetic promotion for `+`: Int+Int -> Int,
// Float mixed with either -> Float, Str + anything -> Str concatenation
// (stringifying the other operand). Anything else yields Null.
func Add(a, b Value) Value {
	if as, ok := a.(*Str); ok {
		return NewStr(as.Value + Stringify(b))
	}
	if bs, ok := b.(*Str); ok {
		return NewStr(Stringify(a) + bs.Value)
	}
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return av + bv
		case float64:
			return float64(av) + bv
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return av + float64(bv)
		case float64:
			return av + bv
		}
	}
	return nil
}

// numericBinOp is the shared shape of Sub/Mul: promote per §4.1,
// otherwise Null.
func numericBinOp(a, b Value, ints func(a, b int64) int64, floats func(a, b float64) float64) Value {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return ints(av, bv)
		case float64:
			return floats(float64(av), bv)
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return floats(av, float64(bv))
		case float64:
			return floats(av, bv)
		}
	}
	return nil
}

func Sub(a, b Value) Value {
	return numericBinOp(a, b,
		func(x, y int64) int64 { return x - y },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) Value {
	return numericBinOp(a, b,
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div implements Int/Float division. An Int/Int division by zero is
// fatal (err != nil); Float division by zero follows host IEEE-754
// defaults (+Inf/-Inf/NaN).
func Div(a, b Value) (Value, error) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			if bv == 0 {
				return nil, ErrDivByZero
			}
			return av / bv, nil
		case float64:
			return float64(av) / bv, nil
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return av / float64(bv), nil
		case float64:
			return av / bv, nil
		}
	}
	return nil, nil
}

// Rem implements Int/Float remainder with the same fatal-on-Int-zero
// rule as Div.
func Rem(a, b Value) (Value, error) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			if bv == 0 {
				return nil, ErrDivByZero
			}
			return av % bv, nil
		case float64:
			return floatMod(float64(av), bv), nil
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return floatMod(av, float64(bv)), nil
		case float64:
			return floatMod(av, bv), nil
		}
	}
	return nil, nil
}

func floatMod(a, b float64) float64 {
	if b == 0 {
		return a / b // NaN or ±Inf, per host float semantics
	}
	q := a - b*float64(int64(a/b))
	return q
}

// intBinOp implements the Int-only bitwise/shift operators from §4.1:
// "other combinations yield Null."
func intBinOp(a, b Value, op func(x, y int64) int64) Value {
	av, ok := a.(int64)
	if !ok {
		return nil
	}
	bv, ok := b.(int64)
	if !ok {
		return nil
	}
	return op(av, bv)
}

func Shl(a, b Value) Value  { return intBinOp(a, b, func(x, y int64) int64 { return x << uint64(y) }) }
func Shr(a, b Value) Value  { return intBinOp(a, b, func(x, y int64) int64 { return x >> uint64(y) }) }
func UShr(a, b Value) Value {
	return intBinOp(a, b, func(x, y int64) int64 { return int64(uint64(x) >> uint64(y)) })
}
func Or(a, b Value) Value  { return intBinOp(a, b, func(x, y int64) int64 { return x | y }) }
func And(a, b Value) Value { return intBinOp(a, b, func(x, y int64) int64 { return x & y }) }
func Xor(a, b Value) Value { return intBinOp(a, b, func(x, y int64) int64 { return x ^ y }) }

// Not is bitwise complement on Int and logical negation on Bool; any
// other operand yields Null, following the same soft-fail rule as the
// binary operators.
func Not(a Value) Value {
	switch x := a.(type) {
	case int64:
		return ^x
	case bool:
		return !x
	default:
		return nil
	}
}

// Neg is arithmetic negation on Int/Float; anything else yields Null.
func Neg(a Value) Value {
	switch x := a.(type) {
	case int64:
		return -x
	case float64:
		return -x
	default:
		return nil
	}
}
