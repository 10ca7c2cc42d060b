// Package value implements the smog runtime's tagged value model: the
// small set of shapes (Null, Bool, Int, Float, Str, Array, Object,
// Function) that flow across the value stack, locals, globals, and
// object properties.
//
// Heap-resident shapes (Str, Array, Object, Function) are represented as
// pointers to interior-mutable cells: multiple Values may share a handle,
// and mutation through one handle is visible through all of them. That
// sharing is also what the collector in pkg/gc walks, which is why every
// heap cell embeds a Header and implements Heap.
package value

import "math"

// Tag identifies which of the eight Value shapes a given Go value holds.
type Tag byte

const (
	TagNull Tag = iota
	TagBool
	TagInt
	TagFloat
	TagStr
	TagArray
	TagObject
	TagFunction
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagStr:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is any one of: nil (Null), bool (Bool), int64 (Int), float64
// (Float), *Str (Str), *Array (Array), *Object (Object), *Function
// (Function). There is no boxed wrapper type — dispatch is a Go type
// switch, the same idiom the rest of this VM uses throughout.
type Value = interface{}

// TagOf reports which Value shape v holds.
func TagOf(v Value) Tag {
	switch v.(type) {
	case nil:
		return TagNull
	case bool:
		return TagBool
	case int64:
		return TagInt
	case float64:
		return TagFloat
	case *Str:
		return TagStr
	case *Array:
		return TagArray
	case *Object:
		return TagObject
	case *Function:
		return TagFunction
	default:
		return TagNull
	}
}

// TypeName returns the TypeOf opcode's string for v.
func TypeName(v Value) string {
	return TagOf(v).String()
}

// IsTruthy implements §4.1 is_truthy: Null, Bool(false), Int(0),
// Float(0.0 or NaN) are false; everything else is true.
func IsTruthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

// Equal implements the equality rules from §3 and §4.1: total equality
// for Null/Bool/Int, NaN-respecting Float, structural for Str/Array, and
// properties-handle identity for Object. Function has no rule of its own
// in the spec; it follows Object's identity convention.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		default:
			return false
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return av == bv
		case int64:
			return av == float64(bv)
		default:
			return false
		}
	case *Str:
		bv, ok := b.(*Str)
		return ok && av.Value == bv.Value
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	default:
		return false
	}
}

// Compare implements the ordering used by Lt/Lte/Gt/Gte: numeric
// promotion for Int/Float, lexicographic for Str, by-length for Array.
// The second return value is false when the pair has no defined order
// (Object, Null, Bool, or mixed shapes), in which case every comparison
// opcode must push false.
func Compare(a, b Value) (cmp int, ok bool) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmpInt64(av, bv), true
		case float64:
			return cmpFloat64(float64(av), bv), true
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmpFloat64(av, bv), true
		case int64:
			return cmpFloat64(av, float64(bv)), true
		}
	case *Str:
		if bv, ok := b.(*Str); ok {
			return cmpString(av.Value, bv.Value), true
		}
	case *Array:
		if bv, ok := b.(*Array); ok {
			return cmpInt64(int64(len(av.Elements)), int64(len(bv.Elements))), true
		}
	}
	return 0, false
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
