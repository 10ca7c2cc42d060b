package value

import "github.com/pkg/errors"

// ErrCannotBox is returned by ToObject for Null, per §4.1: "to_object:
// Null fails".
var ErrCannotBox = errors.New("cannot box null")

// Statics is the process-wide static variables registry (§4.3, §9): a
// map from a boxed-primitive name ("Number", "Boolean", "String",
// "Array", "Function") to the prototype Object registered under that
// name. pkg/vm owns one instance, keeps it rooted for the collector, and
// passes it to ToObject on every LoadField.
type Statics map[string]*Object

// protoNameFor returns the Statics key ToObject consults for v's shape.
// §4.1 names Number/Boolean/String explicitly; Array and Function are
// boxed the same lazy way for LoadField consistency (the source material
// only spells out the primitive cases, but leaves no other path for
// `array size` / `fn name` style property access to work).
func protoNameFor(v Value) (string, Kind) {
	switch v.(type) {
	case int64, float64:
		return "Number", KindNumberBox
	case bool:
		return "Boolean", KindBoolBox
	case *Str:
		return "String", KindStringBox
	case *Array:
		return "Array", KindArrayBox
	case *Function:
		return "Function", KindFunctionBox
	default:
		return "", KindOrdinary
	}
}

// ToObject implements §4.1's to_object: lazily lifts a primitive Value
// to a throwaway Object whose prototype is the registered static
// prototype for its shape. Object values are already objects and are
// returned as-is; Null fails with ErrCannotBox. The result is never
// installed back into the original Value — callers (LoadField) use it
// only to resolve the property for this one lookup.
func ToObject(v Value, statics Statics) (*Object, error) {
	if obj, ok := v.(*Object); ok {
		return obj, nil
	}
	if v == nil {
		return nil, ErrCannotBox
	}
	name, kind := protoNameFor(v)
	proto := statics[name]
	box := NewObject(proto)
	box.Kind = kind
	box.Boxed = v
	return box, nil
}
