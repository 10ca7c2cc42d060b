package value

// NativeFunc is the signature a builtin (host-implemented) Function
// wraps: receiver, positional arguments in, a single result or an error
// Value to be raised through the exception protocol.
type NativeFunc func(this Value, args []Value) (Value, error)

// Function is the heap cell backing the Function Value shape (§3).
// CodeLocation/Module describe a bytecode function; Native describes a
// host function. Exactly one of the two is set, enforced by the two
// constructors below rather than by a third tag field.
type Function struct {
	Header
	// CodeOffset is an instruction index into Module's code vector.
	// Meaningful only when Native == nil.
	CodeOffset int
	Module     ModuleRef
	Native     NativeFunc

	// Argc is the expected arity, or -1 for variadic.
	Argc int
	// Env holds the captured upvalues, populated by MakeEnv. Empty
	// (non-nil, zero length) for functions with no captures.
	Env *Array
	// Prototype is traced by the collector; nothing in the VM sets or
	// reads it. The New opcode takes the new object's prototype from
	// the stack (an Object or Null) and does not consult this field.
	Prototype *Object

	// Name is used only for diagnostics (stack traces, TypeOf-adjacent
	// debugging); it has no effect on call semantics.
	Name string
}

// ModuleRef is the back-reference a bytecode Function holds to its
// owning module, kept opaque (rather than *module.Module) because
// pkg/module needs *Function for its globals table and pkg/value cannot
// import pkg/module without a cycle. pkg/vm type-asserts this back to
// *module.Module when it needs to fetch code, globals or debug info.
type ModuleRef = interface{}

// NewBytecodeFunction builds a Function whose call protocol dispatches
// into a module's code vector, per the invariant "a Function's module is
// Some iff its code_location is an offset" (§3).
func NewBytecodeFunction(offset int, argc int, module ModuleRef) *Function {
	return &Function{
		Header:     Header{id: allocID()},
		CodeOffset: offset,
		Module:     module,
		Argc:       argc,
		Env:        NewArray(nil),
	}
}

// NewNativeFunction builds a Function backed by a host Go closure,
// registered by name in the builtin registry (pkg/builtin).
func NewNativeFunction(name string, argc int, fn NativeFunc) *Function {
	return &Function{
		Header: Header{id: allocID()},
		Native: fn,
		Argc:   argc,
		Env:    NewArray(nil),
		Name:   name,
	}
}

// IsNative reports whether f is a host-implemented function.
func (f *Function) IsNative() bool { return f.Native != nil }

// WithEnv returns f with its env array replaced by elements, implementing
// the MakeEnv opcode's "function with env set" result. The receiver is
// mutated in place — MakeEnv's spec wording ("function with env set") is
// an in-place env mutation, consistent with §3's "Function: in-place env
// mutation only".
func (f *Function) WithEnv(elements []Value) *Function {
	f.Env = NewArray(elements)
	return f
}

func (f *Function) Trace(visit func(Value)) {
	if f.Env != nil {
		visit(f.Env)
	}
	if f.Prototype != nil {
		visit(f.Prototype)
	}
}
