// Package vm implements the smog interpreter: the value stack, call
// stack, exception stack, and the three bindings (locals, env, this)
// described in §2/§4.4/§4.5/§4.6, dispatching the opcode table defined
// in pkg/bytecode over a loaded pkg/module.Module.
package vm

import (
	"fmt"

	gostack "github.com/go-stack/stack"

	"github.com/kristofer/smog/pkg/builtin"
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/gc"
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

// bootstrapPrototypes are the static-variables registry entries §4.3/§9
// requires: one prototype Object per boxable primitive shape, consulted
// by ToObject on every Load that lazily boxes a primitive.
var bootstrapPrototypes = []string{"Number", "Boolean", "String", "Array", "Function"}

// Config tunes a VM instance.
type Config struct {
	// GCThreshold is the number of allocations between automatic
	// collection cycles; <= 0 disables automatic collection (only the
	// `gc` builtin triggers one).
	GCThreshold int
}

// VM is the interpreter's live state. A VM is single-threaded
// cooperative: Run must not be called from multiple goroutines
// concurrently, and must not be re-entered while already running.
type VM struct {
	stack    []value.Value
	frames   []Frame
	handlers []HandlerFrame

	locals map[int]value.Value
	env    *value.Array
	this   value.Value
	module *module.Module
	pc     int

	statics  value.Statics
	heap     *gc.Collector
	builtins *builtin.Registry

	debugger *Debugger
}

// New constructs a VM with a fresh heap, builtin registry, and the five
// bootstrap prototypes installed in the static variables registry and
// registered as builtins under the same names.
func New(cfg Config) *VM {
	heap := gc.New(cfg.GCThreshold)
	vm := &VM{
		heap:     heap,
		builtins: builtin.New(heap),
		statics:  make(value.Statics),
	}
	for _, name := range bootstrapPrototypes {
		proto := value.NewObject(nil)
		heap.Track(proto)
		vm.statics[name] = proto
		vm.builtins.Register(name, proto)
	}
	vm.builtins.Register("gc", value.NewNativeFunction("gc", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return nil, vm.collectGC()
	}))
	return vm
}

// Builtins exposes the registry so an embedder can add host functions
// before running a module.
func (vm *VM) Builtins() *builtin.Registry { return vm.builtins }

// EnableDebugger attaches an interactive Debugger to this VM, adapting
// the teacher's debugger to the new opcode set.
func (vm *VM) EnableDebugger(d *Debugger) { vm.debugger = d }

// GetDebugger returns the attached debugger, or nil.
func (vm *VM) GetDebugger() *Debugger { return vm.debugger }

// StackTop returns the current top of the value stack without popping,
// or nil if empty — used by tests and by the REPL to show the last
// computed value.
func (vm *VM) StackTop() value.Value {
	if len(vm.stack) == 0 {
		return nil
	}
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() (value.Value, bool) {
	if len(vm.stack) == 0 {
		return nil, false
	}
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v, true
}

// popArgs pops n values off the stack and returns them in their
// original declared order (the last-pushed value comes off first, so
// the result is filled back-to-front) — the pattern used by MakeEnv,
// MakeArray and the call opcodes alike.
func (vm *VM) popArgs(n int) ([]value.Value, bool) {
	args := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := vm.pop()
		if !ok {
			return nil, false
		}
		args[i] = v
	}
	return args, true
}

func (vm *VM) reset(m *module.Module) {
	vm.module = m
	vm.pc = 0
	vm.locals = make(map[int]value.Value)
	vm.env = value.NewArray(nil)
	vm.heap.Track(vm.env)
	vm.this = nil
	vm.frames = []Frame{{IsExit: true}}
	vm.handlers = nil
	vm.stack = nil
}

// Run interprets m from instruction 0 until Ret pops the sentinel exit
// frame or Last is reached, returning the final top-of-stack value. An
// *UnhandledException means a Throw (or an internal failure routed
// through the same path) found no live handler; a *FatalError means
// the module or the VM's own invariants were violated in a way no
// smog-level handler could plausibly be expected to catch.
func (vm *VM) Run(m *module.Module) (value.Value, error) {
	vm.reset(m)
	for {
		halted, result, err := vm.step()
		if err != nil {
			return nil, err
		}
		if halted {
			return result, nil
		}
		if vm.heap.ShouldCollect() {
			if err := vm.collectGC(); err != nil {
				return nil, err
			}
		}
	}
}

// step executes exactly one instruction.
func (vm *VM) step() (halted bool, result value.Value, err error) {
	if vm.pc < 0 || vm.pc >= len(vm.module.Code) {
		// A well-formed module always ends on Last or an exit-frame
		// Ret; falling off the end is treated as an implicit clean
		// halt rather than a malformed-bytecode condition.
		return true, vm.StackTop(), nil
	}

	instr := vm.module.Code[vm.pc]
	index := vm.pc
	vm.pc++

	if vm.debugger != nil && vm.debugger.Enabled() {
		if cont := vm.debugger.beforeInstruction(vm, index, instr); !cont {
			return true, vm.StackTop(), nil
		}
	}

	switch instr.Op {
	case bytecode.LoadNull:
		vm.push(nil)
	case bytecode.LoadTrue:
		vm.push(true)
	case bytecode.LoadFalse:
		vm.push(false)
	case bytecode.LoadInt:
		vm.push(instr.Operand)
	case bytecode.LoadGlobal:
		idx := int(instr.Operand)
		if idx < 0 || idx >= len(vm.module.Globals) {
			return false, nil, vm.newFatalError("global index %d out of range (len %d)", idx, len(vm.module.Globals))
		}
		vm.push(vm.module.Globals[idx])
	case bytecode.LoadEnv:
		idx := int(instr.Operand)
		if vm.env == nil || idx < 0 || idx >= len(vm.env.Elements) {
			return false, nil, vm.newFatalError("env index %d out of range (len %d)", idx, envLen(vm.env))
		}
		vm.push(vm.env.Elements[idx])
	case bytecode.LoadLocal:
		idx := int(instr.Operand)
		v, ok := vm.locals[idx]
		if !ok {
			return false, nil, vm.raisef(index, "unknown local slot %d", idx)
		}
		vm.push(v)
	case bytecode.LoadBuiltin:
		idx := int(instr.Operand)
		name, ok := vm.module.String(idx)
		if !ok {
			return false, nil, vm.newFatalError("builtin name index %d out of range", idx)
		}
		v, ok := vm.builtins.Get(name)
		if !ok {
			return false, nil, vm.raisef(index, "unknown builtin %q", name)
		}
		vm.push(v)
	case bytecode.LoadThis:
		vm.push(vm.this)
	case bytecode.Load:
		if err := vm.execLoad(index); err != nil {
			return false, nil, err
		}
	case bytecode.Store:
		if err := vm.execStore(index); err != nil {
			return false, nil, err
		}
	case bytecode.StoreEnv:
		idx := int(instr.Operand)
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		if vm.env == nil || idx < 0 || idx >= len(vm.env.Elements) {
			return false, nil, vm.newFatalError("env index %d out of range (len %d)", idx, envLen(vm.env))
		}
		vm.heap.WriteBarrier(vm.env, v)
		vm.env.Elements[idx] = v
	case bytecode.StoreLocal:
		idx := int(instr.Operand)
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.locals[idx] = v
	case bytecode.StoreThis:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.this = v
	case bytecode.Pop:
		n := int(instr.Operand)
		for i := 0; i < n; i++ {
			if _, ok := vm.pop(); !ok {
				return false, nil, vm.raisef(index, "stack underflow")
			}
		}
	case bytecode.Call, bytecode.ObjCall, bytecode.TailCall:
		if err := vm.execCall(index, instr); err != nil {
			return false, nil, err
		}
	case bytecode.Jump:
		target := int(instr.Operand)
		if target < 0 || target >= len(vm.module.Code) {
			return false, nil, vm.newFatalError("jump target %d out of range", target)
		}
		vm.pc = target
	case bytecode.JumpIf, bytecode.JumpIfNot:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		branch := value.IsTruthy(v)
		if instr.Op == bytecode.JumpIfNot {
			branch = !branch
		}
		if branch {
			target := int(instr.Operand)
			if target < 0 || target >= len(vm.module.Code) {
				return false, nil, vm.newFatalError("jump target %d out of range", target)
			}
			vm.pc = target
		}
	case bytecode.CatchPush:
		vm.handlers = append(vm.handlers, HandlerFrame{
			IP:         int(instr.Operand),
			Locals:     vm.locals,
			Env:        vm.env,
			This:       vm.this,
			Module:     vm.module,
			StackDepth: len(vm.stack),
		})
	case bytecode.Throw:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		if err := vm.raise(v); err != nil {
			return false, nil, err
		}
	case bytecode.Ret:
		return vm.execRet(index)
	case bytecode.MakeEnv:
		if err := vm.execMakeEnv(index, int(instr.Operand)); err != nil {
			return false, nil, err
		}
	case bytecode.MakeArray:
		n := int(instr.Operand)
		elems, ok := vm.popArgs(n)
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		arr := value.NewArray(elems)
		vm.heap.Track(arr)
		vm.push(arr)
	case bytecode.IsNull:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.push(v == nil)
	case bytecode.IsNotNull:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.push(v != nil)
	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Rem,
		bytecode.Shl, bytecode.Shr, bytecode.UShr, bytecode.Or, bytecode.And, bytecode.Xor,
		bytecode.Eq, bytecode.Neq, bytecode.Lt, bytecode.Lte, bytecode.Gt, bytecode.Gte:
		if err := vm.execBinary(index, instr.Op); err != nil {
			return false, nil, err
		}
	case bytecode.Not:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.push(value.Not(v))
	case bytecode.Neg:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.push(value.Neg(v))
	case bytecode.Hash:
		v, ok := vm.pop()
		if !ok {
			return false, nil, vm.raisef(index, "stack underflow")
		}
		vm.push(value.Hash(v))
	case bytecode.New:
		if err := vm.execNew(index); err != nil {
			return false, nil, err
		}
	case bytecode.Nop:
		// no-op
	case bytecode.Last:
		return true, vm.StackTop(), nil
	default:
		return false, nil, vm.newFatalError("unknown opcode %d at instruction %d", instr.Op, index)
	}
	return false, nil, nil
}

func envLen(a *value.Array) int {
	if a == nil {
		return 0
	}
	return len(a.Elements)
}

func (vm *VM) execLoad(index int) error {
	containerVal, ok1 := vm.pop()
	keyVal, ok2 := vm.pop()
	if !ok1 || !ok2 {
		return vm.raisef(index, "stack underflow")
	}
	switch c := containerVal.(type) {
	case nil:
		return vm.raisef(index, "cannot read a property of null")
	case *value.Array:
		idx, ok := keyVal.(int64)
		if !ok {
			return vm.raisef(index, "array index must be an Int")
		}
		if idx < 0 || idx >= int64(len(c.Elements)) {
			vm.push(nil) // out-of-range Load returns Null, per the error-handling contract
			return nil
		}
		vm.push(c.Elements[idx])
		return nil
	case *value.Object:
		v, found := c.Get(keyVal)
		if !found {
			vm.push(nil)
			return nil
		}
		vm.push(v)
		return nil
	default:
		obj, err := value.ToObject(containerVal, vm.statics)
		if err != nil {
			return vm.raisef(index, "cannot read a property of %s", value.TypeName(containerVal))
		}
		v, found := obj.Get(keyVal)
		if !found {
			vm.push(nil)
			return nil
		}
		vm.push(v)
		return nil
	}
}

func (vm *VM) execStore(index int) error {
	containerVal, ok1 := vm.pop()
	keyVal, ok2 := vm.pop()
	val, ok3 := vm.pop()
	if !ok1 || !ok2 || !ok3 {
		return vm.raisef(index, "stack underflow")
	}
	switch c := containerVal.(type) {
	case nil:
		return vm.raisef(index, "cannot store into null")
	case *value.Array:
		idx, ok := keyVal.(int64)
		if !ok {
			return vm.raisef(index, "array index must be an Int")
		}
		if idx < 0 || idx >= int64(len(c.Elements)) {
			return vm.raisef(index, "array index %d beyond length %d", idx, len(c.Elements))
		}
		vm.heap.WriteBarrier(c, val)
		c.Elements[idx] = val
		return nil
	case *value.Object:
		vm.heap.WriteBarrier(c, val)
		c.Set(keyVal, val)
		return nil
	default:
		// Storing into a lazily-boxed primitive would write to a
		// throwaway Object nothing else can observe, so Store
		// (unlike Load) never boxes: writing into a non-container is
		// a type mismatch.
		return vm.raisef(index, "cannot store into %s", value.TypeName(containerVal))
	}
}

func (vm *VM) execBinary(index int, op bytecode.Opcode) error {
	// `a op b` compiles to `push b; push a; <Op>`, so a (lhs) is the
	// last value pushed and is popped first; b (rhs) is popped second.
	// The observable operation is lhs op rhs.
	a, ok1 := vm.pop()
	b, ok2 := vm.pop()
	if !ok1 || !ok2 {
		return vm.raisef(index, "stack underflow")
	}
	switch op {
	case bytecode.Add:
		vm.push(value.Add(a, b))
	case bytecode.Sub:
		vm.push(value.Sub(a, b))
	case bytecode.Mul:
		vm.push(value.Mul(a, b))
	case bytecode.Div:
		v, err := value.Div(a, b)
		if err != nil {
			return vm.raisef(index, "division by zero")
		}
		vm.push(v)
	case bytecode.Rem:
		v, err := value.Rem(a, b)
		if err != nil {
			return vm.raisef(index, "division by zero")
		}
		vm.push(v)
	case bytecode.Shl:
		vm.push(value.Shl(a, b))
	case bytecode.Shr:
		vm.push(value.Shr(a, b))
	case bytecode.UShr:
		vm.push(value.UShr(a, b))
	case bytecode.Or:
		vm.push(value.Or(a, b))
	case bytecode.And:
		vm.push(value.And(a, b))
	case bytecode.Xor:
		vm.push(value.Xor(a, b))
	case bytecode.Eq:
		vm.push(value.Equal(a, b))
	case bytecode.Neq:
		vm.push(!value.Equal(a, b))
	case bytecode.Lt, bytecode.Lte, bytecode.Gt, bytecode.Gte:
		cmp, ok := value.Compare(a, b)
		if !ok {
			vm.push(false)
			return nil
		}
		switch op {
		case bytecode.Lt:
			vm.push(cmp < 0)
		case bytecode.Lte:
			vm.push(cmp <= 0)
		case bytecode.Gt:
			vm.push(cmp > 0)
		case bytecode.Gte:
			vm.push(cmp >= 0)
		}
	}
	return nil
}

func (vm *VM) execNew(index int) error {
	protoVal, ok := vm.pop()
	if !ok {
		return vm.raisef(index, "stack underflow")
	}
	var proto *value.Object
	if protoVal != nil {
		p, ok := protoVal.(*value.Object)
		if !ok {
			return vm.raisef(index, "New prototype must be an Object or Null")
		}
		proto = p
	}
	obj := value.NewObject(proto)
	vm.heap.Track(obj)
	vm.push(obj)
	return nil
}

func (vm *VM) execMakeEnv(index int, n int) error {
	fnVal, ok := vm.pop()
	if !ok {
		return vm.raisef(index, "stack underflow")
	}
	fn, ok := fnVal.(*value.Function)
	if !ok {
		return vm.raisef(index, "MakeEnv target must be a Function")
	}
	captures, ok := vm.popArgs(n)
	if !ok {
		return vm.raisef(index, "stack underflow")
	}
	fn.WithEnv(captures)
	vm.heap.Track(fn.Env)
	vm.push(fn)
	return nil
}

// raisef builds a Str error value (§7's "conventionally a String" case)
// and routes it through raise.
func (vm *VM) raisef(index int, format string, args ...interface{}) error {
	return vm.raise(vm.errStr(format, args...))
}

func (vm *VM) errStr(format string, args ...interface{}) *value.Str {
	s := value.NewStr(fmt.Sprintf(format, args...))
	vm.heap.Track(s)
	return s
}

// raise implements Throw semantics: pop one handler, restore its saved
// context and truncate the stack to its snapshot depth, then push the
// raised value. With no live handler, it builds the UnhandledException
// Run returns.
func (vm *VM) raise(v value.Value) error {
	if len(vm.handlers) == 0 {
		return vm.buildUnhandled(v)
	}
	n := len(vm.handlers) - 1
	h := vm.handlers[n]
	vm.handlers = vm.handlers[:n]

	if h.StackDepth > len(vm.stack) {
		return vm.newFatalError("handler stack-depth invariant violated: saved depth %d, current %d", h.StackDepth, len(vm.stack))
	}
	vm.pc = h.IP
	vm.locals = h.Locals
	vm.env = h.Env
	vm.this = h.This
	vm.module = h.Module
	vm.stack = vm.stack[:h.StackDepth]
	vm.push(v)
	return nil
}

func (vm *VM) buildUnhandled(v value.Value) *UnhandledException {
	exc := &UnhandledException{
		Value:       v,
		NativeStack: gostack.Trace().TrimBelow(gostack.Caller(1)),
		CallStack:   buildStackFrames(vm.frames),
	}
	if vm.module != nil {
		if d, ok := vm.module.DebugAt(vm.pc - 1); ok {
			exc.HasLocation = true
			exc.Line = d.Line
			exc.File = d.File
		}
	}
	return exc
}

// collectGC runs one full collection cycle, fanning the declared root
// categories out over an errgroup before the sequential mark/sweep.
func (vm *VM) collectGC() error {
	var frameRoots []value.Value
	for _, f := range vm.frames {
		frameRoots = append(frameRoots, mapValues(f.Locals)...)
		if f.Env != nil {
			frameRoots = append(frameRoots, f.Env)
		}
		frameRoots = append(frameRoots, f.This)
	}
	var handlerRoots []value.Value
	for _, h := range vm.handlers {
		handlerRoots = append(handlerRoots, mapValues(h.Locals)...)
		if h.Env != nil {
			handlerRoots = append(handlerRoots, h.Env)
		}
		handlerRoots = append(handlerRoots, h.This)
	}
	staticsRoots := make([]value.Value, 0, len(vm.statics))
	for _, proto := range vm.statics {
		staticsRoots = append(staticsRoots, proto)
	}

	groups := [][]value.Value{
		vm.stack,
		mapValues(vm.locals),
		frameRoots,
		handlerRoots,
		{vm.this},
		{vm.env},
		vm.module.Globals,
		staticsRoots,
	}
	if err := vm.heap.Collect(groups); err != nil {
		return vm.wrapFatal(err, "gc collection cycle failed")
	}
	return nil
}

func mapValues(m map[int]value.Value) []value.Value {
	vs := make([]value.Value, 0, len(m))
	for _, v := range m {
		vs = append(vs, v)
	}
	return vs
}
