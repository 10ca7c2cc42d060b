package vm

import (
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

// execCall implements Call/ObjCall/TailCall (§4.5). Stack-effect
// notation lists pops in push order, so the rightmost-named operand —
// the callee — is always popped first.
func (vm *VM) execCall(index int, instr bytecode.Instruction) error {
	argc := int(instr.Operand)

	calleeVal, ok := vm.pop()
	if !ok {
		return vm.raisef(index, "stack underflow")
	}

	var this value.Value
	if instr.Op == bytecode.ObjCall {
		recv, ok := vm.pop()
		if !ok {
			return vm.raisef(index, "stack underflow")
		}
		this = recv
	}

	args, ok := vm.popArgs(argc)
	if !ok {
		return vm.raisef(index, "stack underflow")
	}

	fn, ok := calleeVal.(*value.Function)
	if !ok {
		return vm.raisef(index, "call target is not a Function")
	}

	return vm.invoke(index, fn, this, args, instr.Op == bytecode.TailCall)
}

// invoke dispatches to a native or bytecode callee per §4.5's call
// protocol, pushing a caller Frame unless tail is set (TailCall reuses
// the current frame, per the design note in §9).
func (vm *VM) invoke(index int, fn *value.Function, this value.Value, args []value.Value, tail bool) error {
	if fn.Argc >= 0 && len(args) != fn.Argc {
		return vm.raisef(index, "arity mismatch: %s expects %d argument(s), got %d", fn.Name, fn.Argc, len(args))
	}

	if fn.IsNative() {
		result, err := fn.Native(this, args)
		if err != nil {
			return vm.raisef(index, "%s", err.Error())
		}
		vm.push(result)
		return nil
	}

	mod, ok := fn.Module.(*module.Module)
	if !ok || mod == nil {
		return vm.newFatalError("function %s has no owning module", fn.Name)
	}

	if !tail {
		vm.frames = append(vm.frames, Frame{
			PC:     vm.pc,
			Locals: vm.locals,
			Env:    vm.env,
			This:   vm.this,
			Module: vm.module,
			Name:   fn.Name,
		})
	}

	locals := make(map[int]value.Value, len(args))
	for i, a := range args {
		locals[i] = a
	}
	vm.locals = locals
	vm.env = fn.Env
	vm.this = this
	vm.module = mod
	vm.pc = fn.CodeOffset
	return nil
}

// execRet implements Ret: pop the current call frame, pushing the
// already-computed top-of-stack value as the caller's result. Popping
// the sentinel exit frame halts interpretation (§4.4).
func (vm *VM) execRet(index int) (bool, value.Value, error) {
	retVal, ok := vm.pop()
	if !ok {
		return false, nil, vm.raisef(index, "stack underflow")
	}
	if len(vm.frames) == 0 {
		return false, nil, vm.newFatalError("call stack underflow on Ret")
	}
	n := len(vm.frames) - 1
	frame := vm.frames[n]
	vm.frames = vm.frames[:n]

	if frame.IsExit {
		return true, retVal, nil
	}

	vm.pc = frame.PC
	vm.locals = frame.Locals
	vm.env = frame.Env
	vm.this = frame.This
	vm.module = frame.Module
	vm.push(retVal)
	return false, nil, nil
}
