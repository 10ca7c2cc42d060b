package vm

import (
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

// Frame is the VM's per-call record (§4.5, glossary): the caller's
// {pc, locals, env, this, module}, restored verbatim on Ret.
type Frame struct {
	PC     int
	Locals map[int]value.Value
	Env    *value.Array
	This   value.Value
	Module *module.Module

	// IsExit marks the sentinel frame pushed once at Run's entry.
	// Popping it (via Ret) means interpretation is complete, per
	// §4.4: "If the popped frame marker is the sentinel 'exit
	// frame', interpretation returns."
	IsExit bool

	// Name is diagnostic-only, used to format stack traces; it does not
	// affect call semantics.
	Name string
}

// HandlerFrame is an exception-stack entry pairing a target instruction
// index with a saved frame context, per §4.6 and the design note in §9:
// "a value of kind HandlerFrame{ip, locals_snapshot, env, this, module,
// stack_depth}". StackDepth is recorded at CatchPush time and the value
// stack is truncated to it on Throw, so operands pushed inside the
// protected region never leak past an unwind.
type HandlerFrame struct {
	IP         int
	Locals     map[int]value.Value
	Env        *value.Array
	This       value.Value
	Module     *module.Module
	StackDepth int
}
