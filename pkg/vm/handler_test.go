package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

// TestRaiseRestoresHandlerSnapshot hand-assembles a module exercising
// CatchPush/Throw directly (bypassing the compiler) to verify raise's
// snapshot-restore: values pushed inside the protected region after
// CatchPush must never leak past the unwind, and the thrown value must
// land alone on top of the truncated stack at the handler's target IP.
func TestRaiseRestoresHandlerSnapshot(t *testing.T) {
	m := module.New("handler-snapshot")
	m.Code = []bytecode.Instruction{
		{Op: bytecode.CatchPush, Operand: 5}, // 0: handler resumes at 5
		{Op: bytecode.LoadInt, Operand: 42},  // 1: decoy, discarded on unwind
		{Op: bytecode.LoadInt, Operand: 99},  // 2: decoy, discarded on unwind
		{Op: bytecode.LoadInt, Operand: 7},   // 3: the raised value
		{Op: bytecode.Throw},                 // 4
		{Op: bytecode.Ret},                   // 5: handler target
	}

	result, err := New(Config{}).Run(m)
	require.NoError(t, err)
	require.Equal(t, int64(7), result)
}

// TestRaiseWithNoHandlerIsUnhandled exercises the no-live-handler branch
// of raise directly, and that the returned UnhandledException carries a
// CallStack snapshot (possibly empty at the top level) rather than a nil
// slice materializing only by accident.
func TestRaiseWithNoHandlerIsUnhandled(t *testing.T) {
	m := module.New("unhandled")
	m.Code = []bytecode.Instruction{
		{Op: bytecode.LoadInt, Operand: 7},
		{Op: bytecode.Throw},
	}

	_, err := New(Config{}).Run(m)
	require.Error(t, err)

	unhandled, ok := err.(*UnhandledException)
	require.True(t, ok, "expected *UnhandledException, got %T", err)
	require.Equal(t, int64(7), unhandled.Value)
	require.NotNil(t, unhandled.CallStack)
	require.Empty(t, unhandled.CallStack)
}

// TestFatalErrorCarriesCallStack exercises a malformed-bytecode FatalError
// path (an out-of-range LoadGlobal) reached from inside a called
// function, and verifies the diagnostic CallStack threaded through
// newFatalError reflects the live call frame at the point the invariant
// was violated.
func TestFatalErrorCarriesCallStack(t *testing.T) {
	m := module.New("fatal-callstack")
	fn := value.NewBytecodeFunction(3, 0, m)
	fn.Name = "boom"
	m.Globals = []value.Value{fn}
	m.Code = []bytecode.Instruction{
		{Op: bytecode.LoadGlobal, Operand: 0}, // 0: push fn
		{Op: bytecode.Call, Operand: 0},       // 1: call it (argc=0)
		{Op: bytecode.Ret},                    // 2: unreachable
		{Op: bytecode.LoadGlobal, Operand: 99}, // 3: fn body, out of range
	}

	_, err := New(Config{}).Run(m)
	require.Error(t, err)

	fatal, ok := err.(*FatalError)
	require.True(t, ok, "expected *FatalError, got %T", err)
	require.Len(t, fatal.CallStack, 1)
	require.Equal(t, "boom", fatal.CallStack[0].Name)
}
