package vm

import (
	"fmt"

	gostack "github.com/go-stack/stack"
	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/value"
)

// UnhandledException is returned by Run when a Throw (or an internal
// failure surfaced through the same path) finds no live handler, per
// §4.6: "the VM prints the error ... and terminates with a nonzero
// status." The host CLI formats and prints it, then exits nonzero.
type UnhandledException struct {
	Value value.Value
	Line  uint32
	File  string
	// HasLocation selects "Error in <file>:<line>: <message>" over
	// "Error: <message>", per §7's two user-visible formats.
	HasLocation bool
	// NativeStack is the Go call stack captured at the moment the
	// fatal condition was raised, surfaced in verbose/debug CLI runs
	// alongside (not instead of) the VM's own frame-based trace.
	NativeStack gostack.CallStack
	// CallStack is the smog call stack, innermost frame first, snapshotted
	// from the VM's own frame list at the point the exception escaped.
	CallStack []StackFrame
}

func (e *UnhandledException) Error() string {
	if e.HasLocation {
		return fmt.Sprintf("Error in %s:%d: %s", e.File, e.Line, value.Stringify(e.Value))
	}
	return fmt.Sprintf("Error: %s", value.Stringify(e.Value))
}

// FatalError wraps a malformed-bytecode or heap-invariant condition that
// is never routed through the exception-handler protocol: these
// indicate the module or the VM's own bookkeeping is broken, not a
// program-level failure a smog `on:do:` handler could plausibly expect
// to catch.
type FatalError struct {
	cause     error
	Stack     gostack.CallStack
	CallStack []StackFrame
}

// newFatalError builds a FatalError from a raw invariant-violation
// message, snapshotting vm's current smog call stack alongside the
// native Go one.
func (vm *VM) newFatalError(format string, args ...interface{}) *FatalError {
	return &FatalError{
		cause:     errors.Errorf(format, args...),
		Stack:     gostack.Trace().TrimBelow(gostack.Caller(1)),
		CallStack: buildStackFrames(vm.frames),
	}
}

// wrapFatal is newFatalError for a condition surfaced through an
// underlying Go error (e.g. a failed GC cycle) rather than a bare
// invariant check, preserving that error via Unwrap.
func (vm *VM) wrapFatal(err error, format string, args ...interface{}) *FatalError {
	return &FatalError{
		cause:     errors.Wrapf(err, format, args...),
		Stack:     gostack.Trace().TrimBelow(gostack.Caller(1)),
		CallStack: buildStackFrames(vm.frames),
	}
}

func (e *FatalError) Error() string { return e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

// StackFrame describes one call-stack entry in the diagnostic snapshot
// (CallStack) carried by UnhandledException and FatalError — not to be
// confused with Frame, the VM's own live call record used during
// execution.
type StackFrame struct {
	Name       string
	Selector   string
	IP         int
	SourceLine int
	SourceFile string
}

// buildStackFrames snapshots frames (innermost call first) into the
// diagnostic StackFrame shape shared by UnhandledException and
// FatalError. The sentinel exit frame carries no useful diagnostics and
// is skipped.
func buildStackFrames(frames []Frame) []StackFrame {
	out := make([]StackFrame, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		if f.IsExit {
			continue
		}
		sf := StackFrame{Name: f.Name, Selector: f.Name, IP: f.PC}
		if f.Module != nil {
			if d, ok := f.Module.DebugAt(f.PC); ok {
				sf.SourceLine = int(d.Line)
				sf.SourceFile = d.File
			}
		}
		out = append(out, sf)
	}
	return out
}
