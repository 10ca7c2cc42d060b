package module

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// TestEncodeDecodeRoundTrip exercises the universal codec property:
// decode(encode(m)) must be structurally equal to m. ID is a
// per-load/per-compile uuid and Name is not persisted by Decode, so
// neither is compared; every other field is.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := New("main")
	m.Strings = []string{"hi"}

	fn := value.NewBytecodeFunction(7, 2, m)
	m.Globals = []value.Value{
		fn,
		value.NewStr("hi"),
		1.5,
	}
	m.Code = []bytecode.Instruction{
		{Op: bytecode.LoadGlobal, Operand: 0},
		{Op: bytecode.LoadGlobal, Operand: 1},
		{Op: bytecode.Ret},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(m, &buf))
	require.NotZero(t, buf.Len())

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	require.Equal(t, m.Strings, decoded.Strings)
	require.Equal(t, m.Code, decoded.Code)
	require.Len(t, decoded.Globals, len(m.Globals))

	decodedFn, ok := decoded.Globals[0].(*value.Function)
	require.True(t, ok, "expected Function global, got %T", decoded.Globals[0])
	require.Equal(t, fn.CodeOffset, decodedFn.CodeOffset)
	require.Equal(t, fn.Argc, decodedFn.Argc)
	require.Same(t, decoded, decodedFn.Module, "decoded Function must back-link to its owning Module")

	decodedStr, ok := decoded.Globals[1].(*value.Str)
	require.True(t, ok, "expected Str global, got %T", decoded.Globals[1])
	require.Equal(t, "hi", decodedStr.Value)

	decodedFloat, ok := decoded.Globals[2].(float64)
	require.True(t, ok, "expected float64 global, got %T", decoded.Globals[2])
	require.Equal(t, 1.5, decodedFloat)
}

// TestEncodeRejectsNativeFunctionGlobal exercises §6.1's "only Str,
// Float, Function may be module globals" constraint on the one shape
// that can slip in as a Function but can never be serialized.
func TestEncodeRejectsNativeFunctionGlobal(t *testing.T) {
	m := New("main")
	m.Globals = []value.Value{
		value.NewNativeFunction("builtin", 0, func(value.Value, []value.Value) (value.Value, error) {
			return nil, nil
		}),
	}

	var buf bytes.Buffer
	require.Error(t, Encode(m, &buf))
}

// TestDecodeRejectsUnknownGlobalTag exercises §4.2's "malformed ...
// fields ... are fatal load errors" guarantee for the global section.
func TestDecodeRejectsUnknownGlobalTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeU32(&buf, 0)) // n_strings
	require.NoError(t, writeU32(&buf, 1)) // n_globals
	require.NoError(t, writeU32(&buf, 0)) // code_size
	_, err := buf.Write([]byte{0})        // has_debug_info
	require.NoError(t, err)
	_, err = buf.Write([]byte{9}) // unknown global tag
	require.NoError(t, err)

	_, err = Decode(&buf)
	require.Error(t, err)
}
