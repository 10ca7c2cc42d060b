package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/parser"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

// run parses, compiles, and executes input on a fresh VM, returning the
// value left on top of stack by the implicit program-level Ret.
func run(t *testing.T, input string) value.Value {
	t.Helper()
	p := parser.New(input)
	program, err := p.Parse()
	require.NoError(t, err, "parse failed")

	m, err := Compile(program)
	require.NoError(t, err, "compile failed")

	result, err := vm.New(vm.Config{}).Run(m)
	require.NoError(t, err, "run failed")
	return result
}

func TestCompileIntegerLiteral(t *testing.T) {
	result := run(t, "42.")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 42, n)
}

func TestCompileArithmetic(t *testing.T) {
	cases := map[string]int64{
		"3 + 4.":       7,
		"10 - 3.":      7,
		"6 * 7.":       42,
		"20 / 4.":      5,
		"(2 + 3) * 4.": 20,
	}
	for src, want := range cases {
		got := run(t, src)
		n, ok := got.(int64)
		require.Truef(t, ok, "%q: expected int64, got %#v", src, got)
		require.Equalf(t, want, n, "%q", src)
	}
}

func TestCompileVariables(t *testing.T) {
	result := run(t, "| x | x := 10. x + 5.")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 15, n)
}

func TestCompileIfTrueIfFalse(t *testing.T) {
	result := run(t, "| x | x := 1. (x = 1) ifTrue: [99] ifFalse: [0].")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 99, n)
}

func TestCompileWhileTrue(t *testing.T) {
	result := run(t, "| i sum | i := 0. sum := 0. [i < 5] whileTrue: [sum := sum + i. i := i + 1]. sum.")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 10, n)
}

func TestCompileBlockValue(t *testing.T) {
	result := run(t, "| add | add := [:a :b | a + b]. (add value: 3 value: 4).")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 7, n)
}

func TestCompileClosureCapture(t *testing.T) {
	result := run(t, "| makeAdder add5 | makeAdder := [:n | [:x | x + n]]. add5 := makeAdder value: 5. add5 value: 10.")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 15, n)
}

func TestCompileArrayAtPut(t *testing.T) {
	result := run(t, "| a | a := Array new. a at: 0 put: 7. a at: 0.")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 7, n)
}

func TestCompileOnDoHandlesSignal(t *testing.T) {
	result := run(t, "[ Error new signal ] on: Error do: [:e | 123 ].")
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 123, n)
}

func TestCompileClassMethodAndSelf(t *testing.T) {
	src := `
class Counter
	| count |
	init [ count := 0 ]
	increment [ count := count + 1. ^count ]
end

| c |
c := Counter new.
c init.
c increment.
c increment.
c increment.
`
	result := run(t, src)
	n, ok := result.(int64)
	require.True(t, ok, "expected int64, got %#v", result)
	require.EqualValues(t, 3, n)
}
