package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/ast"
)

// TestParseUnaryBinaryPrecedence tests that unary messages have higher precedence than binary
func TestParseUnaryBinaryPrecedence(t *testing.T) {
	input := "arr size + 1"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	// Should be: (arr size) + 1
	// Top level is binary "+"
	msg, ok := stmt.Expression.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend, got %T", stmt.Expression)
	require.Equal(t, "+", msg.Selector)

	// Receiver should be (arr size)
	receiverMsg, ok := msg.Receiver.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend receiver, got %T", msg.Receiver)
	require.Equal(t, "size", receiverMsg.Selector)
}

// TestParseBinaryChaining tests that binary messages chain left-to-right
func TestParseBinaryChaining(t *testing.T) {
	input := "3 + 4 * 2"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	// Should be: (3 + 4) * 2
	// Top level is binary "*"
	msg, ok := stmt.Expression.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend, got %T", stmt.Expression)
	require.Equal(t, "*", msg.Selector)

	// Receiver should be (3 + 4)
	receiverMsg, ok := msg.Receiver.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend receiver, got %T", msg.Receiver)
	require.Equal(t, "+", receiverMsg.Selector)
}

// TestParseUnaryChaining tests that unary messages chain left-to-right
func TestParseUnaryChaining(t *testing.T) {
	input := "x sqrt floor"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	// Should be: (x sqrt) floor
	// Top level is unary "floor"
	msg, ok := stmt.Expression.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend, got %T", stmt.Expression)
	require.Equal(t, "floor", msg.Selector)

	// Receiver should be (x sqrt)
	receiverMsg, ok := msg.Receiver.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend receiver, got %T", msg.Receiver)
	require.Equal(t, "sqrt", receiverMsg.Selector)
}

// TestParseKeywordWithBinaryArg tests that keyword message arguments can be binary expressions
func TestParseKeywordWithBinaryArg(t *testing.T) {
	input := "arr at: index + 1"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	// Top level is keyword "at:"
	msg, ok := stmt.Expression.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend, got %T", stmt.Expression)
	require.Equal(t, "at:", msg.Selector)
	require.Len(t, msg.Args, 1)

	// Argument should be (index + 1)
	argMsg, ok := msg.Args[0].(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend argument, got %T", msg.Args[0])
	require.Equal(t, "+", argMsg.Selector)
}

// TestParseComplexPrecedence tests a complex expression with all three precedence levels
func TestParseComplexPrecedence(t *testing.T) {
	input := "point x: a + b y: c size"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	// Top level is keyword "x:y:"
	msg, ok := stmt.Expression.(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend, got %T", stmt.Expression)
	require.Equal(t, "x:y:", msg.Selector)
	require.Len(t, msg.Args, 2)

	// First argument should be (a + b)
	arg1Msg, ok := msg.Args[0].(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend first argument, got %T", msg.Args[0])
	require.Equal(t, "+", arg1Msg.Selector)

	// Second argument should be (c size)
	arg2Msg, ok := msg.Args[1].(*ast.MessageSend)
	require.True(t, ok, "expected MessageSend second argument, got %T", msg.Args[1])
	require.Equal(t, "size", arg2Msg.Selector)
}
