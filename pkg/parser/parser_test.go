package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/smog/pkg/ast"
)

func TestParseIntegerLiteral(t *testing.T) {
	input := "42"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	intLit, ok := stmt.Expression.(*ast.IntegerLiteral)
	require.True(t, ok, "expected IntegerLiteral, got %T", stmt.Expression)
	require.EqualValues(t, 42, intLit.Value)
}

func TestParseFloatLiteral(t *testing.T) {
	input := "3.14"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	floatLit, ok := stmt.Expression.(*ast.FloatLiteral)
	require.True(t, ok, "expected FloatLiteral, got %T", stmt.Expression)
	require.Equal(t, 3.14, floatLit.Value)
}

func TestParseStringLiteral(t *testing.T) {
	input := "'Hello, World!'"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	strLit, ok := stmt.Expression.(*ast.StringLiteral)
	require.True(t, ok, "expected StringLiteral, got %T", stmt.Expression)
	require.Equal(t, "Hello, World!", strLit.Value)
}

func TestParseBooleanLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"false", false},
	}

	for _, tt := range tests {
		p := New(tt.input)
		program, err := p.Parse()
		require.NoError(t, err)
		require.Len(t, program.Statements, 1)

		stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
		require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

		boolLit, ok := stmt.Expression.(*ast.BooleanLiteral)
		require.True(t, ok, "expected BooleanLiteral, got %T", stmt.Expression)
		require.Equal(t, tt.expected, boolLit.Value)
	}
}

func TestParseNilLiteral(t *testing.T) {
	input := "nil"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	_, ok = stmt.Expression.(*ast.NilLiteral)
	require.True(t, ok, "expected NilLiteral, got %T", stmt.Expression)
}

func TestParseIdentifier(t *testing.T) {
	input := "println"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	ident, ok := stmt.Expression.(*ast.Identifier)
	require.True(t, ok, "expected Identifier, got %T", stmt.Expression)
	require.Equal(t, "println", ident.Name)
}

func TestParseMultipleStatements(t *testing.T) {
	input := `42.
'hello'.
true.`

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 3)

	stmt1, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])
	_, ok = stmt1.Expression.(*ast.IntegerLiteral)
	require.True(t, ok, "expected IntegerLiteral in first statement, got %T", stmt1.Expression)

	stmt2, ok := program.Statements[1].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[1])
	_, ok = stmt2.Expression.(*ast.StringLiteral)
	require.True(t, ok, "expected StringLiteral in second statement, got %T", stmt2.Expression)

	stmt3, ok := program.Statements[2].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[2])
	_, ok = stmt3.Expression.(*ast.BooleanLiteral)
	require.True(t, ok, "expected BooleanLiteral in third statement, got %T", stmt3.Expression)
}

func TestParseNegativeNumber(t *testing.T) {
	input := "-17"

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	intLit, ok := stmt.Expression.(*ast.IntegerLiteral)
	require.True(t, ok, "expected IntegerLiteral, got %T", stmt.Expression)
	require.EqualValues(t, -17, intLit.Value)
}

func TestParseWithComments(t *testing.T) {
	input := `" This is a comment "
42`

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected ExpressionStatement, got %T", program.Statements[0])

	intLit, ok := stmt.Expression.(*ast.IntegerLiteral)
	require.True(t, ok, "expected IntegerLiteral, got %T", stmt.Expression)
	require.EqualValues(t, 42, intLit.Value)
}

func TestParseClassDeclaration(t *testing.T) {
	input := `
class Counter
	| count |
	init [ count := 0 ]
	increment [ count := count + 1. ^count ]
end
`

	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, program.Statements, 1)

	cls, ok := program.Statements[0].(*ast.Class)
	require.True(t, ok, "expected Class, got %T", program.Statements[0])

	require.Equal(t, "Counter", cls.Name)
	require.Equal(t, []string{"count"}, cls.Fields)
	require.Len(t, cls.Methods, 2)
	require.Equal(t, "init", cls.Methods[0].Name)
	require.Equal(t, "increment", cls.Methods[1].Name)
}

func TestParseClassWithSuperclass(t *testing.T) {
	input := `
class Sub : Base
	greet [ ^1 ]
end
`
	p := New(input)
	program, err := p.Parse()
	require.NoError(t, err)

	cls, ok := program.Statements[0].(*ast.Class)
	require.True(t, ok, "expected Class, got %T", program.Statements[0])
	require.Equal(t, "Base", cls.SuperClass)
}
