package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextToken_BasicTokens(t *testing.T) {
	input := `. | : := ^ ( ) [ ] # #(`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPeriod, "."},
		{TokenPipe, "|"},
		{TokenColon, ":"},
		{TokenAssign, ":="},
		{TokenCaret, "^"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenHash, "#"},
		{TokenHashLParen, "#("},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `+ - * / % < > <= >= = ~=`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenLess, "<"},
		{TokenGreater, ">"},
		{TokenLessEq, "<="},
		{TokenGreaterEq, ">="},
		{TokenEqual, "="},
		{TokenNotEqual, "~="},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Numbers(t *testing.T) {
	input := `42 3.14 -17 -2.5 100`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenFloat, "3.14"},
		{TokenInteger, "-17"},
		{TokenFloat, "-2.5"},
		{TokenInteger, "100"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Strings(t *testing.T) {
	input := `'Hello, World!' 'test' ''`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenString, "test"},
		{TokenString, ""},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `true false nil`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenNil, "nil"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Identifiers(t *testing.T) {
	input := `x count Point println ifTrue`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "count"},
		{TokenIdentifier, "Point"},
		{TokenIdentifier, "println"},
		{TokenIdentifier, "ifTrue"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Comments(t *testing.T) {
	input := `x " this is a comment " y`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_HelloWorld(t *testing.T) {
	input := `'Hello, World!' println.`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenIdentifier, "println"},
		{TokenPeriod, "."},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_VariableDeclaration(t *testing.T) {
	input := `| x y |
x := 10.
y := 20.`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPipe, "|"},
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenPipe, "|"},
		{TokenIdentifier, "x"},
		{TokenAssign, ":="},
		{TokenInteger, "10"},
		{TokenPeriod, "."},
		{TokenIdentifier, "y"},
		{TokenAssign, ":="},
		{TokenInteger, "20"},
		{TokenPeriod, "."},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_Arithmetic(t *testing.T) {
	input := `3 + 4 * 5`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "3"},
		{TokenPlus, "+"},
		{TokenInteger, "4"},
		{TokenStar, "*"},
		{TokenInteger, "5"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestTokenize_ValidInput(t *testing.T) {
	input := `'Hello' println.`

	l := New(input)
	tokens, err := l.Tokenize()
	require.NoError(t, err)
	require.Lenf(t, tokens, 4, "STRING, IDENTIFIER, PERIOD, EOF")

	expectedTypes := []TokenType{
		TokenString,
		TokenIdentifier,
		TokenPeriod,
		TokenEOF,
	}

	for i, expectedType := range expectedTypes {
		require.Equalf(t, expectedType, tokens[i].Type, "token %d", i)
	}
}

func TestTokenize_IllegalToken(t *testing.T) {
	input := `x ~ y` // ~ without = is illegal

	l := New(input)
	tokens, err := l.Tokenize()
	require.Error(t, err, "illegal token should fail Tokenize")
	// Should still return tokens up to the illegal one
	require.GreaterOrEqual(t, len(tokens), 2)
}

func TestLineAndColumn_Tracking(t *testing.T) {
	input := `x
y
z`

	l := New(input)

	tok1 := l.NextToken()
	require.EqualValues(t, 1, tok1.Line)

	tok2 := l.NextToken()
	require.EqualValues(t, 2, tok2.Line)

	tok3 := l.NextToken()
	require.EqualValues(t, 3, tok3.Line)
}

func TestNextToken_MultilineComment(t *testing.T) {
	input := `x " this is
a multi-line
comment " y`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken_NumberBeforePeriod(t *testing.T) {
	input := `42.`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenPeriod, "."},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong", i)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}
