// Package ast defines the Abstract Syntax Tree nodes for smog.
package ast

// Node is the interface that all AST nodes implement
type Node interface {
	TokenLiteral() string
}

// Expression represents an expression node
type Expression interface {
	Node
	expressionNode()
}

// Statement represents a statement node
type Statement interface {
	Node
	statementNode()
}

// Program represents the root node of the AST
type Program struct {
	Statements []Statement
}

// TokenLiteral returns the token literal
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Class represents a class definition: a named prototype object whose
// own properties are its Methods (compiled closures bound to `self`),
// optionally delegating to SuperClass's prototype.
type Class struct {
	Name       string
	SuperClass string
	Methods    []*Method
	Fields     []string
}

// TokenLiteral returns the token literal
func (c *Class) TokenLiteral() string { return "class" }
func (c *Class) statementNode()       {}

// Method represents a method definition
type Method struct {
	Name       string
	Parameters []string
	Body       []Statement
}

// TokenLiteral returns the token literal
func (m *Method) TokenLiteral() string { return "method" }

// MessageSend represents a message send expression: receiver selector
// [args...]. Compilation dispatches on Selector — most selectors become
// a property lookup plus ObjCall, but the arithmetic/comparison/bitwise
// operators, "new", and the "on:do:"/"signal" exception idioms are
// recognized directly and compiled to their dedicated opcodes.
type MessageSend struct {
	Receiver Expression
	Selector string
	Args     []Expression
}

// TokenLiteral returns the token literal
func (m *MessageSend) TokenLiteral() string { return m.Selector }
func (m *MessageSend) expressionNode()      {}

// IntegerLiteral is a whole-number literal, compiled to LoadInt.
type IntegerLiteral struct {
	Value int64
}

func (n *IntegerLiteral) TokenLiteral() string { return "int" }
func (n *IntegerLiteral) expressionNode()      {}

// FloatLiteral is a floating-point literal, compiled to a Float module
// global loaded via LoadGlobal.
type FloatLiteral struct {
	Value float64
}

func (n *FloatLiteral) TokenLiteral() string { return "float" }
func (n *FloatLiteral) expressionNode()      {}

// StringLiteral is a quoted string literal, compiled to a Str module
// global loaded via LoadGlobal.
type StringLiteral struct {
	Value string
}

func (n *StringLiteral) TokenLiteral() string { return "string" }
func (n *StringLiteral) expressionNode()      {}

// BooleanLiteral compiles to LoadTrue/LoadFalse.
type BooleanLiteral struct {
	Value bool
}

func (n *BooleanLiteral) TokenLiteral() string { return "bool" }
func (n *BooleanLiteral) expressionNode()      {}

// NilLiteral compiles to LoadNull.
type NilLiteral struct{}

func (n *NilLiteral) TokenLiteral() string { return "nil" }
func (n *NilLiteral) expressionNode()      {}

// Identifier is a variable reference, resolved against the enclosing
// scope chain (locals, captured free variables, class fields) at compile
// time, falling back to a builtin lookup by name.
type Identifier struct {
	Name string
}

func (n *Identifier) TokenLiteral() string { return n.Name }
func (n *Identifier) expressionNode()      {}

// Assignment binds Value to the variable named Name, resolved with the
// same scope-chain priority as Identifier.
type Assignment struct {
	Name  string
	Value Expression
}

func (n *Assignment) TokenLiteral() string { return ":=" }
func (n *Assignment) expressionNode()      {}

// VariableDeclaration introduces one or more local names in the
// current scope (method, block, or top-level program).
type VariableDeclaration struct {
	Names []string
}

func (n *VariableDeclaration) TokenLiteral() string { return "|...|" }
func (n *VariableDeclaration) statementNode()       {}

// ExpressionStatement wraps an expression evaluated for its value (or
// side effect) with the result discarded via Pop.
type ExpressionStatement struct {
	Expression Expression
}

func (n *ExpressionStatement) TokenLiteral() string { return n.Expression.TokenLiteral() }
func (n *ExpressionStatement) statementNode()       {}

// ReturnStatement (`^expr`) compiles to evaluating Value followed by
// Ret, exiting the enclosing method or block.
type ReturnStatement struct {
	Value Expression
}

func (n *ReturnStatement) TokenLiteral() string { return "^" }
func (n *ReturnStatement) statementNode()       {}

// BlockLiteral (`[:x | ...]`) is a closure: Parameters become locals 0..n-1,
// and any free identifier resolved from an enclosing scope is captured
// into the compiled Function's env array via MakeEnv.
type BlockLiteral struct {
	Parameters []string
	Body       []Statement
}

func (n *BlockLiteral) TokenLiteral() string { return "[...]" }
func (n *BlockLiteral) expressionNode()      {}

// ArrayLiteral (`#(1 2 3)`) compiles to MakeArray.
type ArrayLiteral struct {
	Elements []Expression
}

func (n *ArrayLiteral) TokenLiteral() string { return "#(...)" }
func (n *ArrayLiteral) expressionNode()      {}
