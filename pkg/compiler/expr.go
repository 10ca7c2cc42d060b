package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/bytecode"
)

func (c *Compiler) compileExpression(expr ast.Expression, sc *scope) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emitInt(e.Value)
		return nil
	case *ast.FloatLiteral:
		c.emitU32(bytecode.LoadGlobal, c.globalFloatIndex(e.Value))
		return nil
	case *ast.StringLiteral:
		c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(e.Value))
		return nil
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(bytecode.LoadTrue)
		} else {
			c.emit(bytecode.LoadFalse)
		}
		return nil
	case *ast.NilLiteral:
		c.emit(bytecode.LoadNull)
		return nil
	case *ast.Identifier:
		return c.compileIdentifier(e.Name, sc)
	case *ast.Assignment:
		return c.compileAssignment(e, sc)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpression(el, sc); err != nil {
				return err
			}
		}
		c.emitU16(bytecode.MakeArray, len(e.Elements))
		return nil
	case *ast.BlockLiteral:
		return c.compileBlockLiteral(e, sc)
	case *ast.MessageSend:
		return c.compileMessageSend(e, sc)
	default:
		return fmt.Errorf("compiler: unsupported expression %T", expr)
	}
}

// emitInt emits the 8-byte-operand LoadInt instruction directly,
// rather than through emitU32/emitU16, since its payload is u64.
func (c *Compiler) emitInt(v int64) {
	c.mod.Code = append(c.mod.Code, bytecode.Instruction{Op: bytecode.LoadInt, Operand: v})
}

// compileIdentifier resolves name against the lexical scope chain
// (locals, captured free variables, this, enclosing class fields, in
// that order) and falls back to a builtin lookup by name.
func (c *Compiler) compileIdentifier(name string, sc *scope) error {
	if b, ok := sc.resolve(name); ok {
		if b.kind == bindField {
			c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(name))
			c.emit(bytecode.LoadThis)
			c.emit(bytecode.Load)
			return nil
		}
		c.emitLoadBinding(b)
		return nil
	}
	c.emitU32(bytecode.LoadBuiltin, c.stringPoolIndex(name))
	return nil
}

func (c *Compiler) compileAssignment(a *ast.Assignment, sc *scope) error {
	if err := c.compileExpression(a.Value, sc); err != nil {
		return err
	}
	if b, ok := sc.resolve(a.Name); ok {
		c.emitStoreBinding(b, a.Name)
		// Every store opcode consumes its operand; reload the binding so
		// the assignment, as an expression, leaves the assigned value.
		return c.compileIdentifier(a.Name, sc)
	}
	return fmt.Errorf("compiler: assignment to unknown name %q", a.Name)
}

// compileBlockLiteral compiles a block expression into a real closure:
// a standalone Function whose body is compiled first (so its free
// variables are resolved and its capture list finalized) and whose
// current free-variable values are then captured into an env array at
// the point the literal is evaluated, via MakeEnv. Per §3's in-place
// env-mutation invariant, each BlockLiteral AST node owns exactly one
// Function value — evaluating the literal again before an earlier
// closure instance escapes rebinds the same env array out from under
// it; this is an accepted consequence of the wire format having no
// "clone function" opcode.
func (c *Compiler) compileBlockLiteral(b *ast.BlockLiteral, sc *scope) error {
	inner := newScope(sc, true)
	fn, err := c.compileNestedFunction(b.Parameters, b.Body, inner)
	if err != nil {
		return err
	}
	fn.Name = "block"

	for _, name := range inner.captures {
		if err := c.loadCaptured(name, sc); err != nil {
			return err
		}
	}
	c.emitU32(bytecode.LoadGlobal, c.globalFuncIndex(fn))
	c.emitU16(bytecode.MakeEnv, len(inner.captures))
	return nil
}

// loadCaptured emits the load sequence, in the defining scope, for one
// of a nested closure's free variables.
func (c *Compiler) loadCaptured(name string, sc *scope) error {
	b, ok := sc.resolve(name)
	if !ok {
		return fmt.Errorf("compiler: closure capture %q not found in enclosing scope", name)
	}
	if b.kind == bindField {
		c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(name))
		c.emit(bytecode.LoadThis)
		c.emit(bytecode.Load)
		return nil
	}
	c.emitLoadBinding(b)
	return nil
}
