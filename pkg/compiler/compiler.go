// Package compiler lowers a parsed smog program (pkg/ast) into a
// pkg/module.Module ready for pkg/vm to run: a flat code vector
// addressed absolutely, a global-slot table of Str/Float/Function
// constants, and a string pool shared by LoadBuiltin operands.
package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/value"
)

// Compiler turns one parsed Program into one Module. A Compiler value
// is single-use: call Compile once and discard it.
type Compiler struct {
	mod *module.Module

	stringIdx map[string]int
	globalStr map[string]int
	globalFlt map[float64]int

	tmpCounter int
}

// New returns a Compiler ready to compile a single program.
func New() *Compiler {
	return &Compiler{
		mod:       module.New("main"),
		stringIdx: make(map[string]int),
		globalStr: make(map[string]int),
		globalFlt: make(map[float64]int),
	}
}

// Compile lowers program into a complete Module.
func Compile(program *ast.Program) (*module.Module, error) {
	c := New()
	return c.Compile(program)
}

// Compile lowers program into c's Module.
func (c *Compiler) Compile(program *ast.Program) (*module.Module, error) {
	top := newScope(nil, false)

	// The program's statements compile exactly like a nested function
	// body: its locals are the VM's root frame, live for the whole run
	// (also where class objects live, since a prototype Object can
	// never be a module global — only Str/Float/Function can), and its
	// final expression's value is left on the stack for the top-level
	// Ret to return to the caller of Run.
	returned, err := c.compileBlockBody(program.Statements, top)
	if err != nil {
		return nil, err
	}
	if !returned {
		c.emit(bytecode.Ret)
	}
	return c.mod, nil
}

// compileNestedFunction compiles params/body as a standalone Function:
// its code is assembled into a private buffer (so nested functions can
// recursively do the same without disturbing the caller's in-progress
// instruction stream) and spliced into the enclosing stream only once
// fully emitted, behind a Jump that carries the enclosing code past it.
// At that point sc's capture list (if sc is a closure scope) is
// complete. fn.CodeOffset is relative to the enclosing buffer and is
// rebased again each time that buffer is itself spliced outward.
func (c *Compiler) compileNestedFunction(params []string, body []ast.Statement, sc *scope) (*value.Function, error) {
	firstGlobal := len(c.mod.Globals)
	saved := c.mod.Code
	c.mod.Code = nil

	for _, p := range params {
		sc.declareLocal(p)
	}
	returned, err := c.compileBlockBody(body, sc)
	if err == nil && !returned {
		c.emit(bytecode.Ret)
	}

	body2 := c.mod.Code
	c.mod.Code = saved
	if err != nil {
		return nil, err
	}

	// Branch targets in body2, and the offsets of functions nested in
	// it, were computed relative to body2; rebase them onto where it lands.
	skip := c.emitU32(bytecode.Jump, 0)
	offset := len(c.mod.Code)
	for _, inst := range body2 {
		switch inst.Op {
		case bytecode.Jump, bytecode.JumpIf, bytecode.JumpIfNot, bytecode.CatchPush:
			inst.Operand += int64(offset)
		}
		c.mod.Code = append(c.mod.Code, inst)
	}
	for _, g := range c.mod.Globals[firstGlobal:] {
		if nested, ok := g.(*value.Function); ok {
			nested.CodeOffset += offset
		}
	}
	c.patch(skip)

	fn := value.NewBytecodeFunction(offset, len(params), c.mod)
	return fn, nil
}

// compileBlockBody compiles stmts, leaving the value of the final
// expression (or Null, if body is empty or ends in a declaration) on
// the stack. It reports whether the last statement was itself a
// ReturnStatement, in which case Ret has already been emitted and the
// caller must not emit a trailing one.
func (c *Compiler) compileBlockBody(stmts []ast.Statement, sc *scope) (bool, error) {
	if len(stmts) == 0 {
		c.emit(bytecode.LoadNull)
		return false, nil
	}
	for i, stmt := range stmts {
		last := i == len(stmts)-1
		if !last {
			if err := c.compileStatement(stmt, sc); err != nil {
				return false, err
			}
			continue
		}
		switch s := stmt.(type) {
		case *ast.ExpressionStatement:
			if err := c.compileExpression(s.Expression, sc); err != nil {
				return false, err
			}
			return false, nil
		case *ast.ReturnStatement:
			if err := c.compileExpression(s.Value, sc); err != nil {
				return false, err
			}
			c.emit(bytecode.Ret)
			return true, nil
		default:
			if err := c.compileStatement(stmt, sc); err != nil {
				return false, err
			}
			c.emit(bytecode.LoadNull)
			return false, nil
		}
	}
	panic("unreachable")
}

func (c *Compiler) compileStatement(stmt ast.Statement, sc *scope) error {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		for _, name := range s.Names {
			sc.declareLocal(name)
		}
		return nil
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expression, sc); err != nil {
			return err
		}
		c.emitU16(bytecode.Pop, 1)
		return nil
	case *ast.ReturnStatement:
		if err := c.compileExpression(s.Value, sc); err != nil {
			return err
		}
		c.emit(bytecode.Ret)
		return nil
	case *ast.Class:
		return c.compileClass(s, sc)
	default:
		return fmt.Errorf("compiler: unsupported statement %T", stmt)
	}
}

// --- code emission helpers ---

func (c *Compiler) emit(op bytecode.Opcode) int {
	c.mod.Code = append(c.mod.Code, bytecode.Instruction{Op: op})
	return len(c.mod.Code) - 1
}

func (c *Compiler) emitU16(op bytecode.Opcode, operand int) int {
	c.mod.Code = append(c.mod.Code, bytecode.Instruction{Op: op, Operand: int64(operand)})
	return len(c.mod.Code) - 1
}

func (c *Compiler) emitU32(op bytecode.Opcode, operand int) int {
	c.mod.Code = append(c.mod.Code, bytecode.Instruction{Op: op, Operand: int64(operand)})
	return len(c.mod.Code) - 1
}

// patch backfills a forward jump/catch-push operand once its target
// address is known.
func (c *Compiler) patch(idx int) {
	c.mod.Code[idx].Operand = int64(len(c.mod.Code))
}

// --- constant pool helpers ---

func (c *Compiler) stringPoolIndex(s string) int {
	if idx, ok := c.stringIdx[s]; ok {
		return idx
	}
	idx := len(c.mod.Strings)
	c.mod.Strings = append(c.mod.Strings, s)
	c.stringIdx[s] = idx
	return idx
}

func (c *Compiler) globalStringIndex(s string) int {
	if idx, ok := c.globalStr[s]; ok {
		return idx
	}
	idx := len(c.mod.Globals)
	c.mod.Globals = append(c.mod.Globals, value.NewStr(s))
	c.globalStr[s] = idx
	return idx
}

func (c *Compiler) globalFloatIndex(f float64) int {
	if idx, ok := c.globalFlt[f]; ok {
		return idx
	}
	idx := len(c.mod.Globals)
	c.mod.Globals = append(c.mod.Globals, f)
	c.globalFlt[f] = idx
	return idx
}

func (c *Compiler) globalFuncIndex(fn *value.Function) int {
	idx := len(c.mod.Globals)
	c.mod.Globals = append(c.mod.Globals, fn)
	return idx
}

// newTempLocal allocates a scratch local slot used to hold a
// receiver's value across the two-load sequence a generic message
// send needs (once for the method lookup, once for ObjCall's receiver
// operand) without evaluating the receiver expression twice.
func (c *Compiler) newTempLocal(sc *scope) int {
	name := fmt.Sprintf("$tmp%d", c.tmpCounter)
	c.tmpCounter++
	return sc.declareLocal(name)
}

// emitLoadBinding emits the Load sequence for a previously resolved
// binding. bindField is handled by callers directly, since they
// already have the field's name in hand (not carried on binding).
func (c *Compiler) emitLoadBinding(b binding) {
	switch b.kind {
	case bindLocal:
		c.emitU16(bytecode.LoadLocal, b.slot)
	case bindEnv:
		c.emitU16(bytecode.LoadEnv, b.slot)
	case bindThis:
		c.emit(bytecode.LoadThis)
	}
}

// emitStoreBinding emits the Store sequence for a previously resolved
// binding, given that the value to store is already on top of stack.
func (c *Compiler) emitStoreBinding(b binding, name string) {
	switch b.kind {
	case bindLocal:
		c.emitU16(bytecode.StoreLocal, b.slot)
	case bindEnv:
		c.emitU16(bytecode.StoreEnv, b.slot)
	case bindThis:
		c.emit(bytecode.StoreThis)
	case bindField:
		c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(name))
		c.emit(bytecode.LoadThis)
		c.emit(bytecode.Store)
	}
}
