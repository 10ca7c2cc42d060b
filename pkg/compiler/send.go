package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/bytecode"
)

// binaryOpcodes maps the operator/keyword selectors the lexer and
// parser recognize to their dedicated opcode, bypassing the generic
// Load+ObjCall dispatch a plain message send would otherwise use.
var binaryOpcodes = map[string]bytecode.Opcode{
	"+": bytecode.Add, "-": bytecode.Sub, "*": bytecode.Mul, "/": bytecode.Div,
	"%": bytecode.Rem, "<": bytecode.Lt, ">": bytecode.Gt,
	"<=": bytecode.Lte, ">=": bytecode.Gte,
	"=": bytecode.Eq, "~=": bytecode.Neq, "!=": bytecode.Neq,
	"bitAnd:": bytecode.And, "bitOr:": bytecode.Or, "bitXor:": bytecode.Xor,
	"shiftLeft:": bytecode.Shl, "shiftRight:": bytecode.Shr, "shiftRightUnsigned:": bytecode.UShr,
}

// unaryOpcodes maps zero-argument selectors to a dedicated opcode
// applied to the receiver's value.
var unaryOpcodes = map[string]bytecode.Opcode{
	"isNil": bytecode.IsNull, "notNil": bytecode.IsNotNull,
	"not": bytecode.Not, "negated": bytecode.Neg, "hash": bytecode.Hash,
}

// isValueSelector recognizes the Smalltalk block-invocation family
// ("value", "value:", "value:value:", ...), each carrying exactly as
// many keyword parts as arguments.
func isValueSelector(selector string, argc int) bool {
	switch argc {
	case 0:
		return selector == "value"
	case 1:
		return selector == "value:"
	case 2:
		return selector == "value:value:"
	case 3:
		return selector == "value:value:value:"
	default:
		return false
	}
}

func (c *Compiler) compileMessageSend(m *ast.MessageSend, sc *scope) error {
	switch {
	case m.Selector == "new" && len(m.Args) == 0:
		if err := c.compileExpression(m.Receiver, sc); err != nil {
			return err
		}
		c.emit(bytecode.New)
		return nil

	case m.Selector == "signal" && len(m.Args) == 0:
		if err := c.compileExpression(m.Receiver, sc); err != nil {
			return err
		}
		c.emit(bytecode.Throw)
		return nil

	case isValueSelector(m.Selector, len(m.Args)):
		// "aBlock value" / "aBlock value: x" invoke a raw Function
		// value directly (plain Call, no receiver/property lookup —
		// blocks are not Objects). Call pops the callee first, so push
		// args, then the callee, last.
		for _, arg := range m.Args {
			if err := c.compileExpression(arg, sc); err != nil {
				return err
			}
		}
		if err := c.compileExpression(m.Receiver, sc); err != nil {
			return err
		}
		c.emitU16(bytecode.Call, len(m.Args))
		return nil

	case m.Selector == "on:do:" && len(m.Args) == 2:
		if protected, ok := m.Receiver.(*ast.BlockLiteral); ok {
			if handler, ok := m.Args[1].(*ast.BlockLiteral); ok {
				return c.compileOnDo(protected, handler, sc)
			}
		}

	case len(m.Args) == 1 && (m.Selector == "ifTrue:" || m.Selector == "ifFalse:"):
		if thenOrElse, ok := m.Args[0].(*ast.BlockLiteral); ok {
			return c.compileIfSingle(m.Receiver, thenOrElse, m.Selector == "ifFalse:", sc)
		}

	case m.Selector == "ifTrue:ifFalse:" && len(m.Args) == 2:
		thenBlk, ok1 := m.Args[0].(*ast.BlockLiteral)
		elseBlk, ok2 := m.Args[1].(*ast.BlockLiteral)
		if ok1 && ok2 {
			return c.compileIfElse(m.Receiver, thenBlk, elseBlk, sc)
		}

	case m.Selector == "whileTrue:" && len(m.Args) == 1:
		condBlk, ok1 := m.Receiver.(*ast.BlockLiteral)
		bodyBlk, ok2 := m.Args[0].(*ast.BlockLiteral)
		if ok1 && ok2 {
			return c.compileWhileTrue(condBlk, bodyBlk, sc)
		}

	case m.Selector == "at:" && len(m.Args) == 1:
		// Load's convention: push key, then container (popped first).
		if err := c.compileExpression(m.Args[0], sc); err != nil {
			return err
		}
		if err := c.compileExpression(m.Receiver, sc); err != nil {
			return err
		}
		c.emit(bytecode.Load)
		return nil

	case m.Selector == "at:put:" && len(m.Args) == 2:
		// Store's convention: push value, key, then container.
		if err := c.compileExpression(m.Args[1], sc); err != nil {
			return err
		}
		if err := c.compileExpression(m.Args[0], sc); err != nil {
			return err
		}
		if err := c.compileExpression(m.Receiver, sc); err != nil {
			return err
		}
		c.emit(bytecode.Store)
		return nil

	case len(m.Args) == 1:
		if op, ok := binaryOpcodes[m.Selector]; ok {
			// Worked example: "a op b compiles to push b; push a;
			// <Op>" — rhs pushed first, lhs last (on top, popped
			// first by execBinary).
			if err := c.compileExpression(m.Args[0], sc); err != nil {
				return err
			}
			if err := c.compileExpression(m.Receiver, sc); err != nil {
				return err
			}
			c.emit(op)
			return nil
		}

	case len(m.Args) == 0:
		if op, ok := unaryOpcodes[m.Selector]; ok {
			if err := c.compileExpression(m.Receiver, sc); err != nil {
				return err
			}
			c.emit(op)
			return nil
		}
	}

	return c.compileGenericSend(m, sc)
}

// compileGenericSend implements ordinary Smalltalk dispatch: look the
// selector up as a property on the receiver (reusing Load) and invoke
// it with ObjCall. The receiver is evaluated once into a scratch local
// so its value can feed both the property lookup and the call's
// receiver operand.
func (c *Compiler) compileGenericSend(m *ast.MessageSend, sc *scope) error {
	if err := c.compileExpression(m.Receiver, sc); err != nil {
		return err
	}
	tmp := c.newTempLocal(sc)
	c.emitU16(bytecode.StoreLocal, tmp)

	for _, arg := range m.Args {
		if err := c.compileExpression(arg, sc); err != nil {
			return err
		}
	}

	c.emitU16(bytecode.LoadLocal, tmp) // receiver operand for ObjCall
	c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(m.Selector))
	c.emitU16(bytecode.LoadLocal, tmp) // container for Load
	c.emit(bytecode.Load)

	c.emitU16(bytecode.ObjCall, len(m.Args))
	return nil
}

// compileInline compiles a block's body directly into the current
// function, sharing sc rather than introducing a new closure frame —
// used for ifTrue:/ifFalse:/whileTrue:/on:do:, none of which need a
// real Function value. Parameters, if any, must already have their
// value on top of stack; it is popped into a fresh local before the
// body runs.
func (c *Compiler) compileInline(block *ast.BlockLiteral, sc *scope) error {
	for _, p := range block.Parameters {
		slot := sc.declareLocal(p)
		c.emitU16(bytecode.StoreLocal, slot)
	}
	_, err := c.compileBlockBody(block.Body, sc)
	return err
}

func (c *Compiler) compileIfSingle(cond ast.Expression, blk *ast.BlockLiteral, negate bool, sc *scope) error {
	if err := c.compileExpression(cond, sc); err != nil {
		return err
	}
	var skip int
	if negate {
		skip = c.emitU32(bytecode.JumpIf, 0)
	} else {
		skip = c.emitU32(bytecode.JumpIfNot, 0)
	}
	if err := c.compileInline(blk, sc); err != nil {
		return err
	}
	after := c.emitU32(bytecode.Jump, 0)
	c.patch(skip)
	c.emit(bytecode.LoadNull)
	c.patch(after)
	return nil
}

func (c *Compiler) compileIfElse(cond ast.Expression, thenBlk, elseBlk *ast.BlockLiteral, sc *scope) error {
	if err := c.compileExpression(cond, sc); err != nil {
		return err
	}
	toElse := c.emitU32(bytecode.JumpIfNot, 0)
	if err := c.compileInline(thenBlk, sc); err != nil {
		return err
	}
	toAfter := c.emitU32(bytecode.Jump, 0)
	c.patch(toElse)
	if err := c.compileInline(elseBlk, sc); err != nil {
		return err
	}
	c.patch(toAfter)
	return nil
}

func (c *Compiler) compileWhileTrue(condBlk, bodyBlk *ast.BlockLiteral, sc *scope) error {
	loopStart := len(c.mod.Code)
	if err := c.compileInline(condBlk, sc); err != nil {
		return err
	}
	exit := c.emitU32(bytecode.JumpIfNot, 0)
	if err := c.compileInline(bodyBlk, sc); err != nil {
		return err
	}
	c.emitU16(bytecode.Pop, 1)
	c.emitU32(bytecode.Jump, loopStart)
	c.patch(exit)
	c.emit(bytecode.LoadNull)
	return nil
}

// compileOnDo implements try/catch: CatchPush installs a handler that,
// on any Throw (the exception-class argument of on:do: is neither
// compiled nor checked), restores this frame and pushes the thrown
// value, which is then bound to the handler block's parameter.
func (c *Compiler) compileOnDo(protected, handler *ast.BlockLiteral, sc *scope) error {
	if len(handler.Parameters) > 1 {
		return fmt.Errorf("compiler: on:do: handler blocks take at most one parameter")
	}
	catch := c.emitU32(bytecode.CatchPush, 0)
	if err := c.compileInline(protected, sc); err != nil {
		return err
	}
	after := c.emitU32(bytecode.Jump, 0)
	c.patch(catch)
	if err := c.compileInline(handler, sc); err != nil {
		return err
	}
	c.patch(after)
	return nil
}
