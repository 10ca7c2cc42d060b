package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/bytecode"
)

// compileClass builds a prototype Object for cls at the point the
// class statement appears (New, chained to the superclass's object if
// named), stores it in a fresh top-level local keyed by the class
// name — classes cannot be module globals since only Str/Float/
// Function are valid global shapes — and installs each compiled
// Method as a property on that object.
func (c *Compiler) compileClass(cls *ast.Class, top *scope) error {
	if cls.SuperClass != "" {
		b, ok := top.resolve(cls.SuperClass)
		if !ok {
			return fmt.Errorf("compiler: class %s references unknown superclass %s", cls.Name, cls.SuperClass)
		}
		c.emitLoadBinding(b)
	} else {
		c.emit(bytecode.LoadNull)
	}
	c.emit(bytecode.New)

	slot := top.declareLocal(cls.Name)
	c.emitU16(bytecode.StoreLocal, slot)

	for _, method := range cls.Methods {
		if err := c.compileMethod(cls, method, slot); err != nil {
			return err
		}
	}
	return nil
}

// compileMethod compiles one method body as a standalone Function
// (methods never close over anything but self/fields/builtins — they
// have no parent scope) and installs it as a property on the class
// object held in the top-level local at classSlot.
func (c *Compiler) compileMethod(cls *ast.Class, method *ast.Method, classSlot int) error {
	methodScope := newScope(nil, false)
	methodScope.fields = cls.Fields

	fn, err := c.compileNestedFunction(method.Parameters, method.Body, methodScope)
	if err != nil {
		return err
	}
	fn.Name = cls.Name + "." + method.Name

	c.emitU32(bytecode.LoadGlobal, c.globalFuncIndex(fn)) // value
	c.emitU32(bytecode.LoadGlobal, c.globalStringIndex(method.Name)) // key
	c.emitU16(bytecode.LoadLocal, classSlot)                         // container
	c.emit(bytecode.Store)
	return nil
}
