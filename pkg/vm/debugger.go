package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// Debugger provides an interactive, breakpoint/step debugger over a VM,
// driven from the `run --debug` / `repl` CLI subcommands. It inspects
// the VM's own fields rather than mirroring its own copy of the call
// stack, so there is exactly one source of truth for what is executing.
type Debugger struct {
	breakpoints map[int]bool
	stepMode    bool
	enabled     bool

	line     *liner.State
	useColor bool
	label    *color.Color
}

// NewDebugger returns a disabled Debugger. Call Enable to activate it
// before running a module.
func NewDebugger() *Debugger {
	return &Debugger{
		breakpoints: make(map[int]bool),
		line:        liner.NewLiner(),
		useColor:    isatty.IsTerminal(uintFd()),
		label:       color.New(color.FgCyan, color.Bold),
	}
}

// uintFd exists only so the isatty check below compiles without pulling
// in os.Stdout.Fd()'s platform-specific return type at two call sites.
func uintFd() uintptr { return 1 }

// Close releases the underlying liner terminal state; callers should
// defer this once done debugging.
func (d *Debugger) Close() error { return d.line.Close() }

// Enable activates the debugger.
func (d *Debugger) Enable() { d.enabled = true }

// Disable deactivates the debugger; step calls become plain pass-throughs.
func (d *Debugger) Disable() { d.enabled = false }

// Enabled reports whether the debugger is currently active.
func (d *Debugger) Enabled() bool { return d.enabled }

// SetStepMode enables or disables single-step pausing.
func (d *Debugger) SetStepMode(enabled bool) { d.stepMode = enabled }

// AddBreakpoint pauses execution before the instruction at ip.
func (d *Debugger) AddBreakpoint(ip int) { d.breakpoints[ip] = true }

// RemoveBreakpoint clears a previously set breakpoint.
func (d *Debugger) RemoveBreakpoint(ip int) { delete(d.breakpoints, ip) }

// ClearBreakpoints removes every breakpoint.
func (d *Debugger) ClearBreakpoints() { d.breakpoints = make(map[int]bool) }

// beforeInstruction is called by the VM's step loop just before
// executing the instruction at index. Returning false aborts
// interpretation (the "quit" debugger command).
func (d *Debugger) beforeInstruction(vm *VM, index int, instr bytecode.Instruction) bool {
	if !d.stepMode && !d.breakpoints[index] {
		return true
	}
	d.showInstruction(vm, index, instr)
	return d.prompt(vm)
}

func (d *Debugger) colorize(c *color.Color, format string, args ...interface{}) string {
	if !d.useColor {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}

func (d *Debugger) showInstruction(vm *VM, index int, instr bytecode.Instruction) {
	fmt.Println(d.colorize(d.label, "\n=== paused at %d ===", index))
	fmt.Printf("  %4d: %s", index, instr.Op)
	if instr.Operand != 0 {
		fmt.Printf(" %d", instr.Operand)
	}
	fmt.Println()
}

// prompt drives the interactive command loop while execution is
// paused, returning the continueExecution decision the VM's step loop
// expects.
func (d *Debugger) prompt(vm *VM) bool {
	for {
		input, err := d.line.Prompt("debug> ")
		if err != nil {
			return false
		}
		d.line.AppendHistory(input)

		parts := strings.Fields(strings.TrimSpace(input))
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return true
		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true
		case "stack", "st":
			d.showStack(vm)
		case "locals", "l":
			d.showLocals(vm)
		case "callstack", "cs":
			d.showCallStack(vm)
		case "list", "ls":
			d.listInstructions(vm)
		case "breakpoint", "b":
			d.editBreakpoint(parts, d.AddBreakpoint, "added")
		case "delete", "d":
			d.editBreakpoint(parts, d.RemoveBreakpoint, "removed")
		case "quit", "q":
			return false
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

func (d *Debugger) editBreakpoint(parts []string, apply func(int), verb string) {
	if len(parts) < 2 {
		fmt.Printf("usage: %s <instruction_index>\n", parts[0])
		return
	}
	ip, err := strconv.Atoi(parts[1])
	if err != nil {
		fmt.Println("invalid instruction index")
		return
	}
	apply(ip)
	fmt.Printf("breakpoint %s at %d\n", verb, ip)
}

func (d *Debugger) showStack(vm *VM) {
	fmt.Println("value stack (top to bottom):")
	if len(vm.stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := len(vm.stack) - 1; i >= 0; i-- {
		fmt.Printf("  [%d] %s\n", i, spewValue(vm.stack[i]))
	}
}

func (d *Debugger) showLocals(vm *VM) {
	fmt.Println("locals:")
	if len(vm.locals) == 0 {
		fmt.Println("  (none set)")
		return
	}
	for slot, v := range vm.locals {
		fmt.Printf("  [%d] %s\n", slot, spewValue(v))
	}
}

func (d *Debugger) showCallStack(vm *VM) {
	fmt.Println("call stack (top to bottom):")
	if len(vm.frames) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.IsExit {
			fmt.Printf("  [%d] <exit frame>\n", i)
			continue
		}
		fmt.Printf("  [%d] %s resume@%d\n", i, f.Name, f.PC)
	}
}

func (d *Debugger) listInstructions(vm *VM) {
	fmt.Println("instructions:")
	for i, instr := range vm.module.Code {
		marker := "  "
		if i == vm.pc {
			marker = "->"
		} else if d.breakpoints[i] {
			marker = "* "
		}
		fmt.Printf("%s %4d: %s", marker, i, instr.Op)
		if instr.Operand != 0 {
			fmt.Printf(" %d", instr.Operand)
		}
		fmt.Println()
	}
}

func (d *Debugger) printHelp() {
	fmt.Println("debugger commands:")
	fmt.Println("  help, h, ?              show this help")
	fmt.Println("  continue, c             resume execution")
	fmt.Println("  step, s / next, n       pause again after the next instruction")
	fmt.Println("  stack, st               show the value stack")
	fmt.Println("  locals, l               show the current locals")
	fmt.Println("  callstack, cs           show the call-frame stack")
	fmt.Println("  list, ls                disassemble the running module")
	fmt.Println("  breakpoint, b <n>       break before instruction n")
	fmt.Println("  delete, d <n>           remove a breakpoint")
	fmt.Println("  quit, q                 abort execution")
}

// spewValue renders a Value for debugger output: scalars print plainly,
// heap cells get a structured dump (davecgh/go-spew) since their
// Go-native %v rendering includes the embedded Header noise.
func spewValue(v value.Value) string {
	switch v.(type) {
	case nil, bool, int64, float64:
		return fmt.Sprintf("%v (%s)", v, value.TypeName(v))
	default:
		return fmt.Sprintf("%s: %s", value.TypeName(v), strings.TrimSpace(spew.Sdump(v)))
	}
}
