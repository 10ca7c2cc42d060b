// Command smog is the reference CLI: it parses and compiles smog
// source, runs compiled modules on pkg/vm, and offers a REPL and a
// disassembler for inspecting what the compiler produced.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fatih/color"
	"github.com/naoina/toml"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/smog/pkg/ast"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/module"
	"github.com/kristofer/smog/pkg/parser"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

const version = "0.5.0"

// tomlSettings mirrors the field-name-is-key convention used to decode
// an optional smog.toml: struct field names are taken verbatim as TOML
// keys, and an unrecognized key is a hard error rather than silently
// ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field %q is not defined in %s", field, rt.String())
	},
}

// fileConfig is the shape of an optional TOML config file passed via
// --config; any value also settable by flag is overridden by an
// explicitly-set flag.
type fileConfig struct {
	GCThreshold int
	Debug       bool
}

var (
	gcThresholdFlag = cli.IntFlag{
		Name:  "gc-threshold",
		Usage: "allocations between automatic GC cycles (0 disables automatic collection)",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "attach the interactive breakpoint/step debugger",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "smog"
	app.Usage = "compile and run smog programs"
	app.Version = version
	app.Flags = []cli.Flag{gcThresholdFlag, debugFlag, configFlag}
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "parse+compile (.smog) or load (.smogc) and execute a module",
			ArgsUsage: "<file>",
			Action:    runCommand,
		},
		{
			Name:      "compile",
			Usage:     "compile a .smog source file to a .smogc bytecode file",
			ArgsUsage: "<input.smog> [output.smogc]",
			Action:    compileCommand,
		},
		{
			Name:      "disasm",
			Usage:     "print a human-readable disassembly of a .smogc file",
			ArgsUsage: "<file.smogc>",
			Action:    disasmCommand,
		},
		{
			Name:   "repl",
			Usage:  "start an interactive read-compile-run loop",
			Action: replCommand,
		},
	}
	app.Action = func(ctx *cli.Context) error {
		if ctx.NArg() == 0 {
			return replCommand(ctx)
		}
		return runFile(ctx, ctx.Args().Get(0))
	}

	if err := app.Run(os.Args); err != nil {
		printFatal(err)
		os.Exit(1)
	}
}

// loadConfig merges an optional --config TOML file under explicit
// flags: the file supplies defaults, flags set on the command line
// always win.
func loadConfig(ctx *cli.Context) (vm.Config, bool, error) {
	var fc fileConfig
	if path := ctx.GlobalString(configFlag.Name); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return vm.Config{}, false, err
		}
		defer f.Close()
		if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&fc); err != nil {
			return vm.Config{}, false, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg := vm.Config{GCThreshold: fc.GCThreshold}
	debug := fc.Debug
	if ctx.GlobalIsSet(gcThresholdFlag.Name) {
		cfg.GCThreshold = ctx.GlobalInt(gcThresholdFlag.Name)
	}
	if ctx.GlobalIsSet(debugFlag.Name) {
		debug = ctx.GlobalBool(debugFlag.Name)
	}
	return cfg, debug, nil
}

func newVM(ctx *cli.Context) (*vm.VM, error) {
	cfg, debug, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	v := vm.New(cfg)
	if debug {
		d := vm.NewDebugger()
		d.Enable()
		v.EnableDebugger(d)
	}
	return v, nil
}

func runCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("usage: smog run <file>", 2)
	}
	return runFile(ctx, ctx.Args().Get(0))
}

func runFile(ctx *cli.Context, filename string) error {
	m, err := loadModule(filename)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	v, err := newVM(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if _, err := v.Run(m); err != nil {
		printFatal(err)
		return cli.NewExitError("", exitCodeFor(err))
	}
	return nil
}

// loadModule compiles a .smog source file, or decodes a .smogc
// bytecode file, based on extension.
func loadModule(filename string) (*module.Module, error) {
	if filepath.Ext(filename) == ".smogc" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return module.Decode(f)
	}
	prog, err := parseFile(filename)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(prog)
}

func parseFile(filename string) (*ast.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	p := parser.New(string(data))
	prog, err := p.Parse()
	if err != nil {
		if errs := p.Errors(); len(errs) > 0 {
			return nil, fmt.Errorf("%s: %v", filename, errs)
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}

func compileCommand(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: smog compile <input.smog> [output.smogc]", 2)
	}
	input := ctx.Args().Get(0)
	output := ctx.Args().Get(1)
	if output == "" {
		output = input[:len(input)-len(filepath.Ext(input))] + ".smogc"
	}

	prog, err := parseFile(input)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	m, err := compiler.Compile(prog)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("compile error: %v", err), 1)
	}

	out, err := os.Create(output)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer out.Close()
	if err := module.Encode(m, out); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Printf("compiled %s -> %s\n", input, output)
	return nil
}

func disasmCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("usage: smog disasm <file.smogc>", 2)
	}
	f, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer f.Close()

	m, err := module.Decode(f)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	printDisassembly(m)
	return nil
}

func printDisassembly(m *module.Module) {
	bold := color.New(color.Bold)
	bold.Printf("module %s (%s)\n", m.Name, m.ID)

	bold.Println("strings:")
	for i, s := range m.Strings {
		fmt.Printf("  [%d] %q\n", i, s)
	}

	bold.Println("globals:")
	for i, g := range m.Globals {
		fmt.Printf("  [%d] %s\n", i, value.Stringify(g))
	}

	bold.Println("code:")
	for i, instr := range m.Code {
		fmt.Printf("  %5d  %-14s %d\n", i, instr.Op, instr.Operand)
	}
}

// replCommand drives one VM across successive inputs, each terminated
// by a blank line. Every input is parsed and compiled afresh and run on
// its own (Run resets the top-level locals, so bindings do not carry
// over), read through a liner-backed line editor like the one the
// debugger uses for its prompt.
func replCommand(ctx *cli.Context) error {
	v, err := newVM(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	line := liner.NewLiner()
	defer line.Close()

	fmt.Printf("smog %s — blank line runs the buffered input, Ctrl-D exits\n", version)
	var buf string
	for {
		prompt := "smog> "
		if buf != "" {
			prompt = "  ...> "
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			fmt.Println()
			return nil
		}
		if input == "" && buf == "" {
			continue
		}
		if input == "" {
			evalREPL(v, buf)
			line.AppendHistory(buf)
			buf = ""
			continue
		}
		if buf == "" {
			buf = input
		} else {
			buf = buf + "\n" + input
		}
	}
}

func evalREPL(v *vm.VM, input string) {
	p := parser.New(input)
	prog, err := p.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return
	}
	m, err := compiler.Compile(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		return
	}
	result, err := v.Run(m)
	if err != nil {
		printFatal(err)
		return
	}
	if result != nil {
		fmt.Printf("=> %s\n", value.Stringify(result))
	}
}

func printFatal(err error) {
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, "%v\n", err)
}

func exitCodeFor(err error) int {
	if _, ok := err.(*vm.FatalError); ok {
		return 2
	}
	return 1
}
