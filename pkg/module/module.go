// Package module implements the loaded-unit representation described in
// spec §3 and §4.2: an ordered global-slot table, a code vector, the
// exports/loader objects published at module boundaries, and debug
// metadata. Encode and Decode (codec.go) serialize and deserialize a
// Module, using pkg/bytecode for the code section; pkg/vm executes one.
package module

import (
	"github.com/google/uuid"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// DebugEntry is one (line, file) pair attached to a code index, per
// §6.3.
type DebugEntry struct {
	Line uint32
	File string
}

// Module is a loaded unit: globals, code, exports/loader, optional debug
// info. Strings is the decoded string pool, retained (not discarded
// after decode) because LoadBuiltin operands and debug file names are
// string-pool indices resolved at runtime, not pre-expanded into the
// code vector.
type Module struct {
	// ID is assigned once per load (or per compiler-produced Module)
	// and distinguishes modules that otherwise share a file name, per
	// the domain stack's multi-module diagnostics.
	ID uuid.UUID

	Name    string
	Strings []string
	Globals []value.Value
	Code    []bytecode.Instruction

	Exports value.Value
	Loader  *value.Object

	HasDebugInfo bool
	DebugInfo    []DebugEntry
}

// New returns an empty Module ready to be populated by a compiler, with
// a loader object matching the reference implementation's convention
// (module.rs across both VM iterations): a plain, initially-empty
// Object populated later by the `require` builtin, not a bespoke loader
// interface.
func New(name string) *Module {
	return &Module{
		ID:     uuid.New(),
		Name:   name,
		Loader: value.NewObject(nil),
	}
}

// CodeAt returns the opcode byte at code index i.
func (m *Module) CodeAt(i int) (bytecode.Opcode, bool) {
	if i < 0 || i >= len(m.Code) {
		return 0, false
	}
	return m.Code[i].Op, true
}

// String resolves a string-pool index, used for LoadBuiltin names and
// debug file names.
func (m *Module) String(idx int) (string, bool) {
	if idx < 0 || idx >= len(m.Strings) {
		return "", false
	}
	return m.Strings[idx], true
}

// DebugAt returns the (line, file) debug entry for code index i, if
// debug info is present.
func (m *Module) DebugAt(i int) (DebugEntry, bool) {
	if !m.HasDebugInfo || i < 0 || i >= len(m.DebugInfo) {
		return DebugEntry{}, false
	}
	return m.DebugInfo[i], true
}
