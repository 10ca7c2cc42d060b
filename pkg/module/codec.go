package module

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/value"
)

// Global tag bytes, bit-exact per §6.1. Tag 2 is deliberately unused —
// the wire format only ever stores STRING/FLOAT/FUN globals; Int, Bool
// and Null constants are always inline LoadInt/LoadTrue/LoadFalse
// immediates in the code vector, never globals.
const (
	globalTagString byte = 0
	globalTagFloat  byte = 1
	globalTagFunc   byte = 3
)

// Encode writes m to w in the wire format from §4.2/§6.1.
func Encode(m *Module, w io.Writer) error {
	if err := writeU32(w, uint32(len(m.Strings))); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.Globals))); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.Code))); err != nil {
		return err
	}
	hasDebug := byte(0)
	if m.HasDebugInfo {
		hasDebug = 1
	}
	if _, err := w.Write([]byte{hasDebug}); err != nil {
		return errors.Wrap(err, "module: write has_debug_info")
	}

	for i, s := range m.Strings {
		if err := writeString(w, s); err != nil {
			return errors.Wrapf(err, "module: string[%d]", i)
		}
	}

	if m.HasDebugInfo {
		if len(m.DebugInfo) != len(m.Code) {
			return errors.Errorf("module: debug info length %d does not match code length %d", len(m.DebugInfo), len(m.Code))
		}
		fileIndex, err := m.stringIndexLookup()
		if err != nil {
			return err
		}
		for i, d := range m.DebugInfo {
			if err := writeU32(w, d.Line); err != nil {
				return errors.Wrapf(err, "module: debug[%d].line", i)
			}
			idx, ok := fileIndex(d.File)
			if !ok {
				return errors.Errorf("module: debug[%d].file %q not in string pool", i, d.File)
			}
			if err := writeU32(w, uint32(idx)); err != nil {
				return errors.Wrapf(err, "module: debug[%d].file", i)
			}
		}
	}

	fileIndex, err := m.stringIndexLookup()
	if err != nil {
		return err
	}
	for i, g := range m.Globals {
		if err := writeGlobal(w, g, fileIndex); err != nil {
			return errors.Wrapf(err, "module: global[%d]", i)
		}
	}

	if err := bytecode.WriteCode(w, m.Code); err != nil {
		return errors.Wrap(err, "module: code section")
	}
	return nil
}

// stringIndexLookup returns a function mapping a string's content to its
// pool index, used while encoding debug info and Str globals.
func (m *Module) stringIndexLookup() (func(string) (int, bool), error) {
	idx := make(map[string]int, len(m.Strings))
	for i, s := range m.Strings {
		if _, exists := idx[s]; !exists {
			idx[s] = i
		}
	}
	return func(s string) (int, bool) {
		i, ok := idx[s]
		return i, ok
	}, nil
}

func writeGlobal(w io.Writer, g value.Value, fileIndex func(string) (int, bool)) error {
	switch gv := g.(type) {
	case *value.Str:
		idx, ok := fileIndex(gv.Value)
		if !ok {
			return errors.Errorf("string global %q not present in string pool", gv.Value)
		}
		if _, err := w.Write([]byte{globalTagString}); err != nil {
			return err
		}
		return writeU32(w, uint32(idx))
	case float64:
		if _, err := w.Write([]byte{globalTagFloat}); err != nil {
			return err
		}
		return writeU64(w, math.Float64bits(gv))
	case *value.Function:
		if gv.IsNative() {
			return errors.New("native functions cannot be encoded as module globals")
		}
		if _, err := w.Write([]byte{globalTagFunc}); err != nil {
			return err
		}
		if err := writeU32(w, uint32(gv.CodeOffset)); err != nil {
			return err
		}
		return writeU16(w, uint16(gv.Argc))
	default:
		return errors.Errorf("value of shape %T is not a valid module global (only Str, Float, Function are)", g)
	}
}

// Decode reads a Module from r, per §4.2: "The decoder constructs the
// Module incrementally and, on completion, back-links every Function
// global to the owning module handle."
func Decode(r io.Reader) (*Module, error) {
	nStrings, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "module: n_strings")
	}
	nGlobals, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "module: n_globals")
	}
	nCode, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "module: code_size")
	}
	var hasDebugByte [1]byte
	if _, err := io.ReadFull(r, hasDebugByte[:]); err != nil {
		return nil, errors.Wrap(err, "module: has_debug_info")
	}
	if hasDebugByte[0] > 1 {
		return nil, errors.Errorf("module: invalid has_debug_info byte %d", hasDebugByte[0])
	}
	hasDebug := hasDebugByte[0] == 1

	m := New("")
	m.Strings = make([]string, nStrings)
	for i := range m.Strings {
		s, err := readString(r)
		if err != nil {
			return nil, errors.Wrapf(err, "module: string[%d]", i)
		}
		m.Strings[i] = s
	}

	m.HasDebugInfo = hasDebug
	if hasDebug {
		m.DebugInfo = make([]DebugEntry, nCode)
		for i := range m.DebugInfo {
			line, err := readU32(r)
			if err != nil {
				return nil, errors.Wrapf(err, "module: debug[%d].line", i)
			}
			fileIdx, err := readU32(r)
			if err != nil {
				return nil, errors.Wrapf(err, "module: debug[%d].file", i)
			}
			file, ok := m.String(int(fileIdx))
			if !ok {
				return nil, errors.Errorf("module: debug[%d] references out-of-range string %d", i, fileIdx)
			}
			m.DebugInfo[i] = DebugEntry{Line: line, File: file}
		}
	}

	m.Globals = make([]value.Value, nGlobals)
	var functions []*value.Function
	for i := range m.Globals {
		g, err := readGlobal(r, m)
		if err != nil {
			return nil, errors.Wrapf(err, "module: global[%d]", i)
		}
		m.Globals[i] = g
		if fn, ok := g.(*value.Function); ok {
			functions = append(functions, fn)
		}
	}

	code, err := bytecode.ReadCode(r, int(nCode))
	if err != nil {
		return nil, errors.Wrap(err, "module: code section")
	}
	m.Code = code

	for _, fn := range functions {
		fn.Module = m
	}
	return m, nil
}

func readGlobal(r io.Reader, m *Module) (value.Value, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return nil, errors.Wrap(err, "read global tag")
	}
	switch tagByte[0] {
	case globalTagString:
		idx, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "STRING global index")
		}
		s, ok := m.String(int(idx))
		if !ok {
			return nil, errors.Errorf("STRING global references out-of-range string %d", idx)
		}
		return value.NewStr(s), nil
	case globalTagFloat:
		bits, err := readU64(r)
		if err != nil {
			return nil, errors.Wrap(err, "FLOAT global bits")
		}
		return math.Float64frombits(bits), nil
	case globalTagFunc:
		offset, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "FUN global offset")
		}
		var argcBuf [2]byte
		if _, err := io.ReadFull(r, argcBuf[:]); err != nil {
			return nil, errors.Wrap(err, "FUN global argc")
		}
		argc := int(int16(binary.LittleEndian.Uint16(argcBuf[:])))
		return value.NewBytecodeFunction(int(offset), argc, nil), nil
	default:
		return nil, errors.Errorf("unknown global tag %d", tagByte[0])
	}
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return errors.Wrap(err, "write string bytes")
}

func readString(r io.Reader) (string, error) {
	length, err := readU32(r)
	if err != nil {
		return "", errors.Wrap(err, "read string length")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "read string bytes")
	}
	return string(buf), nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// EncodeBytes is a convenience wrapper returning the encoded byte slice
// directly.
func EncodeBytes(m *Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes is a convenience wrapper around Decode for callers that
// already have the whole module file in memory (the `require` builtin).
func DecodeBytes(data []byte) (*Module, error) {
	return Decode(bytes.NewReader(data))
}
