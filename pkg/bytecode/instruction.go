package bytecode

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Instruction is the in-memory form of one opcode plus its operand.
// Operand is always stored widened to int64; PayloadWidth below says how
// many bytes the wire format actually spends on it (0 for opcodes with
// no operand).
type Instruction struct {
	Op      Opcode
	Operand int64
}

// PayloadWidth returns the number of little-endian bytes the wire
// format's code section spends on op's operand, per the §6.1 table: 0
// (no operand), 2 (u16), 4 (u32) or 8 (u64, LoadInt only).
func PayloadWidth(op Opcode) (int, bool) {
	switch op {
	case LoadNull, LoadTrue, LoadFalse, LoadThis, Load, Store, StoreThis,
		Throw, Ret, IsNull, IsNotNull,
		Add, Sub, Mul, Div, Rem, Shl, Shr, UShr, Or, And, Xor, Eq, Neq,
		Lt, Lte, Gt, Gte, Not, Neg,
		Hash, New, Nop, Last:
		return 0, true
	case LoadEnv, LoadLocal, StoreEnv, StoreLocal, Pop, Call, ObjCall,
		TailCall, MakeEnv, MakeArray:
		return 2, true
	case LoadGlobal, LoadBuiltin, Jump, JumpIf, JumpIfNot, CatchPush:
		return 4, true
	case LoadInt:
		return 8, true
	default:
		return 0, false
	}
}

// WriteCode encodes code's instructions as the "code" section from
// §4.2/§6.1: repeated (u8 opcode; payload per table).
func WriteCode(w io.Writer, code []Instruction) error {
	for _, inst := range code {
		if err := writeInstruction(w, inst); err != nil {
			return err
		}
	}
	return nil
}

func writeInstruction(w io.Writer, inst Instruction) error {
	width, ok := PayloadWidth(inst.Op)
	if !ok {
		return errors.Errorf("bytecode: unknown opcode %d", inst.Op)
	}
	if _, err := w.Write([]byte{byte(inst.Op)}); err != nil {
		return errors.Wrap(err, "bytecode: write opcode")
	}
	switch width {
	case 0:
		return nil
	case 2:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(inst.Operand))
		_, err := w.Write(buf[:])
		return errors.Wrap(err, "bytecode: write u16 operand")
	case 4:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(inst.Operand))
		_, err := w.Write(buf[:])
		return errors.Wrap(err, "bytecode: write u32 operand")
	case 8:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(inst.Operand))
		_, err := w.Write(buf[:])
		return errors.Wrap(err, "bytecode: write u64 operand")
	default:
		return errors.Errorf("bytecode: unsupported payload width %d", width)
	}
}

// ReadCode decodes count instructions from the code section. Out-of-range
// opcode bytes or a truncated payload are fatal load errors, per §4.2:
// "malformed length fields, out-of-range opcodes ... are fatal load
// errors. No partial module is exposed."
func ReadCode(r io.Reader, count int) ([]Instruction, error) {
	code := make([]Instruction, 0, count)
	for i := 0; i < count; i++ {
		inst, err := readInstruction(r)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: code[%d]", i)
		}
		code = append(code, inst)
	}
	return code, nil
}

func readInstruction(r io.Reader) (Instruction, error) {
	var opByte [1]byte
	if _, err := io.ReadFull(r, opByte[:]); err != nil {
		return Instruction{}, errors.Wrap(err, "read opcode byte")
	}
	if !Valid(opByte[0]) {
		return Instruction{}, errors.Errorf("unknown opcode byte %d", opByte[0])
	}
	op := Opcode(opByte[0])
	width, _ := PayloadWidth(op)
	switch width {
	case 0:
		return Instruction{Op: op}, nil
	case 2:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Instruction{}, errors.Wrap(err, "truncated u16 operand")
		}
		return Instruction{Op: op, Operand: int64(binary.LittleEndian.Uint16(buf[:]))}, nil
	case 4:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Instruction{}, errors.Wrap(err, "truncated u32 operand")
		}
		return Instruction{Op: op, Operand: int64(binary.LittleEndian.Uint32(buf[:]))}, nil
	case 8:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Instruction{}, errors.Wrap(err, "truncated u64 operand")
		}
		return Instruction{Op: op, Operand: int64(binary.LittleEndian.Uint64(buf[:]))}, nil
	default:
		return Instruction{}, errors.Errorf("unsupported payload width %d", width)
	}
}
