package vm

import "strings"

// Opcode represents a VM instruction opcode.
//
// The machine has exactly eight opcodes, one per 3-bit value. Operands are
// either literal (the 3-bit value itself) or combo (resolved through
// RegisterFile.Combo).
type Opcode uint8

const (
	OpAdv Opcode = 0 // A = A >> combo
	OpBxl Opcode = 1 // B = B ^ literal
	OpBst Opcode = 2 // B = combo % 8
	OpJnz Opcode = 3 // if A != 0 { ip = literal }
	OpBxc Opcode = 4 // B = B ^ C (operand ignored)
	OpOut Opcode = 5 // out(combo % 8)
	OpBdv Opcode = 6 // B = A >> combo
	OpCdv Opcode = 7 // C = A >> combo

	// NumOpcodes is the size of the instruction set.
	NumOpcodes = 8
)

var opcodeNames = [NumOpcodes]string{
	OpAdv: "ADV",
	OpBxl: "BXL",
	OpBst: "BST",
	OpJnz: "JNZ",
	OpBxc: "BXC",
	OpOut: "OUT",
	OpBdv: "BDV",
	OpCdv: "CDV",
}

// String returns the string representation of an opcode.
func (o Opcode) String() string {
	if !o.Valid() {
		return "UNKNOWN"
	}
	return opcodeNames[o]
}

// Valid reports whether o is one of the eight defined opcodes.
func (o Opcode) Valid() bool {
	return o < NumOpcodes
}

// UsesCombo reports whether the opcode resolves its operand as a combo operand.
// BXL and JNZ take literals, BXC ignores its operand.
func (o Opcode) UsesCombo() bool {
	switch o {
	case OpAdv, OpBst, OpOut, OpBdv, OpCdv:
		return true
	default:
		return false
	}
}

// OpcodeFromString parses a mnemonic (case-insensitive) into an Opcode.
func OpcodeFromString(s string) (Opcode, bool) {
	upper := strings.ToUpper(s)
	for i, name := range opcodeNames {
		if name == upper {
			return Opcode(i), true
		}
	}
	return 0, false
}
