package vm

import "fmt"

// Instruction is one decoded (opcode, operand) pair.
//
// Jumps address the raw pair stream, not the instruction slice, so the
// instruction at Program.Instructions[i] lives at raw index 2*i.
type Instruction struct {
	Op      Opcode
	Operand uint8
}

// DecodeInstruction builds an Instruction from a raw pair.
func DecodeInstruction(opcode, operand uint8) (Instruction, error) {
	if !Opcode(opcode).Valid() {
		return Instruction{}, fmt.Errorf("%w: %d", ErrInvalidOpcode, opcode)
	}
	if operand > MaxOperand {
		return Instruction{}, fmt.Errorf("%w: %d", ErrInvalidOperandValue, operand)
	}
	return Instruction{Op: Opcode(opcode), Operand: operand}, nil
}

// String renders the instruction as "MNEMONIC operand", using register names
// for combo operands 4-6 so the text re-assembles to the same pair.
func (i Instruction) String() string {
	if i.Op == OpBxc && i.Operand == 0 {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %s", i.Op, i.operandText())
}

// Describe returns a short description of the instruction's effect.
func (i Instruction) Describe() string {
	x := i.operandText()
	switch i.Op {
	case OpAdv:
		return "A = A >> " + x
	case OpBxl:
		return fmt.Sprintf("B = B ^ %d", i.Operand)
	case OpBst:
		return "B = " + x + " % 8"
	case OpJnz:
		return fmt.Sprintf("if A != 0 goto %d", i.Operand)
	case OpBxc:
		return "B = B ^ C"
	case OpOut:
		return "out " + x + " % 8"
	case OpBdv:
		return "B = A >> " + x
	case OpCdv:
		return "C = A >> " + x
	default:
		return "?"
	}
}

func (i Instruction) operandText() string {
	if !i.Op.UsesCombo() {
		return fmt.Sprintf("%d", i.Operand)
	}
	switch i.Operand {
	case ComboA:
		return "A"
	case ComboB:
		return "B"
	case ComboC:
		return "C"
	case ComboReserved:
		return "7"
	default:
		return fmt.Sprintf("%d", i.Operand)
	}
}
