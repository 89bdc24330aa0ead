package vm

// Combo operand codes. Codes 0-3 are literals.
const (
	ComboA        uint8 = 4
	ComboB        uint8 = 5
	ComboC        uint8 = 6
	ComboReserved uint8 = 7

	// MaxOperand is the largest 3-bit operand.
	MaxOperand uint8 = 7
)

// RegisterFile holds VM state.
type RegisterFile struct {
	A uint64 // Seed register
	B uint64 // Scratch
	C uint64 // Scratch
}

// NewRegisterFile creates a register file with A set and B, C zeroed.
func NewRegisterFile(a uint64) RegisterFile {
	return RegisterFile{A: a}
}

// Reset sets A and clears B and C.
func (rf *RegisterFile) Reset(a uint64) {
	rf.A = a
	rf.B = 0
	rf.C = 0
}

// Combo resolves a combo operand against the live registers.
func (rf *RegisterFile) Combo(operand uint8) (uint64, error) {
	switch {
	case operand < ComboA:
		return uint64(operand), nil
	case operand == ComboA:
		return rf.A, nil
	case operand == ComboB:
		return rf.B, nil
	case operand == ComboC:
		return rf.C, nil
	default:
		return 0, ErrInvalidOperand
	}
}

// shr shifts x right by n bits. Shifts of 64 or more yield 0.
func shr(x, n uint64) uint64 {
	if n >= 64 {
		return 0
	}
	return x >> n
}
