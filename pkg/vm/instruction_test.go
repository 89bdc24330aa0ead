package vm

import (
	"errors"
	"testing"
)

func TestDecodeInstruction(t *testing.T) {
	tests := []struct {
		opcode, operand uint8
		wantErr         error
	}{
		{0, 3, nil},
		{7, 7, nil},
		{8, 0, ErrInvalidOpcode},
		{255, 0, ErrInvalidOpcode},
		{5, 8, ErrInvalidOperandValue},
	}

	for _, tt := range tests {
		inst, err := DecodeInstruction(tt.opcode, tt.operand)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeInstruction(%d, %d): expected %v, got %v", tt.opcode, tt.operand, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecodeInstruction(%d, %d) failed: %v", tt.opcode, tt.operand, err)
			continue
		}
		if inst.Op != Opcode(tt.opcode) || inst.Operand != tt.operand {
			t.Errorf("DecodeInstruction(%d, %d) = %+v", tt.opcode, tt.operand, inst)
		}
	}
}

func TestInstruction_String(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{Instruction{OpAdv, 3}, "ADV 3"},
		{Instruction{OpAdv, 4}, "ADV A"},
		{Instruction{OpBst, 5}, "BST B"},
		{Instruction{OpCdv, 6}, "CDV C"},
		{Instruction{OpOut, 7}, "OUT 7"},
		{Instruction{OpBxl, 5}, "BXL 5"}, // literal, not register B
		{Instruction{OpJnz, 4}, "JNZ 4"},
		{Instruction{OpBxc, 0}, "BXC"},
		{Instruction{OpBxc, 3}, "BXC 3"},
	}

	for _, tt := range tests {
		if got := tt.inst.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.inst, got, tt.want)
		}
	}
}

func TestInstruction_Describe(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{Instruction{OpAdv, 3}, "A = A >> 3"},
		{Instruction{OpBxl, 1}, "B = B ^ 1"},
		{Instruction{OpBst, 4}, "B = A % 8"},
		{Instruction{OpJnz, 0}, "if A != 0 goto 0"},
		{Instruction{OpBxc, 2}, "B = B ^ C"},
		{Instruction{OpOut, 5}, "out B % 8"},
		{Instruction{OpBdv, 6}, "B = A >> C"},
		{Instruction{OpCdv, 5}, "C = A >> B"},
	}

	for _, tt := range tests {
		if got := tt.inst.Describe(); got != tt.want {
			t.Errorf("%+v.Describe() = %q, want %q", tt.inst, got, tt.want)
		}
	}
}

func TestOpcodeFromString(t *testing.T) {
	for i := 0; i < NumOpcodes; i++ {
		op := Opcode(i)
		got, ok := OpcodeFromString(op.String())
		if !ok || got != op {
			t.Errorf("OpcodeFromString(%q) = %v, %v", op.String(), got, ok)
		}
	}
	if got, ok := OpcodeFromString("out"); !ok || got != OpOut {
		t.Errorf("expected case-insensitive match, got %v, %v", got, ok)
	}
	if _, ok := OpcodeFromString("HALT"); ok {
		t.Error("expected HALT to be unknown")
	}
	if Opcode(9).String() != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", Opcode(9))
	}
}

func TestNewProgram_Validation(t *testing.T) {
	if _, err := NewProgram([]uint8{0, 3, 5}); !errors.Is(err, ErrOddLength) {
		t.Errorf("expected ErrOddLength, got %v", err)
	}
	if _, err := NewProgram([]uint8{0, 3, 9, 0}); !errors.Is(err, ErrInvalidOpcode) {
		t.Errorf("expected ErrInvalidOpcode, got %v", err)
	}

	src := []uint8{0, 3, 5, 4, 3, 0}
	p, err := NewProgram(src)
	if err != nil {
		t.Fatalf("NewProgram failed: %v", err)
	}
	src[0] = 7
	if p.Code[0] != 0 {
		t.Error("program should own its code")
	}
	if p.Len() != 3 || p.String() != "0,3,5,4,3,0" {
		t.Errorf("unexpected program %s (%d instructions)", p, p.Len())
	}
}

func TestOutput_HasSuffix(t *testing.T) {
	out := Output{2, 4, 1, 1}
	if !out.HasSuffix([]uint8{1, 1}) {
		t.Error("expected suffix 1,1")
	}
	if !out.HasSuffix(nil) {
		t.Error("empty suffix always matches")
	}
	if out.HasSuffix([]uint8{4, 1}) {
		t.Error("unexpected suffix 4,1")
	}
	if out.HasSuffix([]uint8{0, 2, 4, 1, 1}) {
		t.Error("suffix longer than output")
	}
}
