package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/akhildatla/chronovm/pkg/vm"
)

func TestCompile_Simple(t *testing.T) {
	source := `
; octal quine
loop:
    ADV 3
    OUT A
    JNZ loop
`
	program, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if program.String() != "0,3,5,4,3,0" {
		t.Errorf("expected 0,3,5,4,3,0, got %s", program)
	}

	out, err := vm.Run(program, 2024)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "5,7,3,0" {
		t.Errorf("expected 5,7,3,0, got %s", out)
	}
}

func TestCompile_Operands(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"ADV 3", "0,3"},
		{"adv a", "0,4"},
		{"BST B", "2,5"},
		{"CDV C", "7,6"},
		{"OUT 6", "5,6"}, // numeric combo codes are accepted too
		{"BXL 7", "1,7"},
		{"BXC", "4,0"},
		{"BXC 5", "4,5"},
		{"JNZ 4", "3,4"},
		{"BDV 2", "6,2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			program, err := Compile(tt.source)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if program.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, program.String())
			}
		})
	}
}

func TestCompile_ForwardLabel(t *testing.T) {
	program, err := Compile("JNZ end\nOUT A\nend: OUT B")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if program.String() != "3,4,5,4,5,5" {
		t.Errorf("expected 3,4,5,4,5,5, got %s", program)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantErr  error
		wantLine string
	}{
		{"UnknownOpcode", "ADV 3\nHALT", ErrUnknownOpcode, "line 2"},
		{"LiteralOutOfRange", "BXL 8", ErrBadOperand, "line 1"},
		{"ComboOutOfRange", "OUT 9", ErrBadOperand, "line 1"},
		{"RegisterAsLiteral", "BXL A", ErrBadOperand, "line 1"},
		{"MissingOperand", "\n\nADV", ErrMissingOperand, "line 3"},
		{"UnknownLabel", "JNZ nowhere", ErrUnknownLabel, "line 1"},
		{"LabelOutOfRange", "ADV 3\nADV 3\nADV 3\nADV 3\nfar: OUT A\nJNZ far", ErrBadOperand, "line 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), tt.wantLine) {
				t.Errorf("expected %q in %q", tt.wantLine, err.Error())
			}
		})
	}
}

func TestCompile_DisassembleRoundTrip(t *testing.T) {
	programs := []*vm.Program{
		vm.MustProgram(0, 3, 5, 4, 3, 0),
		vm.MustProgram(2, 4, 1, 1, 7, 5, 1, 5, 4, 0, 0, 3, 5, 5, 3, 0),
		vm.MustProgram(0, 1, 5, 4, 3, 0),
		vm.MustProgram(4, 6, 5, 7, 3, 3, 6, 0, 3, 7), // ignored BXC operand, combo 7, odd and far jumps
		vm.MustProgram(),
	}

	for _, p := range programs {
		t.Run(p.String(), func(t *testing.T) {
			source := vm.Disassemble(p)
			back, err := Compile(source)
			if err != nil {
				t.Fatalf("Compile failed: %v\n%s", err, source)
			}
			if back.String() != p.String() {
				t.Errorf("round trip mismatch: %s -> %s\n%s", p, back, source)
			}
		})
	}
}
