// Package compiler assembles chronospatial assembly into a vm.Program.
//
// Source is one instruction per line:
//
//	loop:
//	    ADV 3      ; A = A >> 3
//	    OUT A
//	    JNZ loop
//
// Combo operands accept 0-3 or a register name (A, B, C); literal operands
// accept 0-7. JNZ takes a label or a raw index into the pair stream. BXC
// takes an optional operand, which is ignored at run time.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akhildatla/chronovm/pkg/vm"
)

var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrBadOperand      = errors.New("invalid operand")
	ErrMissingOperand  = errors.New("missing operand")
	ErrUnknownLabel    = errors.New("unknown label")
	ErrDuplicateLabel  = errors.New("duplicate label")
	ErrUnexpectedToken = errors.New("unexpected token")
)

// Compile assembles source into a Program.
func Compile(source string) (*vm.Program, error) {
	parser := NewParser(source)
	asmProgram, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	compiler := &Compiler{
		code: make([]uint8, 0, len(asmProgram.Instructions)*2),
	}
	return compiler.compile(asmProgram)
}

// Compiler compiles parsed assembly to a raw pair stream.
type Compiler struct {
	code   []uint8
	labels map[string]int
}

func (c *Compiler) compile(program *AsmProgram) (*vm.Program, error) {
	c.labels = program.Labels
	for _, inst := range program.Instructions {
		opcode, operand, err := c.compileInstruction(inst)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", inst.Line, err)
		}
		c.code = append(c.code, uint8(opcode), operand)
	}
	return vm.NewProgram(c.code)
}

func (c *Compiler) compileInstruction(inst AsmInstruction) (vm.Opcode, uint8, error) {
	opcode, ok := vm.OpcodeFromString(strings.ToUpper(inst.Opcode))
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownOpcode, inst.Opcode)
	}

	switch opcode {
	case vm.OpAdv, vm.OpBst, vm.OpOut, vm.OpBdv, vm.OpCdv:
		operand, err := c.compileCombo(inst.Operand)
		return opcode, operand, err

	case vm.OpBxl:
		operand, err := c.compileLiteral(inst.Operand)
		return opcode, operand, err

	case vm.OpJnz:
		operand, err := c.compileJump(inst.Operand)
		return opcode, operand, err

	case vm.OpBxc:
		if inst.Operand.Type == OperandNone {
			return opcode, 0, nil
		}
		operand, err := c.compileLiteral(inst.Operand)
		return opcode, operand, err

	default:
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownOpcode, inst.Opcode)
	}
}

func (c *Compiler) compileCombo(op Operand) (uint8, error) {
	switch op.Type {
	case OperandNone:
		return 0, ErrMissingOperand
	case OperandRegister:
		return vm.ComboA + (op.Reg - 'A'), nil
	case OperandInt:
		// 7 is accepted and fails at run time like any decoded program.
		if op.IntVal > uint64(vm.MaxOperand) {
			return 0, fmt.Errorf("%w: %d", ErrBadOperand, op.IntVal)
		}
		return uint8(op.IntVal), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrBadOperand, op.Label)
	}
}

func (c *Compiler) compileLiteral(op Operand) (uint8, error) {
	switch op.Type {
	case OperandNone:
		return 0, ErrMissingOperand
	case OperandInt:
		if op.IntVal > uint64(vm.MaxOperand) {
			return 0, fmt.Errorf("%w: %d", ErrBadOperand, op.IntVal)
		}
		return uint8(op.IntVal), nil
	case OperandRegister:
		return 0, fmt.Errorf("%w: register %c is not a literal", ErrBadOperand, op.Reg)
	default:
		return 0, fmt.Errorf("%w: %s", ErrBadOperand, op.Label)
	}
}

func (c *Compiler) compileJump(op Operand) (uint8, error) {
	if op.Type != OperandLabel {
		return c.compileLiteral(op)
	}
	idx, ok := c.labels[op.Label]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLabel, op.Label)
	}
	target := idx * 2
	if target > int(vm.MaxOperand) {
		return 0, fmt.Errorf("%w: label %s at %d is out of jump range", ErrBadOperand, op.Label, target)
	}
	return uint8(target), nil
}
