package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is a decoded chronospatial program.
//
// Code is the raw pair stream, which is what JNZ addresses and what the quine
// condition compares against. Instructions is the decoded view of the same
// stream. A Program is read-only once built and may be shared between
// goroutines.
type Program struct {
	Code         []uint8
	Instructions []Instruction
}

// NewProgram validates a raw pair stream and decodes it.
func NewProgram(code []uint8) (*Program, error) {
	if len(code)%2 != 0 {
		return nil, fmt.Errorf("%w: %d values", ErrOddLength, len(code))
	}
	insts := make([]Instruction, 0, len(code)/2)
	for ip := 0; ip < len(code); ip += 2 {
		inst, err := DecodeInstruction(code[ip], code[ip+1])
		if err != nil {
			return nil, fmt.Errorf("at %d: %w", ip, err)
		}
		insts = append(insts, inst)
	}
	owned := make([]uint8, len(code))
	copy(owned, code)
	return &Program{Code: owned, Instructions: insts}, nil
}

// MustProgram is NewProgram that panics on error. Intended for literals in
// tests and examples.
func MustProgram(code ...uint8) *Program {
	p, err := NewProgram(code)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// String renders the raw stream as a comma-separated list.
func (p *Program) String() string {
	return joinDigits(p.Code)
}

// Output is the sequence of values emitted by OUT during one run.
type Output []uint8

// String renders the output as comma-joined decimal digits.
func (o Output) String() string {
	return joinDigits(o)
}

// Equal reports whether o and other hold the same values.
func (o Output) Equal(other []uint8) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// HasSuffix reports whether o ends with suffix.
func (o Output) HasSuffix(suffix []uint8) bool {
	if len(suffix) > len(o) {
		return false
	}
	return o[len(o)-len(suffix):].Equal(suffix)
}

func joinDigits(vals []uint8) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}
