// Package decoder parses the puzzle's textual input into a register A value
// and a validated program.
//
// The expected input looks like:
//
//	Register A: 729
//	Register B: 0
//	Register C: 0
//
//	Program: 0,1,5,4,3,0
//
// Only the first non-blank line (register A) and the Program line are read.
// B and C always start at zero.
package decoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/akhildatla/chronovm/pkg/vm"
)

const programPrefix = "Program:"

var (
	ErrBadRegister     = errors.New("register A line has no valid number")
	ErrMissingRegister = errors.New("missing register A line")
	ErrMissingProgram  = errors.New("missing Program line")
	ErrBadNumber       = errors.New("invalid program value")
)

// DecodeError reports where decoding failed. Line is 1-based; zero means the
// error is not tied to a line.
type DecodeError struct {
	Line  int
	Token string
	Err   error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("decode")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " line %d", e.Line)
	}
	if e.Token != "" {
		fmt.Fprintf(&sb, " near %q", e.Token)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Input is a decoded puzzle input.
type Input struct {
	RegisterA uint64
	Program   *vm.Program
}

// Decode parses text into an Input.
func Decode(text string) (*Input, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	in := &Input{}
	foundA := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !foundA {
			if strings.HasPrefix(trimmed, programPrefix) {
				return nil, &DecodeError{Line: i + 1, Err: ErrMissingRegister}
			}
			a, err := parseRegister(trimmed)
			if err != nil {
				return nil, &DecodeError{Line: i + 1, Token: trimmed, Err: err}
			}
			in.RegisterA = a
			foundA = true
			continue
		}
		if strings.HasPrefix(trimmed, programPrefix) {
			p, err := decodeList(strings.TrimPrefix(trimmed, programPrefix), i+1)
			if err != nil {
				return nil, err
			}
			in.Program = p
			return in, nil
		}
	}

	if !foundA {
		return nil, &DecodeError{Err: ErrBadRegister}
	}
	return nil, &DecodeError{Err: ErrMissingProgram}
}

// DecodeProgram parses a bare comma-separated program such as "0,3,5,4,3,0".
// A leading "Program:" is accepted.
func DecodeProgram(list string) (*vm.Program, error) {
	trimmed := strings.TrimSpace(list)
	return decodeList(strings.TrimPrefix(trimmed, programPrefix), 0)
}

// parseRegister concatenates every decimal digit on the line.
func parseRegister(line string) (uint64, error) {
	var digits strings.Builder
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, ErrBadRegister
	}
	a, err := strconv.ParseUint(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadRegister, err)
	}
	return a, nil
}

func decodeList(list string, line int) (*vm.Program, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		p, _ := vm.NewProgram(nil)
		return p, nil
	}

	tokens := strings.Split(list, ",")
	code := make([]uint8, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, &DecodeError{Line: line, Token: tok, Err: ErrBadNumber}
		}
		code = append(code, uint8(v))
	}

	p, err := vm.NewProgram(code)
	if err != nil {
		return nil, &DecodeError{Line: line, Err: err}
	}
	return p, nil
}
