package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// OperandType represents the type of an operand.
type OperandType uint8

const (
	OperandNone OperandType = iota
	OperandInt
	OperandRegister
	OperandLabel
)

// Operand represents an instruction operand.
type Operand struct {
	Type   OperandType
	IntVal uint64 // For integer literals
	Reg    byte   // 'A', 'B' or 'C'
	Label  string // For JNZ targets
}

// AsmInstruction represents a parsed assembly instruction.
type AsmInstruction struct {
	Opcode  string
	Operand Operand
	Line    int
}

// AsmProgram represents a parsed assembly program.
type AsmProgram struct {
	Instructions []AsmInstruction
	Labels       map[string]int // label -> instruction index
}

// Parser parses chronospatial assembly source code.
//
// Grammar, one statement per line:
//
//	[label ":"] [MNEMONIC [operand]]
//
// An operand is an integer, a register name (A, B, C) or a label.
type Parser struct {
	tokens  []Token
	pos     int
	program *AsmProgram
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	lexer := NewLexer(input)
	tokens := lexer.Tokenize()
	return &Parser{
		tokens: tokens,
		pos:    0,
		program: &AsmProgram{
			Instructions: []AsmInstruction{},
			Labels:       make(map[string]int),
		},
	}
}

// Parse parses the entire input and returns the program.
func (p *Parser) Parse() (*AsmProgram, error) {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]

		switch tok.Type {
		case TokenEOF:
			return p.program, nil

		case TokenNewline:
			p.pos++

		case TokenIdent:
			if p.peek(1).Type == TokenColon {
				if err := p.parseLabel(); err != nil {
					return nil, err
				}
				continue
			}
			inst, err := p.parseInstruction()
			if err != nil {
				return nil, err
			}
			p.program.Instructions = append(p.program.Instructions, inst)

		default:
			return nil, fmt.Errorf("line %d: %w: %q", tok.Line, ErrUnexpectedToken, tok.Value)
		}
	}

	return p.program, nil
}

func (p *Parser) peek(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) parseLabel() error {
	tok := p.tokens[p.pos]
	name := strings.ToUpper(tok.Value)
	if _, exists := p.program.Labels[name]; exists {
		return fmt.Errorf("line %d: %w: %s", tok.Line, ErrDuplicateLabel, tok.Value)
	}
	p.program.Labels[name] = len(p.program.Instructions)
	p.pos += 2 // Consume label and colon
	return nil
}

func (p *Parser) parseInstruction() (AsmInstruction, error) {
	inst := AsmInstruction{
		Opcode: p.tokens[p.pos].Value,
		Line:   p.tokens[p.pos].Line,
	}
	p.pos++ // Consume opcode

	tok := p.tokens[p.pos]
	if tok.Type == TokenNewline || tok.Type == TokenEOF {
		return inst, nil
	}

	operand, err := p.parseOperand()
	if err != nil {
		return inst, err
	}
	inst.Operand = operand

	tok = p.tokens[p.pos]
	if tok.Type != TokenNewline && tok.Type != TokenEOF {
		return inst, fmt.Errorf("line %d: %w: %q after operand", tok.Line, ErrUnexpectedToken, tok.Value)
	}
	return inst, nil
}

func (p *Parser) parseOperand() (Operand, error) {
	tok := p.tokens[p.pos]

	switch tok.Type {
	case TokenInt:
		intVal, err := strconv.ParseUint(tok.Value, 10, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("line %d: %w: %s", tok.Line, ErrBadOperand, tok.Value)
		}
		p.pos++
		return Operand{Type: OperandInt, IntVal: intVal}, nil

	case TokenRegister:
		p.pos++
		return Operand{Type: OperandRegister, Reg: strings.ToUpper(tok.Value)[0]}, nil

	case TokenIdent:
		p.pos++
		return Operand{Type: OperandLabel, Label: strings.ToUpper(tok.Value)}, nil

	default:
		return Operand{}, fmt.Errorf("line %d: %w: %q", tok.Line, ErrUnexpectedToken, tok.Value)
	}
}
