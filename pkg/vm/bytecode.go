package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Bytecode file format:
// - Magic: "CCBC" (4 bytes)
// - Version: uint16
// - PayloadLength: uint32
// - Payload: canonical CBOR map {"code": bytes, "a": uint}

const (
	BytecodeMagic   = "CCBC"
	BytecodeVersion = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid bytecode magic")
	ErrInvalidVersion = errors.New("unsupported bytecode version")
)

type bytecodePayload struct {
	Code []uint8 `cbor:"code"`
	A    uint64  `cbor:"a"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// SerializeProgram serializes a Program and an initial register A value to
// bytecode format.
func SerializeProgram(p *Program, a uint64) ([]byte, error) {
	if p == nil {
		return nil, ErrNoProgram
	}
	payload, err := cborEncMode.Marshal(bytecodePayload{Code: p.Code, A: a})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.WriteString(BytecodeMagic)
	if err := binary.Write(buf, binary.LittleEndian, uint16(BytecodeVersion)); err != nil {
		return nil, fmt.Errorf("writing version: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(payload))); err != nil {
		return nil, fmt.Errorf("writing payload length: %w", err)
	}
	buf.Write(payload)

	return buf.Bytes(), nil
}

// DeserializeProgram deserializes bytecode to a Program and its initial
// register A value. The program is validated as if it had been decoded.
func DeserializeProgram(data []byte) (*Program, uint64, error) {
	buf := bytes.NewReader(data)

	// Read and verify magic
	magic := make([]byte, 4)
	if _, err := io.ReadFull(buf, magic); err != nil {
		return nil, 0, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != BytecodeMagic {
		return nil, 0, ErrInvalidMagic
	}

	// Read and verify version
	var version uint16
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return nil, 0, fmt.Errorf("reading version: %w", err)
	}
	if version != BytecodeVersion {
		return nil, 0, ErrInvalidVersion
	}

	var n uint32
	if err := binary.Read(buf, binary.LittleEndian, &n); err != nil {
		return nil, 0, fmt.Errorf("reading payload length: %w", err)
	}
	if int64(n) > int64(buf.Len()) {
		return nil, 0, fmt.Errorf("reading payload: %w", io.ErrUnexpectedEOF)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(buf, raw); err != nil {
		return nil, 0, fmt.Errorf("reading payload: %w", err)
	}

	var payload bytecodePayload
	if err := cbor.Unmarshal(raw, &payload); err != nil {
		return nil, 0, fmt.Errorf("decoding payload: %w", err)
	}

	p, err := NewProgram(payload.Code)
	if err != nil {
		return nil, 0, err
	}
	return p, payload.A, nil
}

// Disassemble converts a Program back to assembly source code.
//
// Even jump targets inside the program get an "L<index>:" label; other
// targets are kept as raw indices. The result assembles back to the same
// raw pair stream.
func Disassemble(p *Program) string {
	var buf bytes.Buffer

	buf.WriteString("; Disassembled chronospatial program\n")
	buf.WriteString(fmt.Sprintf("; %d instructions, %d values\n\n", p.Len(), len(p.Code)))

	labels := make(map[int]bool)
	for _, inst := range p.Instructions {
		if inst.Op == OpJnz && isLabelTarget(int(inst.Operand), len(p.Code)) {
			labels[int(inst.Operand)] = true
		}
	}

	for i, inst := range p.Instructions {
		ip := i * 2
		if labels[ip] {
			buf.WriteString(fmt.Sprintf("L%d:\n", ip))
		}
		text := inst.String()
		if inst.Op == OpJnz && labels[int(inst.Operand)] {
			text = fmt.Sprintf("%s L%d", inst.Op, inst.Operand)
		}
		buf.WriteString(fmt.Sprintf("    %-10s ; %04d  %s\n", text, ip, inst.Describe()))
	}

	return buf.String()
}

func isLabelTarget(target, codeLen int) bool {
	return target%2 == 0 && target < codeLen
}
