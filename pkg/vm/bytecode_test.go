package vm

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSerializeDeserialize_RoundTrip(t *testing.T) {
	program := MustProgram(2, 4, 1, 1, 7, 5, 1, 5, 4, 0, 0, 3, 5, 5, 3, 0)

	data, err := SerializeProgram(program, 668)
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}

	// Verify magic header
	if string(data[:4]) != BytecodeMagic {
		t.Errorf("expected magic %q, got %q", BytecodeMagic, string(data[:4]))
	}

	restored, a, err := DeserializeProgram(data)
	if err != nil {
		t.Fatalf("DeserializeProgram failed: %v", err)
	}
	if a != 668 {
		t.Errorf("expected A=668, got %d", a)
	}
	if restored.String() != program.String() {
		t.Errorf("expected %s, got %s", program, restored)
	}
	if restored.Len() != program.Len() {
		t.Errorf("expected %d instructions, got %d", program.Len(), restored.Len())
	}
}

func TestSerializeDeserialize_EmptyProgram(t *testing.T) {
	data, err := SerializeProgram(MustProgram(), 0)
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}
	restored, _, err := DeserializeProgram(data)
	if err != nil {
		t.Fatalf("DeserializeProgram failed: %v", err)
	}
	if len(restored.Code) != 0 {
		t.Errorf("expected empty program, got %s", restored)
	}
}

func TestSerialize_Deterministic(t *testing.T) {
	p := MustProgram(0, 3, 5, 4, 3, 0)
	first, err := SerializeProgram(p, 117440)
	if err != nil {
		t.Fatal(err)
	}
	second, err := SerializeProgram(p, 117440)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("expected identical encodings")
	}
}

func TestSerialize_NilProgram(t *testing.T) {
	if _, err := SerializeProgram(nil, 0); !errors.Is(err, ErrNoProgram) {
		t.Errorf("expected ErrNoProgram, got %v", err)
	}
}

func TestDeserialize_InvalidMagic(t *testing.T) {
	_, _, err := DeserializeProgram([]byte("XXXX\x01\x00\x00\x00\x00\x00"))
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestDeserialize_InvalidVersion(t *testing.T) {
	_, _, err := DeserializeProgram([]byte("CCBC\x09\x00\x00\x00\x00\x00"))
	if !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("expected ErrInvalidVersion, got %v", err)
	}
}

func TestDeserialize_Truncated(t *testing.T) {
	data, err := SerializeProgram(MustProgram(0, 3, 5, 4, 3, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{2, 5, 9, len(data) - 1} {
		if _, _, err := DeserializeProgram(data[:n]); err == nil {
			t.Errorf("expected error for %d-byte input", n)
		}
	}
}

func TestDeserialize_OversizedLength(t *testing.T) {
	// Declared payload far larger than the input.
	data := []byte("CCBC\x01\x00\xf0\xff\xff\xff")
	_, _, err := DeserializeProgram(data)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDisassemble_Labels(t *testing.T) {
	out := Disassemble(MustProgram(0, 3, 5, 4, 3, 0))

	for _, want := range []string{
		"; 3 instructions, 6 values",
		"L0:",
		"ADV 3",
		"OUT A",
		"JNZ L0",
		"out A % 8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestDisassemble_RawTargets(t *testing.T) {
	// Odd and out-of-range targets stay numeric.
	out := Disassemble(MustProgram(3, 3, 3, 6))
	if strings.Contains(out, "L3") || strings.Contains(out, "L6") {
		t.Errorf("unexpected label in:\n%s", out)
	}
	if !strings.Contains(out, "JNZ 3") || !strings.Contains(out, "JNZ 6") {
		t.Errorf("expected raw jump targets in:\n%s", out)
	}
}
