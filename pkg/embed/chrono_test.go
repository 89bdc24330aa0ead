package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akhildatla/chronovm/internal/testutil"
	"github.com/akhildatla/chronovm/pkg/decoder"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
)

func TestExecute_ExampleInput(t *testing.T) {
	out, err := Execute(testutil.ExampleInput)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "5,7,3,0" {
		t.Errorf("expected 5,7,3,0, got %s", out)
	}
}

func TestExecute_Literal729(t *testing.T) {
	out, err := Execute(`
Register A: 729
Register B: 0
Register C: 0

Program: 0,1,5,4,3,0
`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "4,6,3,5,6,3,5,2,1,0" {
		t.Errorf("expected 4,6,3,5,6,3,5,2,1,0, got %s", out)
	}
}

func TestExecute_WithRegisterA(t *testing.T) {
	out, err := Execute(testutil.ExampleInput, WithRegisterA(testutil.OctalQuineSeed))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "0,3,5,4,3,0" {
		t.Errorf("expected the program itself, got %s", out)
	}
}

func TestExecute_DecodeError(t *testing.T) {
	_, err := Execute("Register A: 1\n")
	if !errors.Is(err, decoder.ErrMissingProgram) {
		t.Errorf("expected ErrMissingProgram, got %v", err)
	}
}

func TestExecute_InvalidOperand(t *testing.T) {
	_, err := Execute("Register A: 1\nProgram: 5,7")
	if !errors.Is(err, vm.ErrInvalidOperand) {
		t.Errorf("expected ErrInvalidOperand, got %v", err)
	}
}

func TestExecuteFile(t *testing.T) {
	out, err := ExecuteFile(testutil.TempFile(t, testutil.XorLoopInput, ".txt"))
	if err != nil {
		t.Fatalf("ExecuteFile failed: %v", err)
	}
	if out.String() != "4,3,7,4" {
		t.Errorf("expected 4,3,7,4, got %s", out)
	}

	if _, err := ExecuteFile("/nonexistent/input.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExecuteASM(t *testing.T) {
	out, err := ExecuteASM("loop:\n ADV 3\n OUT A\n JNZ loop", 2024)
	if err != nil {
		t.Fatalf("ExecuteASM failed: %v", err)
	}
	if out.String() != "5,7,3,0" {
		t.Errorf("expected 5,7,3,0, got %s", out)
	}
}

// ===== Resource Limits =====

func TestExecute_InstructionLimit(t *testing.T) {
	// BST 1, JNZ 0 never terminates for A != 0.
	_, err := ExecuteASM("BST 1\nJNZ 0", 1, WithMaxSteps(1000))
	if !errors.Is(err, ErrInstructionLimit) {
		t.Errorf("expected ErrInstructionLimit, got %v", err)
	}
}

func TestExecute_Timeout(t *testing.T) {
	start := time.Now()
	_, err := ExecuteASM("BST 1\nJNZ 0", 1, WithTimeout(20*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not stop execution")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExecuteASM("BST 1\nJNZ 0", 1, WithContext(ctx))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ===== Seed Search =====

func TestFindSeed_ExampleInput(t *testing.T) {
	res, err := FindSeed(testutil.ExampleInput)
	if err != nil {
		t.Fatalf("FindSeed failed: %v", err)
	}
	if !res.Found || res.Seed != testutil.OctalQuineSeed {
		t.Errorf("expected %d, got %+v", testutil.OctalQuineSeed, res)
	}
	if res.Strategy != search.StrategyReverse {
		t.Errorf("expected reverse strategy, got %s", res.Strategy)
	}
}

func TestFindSeed_XorLoop(t *testing.T) {
	res, err := FindSeed(testutil.XorLoopInput, WithWorkers(4))
	if err != nil {
		t.Fatalf("FindSeed failed: %v", err)
	}
	if res.Seed != testutil.XorLoopSeed {
		t.Errorf("expected %d, got %d", testutil.XorLoopSeed, res.Seed)
	}

	out, err := Execute(testutil.XorLoopInput, WithRegisterA(res.Seed))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "2,4,1,1,7,5,1,5,4,0,0,3,5,5,3,0" {
		t.Errorf("seed does not reproduce the program: %s", out)
	}
}

func TestFindSeed_ExhaustiveWithinBound(t *testing.T) {
	res, err := FindSeed(testutil.ExampleInput,
		WithStrategy(search.StrategyExhaustive),
		WithBound(1<<17),
	)
	if err != nil {
		t.Fatalf("FindSeed failed: %v", err)
	}
	if res.Seed != testutil.OctalQuineSeed {
		t.Errorf("expected %d, got %+v", testutil.OctalQuineSeed, res)
	}
}

func TestFindSeed_NoSolution(t *testing.T) {
	res, err := FindSeed("Register A: 10\nProgram: 0,1,5,4,3,0", WithBound(1<<10))
	if err != nil {
		t.Fatalf("FindSeed failed: %v", err)
	}
	if res.Found {
		t.Errorf("expected no solution, got %d", res.Seed)
	}
}

func TestFindSeed_Timeout(t *testing.T) {
	// The halving loop never prints itself, so the scan runs to the deadline.
	_, err := FindSeed("Register A: 10\nProgram: 0,1,5,4,3,0",
		WithBound(1<<62),
		WithTimeout(20*time.Millisecond),
	)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}
