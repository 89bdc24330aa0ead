// Package vm implements the chronospatial virtual machine.
//
// The VM is a register-based bytecode interpreter with:
//   - three unsigned 64-bit registers A, B and C
//   - eight opcodes, each taking a single 3-bit operand
//   - an instruction pointer into the raw pair stream
//
// Basic usage:
//
//	out, err := vm.Run(program, 729)
//
// With resource limits:
//
//	v := vm.NewVM()
//	v.SetMaxSteps(10000)
//	v.SetContext(ctx)
//	v.Load(program)
//	v.Reset(729)
//	out, err := v.Execute()
package vm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error definitions
var (
	ErrOddLength           = errors.New("program has odd length")
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrInvalidOperandValue = errors.New("operand out of range")
	ErrInvalidOperand      = errors.New("invalid combo operand")
	ErrStepLimitExceeded   = errors.New("step limit exceeded")
	ErrNoProgram           = errors.New("no program loaded")
)

// ExecutionStats contains metrics about VM execution for observability.
type ExecutionStats struct {
	StepsExecuted   int64          // Total instructions executed
	ExecutionTimeNs int64          // Execution time in nanoseconds
	OutputLen       int            // Values emitted by OUT
	Jumps           int64          // Taken JNZ jumps
	OpCounts        map[string]int // Count of each opcode executed
}

// VM represents the virtual machine.
type VM struct {
	registers RegisterFile
	code      []uint8
	loaded    bool
	ip        int // Index into the raw pair stream
	out       Output

	// Resource limits, off by default. The machine itself never bounds a
	// non-terminating program.
	maxSteps  int64
	stepCount int64
	ctx       context.Context

	// Observability
	stats        ExecutionStats
	statsEnabled bool
	trace        []TraceStep
	traceEnabled bool
}

// NewVM creates a new VM instance.
func NewVM() *VM {
	return &VM{}
}

// Load loads a program into the VM and resets all registers to zero.
func (vm *VM) Load(program *Program) error {
	if program == nil {
		return ErrNoProgram
	}
	vm.code = program.Code
	vm.loaded = true
	vm.Reset(0)
	return nil
}

// Reset prepares the VM for a fresh run: A is set, B and C are cleared, the
// instruction pointer and output are reset. The loaded program is kept.
func (vm *VM) Reset(a uint64) {
	vm.registers.Reset(a)
	vm.ip = 0
	vm.stepCount = 0
	vm.out = nil
	if vm.traceEnabled {
		vm.trace = nil
	}
}

// SetRegisters overrides all three registers before Execute.
func (vm *VM) SetRegisters(rf RegisterFile) {
	vm.registers = rf
}

// Registers returns the current register values.
func (vm *VM) Registers() RegisterFile {
	return vm.registers
}

// IP returns the current instruction pointer.
func (vm *VM) IP() int {
	return vm.ip
}

// SetMaxSteps sets the maximum number of execution steps. Zero means unlimited.
func (vm *VM) SetMaxSteps(n int64) {
	vm.maxSteps = n
}

// SetContext sets the context for cancellation/timeout.
func (vm *VM) SetContext(ctx context.Context) {
	vm.ctx = ctx
}

// EnableStats enables execution statistics collection.
func (vm *VM) EnableStats() {
	vm.statsEnabled = true
	vm.stats = ExecutionStats{
		OpCounts: make(map[string]int),
	}
}

// Stats returns the execution statistics from the last Execute() call.
// Returns nil if stats were not enabled via EnableStats().
func (vm *VM) Stats() *ExecutionStats {
	if !vm.statsEnabled {
		return nil
	}
	return &vm.stats
}

// EnableTrace records every executed step. See TraceFrame.
func (vm *VM) EnableTrace() {
	vm.traceEnabled = true
	vm.trace = nil
}

// Trace returns the steps recorded by the last Execute() call.
func (vm *VM) Trace() []TraceStep {
	return vm.trace
}

// Execute runs the loaded program until the instruction pointer leaves the
// raw pair stream and returns the output.
//
// On error the output produced so far is returned alongside it.
func (vm *VM) Execute() (Output, error) {
	if !vm.loaded {
		return nil, ErrNoProgram
	}

	var startTime time.Time
	if vm.statsEnabled {
		startTime = time.Now()
		vm.stats.StepsExecuted = 0
		vm.stats.Jumps = 0
		vm.stats.OpCounts = make(map[string]int)
	}

	for vm.ip+1 < len(vm.code) {
		// Context cancellation check
		if vm.ctx != nil {
			select {
			case <-vm.ctx.Done():
				return vm.out, vm.ctx.Err()
			default:
			}
		}

		// Resource limit check
		vm.stepCount++
		if vm.maxSteps > 0 && vm.stepCount > vm.maxSteps {
			return vm.out, ErrStepLimitExceeded
		}

		ip := vm.ip
		op := Opcode(vm.code[ip])
		operand := vm.code[ip+1]

		emitted, err := vm.step(op, operand)
		if err != nil {
			return vm.out, fmt.Errorf("ip %d (%s %d): %w", ip, op, operand, err)
		}

		if vm.statsEnabled {
			vm.stats.StepsExecuted++
			vm.stats.OpCounts[op.String()]++
			if op == OpJnz && vm.ip != ip+2 {
				vm.stats.Jumps++
			}
		}
		if vm.traceEnabled {
			vm.trace = append(vm.trace, TraceStep{
				Step:    vm.stepCount,
				IP:      ip,
				Op:      op,
				Operand: operand,
				Regs:    vm.registers,
				Out:     emitted,
			})
		}
	}

	if vm.statsEnabled {
		vm.stats.ExecutionTimeNs = time.Since(startTime).Nanoseconds()
		vm.stats.OutputLen = len(vm.out)
	}
	return vm.out, nil
}

// step applies one instruction and advances ip. It returns the emitted value,
// or -1 when the instruction produced no output.
func (vm *VM) step(op Opcode, operand uint8) (int, error) {
	r := &vm.registers

	var combo uint64
	if op.UsesCombo() {
		v, err := r.Combo(operand)
		if err != nil {
			return -1, err
		}
		combo = v
	}

	next := vm.ip + 2
	emitted := -1

	switch op {
	case OpAdv:
		r.A = shr(r.A, combo)
	case OpBxl:
		r.B ^= uint64(operand)
	case OpBst:
		r.B = combo % 8
	case OpJnz:
		if r.A != 0 {
			next = int(operand)
		}
	case OpBxc:
		r.B ^= r.C
	case OpOut:
		v := uint8(combo % 8)
		vm.out = append(vm.out, v)
		emitted = int(v)
	case OpBdv:
		r.B = shr(r.A, combo)
	case OpCdv:
		r.C = shr(r.A, combo)
	default:
		return -1, fmt.Errorf("%w: %d", ErrInvalidOpcode, uint8(op))
	}

	vm.ip = next
	return emitted, nil
}

// Run executes p with register A set to a and B, C zeroed. It is a pure
// function of (p, a) and safe to call concurrently for a shared Program.
func Run(p *Program, a uint64) (Output, error) {
	v := NewVM()
	if err := v.Load(p); err != nil {
		return nil, err
	}
	v.Reset(a)
	return v.Execute()
}
