package analysis

import (
	"fmt"

	"github.com/akhildatla/chronovm/pkg/vm"
)

// loopCheck verifies the digit-wise loop shape:
//   - exactly one JNZ, the last pair, jumping to 0
//   - exactly one write to A, and it is ADV 3
//   - exactly one OUT
//   - B and C are written before they are read in the body
//
// It returns the issues found and the number of OUT instructions.
func (a *Analyzer) loopCheck(program *vm.Program) ([]Issue, int) {
	var issues []Issue
	add := func(ip int, format string, args ...interface{}) {
		issues = append(issues, Issue{Check: CheckLoop, IP: ip, Message: fmt.Sprintf(format, args...)})
	}

	insts := program.Instructions
	if len(insts) == 0 {
		add(-1, "empty program")
		return issues, 0
	}

	jumps, shifts, outs := 0, 0, 0
	for i, inst := range insts {
		ip := i * 2
		switch inst.Op {
		case vm.OpJnz:
			jumps++
			if i != len(insts)-1 {
				add(ip, "jump is not the last instruction")
			} else if inst.Operand != 0 {
				add(ip, "loop jumps to %d, not 0", inst.Operand)
			}
		case vm.OpAdv:
			shifts++
			if inst.Operand != 3 {
				add(ip, "A is shifted by %s, not 3", operandName(inst))
			}
		case vm.OpOut:
			outs++
		}
	}

	if jumps == 0 {
		add(-1, "no loop")
	} else if jumps > 1 {
		add(-1, "%d jumps, want 1", jumps)
	}
	if shifts != 1 {
		add(-1, "%d writes to A, want 1", shifts)
	}
	if outs != 1 {
		add(-1, "%d outputs per pass, want 1", outs)
	}

	issues = append(issues, a.carryCheck(insts)...)
	return issues, outs
}

// carryCheck reports B or C being read before the body writes it, which
// lets state from one pass leak into the next.
func (a *Analyzer) carryCheck(insts []vm.Instruction) []Issue {
	var issues []Issue
	written := map[byte]bool{}
	reported := map[byte]bool{}

	read := func(ip int, reg byte) {
		if !written[reg] && !reported[reg] {
			reported[reg] = true
			issues = append(issues, Issue{
				Check:   CheckLoop,
				IP:      ip,
				Message: fmt.Sprintf("%c is read before it is written in the loop", reg),
			})
		}
	}

	for i, inst := range insts {
		ip := i * 2
		if inst.Op.UsesCombo() {
			switch inst.Operand {
			case vm.ComboB:
				read(ip, 'B')
			case vm.ComboC:
				read(ip, 'C')
			}
		}
		switch inst.Op {
		case vm.OpBxl:
			read(ip, 'B')
			written['B'] = true
		case vm.OpBxc:
			read(ip, 'B')
			read(ip, 'C')
			written['B'] = true
		case vm.OpBst, vm.OpBdv:
			written['B'] = true
		case vm.OpCdv:
			written['C'] = true
		}
	}
	return issues
}

func operandName(inst vm.Instruction) string {
	s := inst.String()
	return s[len(inst.Op.String())+1:]
}
