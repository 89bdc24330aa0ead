package analysis

import (
	"fmt"

	"github.com/akhildatla/chronovm/pkg/vm"
)

// WithReachabilityCheck enables the reachability check.
func WithReachabilityCheck() Option {
	return func(a *Analyzer) {
		a.enableReachCheck = true
	}
}

// reachable walks every path from ip 0, taking both edges of each JNZ, and
// returns the set of raw indices where an instruction can start.
func reachable(code []uint8) *bitmap {
	seen := newBitmap(len(code))
	work := []int{0}
	for len(work) > 0 {
		ip := work[len(work)-1]
		work = work[:len(work)-1]
		if ip+1 >= len(code) || seen.isSet(ip) {
			continue
		}
		seen.set(ip)
		work = append(work, ip+2)
		if vm.Opcode(code[ip]) == vm.OpJnz {
			work = append(work, int(code[ip+1]))
		}
	}
	return seen
}

// reachCheck reports misaligned pairs some path executes and jumps that
// leave the program. Every aligned instruction is reachable by falling
// through, so only odd JNZ targets can reach code the disassembly does not
// show.
func (a *Analyzer) reachCheck(program *vm.Program) ([]Issue, int) {
	seen := reachable(program.Code)

	var issues []Issue
	for ip := 1; ip+1 < len(program.Code); ip += 2 {
		if seen.isSet(ip) {
			issues = append(issues, Issue{
				Check:   CheckReach,
				IP:      ip,
				Message: fmt.Sprintf("misaligned pair (%d,%d) is executed", program.Code[ip], program.Code[ip+1]),
			})
		}
	}
	for i, inst := range program.Instructions {
		if inst.Op == vm.OpJnz && int(inst.Operand)+1 >= len(program.Code) {
			issues = append(issues, Issue{
				Check:   CheckReach,
				IP:      i * 2,
				Message: fmt.Sprintf("jump to %d leaves the program", inst.Operand),
			})
		}
	}
	return issues, seen.popCount()
}
