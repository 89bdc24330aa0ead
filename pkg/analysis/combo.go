package analysis

import (
	"fmt"

	"github.com/akhildatla/chronovm/pkg/vm"
)

// comboCheck flags combo operand 7, which fails with vm.ErrInvalidOperand
// whenever the instruction executes.
func (a *Analyzer) comboCheck(program *vm.Program) []Issue {
	var issues []Issue
	for i, inst := range program.Instructions {
		if inst.Op.UsesCombo() && inst.Operand == vm.ComboReserved {
			issues = append(issues, Issue{
				Check:   CheckCombo,
				IP:      i * 2,
				Message: fmt.Sprintf("%s uses reserved combo operand 7", inst.Op),
			})
		}
	}
	return issues
}
