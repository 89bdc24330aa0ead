// Package analysis inspects a program's structure without running it.
//
// The reverse seed search only works for programs that consume one base-8
// digit of A per loop pass and emit one value per pass. The analyzer checks
// that shape so callers can pick a search strategy.
package analysis

import (
	"fmt"

	"github.com/akhildatla/chronovm/pkg/vm"
)

// Check names used in Issue.Check.
const (
	CheckLoop  = "loop"
	CheckCombo = "combo"
	CheckReach = "reach"
)

// Issue is one finding. IP is the raw index of the offending pair, or -1 when
// the issue concerns the program as a whole.
type Issue struct {
	Check   string
	IP      int
	Message string
}

func (i Issue) String() string {
	if i.IP < 0 {
		return fmt.Sprintf("%s: %s", i.Check, i.Message)
	}
	return fmt.Sprintf("%s: %04d: %s", i.Check, i.IP, i.Message)
}

// Report is the result of Analyze.
type Report struct {
	Issues []Issue

	// DigitWise is true when the loop check ran and found the program shaped
	// for digit-wise reverse search.
	DigitWise bool

	// OutputsPerPass is the number of OUT instructions in the loop body.
	OutputsPerPass int

	// Reachable counts the raw indices where execution can start an
	// instruction. Only set by the reachability check.
	Reachable int
}

// Analyzer runs the enabled checks over a program.
type Analyzer struct {
	enableLoopCheck  bool
	enableComboCheck bool
	enableReachCheck bool
}

// Option is a functional option for the Analyzer.
type Option func(*Analyzer)

// WithLoopCheck enables the loop shape check.
func WithLoopCheck() Option {
	return func(a *Analyzer) {
		a.enableLoopCheck = true
	}
}

// WithComboCheck enables the reserved combo operand check.
func WithComboCheck() Option {
	return func(a *Analyzer) {
		a.enableComboCheck = true
	}
}

// WithAllChecks enables all checks.
func WithAllChecks() Option {
	return func(a *Analyzer) {
		a.enableLoopCheck = true
		a.enableComboCheck = true
		a.enableReachCheck = true
	}
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze applies the enabled checks to the program.
func (a *Analyzer) Analyze(program *vm.Program) *Report {
	report := &Report{}
	if program == nil {
		report.Issues = append(report.Issues, Issue{Check: CheckLoop, IP: -1, Message: "no program"})
		return report
	}

	var comboIssues, loopIssues []Issue
	if a.enableComboCheck {
		comboIssues = a.comboCheck(program)
		report.Issues = append(report.Issues, comboIssues...)
	}
	if a.enableLoopCheck {
		loopIssues, report.OutputsPerPass = a.loopCheck(program)
		report.Issues = append(report.Issues, loopIssues...)
		report.DigitWise = len(loopIssues) == 0 && len(comboIssues) == 0
	}
	if a.enableReachCheck {
		var reachIssues []Issue
		reachIssues, report.Reachable = a.reachCheck(program)
		report.Issues = append(report.Issues, reachIssues...)
	}

	return report
}
