// Package repl provides an interactive shell for writing and running
// chronospatial programs.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/akhildatla/chronovm/pkg/analysis"
	"github.com/akhildatla/chronovm/pkg/compiler"
	"github.com/akhildatla/chronovm/pkg/decoder"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
)

const (
	promptList = "chrono> "
	promptASM  = "asm> "
	promptCont = "...> "
)

// Mode represents the REPL input mode.
type Mode int

const (
	ModeList Mode = iota // Comma-separated raw values
	ModeASM              // Assembly mode
)

// REPL provides an interactive Read-Eval-Print Loop.
//
// Every evaluation replaces the current program and runs it on a fresh VM
// with the current register A.
type REPL struct {
	mode        Mode
	a           uint64
	program     *vm.Program
	maxSteps    int64
	searchOpts  []search.Option
	history     []string
	multiline   strings.Builder
	inMultiline bool
	done        bool
}

// New creates a new REPL instance.
func New() *REPL {
	return &REPL{
		mode:     ModeList,
		maxSteps: search.DefaultMaxSteps,
		history:  []string{},
	}
}

// SetMode sets the REPL input mode.
func (r *REPL) SetMode(mode Mode) {
	r.mode = mode
}

// SetRegisterA sets the register A used by later runs.
func (r *REPL) SetRegisterA(a uint64) {
	r.a = a
}

// SetMaxSteps caps every run started from the REPL. Zero means unlimited.
func (r *REPL) SetMaxSteps(n int64) {
	r.maxSteps = n
}

// SetSearchOptions sets the options used by the seed command.
func (r *REPL) SetSearchOptions(opts ...search.Option) {
	r.searchOpts = opts
}

// Start runs the loop until quit or end of input.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "chronovm REPL - 3-bit chronospatial computer")
	fmt.Fprintln(out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(out)

	for !r.done {
		if r.inMultiline {
			fmt.Fprint(out, promptCont)
		} else if r.mode == ModeList {
			fmt.Fprint(out, promptList)
		} else {
			fmt.Fprint(out, promptASM)
		}

		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if r.inMultiline {
			if line == "" {
				r.inMultiline = false
				input := r.multiline.String()
				r.multiline.Reset()
				r.eval(input, out)
			} else {
				r.multiline.WriteString(line)
				r.multiline.WriteString("\n")
			}
			continue
		}

		if handled := r.handleCommand(line, out); handled {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			r.inMultiline = true
			r.multiline.WriteString(strings.TrimSuffix(line, "\\"))
			r.multiline.WriteString("\n")
			continue
		}

		r.eval(line, out)
	}
}

func (r *REPL) handleCommand(line string, out io.Writer) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case "quit", "exit", "q":
		fmt.Fprintln(out, "Goodbye!")
		r.done = true
		return true

	case "help", "h", "?":
		r.printHelp(out)
		return true

	case "mode":
		r.switchMode(parts[1:], out)
		return true

	case "a":
		r.setA(parts[1:], out)
		return true

	case "run":
		if r.requireProgram(out) {
			r.run(out)
		}
		return true

	case "seed":
		if r.requireProgram(out) {
			r.seed(parts[1:], out)
		}
		return true

	case "disasm":
		if r.requireProgram(out) {
			fmt.Fprint(out, vm.Disassemble(r.program))
		}
		return true

	case "trace":
		if r.requireProgram(out) {
			r.trace(out)
		}
		return true

	case "analyze":
		if r.requireProgram(out) {
			r.analyze(out)
		}
		return true

	case "load":
		if len(parts) > 1 {
			r.load(parts[1], out)
		} else {
			fmt.Fprintln(out, "Usage: load <input.txt>")
		}
		return true

	case "history":
		for i, cmd := range r.history {
			fmt.Fprintf(out, "%3d: %s\n", i+1, cmd)
		}
		return true
	}

	return false
}

func (r *REPL) switchMode(args []string, out io.Writer) {
	if len(args) == 0 {
		if r.mode == ModeList {
			fmt.Fprintln(out, "Current mode: list")
		} else {
			fmt.Fprintln(out, "Current mode: asm")
		}
		return
	}
	switch args[0] {
	case "list":
		r.mode = ModeList
		fmt.Fprintln(out, "Switched to list mode")
	case "asm":
		r.mode = ModeASM
		fmt.Fprintln(out, "Switched to assembly mode")
	default:
		fmt.Fprintln(out, "Unknown mode. Use 'list' or 'asm'")
	}
}

func (r *REPL) setA(args []string, out io.Writer) {
	if len(args) == 0 {
		fmt.Fprintf(out, "A = %d\n", r.a)
		return
	}
	a, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(out, "Error: bad register value %q\n", args[0])
		return
	}
	r.a = a
	fmt.Fprintf(out, "A = %d\n", r.a)
}

func (r *REPL) requireProgram(out io.Writer) bool {
	if r.program == nil {
		fmt.Fprintln(out, "No program. Enter one or use 'load'")
		return false
	}
	return true
}

func (r *REPL) eval(input string, out io.Writer) {
	if strings.TrimSpace(input) == "" {
		return
	}

	r.history = append(r.history, strings.TrimRight(input, "\n"))

	var (
		program *vm.Program
		err     error
	)
	if r.mode == ModeList {
		program, err = decoder.DecodeProgram(strings.TrimSpace(input))
	} else {
		program, err = compiler.Compile(input)
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	r.program = program
	r.run(out)
}

func (r *REPL) newVM() (*vm.VM, error) {
	m := vm.NewVM()
	m.SetMaxSteps(r.maxSteps)
	if err := m.Load(r.program); err != nil {
		return nil, err
	}
	m.Reset(r.a)
	return m, nil
}

func (r *REPL) run(out io.Writer) {
	m, err := r.newVM()
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	result, err := m.Execute()
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		if len(result) > 0 {
			fmt.Fprintf(out, "partial => %s\n", result)
		}
		return
	}
	fmt.Fprintf(out, "=> %s\n", result)
}

func (r *REPL) trace(out io.Writer) {
	m, err := r.newVM()
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	m.EnableTrace()
	if _, err := m.Execute(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
	steps := m.Trace()
	if len(steps) == 0 {
		fmt.Fprintln(out, "No steps executed")
		return
	}
	fmt.Fprint(out, vm.TraceFrame(steps).Table())
}

func (r *REPL) seed(args []string, out io.Writer) {
	opts := append([]search.Option{}, r.searchOpts...)
	if len(args) > 0 {
		strategy, err := search.ParseStrategy(args[0])
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		opts = append(opts, search.WithStrategy(strategy))
	}

	res, err := search.Find(context.Background(), r.program, opts...)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "seed (%s, %d runs) => %s\n", res.Strategy, res.Evaluated, res)
}

func (r *REPL) analyze(out io.Writer) {
	report := analysis.New(analysis.WithAllChecks()).Analyze(r.program)
	fmt.Fprintf(out, "digit-wise: %t\n", report.DigitWise)
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
}

func (r *REPL) load(path string, out io.Writer) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "Error loading %s: %v\n", path, err)
		return
	}
	in, err := decoder.Decode(string(data))
	if err != nil {
		fmt.Fprintf(out, "Error loading %s: %v\n", path, err)
		return
	}
	r.program = in.Program
	r.a = in.RegisterA
	fmt.Fprintf(out, "Loaded %s (A = %d, %d values)\n", path, r.a, len(r.program.Code))
}

func (r *REPL) printHelp(out io.Writer) {
	help := `
chronovm REPL Commands:
  help, h, ?       Show this help message
  quit, exit, q    Exit the REPL
  mode [list|asm]  Show or set input mode
  a [value]        Show or set register A
  run              Run the current program
  seed [strategy]  Find the A that makes the program print itself
  disasm           Disassemble the current program
  trace            Run and print every step
  analyze          Check whether reverse search applies
  load <path>      Load a puzzle input file
  history          Show command history

List Examples:
  0,3,5,4,3,0

ASM Examples:
  loop: ADV 3 \
  OUT A
  JNZ loop

Tips:
  - End a line with \ for multiline input
  - Press Enter twice to execute multiline input
`
	fmt.Fprint(out, help)
}
