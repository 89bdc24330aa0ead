// Package main provides the CLI entry point for chronovm.
//
// Usage:
//
//	chrono run input.txt              # Run a puzzle input
//	chrono run -trace input.txt       # Run and print every step
//	chrono seed input.txt             # Find the A that makes the program print itself
//	chrono compile prog.asm -a 2024   # Assemble to bytecode (.ccbc)
//	chrono exec prog.ccbc             # Execute compiled bytecode
//	chrono disasm prog.ccbc           # Disassemble bytecode
//	chrono batch programs.csv         # Run or search every row of a table
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akhildatla/chronovm/internal/config"
	"github.com/akhildatla/chronovm/internal/logging"
	"github.com/akhildatla/chronovm/pkg/analysis"
	"github.com/akhildatla/chronovm/pkg/batch"
	"github.com/akhildatla/chronovm/pkg/compiler"
	"github.com/akhildatla/chronovm/pkg/decoder"
	"github.com/akhildatla/chronovm/pkg/loader"
	"github.com/akhildatla/chronovm/pkg/repl"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/sirupsen/logrus"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitOK         = 0
	exitError      = 1
	exitNoSolution = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, search.ErrNoSolution):
		return exitNoSolution
	default:
		return exitError
	}
}

// app carries the settings and streams shared by every command.
type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("chrono", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "settings file (.toml, .yaml)")
	logLevel := global.String("log-level", "", "log level (overrides config)")
	logFormat := global.String("log-format", "", "log format: text or json (overrides config)")
	if err := global.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, stderr); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) < 1 {
		return printUsage(stdout)
	}

	a := &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "run":
		return a.runCommand(ctx, cmdArgs)
	case "seed":
		return a.seedCommand(ctx, cmdArgs)
	case "compile":
		return a.compileCommand(cmdArgs)
	case "exec":
		return a.execCommand(ctx, cmdArgs)
	case "disasm":
		return a.disasmCommand(cmdArgs)
	case "analyze":
		return a.analyzeCommand(cmdArgs)
	case "batch":
		return a.batchCommand(ctx, cmdArgs)
	case "repl":
		return a.replCommand(cmdArgs)
	case "version":
		fmt.Fprintf(stdout, "chrono version %s\n", version)
		if commit != "none" {
			fmt.Fprintf(stdout, "  commit: %s\n", commit)
		}
		if date != "unknown" {
			fmt.Fprintf(stdout, "  built:  %s\n", date)
		}
		return nil
	case "help", "-h", "--help":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseArgs parses flags that may appear before or after positional
// arguments and returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// loadProgram reads a program from path. Bytecode is recognized by its
// magic, .asm and .s files are assembled, anything else is decoded as a
// puzzle input. The returned A is zero for assembly.
func loadProgram(path string) (*vm.Program, uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	if bytes.HasPrefix(data, []byte(vm.BytecodeMagic)) {
		p, a, err := vm.DeserializeProgram(data)
		if err != nil {
			return nil, 0, fmt.Errorf("deserializing: %w", err)
		}
		return p, a, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		p, err := compiler.Compile(string(data))
		if err != nil {
			return nil, 0, fmt.Errorf("compiling: %w", err)
		}
		return p, 0, nil
	default:
		in, err := decoder.Decode(string(data))
		if err != nil {
			return nil, 0, err
		}
		return in.Program, in.RegisterA, nil
	}
}

// registerOverride parses the -a flag. The empty string means "keep".
func registerOverride(s string, a uint64) (uint64, error) {
	if s == "" {
		return a, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", decoder.ErrBadRegister, s)
	}
	return v, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (a *app) runCommand(ctx context.Context, args []string) error {
	fs := a.flagSet("run")
	regA := fs.String("a", "", "override register A")
	trace := fs.Bool("trace", false, "print every executed step")
	stats := fs.Bool("stats", false, "print execution statistics")
	maxSteps := fs.Int64("max-steps", 0, "instruction limit (0 = unlimited)")
	timeout := fs.Duration("timeout", 0, "execution timeout (0 = none)")
	verbose := fs.Bool("v", false, "verbose output")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono run <input.txt|prog.asm|prog.ccbc> [-a N]")
	}

	path := positional[0]
	program, initA, err := loadProgram(path)
	if err != nil {
		return err
	}
	initA, err = registerOverride(*regA, initA)
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Fprintf(a.stdout, "Executing: %s (A = %d, %d values)\n", path, initA, len(program.Code))
	}

	ctx, cancel := withTimeout(ctx, *timeout)
	defer cancel()

	machine := vm.NewVM()
	machine.SetMaxSteps(*maxSteps)
	machine.SetContext(ctx)
	if *trace {
		machine.EnableTrace()
	}
	if *stats {
		machine.EnableStats()
	}
	if err := machine.Load(program); err != nil {
		return err
	}
	machine.Reset(initA)

	out, execErr := machine.Execute()

	if *trace {
		if steps := machine.Trace(); len(steps) > 0 {
			fmt.Fprint(a.stdout, vm.TraceFrame(steps).Table())
		}
	}
	if execErr != nil {
		if len(out) > 0 {
			fmt.Fprintf(a.stderr, "partial output: %s\n", out)
		}
		return fmt.Errorf("executing: %w", execErr)
	}

	fmt.Fprintln(a.stdout, out.String())

	if *stats {
		s := machine.Stats()
		fmt.Fprintf(a.stdout, "steps: %d, jumps: %d, outputs: %d, time: %s\n",
			s.StepsExecuted, s.Jumps, s.OutputLen, time.Duration(s.ExecutionTimeNs))
	}
	return nil
}

func (a *app) seedCommand(ctx context.Context, args []string) error {
	sc := a.cfg.Search
	fs := a.flagSet("seed")
	strategy := fs.String("strategy", sc.Strategy, "search strategy: auto, reverse, exhaustive")
	workers := fs.Int("workers", sc.Workers, "worker goroutines (0 = NumCPU)")
	bound := fs.Uint64("bound", sc.Bound, "exclusive upper limit of the exhaustive scan")
	maxSteps := fs.Int64("max-steps", sc.MaxSteps, "instruction limit per candidate run")
	crossCheck := fs.Bool("cross-check", sc.CrossCheck, "verify a reverse result with an exhaustive scan")
	timeout := fs.String("timeout", sc.Timeout, "search timeout, e.g. 30s (empty = none)")
	target := fs.String("target", "", "comma-separated output to search for (default: the program)")
	verbose := fs.Bool("v", false, "verbose output")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono seed <input.txt|prog.asm|prog.ccbc> [-strategy auto]")
	}

	program, _, err := loadProgram(positional[0])
	if err != nil {
		return err
	}

	st, err := search.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	sc.Timeout = *timeout
	d, err := sc.TimeoutDuration()
	if err != nil {
		return err
	}

	opts := []search.Option{
		search.WithStrategy(st),
		search.WithWorkers(*workers),
		search.WithBound(*bound),
		search.WithMaxSteps(*maxSteps),
		search.WithCrossCheck(*crossCheck),
	}
	if *target != "" {
		t, err := decoder.DecodeProgram(*target)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		opts = append(opts, search.WithTarget(t.Code))
	}

	ctx, cancel := withTimeout(ctx, d)
	defer cancel()

	start := time.Now()
	res, err := search.Find(ctx, program, opts...)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"strategy":  res.Strategy,
		"evaluated": res.Evaluated,
		"elapsed":   time.Since(start),
	}).Info("seed search finished")

	if *verbose {
		fmt.Fprintf(a.stdout, "Strategy: %s, candidates: %d, elapsed: %s\n",
			res.Strategy, res.Evaluated, time.Since(start).Round(time.Millisecond))
	}
	fmt.Fprintln(a.stdout, res.String())
	return res.Err()
}

func (a *app) compileCommand(args []string) error {
	fs := a.flagSet("compile")
	output := fs.String("o", "", "output file (default: input with .ccbc extension)")
	regA := fs.String("a", "", "register A stored with the program")
	verbose := fs.Bool("v", false, "verbose output")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono compile <prog.asm|input.txt> [-o output.ccbc] [-a N]")
	}

	inputPath := positional[0]
	outputPath := *output
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".ccbc"
	}

	if *verbose {
		fmt.Fprintf(a.stdout, "Compiling: %s -> %s\n", inputPath, outputPath)
	}

	program, initA, err := loadProgram(inputPath)
	if err != nil {
		return err
	}
	initA, err = registerOverride(*regA, initA)
	if err != nil {
		return err
	}

	bytecode, err := vm.SerializeProgram(program, initA)
	if err != nil {
		return fmt.Errorf("serializing: %w", err)
	}
	if err := os.WriteFile(outputPath, bytecode, 0644); err != nil {
		return fmt.Errorf("writing bytecode: %w", err)
	}

	if *verbose {
		fmt.Fprintf(a.stdout, "Compiled %d instructions, A = %d\n", program.Len(), initA)
		fmt.Fprintf(a.stdout, "Output: %s (%d bytes)\n", outputPath, len(bytecode))
	} else {
		fmt.Fprintf(a.stdout, "Compiled: %s\n", outputPath)
	}
	return nil
}

func (a *app) execCommand(ctx context.Context, args []string) error {
	fs := a.flagSet("exec")
	regA := fs.String("a", "", "override the stored register A")
	maxSteps := fs.Int64("max-steps", 0, "instruction limit (0 = unlimited)")
	verbose := fs.Bool("v", false, "verbose output")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono exec <prog.ccbc>")
	}

	path := positional[0]
	bytecode, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading bytecode: %w", err)
	}
	program, initA, err := vm.DeserializeProgram(bytecode)
	if err != nil {
		return fmt.Errorf("deserializing: %w", err)
	}
	initA, err = registerOverride(*regA, initA)
	if err != nil {
		return err
	}

	if *verbose {
		fmt.Fprintf(a.stdout, "Loaded %d instructions, A = %d\n", program.Len(), initA)
	}

	v := vm.NewVM()
	v.SetMaxSteps(*maxSteps)
	v.SetContext(ctx)
	if err := v.Load(program); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	v.Reset(initA)

	out, err := v.Execute()
	if err != nil {
		return fmt.Errorf("executing: %w", err)
	}
	fmt.Fprintln(a.stdout, out.String())
	return nil
}

func (a *app) disasmCommand(args []string) error {
	fs := a.flagSet("disasm")
	output := fs.String("o", "", "output file (default: stdout)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono disasm <prog.ccbc|input.txt> [-o output.asm]")
	}

	program, _, err := loadProgram(positional[0])
	if err != nil {
		return err
	}
	asm := vm.Disassemble(program)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(asm), 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Fprintf(a.stdout, "Disassembled to: %s\n", *output)
		return nil
	}
	fmt.Fprint(a.stdout, asm)
	return nil
}

func (a *app) analyzeCommand(args []string) error {
	fs := a.flagSet("analyze")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono analyze <input.txt|prog.asm|prog.ccbc>")
	}

	program, _, err := loadProgram(positional[0])
	if err != nil {
		return err
	}

	report := analysis.New(analysis.WithAllChecks()).Analyze(program)
	fmt.Fprintf(a.stdout, "digit-wise: %t\n", report.DigitWise)
	if report.DigitWise {
		fmt.Fprintf(a.stdout, "outputs per pass: %d\n", report.OutputsPerPass)
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(a.stdout, "  %s\n", issue)
	}
	return nil
}

func (a *app) batchCommand(ctx context.Context, args []string) error {
	bc := a.cfg.Batch
	fs := a.flagSet("batch")
	output := fs.String("o", "", "output file (default: stdout)")
	format := fs.String("format", bc.Format, "output format: table, csv, json")
	workers := fs.Int("workers", bc.Workers, "rows processed at once (0 = NumCPU)")
	maxSteps := fs.Int64("max-steps", a.cfg.Search.MaxSteps, "instruction limit per run")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: chrono batch <programs.csv|.jsonl|.parquet> [-o out] [-format csv]")
	}

	f, err := batch.ParseFormat(*format)
	if err != nil {
		return err
	}

	df, err := loader.Load(positional[0])
	if err != nil {
		return err
	}

	result, err := batch.Run(ctx, df, batch.Config{
		Workers:  *workers,
		MaxSteps: *maxSteps,
		Search:   a.cfg.Search.Options(),
	})
	if err != nil {
		return err
	}

	w := a.stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer file.Close()
		w = file
	}
	return batch.Write(ctx, w, result, f)
}

func (a *app) replCommand(args []string) error {
	fs := a.flagSet("repl")
	asmMode := fs.Bool("asm", false, "start in assembly mode (default: list mode)")
	regA := fs.String("a", "", "initial register A")

	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	r := repl.New()
	if *asmMode {
		r.SetMode(repl.ModeASM)
	}
	initA, err := registerOverride(*regA, 0)
	if err != nil {
		return err
	}
	r.SetRegisterA(initA)
	r.SetMaxSteps(a.cfg.Search.MaxSteps)
	r.SetSearchOptions(a.cfg.Search.Options()...)

	r.Start(a.stdin, a.stdout)
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, `chrono - 3-bit chronospatial computer

Usage:
  chrono [-config file] [-log-level level] <command> [arguments]

Commands:
  run <file>            Run a puzzle input, assembly or bytecode file
  seed <file>           Find the smallest A that makes the program print itself
  compile <file>        Assemble to bytecode (.ccbc)
  exec <file.ccbc>      Execute compiled bytecode
  disasm <file>         Disassemble to assembly
  analyze <file>        Check whether reverse search applies
  batch <table>         Run or search every row of a CSV, JSON lines or Parquet table
  repl                  Start interactive REPL
  version               Print version information
  help                  Show this help message

Global Options:
  -config <file>        Settings file (.toml, .yaml)
  -log-level <level>    debug, info, warn, error
  -log-format <format>  text or json

Run Options:
  -a <n>                Override register A
  -trace                Print every executed step
  -stats                Print execution statistics
  -max-steps <n>        Instruction limit (0 = unlimited)
  -timeout <d>          Execution timeout
  -v                    Verbose output

Seed Options:
  -strategy <s>         auto, reverse, exhaustive
  -workers <n>          Worker goroutines (0 = NumCPU)
  -bound <n>            Exclusive upper limit of the exhaustive scan
  -max-steps <n>        Instruction limit per candidate run
  -cross-check          Verify a reverse result with an exhaustive scan
  -timeout <d>          Search timeout
  -target <list>        Output to search for (default: the program)

Compile Options:
  -o <file>             Output file (default: input with .ccbc extension)
  -a <n>                Register A stored with the program

Batch Options:
  -o <file>             Output file (default: stdout)
  -format <f>           table, csv, json
  -workers <n>          Rows processed at once

Exit status is 2 when seed finds no solution and 1 on any other error.

Examples:
  chrono run input.txt
  chrono run -a 117440 input.txt
  chrono seed -strategy exhaustive -bound 1000000 input.txt
  chrono compile prog.asm -a 2024 -o prog.ccbc
  chrono exec prog.ccbc
  chrono batch -format csv programs.csv
  chrono repl -asm`)
	return nil
}
