// Adapted from ngaro - https://github.com/db47h/ngaro
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hadronomy/ram/analysis"
	"github.com/hadronomy/ram/driver"
	"github.com/hadronomy/ram/hir"
	"github.com/hadronomy/ram/source"
)

const version = "0.1.0"

// exit codes.
const (
	exitOK            = 0
	exitRuntimeFault  = 1
	exitCompileErrors = 2
	exitUsage         = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ram <run|validate|version> ...")
		return exitUsage
	}

	switch args[0] {
	case "run":
		return runCmd(args[1:])
	case "validate":
		return validateCmd(args[1:])
	case "version":
		fmt.Println(version)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "ram: unknown command %q\n", args[0])
		return exitUsage
	}
}

func runCmd(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	input := fs.String("input", "", "whitespace-separated list of decimal integers fed to the input tape")
	memory := fs.String("memory", "", "comma-separated register presets, k=v,k=v,...")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *verbose {
		driver.Log.SetLevel(logrus.DebugLevel)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ram run <path> [--input \"v1 v2 ...\"] [--memory \"k=v,...\"]")
		return exitUsage
	}

	values, err := parseInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ram: %v\n", err)
		return exitUsage
	}
	presets, err := parseMemory(*memory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ram: %v\n", err)
		return exitUsage
	}

	db, file, err := loadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ram: %v\n", err)
		return exitUsage
	}

	result := driver.Run(db, file, values, presets)
	result.Diagnostics.Render(os.Stderr, db)

	// A fault halts the VM with an Error diagnostic attached; a compile
	// error never reaches execution, so Halted stays false.
	if result.Diagnostics.HasErrors() && result.Halted {
		return exitRuntimeFault
	}
	if result.Diagnostics.HasErrors() {
		return exitCompileErrors
	}
	for _, v := range result.Output {
		fmt.Println(v)
	}
	return exitOK
}

func validateCmd(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	showCFG := fs.Bool("show-cfg", false, "print the control-flow graph")
	showHIR := fs.Bool("show-hir", false, "print the lowered HIR")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *verbose {
		driver.Log.SetLevel(logrus.DebugLevel)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ram validate <path> [--show-cfg] [--show-hir]")
		return exitUsage
	}

	db, file, err := loadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ram: %v\n", err)
		return exitUsage
	}

	compiled := driver.Compile(db, file)
	compiled.Diagnostics.Render(os.Stderr, db)

	if *showHIR {
		printHIR(compiled.Program)
	}
	if *showCFG {
		printCFG(compiled.Program)
	}

	if compiled.Diagnostics.HasErrors() {
		return exitCompileErrors
	}
	return exitOK
}

func loadFile(path string) (*source.Database, source.FileID, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading %s", path)
	}
	db := source.NewDatabase()
	file := db.AddFile(path, string(text))
	return db, file, nil
}

func parseInput(s string) ([]int64, error) {
	fields := strings.Fields(s)
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --input value %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseMemory(s string) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("invalid --memory entry %q, expected k=v", pair)
		}
		k, err := strconv.ParseInt(strings.TrimSpace(kv[0]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --memory key %q", kv[0])
		}
		v, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --memory value %q", kv[1])
		}
		out[k] = v
	}
	return out, nil
}

func printHIR(program *hir.Program) {
	if program == nil {
		return
	}
	for _, instr := range program.Instructions {
		fmt.Printf("%4d: %s", instr.ID, instr.Opcode)
		for _, op := range instr.Operands {
			fmt.Printf(" %s", formatOperand(op))
		}
		fmt.Println()
	}
}

func formatOperand(op hir.Operand) string {
	switch op.Kind {
	case hir.Immediate:
		return fmt.Sprintf("=%d", op.Value)
	case hir.Indirect:
		return fmt.Sprintf("*%d", op.Value)
	case hir.LabelRef:
		return fmt.Sprintf("@%d", op.Target)
	default:
		if op.Index != nil {
			return fmt.Sprintf("%d[%s]", op.Value, formatOperand(*op.Index))
		}
		return fmt.Sprintf("%d", op.Value)
	}
}

func printCFG(program *hir.Program) {
	if program == nil {
		return
	}
	pipeline, err := analysis.NewPipeline([]analysis.Pass{&analysis.InstructionValidation{}, &analysis.ControlFlowGraph{}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ram: %v\n", err)
		return
	}
	ctx := pipeline.Run(program)
	out, ok := ctx.Output(analysis.TagControlFlowGraph)
	if !ok {
		return
	}
	cfg := out.(*analysis.CFG)
	for _, b := range cfg.Blocks {
		fmt.Printf("block %d: [%d, %d)\n", b.ID, b.Start, b.End)
		for _, e := range b.Successors {
			fmt.Printf("  -> %d (%s)\n", e.Target, e.Kind)
		}
	}
}
