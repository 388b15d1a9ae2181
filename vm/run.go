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

package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// FaultError wraps a fatal runtime condition: division by zero, a negative
// indirect pointer, or a jump to an out-of-range pc. It carries the pc at
// which execution stopped and a stable diagnostic code.
type FaultError struct {
	Code string
	PC   int64
	msg  string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s at pc=%d: %s", e.Code, e.PC, e.msg)
}

func (m *Machine) fault(code, format string, args ...interface{}) error {
	return &FaultError{Code: code, PC: m.pc, msg: fmt.Sprintf(format, args...)}
}

// StepOutcome classifies the result of a single Step, which exists as its
// own primitive so the same entry point serves debuggers and batch runs
// without a second execution path.
type StepOutcome int

const (
	Continued StepOutcome = iota
	Halted
	BreakpointHit
)

// Step executes at most one instruction. If a breakpoint is armed at the
// current pc and the machine has not already halted, Step reports
// BreakpointHit without executing anything; call Step again to proceed past
// it. Step never panics: fatal runtime conditions are returned as a
// *FaultError, which also halts the machine.
func (m *Machine) Step() (outcome StepOutcome, err error) {
	if m.halted {
		return Halted, nil
	}
	if m.stop {
		m.stop = false
		m.halted = true
		return Halted, nil
	}
	if m.pc < 0 || int(m.pc) >= len(m.program.Instructions) {
		m.halted = true
		return Halted, nil
	}
	if m.breakpoints[m.pc] && m.brokeAt != m.pc {
		m.brokeAt = m.pc
		return BreakpointHit, nil
	}
	m.brokeAt = -1

	defer func() {
		if r := recover(); r != nil {
			m.halted = true
			if fe, ok := r.(*FaultError); ok {
				err = fe
				return
			}
			err = errors.Errorf("%v", r)
		}
	}()

	instr := m.program.Instructions[m.pc]
	jumped, execErr := m.execute(instr)
	if execErr != nil {
		m.halted = true
		return Halted, execErr
	}
	m.steps++
	if m.halted {
		return Halted, nil
	}
	if !jumped {
		m.pc++
	}
	return Continued, nil
}

// Run executes until halted, a fault occurs, or a breakpoint (other than one
// already passed) is hit.
func (m *Machine) Run() error {
	for !m.halted {
		outcome, err := m.Step()
		if err != nil {
			return err
		}
		if outcome == BreakpointHit {
			return nil
		}
	}
	return nil
}

// RunUntilBreak runs until completion, a fault, or a breakpoint, returning
// the outcome rather than swallowing it; the driver uses it to implement a
// cooperative breakpoint pause.
func (m *Machine) RunUntilBreak() (StepOutcome, error) {
	for {
		outcome, err := m.Step()
		if err != nil {
			return Halted, err
		}
		if outcome != Continued {
			return outcome, nil
		}
	}
}

func (m *Machine) execute(instr hir.Instruction) (jumped bool, err error) {
	var op hir.Operand
	if len(instr.Operands) == 1 {
		op = instr.Operands[0]
	}

	switch instr.Opcode {
	case "LOAD":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		m.registers[0] = v
	case "STORE":
		if err := m.store(op, m.registers[0]); err != nil {
			return false, err
		}
	case "READ":
		if err := m.store(op, m.readInput()); err != nil {
			return false, err
		}
	case "WRITE":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		m.writeOutput(v)
	case "ADD":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		m.registers[0] += v
	case "SUB":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		m.registers[0] -= v
	case "MUL":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		m.registers[0] *= v
	case "DIV":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		if v == 0 {
			return false, m.fault(diag.CodeDivByZero, "division by zero")
		}
		m.registers[0] /= v
	case "MOD":
		v, err := m.value(op)
		if err != nil {
			return false, err
		}
		if v == 0 {
			return false, m.fault(diag.CodeDivByZero, "modulo by zero")
		}
		m.registers[0] %= v
	case "JUMP":
		return m.jumpTo(op)
	case "JZERO":
		if m.registers[0] == 0 {
			return m.jumpTo(op)
		}
	case "JGTZ":
		if m.registers[0] > 0 {
			return m.jumpTo(op)
		}
	case "JNEG":
		if m.registers[0] < 0 {
			return m.jumpTo(op)
		}
	case "HALT":
		m.halted = true
	default:
		return false, m.fault(diag.CodeBadPC, "cannot execute unresolved opcode %q", instr.Opcode)
	}
	return false, nil
}

func (m *Machine) jumpTo(op hir.Operand) (bool, error) {
	if op.Kind != hir.LabelRef || op.Target < 0 || int(op.Target) >= len(m.program.Instructions) {
		return false, m.fault(diag.CodeBadPC, "jump to out-of-range target")
	}
	m.pc = int64(op.Target)
	return true, nil
}
