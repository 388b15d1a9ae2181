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

// Package vm implements the register-machine virtual machine: a sparse
// register bank addressed by immediate, direct, indirect and indexed
// operands, a FIFO input tape, an append-only output list, and labeled
// jumps over a lowered hir.Program.
package vm

import "github.com/hadronomy/ram/hir"

// Option configures a Machine at construction time.
type Option func(*Machine) error

// Input seeds the FIFO input tape, head first.
func Input(values []int64) Option {
	return func(m *Machine) error {
		m.input = append(m.input, values...)
		return nil
	}
}

// Memory presets register values before execution.
func Memory(values map[int64]int64) Option {
	return func(m *Machine) error {
		for reg, v := range values {
			m.registers[reg] = v
		}
		return nil
	}
}

// Breakpoints installs an initial breakpoint set.
func Breakpoints(pcs ...int64) Option {
	return func(m *Machine) error {
		for _, pc := range pcs {
			m.breakpoints[pc] = true
		}
		return nil
	}
}

// Machine is a single register-machine VM instance. Register 0 is the
// accumulator. The zero value is not usable; construct with New.
type Machine struct {
	program     *hir.Program
	pc          int64
	registers   map[int64]int64
	input       []int64 // FIFO: index 0 is the head
	output      []int64
	halted      bool
	stop        bool
	breakpoints map[int64]bool
	brokeAt     int64 // pc of the breakpoint last reported, so Step can pass over it
	steps       uint64
}

// New constructs a Machine loaded with program.
func New(program *hir.Program, opts ...Option) (*Machine, error) {
	m := &Machine{
		program:     program,
		registers:   make(map[int64]int64),
		breakpoints: make(map[int64]bool),
		brokeAt:     -1,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load replaces the running program and resets all execution state, keeping
// the breakpoint set.
func (m *Machine) Load(program *hir.Program) {
	m.program = program
	m.Reset()
}

// Reset restores empty execution state while keeping the loaded program and
// breakpoints.
func (m *Machine) Reset() {
	m.pc = 0
	m.registers = make(map[int64]int64)
	m.input = nil
	m.output = nil
	m.halted = false
	m.stop = false
	m.brokeAt = -1
	m.steps = 0
}

// PC returns the current program counter.
func (m *Machine) PC() int64 { return m.pc }

// Halted reports whether the machine has executed HALT.
func (m *Machine) Halted() bool { return m.halted }

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() uint64 { return m.steps }

// Output returns the accumulated output sequence. The caller must not
// mutate the returned slice.
func (m *Machine) Output() []int64 { return m.output }

// Register returns a register's value, defaulting to 0.
func (m *Machine) Register(n int64) int64 { return m.registers[n] }

// SetRegister writes a register's value directly, bypassing operand
// addressing. Used by the driver to apply --memory presets.
func (m *Machine) SetRegister(n, v int64) { m.registers[n] = v }

// Stop requests that execution halt before the next instruction. The flag is
// observed at the head of Step, so a driver can cancel a run between
// instructions; registers, pc and output are preserved.
func (m *Machine) Stop() { m.stop = true }

// SetBreakpoint arms a breakpoint at pc.
func (m *Machine) SetBreakpoint(pc int64) { m.breakpoints[pc] = true }

// ClearBreakpoint disarms a breakpoint at pc.
func (m *Machine) ClearBreakpoint(pc int64) { delete(m.breakpoints, pc) }
