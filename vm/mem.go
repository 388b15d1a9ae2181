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
	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// value resolves op to its i64 value under the machine's addressing rules.
func (m *Machine) value(op hir.Operand) (int64, error) {
	switch op.Kind {
	case hir.Immediate:
		return op.Value, nil
	case hir.LabelRef:
		return int64(op.Target), nil
	case hir.Direct:
		addr, err := m.effectiveAddress(op)
		if err != nil {
			return 0, err
		}
		return m.registers[addr], nil
	case hir.Indirect:
		ptr := op.Value
		if ptr < 0 {
			return 0, m.fault(diag.CodeNegativeIndirect, "negative indirect pointer register %d", ptr)
		}
		target := m.registers[ptr]
		if target < 0 {
			return 0, m.fault(diag.CodeNegativeIndirect, "indirect through register %d yields negative address %d", ptr, target)
		}
		return m.registers[target], nil
	default:
		return 0, m.fault(diag.CodeBadPC, "operand of unknown kind %v", op.Kind)
	}
}

// effectiveAddress computes the register address a Direct operand denotes:
// its base register, or base+index when an accessor is present.
func (m *Machine) effectiveAddress(op hir.Operand) (int64, error) {
	if op.Kind != hir.Direct {
		return 0, m.fault(diag.CodeBadPC, "effective address requested for non-direct operand")
	}
	if op.Index == nil {
		return op.Value, nil
	}
	k, err := m.value(*op.Index)
	if err != nil {
		return 0, err
	}
	return op.Value + k, nil
}

// store writes v to the address op denotes. op must be Direct or Indirect
// (enforced statically by InstructionValidation; Immediate targets never
// reach the VM).
func (m *Machine) store(op hir.Operand, v int64) error {
	switch op.Kind {
	case hir.Direct:
		addr, err := m.effectiveAddress(op)
		if err != nil {
			return err
		}
		m.registers[addr] = v
		return nil
	case hir.Indirect:
		ptr := op.Value
		if ptr < 0 {
			return m.fault(diag.CodeNegativeIndirect, "negative indirect pointer register %d", ptr)
		}
		target := m.registers[ptr]
		if target < 0 {
			return m.fault(diag.CodeNegativeIndirect, "indirect through register %d yields negative address %d", ptr, target)
		}
		m.registers[target] = v
		return nil
	default:
		return m.fault(diag.CodeBadPC, "store target of unsupported kind %v", op.Kind)
	}
}
