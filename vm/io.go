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

// readInput dequeues one value from the head of the input FIFO. An empty
// tape yields 0 rather than a fault.
func (m *Machine) readInput() int64 {
	if len(m.input) == 0 {
		return 0
	}
	v := m.input[0]
	m.input = m.input[1:]
	return v
}

// writeOutput appends v to the output sequence.
func (m *Machine) writeOutput(v int64) {
	m.output = append(m.output, v)
}
