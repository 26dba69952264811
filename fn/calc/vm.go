// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package calc is a self-contained evaluator for the restricted
// PostScript calculator subset used by Type 4 functions (spec.md
// §4.6): a small operand stack, the whitelisted arithmetic/relational/
// stack operators, and if/ifelse control flow. It implements
// host.Interpreter so a caller with no PostScript engine of its own
// can still evaluate Type 4 functions.
package calc

import (
	"fmt"
	"math"

	"github.com/corefn/functions/host"
)

// maxStackDepth bounds the operand stack (spec.md §9, matching the
// original's ps_proc stack guard).
const maxStackDepth = 100

// VM is a minimal operand-stack machine for the calculator subset.
type VM struct {
	stack []float64
}

// New returns a VM with an empty operand stack.
func New() *VM {
	return &VM{stack: make([]float64, 0, 16)}
}

func (m *VM) Push(v float64) error {
	if len(m.stack) >= maxStackDepth {
		return fmt.Errorf("calc: stack overflow (limit %d)", maxStackDepth)
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *VM) Pop() (float64, error) {
	n := len(m.stack)
	if n == 0 {
		return 0, fmt.Errorf("calc: stack underflow")
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v, nil
}

func (m *VM) Depth() int { return len(m.stack) }

func (m *VM) top(n int) ([]float64, error) {
	if len(m.stack) < n {
		return nil, fmt.Errorf("calc: stack underflow (need %d, have %d)", n, len(m.stack))
	}
	return m.stack[len(m.stack)-n:], nil
}

// Run executes proc against the operand stack. Errors are plain; fn's
// type4.go wraps them with the appropriate PDF error code.
func (m *VM) Run(proc host.Procedure) error {
	for i := 0; i < len(proc); i++ {
		tok := proc[i]
		switch tok.Kind {
		case host.TokInt:
			if err := m.Push(float64(tok.Int)); err != nil {
				return err
			}
		case host.TokReal:
			if err := m.Push(tok.Real); err != nil {
				return err
			}
		case host.TokBool:
			if err := m.pushBool(tok.Bool); err != nil {
				return err
			}
		case host.TokProc:
			// A bare procedure literal only ever appears as the
			// then/else argument of an immediately following if/ifelse,
			// handled by name-dispatch below via peeking ahead.
			i = m.runConditional(proc, i)
			if i < 0 {
				return fmt.Errorf("calc: procedure literal not followed by if/ifelse, or its if/ifelse failed")
			}
		case host.TokName:
			if err := m.op(tok.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// runConditional consumes one or two procedure literals starting at i
// followed by "if" or "ifelse", executing the taken branch. Returns
// the index of the consumed "if"/"ifelse" token, or -1 on malformed
// input, when the condition cannot be popped, or when the taken branch
// fails.
func (m *VM) runConditional(proc host.Procedure, i int) int {
	first := proc[i].Sub
	if i+1 < len(proc) && proc[i+1].Kind == host.TokProc {
		second := proc[i+1].Sub
		if i+2 < len(proc) && proc[i+2].Kind == host.TokName && proc[i+2].Name == "ifelse" {
			cond, err := m.Pop()
			if err != nil {
				return -1
			}
			var branch host.Procedure
			if cond != 0 {
				branch = first
			} else {
				branch = second
			}
			if err := m.Run(branch); err != nil {
				return -1
			}
			return i + 2
		}
		return -1
	}
	if i+1 < len(proc) && proc[i+1].Kind == host.TokName && proc[i+1].Name == "if" {
		cond, err := m.Pop()
		if err != nil {
			return -1
		}
		if cond != 0 {
			if err := m.Run(first); err != nil {
				return -1
			}
		}
		return i + 1
	}
	return -1
}

func (m *VM) pushBool(b bool) error {
	if b {
		return m.Push(1)
	}
	return m.Push(0)
}

// operatorNames is the exhaustive calculator-subset whitelist (spec.md
// §4.6 "no arbitrary PostScript"), shared between op()'s dispatch and
// ValidateProcedure's unpack-time check. "if"/"ifelse" are included
// even though op() never dispatches them directly: Run consumes them
// itself via runConditional, but a procedure naming either is still a
// legal calculator token.
var operatorNames = map[string]bool{
	"abs": true, "neg": true, "sqrt": true, "sin": true, "cos": true,
	"atan": true, "exp": true, "ln": true, "log": true, "ceiling": true,
	"floor": true, "round": true, "truncate": true, "cvi": true, "cvr": true,
	"add": true, "sub": true, "mul": true, "div": true, "idiv": true, "mod": true,
	"and": true, "or": true, "xor": true, "not": true, "bitshift": true,
	"eq": true, "ne": true, "gt": true, "ge": true, "lt": true, "le": true,
	"true": true, "false": true,
	"pop": true, "exch": true, "dup": true, "copy": true, "index": true, "roll": true,
	"if": true, "ifelse": true,
}

// ValidateProcedure walks proc (and every nested sub-procedure) and
// reports an error on the first token that is not a number, boolean,
// nested procedure, or whitelisted operator name. Grounded on spec.md
// §4.6's unpack-time check ("walk the procedure tree ... any other
// form rejects the procedure"): a bad procedure is rejected once, at
// unpack, rather than surfacing mid-evaluation as a VM error.
func ValidateProcedure(proc host.Procedure) error {
	for _, tok := range proc {
		switch tok.Kind {
		case host.TokInt, host.TokReal, host.TokBool:
			// always legal
		case host.TokName:
			if !operatorNames[tok.Name] {
				return fmt.Errorf("calc: unknown operator %q", tok.Name)
			}
		case host.TokProc:
			if err := ValidateProcedure(tok.Sub); err != nil {
				return err
			}
		default:
			return fmt.Errorf("calc: unrecognised token kind %d", tok.Kind)
		}
	}
	return nil
}

// op dispatches one calculator operator name against the stack.
// Unknown names are rejected: the whitelist is exhaustive by design
// (spec.md §4.6 "no arbitrary PostScript").
func (m *VM) op(name string) error {
	switch name {
	case "abs":
		return m.unary(math.Abs)
	case "neg":
		return m.unary(func(x float64) float64 { return -x })
	case "sqrt":
		return m.unary(math.Sqrt)
	case "sin":
		return m.unary(func(x float64) float64 { return math.Sin(x * math.Pi / 180) })
	case "cos":
		return m.unary(func(x float64) float64 { return math.Cos(x * math.Pi / 180) })
	case "atan":
		return m.binary(func(num, den float64) float64 {
			deg := math.Atan2(num, den) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			return deg
		})
	case "exp":
		return m.binary(math.Pow)
	case "ln":
		return m.unary(math.Log)
	case "log":
		return m.unary(math.Log10)
	case "ceiling":
		return m.unary(math.Ceil)
	case "floor":
		return m.unary(math.Floor)
	case "round":
		return m.unary(math.Round)
	case "truncate":
		return m.unary(math.Trunc)
	case "cvi":
		return m.unary(math.Trunc)
	case "cvr":
		return nil
	case "add":
		return m.binary(func(a, b float64) float64 { return a + b })
	case "sub":
		return m.binary(func(a, b float64) float64 { return a - b })
	case "mul":
		return m.binary(func(a, b float64) float64 { return a * b })
	case "div":
		return m.binaryErr(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("calc: div by zero")
			}
			return a / b, nil
		})
	case "idiv":
		return m.binaryErr(func(a, b float64) (float64, error) {
			if int64(b) == 0 {
				return 0, fmt.Errorf("calc: idiv by zero")
			}
			return float64(int64(a) / int64(b)), nil
		})
	case "mod":
		return m.binaryErr(func(a, b float64) (float64, error) {
			if int64(b) == 0 {
				return 0, fmt.Errorf("calc: mod by zero")
			}
			return float64(int64(a) % int64(b)), nil
		})
	case "and":
		return m.binary(func(a, b float64) float64 { return float64(int64(a) & int64(b)) })
	case "or":
		return m.binary(func(a, b float64) float64 { return float64(int64(a) | int64(b)) })
	case "xor":
		return m.binary(func(a, b float64) float64 { return float64(int64(a) ^ int64(b)) })
	case "not":
		return m.unary(func(x float64) float64 {
			if x == 0 || x == 1 {
				if x == 0 {
					return 1
				}
				return 0
			}
			return float64(^int64(x))
		})
	case "bitshift":
		return m.binary(func(a, shift float64) float64 {
			s := int64(shift)
			if s >= 0 {
				return float64(int64(a) << uint(s))
			}
			return float64(int64(a) >> uint(-s))
		})
	case "eq":
		return m.compare(func(a, b float64) bool { return a == b })
	case "ne":
		return m.compare(func(a, b float64) bool { return a != b })
	case "gt":
		return m.compare(func(a, b float64) bool { return a > b })
	case "ge":
		return m.compare(func(a, b float64) bool { return a >= b })
	case "lt":
		return m.compare(func(a, b float64) bool { return a < b })
	case "le":
		return m.compare(func(a, b float64) bool { return a <= b })
	case "true":
		return m.Push(1)
	case "false":
		return m.Push(0)
	case "pop":
		_, err := m.Pop()
		return err
	case "exch":
		return m.exch()
	case "dup":
		return m.dup()
	case "copy":
		return m.copyN()
	case "index":
		return m.index()
	case "roll":
		return m.roll()
	default:
		return fmt.Errorf("calc: unknown operator %q", name)
	}
}

func (m *VM) unary(f func(float64) float64) error {
	a, err := m.Pop()
	if err != nil {
		return err
	}
	return m.Push(f(a))
}

func (m *VM) binary(f func(a, b float64) float64) error {
	vs, err := m.top(2)
	if err != nil {
		return err
	}
	a, b := vs[0], vs[1]
	m.stack = m.stack[:len(m.stack)-2]
	return m.Push(f(a, b))
}

func (m *VM) binaryErr(f func(a, b float64) (float64, error)) error {
	vs, err := m.top(2)
	if err != nil {
		return err
	}
	a, b := vs[0], vs[1]
	r, err := f(a, b)
	if err != nil {
		return err
	}
	m.stack = m.stack[:len(m.stack)-2]
	return m.Push(r)
}

func (m *VM) compare(f func(a, b float64) bool) error {
	vs, err := m.top(2)
	if err != nil {
		return err
	}
	a, b := vs[0], vs[1]
	m.stack = m.stack[:len(m.stack)-2]
	return m.pushBool(f(a, b))
}

func (m *VM) exch() error {
	n := len(m.stack)
	if n < 2 {
		return fmt.Errorf("calc: stack underflow (exch)")
	}
	m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
	return nil
}

func (m *VM) dup() error {
	n := len(m.stack)
	if n < 1 {
		return fmt.Errorf("calc: stack underflow (dup)")
	}
	return m.Push(m.stack[n-1])
}

func (m *VM) copyN() error {
	nv, err := m.Pop()
	if err != nil {
		return err
	}
	n := int(nv)
	if n < 0 || n > len(m.stack) {
		return fmt.Errorf("calc: copy count %d out of range (stack depth %d)", n, len(m.stack))
	}
	if len(m.stack)+n > maxStackDepth {
		return fmt.Errorf("calc: stack overflow (limit %d)", maxStackDepth)
	}
	base := len(m.stack) - n
	m.stack = append(m.stack, m.stack[base:base+n]...)
	return nil
}

func (m *VM) index() error {
	nv, err := m.Pop()
	if err != nil {
		return err
	}
	n := int(nv)
	if n < 0 || n >= len(m.stack) {
		return fmt.Errorf("calc: index %d out of range (stack depth %d)", n, len(m.stack))
	}
	return m.Push(m.stack[len(m.stack)-1-n])
}

func (m *VM) roll() error {
	vs, err := m.top(2)
	if err != nil {
		return err
	}
	n := int(vs[0])
	j := int(vs[1])
	m.stack = m.stack[:len(m.stack)-2]
	if n < 0 || n > len(m.stack) {
		return fmt.Errorf("calc: roll count %d out of range (stack depth %d)", n, len(m.stack))
	}
	if n == 0 {
		return nil
	}
	j = ((j % n) + n) % n
	base := len(m.stack) - n
	seg := append([]float64(nil), m.stack[base:]...)
	rolled := make([]float64, n)
	for i, v := range seg {
		rolled[(i+j)%n] = v
	}
	copy(m.stack[base:], rolled)
	return nil
}
