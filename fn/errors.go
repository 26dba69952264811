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

package fn

import "errors"

// Sentinel error kinds. Every error this package returns wraps exactly
// one of these via fmt.Errorf's %w, so callers can classify failures
// with errors.Is without parsing message text.
var (
	// ErrTypeCheck: a required dictionary key was missing, or had the
	// wrong object kind.
	ErrTypeCheck = errors.New("fn: type check")
	// ErrRangeCheck: a numeric value was outside its allowed range
	// (bad BitsPerSample, zero spread factor, non-monotone domain,
	// wrong arity for a usage, non-monotone Type 3 bounds, ...).
	ErrRangeCheck = errors.New("fn: range check")
	// ErrUndefinedResult: a degenerate domain (lb == ub), a Type 2
	// power precondition violation, or Type 3 recursion overflow.
	ErrUndefinedResult = errors.New("fn: undefined result")
	// ErrVMError: allocation failure during unpack, or a Type 4
	// procedure failing while it runs (stack overflow, division by
	// zero, an operator short of operands).
	ErrVMError = errors.New("fn: allocation failure")
	// ErrIOError: a byte source was unreadable or shorter than
	// required.
	ErrIOError = errors.New("fn: io error")
	// ErrStackUnderflow: a Type 4 procedure left fewer than N values
	// on the operand stack.
	ErrStackUnderflow = errors.New("fn: stack underflow")
	// ErrInvalidAccess: a Type 4 procedure was not executable/readable,
	// or contained a token outside the calculator subset.
	ErrInvalidAccess = errors.New("fn: invalid access")
	// ErrConfigurationError: the low-memory handler could not be
	// registered at startup.
	ErrConfigurationError = errors.New("fn: configuration error")
)
