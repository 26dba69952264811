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

import "fmt"

// Order classifies a reported discontinuity: a jump in value (0), a
// kink in the first derivative (1), or "no discontinuity in this
// interval" (-1).
type Order int

const (
	OrderNone  Order = -1
	OrderValue Order = 0
	OrderSlope Order = 1
)

// Discontinuity is the result of Function.FindDiscontinuity.
type Discontinuity struct {
	At    float64
	Order Order
}

func noDiscontinuity() Discontinuity { return Discontinuity{Order: OrderNone} }

func wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, args...)...)
}
