/*
Copyright © 2024 the AtmRTM authors.
This file is part of AtmRTM.

AtmRTM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AtmRTM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AtmRTM.  If not, see <http://www.gnu.org/licenses/>.
*/

package atmrtm

import (
	"errors"
	"fmt"
)

// Kinds of errors returned by the model. Errors are wrapped with
// additional context, so they should be checked using errors.Is.
var (
	// ErrInconsistentInputs indicates that inputs have the wrong shape.
	ErrInconsistentInputs = errors.New("inputs to RTM have the wrong shape")

	// ErrNoSurface indicates that the surface pressure is not bracketed
	// by the pressure levels.
	ErrNoSurface = errors.New("couldn't find the surface index")

	// ErrNotContiguous indicates that a row of an input array could
	// not be viewed as a flat slice.
	ErrNotContiguous = errors.New("array slice not contiguous in memory")

	// ErrCancelled indicates that a batch was stopped before it finished.
	ErrCancelled = errors.New("operation cancelled early")
)

// PointError is an error that occurred while processing a single
// profile in a batch.
type PointError struct {
	// Point is the index of the profile in the batch.
	Point int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("atmrtm: point %d: %v", e.Point, e.Err)
}

func (e *PointError) Unwrap() error { return e.Err }
