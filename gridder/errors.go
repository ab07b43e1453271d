/*
Copyright © 2024 the SASI Gridder authors.
This file is part of SASI Gridder.

SASI Gridder is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SASI Gridder is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SASI Gridder.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridder

import "fmt"

// GriddingError reports a fatal geometry-library failure during stat-area or
// unassigned redistribution, naming the offending cell or stat area id.
type GriddingError struct {
	Kind   string // "stat-area" or "cell"
	ID     int
	Reason string
}

func (e *GriddingError) Error() string {
	return fmt.Sprintf("gridder: %s %d: %s", e.Kind, e.ID, e.Reason)
}

// OutputError reports that the output CSV could not be opened or written.
type OutputError struct {
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("gridder: writing output: %v", e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
