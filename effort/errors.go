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

package effort

import "fmt"

// MappingError reports that a single effort row could not be coerced. It is
// non-fatal: the Ingestor logs it at WARN and skips the row.
type MappingError struct {
	Field string
	Value string
	Err   error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("effort: field %q value %q: %v", e.Field, e.Value, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }
