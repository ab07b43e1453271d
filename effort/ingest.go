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

import "log"

// Ingestor pulls rows from Reader, maps them with Mapper, and invokes
// OnEffort for each successfully mapped Effort. A row that fails to map is
// logged at WARN and skipped; this never aborts the run.
type Ingestor struct {
	Reader RowReader
	Mapper *Mapper
}

// Ingest runs the pipeline to completion, returning the number of rows
// skipped due to mapping errors.
func (ing *Ingestor) Ingest(onEffort func(*Effort) error) (skipped int, err error) {
	for {
		row, more, err := ing.Reader.Next()
		if err != nil {
			return skipped, err
		}
		if !more {
			return skipped, nil
		}
		e, merr := ing.Mapper.Map(row)
		if merr != nil {
			log.Printf("WARN: %v", merr)
			skipped++
			continue
		}
		if err := onEffort(e); err != nil {
			return skipped, err
		}
	}
}
