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

import (
	"encoding/csv"
	"fmt"
	"io"
)

// DefaultTripTypeGearMapping is the reference trip-type -> gear-code table,
// taken from the trip_type_gear_mappings dict in
// _examples/original_source/lib/sasi_gridder/sasi_gridder_task.py. The
// --mappings-file CLI flag overrides it with LoadTripTypeMapping.
func DefaultTripTypeGearMapping() map[string]string {
	return map[string]string{
		"hy_drg": "GC30",
		"otter":  "GC10",
		"sca-gc": "GC21",
		"sca-la": "GC20",
		"shrimp": "GC11",
		"squid":  "GC12",
		"raised": "GC13",
		"trap":   "GC60",
		"gillne": "GC50",
		"longli": "GC40",
	}
}

// LoadTripTypeMapping reads a two-column "trip_type,gear_code" CSV and
// returns it as a lookup table, overriding DefaultTripTypeGearMapping.
func LoadTripTypeMapping(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("effort: reading mappings file: %w", err)
	}
	table := make(map[string]string, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && (rec[0] == "trip_type" || rec[0] == "TRIP_TYPE") {
			continue // header row
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("effort: mappings file row %d: expected 2 columns, got %d", i, len(rec))
		}
		table[rec[0]] = rec[1]
	}
	return table, nil
}
