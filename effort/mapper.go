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
	"fmt"
	"math"
	"strconv"
)

// Mapping describes one source-field -> target-attribute coercion, mirroring
// the {source, target, processor} triples in
// _examples/original_source/lib/sasi_gridder/sasi_gridder_task.py's
// ClassMapper configuration.
type Mapping struct {
	Source    string
	Target    string
	Processor func(raw string) (any, error)
}

// Mapper applies a configured list of Mappings to a raw CSV row, producing
// an Effort. A processor failure is reported as a *MappingError; the caller
// (Ingestor) is responsible for logging it and skipping the row.
type Mapper struct {
	Mappings []Mapping
}

// Map builds an Effort from row by running every configured Mapping.
func (m *Mapper) Map(row RawRow) (*Effort, error) {
	e := &Effort{}
	for _, mp := range m.Mappings {
		v, err := mp.Processor(row[mp.Source])
		if err != nil {
			return nil, &MappingError{Field: mp.Source, Value: row[mp.Source], Err: err}
		}
		if err := e.Set(mp.Target, v); err != nil {
			return nil, &MappingError{Field: mp.Source, Value: row[mp.Source], Err: err}
		}
	}
	return e, nil
}

// DefaultMappings returns the reference field-mapping configuration for the
// recognized raw-efforts CSV columns, using tripTypeToGearID as the
// trip_type lookup table.
func DefaultMappings(tripTypeToGearID map[string]string) []Mapping {
	return []Mapping{
		{Source: "trip_type", Target: "gear_id", Processor: TripTypeToGearID(tripTypeToGearID)},
		{Source: "year", Target: "time", Processor: YearToInt},
		{Source: "nemarea", Target: "stat_area_id", Processor: FloatWithEmptyDot},
		{Source: "A", Target: "a", Processor: FloatWithEmptyDot},
		{Source: "value", Target: "value", Processor: FloatWithEmptyDot},
		{Source: "hours_fished", Target: "hours_fished", Processor: FloatWithEmptyDot},
		{Source: "lat", Target: "lat", Processor: FloatWithEmptyDot},
		{Source: "lon", Target: "lon", Processor: FloatWithEmptyDot},
	}
}

// TripTypeToGearID returns a processor that looks up a short trip code
// (e.g. "otter") in table and returns the corresponding gear code (e.g.
// "GC10"). A miss returns nil, not an error: an unrecognized trip type is
// not a malformed row.
func TripTypeToGearID(table map[string]string) func(string) (any, error) {
	return func(raw string) (any, error) {
		gear, ok := table[raw]
		if !ok {
			return nil, nil
		}
		return gear, nil
	}
}

// FloatWithEmptyDot returns nil for an empty string or ".", otherwise the
// parsed float64. Any other non-numeric string is a *MappingError for the
// caller to log and skip, matching float_w_empty_dot in the Python source.
func FloatWithEmptyDot(raw string) (any, error) {
	if raw == "" || raw == "." {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	return f, nil
}

// YearToInt applies the empty-dot float coercion and then requires an
// integer value: "time" is coerced to an integer year so it can safely sit
// in a map key instead of as a fragile float tuple component. A
// non-integer year value fails with a *MappingError-wrapped error.
func YearToInt(raw string) (any, error) {
	v, err := FloatWithEmptyDot(raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	f := v.(float64)
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("non-integer year value %v", f)
	}
	return int(f), nil
}
