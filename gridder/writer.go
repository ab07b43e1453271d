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

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/adorsk-noaa/sasi-gridder/effort"
	"github.com/adorsk-noaa/sasi-gridder/griddata"
)

// WriteCSV writes one row per (cell, key) pair in cValues, ordered by
// ascending cell id and then by the key's lexicographic component order so
// output is reproducible run to run. The header is cell_id, followed by the
// key attribute names, followed by the value attribute names. Grounded on
// the plain
// encoding/csv writer usage in emissions/aep/ff10.go; this project has no
// field-mapping configuration to write and so needs none of srgspec.go's
// extra structure.
func WriteCSV(w io.Writer, grid *griddata.Grid, cValues map[int]*effort.KeyedValues, keyAttrs, valueAttrs []string) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+len(keyAttrs)+len(valueAttrs))
	header = append(header, "cell_id")
	header = append(header, keyAttrs...)
	header = append(header, valueAttrs...)
	if err := cw.Write(header); err != nil {
		return &OutputError{Err: err}
	}

	for _, id := range grid.SortedIDs() {
		kv, ok := cValues[id]
		if !ok {
			continue
		}
		for _, key := range kv.Keys() {
			vd, _ := kv.Get(key)
			comps := kv.Components(key)

			row := make([]string, 0, 1+len(keyAttrs)+len(valueAttrs))
			row = append(row, strconv.Itoa(id))
			for _, c := range comps {
				row = append(row, formatComponent(c))
			}
			for _, attr := range valueAttrs {
				row = append(row, strconv.FormatFloat(vd[attr], 'g', -1, 64))
			}
			if err := cw.Write(row); err != nil {
				return &OutputError{Err: err}
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &OutputError{Err: err}
	}
	return nil
}

// formatComponent renders one grouping-key component for CSV output: a nil
// component (an effort missing that attribute) prints as an empty field.
func formatComponent(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
