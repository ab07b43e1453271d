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

// RawRow is one input record, already decoded as a field name -> string
// value map. Shapefile/CSV byte-level parsing is treated as an external
// reader boundary this package consumes from, not a concern of its own.
type RawRow map[string]string

// RowReader pulls RawRows one at a time. Memory per row is O(1): a row is
// read, mapped, and discarded before the next is pulled.
type RowReader interface {
	// Next returns the next row, or more=false once the underlying source
	// is exhausted.
	Next() (row RawRow, more bool, err error)
}

// CSVRowReader reads a header-then-rows CSV file into RawRows, using the
// header as field names. Grounded on the stdlib encoding/csv usage that
// emissions/aep/srgspec.go and emissions/aep/ff10.go use throughout for
// delimited input.
type CSVRowReader struct {
	r      *csv.Reader
	header []string
}

// NewCSVRowReader reads the header row from r and returns a CSVRowReader.
func NewCSVRowReader(r io.Reader) (*CSVRowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("effort: reading CSV header: %w", err)
	}
	return &CSVRowReader{r: cr, header: header}, nil
}

// Next implements RowReader.
func (c *CSVRowReader) Next() (RawRow, bool, error) {
	rec, err := c.r.Read()
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	row := make(RawRow, len(c.header))
	for i, name := range c.header {
		if i < len(rec) {
			row[name] = rec[i]
		}
	}
	return row, true, nil
}

// LimitReader wraps a RowReader and stops after Limit rows have been
// pulled, implementing the --effort-limit CLI flag as a decorator so it is
// independently unit-testable.
type LimitReader struct {
	Reader RowReader
	Limit  int // 0 means unlimited.

	count int
}

// Next implements RowReader.
func (l *LimitReader) Next() (RawRow, bool, error) {
	if l.Limit > 0 && l.count >= l.Limit {
		return nil, false, nil
	}
	row, more, err := l.Reader.Next()
	if more {
		l.count++
	}
	return row, more, err
}
