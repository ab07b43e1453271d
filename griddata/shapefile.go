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

package griddata

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
)

// ShpShapeReader reads MultiPolygon shapefile features into ShapeRecords,
// using idField (an integer property) as the record id. Grounded on
// emissions/aep/srgspec.go's InputShapes, which decodes a shapefile row by
// row with shp.Decoder.DecodeRowFields and reads a named attribute into the
// record id.
type ShpShapeReader struct {
	dec     *shp.Decoder
	idField string
}

// NewShpShapeReader opens the shapefile at path (the .shp file name) and
// reads idField as the integer id of each feature.
func NewShpShapeReader(path, idField string) (*ShpShapeReader, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("griddata: opening shapefile %s: %w", path, err)
	}
	return &ShpShapeReader{dec: dec, idField: idField}, nil
}

// Next implements ShapeReader.
func (r *ShpShapeReader) Next() (ShapeRecord, bool, error) {
	g, fields, more := r.dec.DecodeRowFields(r.idField)
	if !more {
		if err := r.dec.Error(); err != nil {
			return ShapeRecord{}, false, err
		}
		return ShapeRecord{}, false, nil
	}
	poly, ok := g.(geom.Polygonal)
	if !ok {
		return ShapeRecord{}, false, fmt.Errorf("griddata: shapefile record is not polygonal: %T", g)
	}
	idStr := fields[r.idField]
	id, err := parseShapeID(idStr)
	if err != nil {
		return ShapeRecord{}, false, fmt.Errorf("griddata: field %q value %q: %v", r.idField, idStr, err)
	}
	return ShapeRecord{ID: id, Shape: poly}, true, nil
}

// Close implements ShapeReader.
func (r *ShpShapeReader) Close() error {
	r.dec.Close()
	return nil
}

func parseShapeID(s string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}
