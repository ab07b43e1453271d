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

// Package griddata holds the Cell and StatArea stores: the in-memory,
// load-once-keep-for-the-run collections the gridding engine queries by id
// and through their spatial hashes. Grounded on emissions/aep/grid.go's
// GridDef/GridCell (cell storage plus an index built at ingest time) and on
// the ingest_cells/ingest_stat_areas methods of the Python sasi_gridder_task
// this spec was distilled from.
package griddata

import (
	"fmt"
	"sort"

	"github.com/adorsk-noaa/sasi-gridder/geometry"
	"github.com/adorsk-noaa/sasi-gridder/spatialindex"
)

// IngestError reports a fatal failure while loading cells or stat areas:
// a duplicate id or a degenerate (zero-area) geometry.
type IngestError struct {
	Source string // "grid" or "stat-areas"
	ID     int
	Reason string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("griddata: ingesting %s: id %d: %s", e.Source, e.ID, e.Reason)
}

// ShapeRecord is one (id, shape) record as produced by an external
// shapefile reader. Coordinate reprojection into a shared planar fabric is
// assumed to already have happened upstream of this package.
type ShapeRecord struct {
	ID    int
	Shape geometry.Shape
}

// ShapeReader pulls ShapeRecords one at a time. It is the boundary this
// package consumes from; the concrete shapefile decoder lives in
// shapefile.go.
type ShapeReader interface {
	Next() (ShapeRecord, bool, error)
	Close() error
}

// Cell is a unit polygon of the output grid, identified by integer id.
// Immutable after ingest; the engine's aggregates live externally, keyed by
// Cell.ID.
type Cell struct {
	ID    int
	Shape geometry.Shape
	MBR   geometry.Rect
	Area  float64
}

// StatArea is a coarser spatial locator (a fishery statistical area) used
// when an effort's lat/lon isn't available.
type StatArea struct {
	ID    int
	Shape geometry.Shape
	MBR   geometry.Rect
}

// Grid holds every ingested Cell plus a spatial hash over their MBRs.
type Grid struct {
	Cells map[int]*Cell
	hash  *spatialindex.Hash[*Cell]
}

// StatAreas holds every ingested StatArea plus a spatial hash over their
// MBRs.
type StatAreas struct {
	Areas map[int]*StatArea
	hash  *spatialindex.Hash[*StatArea]
}

// LoadGrid reads every record from r and builds a Grid, computing each
// cell's MBR and area and inserting it into the spatial hash. It fails
// fatally on a duplicate id or degenerate (zero-area) geometry.
func LoadGrid(r ShapeReader, cellSize float64) (*Grid, error) {
	g := &Grid{
		Cells: make(map[int]*Cell),
		hash:  spatialindex.New[*Cell](cellSize, func(c *Cell) int { return c.ID }),
	}
	for {
		rec, more, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if _, dup := g.Cells[rec.ID]; dup {
			return nil, &IngestError{Source: "grid", ID: rec.ID, Reason: "duplicate cell id"}
		}
		area := geometry.Area(rec.Shape)
		if area <= 0 {
			return nil, &IngestError{Source: "grid", ID: rec.ID, Reason: "degenerate (zero-area) geometry"}
		}
		cell := &Cell{ID: rec.ID, Shape: rec.Shape, MBR: geometry.MBR(rec.Shape), Area: area}
		g.Cells[cell.ID] = cell
		g.hash.AddRect(cell.MBR, cell)
	}
	return g, nil
}

// LoadStatAreas reads every record from r and builds a StatAreas store. It
// fails fatally on a duplicate id or a degenerate (zero-area) geometry, the
// same checks LoadGrid applies to cells.
func LoadStatAreas(r ShapeReader, cellSize float64) (*StatAreas, error) {
	sa := &StatAreas{
		Areas: make(map[int]*StatArea),
		hash:  spatialindex.New[*StatArea](cellSize, func(s *StatArea) int { return s.ID }),
	}
	for {
		rec, more, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if _, dup := sa.Areas[rec.ID]; dup {
			return nil, &IngestError{Source: "stat-areas", ID: rec.ID, Reason: "duplicate stat area id"}
		}
		if geometry.Area(rec.Shape) <= 0 {
			return nil, &IngestError{Source: "stat-areas", ID: rec.ID, Reason: "degenerate (zero-area) geometry"}
		}
		area := &StatArea{ID: rec.ID, Shape: rec.Shape, MBR: geometry.MBR(rec.Shape)}
		sa.Areas[area.ID] = area
		sa.hash.AddRect(area.MBR, area)
	}
	return sa, nil
}

// CellsForPoint returns the candidate cells indexed in the spatial-hash
// bucket containing (x, y), in ascending id order. The caller must still
// verify containment with geometry.ContainsPoint.
func (g *Grid) CellsForPoint(x, y float64) []*Cell {
	return g.hash.ItemsForPoint(x, y)
}

// CellsForRect returns the candidate cells indexed in any spatial-hash
// bucket r touches, in ascending id order.
func (g *Grid) CellsForRect(r geometry.Rect) []*Cell {
	return g.hash.ItemsForRect(r)
}

// AreasForPoint returns the candidate stat areas indexed in the spatial-hash
// bucket containing (x, y), in ascending id order.
func (sa *StatAreas) AreasForPoint(x, y float64) []*StatArea {
	return sa.hash.ItemsForPoint(x, y)
}

// SortedIDs returns every cell id in ascending order, giving the engine's
// phase 3 pass over cells a deterministic iteration order.
func (g *Grid) SortedIDs() []int {
	ids := make([]int, 0, len(g.Cells))
	for id := range g.Cells {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SortedIDs returns every stat area id in ascending order, giving the
// engine's phase 2 pass over stat areas a deterministic iteration order.
func (sa *StatAreas) SortedIDs() []int {
	ids := make([]int, 0, len(sa.Areas))
	for id := range sa.Areas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
