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

// Package spatialindex implements a uniform-cell bucketed spatial hash:
// objects are inserted under the integer grid cells their bounding
// rectangle overlaps, and lookups return a candidate superset that the
// caller must verify with exact geometry predicates. The teacher repository
// indexes its grid cells with an R-tree (emissions/aep/grid.go); the
// gridding pipeline here needs the bucket semantics described below
// instead, so the index is built fresh rather than adapted from the
// R-tree.
package spatialindex

import (
	"math"
	"sort"

	"github.com/adorsk-noaa/sasi-gridder/geometry"
)

// DefaultCellSize is the bucket side length, in the same units as the
// indexed geometry's coordinates (degrees, for lat/lon input).
const DefaultCellSize = 0.1

type coord struct {
	x, y int
}

// Hash is a uniform grid index over values of type T. idOf extracts a
// stable integer id from each indexed value, used both for set
// deduplication and to sort query results into a deterministic order.
type Hash[T any] struct {
	cellSize float64
	idOf     func(T) int
	buckets  map[coord]map[int]T
}

// New creates a Hash with the given bucket side length. A non-positive
// cellSize falls back to DefaultCellSize.
func New[T any](cellSize float64, idOf func(T) int) *Hash[T] {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Hash[T]{
		cellSize: cellSize,
		idOf:     idOf,
		buckets:  make(map[coord]map[int]T),
	}
}

func (h *Hash[T]) bucketOfPoint(x, y float64) coord {
	return coord{x: int(math.Floor(x / h.cellSize)), y: int(math.Floor(y / h.cellSize))}
}

// bucketsOfRect enumerates the buckets a rectangle touches. Both axes use
// an inclusive upper bound, matching the source's "<=" stepping: a
// zero-width or zero-height rectangle must still land in at least one
// bucket.
func (h *Hash[T]) bucketsOfRect(r geometry.Rect) []coord {
	var coords []coord
	cy := math.Floor(r.MinY / h.cellSize)
	for cy*h.cellSize <= r.MaxY {
		cx := math.Floor(r.MinX / h.cellSize)
		for cx*h.cellSize <= r.MaxX {
			coords = append(coords, coord{x: int(cx), y: int(cy)})
			cx++
		}
		cy++
	}
	return coords
}

// AddRect inserts obj into every bucket r overlaps.
func (h *Hash[T]) AddRect(r geometry.Rect, obj T) {
	id := h.idOf(obj)
	for _, c := range h.bucketsOfRect(r) {
		b, ok := h.buckets[c]
		if !ok {
			b = make(map[int]T)
			h.buckets[c] = b
		}
		b[id] = obj
	}
}

// ItemsForPoint returns the items in the single bucket containing (x, y),
// sorted by id for reproducibility. The result is a candidate superset:
// callers must verify with an exact geometry predicate.
func (h *Hash[T]) ItemsForPoint(x, y float64) []T {
	b, ok := h.buckets[h.bucketOfPoint(x, y)]
	if !ok {
		return nil
	}
	return sortedValues(b)
}

// ItemsForRect returns the union of items across every bucket r touches,
// sorted by id for reproducibility.
func (h *Hash[T]) ItemsForRect(r geometry.Rect) []T {
	seen := make(map[int]T)
	for _, c := range h.bucketsOfRect(r) {
		for id, v := range h.buckets[c] {
			seen[id] = v
		}
	}
	return sortedValues(seen)
}

func sortedValues[T any](m map[int]T) []T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}
