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

// Package geometry adapts github.com/ctessum/geom into the five opaque
// operations the gridding pipeline needs: area, MBR, intersects,
// intersection, and contains_point. Nothing above this package should
// reach into github.com/ctessum/geom directly.
package geometry

import "github.com/ctessum/geom"

// Shape is an opaque polygonal geometry value, already reprojected into
// whatever planar fabric the caller is working in. A Shape is treated as
// immutable once built.
type Shape = geom.Polygonal

// Rect is an axis-aligned bounding rectangle in the same coordinate space
// as the Shapes it bounds.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Overlaps returns whether r and r2 share any area, including touching
// edges.
func (r Rect) Overlaps(r2 Rect) bool {
	return r.MinX <= r2.MaxX && r.MinY <= r2.MaxY && r.MaxX >= r2.MinX && r.MaxY >= r2.MinY
}

// MBR returns the minimum bounding rectangle of s.
func MBR(s Shape) Rect {
	b := s.Bounds()
	return Rect{MinX: b.Min.X, MinY: b.Min.Y, MaxX: b.Max.X, MaxY: b.Max.Y}
}

// Area returns the area of s. For a degenerate (zero-area) shape this
// returns 0, which callers in griddata treat as an ingest failure.
func Area(s Shape) float64 {
	return s.Area()
}

// ContainsPoint reports whether the point (x, y) lies within s, including
// points exactly on s's boundary (geom's ray-casting implementation treats
// edge points as inside, which is what lets the engine's classification
// tie-break fall back to candidate ordering for cell-boundary effort
// records).
func ContainsPoint(s Shape, x, y float64) bool {
	p := geom.Point{X: x, Y: y}
	return p.Within(s) != geom.Outside
}

// Intersects reports whether a and b share any area.
func Intersects(a, b Shape) bool {
	if !MBR(a).Overlaps(MBR(b)) {
		return false
	}
	inter := a.Intersection(b)
	return inter != nil && len(inter) > 0 && inter.Area() > 0
}

// Intersection returns the intersection of a and b, and false if the two
// shapes don't overlap or their overlap has zero area.
func Intersection(a, b Shape) (Shape, bool) {
	if !MBR(a).Overlaps(MBR(b)) {
		return nil, false
	}
	inter := a.Intersection(b)
	if inter == nil || len(inter) == 0 || inter.Area() <= 0 {
		return nil, false
	}
	return inter, true
}
