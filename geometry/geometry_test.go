package geometry

import (
	"testing"

	"github.com/ctessum/geom"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon([]geom.Path{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}})
}

func TestAreaAndMBR(t *testing.T) {
	s := square(0, 0, 2, 1)
	if a := Area(s); a != 2 {
		t.Errorf("Area() = %v, want 2", a)
	}
	r := MBR(s)
	want := Rect{MinX: 0, MinY: 0, MaxX: 2, MaxY: 1}
	if r != want {
		t.Errorf("MBR() = %+v, want %+v", r, want)
	}
}

func TestContainsPoint(t *testing.T) {
	s := square(0, 0, 2, 2)
	if !ContainsPoint(s, 1, 1) {
		t.Error("interior point should be contained")
	}
	if !ContainsPoint(s, 0, 0) {
		t.Error("boundary point should be contained (edge counts as inside)")
	}
	if ContainsPoint(s, 5, 5) {
		t.Error("exterior point should not be contained")
	}
}

func TestIntersectionOverlap(t *testing.T) {
	a := square(0, 0, 2, 2)
	b := square(1, 1, 3, 3)
	inter, ok := Intersection(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if got := Area(inter); got <= 0 || got > 1.0001 {
		t.Errorf("Area(intersection) = %v, want ~1", got)
	}

	c := square(10, 10, 11, 11)
	if _, ok := Intersection(a, c); ok {
		t.Error("disjoint shapes should not intersect")
	}
}

func TestIntersects(t *testing.T) {
	a := square(0, 0, 2, 2)
	b := square(1, 1, 3, 3)
	if !Intersects(a, b) {
		t.Error("expected overlap")
	}
	c := square(10, 10, 11, 11)
	if Intersects(a, c) {
		t.Error("expected no overlap")
	}
}
