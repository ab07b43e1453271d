package griddata

import (
	"errors"
	"testing"

	"github.com/ctessum/geom"
)

type fakeReader struct {
	recs []ShapeRecord
	i    int
}

func (f *fakeReader) Next() (ShapeRecord, bool, error) {
	if f.i >= len(f.recs) {
		return ShapeRecord{}, false, nil
	}
	r := f.recs[f.i]
	f.i++
	return r, true, nil
}

func (f *fakeReader) Close() error { return nil }

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon([]geom.Path{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}})
}

func TestLoadGrid(t *testing.T) {
	r := &fakeReader{recs: []ShapeRecord{
		{ID: 1, Shape: square(0, 0, 1, 1)},
		{ID: 2, Shape: square(1, 1, 2, 2)},
	}}
	g, err := LoadGrid(r, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(g.Cells))
	}
	cells := g.CellsForPoint(0.5, 0.5)
	if len(cells) != 1 || cells[0].ID != 1 {
		t.Fatalf("CellsForPoint(0.5,0.5) = %v, want cell 1", cells)
	}
}

func TestLoadGridDuplicateID(t *testing.T) {
	r := &fakeReader{recs: []ShapeRecord{
		{ID: 1, Shape: square(0, 0, 1, 1)},
		{ID: 1, Shape: square(1, 1, 2, 2)},
	}}
	_, err := LoadGrid(r, 0.5)
	var ierr *IngestError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IngestError, got %v", err)
	}
}

func TestLoadGridDegenerateGeometry(t *testing.T) {
	r := &fakeReader{recs: []ShapeRecord{
		{ID: 1, Shape: square(0, 0, 0, 0)},
	}}
	_, err := LoadGrid(r, 0.5)
	var ierr *IngestError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IngestError for zero-area geometry, got %v", err)
	}
}

func TestLoadStatAreasDegenerateGeometry(t *testing.T) {
	r := &fakeReader{recs: []ShapeRecord{
		{ID: 1, Shape: square(0, 0, 0, 0)},
	}}
	_, err := LoadStatAreas(r, 0.5)
	var ierr *IngestError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IngestError for zero-area stat area, got %v", err)
	}
}
