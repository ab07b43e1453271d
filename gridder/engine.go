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

// Package gridder implements the three-phase spatial redistribution engine
// that is this project's reason for existing, plus the CSV writer. The
// first-pass classification loop and the stat-area area-weighted
// redistribution are grounded on the surrogate-allocation shape of
// emissions/aep/spatialize.go, which also spreads a coarse-area total
// across intersecting grid cells proportional to an area-derived weight;
// the exact arithmetic, including the unassigned-redistribution denominator
// choice, is grounded on
// _examples/original_source/lib/sasi_gridder/sasi_gridder_task.py.
package gridder

import (
	"fmt"

	"github.com/adorsk-noaa/sasi-gridder/effort"
	"github.com/adorsk-noaa/sasi-gridder/geometry"
	"github.com/adorsk-noaa/sasi-gridder/griddata"
)

// Phase3Denominator selects how phase 3 turns a cell's existing share of a
// key into a percentage of the unassigned pool to allocate to it.
type Phase3Denominator int

const (
	// DenominatorUnassigned divides a cell's value by the unassigned
	// pool's own value for that key/attr, reproducing
	// sasi_gridder_task.py's redistribute_unassigned exactly, surprising
	// as that is. This is the default: it is the as-written behavior this
	// project replicates.
	DenominatorUnassigned Phase3Denominator = iota
	// DenominatorGlobalTotal divides a cell's value by the sum across all
	// cells for that key/attr, the conventional proportional-share
	// reading of "redistribute proportional to existing share."
	DenominatorGlobalTotal
)

// Config configures one Engine run.
type Config struct {
	KeyAttrs          []string
	ValueAttrs        []string
	Phase3Denominator Phase3Denominator
}

// Engine holds the mutable per-cell and per-stat-area aggregates built up
// across the three phases, plus the pool of effort that phase 1 could not
// assign to either.
type Engine struct {
	grid       *griddata.Grid
	statAreas  *griddata.StatAreas
	cfg        Config
	cValues    map[int]*effort.KeyedValues
	saValues   map[int]*effort.KeyedValues
	unassigned *effort.KeyedValues
	report     Report
}

// NewEngine creates an Engine over grid and statAreas, both of which must
// already be loaded.
func NewEngine(grid *griddata.Grid, statAreas *griddata.StatAreas, cfg Config) *Engine {
	return &Engine{
		grid:       grid,
		statAreas:  statAreas,
		cfg:        cfg,
		cValues:    make(map[int]*effort.KeyedValues),
		saValues:   make(map[int]*effort.KeyedValues),
		unassigned: effort.NewKeyedValues(cfg.KeyAttrs, cfg.ValueAttrs),
	}
}

func (en *Engine) cellKV(id int) *effort.KeyedValues {
	kv, ok := en.cValues[id]
	if !ok {
		kv = effort.NewKeyedValues(en.cfg.KeyAttrs, en.cfg.ValueAttrs)
		en.cValues[id] = kv
	}
	return kv
}

func (en *Engine) statAreaKV(id int) *effort.KeyedValues {
	kv, ok := en.saValues[id]
	if !ok {
		kv = effort.NewKeyedValues(en.cfg.KeyAttrs, en.cfg.ValueAttrs)
		en.saValues[id] = kv
	}
	return kv
}

// Run ingests every row from ing, classifying each into a cell, a stat
// area, or the unassigned pool (phase 1), then redistributes stat-area
// totals into cracked cells (phase 2) and the unassigned pool across every
// cell proportional to its existing share (phase 3). It returns a Report
// describing how the run went and the final per-cell aggregates, ready for
// WriteCSV.
func (en *Engine) Run(ing *effort.Ingestor) (map[int]*effort.KeyedValues, Report, error) {
	skipped, err := ing.Ingest(en.classify)
	if err != nil {
		return nil, Report{}, err
	}
	en.report.MappingErrorsSkipped = skipped

	if err := en.redistributeStatAreas(); err != nil {
		return nil, Report{}, err
	}
	if err := en.redistributeUnassigned(); err != nil {
		return nil, Report{}, err
	}
	return en.cValues, en.report, nil
}

// classify is the first-pass classification: an effort with a lat/lon is
// assigned to the first cell containing the point, else the first stat area
// containing it, else the unassigned pool. An effort without a lat/lon but
// with a known stat_area_id is assigned directly to that stat area.
// Everything else goes to the unassigned pool.
func (en *Engine) classify(e *effort.Effort) error {
	if e.Lat != nil && e.Lon != nil {
		lon, lat := *e.Lon, *e.Lat
		for _, c := range en.grid.CellsForPoint(lon, lat) {
			if geometry.ContainsPoint(c.Shape, lon, lat) {
				en.cellKV(c.ID).Add(e)
				en.report.Classification.LatLonToCell++
				return nil
			}
		}
		for _, sa := range en.statAreas.AreasForPoint(lon, lat) {
			if geometry.ContainsPoint(sa.Shape, lon, lat) {
				en.statAreaKV(sa.ID).Add(e)
				en.report.Classification.LatLonToStatArea++
				return nil
			}
		}
		en.unassigned.Add(e)
		en.report.Classification.LatLonUnassigned++
		return nil
	}
	if e.StatAreaID != nil {
		id := int(*e.StatAreaID)
		if sa, ok := en.statAreas.Areas[id]; ok {
			en.statAreaKV(sa.ID).Add(e)
			en.report.Classification.StatAreaKnown++
			return nil
		}
		en.unassigned.Add(e)
		en.report.Classification.StatAreaUnknownUnassigned++
		return nil
	}
	en.unassigned.Add(e)
	en.report.Classification.NoLocationUnassigned++
	return nil
}

// crackedCell is one grid cell's area-scaled share of a stat area: the
// parent cell's current aggregates, scaled by the fraction of the parent
// cell's area that falls inside the stat area.
type crackedCell struct {
	parentCellID int
	keyedValues  *effort.KeyedValues
}

// crackedCellsFor computes the cracked cells for sa. A geometry-library
// panic (e.g. on pathological input to Intersection) is recovered and
// surfaced as a fatal *GriddingError naming the stat area.
func (en *Engine) crackedCellsFor(sa *griddata.StatArea) (cells []crackedCell, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GriddingError{Kind: "stat-area", ID: sa.ID, Reason: fmt.Sprintf("geometry failure: %v", r)}
		}
	}()
	for _, c := range en.grid.CellsForRect(sa.MBR) {
		inter, ok := geometry.Intersection(sa.Shape, c.Shape)
		if !ok {
			continue
		}
		fraction := geometry.Area(inter) / c.Area
		cells = append(cells, crackedCell{
			parentCellID: c.ID,
			keyedValues:  en.cellKV(c.ID).Scale(fraction),
		})
	}
	return cells, nil
}

// redistributeStatAreas spreads each stat area's aggregate across its
// cracked cells in proportion to each cracked cell's share of the
// cracked-cell total for that key/attr. A key/attr with no cracked cells
// able to take a share (no overlapping cells, or every cracked cell's share
// is zero) is recorded in the Report as dropped rather than silently
// discarded.
func (en *Engine) redistributeStatAreas() error {
	for _, saID := range en.statAreas.SortedIDs() {
		saKV, ok := en.saValues[saID]
		if !ok || saKV.Len() == 0 {
			continue
		}
		sa := en.statAreas.Areas[saID]
		cracked, err := en.crackedCellsFor(sa)
		if err != nil {
			return err
		}

		totalsAcc := newKVAccumulator()
		for _, cc := range cracked {
			for _, key := range cc.keyedValues.Keys() {
				vd, _ := cc.keyedValues.Get(key)
				comps := cc.keyedValues.Components(key)
				for attr, v := range vd {
					totalsAcc.add(key, comps, attr, v)
				}
			}
		}
		totals := totalsAcc.sums(en.cfg.KeyAttrs, en.cfg.ValueAttrs)

		for _, key := range saKV.Keys() {
			saVD, _ := saKV.Get(key)
			comps := saKV.Components(key)
			distributed := make(map[string]bool, len(saVD))

			for _, cc := range cracked {
				ccVD, ok := cc.keyedValues.Get(key)
				if !ok {
					continue
				}
				totVD, _ := totals.Get(key)
				for attr, saVal := range saVD {
					if saVal == 0 {
						continue
					}
					ccVal := ccVD[attr]
					totVal := totVD[attr]
					if ccVal == 0 || totVal == 0 {
						continue
					}
					pct := ccVal / totVal
					en.cellKV(cc.parentCellID).AddValue(key, comps, attr, saVal*pct)
					distributed[attr] = true
				}
			}

			for attr, v := range saVD {
				if v != 0 && !distributed[attr] {
					en.report.DroppedStatAreaMass = append(en.report.DroppedStatAreaMass, DroppedMass{
						StatAreaID: saID,
						Key:        string(key),
						Attr:       attr,
						Value:      v,
					})
				}
			}
		}
	}
	return nil
}

// redistributeUnassigned spreads the unassigned pool across every cell that
// already holds a share of a given key, in proportion to that cell's
// existing value. Per Config.Phase3Denominator, "proportion" divides either
// by the unassigned pool's own value for that key/attr (the as-written,
// default behavior) or by the sum across all cells (the conventional
// reading) — see DenominatorUnassigned's doc comment.
func (en *Engine) redistributeUnassigned() error {
	cellIDs := en.grid.SortedIDs()

	totalsAcc := newKVAccumulator()
	for _, id := range cellIDs {
		kv, ok := en.cValues[id]
		if !ok {
			continue
		}
		for _, key := range kv.Keys() {
			vd, _ := kv.Get(key)
			comps := kv.Components(key)
			for attr, v := range vd {
				totalsAcc.add(key, comps, attr, v)
			}
		}
	}
	totals := totalsAcc.sums(en.cfg.KeyAttrs, en.cfg.ValueAttrs)

	for _, id := range cellIDs {
		kv, ok := en.cValues[id]
		if !ok {
			continue
		}
		for _, key := range en.unassigned.Keys() {
			uVD, _ := en.unassigned.Get(key)
			comps := en.unassigned.Components(key)
			cellVD, ok := kv.Get(key)
			if !ok {
				continue
			}
			for attr, uVal := range uVD {
				if uVal == 0 {
					continue
				}
				cellVal := cellVD[attr]
				if cellVal == 0 {
					continue
				}
				var denom float64
				if en.cfg.Phase3Denominator == DenominatorGlobalTotal {
					totVD, _ := totals.Get(key)
					denom = totVD[attr]
				} else {
					denom = uVal
				}
				if denom == 0 {
					continue
				}
				pct := cellVal / denom
				kv.AddValue(key, comps, attr, uVal*pct)
			}
		}
	}
	return nil
}
