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

// DroppedMass records a (key, value attribute) share of a stat area's
// aggregate that stat-area redistribution could not place in any cracked
// cell (no cracked cells existed for the stat area, or every candidate
// cell's share of that key was zero). Reported rather than silently
// discarded, grounded on sasi_gridder_task.py's silent-drop behavior for
// stat areas with no overlapping grid cells.
type DroppedMass struct {
	StatAreaID int
	Key        string
	Attr       string
	Value      float64
}

// ClassificationCounts tallies how phase 1 routed each ingested effort,
// mirroring the diagnostic counters (c_ll_c, c_ll_sa, c_ll_ua, c_sa, c_sa_ua,
// c_ua) sasi_gridder_task.py's first_pass keeps for its own run summary.
type ClassificationCounts struct {
	LatLonToCell              int
	LatLonToStatArea          int
	LatLonUnassigned          int
	StatAreaKnown             int
	StatAreaUnknownUnassigned int
	NoLocationUnassigned      int
}

// Report summarizes one gridding run: how many raw rows failed to map, how
// phase 1 classified the rest, and any stat-area mass phase 2 could not
// redistribute.
type Report struct {
	MappingErrorsSkipped int
	Classification       ClassificationCounts
	DroppedStatAreaMass  []DroppedMass
}
