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
	"github.com/gonum/floats"

	"github.com/adorsk-noaa/sasi-gridder/effort"
)

// kvAccumulator collects per-(key,attr) observations across several
// KeyedValues sources (several cracked cells, or several cells) and reduces
// each with gonum/floats.Sum, the same reduction emissions/aep's surrogate
// weighting uses for its per-cell totals.
type kvAccumulator struct {
	comps map[effort.EffortKey][]any
	vals  map[effort.EffortKey]map[string][]float64
}

func newKVAccumulator() *kvAccumulator {
	return &kvAccumulator{
		comps: make(map[effort.EffortKey][]any),
		vals:  make(map[effort.EffortKey]map[string][]float64),
	}
}

func (a *kvAccumulator) add(key effort.EffortKey, comps []any, attr string, v float64) {
	attrs, ok := a.vals[key]
	if !ok {
		attrs = make(map[string][]float64)
		a.vals[key] = attrs
		a.comps[key] = comps
	}
	attrs[attr] = append(attrs[attr], v)
}

// sums reduces every collected (key, attr) slice with floats.Sum and returns
// the result as a fresh KeyedValues.
func (a *kvAccumulator) sums(keyAttrs, valueAttrs []string) *effort.KeyedValues {
	out := effort.NewKeyedValues(keyAttrs, valueAttrs)
	for key, attrs := range a.vals {
		for attr, vs := range attrs {
			out.AddValue(key, a.comps[key], attr, floats.Sum(vs))
		}
	}
	return out
}
