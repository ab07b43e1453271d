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

// Package effort holds the transient Effort record, the KeyedValues
// aggregator it feeds, and the reader/mapper pipeline that produces Efforts
// from raw CSV rows. Grounded on models.Effort/models.Cell in
// _examples/original_source/lib/sasi_gridder/models.py (value_attrs,
// key_attrs, the additive keyed_values dict) and on the field-mapping style
// of emissions/aep/inventoryfile.go.
package effort

import (
	"fmt"
	"sort"
)

// DefaultValueAttrs is the fixed set of numeric attributes summed per key.
var DefaultValueAttrs = []string{"a", "hours_fished", "value"}

// DefaultKeyAttrs is the reference grouping used by the gridding engine.
var DefaultKeyAttrs = []string{"gear_id", "time"}

// Effort is one input record describing fishing activity. It is produced by
// a Mapper from one raw CSV row, consumed immediately by the gridding
// engine's first pass, and never retained.
type Effort struct {
	GearID     *string
	Time       *int // coerced to an integer year; see YearToInt.
	StatAreaID *float64
	A          *float64
	Value      *float64
	HoursFished *float64
	Lat        *float64
	Lon        *float64
}

// Set assigns the mapped value v to the named target attribute. Target
// names are the explicit, fixed set of Effort fields; unknown targets are a
// programmer error in a Mapping's configuration and fail fast.
func (e *Effort) Set(target string, v any) error {
	switch target {
	case "gear_id":
		return setPtr(&e.GearID, v)
	case "time":
		return setPtr(&e.Time, v)
	case "stat_area_id":
		return setPtr(&e.StatAreaID, v)
	case "a":
		return setPtr(&e.A, v)
	case "value":
		return setPtr(&e.Value, v)
	case "hours_fished":
		return setPtr(&e.HoursFished, v)
	case "lat":
		return setPtr(&e.Lat, v)
	case "lon":
		return setPtr(&e.Lon, v)
	default:
		return fmt.Errorf("effort: unknown mapping target %q", target)
	}
}

// setPtr assigns v (which must be nil or a T) into *dst, allocating a new T
// for non-nil values.
func setPtr[T any](dst **T, v any) error {
	if v == nil {
		*dst = nil
		return nil
	}
	t, ok := v.(T)
	if !ok {
		return fmt.Errorf("effort: value %v has unexpected type %T", v, v)
	}
	*dst = &t
	return nil
}

// KeyAttr returns the value of the named grouping attribute, or nil if the
// attribute is absent on this effort. The returned value is always nil,
// string, int, or float64 (stat_area_id) so that it is usable as a
// comparable map-key component.
func (e *Effort) KeyAttr(attr string) any {
	switch attr {
	case "gear_id":
		if e.GearID == nil {
			return nil
		}
		return *e.GearID
	case "time":
		if e.Time == nil {
			return nil
		}
		return *e.Time
	case "stat_area_id":
		if e.StatAreaID == nil {
			return nil
		}
		return *e.StatAreaID
	default:
		return nil
	}
}

// ValueAttr returns the named numeric attribute's value, treating a missing
// attribute as 0.0.
func (e *Effort) ValueAttr(attr string) float64 {
	switch attr {
	case "a":
		return derefOr(e.A, 0)
	case "hours_fished":
		return derefOr(e.HoursFished, 0)
	case "value":
		return derefOr(e.Value, 0)
	default:
		return 0
	}
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// ValuesDict maps a value attribute to its accumulated float sum, defaulting
// every configured attribute to 0.0.
type ValuesDict map[string]float64

func newValuesDict(attrs []string) ValuesDict {
	vd := make(ValuesDict, len(attrs))
	for _, a := range attrs {
		vd[a] = 0
	}
	return vd
}

// Clone returns an independent copy of vd.
func (vd ValuesDict) Clone() ValuesDict {
	out := make(ValuesDict, len(vd))
	for k, v := range vd {
		out[k] = v
	}
	return out
}

// EffortKey is a comparable handle for one grouping-key tuple. Use
// KeyedValues.Components to recover the underlying (gear_id, time, ...)
// tuple, e.g. for writer output.
type EffortKey string

// KeyedValues is an additive mapping from EffortKey to ValuesDict. It also
// retains each key's decomposed component values, needed both to
// reconstruct output rows and to produce a deterministic, lexicographic
// key ordering for reproducible writer output.
type KeyedValues struct {
	keyAttrs   []string
	valueAttrs []string
	values     map[EffortKey]ValuesDict
	components map[EffortKey][]any
}

// NewKeyedValues creates an empty KeyedValues configured with the given
// grouping and value attribute lists.
func NewKeyedValues(keyAttrs, valueAttrs []string) *KeyedValues {
	return &KeyedValues{
		keyAttrs:   keyAttrs,
		valueAttrs: valueAttrs,
		values:     make(map[EffortKey]ValuesDict),
		components: make(map[EffortKey][]any),
	}
}

// KeyFor computes the EffortKey and its component tuple for e, without
// mutating kv.
func (kv *KeyedValues) KeyFor(e *Effort) (EffortKey, []any) {
	comps := make([]any, len(kv.keyAttrs))
	for i, attr := range kv.keyAttrs {
		comps[i] = e.KeyAttr(attr)
	}
	return encodeKey(comps), comps
}

// Add adds e's value attributes into the ValuesDict for e's key, creating
// the entry with zero defaults if absent.
func (kv *KeyedValues) Add(e *Effort) {
	key, comps := kv.KeyFor(e)
	vd := kv.entry(key, comps)
	for _, attr := range kv.valueAttrs {
		vd[attr] += e.ValueAttr(attr)
	}
}

// AddValue adds amount to the named value attribute under key (creating the
// entry, with the given component tuple, if absent). It is used by the
// gridding engine's phase 2/3 redistribution, which adds proportional
// shares rather than whole Effort records.
func (kv *KeyedValues) AddValue(key EffortKey, comps []any, attr string, amount float64) {
	vd := kv.entry(key, comps)
	vd[attr] += amount
}

func (kv *KeyedValues) entry(key EffortKey, comps []any) ValuesDict {
	vd, ok := kv.values[key]
	if !ok {
		vd = newValuesDict(kv.valueAttrs)
		kv.values[key] = vd
		kv.components[key] = comps
	}
	return vd
}

// Get returns the ValuesDict for key, and whether it exists.
func (kv *KeyedValues) Get(key EffortKey) (ValuesDict, bool) {
	vd, ok := kv.values[key]
	return vd, ok
}

// Components returns the decomposed tuple of grouping-attribute values for
// key.
func (kv *KeyedValues) Components(key EffortKey) []any {
	return kv.components[key]
}

// Len reports the number of distinct keys held.
func (kv *KeyedValues) Len() int { return len(kv.values) }

// Keys returns every key currently held, in deterministic lexicographic
// order over component tuples, giving the writer reproducible row order.
func (kv *KeyedValues) Keys() []EffortKey {
	keys := make([]EffortKey, 0, len(kv.values))
	for k := range kv.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareComponents(kv.components[keys[i]], kv.components[keys[j]]) < 0
	})
	return keys
}

// Scale returns a new KeyedValues holding every value in kv multiplied by
// factor. Used to build a cracked cell's keyed values from its parent
// cell's current aggregates.
func (kv *KeyedValues) Scale(factor float64) *KeyedValues {
	out := NewKeyedValues(kv.keyAttrs, kv.valueAttrs)
	for key, vd := range kv.values {
		scaled := make(ValuesDict, len(vd))
		for attr, v := range vd {
			scaled[attr] = v * factor
		}
		out.values[key] = scaled
		out.components[key] = kv.components[key]
	}
	return out
}

// encodeKey produces a comparable, type-distinguishing encoding of a
// component tuple: tuples that differ only in which components are nil
// produce distinct keys.
func encodeKey(comps []any) EffortKey {
	b := make([]byte, 0, 16*len(comps))
	for i, c := range comps {
		if i > 0 {
			b = append(b, 0x1f)
		}
		switch v := c.(type) {
		case nil:
			b = append(b, 0x00)
		case string:
			b = append(b, 's', ':')
			b = append(b, v...)
		case int:
			b = append(b, []byte(fmt.Sprintf("i:%d", v))...)
		case float64:
			b = append(b, []byte(fmt.Sprintf("f:%v", v))...)
		default:
			b = append(b, []byte(fmt.Sprintf("?:%v", v))...)
		}
	}
	return EffortKey(b)
}

// compareComponents orders two component tuples: nil sorts before any
// value, strings compare lexicographically, numbers compare numerically,
// and differently-typed non-nil components fall back to string comparison.
func compareComponents(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareOne(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareOne(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
