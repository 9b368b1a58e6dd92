/*
Copyright © 2024 the AtmRTM authors.
This file is part of AtmRTM.

AtmRTM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AtmRTM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AtmRTM.  If not, see <http://www.gnu.org/licenses/>.
*/

package atmrtm

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/unit"
)

// Range status values.
const (
	InRange    = "In Range"
	OutOfRange = "Out of Range"
	Missing    = "Missing"
)

var (
	degree = unit.Dimensions{unit.AngleDim: 1}
	hPa    = 100. // Pa
	deg    = math.Pi / 180
)

// ValidRange is the range of physically reasonable values of an input
// variable. Values are stored in SI units; Scale converts from the
// units used in input files to SI units.
type ValidRange struct {
	Min, Max *unit.Unit
	Scale    float64
}

func validRange(min, max, scale float64, d unit.Dimensions) ValidRange {
	return ValidRange{Min: unit.New(min*scale, d), Max: unit.New(max*scale, d), Scale: scale}
}

// ValidRanges hold the valid range of each input variable.
var ValidRanges = map[string]ValidRange{
	"levels":              validRange(0, 1000, hPa, unit.Pascal),
	"lats":                validRange(-90, 90, deg, degree),
	"lons":                validRange(-180, 360, deg, degree),
	"land_fraction":       validRange(0, 1, 1, unit.Dimless),
	"temperature":         validRange(150, 350, 1, unit.Kelvin),
	"specific_humidity":   validRange(0, 0.03, 1, unit.Dimless),
	"height":              validRange(-200, 100000, 1, unit.Meter),
	"liquid_content":      validRange(0, 0.01, 1, unit.Dimless),
	"surface_pressure":    validRange(400, 1100, hPa, unit.Pascal),
	"surface_temperature": validRange(200, 350, 1, unit.Kelvin),
	"surface_dewpoint":    validRange(150, 350, 1, unit.Kelvin),
	"skin_temperature":    validRange(200, 350, 1, unit.Kelvin),
	"surface_height":      validRange(-500, 9000, 1, unit.Meter),
}

// RangeCheck is the result of checking one input variable.
type RangeCheck struct {
	Name   string
	Status string

	// Min and Max are the smallest and largest values found,
	// ignoring NaNs. They are nil if the variable is missing
	// or has no valid values.
	Min, Max *unit.Unit

	Valid ValidRange
}

func (c RangeCheck) String() string {
	if c.Min == nil {
		return fmt.Sprintf("%s: %s", c.Name, c.Status)
	}
	return fmt.Sprintf("%s: %s (found %.4g to %.4g; valid %.4g to %.4g)",
		c.Name, c.Status, c.Min, c.Max, c.Valid.Min, c.Valid.Max)
}

// CheckRanges checks whether each of the variables in ValidRanges
// that is present in data is within its valid range. The results
// are sorted by variable name. If data holds "levels", surface pressure
// must also lie within the span of the pressure levels, because a
// profile whose surface is outside them cannot be processed.
func CheckRanges(data map[string][]float64) []RangeCheck {
	names := make([]string, 0, len(ValidRanges))
	for name := range ValidRanges {
		names = append(names, name)
	}
	sort.Strings(names)

	o := make([]RangeCheck, len(names))
	for i, name := range names {
		vr := ValidRanges[name]
		if name == "surface_pressure" {
			vr = surfacePressureRange(vr, data["levels"])
		}
		c := RangeCheck{Name: name, Status: Missing, Valid: vr}
		if v, ok := data[name]; ok {
			c.Status = InRange
			lo, hi := bounds(v)
			if lo <= hi {
				d := vr.Min.Dimensions()
				c.Min = unit.New(lo*vr.Scale, d)
				c.Max = unit.New(hi*vr.Scale, d)
				if c.Min.Value() < vr.Min.Value() || c.Max.Value() > vr.Max.Value() {
					c.Status = OutOfRange
				}
			}
		}
		o[i] = c
	}
	return o
}

// bounds returns the smallest and largest non-NaN values in v.
// lo > hi if there are none.
func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, e := range v {
		if math.IsNaN(e) {
			continue
		}
		lo, hi = math.Min(lo, e), math.Max(hi, e)
	}
	return lo, hi
}

// surfacePressureRange narrows vr to the pressure span of levels.
func surfacePressureRange(vr ValidRange, levels []float64) ValidRange {
	lo, hi := bounds(levels)
	if lo > hi {
		return vr
	}
	d := vr.Min.Dimensions()
	return ValidRange{
		Min:   unit.New(math.Max(vr.Min.Value(), lo*vr.Scale), d),
		Max:   unit.New(math.Min(vr.Max.Value(), hi*vr.Scale), d),
		Scale: vr.Scale,
	}
}

// CheckRanges checks the variables in the input against ValidRanges.
func (in *Input) CheckRanges() []RangeCheck {
	return CheckRanges(in.fields())
}
