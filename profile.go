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
)

// Physical constants.
const (
	earthRadius = 6371e3    // mean radius of Earth [m]
	rGas        = 8.3144598 // universal gas constant [J/mol/K]
	mDry        = 28.9644   // molar mass of dry air [g/mol]
	mH2O        = 18.01528  // molar mass of water [g/mol]

	rDry     = rGas / mDry // [J/g/K]
	rVapor   = rGas / mH2O // [J/g/K]
	epsilon  = mH2O / mDry
	epsScale = (1 - epsilon) / epsilon
)

// Surface holds the ground-level conditions of a profile.
type Surface struct {
	Temperature float64 // [K]
	Height      float64 // geopotential height [m]
	Dewpoint    float64 // [K]
	Pressure    float64 // [hPa]
}

// Profile holds a single atmospheric profile prepared for radiative
// transfer. Each slice has NumLevels+1 entries: index 0 is a carrier
// slot and the surface values are stored at SurfaceIndex, so that
// entries SurfaceIndex through NumLevels run from the ground upward.
type Profile struct {
	NumLevels    int
	SurfaceIndex int

	Pressure      []float64 // [hPa]
	Temperature   []float64 // [K]
	VaporPressure []float64 // [hPa]
	LiquidDensity []float64 // [g/m³]
	Height        []float64 // geometric height [m]
}

// NewProfile prepares a profile for radiative transfer.
// levels holds the pressure [hPa] of each level in descending order,
// so the first level is nearest the ground. temperature [K],
// height [geopotential m], specificHumidity [kg/kg], and
// liquidContent [kg/kg] each have one value per level.
func NewProfile(levels []float64, sfc Surface, temperature, height, specificHumidity, liquidContent []float64) (*Profile, error) {
	n := len(levels)
	if n == 0 {
		return nil, fmt.Errorf("atmrtm: no pressure levels: %w", ErrInconsistentInputs)
	}
	for _, v := range []struct {
		name string
		data []float64
	}{
		{"temperature", temperature},
		{"height", height},
		{"specific humidity", specificHumidity},
		{"liquid content", liquidContent},
	} {
		if len(v.data) != n {
			return nil, fmt.Errorf("atmrtm: %s has %d levels but there are %d pressure levels: %w",
				v.name, len(v.data), n, ErrInconsistentInputs)
		}
	}

	si, err := surfaceIndex(levels, sfc.Pressure)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		NumLevels:    n,
		SurfaceIndex: si,
		Pressure:     prependWith(levels, 0, sfc.Pressure, si),
		Temperature:  prependWith(temperature, sfc.Temperature, sfc.Temperature, si),
		Height:       prependWith(height, sfc.Height, sfc.Height, si),
	}

	// Convert from geopotential to geometric height.
	for i, z := range p.Height {
		p.Height[i] = z * earthRadius / (earthRadius - z)
	}
	// The surface must be below the first level above it.
	if p.Height[si] >= p.Height[si+1] {
		p.Height[si] = p.Height[si+1] - 0.1
	}

	// Water vapor partial pressure.
	p.VaporPressure = make([]float64, n+1)
	p.VaporPressure[0] = BuckVap(sfc.Dewpoint)
	for i, q := range specificHumidity {
		w := q / (1 - q) // mixing ratio
		p.VaporPressure[i+1] = w * levels[i] / (rDry/rVapor + w)
	}
	p.VaporPressure[si] = p.VaporPressure[0]

	// Liquid water density from mass mixing ratio.
	ql := prependWith(liquidContent, 0, 0, si)
	ql[si] = ql[si+1]
	p.LiquidDensity = make([]float64, n+1)
	for i := range ql {
		rMoist := rDry * (1 + epsScale*specificHumidityFromVapor(p.Pressure[i], p.VaporPressure[i]))
		p.LiquidDensity[i] = ql[i] * 1e2 * p.Pressure[i] / (rMoist * p.Temperature[i])
	}
	return p, nil
}

// surfaceIndex returns the index of the first level with a pressure
// at or below the surface pressure. The surface must be bracketed:
// it is an error for the deepest level to be above the surface.
func surfaceIndex(levels []float64, surfacePressure float64) (int, error) {
	if levels[0] < surfacePressure {
		return 0, fmt.Errorf("atmrtm: surface pressure %g hPa is below the deepest level (%g hPa): %w",
			surfacePressure, levels[0], ErrNoSurface)
	}
	for i, l := range levels {
		if l <= surfacePressure {
			return i, nil
		}
	}
	return 0, fmt.Errorf("atmrtm: surface pressure %g hPa is above the highest level (%g hPa): %w",
		surfacePressure, levels[len(levels)-1], ErrNoSurface)
}

// prependWith returns a copy of data with zeroValue inserted at the
// front and the entry at index si replaced by surfaceValue.
func prependWith(data []float64, zeroValue, surfaceValue float64, si int) []float64 {
	o := make([]float64, len(data)+1)
	o[0] = zeroValue
	copy(o[1:], data)
	o[si] = surfaceValue
	return o
}

// specificHumidityFromVapor returns specific humidity [kg/kg] for
// total pressure p and vapor pressure pv, which share units.
func specificHumidityFromVapor(p, pv float64) float64 {
	if p <= 0 {
		return 0
	}
	w := pv * rDry / (rVapor * (p - pv))
	return w / (w + 1)
}

// BuckVap returns the saturation vapor pressure [hPa] over water at
// temperature t [K] using the Buck (1996) equation.
func BuckVap(t float64) float64 {
	tc := t - 273.15
	return 6.1121 * math.Exp((18.678-tc/234.5)*(tc/(257.14+tc)))
}
