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
	"math"

	"github.com/spatialmodel/atmrtm/science/cloud/meissner2004"
	"github.com/spatialmodel/atmrtm/science/oxygen/liebe1992"
	"github.com/spatialmodel/atmrtm/science/watervapor/rosenkranz1998"
)

// CloudThreshold [g/m³] is the liquid water density below which
// cloud absorption is neglected.
const CloudThreshold = 1e-7

// nepersPerDecibel converts from dB to Np.
var nepersPerDecibel = 0.1 * math.Ln10

// LayerAbsorption returns the total absorption coefficient [Np/m] of
// oxygen, water vapor, and liquid cloud water at pressure p [hPa],
// temperature t [K], vapor pressure pv [hPa], liquid water density
// rhol [g/m³], and frequency freq [GHz].
func LayerAbsorption(p, t, pv, rhol, freq float64) float64 {
	oxygen := liebe1992.Absorption(p, t, pv, freq) * nepersPerDecibel
	vapor := rosenkranz1998.Absorption(p, t, pv, freq) * nepersPerDecibel
	var cloud float64
	if rhol > CloudThreshold {
		cloud = meissner2004.Absorption(freq, t, rhol)
	}
	return (oxygen + vapor + cloud) * 1e-3 // Np/km to Np/m
}

// absorptionProfile returns the absorption coefficient of each level
// of p from the surface upward at frequency freq.
func (p *Profile) absorptionProfile(freq float64) []float64 {
	si := p.SurfaceIndex
	tabs := make([]float64, p.NumLevels+1-si)
	for i := range tabs {
		j := si + i
		tabs[i] = LayerAbsorption(p.Pressure[j], p.Temperature[j],
			p.VaporPressure[j], p.LiquidDensity[j], freq)
	}
	return tabs
}
