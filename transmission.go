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

import "math"

// pathDelta accounts for Earth curvature in the slant path length.
const pathDelta = 0.00035

// Transmission integrates the radiative transfer equation along a slant
// path at incidence angle inc [degrees]. t [K], z [m], and tabs [Np/m]
// hold the temperature, geometric height, and absorption coefficient of
// each level from the surface upward. It returns the total transmissivity
// and the upwelling and downwelling brightness temperatures [K].
// The slices must have the same length, which must be at least 2.
func Transmission(inc float64, t, z, tabs []float64) (tran, tbUp, tbDown float64) {
	cosInc := math.Cos(inc * math.Pi / 180)
	dsdh := (1 + pathDelta) / math.Sqrt(cosInc*cosInc+pathDelta*(2+pathDelta))

	n := len(t) - 1
	opacity := make([]float64, n)
	tAvg := make([]float64, n)
	ems := make([]float64, n)
	for i := 1; i <= n; i++ {
		opacity[i-1] = -dsdh * 0.5 * (tabs[i-1] + tabs[i]) * (z[i] - z[i-1])
		tAvg[i-1] = 0.5 * (t[i-1] + t[i])
		ems[i-1] = 1 - math.Exp(opacity[i-1])
	}

	// Radiation reaching the surface, accumulated from the ground up.
	var sumOp, sumDown float64
	for i := 0; i < n; i++ {
		sumDown += (tAvg[i] - t[1]) * ems[i] * math.Exp(sumOp)
		sumOp += opacity[i]
	}

	// Radiation leaving the top, accumulated from the top down.
	var sumUp float64
	sumOp = 0
	for i := n - 1; i >= 0; i-- {
		sumUp += (tAvg[i] - t[1]) * ems[i] * math.Exp(sumOp)
		sumOp += opacity[i]
	}

	tran = math.Exp(sumOp)
	tbAvg := (1 - tran) * t[1]
	return tran, tbAvg + sumUp, tbAvg + sumDown
}

// Run calculates the transmissivity and brightness temperatures of p
// at each frequency and incidence angle pair in params. The absorption
// profile is calculated once for each distinct frequency.
func (p *Profile) Run(params *Parameters) *Outputs {
	o := newOutputs(params.Len())
	si := p.SurfaceIndex
	t, z := p.Temperature[si:], p.Height[si:]
	tabs := make(map[float64][]float64)
	for i, freq := range params.Frequency {
		a, ok := tabs[freq]
		if !ok {
			a = p.absorptionProfile(freq)
			tabs[freq] = a
		}
		o.Tran[i], o.TbUp[i], o.TbDown[i] = Transmission(params.Incidence[i], t, z, a)
	}
	return o
}

// RunFirstFrequency is like Run, except that the absorption profile
// at the first frequency in params is used for every incidence angle.
func (p *Profile) RunFirstFrequency(params *Parameters) *Outputs {
	o := newOutputs(params.Len())
	si := p.SurfaceIndex
	t, z := p.Temperature[si:], p.Height[si:]
	a := p.absorptionProfile(params.Frequency[0])
	for i, inc := range params.Incidence {
		o.Tran[i], o.TbUp[i], o.TbDown[i] = Transmission(inc, t, z, a)
	}
	return o
}
