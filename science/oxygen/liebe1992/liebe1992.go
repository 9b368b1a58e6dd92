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

// Package liebe1992 calculates microwave absorption by molecular oxygen
// using a modified version of the line-by-line model in
// Liebe, H.J., Rosenkranz, P.W. and Hufford, G.A., 1992. Atmospheric 60-GHz
// oxygen spectrum: New laboratory measurements and line parameters.
// Journal of Quantitative Spectroscopy and Radiative Transfer, 48(5-6), pp.629-643.
//
// The modifications (a non-resonant term and a correction above 37 GHz)
// are those of Remote Sensing Systems.
package liebe1992

import (
	"math"
	"sync"
)

// NumLines is the number of oxygen resonance lines in the model.
const NumLines = 44

// lines holds the spectroscopic parameters of each resonance line.
type lines struct {
	f0, a1, a2, a3, a4, a5, a6 [NumLines]float64
}

var (
	coef     *lines
	coefOnce sync.Once
)

// coefficients returns the line table, building it on the first call.
func coefficients() *lines {
	coefOnce.Do(func() {
		coef = newLines()
	})
	return coef
}

func newLines() *lines {
	// Line frequencies [GHz].
	h1 := [NumLines]float64{
		50.474238, 50.987749, 51.503350, 52.021410, 52.542394, 53.066907, 53.595749, 54.130000,
		54.671159, 55.221367, 55.783802, 56.264775, 56.363389, 56.968206, 57.612484, 58.323877,
		58.446590, 59.164207, 59.590983, 60.306061, 60.434776, 61.150560, 61.800154, 62.411215,
		62.486260, 62.997977, 63.568518, 64.127767, 64.678903, 65.224071, 65.764772, 66.302091,
		66.836830, 67.369598, 67.900867, 68.431005, 68.960311, 118.750343, 368.498350,
		424.763124, 487.249370, 715.393150, 773.839675, 834.145330,
	}
	// Line strengths.
	h2 := [NumLines]float64{
		0.94e-6, 2.46e-6, 6.08e-6, 14.14e-6, 31.02e-6, 64.10e-6, 124.70e-6, 228.00e-6,
		391.80e-6, 631.60e-6, 953.50e-6, 548.90e-6, 1344.00e-6, 1763.00e-6, 2141.00e-6,
		2386.00e-6, 1457.00e-6, 2404.00e-6, 2112.00e-6, 2124.00e-6, 2461.00e-6, 2504.00e-6,
		2298.00e-6, 1933.00e-6, 1517.00e-6, 1503.00e-6, 1087.00e-6, 733.50e-6, 463.50e-6,
		274.80e-6, 153.00e-6, 80.09e-6, 39.46e-6, 18.32e-6, 8.01e-6, 3.30e-6, 1.28e-6,
		945.00e-6, 67.90e-6, 638.00e-6, 235.00e-6, 99.60e-6, 671.00e-6, 180.00e-6,
	}
	// Temperature exponents of the line strengths.
	h3 := [NumLines]float64{
		9.694, 8.694, 7.744, 6.844, 6.004, 5.224, 4.484, 3.814, 3.194, 2.624, 2.119, 0.015,
		1.660, 1.260, 0.915, 0.626, 0.084, 0.391, 0.212, 0.212, 0.391, 0.626, 0.915, 1.260,
		0.083, 1.665, 2.115, 2.620, 3.195, 3.815, 4.485, 5.225, 6.005, 6.845, 7.745, 8.695,
		9.695, 0.009, 0.049, 0.044, 0.049, 0.145, 0.130, 0.147,
	}
	// Pressure-broadened widths.
	h4 := [NumLines]float64{
		8.60e-3, 8.70e-3, 8.90e-3, 9.20e-3, 9.40e-3, 9.70e-3, 10.00e-3, 10.20e-3, 10.50e-3,
		10.79e-3, 11.10e-3, 16.46e-3, 11.44e-3, 11.81e-3, 12.21e-3, 12.66e-3, 14.49e-3,
		13.19e-3, 13.60e-3, 13.82e-3, 12.97e-3, 12.48e-3, 12.07e-3, 11.71e-3, 14.68e-3,
		11.39e-3, 11.08e-3, 10.78e-3, 10.50e-3, 10.20e-3, 10.00e-3, 9.70e-3, 9.40e-3, 9.20e-3,
		8.90e-3, 8.70e-3, 8.60e-3, 16.30e-3, 19.20e-3, 19.16e-3, 19.20e-3, 18.10e-3, 18.10e-3,
		18.10e-3,
	}
	// Overlap coefficients (×1000).
	h5 := [NumLines]float64{
		0.210, 0.190, 0.171, 0.144, 0.118, 0.114, 0.200, 0.291, 0.325, 0.224, -0.144, 0.339,
		-0.258, -0.362, -0.533, -0.178, 0.650, -0.628, 0.665, -0.613, 0.606, 0.090, 0.496,
		0.313, -0.433, 0.208, 0.094, -0.270, -0.366, -0.326, -0.232, -0.146, -0.147, -0.174,
		-0.198, -0.210, -0.220, -0.031, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	}
	h6 := [NumLines]float64{
		0.685, 0.680, 0.673, 0.664, 0.653, 0.621, 0.508, 0.375, 0.265, 0.295, 0.613, -0.098,
		0.655, 0.645, 0.606, 0.044, -0.127, 0.231, -0.078, 0.070, -0.282, -0.058, -0.662,
		-0.676, 0.084, -0.668, -0.614, -0.289, -0.259, -0.368, -0.500, -0.609, -0.639, -0.647,
		-0.655, -0.660, -0.665, 0.008, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
	}

	l := &lines{f0: h1, a2: h3, a3: h4}
	for i := 0; i < NumLines; i++ {
		l.a1[i] = h2[i] / h1[i]
		l.a5[i] = 0.001 * h5[i]
		l.a6[i] = 0.001 * h6[i]
	}
	// Only the submillimeter lines have a width temperature exponent
	// different from 0.8.
	for i := NumLines - 6; i < NumLines; i++ {
		l.a4[i] = 0.6
	}
	return l
}

// lineFrequencies returns the center frequencies [GHz] of the
// resonance lines.
func lineFrequencies() []float64 {
	c := coefficients()
	f := make([]float64, NumLines)
	copy(f, c.f0[:])
	return f
}

// Absorption returns the oxygen absorption coefficient [dB/km]
// for total pressure p [hPa], temperature t [K], water vapor
// partial pressure pv [hPa], and frequency freq [GHz].
func Absorption(p, t, pv, freq float64) float64 {
	c := coefficients()

	tht := 300 / t
	pwet := 0.1 * pv
	pdry := 0.1*p - pwet
	xterm := 1 - tht
	tht08 := math.Pow(tht, 0.8)

	var sum float64
	for i := 0; i < NumLines; i++ {
		ga := c.a3[i] * (pdry*math.Pow(tht, 0.8-c.a4[i]) + 1.1*tht*pwet)
		delta := (c.a5[i] + c.a6[i]*tht) * p * tht08
		rnuneg := c.f0[i] - freq
		rnupos := c.f0[i] + freq
		ga2 := ga * ga
		ff := (ga-rnuneg*delta)/(ga2+rnuneg*rnuneg) +
			(ga-rnupos*delta)/(ga2+rnupos*rnupos)
		sum += ff * c.a1[i] * math.Exp(c.a2[i]*xterm)
	}
	sum = math.Max(sum, 0)

	// Non-resonant contribution.
	tht15 := math.Pow(tht, 1.5)
	ga := 5.6e-3 * (pdry + 1.1*pwet) * tht15
	zterm := ga * (1 + (freq/ga)*(freq/ga))
	apterm := math.Max(0, 1.4e-10*(1-1.2e-5*math.Pow(freq, 1.5))*pdry*tht15)
	sftot := pdry * freq * tht * tht * (tht*sum + 6.14e-4/zterm + apterm)

	gamoxy := 0.1820 * freq * sftot
	if freq > 37 {
		gamoxy += 0.1820 * 26.0e-10 * pdry * pdry * tht * tht * tht * math.Pow(freq-37, 1.8)
	}
	return gamoxy
}
