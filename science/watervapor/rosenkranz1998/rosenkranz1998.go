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

// Package rosenkranz1998 calculates microwave absorption by water vapor
// using a modified version of the model in
// Rosenkranz, P.W., 1998. Water vapor microwave continuum absorption:
// A comparison of measurements and models. Radio Science, 33(4), pp.919-928.
package rosenkranz1998

import (
	"math"
	"sync"
)

// NumLines is the number of water vapor resonance lines in the model.
const NumLines = 15

// cloughCutoff [GHz] is the distance from a line center beyond which
// the line does not contribute to the local-line sum.
const cloughCutoff = 750.

type lines struct {
	f0, b1, b2, b3, b4, b5, b6 [NumLines]float64
}

var (
	coef     *lines
	coefOnce sync.Once
)

func coefficients() *lines {
	coefOnce.Do(func() {
		coef = newLines()
	})
	return coef
}

func newLines() *lines {
	l := &lines{
		// line frequencies [GHz]
		f0: [NumLines]float64{
			22.2351, 183.3101, 321.2256, 325.1529, 380.1974, 439.1508, 443.0183, 448.0011,
			470.8890, 474.6891, 488.4911, 556.9360, 620.7008, 752.0332, 916.1712,
		},
		// temperature coefficients of the intensities
		b2: [NumLines]float64{
			2.144, 0.668, 6.179, 1.541, 1.048, 3.595, 5.048, 1.405, 3.597, 2.379, 2.852, 0.159,
			2.391, 0.396, 1.441,
		},
		// air-broadened width parameters at 300 K
		b3: [NumLines]float64{
			0.0281, 0.0281, 0.023, 0.0278, 0.0287, 0.021, 0.0186, 0.0263, 0.0215, 0.0236, 0.026,
			0.0321, 0.0244, 0.0306, 0.0267,
		},
		// temperature exponents of air broadening
		b4: [NumLines]float64{
			0.69, 0.64, 0.67, 0.68, 0.54, 0.63, 0.60, 0.66, 0.66, 0.65, 0.69, 0.69, 0.71, 0.68,
			0.70,
		},
		// temperature exponents of self broadening
		b6: [NumLines]float64{
			0.61, 0.85, 0.54, 0.74, 0.89, 0.52, 0.50, 0.67, 0.65, 0.64, 0.72, 1.0, 0.68, 0.84, 0.78,
		},
	}
	// line intensities at 300 K
	intensity := [NumLines]float64{
		0.1310e-13, 0.2273e-11, 0.8036e-13, 0.2694e-11, 0.2438e-10, 0.2179e-11, 0.4624e-12,
		0.2562e-10, 0.8369e-12, 0.3263e-11, 0.6659e-12, 0.1531e-08, 0.1707e-10, 0.1011e-08,
		0.4227e-10,
	}
	// self-broadened width parameters at 300 K
	selfWidth := [NumLines]float64{
		0.1349, 0.1491, 0.108, 0.135, 0.1541, 0.090, 0.0788, 0.1275, 0.0983, 0.1095, 0.1313,
		0.1320, 0.1140, 0.1253, 0.1275,
	}
	for i := 0; i < NumLines; i++ {
		l.b1[i] = 1.8281089e14 * intensity[i] / (l.f0[i] * l.f0[i])
		// Liebe notation: ratio of self to air broadening.
		l.b5[i] = selfWidth[i] / l.b3[i]
	}
	// Narrower 22 GHz line. Must come after the b5 conversion above.
	l.b3[0] /= 1.040
	return l
}

// Absorption returns the water vapor absorption coefficient [dB/km]
// for total pressure p [hPa], temperature t [K], water vapor
// partial pressure pv [hPa], and frequency freq [GHz].
// It returns exactly zero when pv <= 0.
func Absorption(p, t, pv, freq float64) float64 {
	if pv <= 0 {
		return 0
	}
	c := coefficients()

	pwet := 0.1 * pv
	pdry := 0.1*p - pwet
	tht := 300 / t
	xterm := 1 - tht
	fsq := freq * freq

	var sum float64
	for i := 0; i < NumLines; i++ {
		ga := c.b3[i] * (pdry*math.Pow(tht, c.b4[i]) + c.b5[i]*pwet*math.Pow(tht, c.b6[i]))
		gasq := ga * ga
		s := c.b1[i] * math.Exp(c.b2[i]*xterm)
		rnuneg := c.f0[i] - freq
		rnupos := c.f0[i] + freq

		if i != 0 {
			// Clough's definition of the local line contribution.
			base := ga / (cloughCutoff*cloughCutoff + gasq)
			if math.Abs(rnuneg) < cloughCutoff {
				sum += s * (ga/(gasq+rnuneg*rnuneg) - base)
			}
			if math.Abs(rnupos) <= cloughCutoff {
				sum += s * (ga/(gasq+rnupos*rnupos) - base)
			}
			continue
		}

		// The 22 GHz line uses a line shape with a shift parameter chi
		// that is blended in smoothly below 19 GHz.
		chi := 0.07 * ga
		if freq < 19 {
			u := math.Min(math.Max(math.Abs(freq-19)/16.5, 0), 1)
			chi += 0.93 * ga * u * u * (3 - 2*u)
		}
		chisq := chi * chi
		f0sq := c.f0[i] * c.f0[i]
		d := fsq - f0sq - gasq + chisq
		sum += s * 2 * ((ga-chi)*fsq + (ga+chi)*(f0sq+gasq-chisq)) /
			(d*d + 4*fsq*gasq)
	}
	sum = math.Max(sum, 0)

	ffac := 1.
	if freq < 90 {
		ffac += 0.1 * math.Pow((90-freq)/90, 1.4)
	}

	// Foreign- and self-broadened continuum.
	sftot := pwet * freq * math.Pow(tht, 3.5) *
		(sum +
			ffac*1.1*1.2957246e-6*pdry/math.Sqrt(tht) +
			0.348*math.Pow(freq, 0.15)*4.2952193e-5*pwet*math.Pow(tht, 4))

	return 0.1820 * freq * sftot
}
