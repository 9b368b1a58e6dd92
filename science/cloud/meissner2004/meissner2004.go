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

// Package meissner2004 calculates the complex dielectric constant of
// pure and sea water and the resulting microwave absorption by liquid
// cloud droplets in the Rayleigh limit, following
// Meissner, T. and Wentz, F.J., 2004. The complex dielectric constant of
// pure and sea water from microwave satellite observations. IEEE
// Transactions on Geoscience and Remote Sensing, 42(9), pp.1836-1849.
package meissner2004

import (
	"math"
	"math/cmplx"
)

const (
	// speed of light [cm GHz]
	lightSpeed = 29.979

	// f0 converts conductivity [S/m] to the imaginary permittivity term.
	f0 = 17.97510

	// MinTemperature [°C] keeps the relaxation frequencies from going
	// to zero for very cold water.
	MinTemperature = -30.16
)

var (
	xCoef = [11]float64{
		5.7230e+00, 2.2379e-02, -7.1237e-04, 5.0478e+00, -7.0315e-02, 6.0059e-04,
		3.6143e+00, 2.8841e-02, 1.3652e-01, 1.4825e-03, 2.4166e-04,
	}
	zCoef = [13]float64{
		-3.56417e-03, 4.74868e-06, 1.15574e-05, 2.39357e-03, -3.13530e-05,
		2.52477e-07, -6.28908e-03, 1.76032e-04, -9.22144e-05, -1.99723e-02,
		1.81176e-04, -2.04265e-03, 1.57883e-04,
	}
	a0Coef = [3]float64{-0.33330e-02, 4.74868e-06, 0.0}
	b1Coef = [5]float64{0.23232e-02, -0.79208e-04, 0.36764e-05, -0.35594e-06, 0.89795e-08}
)

// Dielectric holds the parameters of the double Debye relaxation law.
type Dielectric struct {
	// Static, intermediate, and high-frequency permittivities.
	E0, E1, E2 float64

	// First and second relaxation frequencies [GHz].
	N1, N2 float64

	// Conductivity [S/m].
	Sigma float64
}

// Parameters returns the Debye parameters for water at temperature
// sst [°C] and salinity s [ppt]. Valid from -25 to 40 °C for pure water
// and -2 to 34 °C for saline water, with salinity between 0 and 40 ppt.
func Parameters(sst, s float64) Dielectric {
	sst = math.Max(sst, MinTemperature)
	sst2 := sst * sst
	sst3 := sst2 * sst
	sst4 := sst3 * sst
	s2 := s * s

	// Pure water. e0 is from Stogryn et al.
	e0 := (3.70886e4 - 8.2168e1*sst) / (4.21854e2 + sst)
	e1 := xCoef[0] + xCoef[1]*sst + xCoef[2]*sst2
	n1 := (45 + sst) / (xCoef[3] + xCoef[4]*sst + xCoef[5]*sst2)
	e2 := xCoef[6] + xCoef[7]*sst
	n2 := (45 + sst) / (xCoef[8] + xCoef[9]*sst + xCoef[10]*sst2)

	// Saline water. Conductivity from Stogryn et al.
	sig35 := 2.903602 + 8.60700e-2*sst + 4.738817e-4*sst2 - 2.9910e-6*sst3 + 4.3047e-9*sst4
	r15 := s * (37.5109 + 5.45216*s + 1.4409e-2*s2) / (1004.75 + 182.283*s + s2)
	alpha0 := (6.9431 + 3.2841*s - 9.9486e-2*s2) / (84.850 + 69.024*s + s2)
	alpha1 := 49.843 - 0.2276*s + 0.198e-2*s2
	rtr15 := 1 + (sst-15)*alpha0/(alpha1+sst)

	var b1 float64
	if sst <= 30 {
		b1 = 1 + s*(b1Coef[0]+b1Coef[1]*sst+b1Coef[2]*sst2+b1Coef[3]*sst3+b1Coef[4]*sst4)
	} else {
		b1 = 1 + s*(9.1873715e-04+1.5012396e-04*(sst-30))
	}

	return Dielectric{
		E0:    math.Exp(a0Coef[0]*s+a0Coef[1]*s2+a0Coef[2]*s*sst) * e0,
		E1:    e1 * math.Exp(zCoef[6]*s+zCoef[7]*s2+zCoef[8]*s*sst),
		E2:    e2 * (1 + s*(zCoef[11]+zCoef[12]*sst)),
		N1:    n1 * b1,
		N2:    n2 * (1 + s*(zCoef[9]+0.5*zCoef[10]*(sst+30))),
		Sigma: sig35 * r15 * rtr15,
	}
}

// Permittivity returns the complex dielectric constant of water at
// frequency freq [GHz], temperature t [K], and salinity s [ppt].
// The imaginary part is negative.
func Permittivity(freq, t, s float64) complex128 {
	d := Parameters(t-273.15, s)
	eps := complex(d.E0-d.E1, 0)/complex(1, -freq/d.N1) +
		complex(d.E1-d.E2, 0)/complex(1, -freq/d.N2) +
		complex(d.E2, d.Sigma*f0/freq)
	return cmplx.Conj(eps)
}

// Absorption returns the absorption coefficient [Np/km] of liquid cloud
// water with density rhol [g/m³] at frequency freq [GHz] and
// temperature t [K].
func Absorption(freq, t, rhol float64) float64 {
	rhol0 := 1.0e-6 * rhol // g/cm³
	permit := Permittivity(freq, t, 0)
	wavlen := lightSpeed / freq                                      // cm
	al := 6 * math.Pi * rhol0 / wavlen * imag((1-permit)/(2+permit)) // Np/cm
	return al * 1.0e5
}
