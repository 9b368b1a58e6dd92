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

package meissner2004

import (
	"math"
	"testing"
)

const testTolerance = 1.e-9

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestParameters(t *testing.T) {
	d := Parameters(20, 35)
	want := Dielectric{
		E0:    71.80304406119244,
		E1:    5.493059831506902,
		E2:    4.354679924891999,
		N1:    17.213244280394132,
		N2:    113.63599267979029,
		Sigma: 4.791266067182028,
	}
	for _, v := range []struct {
		name       string
		have, want float64
	}{
		{"E0", d.E0, want.E0},
		{"E1", d.E1, want.E1},
		{"E2", d.E2, want.E2},
		{"N1", d.N1, want.N1},
		{"N2", d.N2, want.N2},
		{"Sigma", d.Sigma, want.Sigma},
	} {
		if different(v.have, v.want, testTolerance) {
			t.Errorf("%s: have %g, want %g", v.name, v.have, v.want)
		}
	}
}

func TestParametersCold(t *testing.T) {
	if Parameters(-50, 0) != Parameters(MinTemperature, 0) {
		t.Error("temperature floor not applied")
	}
}

func TestPermittivity(t *testing.T) {
	tests := []struct {
		freq, t, s float64
		want       complex128
	}{
		{37, 273.15, 0, complex(10.206549552980277, -18.951242464311985)},
		{10, 293.15, 35, complex(55.06184835109299, -37.513727716784395)},
	}
	for _, test := range tests {
		have := Permittivity(test.freq, test.t, test.s)
		if different(real(have), real(test.want), 1.e-8) ||
			different(imag(have), imag(test.want), 1.e-8) {
			t.Errorf("Permittivity(%g, %g, %g) = %v; want %v",
				test.freq, test.t, test.s, have, test.want)
		}
	}
}

func TestAbsorption(t *testing.T) {
	tests := []struct {
		freq, t, rhol float64
		want          float64
	}{
		{37, 273.15, 0.5, 0.13014371459584131},
		{19.35, 283.15, 0.2, 0.011712471971998916},
		{85.5, 263.15, 1.0, 1.0504316240089135},
	}
	for _, test := range tests {
		have := Absorption(test.freq, test.t, test.rhol)
		if different(have, test.want, 1.e-8) {
			t.Errorf("Absorption(%g, %g, %g) = %g; want %g",
				test.freq, test.t, test.rhol, have, test.want)
		}
	}
	if a := Absorption(37, 273.15, 0); a != 0 {
		t.Errorf("absorption with no liquid water = %g", a)
	}
}
