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
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewParameters(t *testing.T) {
	if _, err := NewParameters([]float64{10, 20}, []float64{53}); !errors.Is(err, ErrInconsistentInputs) {
		t.Errorf("mismatched lengths: error = %v; want ErrInconsistentInputs", err)
	}
	if _, err := NewParameters(nil, nil); !errors.Is(err, ErrInconsistentInputs) {
		t.Errorf("empty: error = %v; want ErrInconsistentInputs", err)
	}
	p, err := NewParameters([]float64{10.65, 18.7}, []float64{53, 53})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d; want 2", p.Len())
	}
}

func TestTransmissionTwoLevel(t *testing.T) {
	tran, tbUp, tbDown := Transmission(0, []float64{288, 280}, []float64{0, 1000}, []float64{1e-4, 1e-4})
	if different(tran, math.Exp(-0.1), 1.e-6) {
		t.Errorf("tran = %g; want %g", tran, math.Exp(-0.1))
	}
	const wantTb = 27.026173277787496
	if different(tbUp, wantTb, 1.e-6) {
		t.Errorf("tbUp = %g; want %g", tbUp, wantTb)
	}
	if different(tbDown, wantTb, 1.e-6) {
		t.Errorf("tbDown = %g; want %g", tbDown, wantTb)
	}
}

func TestTransmission(t *testing.T) {
	tran, tbUp, tbDown := Transmission(53.1,
		[]float64{288, 288, 270, 250},
		[]float64{0, 500, 2000, 5000},
		[]float64{2e-5, 1.5e-5, 1e-5, 5e-6})
	for _, v := range []struct {
		name       string
		have, want float64
	}{
		{"tran", tran, 0.9201455798769118},
		{"tbUp", tbUp, 21.702474981763952},
		{"tbDown", tbDown, 21.74235678918673},
	} {
		if different(v.have, v.want, testTolerance) {
			t.Errorf("%s = %g; want %g", v.name, v.have, v.want)
		}
	}
}

func TestTransmissionTransparent(t *testing.T) {
	tran, tbUp, tbDown := Transmission(30, []float64{290, 280, 260}, []float64{0, 1000, 3000}, []float64{0, 0, 0})
	if tran != 1 || tbUp != 0 || tbDown != 0 {
		t.Errorf("transparent atmosphere: tran=%g, tbUp=%g, tbDown=%g", tran, tbUp, tbDown)
	}
}

func TestTransmissionBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	scales := []float64{0, 1e-9, 1e-5, 1e-3, 1, 1e3}
	for i := 0; i < 500; i++ {
		n := 2 + rnd.Intn(30)
		temp := make([]float64, n)
		z := make([]float64, n)
		tabs := make([]float64, n)
		scale := scales[i%len(scales)]
		for k := range temp {
			temp[k] = 180 + 130*rnd.Float64()
			if k > 0 {
				z[k] = z[k-1] + 0.1 + 2000*rnd.Float64()
			}
			tabs[k] = scale * rnd.Float64()
		}
		inc := 89 * rnd.Float64()
		tran, tbUp, tbDown := Transmission(inc, temp, z, tabs)
		if tran < 0 || tran > 1 || math.IsNaN(tran) {
			t.Errorf("case %d: tran = %g; want within [0, 1]", i, tran)
		}
		if math.IsNaN(tbUp) || math.IsInf(tbUp, 0) || math.IsNaN(tbDown) || math.IsInf(tbDown, 0) {
			t.Errorf("case %d: tbUp = %g, tbDown = %g; want finite", i, tbUp, tbDown)
		}
	}
}

func TestProfileRunTwoLevel(t *testing.T) {
	p, err := NewProfile([]float64{1000, 500},
		Surface{Temperature: 290, Height: 0, Dewpoint: 280, Pressure: 1000},
		[]float64{290, 260}, []float64{0, 5000}, []float64{0.01, 0.005}, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if p.SurfaceIndex != 0 {
		t.Errorf("SurfaceIndex = %d; want 0", p.SurfaceIndex)
	}
	params, err := NewParameters([]float64{6.8}, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	o := p.Run(params)
	for _, v := range []struct {
		name       string
		have, want float64
	}{
		{"tran", o.Tran[0], 0.9910440403246719},
		{"tbUp", o.TbUp[0], 2.462892731648903},
		{"tbDown", o.TbDown[0], 2.4628927661772835},
	} {
		if different(v.have, v.want, 1.e-6) {
			t.Errorf("%s = %g; want %g", v.name, v.have, v.want)
		}
	}
	again := p.Run(params)
	if again.Tran[0] != o.Tran[0] || again.TbUp[0] != o.TbUp[0] || again.TbDown[0] != o.TbDown[0] {
		t.Error("repeated runs differ")
	}
}

func TestProfileRun(t *testing.T) {
	p, err := NewProfile(testProfileData())
	if err != nil {
		t.Fatal(err)
	}
	params, err := NewParameters([]float64{22.235, 37, 54.96, 22.235}, []float64{53.1, 53.1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	o := p.Run(params)
	want := Outputs{
		Tran:   []float64{0.6890491285492304, 0.767550395971319, 0.006111627870628293, 0.7995063084529621},
		TbUp:   []float64{85.22083928534076, 64.04010859756161, 248.03219949705223, 55.05014513628235},
		TbDown: []float64{85.99163084699966, 64.423484600982, 281.1807917653645, 55.34914632290842},
	}
	for i := range want.Tran {
		if different(o.Tran[i], want.Tran[i], testTolerance) {
			t.Errorf("Tran[%d] = %g; want %g", i, o.Tran[i], want.Tran[i])
		}
		if different(o.TbUp[i], want.TbUp[i], testTolerance) {
			t.Errorf("TbUp[%d] = %g; want %g", i, o.TbUp[i], want.TbUp[i])
		}
		if different(o.TbDown[i], want.TbDown[i], testTolerance) {
			t.Errorf("TbDown[%d] = %g; want %g", i, o.TbDown[i], want.TbDown[i])
		}
		if o.Tran[i] <= 0 || o.Tran[i] > 1 || o.TbUp[i] < 0 || o.TbDown[i] < 0 {
			t.Errorf("pair %d out of range: tran=%g, tbUp=%g, tbDown=%g", i, o.Tran[i], o.TbUp[i], o.TbDown[i])
		}
	}
}

func TestProfileRunFirstFrequency(t *testing.T) {
	p, err := NewProfile(testProfileData())
	if err != nil {
		t.Fatal(err)
	}
	params, err := NewParameters([]float64{22.235, 37}, []float64{0, 53.1})
	if err != nil {
		t.Fatal(err)
	}
	single, err := NewParameters([]float64{22.235, 22.235}, []float64{0, 53.1})
	if err != nil {
		t.Fatal(err)
	}
	have := p.RunFirstFrequency(params)
	want := p.Run(single)
	for i := range want.Tran {
		if have.Tran[i] != want.Tran[i] || have.TbUp[i] != want.TbUp[i] || have.TbDown[i] != want.TbDown[i] {
			t.Errorf("pair %d: have %g, %g, %g; want %g, %g, %g", i,
				have.Tran[i], have.TbUp[i], have.TbDown[i],
				want.Tran[i], want.TbUp[i], want.TbDown[i])
		}
	}
}
