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

	"github.com/ctessum/sparse"
)

// Polarization is the polarization of a sensor channel at nadir.
type Polarization string

// Polarizations.
const (
	Horizontal Polarization = "H"
	Vertical   Polarization = "V"
)

// LandEmissivity is the emissivity assumed for land surfaces.
const LandEmissivity = 0.9

// Channel describes a cross-track scanning sounder channel.
// Frequency, Incidence, and LookAngle have one entry per
// scan position.
type Channel struct {
	Name         string       `toml:"name"`
	Frequency    []float64    `toml:"frequency"`  // [GHz]
	Incidence    []float64    `toml:"incidence"`  // Earth incidence angle [degrees]
	LookAngle    []float64    `toml:"look_angle"` // [degrees]
	Polarization Polarization `toml:"polarization"`
}

var (
	msuIncidence = []float64{0.00, 10.71, 21.51, 32.51, 43.91, 56.19}
	msuLookAngle = []float64{0.00, 9.47, 18.94, 28.41, 37.88, 47.35}
)

func msuChannel(name string, freq float64, pol Polarization) Channel {
	f := make([]float64, len(msuIncidence))
	for i := range f {
		f[i] = freq
	}
	return Channel{
		Name:         name,
		Frequency:    f,
		Incidence:    msuIncidence,
		LookAngle:    msuLookAngle,
		Polarization: pol,
	}
}

// MSUChannels are the channels of the Microwave Sounding Unit.
var MSUChannels = map[string]Channel{
	"MSU1": msuChannel("MSU1", 50.30, Vertical),
	"MSU2": msuChannel("MSU2", 53.74, Horizontal),
	"MSU3": msuChannel("MSU3", 54.96, Vertical),
	"MSU4": msuChannel("MSU4", 57.95, Horizontal),
}

// Parameters returns the model parameters for the channel.
func (c Channel) Parameters() (*Parameters, error) {
	if len(c.LookAngle) != len(c.Incidence) {
		return nil, fmt.Errorf("atmrtm: channel %s has %d look angles and %d incidence angles: %w",
			c.Name, len(c.LookAngle), len(c.Incidence), ErrInconsistentInputs)
	}
	switch c.Polarization {
	case Horizontal, Vertical:
	default:
		return nil, fmt.Errorf("atmrtm: channel %s has unsupported polarization %q", c.Name, c.Polarization)
	}
	return NewParameters(c.Frequency, c.Incidence)
}

// EmissivityModel calculates the emissivity of the ocean surface.
type EmissivityModel interface {
	// Emissivity returns the horizontally and vertically polarized
	// emissivity of the ocean at frequency freq [GHz], incidence
	// angle [degrees], and skin temperature [K].
	Emissivity(freq, incidence, skinTemperature float64) (h, v float64)
}

// ConstantEmissivity is an EmissivityModel that returns
// the same emissivity everywhere.
type ConstantEmissivity struct {
	H, V float64
}

// Emissivity implements EmissivityModel.
func (e ConstantEmissivity) Emissivity(_, _, _ float64) (h, v float64) { return e.H, e.V }

// BrightnessTemperature returns top-of-atmosphere brightness
// temperatures [K] with shape (points, scan positions), given
// the model result r calculated with c.Parameters, skin temperature
// [K], and land fraction [0-1] for each point. Surface emissivity
// is the land-weighted combination of LandEmissivity and the
// emissivity from ocean. The two polarizations are mixed according
// to the look angle.
func (c Channel) BrightnessTemperature(r *Result, skinTemperature, landFraction []float64, ocean EmissivityModel) (*sparse.DenseArray, error) {
	if _, err := c.Parameters(); err != nil {
		return nil, err
	}
	np, nf := len(skinTemperature), len(c.Incidence)
	if len(landFraction) != np {
		return nil, fmt.Errorf("atmrtm: %d skin temperatures and %d land fractions: %w",
			np, len(landFraction), ErrInconsistentInputs)
	}
	if err := r.check(np, nf); err != nil {
		return nil, err
	}
	o := sparse.ZerosDense(np, nf)
	for j := 0; j < nf; j++ {
		cos := math.Cos(c.LookAngle[j] * math.Pi / 180)
		cos2 := cos * cos
		for i := 0; i < np; i++ {
			ts, land := skinTemperature[i], landFraction[i]
			eh, ev := ocean.Emissivity(c.Frequency[j], c.Incidence[j], ts)
			eh = eh*(1-land) + LandEmissivity*land
			ev = ev*(1-land) + LandEmissivity*land

			tran, up, down := r.Tran.Get(i, j), r.TbUp.Get(i, j), r.TbDown.Get(i, j)
			tbh := toaBrightness(tran, up, down, eh, ts)
			tbv := toaBrightness(tran, up, down, ev, ts)

			var tb float64
			if c.Polarization == Vertical {
				tb = tbv*cos2 + tbh*(1-cos2)
			} else {
				tb = tbh*cos2 + tbv*(1-cos2)
			}
			o.Set(tb, i, j)
		}
	}
	return o, nil
}

// toaBrightness returns the brightness temperature at the top of the
// atmosphere: upwelling emission plus surface emission and reflected
// downwelling emission attenuated by the atmosphere.
func toaBrightness(tran, tbUp, tbDown, emissivity, skinTemperature float64) float64 {
	return tbUp + tran*emissivity*skinTemperature + (1-emissivity)*tran*tbDown
}

// Products returns the layer temperature products that can be
// derived from the scan-position brightness temperatures tb
// (shape (points, scan positions)) of an MSU channel. MSU2 yields
// the middle (TMT) and lower (TLT) troposphere, MSU3 the
// troposphere-stratosphere (TTS), and MSU4 the lower
// stratosphere (TLS).
func (c Channel) Products(tb *sparse.DenseArray) (map[string][]float64, error) {
	if len(tb.Shape) != 2 || tb.Shape[1] != len(msuIncidence) {
		return nil, fmt.Errorf("atmrtm: brightness temperatures have shape %v; want [points %d]: %w",
			tb.Shape, len(msuIncidence), ErrInconsistentInputs)
	}
	np := tb.Shape[0]
	nearNadir := func() []float64 {
		o := make([]float64, np)
		for i := range o {
			o[i] = 0.2*tb.Get(i, 0) + 0.4*tb.Get(i, 1) + 0.4*tb.Get(i, 2)
		}
		return o
	}
	switch c.Name {
	case "MSU2":
		tlt := make([]float64, np)
		for i := range tlt {
			tlt[i] = 2*(tb.Get(i, 2)+tb.Get(i, 3)) - 1.5*(tb.Get(i, 4)+tb.Get(i, 5))
		}
		return map[string][]float64{"tbs_TMT": nearNadir(), "tbs_TLT": tlt}, nil
	case "MSU3":
		return map[string][]float64{"tbs_TTS": nearNadir()}, nil
	case "MSU4":
		return map[string][]float64{"tbs_TLS": nearNadir()}, nil
	default:
		return nil, fmt.Errorf("atmrtm: no layer products for channel %s", c.Name)
	}
}
