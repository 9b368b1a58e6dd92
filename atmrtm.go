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

// Package atmrtm is a radiative transfer model for the microwave
// emission and absorption of a clear or cloudy, non-scattering
// atmosphere. For each vertical profile of pressure, temperature,
// humidity, and cloud liquid water it calculates the atmospheric
// transmissivity and the upwelling and downwelling brightness
// temperatures at a set of frequency and incidence angle pairs.
package atmrtm

import "fmt"

// Version gives the version number.
const Version = "1.0.0"

// Parameters hold the frequency and incidence angle pairs the
// model is run for. They are shared read-only among all of the
// profiles in a batch.
type Parameters struct {
	// Frequency holds microwave frequencies [GHz].
	Frequency []float64

	// Incidence holds Earth incidence angles [degrees], one for
	// each entry in Frequency.
	Incidence []float64
}

// NewParameters returns a new set of model parameters. freq and
// incidence must be non-empty and of equal length.
func NewParameters(freq, incidence []float64) (*Parameters, error) {
	if len(freq) != len(incidence) || len(freq) == 0 {
		return nil, fmt.Errorf("atmrtm: %d frequencies and %d incidence angles: %w",
			len(freq), len(incidence), ErrInconsistentInputs)
	}
	p := &Parameters{
		Frequency: make([]float64, len(freq)),
		Incidence: make([]float64, len(incidence)),
	}
	copy(p.Frequency, freq)
	copy(p.Incidence, incidence)
	return p, nil
}

// Len returns the number of frequency and incidence angle pairs.
func (p *Parameters) Len() int { return len(p.Frequency) }

// Outputs hold the model results for a single profile,
// with one value for each frequency and incidence angle pair.
type Outputs struct {
	// Tran is the atmospheric transmissivity [0-1].
	Tran []float64

	// TbUp is the upwelling brightness temperature [K].
	TbUp []float64

	// TbDown is the downwelling brightness temperature [K].
	TbDown []float64
}

func newOutputs(n int) *Outputs {
	return &Outputs{
		Tran:   make([]float64, n),
		TbUp:   make([]float64, n),
		TbDown: make([]float64, n),
	}
}
