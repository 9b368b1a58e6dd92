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
	"io"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Map image dimensions.
const (
	MapWidth     = 6 * vg.Inch
	MapHeight    = 4 * vg.Inch
	legendHeight = 0.6 * vg.Inch
)

// Field returns the values of the named output variable ("tran",
// "tb_up", or "tb_down") at frequency and incidence pair index pair
// for every point in r.
func (r *Result) Field(variable string, pair int) ([]float64, error) {
	var a *sparse.DenseArray
	switch variable {
	case "tran":
		a = r.Tran
	case "tb_up":
		a = r.TbUp
	case "tb_down":
		a = r.TbDown
	default:
		return nil, fmt.Errorf("atmrtm: invalid output variable %q", variable)
	}
	np, nf := r.Tran.Shape[0], r.Tran.Shape[1]
	if pair < 0 || pair >= nf {
		return nil, fmt.Errorf("atmrtm: pair index %d out of range [0, %d)", pair, nf)
	}
	o := make([]float64, np)
	for i := range o {
		o[i] = a.Get(i, pair)
	}
	return o, nil
}

// gridSlice is a plotter.GridXYZ over one time of gridded values.
type gridSlice struct {
	g    Grid
	data []float64 // lat-major values for one time
}

func (s gridSlice) Dims() (c, r int)   { return len(s.g.Lon), len(s.g.Lat) }
func (s gridSlice) Z(c, r int) float64 { return s.data[r*len(s.g.Lon)+c] }
func (s gridSlice) X(c int) float64    { return s.g.Lon[c] }
func (s gridSlice) Y(r int) float64    { return s.g.Lat[r] }

// Map draws the values in data, which has one value per point of
// grid g, at time index t as a PNG heat map with a color legend
// and writes it to w.
func Map(w io.Writer, g Grid, t int, data []float64, title, units string) error {
	if len(data) != g.NumPoints() {
		return fmt.Errorf("atmrtm: mapping %d values on %d grid points: %w", len(data), g.NumPoints(), ErrInconsistentInputs)
	}
	if t < 0 || t >= len(g.Time) {
		return fmt.Errorf("atmrtm: time index %d out of range [0, %d)", t, len(g.Time))
	}
	if len(g.Lat) < 2 || len(g.Lon) < 2 {
		return fmt.Errorf("atmrtm: mapping needs at least 2 latitudes and 2 longitudes; have %d and %d",
			len(g.Lat), len(g.Lon))
	}
	n := len(g.Lat) * len(g.Lon)
	s := gridSlice{g: g, data: data[t*n : (t+1)*n]}
	min, max := floats.Min(s.data), floats.Max(s.data)
	if max <= min {
		max = min + 1
	}

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(min)
	cm.SetMax(max)

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	hm := plotter.NewHeatMap(s, cm.Palette(255))
	hm.Min, hm.Max = min, max
	p.Add(hm)

	l, err := plot.New()
	if err != nil {
		return err
	}
	l.Add(&plotter.ColorBar{ColorMap: cm})
	l.HideY()
	l.X.Padding = 0
	l.X.Label.Text = units

	img := vgimg.New(MapWidth, MapHeight)
	dc := draw.New(img)
	mapCanvas, legendCanvas := splitVertical(dc, legendHeight)
	p.Draw(mapCanvas)
	l.Draw(legendCanvas)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("atmrtm: writing map: %v", err)
	}
	return nil
}

// splitVertical splits c into a top canvas and a bottom canvas
// of height y.
func splitVertical(c draw.Canvas, y vg.Length) (top, bottom draw.Canvas) {
	return draw.Crop(c, 0, 0, y, 0), draw.Crop(c, 0, 0, 0, c.Min.Y-c.Max.Y+y)
}
