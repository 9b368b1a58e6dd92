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
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/atmrtm/internal/hash"
	"gonum.org/v1/gonum/floats"
)

// Dimension names used in input and output files.
const (
	timeDim  = "time"
	latDim   = "lat"
	lonDim   = "lon"
	levelDim = "level"
	freqDim  = "freq"
	eiaDim   = "eia"
)

// TimeUnits are the units of the time coordinate.
const TimeUnits = "hours since 1900-01-01 00:00:00Z"

var timeEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Grid describes how the points in a batch are laid out in space and
// time. Points are ordered with time varying slowest and longitude
// varying fastest.
type Grid struct {
	Time []float64 // [hours since 1900-01-01]
	Lat  []float64 // [degrees north]
	Lon  []float64 // [degrees east]
}

// NumPoints returns the number of points in the grid.
func (g *Grid) NumPoints() int { return len(g.Time) * len(g.Lat) * len(g.Lon) }

// Times returns the time coordinates as time.Time values.
func (g *Grid) Times() []time.Time {
	o := make([]time.Time, len(g.Time))
	for i, h := range g.Time {
		o[i] = timeEpoch.Add(time.Duration(h * float64(time.Hour)))
	}
	return o
}

// Input holds the contents of an input file.
type Input struct {
	Batch
	Grid

	// SkinTemperature [K] and LandFraction [0-1] are only
	// needed to calculate top-of-atmosphere brightness temperatures.
	// They are nil if they are not present in the input file.
	SkinTemperature, LandFraction []float64
}

// fields returns the named input variables, omitting
// any that are missing.
func (in *Input) fields() map[string][]float64 {
	o := map[string][]float64{
		"levels":              in.Levels,
		"lats":                in.Lat,
		"lons":                in.Lon,
		"surface_pressure":    in.SurfacePressure,
		"surface_temperature": in.SurfaceTemperature,
		"surface_dewpoint":    in.SurfaceDewpoint,
		"surface_height":      in.SurfaceHeight,
		"skin_temperature":    in.SkinTemperature,
		"land_fraction":       in.LandFraction,
	}
	for name, a := range map[string]*sparse.DenseArray{
		"temperature":       in.Temperature,
		"specific_humidity": in.SpecificHumidity,
		"height":            in.Height,
		"liquid_content":    in.LiquidContent,
	} {
		if a != nil {
			o[name] = a.Elements
		}
	}
	for name, v := range o {
		if v == nil {
			delete(o, name)
		}
	}
	return o
}

// inputVar describes a variable in an input file.
type inputVar struct {
	name, longName, units string
	dims                  []string
}

var (
	profileVars = []inputVar{
		{"temperature", "air temperature", "K", []string{timeDim, latDim, lonDim, levelDim}},
		{"height", "geopotential height", "m", []string{timeDim, latDim, lonDim, levelDim}},
		{"specific_humidity", "specific humidity", "kg kg-1", []string{timeDim, latDim, lonDim, levelDim}},
		{"liquid_content", "specific cloud liquid water content", "kg kg-1", []string{timeDim, latDim, lonDim, levelDim}},
	}
	surfaceVars = []inputVar{
		{"surface_temperature", "2 metre temperature", "K", []string{timeDim, latDim, lonDim}},
		{"surface_height", "surface geopotential height", "m", []string{timeDim, latDim, lonDim}},
		{"surface_dewpoint", "2 metre dewpoint temperature", "K", []string{timeDim, latDim, lonDim}},
		{"surface_pressure", "surface pressure", "hPa", []string{timeDim, latDim, lonDim}},
	}
	optionalVars = []inputVar{
		{"skin_temperature", "skin temperature", "K", []string{timeDim, latDim, lonDim}},
		{"land_fraction", "land-sea mask", "1", []string{timeDim, latDim, lonDim}},
	}
)

// ReadInput reads profiles from a netCDF file. The file must contain
// the dimensions time, lat, lon, and level, a level coordinate variable
// [hPa], the four-dimensional variables temperature, height,
// specific_humidity, and liquid_content, and the three-dimensional
// variables surface_temperature, surface_height, surface_dewpoint, and
// surface_pressure. Record (unlimited) dimensions are not supported.
func ReadInput(rw cdf.ReaderWriterAt) (*Input, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("atmrtm: opening input file: %v", err)
	}
	in := new(Input)

	if in.Levels, err = readVar(f, levelDim, levelDim); err != nil {
		return nil, err
	}
	dims := f.Header.Lengths("")
	dimNames := f.Header.Dimensions("")
	lengths := make(map[string]int)
	for i, d := range dimNames {
		lengths[d] = dims[i]
	}
	for _, c := range []struct {
		name string
		dst  *[]float64
	}{
		{timeDim, &in.Time},
		{latDim, &in.Lat},
		{lonDim, &in.Lon},
	} {
		if f.Header.Dimensions(c.name) == nil {
			// Coordinate variables are optional; use indices instead.
			*c.dst = make([]float64, lengths[c.name])
			for i := range *c.dst {
				(*c.dst)[i] = float64(i)
			}
			continue
		}
		if *c.dst, err = readVar(f, c.name, c.name); err != nil {
			return nil, err
		}
	}

	np, nl := in.Grid.NumPoints(), len(in.Levels)
	for _, v := range profileVars {
		data, err := readVar(f, v.name, v.dims...)
		if err != nil {
			return nil, err
		}
		a := &sparse.DenseArray{Shape: []int{np, nl}, Elements: data}
		switch v.name {
		case "temperature":
			in.Temperature = a
		case "height":
			in.Height = a
		case "specific_humidity":
			in.SpecificHumidity = a
		case "liquid_content":
			in.LiquidContent = a
		}
	}
	dsts := map[string]*[]float64{
		"surface_temperature": &in.SurfaceTemperature,
		"surface_height":      &in.SurfaceHeight,
		"surface_dewpoint":    &in.SurfaceDewpoint,
		"surface_pressure":    &in.SurfacePressure,
		"skin_temperature":    &in.SkinTemperature,
		"land_fraction":       &in.LandFraction,
	}
	for _, v := range surfaceVars {
		if *dsts[v.name], err = readVar(f, v.name, v.dims...); err != nil {
			return nil, err
		}
	}
	for _, v := range optionalVars {
		if f.Header.Dimensions(v.name) == nil {
			continue
		}
		if *dsts[v.name], err = readVar(f, v.name, v.dims...); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// readVar reads variable name from f, checking that it has
// the given dimensions.
func readVar(f *cdf.File, name string, dims ...string) ([]float64, error) {
	have := f.Header.Dimensions(name)
	if have == nil {
		return nil, fmt.Errorf("atmrtm: variable %s is not in the input file", name)
	}
	if strings.Join(have, ",") != strings.Join(dims, ",") {
		return nil, fmt.Errorf("atmrtm: variable %s has dimensions (%s); want (%s): %w",
			name, strings.Join(have, ", "), strings.Join(dims, ", "), ErrInconsistentInputs)
	}
	if f.Header.IsRecordVariable(name) {
		return nil, fmt.Errorf("atmrtm: variable %s has a record dimension, which is not supported", name)
	}
	n := 1
	for _, l := range f.Header.Lengths(name) {
		n *= l
	}
	buf := f.Header.ZeroValue(name, n)
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("atmrtm: reading variable %s: %v", name, err)
	}
	o := make([]float64, n)
	switch v := buf.(type) {
	case []float32:
		for i, e := range v {
			o[i] = float64(e)
		}
	case []float64:
		copy(o, v)
	case []int16:
		for i, e := range v {
			o[i] = float64(e)
		}
	case []int32:
		for i, e := range v {
			o[i] = float64(e)
		}
	default:
		return nil, fmt.Errorf("atmrtm: variable %s has unsupported type %T", name, buf)
	}
	return o, nil
}

// WriteInput writes in to netCDF file w in the format read by ReadInput.
func WriteInput(w *os.File, in *Input) error {
	if err := in.Batch.check(); err != nil {
		return err
	}
	if in.Grid.NumPoints() != in.Batch.NumPoints() {
		return fmt.Errorf("atmrtm: grid has %d points but batch has %d: %w",
			in.Grid.NumPoints(), in.Batch.NumPoints(), ErrInconsistentInputs)
	}
	h := cdf.NewHeader(
		[]string{timeDim, latDim, lonDim, levelDim},
		[]int{len(in.Time), len(in.Lat), len(in.Lon), len(in.Levels)})
	h.AddAttribute("", "Conventions", "CF-1.9")
	h.AddAttribute("", "title", "AtmRTM input profiles")

	addCoordinates(h, in.Grid)
	h.AddVariable(levelDim, []string{levelDim}, []float32{0})
	h.AddAttribute(levelDim, "long_name", "pressure level")
	h.AddAttribute(levelDim, "units", "hPa")

	data := map[string][]float64{
		"temperature":         in.Temperature.Elements,
		"height":              in.Height.Elements,
		"specific_humidity":   in.SpecificHumidity.Elements,
		"liquid_content":      in.LiquidContent.Elements,
		"surface_temperature": in.SurfaceTemperature,
		"surface_height":      in.SurfaceHeight,
		"surface_dewpoint":    in.SurfaceDewpoint,
		"surface_pressure":    in.SurfacePressure,
		"skin_temperature":    in.SkinTemperature,
		"land_fraction":       in.LandFraction,
	}
	var vars []inputVar
	vars = append(vars, profileVars...)
	vars = append(vars, surfaceVars...)
	for _, v := range optionalVars {
		if d := data[v.name]; d != nil {
			if len(d) != in.Batch.NumPoints() {
				return fmt.Errorf("atmrtm: %s has length %d; want %d: %w",
					v.name, len(d), in.Batch.NumPoints(), ErrInconsistentInputs)
			}
			vars = append(vars, v)
		}
	}
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float32{0})
		h.AddAttribute(v.name, "long_name", v.longName)
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("atmrtm: writing input file: %v", err)
	}
	if err = writeCoordinates(f, in.Grid); err != nil {
		return err
	}
	if err = writeNCF(f, levelDim, in.Levels); err != nil {
		return err
	}
	for _, v := range vars {
		if err = writeNCF(f, v.name, data[v.name]); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

func addCoordinates(h *cdf.Header, g Grid) {
	h.AddVariable(timeDim, []string{timeDim}, []float64{0})
	h.AddAttribute(timeDim, "standard_name", "time")
	h.AddAttribute(timeDim, "axis", "T")
	h.AddAttribute(timeDim, "units", TimeUnits)

	h.AddVariable(latDim, []string{latDim}, []float32{0})
	h.AddAttribute(latDim, "standard_name", "latitude")
	h.AddAttribute(latDim, "axis", "Y")
	h.AddAttribute(latDim, "units", "degrees_north")

	h.AddVariable(lonDim, []string{lonDim}, []float32{0})
	h.AddAttribute(lonDim, "standard_name", "longitude")
	h.AddAttribute(lonDim, "axis", "X")
	h.AddAttribute(lonDim, "units", "degrees_east")
}

func writeCoordinates(f *cdf.File, g Grid) error {
	if _, err := writer(f, timeDim).Write(g.Time); err != nil {
		return fmt.Errorf("atmrtm: writing variable %s: %v", timeDim, err)
	}
	if err := writeNCF(f, latDim, g.Lat); err != nil {
		return err
	}
	return writeNCF(f, lonDim, g.Lon)
}

// WriteResult writes batch results r for the points in grid g and
// the frequency and incidence angle pairs in params to netCDF file w.
// history is recorded in the file's global attributes.
func WriteResult(w *os.File, g Grid, params *Parameters, r *Result, history string) error {
	nf := params.Len()
	if err := r.check(g.NumPoints(), nf); err != nil {
		return err
	}
	h := cdf.NewHeader(
		[]string{timeDim, latDim, lonDim, freqDim, eiaDim},
		[]int{len(g.Time), len(g.Lat), len(g.Lon), nf, nf})
	addGlobalAttributes(h, g, "AtmRTM output", history)
	h.AddAttribute("", "parameters_id", hash.Fingerprint(params.Frequency, params.Incidence))
	addCoordinates(h, g)

	h.AddVariable(freqDim, []string{freqDim}, []float32{0})
	h.AddAttribute(freqDim, "standard_name", "sensor_band_central_radiation_frequency")
	h.AddAttribute(freqDim, "long_name", "frequency")
	h.AddAttribute(freqDim, "units", "GHz")

	h.AddVariable(eiaDim, []string{eiaDim}, []float32{0})
	h.AddAttribute(eiaDim, "standard_name", "sensor_zenith_angle")
	h.AddAttribute(eiaDim, "long_name", "incidence angle")
	h.AddAttribute(eiaDim, "units", "degree")

	outputs := []struct {
		name, longName, units string
		data                  *sparse.DenseArray
	}{
		{"tran", "atmospheric transmissivity", "1", r.Tran},
		{"tb_up", "upwelling brightness temperature", "kelvin", r.TbUp},
		{"tb_down", "downwelling brightness temperature", "kelvin", r.TbDown},
	}
	for _, o := range outputs {
		h.AddVariable(o.name, []string{timeDim, latDim, lonDim, eiaDim}, []float32{0})
		h.AddAttribute(o.name, "long_name", o.longName)
		h.AddAttribute(o.name, "units", o.units)
		h.AddAttribute(o.name, "coordinates", "lat lon")
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("atmrtm: writing output file: %v", err)
	}
	if err = writeCoordinates(f, g); err != nil {
		return err
	}
	if err = writeNCF(f, freqDim, params.Frequency); err != nil {
		return err
	}
	if err = writeNCF(f, eiaDim, params.Incidence); err != nil {
		return err
	}
	for _, o := range outputs {
		if err = writeNCF(f, o.name, o.data.Elements); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadResult reads a file written by WriteResult.
func ReadResult(rw cdf.ReaderWriterAt) (Grid, *Parameters, *Result, error) {
	var g Grid
	f, err := cdf.Open(rw)
	if err != nil {
		return g, nil, nil, fmt.Errorf("atmrtm: opening output file: %v", err)
	}
	for _, c := range []struct {
		name string
		dst  *[]float64
	}{
		{timeDim, &g.Time},
		{latDim, &g.Lat},
		{lonDim, &g.Lon},
	} {
		if *c.dst, err = readVar(f, c.name, c.name); err != nil {
			return g, nil, nil, err
		}
	}
	freq, err := readVar(f, freqDim, freqDim)
	if err != nil {
		return g, nil, nil, err
	}
	eia, err := readVar(f, eiaDim, eiaDim)
	if err != nil {
		return g, nil, nil, err
	}
	params, err := NewParameters(freq, eia)
	if err != nil {
		return g, nil, nil, err
	}
	np, nf := g.NumPoints(), params.Len()
	r := new(Result)
	for _, o := range []struct {
		name string
		dst  **sparse.DenseArray
	}{
		{"tran", &r.Tran},
		{"tb_up", &r.TbUp},
		{"tb_down", &r.TbDown},
	} {
		data, err := readVar(f, o.name, timeDim, latDim, lonDim, eiaDim)
		if err != nil {
			return g, nil, nil, err
		}
		*o.dst = &sparse.DenseArray{Shape: []int{np, nf}, Elements: data}
	}
	return g, params, r, nil
}

// WriteProducts writes the layer temperature products of channel c,
// as returned by Channel.Products, for the points in grid g to
// netCDF file w.
func WriteProducts(w *os.File, g Grid, c Channel, products map[string][]float64, history string) error {
	names := make([]string, 0, len(products))
	for name, v := range products {
		if len(v) != g.NumPoints() {
			return fmt.Errorf("atmrtm: product %s has %d values for %d grid points: %w",
				name, len(v), g.NumPoints(), ErrInconsistentInputs)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	h := cdf.NewHeader([]string{timeDim, latDim, lonDim}, []int{len(g.Time), len(g.Lat), len(g.Lon)})
	addGlobalAttributes(h, g, "AtmRTM "+c.Name+" brightness temperature products", history)
	addCoordinates(h, g)
	for _, name := range names {
		h.AddVariable(name, []string{timeDim, latDim, lonDim}, []float32{0})
		h.AddAttribute(name, "long_name", c.Name+" "+strings.TrimPrefix(name, "tbs_")+" brightness temperature")
		h.AddAttribute(name, "units", "kelvin")
		h.AddAttribute(name, "coordinates", "lat lon")
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("atmrtm: writing product file: %v", err)
	}
	if err = writeCoordinates(f, g); err != nil {
		return err
	}
	for _, name := range names {
		if err = writeNCF(f, name, products[name]); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

func addGlobalAttributes(h *cdf.Header, g Grid, title, history string) {
	now := time.Now().UTC().Format("2006-01-02 15:04:05Z")
	h.AddAttribute("", "Conventions", "CF-1.9,ACDD-1.3")
	h.AddAttribute("", "title", title)
	h.AddAttribute("", "source", "AtmRTM v"+Version)
	h.AddAttribute("", "history", now+" created: "+history)
	h.AddAttribute("", "date_created", now)
	if len(g.Lat) > 0 {
		h.AddAttribute("", "geospatial_lat_min", []float32{float32(floats.Min(g.Lat))})
		h.AddAttribute("", "geospatial_lat_max", []float32{float32(floats.Max(g.Lat))})
	}
	if len(g.Lon) > 0 {
		h.AddAttribute("", "geospatial_lon_min", []float32{float32(floats.Min(g.Lon))})
		h.AddAttribute("", "geospatial_lon_max", []float32{float32(floats.Max(g.Lon))})
	}
	if t := g.Times(); len(t) > 0 {
		h.AddAttribute("", "time_coverage_start", t[0].Format("2006-01-02 15:04:05Z"))
		h.AddAttribute("", "time_coverage_end", t[len(t)-1].Format("2006-01-02 15:04:05Z"))
	}
}

func writeNCF(f *cdf.File, Var string, data []float64) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range f.Header.Lengths(Var) {
		n *= v
	}
	if len(data) != n {
		return fmt.Errorf("atmrtm: writing variable %s: dims are %d but array length is %d",
			Var, n, len(data))
	}
	data32 := make([]float32, len(data))
	for i, e := range data {
		data32[i] = float32(e)
	}
	if _, err := writer(f, Var).Write(data32); err != nil {
		return fmt.Errorf("atmrtm: writing variable %s: %v", Var, err)
	}
	return nil
}

// writer returns a writer covering all of variable Var. The end corner
// is set explicitly because a writer with an implicit end reports
// io.EOF once the last element has been written.
func writer(f *cdf.File, Var string) cdf.Writer {
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	return f.Writer(Var, start, end)
}
