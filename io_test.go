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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/atmrtm/internal/hash"
)

// testInput returns an input with 2 times, 3 latitudes,
// and 2 longitudes.
func testInput() *Input {
	in := &Input{
		Batch: *testBatch(12),
		Grid: Grid{
			Time: []float64{1051896, 1051897},
			Lat:  []float64{-10, 0, 10},
			Lon:  []float64{100, 101},
		},
	}
	in.SkinTemperature = make([]float64, 12)
	in.LandFraction = make([]float64, 12)
	for i := range in.SkinTemperature {
		in.SkinTemperature[i] = 290 + float64(i)
		in.LandFraction[i] = float64(i%3) / 2
	}
	return in
}

func createTemp(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestInputRoundTrip(t *testing.T) {
	want := testInput()
	f := createTemp(t, "input.nc")
	if err := WriteInput(f, want); err != nil {
		t.Fatal(err)
	}
	have, err := ReadInput(f)
	if err != nil {
		t.Fatal(err)
	}
	if have.Grid.NumPoints() != 12 || have.Batch.NumPoints() != 12 {
		t.Fatalf("have %d grid points and %d profiles; want 12", have.Grid.NumPoints(), have.Batch.NumPoints())
	}
	if have.Time[1] != want.Time[1] {
		t.Errorf("time = %g; want %g", have.Time[1], want.Time[1])
	}
	if s := have.Temperature.Shape; s[0] != 12 || s[1] != 5 {
		t.Errorf("temperature shape = %v; want [12 5]", s)
	}
	const tol = 1.e-6 // stored as float32
	for i, v := range want.Temperature.Elements {
		if different(have.Temperature.Elements[i], v, tol) {
			t.Errorf("temperature[%d] = %g; want %g", i, have.Temperature.Elements[i], v)
		}
	}
	for i, v := range want.SurfacePressure {
		if different(have.SurfacePressure[i], v, tol) {
			t.Errorf("surface_pressure[%d] = %g; want %g", i, have.SurfacePressure[i], v)
		}
	}
	if len(have.LandFraction) != 12 || have.LandFraction[1] != 0.5 {
		t.Errorf("land_fraction = %v", have.LandFraction)
	}

	// The file can be used to run the model.
	params := testParameters(t)
	if _, err := quietEngine(2).Compute(context.Background(), params, &have.Batch); err != nil {
		t.Fatal(err)
	}
}

func TestReadInputMissingVariable(t *testing.T) {
	h := cdf.NewHeader([]string{timeDim, latDim, lonDim, levelDim}, []int{1, 1, 1, 2})
	h.AddVariable(levelDim, []string{levelDim}, []float32{0})
	h.AddVariable("temperature", []string{timeDim, latDim, lonDim, levelDim}, []float32{0})
	h.Define()
	f := createTemp(t, "bad.nc")
	if _, err := cdf.Create(f, h); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadInput(f); err == nil {
		t.Error("expected an error for missing variables")
	}
}

func TestResultRoundTrip(t *testing.T) {
	in := testInput()
	params := testParameters(t)
	r, err := quietEngine(2).Compute(context.Background(), params, &in.Batch)
	if err != nil {
		t.Fatal(err)
	}
	f := createTemp(t, "output.nc")
	if err := WriteResult(f, in.Grid, params, r, "atmrtm run"); err != nil {
		t.Fatal(err)
	}
	g, haveParams, have, err := ReadResult(f)
	if err != nil {
		t.Fatal(err)
	}
	if g.NumPoints() != in.Grid.NumPoints() {
		t.Errorf("have %d points; want %d", g.NumPoints(), in.Grid.NumPoints())
	}
	if haveParams.Len() != params.Len() || haveParams.Incidence[5] != float64(float32(params.Incidence[5])) {
		t.Errorf("parameters = %+v; want %+v", haveParams, params)
	}
	for i, v := range r.TbUp.Elements {
		if different(have.TbUp.Elements[i], v, 1.e-6) {
			t.Errorf("tb_up[%d] = %g; want %g", i, have.TbUp.Elements[i], v)
		}
	}

	cf, err := cdf.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	if u := cf.Header.GetAttribute("tb_down", "units"); u != "kelvin" {
		t.Errorf("tb_down units = %v; want kelvin", u)
	}
	if c := cf.Header.GetAttribute("", "Conventions"); c != "CF-1.9,ACDD-1.3" {
		t.Errorf("Conventions = %v", c)
	}
	if id, want := cf.Header.GetAttribute("", "parameters_id"), hash.Fingerprint(params.Frequency, params.Incidence); id != want {
		t.Errorf("parameters_id = %v; want %s", id, want)
	}
	for name, want := range map[string]float32{
		"geospatial_lat_min": -10, "geospatial_lat_max": 10,
		"geospatial_lon_min": 100, "geospatial_lon_max": 101,
	} {
		if v, ok := cf.Header.GetAttribute("", name).([]float32); !ok || len(v) != 1 || v[0] != want {
			t.Errorf("%s = %v; want %g", name, cf.Header.GetAttribute("", name), want)
		}
	}
}

func TestWriteResultShape(t *testing.T) {
	in := testInput()
	params := testParameters(t)
	f := createTemp(t, "output.nc")
	if err := WriteResult(f, in.Grid, params, NewResult(3, params.Len()), ""); err == nil {
		t.Error("expected an error for mismatched result shape")
	}
}

func TestWriteFillsVariables(t *testing.T) {
	g := Grid{Time: []float64{0}, Lat: []float64{0, 1}, Lon: []float64{0, 1}}
	h := cdf.NewHeader([]string{timeDim, latDim, lonDim}, []int{1, 2, 2})
	addCoordinates(h, g)
	h.AddVariable("field", []string{timeDim, latDim, lonDim}, []float32{0})
	h.Define()
	f := createTemp(t, "field.nc")
	cf, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	if err = writeCoordinates(cf, g); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4}
	if err = writeNCF(cf, "field", want); err != nil {
		t.Fatal(err)
	}
	if err = cdf.UpdateNumRecs(f); err != nil {
		t.Fatal(err)
	}

	cf, err = cdf.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	have, err := readVar(cf, "field", timeDim, latDim, lonDim)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range want {
		if have[i] != v {
			t.Errorf("field[%d] = %g; want %g", i, have[i], v)
		}
	}
	lon, err := readVar(cf, lonDim, lonDim)
	if err != nil {
		t.Fatal(err)
	}
	if lon[1] != 1 {
		t.Errorf("lon[1] = %g; want 1", lon[1])
	}
}

func TestWriteResultSmallGrid(t *testing.T) {
	params := testParameters(t)
	r, err := quietEngine(1).Compute(context.Background(), params, testBatch(4))
	if err != nil {
		t.Fatal(err)
	}
	g := Grid{Time: []float64{0}, Lat: []float64{0, 1}, Lon: []float64{0, 1}}
	f := createTemp(t, "small.nc")
	if err := WriteResult(f, g, params, r, "atmrtm run"); err != nil {
		t.Fatal(err)
	}
	if _, _, have, err := ReadResult(f); err != nil {
		t.Fatal(err)
	} else if different(have.Tran.Elements[3], r.Tran.Elements[3], 1.e-6) {
		t.Errorf("tran[3] = %g; want %g", have.Tran.Elements[3], r.Tran.Elements[3])
	}
}
