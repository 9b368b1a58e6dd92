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

package rtmutil

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/atmrtm"
)

// writeTestInput writes an input file with 2 times, 2 latitudes,
// and 3 longitudes to dir and returns its path.
func writeTestInput(t *testing.T, dir string) string {
	t.Helper()
	levels := []float64{1000, 850, 700, 500, 300}
	const n = 12
	in := &atmrtm.Input{
		Batch: atmrtm.Batch{
			Levels:             levels,
			Temperature:        sparse.ZerosDense(n, len(levels)),
			Height:             sparse.ZerosDense(n, len(levels)),
			SpecificHumidity:   sparse.ZerosDense(n, len(levels)),
			LiquidContent:      sparse.ZerosDense(n, len(levels)),
			SurfaceTemperature: make([]float64, n),
			SurfaceHeight:      make([]float64, n),
			SurfaceDewpoint:    make([]float64, n),
			SurfacePressure:    make([]float64, n),
		},
		Grid: atmrtm.Grid{
			Time: []float64{1051896, 1051902},
			Lat:  []float64{40, 41},
			Lon:  []float64{-100, -99, -98},
		},
		SkinTemperature: make([]float64, n),
		LandFraction:    make([]float64, n),
	}
	temperature := []float64{290, 282, 273, 255, 230}
	height := []float64{100, 1450, 3000, 5550, 9150}
	q := []float64{0.010, 0.007, 0.004, 0.001, 0.0002}
	ql := []float64{0, 1e-4, 5e-5, 0, 0}
	for i := 0; i < n; i++ {
		f := float64(i) / n
		for k := range levels {
			in.Temperature.Set(temperature[k]-4*f, i, k)
			in.Height.Set(height[k], i, k)
			in.SpecificHumidity.Set(q[k]*(1-f/2), i, k)
			in.LiquidContent.Set(ql[k], i, k)
		}
		in.SurfaceTemperature[i] = 292 - 4*f
		in.SurfaceHeight[i] = 50
		in.SurfaceDewpoint[i] = 285 - 4*f
		in.SurfacePressure[i] = 990
		in.SkinTemperature[i] = 293 - 4*f
		in.LandFraction[i] = float64(i%2) / 2
	}
	path := filepath.Join(dir, "input.nc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := atmrtm.WriteInput(f, in); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with the given arguments and
// returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	b := new(bytes.Buffer)
	Root.SetOutput(b)
	Root.SetArgs(args)
	err := Root.Execute()
	return b.String(), err
}

func readNCVar(t *testing.T, path, name string) []float32 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	n := 1
	for _, l := range nc.Header.Lengths(name) {
		n *= l
	}
	data := nc.Header.ZeroValue(name, n)
	if _, err := nc.Reader(name, nil, nil).Read(data); err != nil {
		t.Fatal(err)
	}
	return data.([]float32)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "AtmRTM v" + atmrtm.Version; !strings.Contains(out, want) {
		t.Errorf("have %q, want %q", out, want)
	}
}

func TestRunAndPlot(t *testing.T) {
	dir := t.TempDir()
	Cfg.Set("InputFile", writeTestInput(t, dir))
	Cfg.Set("OutputFile", filepath.Join(dir, "output.nc"))
	Cfg.Set("Frequencies", []string{"23.8", "36.5", "54.96"})
	Cfg.Set("Incidences", []string{"55", "55", "0"})
	Cfg.Set("Batch.Workers", 3)

	out, err := execute(t, "run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Run completed") {
		t.Errorf("output missing completion message:\n%s", out)
	}
	log, err := os.ReadFile(filepath.Join(dir, "output.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "Completed RTM for 12/12 profiles") {
		t.Errorf("log missing progress message:\n%s", log)
	}

	tran := readNCVar(t, filepath.Join(dir, "output.nc"), "tran")
	if len(tran) != 12*3 {
		t.Fatalf("have %d transmissivities, want %d", len(tran), 12*3)
	}
	for i, v := range tran {
		if !(v > 0 && v <= 1) {
			t.Errorf("tran[%d] = %g", i, v)
		}
	}

	plotFile := filepath.Join(dir, "map.png")
	if err := Plot(filepath.Join(dir, "output.nc"), plotFile, "tb_down", 1, 2); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(plotFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Error(err)
	}
	if err := Plot(filepath.Join(dir, "output.nc"), plotFile, "tb_down", 0, 3); err == nil {
		t.Error("pair out of range: no error")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	Cfg.Set("InputFile", writeTestInput(t, dir))
	out, err := execute(t, "check")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"temperature: In Range",
		"surface_pressure: In Range",
		"land_fraction: In Range",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMSU(t *testing.T) {
	dir := t.TempDir()
	Cfg.Set("InputFile", writeTestInput(t, dir))
	Cfg.Set("OutputFile", filepath.Join(dir, "msu2.nc"))
	Cfg.Set("MSU.Channel", "MSU2")
	if _, err := execute(t, "msu"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"tbs_TMT", "tbs_TLT"} {
		v := readNCVar(t, filepath.Join(dir, "msu2.nc"), name)
		if len(v) != 12 {
			t.Fatalf("%s: have %d values, want 12", name, len(v))
		}
		for i, e := range v {
			if e < 150 || e > 320 {
				t.Errorf("%s[%d] = %g", name, i, e)
			}
		}
	}

	Cfg.Set("MSU.Channel", "MSU1")
	if _, err := execute(t, "msu"); err == nil {
		t.Error("MSU1: no error")
	}
	Cfg.Set("MSU.Channel", "MSU9")
	if _, err := execute(t, "msu"); err == nil {
		t.Error("MSU9: no error")
	}
}
