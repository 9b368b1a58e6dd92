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
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmrtm/internal/metrics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultProgressInterval is how often batch progress is logged
// when Engine.ProgressInterval is not set.
const DefaultProgressInterval = 5 * time.Second

// Batch holds the inputs for many profiles that share the same
// pressure levels.
type Batch struct {
	// Levels holds the pressure [hPa] of each level in descending order.
	Levels []float64

	// Temperature [K], Height [geopotential m], SpecificHumidity [kg/kg],
	// and LiquidContent [kg/kg] have shape (points, levels).
	Temperature, Height, SpecificHumidity, LiquidContent *sparse.DenseArray

	// Surface values [K], [m], [K], and [hPa], one for each point.
	SurfaceTemperature, SurfaceHeight, SurfaceDewpoint, SurfacePressure []float64
}

// NumPoints returns the number of profiles in the batch.
func (b *Batch) NumPoints() int { return len(b.SurfacePressure) }

// check returns an error if the batch arrays do not have
// consistent shapes.
func (b *Batch) check() error {
	np, nl := b.NumPoints(), len(b.Levels)
	for _, v := range []struct {
		name string
		data *sparse.DenseArray
	}{
		{"temperature", b.Temperature},
		{"height", b.Height},
		{"specific_humidity", b.SpecificHumidity},
		{"liquid_content", b.LiquidContent},
	} {
		if v.data == nil {
			return fmt.Errorf("atmrtm: missing %s: %w", v.name, ErrInconsistentInputs)
		}
		if len(v.data.Shape) != 2 || v.data.Shape[0] != np || v.data.Shape[1] != nl {
			return fmt.Errorf("atmrtm: %s has shape %v; want [%d %d]: %w",
				v.name, v.data.Shape, np, nl, ErrInconsistentInputs)
		}
	}
	for _, v := range []struct {
		name string
		data []float64
	}{
		{"surface_temperature", b.SurfaceTemperature},
		{"surface_height", b.SurfaceHeight},
		{"surface_dewpoint", b.SurfaceDewpoint},
	} {
		if len(v.data) != np {
			return fmt.Errorf("atmrtm: %s has length %d; want %d: %w",
				v.name, len(v.data), np, ErrInconsistentInputs)
		}
	}
	return nil
}

// row returns row i of the two-dimensional array a as a slice
// that shares memory with a.
func row(a *sparse.DenseArray, i int) ([]float64, error) {
	n := a.Shape[1]
	if len(a.Elements) != a.Shape[0]*n {
		return nil, fmt.Errorf("atmrtm: array with shape %v has %d elements: %w",
			a.Shape, len(a.Elements), ErrNotContiguous)
	}
	return a.Elements[i*n : (i+1)*n], nil
}

// Profile prepares the profile at index i of the batch.
func (b *Batch) Profile(i int) (*Profile, error) {
	var rows [4][]float64
	for j, a := range []*sparse.DenseArray{b.Temperature, b.Height, b.SpecificHumidity, b.LiquidContent} {
		r, err := row(a, i)
		if err != nil {
			return nil, err
		}
		rows[j] = r
	}
	sfc := Surface{
		Temperature: b.SurfaceTemperature[i],
		Height:      b.SurfaceHeight[i],
		Dewpoint:    b.SurfaceDewpoint[i],
		Pressure:    b.SurfacePressure[i],
	}
	return NewProfile(b.Levels, sfc, rows[0], rows[1], rows[2], rows[3])
}

// Result holds batch outputs. Each array has shape (points, pairs).
type Result struct {
	Tran, TbUp, TbDown *sparse.DenseArray
}

// NewResult allocates a result for the given number of points and
// frequency and incidence angle pairs.
func NewResult(points, pairs int) *Result {
	return &Result{
		Tran:   sparse.ZerosDense(points, pairs),
		TbUp:   sparse.ZerosDense(points, pairs),
		TbDown: sparse.ZerosDense(points, pairs),
	}
}

func (r *Result) check(points, pairs int) error {
	for _, a := range []*sparse.DenseArray{r.Tran, r.TbUp, r.TbDown} {
		if a == nil || len(a.Shape) != 2 || a.Shape[0] != points || a.Shape[1] != pairs ||
			len(a.Elements) != points*pairs {
			return fmt.Errorf("atmrtm: output array does not have shape [%d %d]: %w",
				points, pairs, ErrInconsistentInputs)
		}
	}
	return nil
}

// Engine runs the model for batches of profiles in parallel.
type Engine struct {
	// Workers is the number of concurrent workers. If zero,
	// runtime.GOMAXPROCS(0) workers are used.
	Workers int

	// ProgressInterval is how often progress is logged. If zero,
	// DefaultProgressInterval is used.
	ProgressInterval time.Duration

	// FirstFrequencyOnly specifies that the absorption profile at the
	// first frequency is used for every incidence angle, matching
	// older versions of the model.
	FirstFrequencyOnly bool

	// Log receives progress messages. If nil, the logrus
	// standard logger is used.
	Log logrus.FieldLogger
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Compute runs the model for every profile in b at every
// frequency and incidence angle pair in params.
func (e *Engine) Compute(ctx context.Context, params *Parameters, b *Batch) (*Result, error) {
	r := NewResult(b.NumPoints(), params.Len())
	if err := e.ComputeInto(ctx, params, b, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ComputeInto is like Compute, but writes the results to out, which
// must already have the correct shape. out is only modified if every
// profile is processed successfully. Cancelling ctx stops the
// batch; the returned error then matches ErrCancelled.
func (e *Engine) ComputeInto(ctx context.Context, params *Parameters, b *Batch, out *Result) error {
	if params == nil || params.Len() == 0 || params.Len() != len(params.Incidence) {
		return fmt.Errorf("atmrtm: invalid parameters: %w", ErrInconsistentInputs)
	}
	if err := b.check(); err != nil {
		return err
	}
	np, nf := b.NumPoints(), params.Len()
	if err := out.check(np, nf); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("atmrtm: batch not started: %w: %w", ErrCancelled, err)
	}

	log := e.log().WithFields(logrus.Fields{"points": np, "pairs": nf})
	run := (*Profile).Run
	if e.FirstFrequencyOnly {
		log.Warn("atmrtm: using the first frequency's absorption profile for all incidence angles")
		run = (*Profile).RunFirstFrequency
	}
	start := time.Now()

	nprocs := e.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nprocs > np {
		nprocs = np
	}

	var cancelled atomic.Bool
	var completed atomic.Int64
	results := make([]*Outputs, np)
	errs := make([]error, np)

	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < np; ii += nprocs {
				if cancelled.Load() {
					errs[ii] = ErrCancelled
					metrics.PointDone(metrics.Cancelled)
					continue
				}
				p, err := b.Profile(ii)
				if err != nil {
					errs[ii] = &PointError{Point: ii, Err: err}
					cancelled.Store(true)
					metrics.PointDone(metrics.Failed)
					continue
				}
				results[ii] = run(p, params)
				completed.Add(1)
				metrics.PointDone(metrics.OK)
			}
		}(pp)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	interval := e.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logProgress := func() {
		n := completed.Load()
		metrics.Remaining(np - int(n))
		log.Infof("Completed RTM for %d/%d profiles (%.0f%%)", n, np, 100*float64(n)/float64(max(np, 1)))
	}

wait:
	for {
		select {
		case <-done:
			break wait
		case <-ctx.Done():
			cancelled.Store(true)
			<-done
			metrics.Remaining(np - int(completed.Load()))
			metrics.BatchDone(metrics.Cancelled, start)
			return fmt.Errorf("atmrtm: batch interrupted: %w: %w", ErrCancelled, ctx.Err())
		case <-ticker.C:
			logProgress()
		}
	}
	logProgress()

	if err := firstError(errs); err != nil {
		metrics.BatchDone(metrics.Failed, start)
		return err
	}

	for i, o := range results {
		copy(out.Tran.Elements[i*nf:(i+1)*nf], o.Tran)
		copy(out.TbUp.Elements[i*nf:(i+1)*nf], o.TbUp)
		copy(out.TbDown.Elements[i*nf:(i+1)*nf], o.TbDown)
	}
	metrics.BatchDone(metrics.OK, start)
	if np > 0 {
		log.WithFields(logrus.Fields{
			"elapsed":   time.Since(start),
			"tran_min":  floats.Min(out.Tran.Elements),
			"tran_mean": stat.Mean(out.Tran.Elements, nil),
			"tb_up_max": floats.Max(out.TbUp.Elements),
		}).Info("atmrtm: batch complete")
	}
	return nil
}

// firstError returns the first error in point order that is not a
// cancellation caused by another failure. If every error is a
// cancellation, ErrCancelled is returned.
func firstError(errs []error) error {
	var cancelled bool
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, ErrCancelled):
			cancelled = true
		default:
			return err
		}
	}
	if cancelled {
		return fmt.Errorf("atmrtm: %w", ErrCancelled)
	}
	return nil
}
