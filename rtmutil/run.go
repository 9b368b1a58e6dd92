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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmrtm"
	"github.com/spatialmodel/atmrtm/internal/metrics"
	"github.com/spf13/cobra"
)

// session holds the logging, metrics, and upload state of one
// command invocation.
type session struct {
	log     *logrus.Logger
	logfile *os.File
	upload  uploader
	metrics *http.Server
	start   time.Time
}

// newSession creates the log file and starts logging to it and to
// the output of cobraCommand. If metricsAddress is not empty,
// Prometheus metrics are served there until the session is closed.
func newSession(cobraCommand *cobra.Command, logFile, metricsAddress string) (*session, error) {
	s := &session{start: time.Now()}
	var err error
	s.logfile, err = os.Create(s.upload.maybeUpload(logFile))
	if err != nil {
		return nil, fmt.Errorf("rtmutil: problem creating log file: %v", err)
	}
	s.log = logrus.New()
	s.log.Out = io.MultiWriter(cobraCommand.OutOrStdout(), s.logfile)
	s.log.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}

	if metricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metrics = &http.Server{Addr: metricsAddress, Handler: mux}
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.WithError(err).Error("serving metrics")
			}
		}()
		s.log.Infof("Serving metrics at %s/metrics", metricsAddress)
	}
	return s, nil
}

// close stops serving metrics, closes the log file, and uploads
// any output files that belong in blob storage.
func (s *session) close(ctx context.Context) error {
	if s.metrics != nil {
		s.metrics.Shutdown(ctx)
	}
	if err := s.logfile.Close(); err != nil {
		return err
	}
	return s.upload.uploadOutput(ctx)
}

// create creates an output file, which will be uploaded when the
// session is closed if path is a blob storage location.
func (s *session) create(path string) (*os.File, error) {
	local := s.upload.maybeUpload(path)
	if s.upload.err != nil {
		return nil, s.upload.err
	}
	f, err := os.Create(local)
	if err != nil {
		return nil, fmt.Errorf("rtmutil: creating output file: %v", err)
	}
	return f, nil
}

func readInput(inputFile string) (*atmrtm.Input, error) {
	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("rtmutil: problem opening input data: %v", err)
	}
	defer f.Close()
	return atmrtm.ReadInput(f)
}

// history returns the command line for recording in output files.
func history() string { return strings.Join(os.Args, " ") }

// Run runs the model on the profiles in inputFile for the frequency
// and incidence angle pairs in params using engine e, and writes
// the results to outputFile. Log messages are written to logFile and
// to the output of cobraCommand. If ctx is cancelled before the model
// finishes, no output is written.
func Run(ctx context.Context, cobraCommand *cobra.Command, logFile, inputFile, outputFile string,
	params *atmrtm.Parameters, e *atmrtm.Engine, metricsAddress string) error {

	s, err := newSession(cobraCommand, logFile, metricsAddress)
	if err != nil {
		return err
	}
	r, in, err := s.compute(ctx, inputFile, params, e)
	if err != nil {
		s.close(ctx)
		return err
	}

	f, err := s.create(outputFile)
	if err != nil {
		s.close(ctx)
		return err
	}
	s.log.Infof("Writing output to %s...", outputFile)
	if err = atmrtm.WriteResult(f, in.Grid, params, r, history()); err != nil {
		f.Close()
		s.close(ctx)
		return err
	}
	if err = f.Close(); err != nil {
		s.close(ctx)
		return err
	}
	s.log.Infof("Run completed in %v", time.Since(s.start))
	return s.close(ctx)
}

// compute reads inputFile and runs the model on it.
func (s *session) compute(ctx context.Context, inputFile string, params *atmrtm.Parameters, e *atmrtm.Engine) (*atmrtm.Result, *atmrtm.Input, error) {
	s.log.Infof("Reading input data from %s...", inputFile)
	in, err := readInput(inputFile)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range in.CheckRanges() {
		if c.Status == atmrtm.OutOfRange {
			s.log.Warn(c.String())
		}
	}
	s.log.Infof("Running RTM for %d profiles and %d frequencies...", in.Batch.NumPoints(), params.Len())
	e.Log = s.log
	r, err := e.Compute(ctx, params, &in.Batch)
	if err != nil {
		return nil, nil, err
	}
	return r, in, nil
}

// Check reads inputFile and writes a report of whether each input
// variable is within its valid range to w.
func Check(w io.Writer, inputFile string) error {
	in, err := readInput(inputFile)
	if err != nil {
		return err
	}
	for _, c := range in.CheckRanges() {
		if _, err := fmt.Fprintln(w, c); err != nil {
			return err
		}
	}
	return nil
}

// MSU simulates top-of-atmosphere brightness temperatures for channel c
// from the profiles, skin temperatures, and land fractions in inputFile,
// with ocean emissivity from the given model, and writes the layer
// temperature products of the channel to outputFile.
func MSU(ctx context.Context, cobraCommand *cobra.Command, logFile, inputFile, outputFile string,
	c atmrtm.Channel, ocean atmrtm.EmissivityModel, e *atmrtm.Engine, metricsAddress string) error {

	params, err := c.Parameters()
	if err != nil {
		return err
	}
	// Fail before running the model if the channel has no products.
	if _, err = c.Products(sparse.ZerosDense(0, len(c.Incidence))); err != nil {
		return err
	}

	s, err := newSession(cobraCommand, logFile, metricsAddress)
	if err != nil {
		return err
	}
	products, in, err := s.msu(ctx, inputFile, c, params, ocean, e)
	if err != nil {
		s.close(ctx)
		return err
	}
	f, err := s.create(outputFile)
	if err != nil {
		s.close(ctx)
		return err
	}
	s.log.Infof("Writing %s products to %s...", c.Name, outputFile)
	if err = atmrtm.WriteProducts(f, in.Grid, c, products, history()); err != nil {
		f.Close()
		s.close(ctx)
		return err
	}
	if err = f.Close(); err != nil {
		s.close(ctx)
		return err
	}
	s.log.Infof("Run completed in %v", time.Since(s.start))
	return s.close(ctx)
}

func (s *session) msu(ctx context.Context, inputFile string, c atmrtm.Channel, params *atmrtm.Parameters,
	ocean atmrtm.EmissivityModel, e *atmrtm.Engine) (map[string][]float64, *atmrtm.Input, error) {
	r, in, err := s.compute(ctx, inputFile, params, e)
	if err != nil {
		return nil, nil, err
	}
	if in.SkinTemperature == nil || in.LandFraction == nil {
		return nil, nil, fmt.Errorf("rtmutil: input file %s needs skin temperature and land fraction for %s", inputFile, c.Name)
	}
	tb, err := c.BrightnessTemperature(r, in.SkinTemperature, in.LandFraction, ocean)
	if err != nil {
		return nil, nil, err
	}
	products, err := c.Products(tb)
	if err != nil {
		return nil, nil, err
	}
	return products, in, nil
}

// Plot reads model output from resultFile and saves a map of
// variable at time index t and frequency and incidence pair index
// pair to plotFile in PNG format.
func Plot(resultFile, plotFile, variable string, t, pair int) error {
	rf, err := os.Open(resultFile)
	if err != nil {
		return fmt.Errorf("rtmutil: problem opening model output: %v", err)
	}
	defer rf.Close()
	g, params, r, err := atmrtm.ReadResult(rf)
	if err != nil {
		return err
	}
	data, err := r.Field(variable, pair)
	if err != nil {
		return err
	}

	var u uploader
	w, err := os.Create(u.maybeUpload(plotFile))
	if err != nil {
		return fmt.Errorf("rtmutil: creating plot file: %v", err)
	}
	units := "K"
	if variable == "tran" {
		units = "1"
	}
	title := fmt.Sprintf("%s at %g GHz, %g°", variable, params.Frequency[pair], params.Incidence[pair])
	if err = atmrtm.Map(w, g, t, data, title, units); err != nil {
		w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return u.uploadOutput(context.Background())
}
