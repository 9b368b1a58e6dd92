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
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmrtm"
	"github.com/spf13/cast"
)

// parameters unmarshals the frequency and incidence angle pairs
// from a viper configuration.
func parameters(cfg *viper.Viper) (*atmrtm.Parameters, error) {
	freq, err := toFloat64SliceE(cfg.Get("Frequencies"))
	if err != nil {
		return nil, fmt.Errorf("rtmutil: parsing Frequencies: %v", err)
	}
	inc, err := toFloat64SliceE(cfg.Get("Incidences"))
	if err != nil {
		return nil, fmt.Errorf("rtmutil: parsing Incidences: %v", err)
	}
	return atmrtm.NewParameters(freq, inc)
}

// engineConfig unmarshals a viper configuration for a batch engine.
func engineConfig(cfg *viper.Viper) (*atmrtm.Engine, error) {
	e := &atmrtm.Engine{
		Workers:            cfg.GetInt("Batch.Workers"),
		ProgressInterval:   cfg.GetDuration("Batch.ProgressInterval"),
		FirstFrequencyOnly: cfg.GetBool("Batch.FirstFrequencyOnly"),
	}
	if e.Workers < 0 {
		return nil, fmt.Errorf("rtmutil: Batch.Workers=%d but should be >=0", e.Workers)
	}
	if e.ProgressInterval <= 0 {
		return nil, fmt.Errorf("rtmutil: Batch.ProgressInterval=%v but should be >0", e.ProgressInterval)
	}
	return e, nil
}

// toFloat64SliceE converts a configuration value, which may be
// a list from a configuration file, a list of strings from the
// command line, or a comma- or space-separated string from an
// environment variable, to a slice of floats.
func toFloat64SliceE(v interface{}) ([]float64, error) {
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, err
	}
	var o []float64
	for _, e := range s {
		for _, f := range strings.FieldsFunc(e, func(r rune) bool { return r == ',' || r == ' ' }) {
			x, err := cast.ToFloat64E(f)
			if err != nil {
				return nil, err
			}
			o = append(o, x)
		}
	}
	return o, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`rtmutil: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if _, err = OpenBucket(context.TODO(), u.Scheme+"://"+u.Host); err != nil {
			return f, fmt.Errorf("rtmutil: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("rtmutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// channelFile is the format of a TOML channel definition file.
type channelFile struct {
	Channel []atmrtm.Channel `toml:"channel"`
}

// readChannels returns the built-in channels plus any channels
// defined in the TOML file at path, if path is not empty.
func readChannels(path string) (map[string]atmrtm.Channel, error) {
	o := make(map[string]atmrtm.Channel, len(atmrtm.MSUChannels))
	for name, c := range atmrtm.MSUChannels {
		o[name] = c
	}
	if path == "" {
		return o, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rtmutil: opening channel file: %v", err)
	}
	defer f.Close()
	var cf channelFile
	if _, err := toml.DecodeReader(f, &cf); err != nil {
		return nil, fmt.Errorf("rtmutil: reading channel file %s: %v", path, err)
	}
	for _, c := range cf.Channel {
		if c.Name == "" {
			return nil, fmt.Errorf("rtmutil: channel file %s has a channel with no name", path)
		}
		if _, err := c.Parameters(); err != nil {
			return nil, err
		}
		o[c.Name] = c
	}
	return o, nil
}

// interruptContext returns a context that is cancelled when the
// process receives an interrupt or termination signal.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case s := <-c:
			logrus.Warnf("received %v; cancelling", s)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancel
}
