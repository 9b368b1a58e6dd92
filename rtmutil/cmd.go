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
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmrtm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to AtmRTM.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the netCDF file holding the
              atmospheric profiles. It can be a local path, an http(s)
              URL, or a blob storage location (gs://, s3://, or file://).`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the netCDF output should be written.
              It can be a local path or a blob storage location. The plot command
              reads model results from this file.`,
			shorthand:  "o",
			defaultVal: "atmrtm_output.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. If it
              is not specified, the log is written next to OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "Frequencies",
			usage: `
              Frequencies is the list of frequencies [GHz] to calculate
              transmissivity and brightness temperatures at. It is paired
              element by element with Incidences.`,
			defaultVal: []string{"6.8", "10.7", "18.7", "23.8", "36.5"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Incidences",
			usage: `
              Incidences is the list of Earth incidence angles [degrees]
              paired with Frequencies.`,
			defaultVal: []string{"55", "55", "55", "55", "55"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Batch.Workers",
			usage: `
              Batch.Workers is the number of profiles to process concurrently.
              Zero means one per available CPU.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "Batch.ProgressInterval",
			usage: `
              Batch.ProgressInterval is how often batch progress is logged.`,
			defaultVal: atmrtm.DefaultProgressInterval,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "Batch.FirstFrequencyOnly",
			usage: `
              Batch.FirstFrequencyOnly specifies whether the absorption profile
              of the first frequency should be used for every frequency, which
              reproduces the results of earlier versions of the model.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "MetricsAddress",
			usage: `
              MetricsAddress is the address (for example ":9090") to serve
              Prometheus metrics on while the model runs. Metrics are not
              served if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), msuCmd.Flags()},
		},
		{
			name: "MSU.Channel",
			usage: `
              MSU.Channel is the name of the sounder channel to simulate.`,
			shorthand:  "c",
			defaultVal: "MSU2",
			flagsets:   []*pflag.FlagSet{msuCmd.Flags()},
		},
		{
			name: "MSU.ChannelFile",
			usage: `
              MSU.ChannelFile is an optional TOML file of additional channel
              definitions. Channels in the file replace built-in channels with
              the same name.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{msuCmd.Flags()},
		},
		{
			name: "MSU.OceanEmissivityH",
			usage: `
              MSU.OceanEmissivityH is the horizontally polarized emissivity
              of the ocean surface.`,
			defaultVal: 0.35,
			flagsets:   []*pflag.FlagSet{msuCmd.Flags()},
		},
		{
			name: "MSU.OceanEmissivityV",
			usage: `
              MSU.OceanEmissivityV is the vertically polarized emissivity
              of the ocean surface.`,
			defaultVal: 0.6,
			flagsets:   []*pflag.FlagSet{msuCmd.Flags()},
		},
		{
			name: "Plot.Variable",
			usage: `
              Plot.Variable is the output variable to map: tran, tb_up, or tb_down.`,
			defaultVal: "tb_up",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Pair",
			usage: `
              Plot.Pair is the index of the frequency and incidence pair to map.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Time",
			usage: `
              Plot.Time is the index of the time to map.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.File",
			usage: `
              Plot.File is the path where the PNG map should be written.
              It can be a local path or a blob storage location.`,
			defaultVal: "atmrtm_map.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ATMRTM")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case time.Duration:
				set.DurationP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(checkCmd)
	Root.AddCommand(msuCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("atmrtm: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "atmrtm",
	Short: "An atmospheric microwave radiative transfer model.",
	Long: `AtmRTM calculates atmospheric transmissivity and upwelling and downwelling
microwave brightness temperatures from vertical profiles of temperature,
humidity, and cloud liquid water.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ATMRTM_var' where 'var' is the
name of the variable to be set, with periods replaced by underscores.
File paths are allowed to contain environment variables.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of AtmRTM.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("AtmRTM v%s\n", atmrtm.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs the model on a file of profiles.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run calculates transmissivity and brightness temperatures for every
profile in InputFile at each of the frequency and incidence angle pairs
given by Frequencies and Incidences, and writes them to OutputFile.
Every surface pressure must lie between the smallest and largest pressure
levels; otherwise the run fails. The check command reports such profiles.
The run can be interrupted with Ctrl-C, in which case no output is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parameters(Cfg)
		if err != nil {
			return err
		}
		e, err := engineConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		ctx, cancel := interruptContext()
		defer cancel()
		inputFile, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("InputFile")), logrus.StandardLogger())
		if err != nil {
			return err
		}
		return Run(ctx, cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			inputFile, outputFile, params, e,
			Cfg.GetString("MetricsAddress"))
	},
	DisableAutoGenTag: true,
}

// checkCmd is a command that checks input ranges.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check input data ranges.",
	Long: `check reports, for each input variable in InputFile, whether its values
are within the range the model is valid for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, err := maybeDownload(context.Background(), os.ExpandEnv(Cfg.GetString("InputFile")), logrus.StandardLogger())
		if err != nil {
			return err
		}
		return Check(cmd.OutOrStdout(), inputFile)
	},
	DisableAutoGenTag: true,
}

// msuCmd is a command that simulates sounder brightness temperatures.
var msuCmd = &cobra.Command{
	Use:   "msu",
	Short: "Simulate Microwave Sounding Unit brightness temperatures.",
	Long: `msu runs the model for each scan position of the channel given by
MSU.Channel and combines the results with the skin temperature and land
fraction in InputFile to calculate top-of-atmosphere brightness temperatures
and the layer temperature products of the channel, which are written to OutputFile.

	Output variables:
	tbs_TMT: Middle troposphere (MSU2)
	tbs_TLT: Lower troposphere (MSU2)
	tbs_TTS: Troposphere and stratosphere (MSU3)
	tbs_TLS: Lower stratosphere (MSU4)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, err := readChannels(os.ExpandEnv(Cfg.GetString("MSU.ChannelFile")))
		if err != nil {
			return err
		}
		name := Cfg.GetString("MSU.Channel")
		c, ok := channels[name]
		if !ok {
			return fmt.Errorf("rtmutil: unknown channel %q", name)
		}
		e, err := engineConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		ctx, cancel := interruptContext()
		defer cancel()
		inputFile, err := maybeDownload(ctx, os.ExpandEnv(Cfg.GetString("InputFile")), logrus.StandardLogger())
		if err != nil {
			return err
		}
		ocean := atmrtm.ConstantEmissivity{
			H: Cfg.GetFloat64("MSU.OceanEmissivityH"),
			V: Cfg.GetFloat64("MSU.OceanEmissivityV"),
		}
		return MSU(ctx, cmd,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			inputFile, outputFile, c, ocean, e,
			Cfg.GetString("MetricsAddress"))
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that maps model output.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Map model output.",
	Long: `plot draws a map of one variable of the model output in OutputFile
at one time and one frequency and incidence pair, and saves it as a PNG image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := maybeDownload(context.Background(), os.ExpandEnv(Cfg.GetString("OutputFile")), logrus.StandardLogger())
		if err != nil {
			return err
		}
		return Plot(outputFile, os.ExpandEnv(Cfg.GetString("Plot.File")),
			Cfg.GetString("Plot.Variable"), Cfg.GetInt("Plot.Time"), Cfg.GetInt("Plot.Pair"))
	},
	DisableAutoGenTag: true,
}
