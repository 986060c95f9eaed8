/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


// Package cautil holds the command-line interface and configuration of
// the change-along service.
package cautil

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/prosuite/changealong"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

func init() {
	runSets := []*pflag.FlagSet{reshapeCmd.Flags(), cutCmd.Flags()}

	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is one of panic, fatal, error, warn, info, debug
              and trace.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogJSON",
			usage: `
              LogJSON specifies whether log entries are written as JSON.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "addr",
			usage: `
              addr is the address the gRPC server listens on.`,
			defaultVal: ":7050",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "http",
			usage: `
              http is the address of the HTTP/JSON gateway. The gateway is
              not started if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
		{
			name: "cache_size",
			usage: `
              cache_size is the number of prepared target sets kept by the
              local service.`,
			defaultVal: changealong.DefaultCacheSize,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags(), reshapeCmd.Flags(), cutCmd.Flags()},
		},
		{
			name: "coplanarity_tolerance",
			usage: `
              coplanarity_tolerance is the largest distance of a source
              vertex from its fitted plane before a warning is logged.
              Zero disables the check.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{serveCmd.Flags(), reshapeCmd.Flags(), cutCmd.Flags()},
		},
		{
			name: "sources",
			usage: `
              sources is the GeoJSON file holding the features to change.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "targets",
			usage: `
              targets is the GeoJSON file holding the features to follow.`,
			shorthand:  "t",
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "output",
			usage: `
              output is the GeoJSON file the results are written to. Results
              are written to standard output if it is empty.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the XY tolerance. If empty, the tolerance of the
              source classes is used. Zero or less selects the minimum
              tolerance.`,
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "buffer_distance",
			usage: `
              buffer_distance buffers the target boundaries by this distance.`,
			defaultVal: 0.0,
			flagsets:   runSets,
		},
		{
			name: "min_segment_length",
			usage: `
              min_segment_length drops buffer vertices closer than this
              distance to their predecessor.`,
			defaultVal: 0.0,
			flagsets:   runSets,
		},
		{
			name: "exclude_outside_tolerance",
			usage: `
              exclude_outside_tolerance excludes subcurves farther than this
              distance from the source. Zero disables the filter.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{reshapeCmd.Flags()},
		},
		{
			name: "exclude_outside_source",
			usage: `
              exclude_outside_source excludes subcurves outside polygon
              sources.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{reshapeCmd.Flags()},
		},
		{
			name: "exclude_overlaps",
			usage: `
              exclude_overlaps excludes subcurves that would make a source
              overlap another target polygon.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{reshapeCmd.Flags()},
		},
		{
			name: "clip_extent",
			usage: `
              clip_extent is the visible extent "xmin,ymin,xmax,ymax"
              subcurves are clipped to.`,
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "z_source",
			usage: `
              z_source is where cut lines take their elevation from: Target,
              InterpolatedSource or SourcePlane.`,
			defaultVal: changealong.ZTarget.String(),
			flagsets:   []*pflag.FlagSet{cutCmd.Flags()},
		},
		{
			name: "insert_vertices_in_target",
			usage: `
              insert_vertices_in_target inserts the end points of applied
              subcurves into the targets.`,
			defaultVal: false,
			flagsets:   runSets,
		},
		{
			name: "non_default_side",
			usage: `
              non_default_side keeps the smaller side of a reshaped polygon.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{reshapeCmd.Flags()},
		},
		{
			name: "preselect_candidates",
			usage: `
              preselect_candidates applies the yellow subcurves together
              with the green ones.`,
			defaultVal: false,
			flagsets:   runSets,
		},
		{
			name: "remote",
			usage: `
              remote is the address of a change-along server. The local
              service is used if it is empty.`,
			defaultVal: "",
			flagsets:   runSets,
		},
		{
			name: "timeout_per_feature",
			usage: `
              timeout_per_feature bounds remote calls to this duration times
              the number of features sent.`,
			defaultVal: "5s",
			flagsets:   runSets,
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CHANGEALONG")
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
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
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
	Root.AddCommand(serveCmd)
	Root.AddCommand(reshapeCmd)
	Root.AddCommand(cutCmd)
	Root.AddCommand(configCmd)
	configCmd.AddCommand(dumpCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("changealong: problem reading configuration file: %v", err)
		}
	}
	return configureLogging(Cfg)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "changealong",
	Short: "Reshape and cut features along other features.",
	Long: `changealong calculates the subcurves along which source features can be
reshaped or cut so that they follow target features, and applies them.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CHANGEALONG_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of changealong.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("changealong v%s\n", changealong.Version)
	},
	DisableAutoGenTag: true,
}

// signalContext returns a context that is cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the change-along service over gRPC.",
	Long: `serve starts a gRPC server for the change-along service and, if --http
is given, an HTTP/JSON gateway accepting GeoJSON input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		svc := changealong.NewLocalService(Cfg.GetInt("cache_size"))
		svc.CoplanarityTolerance = Cfg.GetFloat64("coplanarity_tolerance")
		return Serve(ctx, svc, Cfg.GetString("addr"), Cfg.GetString("http"))
	},
	DisableAutoGenTag: true,
}

var reshapeCmd = &cobra.Command{
	Use:   "reshape",
	Short: "Reshape sources along targets.",
	Long: `reshape calculates the reshape subcurves of the sources, applies the
green ones and writes the changed features as GeoJSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, Reshape)
	},
	DisableAutoGenTag: true,
}

var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Cut sources along targets.",
	Long: `cut calculates the cut subcurves of the sources, applies the green ones
and writes the resulting features as GeoJSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, Cut)
	},
	DisableAutoGenTag: true,
}

func runCommand(cmd *cobra.Command, op Operation) error {
	sourceFile, targetFile := Cfg.GetString("sources"), Cfg.GetString("targets")
	if sourceFile == "" || targetFile == "" {
		return fmt.Errorf("changealong: both --sources and --targets are required")
	}
	o, err := RunOptions(Cfg)
	if err != nil {
		return err
	}
	sources, targets, err := ReadFeatures(sourceFile, targetFile)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	svc, closeSvc, err := NewService(ctx, Cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	r, err := Run(ctx, svc, op, sources, targets, o)
	if err != nil {
		return err
	}
	if len(r.Results) == 0 {
		cmd.PrintErrf("no %s applied: %v\n", op, r.Calculated.Usability())
	}
	fc, err := EncodeResults(r.Results)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if path := Cfg.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("changealong: %v", err)
		}
		defer f.Close()
		out = f
	}
	return WriteJSON(out, fc)
}

var configCmd = &cobra.Command{
	Use:               "config",
	Short:             "Inspect the configuration.",
	DisableAutoGenTag: true,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration as TOML.",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := make(map[string]interface{})
		for _, o := range options {
			if o.name == "config" {
				continue
			}
			settings[o.name] = Cfg.Get(o.name)
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(settings)
	},
	DisableAutoGenTag: true,
}
