/*
Copyright © 2024 the SASI Gridder authors.
This file is part of SASI Gridder.

SASI Gridder is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SASI Gridder is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SASI Gridder.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package sasiutil wires the gridding pipeline up behind a cobra/viper CLI,
// grounded on inmaputil/cmd.go's Cfg type and options-table flag
// registration. This project has one subcommand rather than inmap's run/sr/
// cloud tree, so the option table and Cfg are pared down accordingly.
package sasiutil

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds the grid command's configuration, bound to both pflag flags and
// viper (so options may also come from a config file). Environment
// variables are not read.
type Cfg struct {
	*viper.Viper

	Root *cobra.Command
}

var options = []struct {
	name, usage, shorthand string
	defaultVal             interface{}
}{
	{name: "grid", usage: "path to the grid cells shapefile", defaultVal: ""},
	{name: "raw-efforts", usage: "path to the raw efforts CSV", defaultVal: ""},
	{name: "stat-areas", usage: "path to the stat areas shapefile", defaultVal: ""},
	{name: "output-path", usage: "path to write the gridded-efforts CSV", defaultVal: ""},
	{name: "effort-limit", usage: "stop after this many efforts (0 means unlimited)", defaultVal: 0},
	{name: "mappings-file", usage: "CSV of trip_type,gear_code overriding the default mapping table", defaultVal: ""},
	{name: "cell-size", usage: "spatial hash bucket side length, in input coordinate units", defaultVal: 0.1},
	{name: "phase3-global-total", usage: "use the sum across all cells, rather than the unassigned pool, as phase 3's denominator", defaultVal: false},
}

// InitializeConfig builds the root command and binds every option above to
// both a pflag flag and a viper key.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "sasigrid",
		Short: "Grid fishing effort records onto a regular cell grid.",
		Long: `sasigrid distributes fishing effort records onto the cells of a regular
grid, redistributing efforts known only by statistical area or not located
at all according to the existing distribution of well-located effort.

Configuration can come from command-line flags or a config file (--config).`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cfg)
		},
	}

	cfg.Root.PersistentFlags().String("config", "", "path to a configuration file")
	if err := cfg.BindPFlag("config", cfg.Root.PersistentFlags().Lookup("config")); err != nil {
		panic(err)
	}
	cfg.Root.Flags().AddFlagSet(flagSet())

	set := cfg.Root.Flags()
	for _, option := range options {
		if err := cfg.BindPFlag(option.name, set.Lookup(option.name)); err != nil {
			panic(err)
		}
	}
	cfg.SetEnvPrefix("SASIGRID")

	return cfg
}

func flagSet() *pflag.FlagSet {
	set := pflag.NewFlagSet("sasigrid", pflag.ContinueOnError)
	for _, option := range options {
		switch v := option.defaultVal.(type) {
		case string:
			set.String(option.name, v, option.usage)
		case int:
			set.Int(option.name, v, option.usage)
		case float64:
			set.Float64(option.name, v, option.usage)
		case bool:
			set.Bool(option.name, v, option.usage)
		default:
			panic(fmt.Errorf("sasiutil: invalid option type: %T", option.defaultVal))
		}
	}
	return set
}

// setConfig reads in a configuration file, if one was supplied via --config.
func setConfig(cfg *Cfg) error {
	cfgPath := cfg.GetString("config")
	if cfgPath == "" {
		return nil
	}
	cfg.SetConfigFile(cfgPath)
	if err := cfg.ReadInConfig(); err != nil {
		return &ConfigError{Reason: fmt.Sprintf("reading configuration file: %v", err)}
	}
	return nil
}
