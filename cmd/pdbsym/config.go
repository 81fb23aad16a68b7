package main

import (
	"flag"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/pdbsym/pkg/pdb"
	"github.com/grafana/pdbsym/pkg/pdb/snapshot"
	"github.com/grafana/pdbsym/pkg/util"
)

// Config is the YAML configuration file layout.
type Config struct {
	Log      LogConfig       `yaml:"log"`
	PDB      pdb.Config      `yaml:"pdb"`
	Snapshot snapshot.Config `yaml:"snapshot"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

func (cfg *LogConfig) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Format, "log.format", util.LogFormatLogfmt, "Output log messages in the given format. Valid formats: [logfmt, json]")
	f.StringVar(&cfg.Level, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.Log.RegisterFlags(f)
	cfg.PDB.RegisterFlags(f)
	cfg.Snapshot.RegisterFlags(f)
}

func (cfg *Config) Validate() error {
	if err := cfg.PDB.Validate(); err != nil {
		return err
	}
	return cfg.Snapshot.Validate()
}

// overrides holds the command line values of the configuration flags. They
// take precedence over the configuration file. Unset flags are empty or
// false.
type overrides struct {
	values map[string]*string
	bools  map[string]*bool
}

// registerConfigFlags exposes every flag of Config.RegisterFlags on app,
// with the same name and usage.
func registerConfigFlags(app *kingpin.Application) overrides {
	o := overrides{values: map[string]*string{}, bools: map[string]*bool{}}

	var cfg Config
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	fs.VisitAll(func(f *flag.Flag) {
		clause := app.Flag(f.Name, fmt.Sprintf("%s (default %s)", f.Usage, f.DefValue))
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			o.bools[f.Name] = clause.Bool()
			return
		}
		o.values[f.Name] = clause.PlaceHolder(f.DefValue).String()
	})
	return o
}

func (o overrides) apply(fs *flag.FlagSet) error {
	for name, v := range o.values {
		if *v == "" {
			continue
		}
		if err := fs.Set(name, *v); err != nil {
			return fmt.Errorf("invalid value %q for flag --%s: %w", *v, name, err)
		}
	}
	for name, v := range o.bools {
		if !*v {
			continue
		}
		if err := fs.Set(name, "true"); err != nil {
			return fmt.Errorf("invalid flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadConfig builds the configuration from the flag defaults, the optional
// file at path and the command line overrides, in that order.
func loadConfig(fs afero.Fs, path string, o overrides) (Config, error) {
	var cfg Config
	flags := flag.NewFlagSet("config", flag.ContinueOnError)
	cfg.RegisterFlags(flags)

	if path != "" {
		if err := util.ReadYAMLFile(fs, path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := o.apply(flags); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
