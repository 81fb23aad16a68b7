package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/pdbsym/pkg/pdb"
	"github.com/grafana/pdbsym/pkg/pdb/lookup"
	"github.com/grafana/pdbsym/pkg/util"
)

var flags struct {
	verbose      bool
	configFile   string
	printMetrics bool
	overrides    overrides
}

var (
	consoleOutput = os.Stderr
	logger        = log.NewLogfmtLogger(consoleOutput)
)

func main() {
	ctx := withOutput(context.Background(), os.Stdout)

	app := kingpin.New(filepath.Base(os.Args[0]), "Extracts function symbols from program databases.").UsageWriter(os.Stdout)
	app.Version(version.Print("pdbsym"))
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("0").BoolVar(&flags.verbose)
	app.Flag("config.file", "YAML configuration file.").StringVar(&flags.configFile)
	flags.overrides = registerConfigFlags(app)
	app.Flag("print-metrics", "Print the collected metrics to stderr before exiting.").BoolVar(&flags.printMetrics)

	symbolsCmd := app.Command("symbols", "Print the function symbol table of program databases.")
	symbolsParams := addSymbolsParams(symbolsCmd)

	lookupCmd := app.Command("lookup", "Look up the address of symbols by name.")
	lookupParams := addLookupParams(lookupCmd)

	resolveCmd := app.Command("resolve", "Resolve addresses to function symbols.")
	resolveParams := addResolveParams(resolveCmd)

	// parse command line arguments
	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, flags.configFile, flags.overrides)
	if err != nil {
		os.Exit(checkError(fmt.Errorf("load config: %w", err)))
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	if logger, err = util.NewLogger(consoleOutput, cfg.Log.Format, cfg.Log.Level); err != nil {
		os.Exit(checkError(err))
	}

	reg := prometheus.NewRegistry()
	env := &environment{logger: logger, reg: reg, fs: fs, cfg: cfg}

	switch parsedCmd {
	case symbolsCmd.FullCommand():
		err = symbols(ctx, env, symbolsParams)
	case lookupCmd.FullCommand():
		err = lookupSymbols(ctx, env, lookupParams)
	case resolveCmd.FullCommand():
		err = resolve(ctx, env, resolveParams)
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
	}

	if flags.printMetrics {
		if merr := printMetrics(consoleOutput, reg); merr != nil {
			level.Warn(logger).Log("msg", "failed to print metrics", "err", merr)
		}
	}
	os.Exit(checkError(err))
}

func checkError(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pdb.ErrEmptyResult), errors.Is(err, lookup.ErrNotFound):
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return 1
}

type contextKey uint8

const (
	contextKeyOutput contextKey = iota
)

func withOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, contextKeyOutput, w)
}

func output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(contextKeyOutput).(io.Writer); ok {
		return w
	}
	return os.Stdout
}
