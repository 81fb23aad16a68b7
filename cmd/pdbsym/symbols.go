package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	outputConsole = "console"
	outputJSON    = "json"
)

type symbolsParams struct {
	paths  []string
	output string
}

func addSymbolsParams(cmd *kingpin.CmdClause) *symbolsParams {
	p := &symbolsParams{}
	cmd.Arg("path", "Program database dump paths.").Required().StringsVar(&p.paths)
	cmd.Flag("output", "How to output the result: console or json.").Default(outputConsole).EnumVar(&p.output, outputConsole, outputJSON)
	return p
}

// symbols prints the table of every path. A failing path does not stop the
// others.
func symbols(ctx context.Context, env *environment, params *symbolsParams) error {
	parser, err := env.parser()
	if err != nil {
		return err
	}

	var errs *multierror.Error
	for _, path := range params.paths {
		if err = parser.Parse(path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		switch params.output {
		case outputJSON:
			err = writeSymbolsJSON(output(ctx), path, parser.Symbols())
		default:
			writeSymbolsTable(output(ctx), path, parser.Symbols())
		}
		if err != nil {
			return err
		}
	}
	return errs.ErrorOrNil()
}
