package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/pdbsym/pkg/pdb/lookup"
)

type lookupParams struct {
	path  string
	names []string
}

func addLookupParams(cmd *kingpin.CmdClause) *lookupParams {
	p := &lookupParams{}
	cmd.Arg("path", "Program database dump path.").Required().StringVar(&p.path)
	cmd.Arg("name", "Symbol names, matched exactly.").Required().StringsVar(&p.names)
	return p
}

func lookupSymbols(ctx context.Context, env *environment, params *lookupParams) error {
	opener, err := env.opener()
	if err != nil {
		return err
	}
	engine := lookup.NewParserEngine(env.logger, env.cfg.PDB, opener)
	cache := lookup.NewCache(env.logger, env.reg, engine.Loader())
	defer cache.Clear()

	table := tablewriter.NewWriter(output(ctx))
	table.SetHeader([]string{"Name", "RVA", "Length"})
	table.SetAutoWrapText(false)

	var missing int
	for _, name := range params.names {
		r, err := cache.Lookup(name, params.path)
		if errors.Is(err, lookup.ErrNotFound) {
			missing++
			table.Append([]string{name, "not found", ""})
			continue
		}
		if err != nil {
			return err
		}
		table.Append([]string{name, fmt.Sprintf("0x%08x", r.RVA), fmt.Sprintf("0x%x", r.Size)})
	}
	table.Render()

	if missing > 0 {
		return fmt.Errorf("%d of %d symbols: %w", missing, len(params.names), lookup.ErrNotFound)
	}
	return nil
}
