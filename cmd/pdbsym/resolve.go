package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/pdbsym/pkg/symtab"
)

type resolveParams struct {
	path  string
	base  string
	addrs []string
}

func addResolveParams(cmd *kingpin.CmdClause) *resolveParams {
	p := &resolveParams{}
	cmd.Arg("path", "Program database dump path.").Required().StringVar(&p.path)
	cmd.Arg("address", "Addresses to resolve, decimal or 0x-prefixed hex.").Required().StringsVar(&p.addrs)
	cmd.Flag("base", "Address the image is loaded at.").Default("0").StringVar(&p.base)
	return p
}

func resolve(ctx context.Context, env *environment, params *resolveParams) error {
	base, err := strconv.ParseUint(params.base, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid base address %q: %w", params.base, err)
	}
	addrs := make([]uint64, 0, len(params.addrs))
	for _, s := range params.addrs {
		addr, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}

	parser, err := env.parser()
	if err != nil {
		return err
	}
	if err = parser.Parse(params.path); err != nil {
		return err
	}
	tab := symtab.NewSymbolTab(parser.Symbols())
	tab.Rebase(base)

	table := tablewriter.NewWriter(output(ctx))
	table.SetHeader([]string{"Address", "Function", "Offset"})
	table.SetAutoWrapText(false)
	for _, addr := range addrs {
		sym, ok := tab.Resolve(addr)
		if !ok {
			table.Append([]string{fmt.Sprintf("0x%x", addr), "??", ""})
			continue
		}
		table.Append([]string{fmt.Sprintf("0x%x", addr), sym.Name, fmt.Sprintf("+0x%x", addr-base-uint64(sym.RVA))})
	}
	table.Render()
	return nil
}
