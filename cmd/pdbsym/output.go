package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/grafana/pdbsym/pkg/pdb"
)

func writeSymbolsTable(w io.Writer, path string, symbols []pdb.Symbol) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RVA", "Size", "Name"})
	table.SetAutoWrapText(false)

	var total uint64
	for _, s := range symbols {
		size := "?"
		if s.SizeKnown {
			size = humanize.IBytes(uint64(s.Size))
			total += uint64(s.Size)
		}
		table.Append([]string{fmt.Sprintf("0x%08x", s.RVA), size, s.Name})
	}
	table.Render()
	fmt.Fprintf(w, "%s: %s functions, %s of code\n", path, humanize.Comma(int64(len(symbols))), humanize.IBytes(total))
}

type symbolJSON struct {
	Path string  `json:"path"`
	Name string  `json:"name"`
	RVA  uint32  `json:"rva"`
	Size *uint32 `json:"size,omitempty"`
}

// writeSymbolsJSON writes one object per symbol. Size is omitted when it is
// unknown.
func writeSymbolsJSON(w io.Writer, path string, symbols []pdb.Symbol) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	for _, s := range symbols {
		out := symbolJSON{Path: path, Name: s.Name, RVA: s.RVA}
		if s.SizeKnown {
			size := s.Size
			out.Size = &size
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err = enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
