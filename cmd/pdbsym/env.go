package main

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/grafana/pdbsym/pkg/pdb"
	"github.com/grafana/pdbsym/pkg/pdb/snapshot"
)

type environment struct {
	logger log.Logger
	reg    prometheus.Registerer
	fs     afero.Fs
	cfg    Config
}

func (e *environment) opener() (*snapshot.Opener, error) {
	return snapshot.NewOpener(e.logger, e.fs, e.cfg.Snapshot)
}

func (e *environment) parser() (*pdb.Parser, error) {
	opener, err := e.opener()
	if err != nil {
		return nil, err
	}
	return pdb.New(e.logger, e.cfg.PDB, e.reg, opener)
}
