// Package pdb builds function symbol tables from debug databases.
//
// The raw stream decoding is done by an Opener. The package reconciles the
// decoded module symbols, public symbols and section contributions into a
// single table of functions sorted by address, with one entry per address
// and a size for every function but possibly the last.
package pdb

import (
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/pdbsym/pkg/util"
)

// Parser extracts function symbols from debug databases. A Parser must not
// be used by several goroutines at once.
type Parser struct {
	logger  log.Logger
	opener  Opener
	metrics *metrics
	cfg     Config

	symbols []Symbol
}

func New(logger log.Logger, cfg Config, reg prometheus.Registerer, opener Opener) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opener == nil {
		return nil, errors.New("pdb: opener is required")
	}
	if logger == nil {
		logger = util.Logger
	}
	return &Parser{
		logger:  logger,
		opener:  opener,
		metrics: newMetrics(reg),
		cfg:     cfg,
	}, nil
}

// Parse reads the function symbols of the database at path. On success the
// table is available through Symbols. A failed Parse leaves an empty table.
func (p *Parser) Parse(path string) error {
	start := time.Now()
	status := statusSuccess
	defer func() {
		p.metrics.parseDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	p.symbols = nil
	symbols, err := p.parse(path)
	if err != nil {
		status = p.report(path, err)
		return err
	}
	p.symbols = symbols
	level.Debug(p.logger).Log("msg", "parsed function symbols", "path", path, "symbols", len(symbols), "duration", time.Since(start))
	return nil
}

// Symbols returns the address-sorted table of the last successful Parse.
// The returned slice is owned by the Parser and must not be modified.
func (p *Parser) Symbols() []Symbol {
	return p.symbols
}

func (p *Parser) parse(path string) ([]Symbol, error) {
	db, err := p.opener.Open(path)
	if err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		return nil, &openError{err: err}
	}
	defer db.Close()

	if db.UsesDebugFastLink() {
		return nil, &ValidationError{Reason: UnsupportedFastLink}
	}

	streams, err := openStreams(db)
	if err != nil {
		return nil, err
	}

	opts := append(p.cfg.options(), withMetrics(p.metrics))
	symbols, err := Merge(streams.modules, streams.publics, streams.translator, opts...)
	if err != nil {
		return nil, err
	}
	if err = InferSizes(symbols, streams.contributions, streams.translator, opts...); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, ErrEmptyResult
	}
	return symbols, nil
}

type streams struct {
	translator    AddressTranslator
	modules       ModuleSymbolSource
	publics       PublicSymbolSource
	contributions ContributionSource
}

// openStreams checks that every sub-stream needed is present before any of
// them is read.
func openStreams(db Database) (streams, error) {
	var (
		s    streams
		errs *multierror.Error
		err  error
	)
	if s.translator, err = db.AddressTranslator(); err != nil {
		errs = multierror.Append(errs, &StreamUnavailableError{Stream: StreamImageSection, Err: err})
	}
	if s.modules, err = db.ModuleSymbols(); err != nil {
		errs = multierror.Append(errs, &StreamUnavailableError{Stream: StreamModuleInfo, Err: err})
	}
	if s.publics, err = db.PublicSymbols(); err != nil {
		errs = multierror.Append(errs, &StreamUnavailableError{Stream: StreamPublicSymbol, Err: err})
	}
	if s.contributions, err = db.Contributions(); err != nil {
		errs = multierror.Append(errs, &StreamUnavailableError{Stream: StreamSectionContribution, Err: err})
	}
	return s, errs.ErrorOrNil()
}

// report logs one diagnostic for the failure category of err and returns the
// metrics status for it.
func (p *Parser) report(path string, err error) string {
	logger := log.With(p.logger, "path", path)
	switch {
	case IsValidationError(err, UnsupportedFastLink):
		level.Error(logger).Log("msg", "database was linked using unsupported option /DEBUG:FASTLINK")
		return statusErrorValidation
	case IsValidationError(err):
		level.Error(logger).Log("msg", "unable to validate database", "err", err)
		return statusErrorValidation
	case isStreamUnavailableError(err):
		level.Error(logger).Log("msg", "unable to read database sub-streams", "err", err)
		return statusErrorStream
	case errors.Is(err, ErrEmptyResult):
		level.Error(logger).Log("msg", "unable to parse function symbols", "err", err)
		return statusErrorEmpty
	case isOpenError(err):
		level.Error(logger).Log("msg", "unable to open database", "err", err)
		return statusErrorOpen
	default:
		level.Error(logger).Log("msg", "unable to read function symbols", "err", err)
		return statusErrorOther
	}
}
