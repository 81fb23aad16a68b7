package pdb

import (
	"flag"
	"fmt"
)

const (
	// ContributionScanOrdered stops the contribution scan once it passes the
	// target address. It relies on the ContributionSource ordering contract.
	ContributionScanOrdered = "ordered"
	// ContributionScanFull scans every contribution.
	ContributionScanFull = "full"
)

type Config struct {
	TrustZeroCodeSize bool   `yaml:"trust_zero_code_size"`
	ContributionScan  string `yaml:"contribution_scan" category:"advanced"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&cfg.TrustZeroCodeSize, "pdb.trust-zero-code-size", false, "Treat procedure records declaring a code size of 0 as zero-byte functions instead of inferring their size.")
	f.StringVar(&cfg.ContributionScan, "pdb.contribution-scan", ContributionScanOrdered, "How section contributions are scanned for the size of the last function: 'ordered' stops at the first contribution past the function, 'full' scans all of them.")
}

func (cfg *Config) Validate() error {
	switch cfg.ContributionScan {
	case "", ContributionScanOrdered, ContributionScanFull:
		return nil
	default:
		return fmt.Errorf("invalid contribution-scan value %q, must be %q or %q", cfg.ContributionScan, ContributionScanOrdered, ContributionScanFull)
	}
}

func (cfg *Config) options() []Option {
	var opts []Option
	if cfg.TrustZeroCodeSize {
		opts = append(opts, WithTrustZeroCodeSize())
	}
	if cfg.ContributionScan == ContributionScanFull {
		opts = append(opts, WithFullContributionScan())
	}
	return opts
}

// Option configures Merge and InferSizes.
type Option func(*options)

type options struct {
	trustZeroCodeSize bool
	fullScan          bool
	metrics           *metrics
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTrustZeroCodeSize makes procedure records with a code size of 0 known
// zero-byte functions.
func WithTrustZeroCodeSize() Option {
	return func(o *options) {
		o.trustZeroCodeSize = true
	}
}

// WithFullContributionScan disables the early exit of the contribution scan.
func WithFullContributionScan() Option {
	return func(o *options) {
		o.fullScan = true
	}
}

func withMetrics(m *metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
