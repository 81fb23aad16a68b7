package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/pdbsym/pkg/pdb"
	"github.com/grafana/pdbsym/pkg/pdb/lookup"
)

const testDump = `
signature: "Microsoft C/C++ MSF 7.00\r\n"
block_size: 4096
free_block_map: 1
num_streams: 4
version: 20000404
sections:
  - {name: .text, virtual_address: 0x1000, virtual_size: 0x1000}
modules:
  - name: a.obj
    stream: 2
    symbols:
      - {kind: S_GPROC32, name: main, section: 1, offset: 0x10, code_size: 0x40}
publics:
  - {name: tail, section: 1, offset: 0x80, flags: 2}
contributions:
  - {section: 1, offset: 0x80, size: 0x20}
`

func newTestEnv(t *testing.T) (*environment, *bytes.Buffer, context.Context) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "app.pdb", []byte(testDump), 0o644))
	cfg, err := loadConfig(fs, "", overrides{})
	require.NoError(t, err)

	var out bytes.Buffer
	env := &environment{logger: log.NewNopLogger(), reg: prometheus.NewRegistry(), fs: fs, cfg: cfg}
	return env, &out, withOutput(context.Background(), &out)
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cfg.yaml", []byte(`
log:
  level: debug
pdb:
  contribution_scan: full
snapshot:
  max_size: 4096
`), 0o644))

	cfg, err := loadConfig(fs, "", overrides{})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "logfmt", cfg.Log.Format)
	assert.Equal(t, pdb.ContributionScanOrdered, cfg.PDB.ContributionScan)
	assert.Equal(t, int64(1<<30), cfg.Snapshot.MaxSize)

	cfg, err = loadConfig(fs, "cfg.yaml", overrides{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, pdb.ContributionScanFull, cfg.PDB.ContributionScan)
	assert.Equal(t, int64(4096), cfg.Snapshot.MaxSize)

	app := kingpin.New("test", "")
	o := registerConfigFlags(app)
	_, err = app.Parse([]string{"--log.level=warn", "--pdb.contribution-scan=ordered", "--pdb.trust-zero-code-size"})
	require.NoError(t, err)
	cfg, err = loadConfig(fs, "cfg.yaml", o)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.Snapshot.MaxSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, pdb.ContributionScanOrdered, cfg.PDB.ContributionScan)
	assert.True(t, cfg.PDB.TrustZeroCodeSize)

	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("pdb:\n  contribution_scan: sideways\n"), 0o644))
	_, err = loadConfig(fs, "bad.yaml", overrides{})
	assert.Error(t, err)
}

func TestRegisterConfigFlags(t *testing.T) {
	var cfg Config
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	app := kingpin.New("test", "")
	registerConfigFlags(app)
	help := map[string]string{}
	for _, f := range app.Model().Flags {
		help[f.Name] = f.Help
	}

	var names []string
	fs.VisitAll(func(f *flag.Flag) {
		names = append(names, f.Name)
		assert.Contains(t, help[f.Name], f.Usage, f.Name)
	})
	assert.Contains(t, names, "pdb.contribution-scan")
	assert.Contains(t, names, "snapshot.max-size")
	assert.Contains(t, names, "log.level")
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	app := kingpin.New("test", "")
	o := registerConfigFlags(app)
	_, err := app.Parse([]string{"--snapshot.max-size=big"})
	require.NoError(t, err)

	_, err = loadConfig(afero.NewMemMapFs(), "", o)
	assert.ErrorContains(t, err, "--snapshot.max-size")
}

func TestSymbols(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		env, out, ctx := newTestEnv(t)
		require.NoError(t, symbols(ctx, env, &symbolsParams{paths: []string{"app.pdb"}, output: outputConsole}))
		assert.Contains(t, out.String(), "0x00001010")
		assert.Contains(t, out.String(), "64 B")
		assert.Contains(t, out.String(), "tail")
		assert.Contains(t, out.String(), "app.pdb: 2 functions, 96 B of code")
	})

	t.Run("json", func(t *testing.T) {
		env, out, ctx := newTestEnv(t)
		require.NoError(t, symbols(ctx, env, &symbolsParams{paths: []string{"app.pdb"}, output: outputJSON}))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.JSONEq(t, `{"path":"app.pdb","name":"main","rva":4112,"size":64}`, lines[0])
		assert.JSONEq(t, `{"path":"app.pdb","name":"tail","rva":4224,"size":32}`, lines[1])
	})

	t.Run("partial failure", func(t *testing.T) {
		env, out, ctx := newTestEnv(t)
		err := symbols(ctx, env, &symbolsParams{paths: []string{"missing.pdb", "app.pdb"}, output: outputConsole})
		require.ErrorContains(t, err, "missing.pdb")
		assert.Contains(t, out.String(), "app.pdb: 2 functions")
	})
}

func TestLookupSymbols(t *testing.T) {
	env, out, ctx := newTestEnv(t)
	require.NoError(t, lookupSymbols(ctx, env, &lookupParams{path: "app.pdb", names: []string{"main", "tail"}}))
	assert.Contains(t, out.String(), "0x00001010")
	assert.Contains(t, out.String(), "0x40")

	err := lookupSymbols(ctx, env, &lookupParams{path: "app.pdb", names: []string{"main", "nope"}})
	require.True(t, errors.Is(err, lookup.ErrNotFound))
	assert.Contains(t, out.String(), "not found")
	assert.Equal(t, 2, checkError(err))
}

func TestResolve(t *testing.T) {
	env, out, ctx := newTestEnv(t)
	require.NoError(t, resolve(ctx, env, &resolveParams{
		path:  "app.pdb",
		base:  "0x400000",
		addrs: []string{"0x401018", "0x401060", "0x401090"},
	}))
	assert.Contains(t, out.String(), "+0x8")
	assert.Contains(t, out.String(), "??")
	assert.Contains(t, out.String(), "+0x10")

	err := resolve(ctx, env, &resolveParams{path: "app.pdb", base: "0", addrs: []string{"zz"}})
	assert.ErrorContains(t, err, "invalid address")
}

func TestPrintMetrics(t *testing.T) {
	env, _, ctx := newTestEnv(t)
	require.NoError(t, symbols(ctx, env, &symbolsParams{paths: []string{"app.pdb"}}))

	var buf bytes.Buffer
	require.NoError(t, printMetrics(&buf, env.reg.(prometheus.Gatherer)))
	assert.Contains(t, buf.String(), `pyroscope_pdb_parse_duration_seconds_count{status="success"} 1`)
}
