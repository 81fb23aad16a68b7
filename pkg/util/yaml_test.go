package util

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Level string `yaml:"level"`
	Limit int    `yaml:"limit"`
}

func TestReadYAMLFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ok.yaml", []byte("level: debug\nlimit: 3\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "unknown.yaml", []byte("levels: debug\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "empty.yaml", nil, 0o644))

	cfg := testConfig{Level: "info"}
	require.NoError(t, ReadYAMLFile(fs, "ok.yaml", &cfg))
	assert.Equal(t, testConfig{Level: "debug", Limit: 3}, cfg)

	cfg = testConfig{Level: "info"}
	require.NoError(t, ReadYAMLFile(fs, "empty.yaml", &cfg))
	assert.Equal(t, "info", cfg.Level)

	assert.ErrorContains(t, ReadYAMLFile(fs, "unknown.yaml", &cfg), "unknown.yaml")
	assert.Error(t, ReadYAMLFile(fs, "missing.yaml", &cfg))
}
