package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Port    string        `yaml:"port" env:"SAMPLE_PORT"`
	Timeout time.Duration `yaml:"timeout"`
	Origins []string      `yaml:"origins"`
	Limit   int           `yaml:"limit"`
	Nested  struct {
		Enabled bool    `yaml:"enabled"`
		Ratio   float64 `yaml:"ratio"`
	} `yaml:"nested"`
	Skipped string `env:"-"`
}

func TestLoadConfigFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nlimit: 5\nnested:\n  ratio: 0.5\n"), 0o600))

	t.Setenv("SAMPLE_PORT", "9100")
	t.Setenv("TIMEOUT", "45s")
	t.Setenv("ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("NESTED_ENABLED", "true")
	t.Setenv("SKIPPED", "nope")

	var cfg sample
	require.NoError(t, LoadConfigFrom(path, &cfg))

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins)
	assert.Equal(t, 5, cfg.Limit)
	assert.True(t, cfg.Nested.Enabled)
	assert.InDelta(t, 0.5, cfg.Nested.Ratio, 1e-9)
	assert.Empty(t, cfg.Skipped)
}

func TestLoadConfigRejectsBadTargets(t *testing.T) {
	assert.Error(t, LoadConfigFrom("", nil))

	var notStruct int
	assert.Error(t, LoadConfigFrom("", &notStruct))
}

func TestLoadConfigReportsParseErrors(t *testing.T) {
	t.Setenv("LIMIT", "many")

	var cfg sample
	err := LoadConfigFrom("", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIMIT")
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg sample
	err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	assert.ErrorContains(t, err, "read file")
}
