package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/strategy"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, strategy.Genetic, cfg.Kind())
	assert.Equal(t, 100, cfg.Budget.Iterations)
	assert.Empty(t, cfg.Store.Type)

	m, err := cfg.NewMeasure()
	require.NoError(t, err)
	assert.IsType(t, &similarity.Overlap{}, m)

	_, ok := cfg.Measure.limits()
	assert.False(t, ok)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sensego.yaml", `
strategy: cuckoo
budget:
  duration: 1m30s
seed: 3
measure:
  name: tversky
  alpha: 0.7
  beta: 0.3
  rate_per_sec: 100
  burst: 10
log:
  level: debug
  format: json
tuning:
  repetitions: 2
parameters:
  cuckoo:
    nests: 8
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, strategy.Cuckoo, cfg.Kind())
	assert.Equal(t, 90*time.Second, cfg.Budget.Duration)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(3), *cfg.Seed)
	assert.Equal(t, 2, cfg.Tuning.Repetitions)
	assert.Equal(t, "zstd", cfg.Store.Compression, "defaults survive")

	l, ok := cfg.Measure.limits()
	require.True(t, ok)
	assert.Equal(t, 100.0, l.RatePerSec)

	params, err := cfg.parameters()
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, strategy.Cuckoo, params[0].Kind())

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"strategy", "strategy: simulated-annealing\n"},
		{"measure", "measure:\n  name: jaccard\n"},
		{"log level", "log:\n  level: loud\n"},
		{"log format", "log:\n  format: xml\n"},
		{"store type", "store:\n  type: ftp\n"},
		{"compression", "store:\n  compression: brotli\n"},
		{"codec", "store:\n  codec: gob\n"},
		{"auto snapshot", "store:\n  auto_snapshot: true\n"},
		{"parameter strategy", "parameters:\n  annealing:\n    t: 1\n"},
		{"parameter name", "parameters:\n  genetic:\n    temperature: 1\n"},
		{"yaml", "strategy: [\n"},
	}
	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, dir, "bad.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, err := StoreConfig{}.OpenStore(t.Context())
	require.NoError(t, err)
	assert.Nil(t, store)

	dir := filepath.Join(t.TempDir(), "data")
	store, err = StoreConfig{Type: "local", Path: dir}.OpenStore(t.Context())
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.DirExists(t, dir)
}
