package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sensego"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/tuning"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func lines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func TestDisambiguateCommand(t *testing.T) {
	corpus := writeFile(t, t.TempDir(), "bank.json", bankDocument)

	out, err := execute(t, "disambiguate", corpus, "--seed", "42", "--iterations", "50")
	require.NoError(t, err)

	var res sensego.Result
	require.NoError(t, codec.Default.Unmarshal([]byte(lines(out)[0]), &res))
	assert.Equal(t, "bank", res.Document)
	assert.Equal(t, strategy.Genetic, res.Kind)
	assert.Equal(t, []int{1, 0, 0}, res.Senses)
	assert.NotEmpty(t, res.RunID)
}

func TestDisambiguateCommandStrategies(t *testing.T) {
	corpus := writeFile(t, t.TempDir(), "bank.json", bankDocument)

	for _, kind := range strategy.Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			out, err := execute(t, "disambiguate", corpus, "-s", kind.String(), "--seed", "1", "--iterations", "5", "--workers", "1")
			require.NoError(t, err)

			var res sensego.Result
			require.NoError(t, codec.Default.Unmarshal([]byte(lines(out)[0]), &res))
			assert.Equal(t, kind, res.Kind)
			assert.Len(t, res.Senses, 3)
		})
	}
}

func TestDisambiguateCommandErrors(t *testing.T) {
	corpus := writeFile(t, t.TempDir(), "bank.json", bankDocument)

	_, err := execute(t, "disambiguate")
	assert.Error(t, err)

	_, err = execute(t, "disambiguate", corpus, "-s", "annealing")
	assert.Error(t, err)

	_, err = execute(t, "disambiguate", corpus, "--measure", "jaccard")
	assert.Error(t, err)
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	corpus := writeFile(t, dir, "bank.json", bankDocument)

	out, err := execute(t, "score", corpus, "--senses", "1,0,0")
	require.NoError(t, err)
	var best scoreOutput
	require.NoError(t, codec.Default.Unmarshal([]byte(lines(out)[0]), &best))
	assert.Equal(t, []int{1, 0, 0}, best.Senses)
	assert.InDelta(t, 4.0, best.Score, 1e-9)

	out, err = execute(t, "score", corpus)
	require.NoError(t, err)
	var first scoreOutput
	require.NoError(t, codec.Default.Unmarshal([]byte(lines(out)[0]), &first))
	assert.Equal(t, []int{0, 0, 0}, first.Senses)
	assert.Less(t, first.Score, best.Score)

	store := filepath.Join(dir, "store")
	_, err = execute(t, "score", corpus, "--snapshot", "--store", "local", "--store-path", store)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(store, "scores", "bank.snap"))

	_, err = execute(t, "score", corpus, "--senses", "1,0")
	assert.Error(t, err)
	_, err = execute(t, "score", corpus, "--senses", "1,x,0")
	assert.Error(t, err)
	_, err = execute(t, "score", corpus, "--senses", "1,5,0")
	assert.Error(t, err)
	_, err = execute(t, "score", corpus, "--baseline", "median")
	assert.Error(t, err)
	_, err = execute(t, "score", corpus, "--snapshot")
	assert.ErrorIs(t, err, sensego.ErrNoStore)
}

func TestTuneCommand(t *testing.T) {
	dir := t.TempDir()
	corpus := writeFile(t, dir, "bank.json", bankDocument)
	store := filepath.Join(dir, "store")

	out, err := execute(t, "tune", corpus,
		"--seed", "5", "--iterations", "5", "--workers", "1",
		"--search-iterations", "2", "--repetitions", "1", "--nests", "2",
		"--store", "local", "--store-path", store,
	)
	require.NoError(t, err)

	var res tuning.Result
	require.NoError(t, codec.Default.Unmarshal([]byte(lines(out)[0]), &res))
	assert.Equal(t, strategy.Genetic, res.Kind)
	assert.Contains(t, res.Values, "population")
	assert.Positive(t, res.Evaluations)
	assert.FileExists(t, filepath.Join(store, "tuning", "genetic.json"))

	out, err = execute(t, "disambiguate", corpus, "--tuned", "--seed", "5", "--iterations", "5",
		"--store", "local", "--store-path", store)
	require.NoError(t, err)
	assert.Len(t, lines(out), 1)
}
