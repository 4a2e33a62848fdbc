package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/model"
)

const bankDocument = `{
  "id": "bank",
  "words": [
    {"lemma": "bank", "senses": [
      {"id": "bank.river", "gloss": "river slope water"},
      {"id": "bank.money", "gloss": "money deposit institution"}
    ]},
    {"lemma": "deposit", "senses": [
      {"id": "deposit.money", "gloss": "money bank account"},
      {"id": "deposit.sediment", "gloss": "sediment river layer"}
    ]},
    {"lemma": "interest", "senses": [
      {"id": "interest.money", "gloss": "money rate account"},
      {"id": "interest.hobby", "gloss": "hobby curiosity"}
    ]}
  ]
}`

func TestLoadCorpusObject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bank.json", bankDocument)

	docs, err := LoadCorpus(codec.Default, path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "bank", doc.ID())
	assert.Equal(t, 3, doc.Len())
	assert.Equal(t, "w1", doc.Word(1).ID)
	assert.Equal(t, "deposit", doc.Word(1).Lemma)
	assert.Equal(t, model.SignatureOf("money", "deposit", "institution"), doc.Senses(0)[1].Signature)
}

func TestLoadCorpusArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pair.json", `[
  {"words": [{"senses": [{"id": "a", "signature": [{"value": "x", "weight": 2}]}]}]},
  {"id": "named", "words": [{"senses": [{"id": "b", "gloss": "y"}]}]}
]`)

	docs, err := LoadCorpus(codec.JSON{}, path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "pair-0", docs[0].ID())
	assert.Equal(t, "named", docs[1].ID())
	assert.Equal(t, model.Signature{{Value: "x", Weight: 2}}, docs[0].Senses(0)[0].Signature)
}

func TestLoadCorpusDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"words": [{"senses": [{"id": "s", "gloss": "b"}]}]}`)
	writeFile(t, dir, "a.json", `{"words": [{"senses": [{"id": "s", "gloss": "a"}]}]}`)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	docs, err := LoadCorpus(codec.Default, dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID())
	assert.Equal(t, "b", docs[1].ID())
}

func TestLoadCorpusErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCorpus(codec.Default, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadCorpus(codec.Default, writeFile(t, dir, "broken.json", `{"words": [`))
	assert.Error(t, err)
}
