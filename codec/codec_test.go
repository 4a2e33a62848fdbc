package codec

import (
	"testing"

	"github.com/hupe1980/sensego/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgreeOnWords(t *testing.T) {
	words := []model.Word{
		{ID: "w0", Lemma: "bank", Senses: []model.Sense{
			{ID: "bank%1", Signature: model.SignatureOf("money", "deposit")},
			{ID: "bank%2", Signature: model.SignatureOf("river", "slope")},
		}},
		{ID: "w1", Lemma: "the"},
	}

	data := MustMarshal(JSON{}, words)

	var viaStd, viaGo []model.Word
	require.NoError(t, JSON{}.Unmarshal(data, &viaStd))
	require.NoError(t, GoJSON{}.Unmarshal(data, &viaGo))
	assert.Equal(t, viaStd, viaGo)
	assert.Equal(t, "river", viaGo[0].Senses[1].Signature[0].Value)
	assert.Empty(t, viaGo[1].Senses)
}

func TestMustMarshalPanics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(GoJSON{}, make(chan int)) })
	assert.NotPanics(t, func() { MustMarshal(nil, 1) })
}
