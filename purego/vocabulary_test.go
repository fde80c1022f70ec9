package purego

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radcap-go/radcap"
)

// build_vocab.Vocabulary with <pad> <start> <end> <unk> no acute fracture,
// dumped with pickle protocols 2 and 4.
const (
	vocabPickleProto2 = "8002636275696c645f766f6361620a566f636162756c6172790a7100298171017d7102285808000000776f72643269647871037d71042858050000003c7061643e71054b0058070000003c73746172743e71064b0158050000003c656e643e71074b0258050000003c756e6b3e71084b0358020000006e6f71094b0458050000006163757465710a4b0558080000006672616374757265710b4b0675580800000069647832776f7264710c7d710d284b0068054b0168064b0268074b0368084b0468094b05680a4b06680b755803000000696478710e4b0775622e"
	vocabPickleProto4 = "800495b0000000000000008c0b6275696c645f766f636162948c0a566f636162756c6172799493942981947d94288c08776f726432696478947d94288c053c7061643e944b008c073c73746172743e944b018c053c656e643e944b028c053c756e6b3e944b038c026e6f944b048c056163757465944b058c086672616374757265944b06758c0869647832776f7264947d94284b0068074b0168084b0268094b03680a4b04680b4b05680c4b06680d758c03696478944b0775622e"
)

func assertTestVocab(t *testing.T, v *Vocabulary) {
	t.Helper()
	assert.Equal(t, 7, v.Len())
	assert.Equal(t, 1, v.StartID())
	assert.Equal(t, 2, v.EndID())
	assert.Equal(t, 6, v.ID("fracture"))
	assert.Equal(t, 3, v.ID("effusion"))

	w, err := v.Word(5)
	require.NoError(t, err)
	assert.Equal(t, "acute", w)
}

func TestReadPickleVocabulary(t *testing.T) {
	for name, h := range map[string]string{"proto2": vocabPickleProto2, "proto4": vocabPickleProto4} {
		t.Run(name, func(t *testing.T) {
			data, err := hex.DecodeString(h)
			require.NoError(t, err)

			v, err := ReadPickleVocabulary(bytes.NewReader(data))
			require.NoError(t, err)
			assertTestVocab(t, v)
		})
	}
}

func TestLoadVocabularySniffsPickle(t *testing.T) {
	data, err := hex.DecodeString(vocabPickleProto2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "vocab.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assertTestVocab(t, v)
}

func TestParseJSONVocabulary(t *testing.T) {
	tests := map[string]string{
		"array":    `["<pad>", "<start>", "<end>", "<unk>", "no", "acute", "fracture"]`,
		"idx2word": `{"idx2word": {"0": "<pad>", "1": "<start>", "2": "<end>", "3": "<unk>", "4": "no", "5": "acute", "6": "fracture"}}`,
		"word2idx": `{"word2idx": {"<pad>": 0, "<start>": 1, "<end>": 2, "<unk>": 3, "no": 4, "acute": 5, "fracture": 6}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseJSONVocabulary([]byte(data))
			require.NoError(t, err)
			assertTestVocab(t, v)
		})
	}
}

func TestParseJSONVocabularyRejectsNonBijection(t *testing.T) {
	_, err := ParseJSONVocabulary([]byte(`{"word2idx": {"<end>": 0, "<unk>": 0}}`))
	assert.Error(t, err)

	_, err = ParseJSONVocabulary([]byte(`["<end>", "<unk>", "<end>"]`))
	assert.Error(t, err)

	_, err = ParseJSONVocabulary([]byte(`["a", "b"]`))
	assert.Error(t, err, "missing special tokens")
}

func TestVocabularyUnknownID(t *testing.T) {
	v := NewVocabulary()
	_, err := v.Word(42)
	assert.True(t, errors.Is(err, radcap.ErrUnknownID))
}

func TestVocabularyWriteJSON(t *testing.T) {
	v := NewVocabulary()
	v.AddWord("no")
	v.AddWord("acute")
	v.AddWord("no")
	v.AddWord("fracture")

	var buf bytes.Buffer
	require.NoError(t, v.WriteJSON(&buf))

	back, err := ParseJSONVocabulary(buf.Bytes())
	require.NoError(t, err)
	assertTestVocab(t, back)
}
