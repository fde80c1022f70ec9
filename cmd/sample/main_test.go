package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radcap-go/radcap"
)

func TestParseFlagsDefaults(t *testing.T) {
	config, sf, err := parseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, "./models/encoder-5-335.onnx", config.EncoderPath)
	assert.Equal(t, "./ankle_test_data.json", config.TestJSON)
	assert.Equal(t, 256, config.EmbedSize)
	assert.Equal(t, 512, config.HiddenSize)
	assert.Equal(t, 1, config.NumLayers)
	assert.Equal(t, 0.0, sf.temperature)
	assert.Equal(t, "", sf.image)
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embed_size: 128\nhidden_size: 256\nstart: 0\nend: 4\n"), 0644))

	config, _, err := parseFlags([]string{"--config", path, "--hidden_size", "64", "--test_json", "radcap_data.json"})
	require.NoError(t, err)

	assert.Equal(t, 128, config.EmbedSize, "from file")
	assert.Equal(t, 64, config.HiddenSize, "flag wins over file")
	assert.Equal(t, 0, config.Start)
	assert.Equal(t, 4, config.End)
	assert.Equal(t, "radcap_data.json", config.TestJSON)
}

func TestParseFlagsRejectsInvalid(t *testing.T) {
	_, _, err := parseFlags([]string{"--num_layers", "0"})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"--temp", "-1"})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"stray"})
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.yaml", configPath([]string{"--config", "a.yaml"}))
	assert.Equal(t, "b.yaml", configPath([]string{"-embed_size", "3", "-config=b.yaml"}))
	assert.Equal(t, "", configPath([]string{"--image", "config"}))
}

func TestPrintResult(t *testing.T) {
	r := radcap.Result{
		Index:     40,
		ImagePath: "xr/ankle_040.png",
		Reference: "no acute fracture or dislocation",
		Caption: radcap.Caption{
			TokenIDs: []int{1, 4, 5, 6, 2},
			Words:    []string{"<start>", "no", "acute", "fracture", "<end>"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, r, false))
	assert.Equal(t,
		"Human cap: no acute fracture or dislocation\n"+
			"AI cap: <start> no acute fracture <end>\n\n\n",
		buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, r, true))
	assert.Equal(t,
		"Human cap: no acute fracture or dislocation\n"+
			"AI cap: no acute fracture\n\n\n",
		buf.String())
}

func TestCaptionerOptionsCache(t *testing.T) {
	sp := radcap.NewSamplingParams()

	assert.Len(t, captionerOptions(sp, 0), 1, "no cache when disabled")
	assert.Len(t, captionerOptions(sp, 64), 2)

	// without a cache the image file is never read for hashing
	config := radcap.NewConfig(radcap.WithEmbedSize(4))
	vocab := radcap.NewMockVocabulary("<pad>", "<start>", "<end>", "<unk>")
	c := radcap.NewCaptioner(config, &radcap.MockTransform{Size: 2}, radcap.NewMockEncoder(4),
		radcap.NewMockDecoder(1, 2), vocab, captionerOptions(sp, 0)...)
	_, err := c.Caption(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.NoError(t, err)
}
