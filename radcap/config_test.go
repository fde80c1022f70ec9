package radcap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, 256, c.EmbedSize)
	assert.Equal(t, 512, c.HiddenSize)
	assert.Equal(t, 1, c.NumLayers)
	assert.Equal(t, 20, c.MaxSeqLength)
	assert.Equal(t, 40, c.Start)
	assert.Equal(t, 50, c.End)
	assert.Equal(t, TransformResize, c.Transform)
	assert.Equal(t, DeviceCPU, c.Device)
}

func TestConfigOptions(t *testing.T) {
	c := NewConfig(
		WithEmbedSize(128),
		WithHiddenSize(64),
		WithNumLayers(2),
		WithWindow(0, 3),
		WithTransform(TransformCenterCrop),
	)

	assert.Equal(t, 128, c.EmbedSize)
	assert.Equal(t, 64, c.HiddenSize)
	assert.Equal(t, 2, c.NumLayers)
	assert.Equal(t, 0, c.Start)
	assert.Equal(t, 3, c.End)
	assert.Equal(t, TransformCenterCrop, c.Transform)
}

func TestConfigValidation(t *testing.T) {
	assert.Panics(t, func() { NewConfig(WithEmbedSize(0)) })
	assert.Panics(t, func() { NewConfig(WithWindow(10, 5)) })
	assert.Panics(t, func() { NewConfig(WithTransform("squash")) })
	assert.Panics(t, func() { NewConfig(WithDevice("tpu")) })
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radcap.yaml")
	yaml := `
encoder_path: /models/enc.onnx
embed_size: 128
num_layers: 2
start: 0
end: 5
show: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	c, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/models/enc.onnx", c.EncoderPath)
	assert.Equal(t, 128, c.EmbedSize)
	assert.Equal(t, 2, c.NumLayers)
	assert.Equal(t, 0, c.Start)
	assert.Equal(t, 5, c.End)
	assert.False(t, c.ShowImages)
	// untouched keys keep their defaults
	assert.Equal(t, 512, c.HiddenSize)
	assert.Equal(t, "./data/vocab.pkl", c.VocabPath)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hidden_size: -1\n"), 0644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSamplingParams(t *testing.T) {
	sp := NewSamplingParams()
	assert.True(t, sp.IsGreedy())
	assert.Equal(t, 20, sp.MaxTokens)

	sp = NewSamplingParams(WithTemperature(0.7), WithTopK(5), WithMaxTokens(10))
	assert.False(t, sp.IsGreedy())
	assert.Equal(t, 5, sp.TopK)
	assert.Equal(t, 10, sp.MaxTokens)

	assert.Panics(t, func() { NewSamplingParams(WithTemperature(-1)) })
	assert.Panics(t, func() { NewSamplingParams(WithTopP(0)) })
}
