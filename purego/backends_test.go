package purego

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"radcap-go/radcap"
)

func TestNewEncoderRejectsCheckpoints(t *testing.T) {
	config := radcap.NewConfig(radcap.WithEncoderPath("./models/encoder-5-335.ckpt"))

	_, err := NewEncoder(config)
	assert.ErrorContains(t, err, "only .onnx encoders")
}

func TestNewDecoderMissingCheckpoint(t *testing.T) {
	config := radcap.NewConfig(radcap.WithDecoderPath(filepath.Join(t.TempDir(), "decoder.ckpt")))

	_, err := NewDecoder(config, NewVocabulary())
	assert.Error(t, err)
}

func TestIsONNX(t *testing.T) {
	assert.True(t, IsONNX("models/encoder.onnx"))
	assert.True(t, IsONNX("models/ENCODER.ONNX"))
	assert.False(t, IsONNX("models/decoder-5-335.ckpt"))
}

func TestViewerCommand(t *testing.T) {
	assert.Equal(t, []string{"open"}, viewerCommand("darwin"))
	assert.Equal(t, []string{"xdg-open"}, viewerCommand("linux"))
	assert.Equal(t, "rundll32", viewerCommand("windows")[0])
}
