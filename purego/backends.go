package purego

import (
	"fmt"
	"path/filepath"
	"strings"

	"radcap-go/radcap"
)

// IsONNX reports whether a path names an ONNX graph
func IsONNX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".onnx")
}

// NewEncoder opens the encoder named by config.EncoderPath. Only exported
// ONNX graphs are supported: the CNN backbone is not reimplemented in Go.
func NewEncoder(config *radcap.Config) (radcap.Encoder, error) {
	if !IsONNX(config.EncoderPath) {
		return nil, fmt.Errorf("encoder %s: only .onnx encoders are supported, export the PyTorch encoder with torch.onnx.export", config.EncoderPath)
	}
	if err := InitONNXRuntime(config.OnnxRuntime); err != nil {
		return nil, err
	}
	return NewONNXEncoder(config.EncoderPath, config)
}

// NewDecoder opens config.DecoderPath: .onnx files run in ONNX Runtime,
// anything else is read as a PyTorch state dict and run natively.
func NewDecoder(config *radcap.Config, vocab radcap.Vocabulary) (radcap.Decoder, error) {
	if IsONNX(config.DecoderPath) {
		if err := InitONNXRuntime(config.OnnxRuntime); err != nil {
			return nil, err
		}
		return NewONNXDecoder(config.DecoderPath, config)
	}
	return NewNativeDecoder(config.DecoderPath, config, vocab)
}
