package radcap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the CLI flag names so a config file and the command
// line read the same.
type fileConfig struct {
	EncoderPath   *string `yaml:"encoder_path"`
	DecoderPath   *string `yaml:"decoder_path"`
	VocabPath     *string `yaml:"vocab_path"`
	TestJSON      *string `yaml:"test_json"`
	EmbedSize     *int    `yaml:"embed_size"`
	HiddenSize    *int    `yaml:"hidden_size"`
	NumLayers     *int    `yaml:"num_layers"`
	MaxSeqLength  *int    `yaml:"max_length"`
	ImageSize     *int    `yaml:"image_size"`
	ResizeSize    *int    `yaml:"resize_size"`
	Transform     *string `yaml:"transform"`
	Start         *int    `yaml:"start"`
	End           *int    `yaml:"end"`
	Device        *string `yaml:"device"`
	OnnxRuntime   *string `yaml:"onnxruntime"`
	ShowImages    *bool   `yaml:"show"`
	StripSpecials *bool   `yaml:"strip"`
	Progress      *bool   `yaml:"progress"`
}

// LoadConfigFile reads a YAML config. Keys missing from the file keep their
// defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	c := defaultConfig()
	setString(&c.EncoderPath, fc.EncoderPath)
	setString(&c.DecoderPath, fc.DecoderPath)
	setString(&c.VocabPath, fc.VocabPath)
	setString(&c.TestJSON, fc.TestJSON)
	setInt(&c.EmbedSize, fc.EmbedSize)
	setInt(&c.HiddenSize, fc.HiddenSize)
	setInt(&c.NumLayers, fc.NumLayers)
	setInt(&c.MaxSeqLength, fc.MaxSeqLength)
	setInt(&c.ImageSize, fc.ImageSize)
	setInt(&c.ResizeSize, fc.ResizeSize)
	setString(&c.Transform, fc.Transform)
	setInt(&c.Start, fc.Start)
	setInt(&c.End, fc.End)
	setString(&c.Device, fc.Device)
	setString(&c.OnnxRuntime, fc.OnnxRuntime)
	setBool(&c.ShowImages, fc.ShowImages)
	setBool(&c.StripSpecials, fc.StripSpecials)
	setBool(&c.Progress, fc.Progress)

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
