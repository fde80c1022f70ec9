package radcap

import (
	"fmt"
)

// Transform modes understood by the image preprocessing stage
const (
	TransformResize     = "resize"
	TransformCenterCrop = "center-crop"
)

// Devices an ONNX session can be placed on
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Config holds the configuration for a captioning run.
// EmbedSize, HiddenSize and NumLayers must match the values the weights
// were trained with.
type Config struct {
	EncoderPath   string
	DecoderPath   string
	VocabPath     string
	TestJSON      string
	EmbedSize     int
	HiddenSize    int
	NumLayers     int
	MaxSeqLength  int
	ImageSize     int
	ResizeSize    int
	Transform     string
	Start         int
	End           int
	Device        string
	OnnxRuntime   string
	ShowImages    bool
	StripSpecials bool
	Progress      bool
}

// ConfigOption is a functional option for Config
type ConfigOption func(*Config)

// NewConfig creates a new Config with default values
func NewConfig(opts ...ConfigOption) *Config {
	c := defaultConfig()

	for _, opt := range opts {
		opt(c)
	}

	if err := c.validate(); err != nil {
		panic(err)
	}

	return c
}

// DefaultConfig returns the built-in defaults. The CLI layers flags on top.
func DefaultConfig() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		EncoderPath:  "./models/encoder-5-335.onnx",
		DecoderPath:  "./models/decoder-5-335.ckpt",
		VocabPath:    "./data/vocab.pkl",
		TestJSON:     "./ankle_test_data.json",
		EmbedSize:    256,
		HiddenSize:   512,
		NumLayers:    1,
		MaxSeqLength: 20,
		ImageSize:    224,
		ResizeSize:   256,
		Transform:    TransformResize,
		Start:        40,
		End:          50,
		Device:       DeviceCPU,
		ShowImages:   true,
	}
}

// Validate reports whether the configuration is usable
func (c *Config) Validate() error {
	return c.validate()
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.EmbedSize <= 0 {
		return fmt.Errorf("embed_size must be positive, got %d", c.EmbedSize)
	}

	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be positive, got %d", c.HiddenSize)
	}

	if c.NumLayers <= 0 {
		return fmt.Errorf("num_layers must be positive, got %d", c.NumLayers)
	}

	if c.MaxSeqLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", c.MaxSeqLength)
	}

	if c.ImageSize <= 0 || c.ResizeSize < c.ImageSize {
		return fmt.Errorf("resize_size (%d) must be >= image_size (%d) > 0", c.ResizeSize, c.ImageSize)
	}

	if c.Transform != TransformResize && c.Transform != TransformCenterCrop {
		return fmt.Errorf("unknown transform %q (want %s or %s)", c.Transform, TransformResize, TransformCenterCrop)
	}

	if c.Start < 0 || c.End < c.Start {
		return fmt.Errorf("invalid test window [%d:%d]", c.Start, c.End)
	}

	if c.Device != DeviceCPU && c.Device != DeviceCUDA {
		return fmt.Errorf("unknown device %q", c.Device)
	}

	return nil
}

// WithEncoderPath sets the path of the exported encoder
func WithEncoderPath(p string) ConfigOption {
	return func(c *Config) {
		c.EncoderPath = p
	}
}

// WithDecoderPath sets the path of the decoder weights
func WithDecoderPath(p string) ConfigOption {
	return func(c *Config) {
		c.DecoderPath = p
	}
}

// WithVocabPath sets the path of the vocabulary file
func WithVocabPath(p string) ConfigOption {
	return func(c *Config) {
		c.VocabPath = p
	}
}

// WithTestJSON sets the path of the test set description
func WithTestJSON(p string) ConfigOption {
	return func(c *Config) {
		c.TestJSON = p
	}
}

// WithEmbedSize sets the word embedding dimension
func WithEmbedSize(n int) ConfigOption {
	return func(c *Config) {
		c.EmbedSize = n
	}
}

// WithHiddenSize sets the LSTM hidden state dimension
func WithHiddenSize(n int) ConfigOption {
	return func(c *Config) {
		c.HiddenSize = n
	}
}

// WithNumLayers sets the number of LSTM layers
func WithNumLayers(n int) ConfigOption {
	return func(c *Config) {
		c.NumLayers = n
	}
}

// WithMaxSeqLength sets the maximum caption length in tokens
func WithMaxSeqLength(n int) ConfigOption {
	return func(c *Config) {
		c.MaxSeqLength = n
	}
}

// WithTransform sets the preprocessing mode
func WithTransform(mode string) ConfigOption {
	return func(c *Config) {
		c.Transform = mode
	}
}

// WithWindow sets the [start:end) slice of the test set to caption
func WithWindow(start, end int) ConfigOption {
	return func(c *Config) {
		c.Start = start
		c.End = end
	}
}

// WithDevice sets the execution device
func WithDevice(d string) ConfigOption {
	return func(c *Config) {
		c.Device = d
	}
}

// WithShowImages sets whether images are opened in a viewer
func WithShowImages(b bool) ConfigOption {
	return func(c *Config) {
		c.ShowImages = b
	}
}
