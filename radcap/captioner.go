package radcap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Result is the outcome of captioning one test entry
type Result struct {
	Index     int
	ImagePath string
	Reference string
	Caption   Caption
}

// Captioner runs the encoder/decoder pair over images
type Captioner struct {
	config         *Config
	transform      Transform
	encoder        Encoder
	decoder        Decoder
	vocab          Vocabulary
	samplingParams *SamplingParams
	cache          *FeatureCache
}

// CaptionerOption is a functional option for Captioner
type CaptionerOption func(*Captioner)

// WithSamplingParams overrides the default greedy sampling
func WithSamplingParams(sp *SamplingParams) CaptionerOption {
	return func(c *Captioner) {
		c.samplingParams = sp
	}
}

// WithFeatureCache enables encoder output caching
func WithFeatureCache(fc *FeatureCache) CaptionerOption {
	return func(c *Captioner) {
		c.cache = fc
	}
}

// NewCaptioner creates a new captioner
func NewCaptioner(config *Config, transform Transform, encoder Encoder, decoder Decoder, vocab Vocabulary, opts ...CaptionerOption) *Captioner {
	c := &Captioner{
		config:         config,
		transform:      transform,
		encoder:        encoder,
		decoder:        decoder,
		vocab:          vocab,
		samplingParams: NewSamplingParams(WithMaxTokens(config.MaxSeqLength)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close cleans up resources
func (c *Captioner) Close() error {
	return errors.Join(c.encoder.Close(), c.decoder.Close())
}

// Caption generates a caption for one image file
func (c *Captioner) Caption(ctx context.Context, imagePath string) (Caption, error) {
	features, err := c.features(ctx, imagePath)
	if err != nil {
		return Caption{}, err
	}

	ids, err := c.decoder.Sample(ctx, features, c.samplingParams)
	if err != nil {
		return Caption{}, fmt.Errorf("decoder sampling failed: %w", err)
	}

	return DecodeCaption(c.vocab, ids)
}

func (c *Captioner) features(ctx context.Context, imagePath string) ([]float32, error) {
	var hash uint64
	if c.cache != nil {
		h, err := c.cache.HashFile(c.transform.Mode(), c.config.ImageSize, imagePath)
		if err != nil {
			return nil, err
		}
		if features, ok := c.cache.Get(h); ok {
			return features, nil
		}
		hash = h
	}

	pixels, err := c.transform.Apply(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", imagePath, err)
	}

	features, err := c.encoder.Encode(ctx, pixels)
	if err != nil {
		return nil, fmt.Errorf("encoder forward pass failed: %w", err)
	}
	if len(features) != c.config.EmbedSize {
		return nil, fmt.Errorf("%w: encoder produced %d features, embed_size is %d",
			ErrShapeMismatch, len(features), c.config.EmbedSize)
	}

	if c.cache != nil {
		c.cache.Put(hash, features)
	}
	return features, nil
}

// Run captions the configured window of entries and hands each result to fn.
// The first error stops the run.
func (c *Captioner) Run(ctx context.Context, entries []TestEntry, fn func(Result) error) error {
	window := Window(entries, c.config.Start, c.config.End)

	var bar *progressbar.ProgressBar
	if c.config.Progress {
		bar = progressbar.NewOptions(len(window),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Captioning"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	for i, entry := range window {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := c.config.Start + i
		imagePath, err := entry.ImagePath()
		if err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}
		reference, err := entry.Reference()
		if err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}

		caption, err := c.Caption(ctx, imagePath)
		if err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}

		if err := fn(Result{
			Index:     index,
			ImagePath: imagePath,
			Reference: reference,
			Caption:   caption,
		}); err != nil {
			return err
		}

		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return nil
}
