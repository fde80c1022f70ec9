package purego

import (
	"context"
	"fmt"
	"math/rand"

	"radcap-go/purego/tensor"
	"radcap-go/radcap"
)

// NativeDecoder runs the LSTM decoder in Go from the PyTorch state dict, so
// decoder checkpoints can be used without exporting them.
type NativeDecoder struct {
	model *tensor.DecoderRNN
}

// NewNativeDecoder loads a decoder checkpoint (decoder-*.ckpt)
func NewNativeDecoder(path string, config *radcap.Config, vocab radcap.Vocabulary) (*NativeDecoder, error) {
	ckpt, err := tensor.LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	d, err := NewNativeDecoderFromWeights(ckpt, config, vocab)
	if err != nil {
		return nil, fmt.Errorf("decoder %s: %w", path, err)
	}
	fmt.Printf("✓ Loaded decoder %s (vocab: %d, layers: %d, hidden: %d)\n",
		path, d.model.Config.VocabSize, config.NumLayers, config.HiddenSize)
	return d, nil
}

// NewNativeDecoderFromWeights builds a decoder from any weight source
func NewNativeDecoderFromWeights(src tensor.WeightSource, config *radcap.Config, vocab radcap.Vocabulary) (*NativeDecoder, error) {
	model, err := tensor.LoadDecoderRNN(src, tensor.DecoderRNNConfig{
		EmbedSize:  config.EmbedSize,
		HiddenSize: config.HiddenSize,
		NumLayers:  config.NumLayers,
		VocabSize:  vocab.Len(),
	})
	if err != nil {
		return nil, err
	}
	return &NativeDecoder{model: model}, nil
}

// Sample feeds the image features as the first LSTM input and then the
// embedding of each chosen token, for params.MaxTokens steps. Sampling does
// not stop at <end>; the caller truncates when decoding.
func (d *NativeDecoder) Sample(ctx context.Context, features []float32, params *radcap.SamplingParams) ([]int, error) {
	if params == nil {
		params = radcap.NewSamplingParams()
	}
	if len(features) != d.model.Config.EmbedSize {
		return nil, fmt.Errorf("%w: got %d features, decoder expects %d",
			radcap.ErrShapeMismatch, len(features), d.model.Config.EmbedSize)
	}

	sp := &tensor.SamplingParams{
		Temperature: float32(params.Temperature),
		TopK:        params.TopK,
		TopP:        float32(params.TopP),
	}
	rng := rand.New(rand.NewSource(params.Seed))

	seq := radcap.NewSequence(params.MaxTokens)
	state := d.model.LSTM.NewState()
	input := features

	for !seq.IsFinished() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits := d.model.Step(input, state)
		id := tensor.Sample(logits, sp, rng)
		seq.AppendToken(id)
		input = d.model.Embedding(id)
	}

	return seq.TokenIDs, nil
}

// Close cleans up resources
func (d *NativeDecoder) Close() error {
	return nil
}
