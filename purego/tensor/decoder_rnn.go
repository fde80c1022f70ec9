package tensor

import (
	"fmt"

	"radcap-go/radcap"
)

// ErrShapeMismatch is returned when weights disagree with the requested
// hyperparameters. It is the same sentinel the engine reports.
var ErrShapeMismatch = radcap.ErrShapeMismatch

// DecoderRNNConfig holds the hyperparameters the decoder was trained with
type DecoderRNNConfig struct {
	EmbedSize  int
	HiddenSize int
	NumLayers  int
	VocabSize  int
}

// DecoderRNN is the word embedding + LSTM + linear head of a captioning
// model, loaded from the decoder's state dict.
type DecoderRNN struct {
	Config       DecoderRNNConfig
	Embed        *Tensor // [V, E]
	LSTM         *LSTM
	LinearWeight *Tensor // [V, H]
	LinearBias   *Tensor // [V]
}

// LoadDecoderRNN builds a decoder from parameters named like the PyTorch
// module: embed.weight, lstm.weight_ih_l{k}, ..., linear.weight.
func LoadDecoderRNN(src WeightSource, cfg DecoderRNNConfig) (*DecoderRNN, error) {
	embed, err := src.Tensor("embed.weight")
	if err != nil {
		return nil, err
	}
	if len(embed.Shape) != 2 {
		return nil, fmt.Errorf("%w: embed.weight has shape %v", ErrShapeMismatch, embed.Shape)
	}
	if embed.Shape[1] != cfg.EmbedSize {
		return nil, fmt.Errorf("%w: embed.weight width %d, embed_size is %d", ErrShapeMismatch, embed.Shape[1], cfg.EmbedSize)
	}
	if cfg.VocabSize > 0 && embed.Shape[0] != cfg.VocabSize {
		return nil, fmt.Errorf("%w: embed.weight has %d rows, vocabulary has %d words", ErrShapeMismatch, embed.Shape[0], cfg.VocabSize)
	}
	vocabSize := embed.Shape[0]

	if src.Has(fmt.Sprintf("lstm.weight_ih_l%d", cfg.NumLayers)) {
		return nil, fmt.Errorf("%w: checkpoint has more than num_layers=%d lstm layers", ErrShapeMismatch, cfg.NumLayers)
	}

	layers := make([]*LSTMLayer, cfg.NumLayers)
	for k := 0; k < cfg.NumLayers; k++ {
		layer := &LSTMLayer{}
		if layer.WeightIH, err = src.Tensor(fmt.Sprintf("lstm.weight_ih_l%d", k)); err != nil {
			return nil, err
		}
		if layer.WeightHH, err = src.Tensor(fmt.Sprintf("lstm.weight_hh_l%d", k)); err != nil {
			return nil, err
		}
		if name := fmt.Sprintf("lstm.bias_ih_l%d", k); src.Has(name) {
			if layer.BiasIH, err = src.Tensor(name); err != nil {
				return nil, err
			}
		}
		if name := fmt.Sprintf("lstm.bias_hh_l%d", k); src.Has(name) {
			if layer.BiasHH, err = src.Tensor(name); err != nil {
				return nil, err
			}
		}
		layers[k] = layer
	}

	lstm, err := NewLSTM(layers, cfg.EmbedSize, cfg.HiddenSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	linearWeight, err := src.Tensor("linear.weight")
	if err != nil {
		return nil, err
	}
	if !linearWeight.HasShape(vocabSize, cfg.HiddenSize) {
		return nil, fmt.Errorf("%w: linear.weight want [%d %d], got %v", ErrShapeMismatch, vocabSize, cfg.HiddenSize, linearWeight.Shape)
	}

	var linearBias *Tensor
	if src.Has("linear.bias") {
		if linearBias, err = src.Tensor("linear.bias"); err != nil {
			return nil, err
		}
		if !linearBias.HasShape(vocabSize) {
			return nil, fmt.Errorf("%w: linear.bias want [%d], got %v", ErrShapeMismatch, vocabSize, linearBias.Shape)
		}
	}

	cfg.VocabSize = vocabSize
	return &DecoderRNN{
		Config:       cfg,
		Embed:        embed,
		LSTM:         lstm,
		LinearWeight: linearWeight,
		LinearBias:   linearBias,
	}, nil
}

// Embedding returns the embedding row for a token id
func (d *DecoderRNN) Embedding(id int) []float32 {
	return d.Embed.Row(id)
}

// Step runs one LSTM step and returns vocabulary logits
func (d *DecoderRNN) Step(input []float32, state *LSTMState) []float32 {
	hidden := d.LSTM.Step(input, state)
	return Linear(d.LinearWeight, d.LinearBias, hidden)
}
