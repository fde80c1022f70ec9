package purego

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radcap-go/purego/tensor"
	"radcap-go/radcap"
)

// chainWeights builds a one-unit decoder whose argmax follows a fixed chain:
// the features lead to <start>, and each word's embedding leads to the next
// word in "<start> no acute fracture <end>", after which <end> repeats.
func chainWeights(t *testing.T, vocab *Vocabulary) tensor.MapWeights {
	t.Helper()
	const embed, hidden = 8, 8
	v := vocab.Len()

	// Identity-ish LSTM: the input gate and cell gate pass the input through,
	// so the hidden vector is a monotone function of the one-hot input.
	wih := tensor.NewTensor(4*hidden, embed)
	for j := 0; j < hidden; j++ {
		wih.Row(j)[j] = 10            // input gate open where the input is hot
		wih.Row(2*hidden + j)[j] = 10 // cell candidate follows the input
		wih.Row(3*hidden + j)[j] = 10 // output gate open
	}
	bias := tensor.NewTensor(4 * hidden)
	for j := 0; j < hidden; j++ {
		bias.Data[hidden+j] = -10 // forget everything between steps
	}

	// embedding of id k is one-hot at slot k
	emb := tensor.NewTensor(v, embed)
	for k := 0; k < v && k < embed; k++ {
		emb.Row(k)[k] = 1
	}

	// linear head: hidden slot k votes for next(k)
	next := map[int]int{
		vocab.ID("<pad>"):    vocab.ID("<start>"), // image features are one-hot at slot 0
		vocab.ID("<start>"):  vocab.ID("no"),
		vocab.ID("no"):       vocab.ID("acute"),
		vocab.ID("acute"):    vocab.ID("fracture"),
		vocab.ID("fracture"): vocab.ID("<end>"),
		vocab.ID("<end>"):    vocab.ID("<end>"),
	}
	lin := tensor.NewTensor(v, hidden)
	for from, to := range next {
		lin.Row(to)[from] = 1
	}

	return tensor.MapWeights{
		"embed.weight":      emb,
		"lstm.weight_ih_l0": wih,
		"lstm.weight_hh_l0": tensor.NewTensor(4*hidden, hidden),
		"lstm.bias_ih_l0":   bias,
		"lstm.bias_hh_l0":   tensor.NewTensor(4 * hidden),
		"linear.weight":     lin,
		"linear.bias":       tensor.NewTensor(v),
	}
}

func chainVocab() *Vocabulary {
	v := NewVocabulary()
	v.AddWord("no")
	v.AddWord("acute")
	v.AddWord("fracture")
	return v
}

func TestNativeDecoderGreedy(t *testing.T) {
	vocab := chainVocab()
	config := radcap.NewConfig(radcap.WithEmbedSize(8), radcap.WithHiddenSize(8))

	d, err := NewNativeDecoderFromWeights(chainWeights(t, vocab), config, vocab)
	require.NoError(t, err)
	defer d.Close()

	features := make([]float32, 8)
	features[0] = 1

	ids, err := d.Sample(context.Background(), features, radcap.NewSamplingParams(radcap.WithMaxTokens(8)))
	require.NoError(t, err)
	assert.Len(t, ids, 8, "sampling runs for the full length")

	caption, err := radcap.DecodeCaption(vocab, ids)
	require.NoError(t, err)
	assert.Equal(t, "<start> no acute fracture <end>", caption.String())
}

func TestNativeDecoderShapeChecks(t *testing.T) {
	vocab := chainVocab()
	weights := chainWeights(t, vocab)

	_, err := NewNativeDecoderFromWeights(weights, radcap.NewConfig(radcap.WithEmbedSize(16), radcap.WithHiddenSize(8)), vocab)
	assert.True(t, errors.Is(err, radcap.ErrShapeMismatch))

	bigger := chainVocab()
	bigger.AddWord("effusion")
	_, err = NewNativeDecoderFromWeights(weights, radcap.NewConfig(radcap.WithEmbedSize(8), radcap.WithHiddenSize(8)), bigger)
	assert.True(t, errors.Is(err, radcap.ErrShapeMismatch))

	d, err := NewNativeDecoderFromWeights(weights, radcap.NewConfig(radcap.WithEmbedSize(8), radcap.WithHiddenSize(8)), vocab)
	require.NoError(t, err)
	_, err = d.Sample(context.Background(), make([]float32, 4), nil)
	assert.True(t, errors.Is(err, radcap.ErrShapeMismatch))
}

func TestNativeDecoderSeededSampling(t *testing.T) {
	vocab := chainVocab()
	config := radcap.NewConfig(radcap.WithEmbedSize(8), radcap.WithHiddenSize(8))
	d, err := NewNativeDecoderFromWeights(chainWeights(t, vocab), config, vocab)
	require.NoError(t, err)

	features := make([]float32, 8)
	features[0] = 1
	params := radcap.NewSamplingParams(radcap.WithTemperature(1.5), radcap.WithSeed(42))

	a, err := d.Sample(context.Background(), features, params)
	require.NoError(t, err)
	b, err := d.Sample(context.Background(), features, params)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same caption")
}

func TestNativeDecoderCancelled(t *testing.T) {
	vocab := chainVocab()
	config := radcap.NewConfig(radcap.WithEmbedSize(8), radcap.WithHiddenSize(8))
	d, err := NewNativeDecoderFromWeights(chainWeights(t, vocab), config, vocab)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Sample(ctx, make([]float32, 8), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
