package radcap

import (
	"context"
	"fmt"
)

// Encoder turns a preprocessed image into a feature vector.
// This can be implemented using various backends:
// - ONNX Runtime sessions over an exported CNN
// - HTTP/gRPC calls to an inference server
type Encoder interface {
	// Encode runs the forward pass on a [1,3,S,S] CHW tensor
	Encode(ctx context.Context, pixels []float32) ([]float32, error)

	// EmbedSize returns the width of the produced feature vector
	EmbedSize() int

	// Close cleans up resources
	Close() error
}

// Decoder samples a sequence of token ids from an image feature vector
type Decoder interface {
	// Sample returns up to params.MaxTokens token ids
	Sample(ctx context.Context, features []float32, params *SamplingParams) ([]int, error)

	// Close cleans up resources
	Close() error
}

// Transform loads an image from disk and produces the encoder input
type Transform interface {
	// Apply returns a [1,3,S,S] normalized tensor in CHW order
	Apply(path string) ([]float32, error)

	// Mode names the preprocessing variant, used as part of cache keys
	Mode() string
}

// Vocabulary is a bijection between words and token ids
type Vocabulary interface {
	// Word returns the word for an id, or ErrUnknownID
	Word(id int) (string, error)

	// ID returns the id for a word, falling back to the <unk> id
	ID(word string) int

	// Len returns the number of entries
	Len() int

	// StartID returns the <start> token id
	StartID() int

	// EndID returns the <end> token id
	EndID() int
}

// MockEncoder returns a fixed feature vector and counts calls
type MockEncoder struct {
	Features []float32
	Calls    int
}

// NewMockEncoder creates a mock encoder producing embedSize features
func NewMockEncoder(embedSize int) *MockEncoder {
	features := make([]float32, embedSize)
	for i := range features {
		features[i] = float32(i) / float32(embedSize)
	}
	return &MockEncoder{Features: features}
}

// Encode returns a copy of the configured features
func (m *MockEncoder) Encode(ctx context.Context, pixels []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Calls++
	out := make([]float32, len(m.Features))
	copy(out, m.Features)
	return out, nil
}

// EmbedSize returns the feature width
func (m *MockEncoder) EmbedSize() int {
	return len(m.Features)
}

// Close cleans up resources
func (m *MockEncoder) Close() error {
	return nil
}

// MockDecoder replays a fixed id sequence, truncated to MaxTokens
type MockDecoder struct {
	IDs []int
}

// NewMockDecoder creates a mock decoder
func NewMockDecoder(ids ...int) *MockDecoder {
	return &MockDecoder{IDs: ids}
}

// Sample returns the configured ids
func (m *MockDecoder) Sample(ctx context.Context, features []float32, params *SamplingParams) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no features to decode")
	}
	n := len(m.IDs)
	if params != nil && params.MaxTokens < n {
		n = params.MaxTokens
	}
	out := make([]int, n)
	copy(out, m.IDs[:n])
	return out, nil
}

// Close cleans up resources
func (m *MockDecoder) Close() error {
	return nil
}

// MockTransform returns a constant tensor without touching the image bytes
type MockTransform struct {
	Size int
}

// Apply returns a zero tensor of the configured size
func (m *MockTransform) Apply(path string) ([]float32, error) {
	return make([]float32, 3*m.Size*m.Size), nil
}

// Mode names the preprocessing variant
func (m *MockTransform) Mode() string {
	return "mock"
}

// MockVocabulary is a slice-backed vocabulary for tests
type MockVocabulary struct {
	words []string
	ids   map[string]int
}

// NewMockVocabulary builds a vocabulary from words in id order
func NewMockVocabulary(words ...string) *MockVocabulary {
	ids := make(map[string]int, len(words))
	for i, w := range words {
		ids[w] = i
	}
	return &MockVocabulary{words: words, ids: ids}
}

// Word returns the word for an id
func (v *MockVocabulary) Word(id int) (string, error) {
	if id < 0 || id >= len(v.words) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return v.words[id], nil
}

// ID returns the id for a word
func (v *MockVocabulary) ID(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return v.ids[UnkToken]
}

// Len returns the number of entries
func (v *MockVocabulary) Len() int {
	return len(v.words)
}

// StartID returns the <start> token id
func (v *MockVocabulary) StartID() int {
	return v.ID(StartToken)
}

// EndID returns the <end> token id
func (v *MockVocabulary) EndID() int {
	return v.ID(EndToken)
}
