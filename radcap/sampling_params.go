package radcap

import "fmt"

// SamplingParams holds the sampling parameters for caption generation.
// A zero Temperature selects greedy decoding, which is what the trained
// decoders were evaluated with.
type SamplingParams struct {
	Temperature float64
	TopK        int
	TopP        float64
	MaxTokens   int
	Seed        int64
}

// SamplingOption is a functional option for SamplingParams
type SamplingOption func(*SamplingParams)

// NewSamplingParams creates a new SamplingParams with default values
func NewSamplingParams(opts ...SamplingOption) *SamplingParams {
	sp := &SamplingParams{
		Temperature: 0,
		TopK:        0,
		TopP:        1.0,
		MaxTokens:   20,
		Seed:        1,
	}

	for _, opt := range opts {
		opt(sp)
	}

	if err := sp.validate(); err != nil {
		panic(err)
	}

	return sp
}

// validate checks if the sampling parameters are valid
func (sp *SamplingParams) validate() error {
	if sp.Temperature < 0 {
		return fmt.Errorf("temperature must be >= 0, got %f", sp.Temperature)
	}
	if sp.TopK < 0 {
		return fmt.Errorf("top_k must be >= 0, got %d", sp.TopK)
	}
	if sp.TopP <= 0 || sp.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1], got %f", sp.TopP)
	}
	if sp.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", sp.MaxTokens)
	}
	return nil
}

// IsGreedy reports whether the parameters reduce to argmax decoding
func (sp *SamplingParams) IsGreedy() bool {
	return sp.Temperature == 0 || sp.TopK == 1
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) SamplingOption {
	return func(sp *SamplingParams) {
		sp.Temperature = t
	}
}

// WithTopK restricts sampling to the k most likely tokens
func WithTopK(k int) SamplingOption {
	return func(sp *SamplingParams) {
		sp.TopK = k
	}
}

// WithTopP sets the nucleus sampling threshold
func WithTopP(p float64) SamplingOption {
	return func(sp *SamplingParams) {
		sp.TopP = p
	}
}

// WithMaxTokens sets the maximum number of tokens to generate
func WithMaxTokens(n int) SamplingOption {
	return func(sp *SamplingParams) {
		sp.MaxTokens = n
	}
}

// WithSeed sets the random seed used for non-greedy sampling
func WithSeed(seed int64) SamplingOption {
	return func(sp *SamplingParams) {
		sp.Seed = seed
	}
}
