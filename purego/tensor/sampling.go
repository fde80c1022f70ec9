package tensor

import (
	"math"
	"math/rand"
	"sort"
)

// SamplingParams holds parameters for token sampling
type SamplingParams struct {
	Temperature float32 // 0 means greedy
	TopP        float32 // Nucleus sampling
	TopK        int     // Top-k sampling
}

// DefaultSamplingParams returns greedy sampling parameters
func DefaultSamplingParams() *SamplingParams {
	return &SamplingParams{
		Temperature: 0,
		TopP:        1.0,
		TopK:        0, // 0 means disabled
	}
}

// Argmax returns the index of the largest logit. Ties go to the lowest
// index, matching torch.max.
func Argmax(logits []float32) int {
	best := 0
	for i := 1; i < len(logits); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return best
}

// Sample picks a token from logits. logits is not modified.
func Sample(logits []float32, params *SamplingParams, rng *rand.Rand) int {
	if params == nil {
		params = DefaultSamplingParams()
	}

	if params.Temperature <= 0 || params.TopK == 1 {
		return Argmax(logits)
	}

	scaled := make([]float32, len(logits))
	for i, l := range logits {
		scaled[i] = l / params.Temperature
	}

	// Convert logits to probabilities using softmax
	probs := softmax(scaled)

	// Apply top-k filtering
	if params.TopK > 0 && params.TopK < len(probs) {
		probs = topKFiltering(probs, params.TopK)
	}

	// Apply top-p (nucleus) filtering
	if params.TopP > 0 && params.TopP < 1.0 {
		probs = topPFiltering(probs, params.TopP)
	}

	return sampleMultinomial(probs, rng)
}

// softmax converts logits to probabilities
func softmax(logits []float32) []float32 {
	// Find max for numerical stability
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float32, len(logits))
	sum := float32(0)
	for i, l := range logits {
		probs[i] = float32(math.Exp(float64(l - maxLogit)))
		sum += probs[i]
	}

	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

type indexedProb struct {
	idx  int
	prob float32
}

func sortedByProb(probs []float32) []indexedProb {
	indexed := make([]indexedProb, len(probs))
	for i, p := range probs {
		indexed[i] = indexedProb{i, p}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].prob > indexed[j].prob
	})
	return indexed
}

// topKFiltering keeps only top-k probabilities, zeros out the rest
func topKFiltering(probs []float32, k int) []float32 {
	indexed := sortedByProb(probs)

	result := make([]float32, len(probs))
	for i := 0; i < k && i < len(indexed); i++ {
		result[indexed[i].idx] = indexed[i].prob
	}

	return result
}

// topPFiltering keeps the smallest set of tokens whose mass reaches p
func topPFiltering(probs []float32, p float32) []float32 {
	indexed := sortedByProb(probs)

	cumProb := float32(0)
	cutoff := len(indexed)
	for i, item := range indexed {
		cumProb += item.prob
		if cumProb >= p {
			cutoff = i + 1
			break
		}
	}

	result := make([]float32, len(probs))
	for i := 0; i < cutoff; i++ {
		result[indexed[i].idx] = indexed[i].prob
	}

	return result
}

// sampleMultinomial samples from an unnormalized distribution
func sampleMultinomial(probs []float32, rng *rand.Rand) int {
	cumProbs := make([]float32, len(probs))
	cumProbs[0] = probs[0]
	for i := 1; i < len(probs); i++ {
		cumProbs[i] = cumProbs[i-1] + probs[i]
	}

	r := rng.Float32() * cumProbs[len(cumProbs)-1]

	idx := sort.Search(len(cumProbs), func(i int) bool {
		return cumProbs[i] > r
	})

	if idx >= len(probs) {
		idx = len(probs) - 1
	}

	return idx
}
