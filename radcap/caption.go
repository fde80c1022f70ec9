package radcap

import (
	"errors"
	"fmt"
	"strings"
)

// Special tokens written by the vocabulary builder
const (
	PadToken   = "<pad>"
	StartToken = "<start>"
	EndToken   = "<end>"
	UnkToken   = "<unk>"
)

var (
	// ErrUnknownID is returned when a token id has no word
	ErrUnknownID = errors.New("unknown token id")

	// ErrShapeMismatch is returned when weights disagree with the configured hyperparameters
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Caption is a decoded token sequence
type Caption struct {
	TokenIDs []int
	Words    []string
}

// String joins every decoded word, special tokens included
func (c Caption) String() string {
	return strings.Join(c.Words, " ")
}

// Text joins the decoded words without special tokens
func (c Caption) Text() string {
	words := make([]string, 0, len(c.Words))
	for _, w := range c.Words {
		switch w {
		case StartToken, EndToken, PadToken:
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// DecodeCaption maps ids to words and stops right after the first <end>.
// If no <end> is sampled the whole sequence is kept.
func DecodeCaption(vocab Vocabulary, ids []int) (Caption, error) {
	c := Caption{
		TokenIDs: make([]int, 0, len(ids)),
		Words:    make([]string, 0, len(ids)),
	}

	for _, id := range ids {
		word, err := vocab.Word(id)
		if err != nil {
			return Caption{}, fmt.Errorf("failed to decode caption: %w", err)
		}
		c.TokenIDs = append(c.TokenIDs, id)
		c.Words = append(c.Words, word)
		if word == EndToken {
			break
		}
	}

	return c, nil
}

// Sequence accumulates sampled token ids up to a fixed length. Sampling
// runs past <end>; DecodeCaption truncates afterwards.
type Sequence struct {
	TokenIDs  []int
	MaxTokens int
}

// NewSequence creates an empty sequence
func NewSequence(maxTokens int) *Sequence {
	return &Sequence{
		TokenIDs:  make([]int, 0, maxTokens),
		MaxTokens: maxTokens,
	}
}

// IsFinished returns true once MaxTokens tokens have been sampled
func (s *Sequence) IsFinished() bool {
	return len(s.TokenIDs) >= s.MaxTokens
}

// AppendToken appends a token to the sequence
func (s *Sequence) AppendToken(tokenID int) {
	s.TokenIDs = append(s.TokenIDs, tokenID)
}
