package radcap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() *MockVocabulary {
	return NewMockVocabulary(PadToken, StartToken, EndToken, UnkToken, "no", "acute", "fracture")
}

func TestDecodeCaptionStopsAtEnd(t *testing.T) {
	vocab := testVocab()

	c, err := DecodeCaption(vocab, []int{1, 4, 5, 6, 2, 6, 6, 0})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4, 5, 6, 2}, c.TokenIDs)
	assert.Equal(t, "<start> no acute fracture <end>", c.String())
	assert.Equal(t, "no acute fracture", c.Text())
}

func TestDecodeCaptionWithoutEnd(t *testing.T) {
	vocab := testVocab()

	c, err := DecodeCaption(vocab, []int{1, 4, 4, 4})
	require.NoError(t, err)

	assert.Len(t, c.Words, 4)
	assert.Equal(t, "<start> no no no", c.String())
}

func TestDecodeCaptionUnknownID(t *testing.T) {
	_, err := DecodeCaption(testVocab(), []int{1, 99})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownID))
}

func TestSequenceAppendToken(t *testing.T) {
	seq := NewSequence(3)

	seq.AppendToken(1)
	assert.False(t, seq.IsFinished())

	// <end> does not finish the sequence
	seq.AppendToken(2)
	assert.False(t, seq.IsFinished())

	seq.AppendToken(5)
	assert.True(t, seq.IsFinished())
	assert.Equal(t, []int{1, 2, 5}, seq.TokenIDs)
}
