package purego

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"radcap-go/radcap"
)

// Vocabulary is the word/id table written by the training-side vocabulary
// builder. Ids are dense and start at zero.
type Vocabulary struct {
	word2idx map[string]int
	idx2word map[int]string
}

// NewVocabulary creates a vocabulary holding the four special tokens in
// their conventional order.
func NewVocabulary() *Vocabulary {
	v := &Vocabulary{
		word2idx: make(map[string]int),
		idx2word: make(map[int]string),
	}
	v.AddWord(radcap.PadToken)
	v.AddWord(radcap.StartToken)
	v.AddWord(radcap.EndToken)
	v.AddWord(radcap.UnkToken)
	return v
}

// AddWord appends a word with the next free id. Known words are ignored.
func (v *Vocabulary) AddWord(word string) {
	if _, ok := v.word2idx[word]; ok {
		return
	}
	id := len(v.word2idx)
	v.word2idx[word] = id
	v.idx2word[id] = word
}

// Word returns the word for an id
func (v *Vocabulary) Word(id int) (string, error) {
	word, ok := v.idx2word[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", radcap.ErrUnknownID, id)
	}
	return word, nil
}

// ID returns the id for a word, or the <unk> id
func (v *Vocabulary) ID(word string) int {
	if id, ok := v.word2idx[word]; ok {
		return id
	}
	return v.word2idx[radcap.UnkToken]
}

// Len returns the number of words
func (v *Vocabulary) Len() int {
	return len(v.idx2word)
}

// StartID returns the <start> token id
func (v *Vocabulary) StartID() int {
	return v.word2idx[radcap.StartToken]
}

// EndID returns the <end> token id
func (v *Vocabulary) EndID() int {
	return v.word2idx[radcap.EndToken]
}

// validate checks that word2idx and idx2word describe the same bijection
// and that the tokens needed for decoding exist.
func (v *Vocabulary) validate() error {
	if len(v.word2idx) != len(v.idx2word) {
		return fmt.Errorf("vocabulary is not a bijection: %d words, %d ids", len(v.word2idx), len(v.idx2word))
	}
	for word, id := range v.word2idx {
		if back, ok := v.idx2word[id]; !ok || back != word {
			return fmt.Errorf("vocabulary is not a bijection: %q -> %d -> %q", word, id, back)
		}
	}
	for _, special := range []string{radcap.EndToken, radcap.UnkToken} {
		if _, ok := v.word2idx[special]; !ok {
			return fmt.Errorf("vocabulary has no %s token", special)
		}
	}
	return nil
}

// fromIdx2Word fills word2idx from idx2word
func fromIdx2Word(idx2word map[int]string) (*Vocabulary, error) {
	v := &Vocabulary{
		word2idx: make(map[string]int, len(idx2word)),
		idx2word: idx2word,
	}
	for id, word := range idx2word {
		if prev, ok := v.word2idx[word]; ok {
			return nil, fmt.Errorf("vocabulary is not a bijection: %q has ids %d and %d", word, prev, id)
		}
		v.word2idx[word] = id
	}
	return v, nil
}

// fromWord2Idx fills idx2word from word2idx
func fromWord2Idx(word2idx map[string]int) (*Vocabulary, error) {
	v := &Vocabulary{
		word2idx: word2idx,
		idx2word: make(map[int]string, len(word2idx)),
	}
	for word, id := range word2idx {
		if prev, ok := v.idx2word[id]; ok {
			return nil, fmt.Errorf("vocabulary is not a bijection: id %d maps to %q and %q", id, prev, word)
		}
		v.idx2word[id] = word
	}
	return v, nil
}

// LoadVocabulary loads a pickled Vocabulary object (vocab.pkl) or a JSON
// vocabulary. The format is chosen by extension, then by content.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}

	var v *Vocabulary
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".pkl" || ext == ".pickle":
		v, err = ReadPickleVocabulary(bytes.NewReader(data))
	case ext == ".json":
		v, err = ParseJSONVocabulary(data)
	case len(data) > 0 && data[0] == 0x80:
		// pickle protocol 2+ opcode
		v, err = ReadPickleVocabulary(bytes.NewReader(data))
	default:
		v, err = ParseJSONVocabulary(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary %s: %w", path, err)
	}

	fmt.Printf("✓ Loaded vocabulary (%d words, <end>=%d)\n", v.Len(), v.EndID())
	return v, nil
}

// ParseJSONVocabulary accepts {"word2idx": {...}}, {"idx2word": {...}} or a
// plain array of words in id order.
func ParseJSONVocabulary(data []byte) (*Vocabulary, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var words []string
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return nil, fmt.Errorf("failed to parse vocabulary array: %w", err)
		}
		idx2word := make(map[int]string, len(words))
		for i, w := range words {
			idx2word[i] = w
		}
		return finish(fromIdx2Word(idx2word))
	}

	var raw struct {
		Word2Idx map[string]int    `json:"word2idx"`
		Idx2Word map[string]string `json:"idx2word"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}

	switch {
	case len(raw.Idx2Word) > 0:
		idx2word := make(map[int]string, len(raw.Idx2Word))
		for k, w := range raw.Idx2Word {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("idx2word key %q is not an integer", k)
			}
			idx2word[id] = w
		}
		v, err := finish(fromIdx2Word(idx2word))
		if err != nil {
			return nil, err
		}
		if len(raw.Word2Idx) > 0 && len(raw.Word2Idx) != v.Len() {
			return nil, fmt.Errorf("vocabulary is not a bijection: word2idx has %d entries, idx2word %d", len(raw.Word2Idx), v.Len())
		}
		return v, nil
	case len(raw.Word2Idx) > 0:
		return finish(fromWord2Idx(raw.Word2Idx))
	default:
		return nil, fmt.Errorf("vocabulary has neither word2idx nor idx2word")
	}
}

func finish(v *Vocabulary, err error) (*Vocabulary, error) {
	if err != nil {
		return nil, err
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// WriteJSON writes the vocabulary as {"word2idx": ..., "idx2word": ..., "idx": n}
func (v *Vocabulary) WriteJSON(w io.Writer) error {
	ids := make([]int, 0, len(v.idx2word))
	for id := range v.idx2word {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	idx2word := make(map[string]string, len(ids))
	for _, id := range ids {
		idx2word[strconv.Itoa(id)] = v.idx2word[id]
	}

	out := struct {
		Word2Idx map[string]int    `json:"word2idx"`
		Idx2Word map[string]string `json:"idx2word"`
		Idx      int               `json:"idx"`
	}{v.word2idx, idx2word, len(ids)}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return bw.Flush()
}
