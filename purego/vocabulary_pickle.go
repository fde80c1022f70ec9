package purego

import (
	"fmt"
	"io"
	"math/big"

	"github.com/nlpodyssey/gopickle/pickle"
)

// pyDict is the part of gopickle's dict types we rely on
type pyDict interface {
	Get(key interface{}) (interface{}, bool)
	Keys() []interface{}
	Len() int
}

// vocabularyClass stands in for the Python Vocabulary class during unpickling
type vocabularyClass struct{}

// PyNew is called for the NEWOBJ opcode
func (vocabularyClass) PyNew(args ...interface{}) (interface{}, error) {
	return &pickledVocabulary{}, nil
}

// pickledVocabulary receives the instance __dict__ through BUILD
type pickledVocabulary struct {
	word2idx map[string]int
	idx2word map[int]string
}

// PySetState is called for the BUILD opcode with the instance __dict__
func (p *pickledVocabulary) PySetState(state interface{}) error {
	d, ok := state.(pyDict)
	if !ok {
		return fmt.Errorf("vocabulary state is %T, not a dict", state)
	}

	if raw, ok := d.Get("idx2word"); ok {
		idx2word, ok := raw.(pyDict)
		if !ok {
			return fmt.Errorf("idx2word is %T, not a dict", raw)
		}
		p.idx2word = make(map[int]string, idx2word.Len())
		for _, k := range idx2word.Keys() {
			id, err := pyInt(k)
			if err != nil {
				return fmt.Errorf("idx2word key: %w", err)
			}
			v, _ := idx2word.Get(k)
			word, ok := v.(string)
			if !ok {
				return fmt.Errorf("idx2word[%d] is %T, not a string", id, v)
			}
			p.idx2word[id] = word
		}
	}

	if raw, ok := d.Get("word2idx"); ok {
		word2idx, ok := raw.(pyDict)
		if !ok {
			return fmt.Errorf("word2idx is %T, not a dict", raw)
		}
		p.word2idx = make(map[string]int, word2idx.Len())
		for _, k := range word2idx.Keys() {
			word, ok := k.(string)
			if !ok {
				return fmt.Errorf("word2idx key is %T, not a string", k)
			}
			v, _ := word2idx.Get(k)
			id, err := pyInt(v)
			if err != nil {
				return fmt.Errorf("word2idx[%q]: %w", word, err)
			}
			p.word2idx[word] = id
		}
	}

	return nil
}

func pyInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, fmt.Errorf("integer %s out of range", n)
		}
		return int(n.Int64()), nil
	default:
		return 0, fmt.Errorf("%T is not an integer", v)
	}
}

// ReadPickleVocabulary unpickles a Vocabulary object saved with pickle.dump.
// The defining module does not matter, only the class name.
func ReadPickleVocabulary(r io.Reader) (*Vocabulary, error) {
	u := pickle.NewUnpickler(r)
	u.FindClass = func(module, name string) (interface{}, error) {
		if name == "Vocabulary" {
			return vocabularyClass{}, nil
		}
		return nil, fmt.Errorf("unexpected class %s.%s in vocabulary pickle", module, name)
	}

	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to unpickle vocabulary: %w", err)
	}

	p, ok := obj.(*pickledVocabulary)
	if !ok {
		return nil, fmt.Errorf("pickle holds %T, not a Vocabulary", obj)
	}

	switch {
	case p.idx2word != nil:
		v, err := finish(fromIdx2Word(p.idx2word))
		if err != nil {
			return nil, err
		}
		if p.word2idx != nil && len(p.word2idx) != v.Len() {
			return nil, fmt.Errorf("vocabulary is not a bijection: word2idx has %d entries, idx2word %d", len(p.word2idx), v.Len())
		}
		return v, nil
	case p.word2idx != nil:
		return finish(fromWord2Idx(p.word2idx))
	default:
		return nil, fmt.Errorf("vocabulary pickle has neither word2idx nor idx2word")
	}
}
