package tensor

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
)

// WeightSource looks up named parameters
type WeightSource interface {
	Tensor(name string) (*Tensor, error)
	Has(name string) bool
}

// stateDict is satisfied by both types.Dict and types.OrderedDict
type stateDict interface {
	Get(key interface{}) (interface{}, bool)
}

// Checkpoint is a PyTorch state dict saved with torch.save(model.state_dict())
type Checkpoint struct {
	path  string
	state stateDict
}

// LoadCheckpoint reads a .ckpt/.pt/.pth file (legacy or zip format)
func LoadCheckpoint(path string) (*Checkpoint, error) {
	v, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", path, err)
	}

	state, ok := v.(stateDict)
	if !ok {
		return nil, fmt.Errorf("checkpoint %s does not hold a state dict (got %T)", path, v)
	}

	return &Checkpoint{path: path, state: state}, nil
}

// Has reports whether the checkpoint contains a parameter
func (c *Checkpoint) Has(name string) bool {
	_, ok := c.state.Get(name)
	return ok
}

// Tensor copies a parameter out of the checkpoint
func (c *Checkpoint) Tensor(name string) (*Tensor, error) {
	v, ok := c.state.Get(name)
	if !ok {
		return nil, fmt.Errorf("checkpoint %s has no parameter %q", c.path, name)
	}

	pt, ok := v.(*pytorch.Tensor)
	if !ok {
		return nil, fmt.Errorf("parameter %q is %T, not a tensor", name, v)
	}

	t, err := fromPyTorch(pt)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", name, err)
	}
	return t, nil
}

// fromPyTorch converts a contiguous float tensor to a Tensor
func fromPyTorch(pt *pytorch.Tensor) (*Tensor, error) {
	shape := make([]int, len(pt.Size))
	copy(shape, pt.Size)
	numel := 1
	for _, d := range shape {
		numel *= d
	}

	// Only row-major contiguous storage is supported
	expected := 1
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] != 1 && pt.Stride[i] != expected {
			return nil, fmt.Errorf("non-contiguous tensor (size %v, stride %v)", pt.Size, pt.Stride)
		}
		expected *= shape[i]
	}

	start := pt.StorageOffset
	end := start + numel
	data := make([]float32, numel)

	switch s := pt.Source.(type) {
	case *pytorch.FloatStorage:
		if end > len(s.Data) {
			return nil, fmt.Errorf("storage too small: need %d, have %d", end, len(s.Data))
		}
		copy(data, s.Data[start:end])
	case *pytorch.HalfStorage:
		if end > len(s.Data) {
			return nil, fmt.Errorf("storage too small: need %d, have %d", end, len(s.Data))
		}
		copy(data, s.Data[start:end])
	case *pytorch.DoubleStorage:
		if end > len(s.Data) {
			return nil, fmt.Errorf("storage too small: need %d, have %d", end, len(s.Data))
		}
		for i, v := range s.Data[start:end] {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("unsupported storage type %T", pt.Source)
	}

	return FromSlice(data, shape...)
}

// Names lists the parameter names in file order. torch.save writes state
// dicts as an OrderedDict; plain dicts are accepted too.
func (c *Checkpoint) Names() []string {
	var keys []interface{}
	switch d := c.state.(type) {
	case *types.OrderedDict:
		for e := d.List.Front(); e != nil; e = e.Next() {
			keys = append(keys, e.Value.(*types.OrderedDictEntry).Key)
		}
	case interface{ Keys() []interface{} }:
		keys = d.Keys()
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := k.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// MapWeights is an in-memory WeightSource
type MapWeights map[string]*Tensor

// Has reports whether a parameter exists
func (m MapWeights) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Tensor returns a parameter
func (m MapWeights) Tensor(name string) (*Tensor, error) {
	t, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no parameter %q", name)
	}
	return t, nil
}
