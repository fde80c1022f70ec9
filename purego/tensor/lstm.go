package tensor

import "fmt"

// LSTMLayer holds one layer of a PyTorch nn.LSTM. Gate rows are stacked in
// the order input, forget, cell, output.
type LSTMLayer struct {
	WeightIH *Tensor // [4H, in]
	WeightHH *Tensor // [4H, H]
	BiasIH   *Tensor // [4H], optional
	BiasHH   *Tensor // [4H], optional
}

// LSTM is a stack of LSTM layers evaluated one time step at a time
type LSTM struct {
	Layers     []*LSTMLayer
	InputSize  int
	HiddenSize int
}

// LSTMState carries hidden and cell vectors per layer between steps
type LSTMState struct {
	H [][]float32
	C [][]float32
}

// NewLSTM validates layer shapes and builds the stack
func NewLSTM(layers []*LSTMLayer, inputSize, hiddenSize int) (*LSTM, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("lstm needs at least one layer")
	}
	for i, l := range layers {
		in := hiddenSize
		if i == 0 {
			in = inputSize
		}
		if !l.WeightIH.HasShape(4*hiddenSize, in) {
			return nil, fmt.Errorf("layer %d weight_ih: want [%d %d], got %v", i, 4*hiddenSize, in, l.WeightIH.Shape)
		}
		if !l.WeightHH.HasShape(4*hiddenSize, hiddenSize) {
			return nil, fmt.Errorf("layer %d weight_hh: want [%d %d], got %v", i, 4*hiddenSize, hiddenSize, l.WeightHH.Shape)
		}
		if l.BiasIH != nil && !l.BiasIH.HasShape(4*hiddenSize) {
			return nil, fmt.Errorf("layer %d bias_ih: want [%d], got %v", i, 4*hiddenSize, l.BiasIH.Shape)
		}
		if l.BiasHH != nil && !l.BiasHH.HasShape(4*hiddenSize) {
			return nil, fmt.Errorf("layer %d bias_hh: want [%d], got %v", i, 4*hiddenSize, l.BiasHH.Shape)
		}
	}
	return &LSTM{
		Layers:     layers,
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
	}, nil
}

// NewState returns a zero state, as PyTorch uses when no state is passed
func (l *LSTM) NewState() *LSTMState {
	s := &LSTMState{
		H: make([][]float32, len(l.Layers)),
		C: make([][]float32, len(l.Layers)),
	}
	for i := range l.Layers {
		s.H[i] = make([]float32, l.HiddenSize)
		s.C[i] = make([]float32, l.HiddenSize)
	}
	return s
}

// Step feeds one input vector through every layer, updates state in place
// and returns the top layer's hidden vector.
func (l *LSTM) Step(x []float32, state *LSTMState) []float32 {
	if len(x) != l.InputSize {
		panic(fmt.Sprintf("lstm input: want %d, got %d", l.InputSize, len(x)))
	}

	input := x
	for i, layer := range l.Layers {
		h, c := layer.step(input, state.H[i], state.C[i], l.HiddenSize)
		state.H[i] = h
		state.C[i] = c
		input = h
	}
	return input
}

func (layer *LSTMLayer) step(x, hPrev, cPrev []float32, hidden int) ([]float32, []float32) {
	gates := Linear(layer.WeightIH, layer.BiasIH, x)
	AddInPlace(gates, Linear(layer.WeightHH, layer.BiasHH, hPrev))

	h := make([]float32, hidden)
	c := make([]float32, hidden)
	for j := 0; j < hidden; j++ {
		i := Sigmoid(gates[j])
		f := Sigmoid(gates[hidden+j])
		g := Tanh(gates[2*hidden+j])
		o := Sigmoid(gates[3*hidden+j])

		c[j] = f*cPrev[j] + i*g
		h[j] = o * Tanh(c[j])
	}
	return h, c
}
