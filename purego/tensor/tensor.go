package tensor

import (
	"fmt"
	"math"
)

// Tensor represents a multi-dimensional array in row-major order
type Tensor struct {
	Data  []float32
	Shape []int
}

// NewTensor creates a new tensor with given shape
func NewTensor(shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return &Tensor{
		Data:  make([]float32, size),
		Shape: shape,
	}
}

// FromSlice wraps data in a tensor, checking the element count
func FromSlice(data []float32, shape ...int) (*Tensor, error) {
	t := &Tensor{Data: data, Shape: shape}
	if t.Size() != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, t.Size(), len(data))
	}
	return t, nil
}

// Size returns total number of elements
func (t *Tensor) Size() int {
	size := 1
	for _, dim := range t.Shape {
		size *= dim
	}
	return size
}

// Row returns the i-th row of a 2D tensor without copying
func (t *Tensor) Row(i int) []float32 {
	if len(t.Shape) != 2 {
		panic("Row requires 2D tensor")
	}
	cols := t.Shape[1]
	return t.Data[i*cols : (i+1)*cols]
}

// HasShape reports whether the tensor has exactly the given shape
func (t *Tensor) HasShape(shape ...int) bool {
	if len(t.Shape) != len(shape) {
		return false
	}
	for i := range shape {
		if t.Shape[i] != shape[i] {
			return false
		}
	}
	return true
}

// MatVec computes w·x for w of shape [out,in] and len(x) == in
func MatVec(w *Tensor, x []float32) []float32 {
	if len(w.Shape) != 2 {
		panic("MatVec requires 2D weight")
	}
	out, in := w.Shape[0], w.Shape[1]
	if len(x) != in {
		panic(fmt.Sprintf("incompatible shapes: [%d,%d] x [%d]", out, in, len(x)))
	}

	result := make([]float32, out)
	for i := 0; i < out; i++ {
		row := w.Data[i*in : (i+1)*in]
		sum := float32(0)
		for j, v := range row {
			sum += v * x[j]
		}
		result[i] = sum
	}
	return result
}

// Linear computes w·x + b. A nil bias is skipped.
func Linear(w, b *Tensor, x []float32) []float32 {
	y := MatVec(w, x)
	if b != nil {
		AddInPlace(y, b.Data)
	}
	return y
}

// AddInPlace adds b to a element-wise
func AddInPlace(a, b []float32) {
	if len(a) != len(b) {
		panic("tensors must have same size")
	}
	for i := range a {
		a[i] += b[i]
	}
}

// Sigmoid returns 1/(1+e^-x)
func Sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// Tanh returns the hyperbolic tangent of x
func Tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
