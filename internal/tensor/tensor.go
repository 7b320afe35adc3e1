// Package tensor holds the dense float32 tensors exchanged with the
// inference backends. It has no cgo dependency.
package tensor

import (
	"errors"
	"fmt"
	"strings"
)

var ErrShape = errors.New("tensor shape mismatch")

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float32
}

func New(name string, data []float32, shape ...int64) Tensor {
	return Tensor{Name: name, Shape: shape, Data: data}
}

func (t Tensor) NumDims() int {
	return len(t.Shape)
}

// Dim returns the size of axis i. Negative i counts from the end.
func (t Tensor) Dim(i int) int {
	if i < 0 {
		i += len(t.Shape)
	}
	if i < 0 || i >= len(t.Shape) {
		return 0
	}
	return int(t.Shape[i])
}

func (t Tensor) Size() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

func (t Tensor) Validate() error {
	if t.Size() != len(t.Data) {
		return fmt.Errorf("%w: tensor %q shape %v holds %d values, got %d", ErrShape, t.Name, t.Shape, t.Size(), len(t.Data))
	}
	return nil
}

// Plane returns the i-th slice along the axis before the last two, that is
// channel i of a [N,C,H,W] or [C,H,W] tensor with batch 0.
func (t Tensor) Plane(i int) []float32 {
	h, w := t.Dim(-2), t.Dim(-1)
	n := h * w
	if n == 0 || (i+1)*n > len(t.Data) {
		return nil
	}
	return t.Data[i*n : (i+1)*n]
}

// Info describes a model input or output as declared by the model file.
// Unknown dimensions are reported as -1.
type Info struct {
	Name  string
	Shape []int64
	Type  string
}

func (i Info) String() string {
	return fmt.Sprintf("%s%v:%s", i.Name, i.Shape, i.Type)
}

// Find returns the tensor with the given name.
func Find(tensors []Tensor, name string) (Tensor, bool) {
	for _, t := range tensors {
		if t.Name == name {
			return t, true
		}
	}
	return Tensor{}, false
}

// FindLike returns the first tensor whose name contains one of the
// fragments, case insensitive.
func FindLike(tensors []Tensor, fragments ...string) (Tensor, bool) {
	for _, t := range tensors {
		name := strings.ToLower(t.Name)
		for _, f := range fragments {
			if strings.Contains(name, strings.ToLower(f)) {
				return t, true
			}
		}
	}
	return Tensor{}, false
}
