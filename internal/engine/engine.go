// Package engine wraps the native inference runtimes behind a single
// tensor-in, tensor-out interface. The network itself is opaque: the
// runtimes load a model file and execute it.
package engine

import (
	"fmt"
	"strings"

	"github.com/mpromonet/vision-examples/internal/tensor"
)

const (
	ONNX   = "onnx"
	OpenCV = "opencv"
	TFLite = "tflite"
)

// Tensor and Info are shared with the decoders, which do not depend on the
// native runtimes.
type (
	Tensor = tensor.Tensor
	Info   = tensor.Info
)

func NewTensor(name string, data []float32, shape ...int64) Tensor {
	return tensor.New(name, data, shape...)
}

type Engine interface {
	Inputs() []Info
	Outputs() []Info
	Run(inputs []Tensor) ([]Tensor, error)
	Close() error
}

type Options struct {
	// Threads is the number of CPU threads of the runtime, 0 for its default.
	Threads int
	// EdgeTPU enables the Edge TPU delegate of TFLite when a device is present.
	EdgeTPU bool
}

// Open loads the model at path with the given backend.
func Open(backend, path string, opts Options) (Engine, error) {
	switch strings.ToLower(backend) {
	case ONNX:
		return newONNX(path, opts)
	case OpenCV:
		return newOpenCV(path, opts)
	case TFLite:
		return newTFLite(path, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Find returns the tensor with the given name.
func Find(tensors []Tensor, name string) (Tensor, bool) {
	return tensor.Find(tensors, name)
}

// FindLike returns the first tensor whose name contains one of the
// fragments, case insensitive.
func FindLike(tensors []Tensor, fragments ...string) (Tensor, bool) {
	return tensor.FindLike(tensors, fragments...)
}
