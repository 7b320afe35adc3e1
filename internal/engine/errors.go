package engine

import (
	"errors"

	"github.com/mpromonet/vision-examples/internal/tensor"
)

var (
	ErrUnknownBackend  = errors.New("unknown inference backend")
	ErrMissingInput    = errors.New("missing model input")
	ErrUnsupportedType = errors.New("unsupported tensor element type")
	ErrShape           = tensor.ErrShape
	ErrInvoke          = errors.New("inference failed")
	ErrLoad            = errors.New("cannot load model")
)
