package engine

import (
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// LibraryEnv names the environment variable holding the path of the
// onnxruntime shared library.
const LibraryEnv = "ONNXRUNTIME_LIB"

var (
	ortOnce sync.Once
	ortErr  error
)

func initONNX() error {
	ortOnce.Do(func() {
		if lib := os.Getenv(LibraryEnv); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return ortErr
}

// Shutdown releases the process wide onnxruntime environment.
func Shutdown() {
	if ort.IsInitialized() {
		if err := ort.DestroyEnvironment(); err != nil {
			log.Warnf("destroy ONNX environment: %v", err)
		}
	}
}

type onnxEngine struct {
	session *ort.DynamicAdvancedSession
	inputs  []Info
	outputs []Info
}

func newONNX(path string, opts Options) (*onnxEngine, error) {
	if err := initONNX(); err != nil {
		return nil, err
	}

	ins, outs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()
	if opts.Threads > 0 {
		if err := options.SetIntraOpNumThreads(opts.Threads); err != nil {
			return nil, fmt.Errorf("set intra op threads: %w", err)
		}
	}

	e := &onnxEngine{}
	var inNames, outNames []string
	for _, i := range ins {
		e.inputs = append(e.inputs, Info{Name: i.Name, Shape: []int64(i.Dimensions), Type: i.DataType.String()})
		inNames = append(inNames, i.Name)
	}
	for _, o := range outs {
		e.outputs = append(e.outputs, Info{Name: o.Name, Shape: []int64(o.Dimensions), Type: o.DataType.String()})
		outNames = append(outNames, o.Name)
	}

	e.session, err = ort.NewDynamicAdvancedSession(path, inNames, outNames, options)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	log.Debugf("onnx model %s inputs %v outputs %v", path, e.inputs, e.outputs)
	return e, nil
}

func (e *onnxEngine) Inputs() []Info  { return e.inputs }
func (e *onnxEngine) Outputs() []Info { return e.outputs }

func (e *onnxEngine) Run(inputs []Tensor) ([]Tensor, error) {
	values := make([]ort.Value, len(e.inputs))
	outputs := make([]ort.Value, len(e.outputs))
	defer destroyValues(values)
	defer destroyValues(outputs)

	for i, info := range e.inputs {
		t, ok := Find(inputs, info.Name)
		if !ok {
			if len(e.inputs) != 1 || len(inputs) != 1 {
				return nil, fmt.Errorf("%w: %s", ErrMissingInput, info.Name)
			}
			t = inputs[0]
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		v, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
		if err != nil {
			return nil, fmt.Errorf("create input %s: %w", info.Name, err)
		}
		values[i] = v
	}

	// nil outputs are allocated by onnxruntime with their actual shape
	if err := e.session.Run(values, outputs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvoke, err)
	}

	result := make([]Tensor, 0, len(outputs))
	for i, v := range outputs {
		t, err := fromOrtValue(e.outputs[i].Name, v)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (e *onnxEngine) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func fromOrtValue(name string, v ort.Value) (Tensor, error) {
	t := Tensor{Name: name}
	switch o := v.(type) {
	case *ort.Tensor[float32]:
		t.Shape = []int64(o.GetShape())
		t.Data = append([]float32(nil), o.GetData()...)
	case *ort.Tensor[int32]:
		t.Shape = []int64(o.GetShape())
		t.Data = toFloat32(o.GetData())
	case *ort.Tensor[int64]:
		t.Shape = []int64(o.GetShape())
		t.Data = toFloat32(o.GetData())
	default:
		return t, fmt.Errorf("%w: output %s is %T", ErrUnsupportedType, name, v)
	}
	return t, nil
}

func toFloat32[T int32 | int64 | uint8](in []T) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}
