package engine

import (
	"fmt"

	"github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates/edgetpu"
	log "github.com/sirupsen/logrus"
)

type tfliteEngine struct {
	model   *tflite.Model
	interp  *tflite.Interpreter
	inputs  []Info
	outputs []Info
}

func newTFLite(path string, opts Options) (*tfliteEngine, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, path)
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()

	threads := opts.Threads
	if threads <= 0 {
		threads = 4
	}
	options.SetNumThread(threads)

	if opts.EdgeTPU {
		devices, err := edgetpu.DeviceList()
		if err != nil {
			log.Printf("Could not get EdgeTPU devices: %v", err)
		}
		if len(devices) == 0 {
			log.Println("No edge TPU devices found")
		} else {
			options.AddDelegate(edgetpu.New(devices[0]))
		}
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("%w: cannot create interpreter", ErrLoad)
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("%w: allocate failed", ErrLoad)
	}

	e := &tfliteEngine{model: model, interp: interpreter}
	for idx := 0; idx < interpreter.GetInputTensorCount(); idx++ {
		e.inputs = append(e.inputs, tensorInfo(interpreter.GetInputTensor(idx)))
	}
	for idx := 0; idx < interpreter.GetOutputTensorCount(); idx++ {
		e.outputs = append(e.outputs, tensorInfo(interpreter.GetOutputTensor(idx)))
	}
	log.Debugf("tflite model %s inputs %v outputs %v", path, e.inputs, e.outputs)
	return e, nil
}

func tensorInfo(t *tflite.Tensor) Info {
	info := Info{Name: t.Name()}
	for idx := 0; idx < t.NumDims(); idx++ {
		info.Shape = append(info.Shape, int64(t.Dim(idx)))
	}
	switch t.Type() {
	case tflite.UInt8:
		info.Type = "uint8"
	case tflite.Float32:
		info.Type = "float32"
	default:
		info.Type = fmt.Sprint(t.Type())
	}
	return info
}

func (e *tfliteEngine) Inputs() []Info  { return e.inputs }
func (e *tfliteEngine) Outputs() []Info { return e.outputs }

// Run fills the input tensors in order. Values given for uint8 inputs are
// expected in the 0..255 range and are clamped.
func (e *tfliteEngine) Run(inputs []Tensor) ([]Tensor, error) {
	if len(inputs) < len(e.inputs) {
		return nil, fmt.Errorf("%w: got %d inputs, model has %d", ErrMissingInput, len(inputs), len(e.inputs))
	}
	for idx := range e.inputs {
		if err := fillTensor(e.interp.GetInputTensor(idx), inputs[idx]); err != nil {
			return nil, err
		}
	}

	if status := e.interp.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("%w: status %v", ErrInvoke, status)
	}

	outputs := make([]Tensor, 0, len(e.outputs))
	for idx, info := range e.outputs {
		output := e.interp.GetOutputTensor(idx)
		log.Debugln("output:", info, output.QuantizationParams())
		t := Tensor{Name: info.Name, Shape: info.Shape}
		switch output.Type() {
		case tflite.UInt8:
			q := output.QuantizationParams()
			f := output.UInt8s()
			t.Data = make([]float32, len(f))
			for i, v := range f {
				if q.Scale != 0 {
					t.Data[i] = float32(q.Scale * float64(int(v)-q.ZeroPoint))
				} else {
					t.Data[i] = float32(v) / 255
				}
			}
		case tflite.Float32:
			t.Data = append([]float32(nil), output.Float32s()...)
		default:
			return nil, fmt.Errorf("%w: output %s", ErrUnsupportedType, info)
		}
		outputs = append(outputs, t)
	}
	return outputs, nil
}

func fillTensor(input *tflite.Tensor, t Tensor) error {
	switch input.Type() {
	case tflite.UInt8:
		ptr := make([]uint8, len(t.Data))
		for i, v := range t.Data {
			switch {
			case v < 0:
				ptr[i] = 0
			case v > 255:
				ptr[i] = 255
			default:
				ptr[i] = uint8(v)
			}
		}
		if err := input.SetUint8s(ptr); err != nil {
			return fmt.Errorf("set input %s: %w", input.Name(), err)
		}
	case tflite.Float32:
		if err := input.SetFloat32s(t.Data); err != nil {
			return fmt.Errorf("set input %s: %w", input.Name(), err)
		}
	default:
		return fmt.Errorf("%w: input %s", ErrUnsupportedType, input.Name())
	}
	return nil
}

func (e *tfliteEngine) Close() error {
	e.interp.Delete()
	e.model.Delete()
	return nil
}
