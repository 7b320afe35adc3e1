package engine

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// opencvEngine runs ONNX models with the OpenCV DNN module. OpenCV does not
// expose the declared inputs, so Inputs returns nil and tensors are bound
// by name (or to the default input when there is only one).
type opencvEngine struct {
	net      gocv.Net
	outNames []string
	outputs  []Info
}

func newOpenCV(path string, opts Options) (*opencvEngine, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrLoad, path)
	}
	e := &opencvEngine{net: net}
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		name := layer.GetName()
		if name != "_input" {
			e.outNames = append(e.outNames, name)
			e.outputs = append(e.outputs, Info{Name: name, Type: "float32"})
		}
	}
	log.Debugf("opencv model %s outputs %v", path, e.outNames)
	return e, nil
}

func (e *opencvEngine) Inputs() []Info  { return nil }
func (e *opencvEngine) Outputs() []Info { return e.outputs }

func (e *opencvEngine) Run(inputs []Tensor) ([]Tensor, error) {
	if len(inputs) == 0 {
		return nil, ErrMissingInput
	}
	for _, t := range inputs {
		blob, err := tensorToBlob(t)
		if err != nil {
			return nil, err
		}
		name := t.Name
		if len(inputs) == 1 {
			name = ""
		}
		e.net.SetInput(blob, name)
		blob.Close()
	}

	mats := e.net.ForwardLayers(e.outNames)
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()

	outputs := make([]Tensor, 0, len(mats))
	for i, m := range mats {
		data, err := m.DataPtrFloat32()
		if err != nil {
			return nil, fmt.Errorf("%w: output %s: %w", ErrUnsupportedType, e.outNames[i], err)
		}
		t := Tensor{Name: e.outNames[i], Data: append([]float32(nil), data...)}
		for _, d := range m.Size() {
			t.Shape = append(t.Shape, int64(d))
		}
		outputs = append(outputs, t)
	}
	return outputs, nil
}

func (e *opencvEngine) Close() error {
	return e.net.Close()
}

func tensorToBlob(t Tensor) (gocv.Mat, error) {
	if err := t.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	sizes := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		sizes[i] = int(d)
	}
	blob := gocv.NewMatWithSizes(sizes, gocv.MatTypeCV32F)
	data, err := blob.DataPtrFloat32()
	if err != nil {
		blob.Close()
		return gocv.Mat{}, fmt.Errorf("blob for %s: %w", t.Name, err)
	}
	copy(data, t.Data)
	return blob, nil
}
