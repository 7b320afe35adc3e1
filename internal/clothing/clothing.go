// Package clothing detects garments with YOLOv3 models trained on the
// ModaNet and DeepFashion2 datasets. Non-maximum suppression runs inside
// the model graph.
package clothing

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/labels"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/preprocess"
)

const (
	RemotePath     = "https://storage.googleapis.com/ailia-models/clothing-detection/"
	Threshold      = 0.39
	IoU            = 0.4
	DetectionWidth = 416
)

type dataset struct {
	model    string
	category []string
}

var datasets = map[string]dataset{
	"modanet": {"yolov3-modanet.opt.onnx", labels.ModaNet},
	"df2":     {"yolov3-df2.opt.onnx", labels.DeepFashion2},
}

// Datasets lists the known training datasets, the default first.
func Datasets() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		// modanet is the default
		if names[i] == "modanet" || names[j] == "modanet" {
			return names[i] == "modanet"
		}
		return names[i] < names[j]
	})
	return names
}

// ModelFile returns the model file name and the categories of a dataset.
func ModelFile(name string) (string, []string, error) {
	d, ok := datasets[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown dataset %q", name)
	}
	return d.model, d.category, nil
}

type Options struct {
	Backend        string
	DetectionWidth int
	Threshold      float32
	IoU            float32
}

// Detector runs the clothing model on BGR frames.
type Detector struct {
	eng      engine.Engine
	category []string
	opts     Options
}

func New(modelPath string, category []string, opts Options) (*Detector, error) {
	if opts.DetectionWidth <= 0 {
		opts.DetectionWidth = DetectionWidth
	}
	if opts.Threshold == 0 {
		opts.Threshold = Threshold
	}
	if opts.IoU == 0 {
		opts.IoU = IoU
	}
	eng, err := engine.Open(opts.Backend, modelPath, engine.Options{})
	if err != nil {
		return nil, err
	}
	return &Detector{eng: eng, category: category, opts: opts}, nil
}

// Inputs builds the four model inputs for a width x height source image
// already letterboxed into data.
func (d *Detector) Inputs(data []float32, width, height int) []engine.Tensor {
	size := int64(d.opts.DetectionWidth)
	return []engine.Tensor{
		engine.NewTensor("input_1", data, 1, 3, size, size),
		engine.NewTensor("image_shape", []float32{float32(height), float32(width)}, 1, 2),
		engine.NewTensor("layer.score_threshold", []float32{d.opts.Threshold}, 1),
		engine.NewTensor("iou_threshold", []float32{d.opts.IoU}, 1),
	}
}

func (d *Detector) Process(img gocv.Mat) (pipeline.Result, error) {
	src, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	boxed, _ := preprocess.Letterbox(src, d.opts.DetectionWidth, d.opts.DetectionWidth, preprocess.Gray)
	data := preprocess.ImageToCHW(boxed, preprocess.Unit)

	outputs, err := d.eng.Run(d.Inputs(data, img.Cols(), img.Rows()))
	if err != nil {
		return nil, err
	}
	dets, err := Decode(outputs, img.Cols(), img.Rows())
	if err != nil {
		return nil, err
	}
	log.Debugf("%d garments detected", len(dets))
	return pipeline.NewDetections(dets, d.category), nil
}

// Decode converts the boxes, scores and indices outputs of the model. The
// outputs are looked up by name and fall back to that order.
func Decode(outputs []engine.Tensor, width, height int) ([]detect.Detection, error) {
	if len(outputs) < 3 {
		return nil, fmt.Errorf("%w: expected 3 outputs, got %d", engine.ErrShape, len(outputs))
	}
	boxes := pick(outputs, 0, "box")
	scores := pick(outputs, 1, "score")
	indices := pick(outputs, 2, "indices", "selected")
	return detect.DecodeYOLOv3Indices(boxes, scores, indices, width, height)
}

func pick(outputs []engine.Tensor, index int, fragments ...string) engine.Tensor {
	if t, ok := engine.FindLike(outputs, fragments...); ok {
		return t
	}
	return outputs[index]
}

func (d *Detector) Close() error {
	return d.eng.Close()
}
