// Package centernet detects COCO objects with CenterNet (DLA-34 v0
// backbone). Objects are found as peaks of per class center heatmaps.
package centernet

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/labels"
	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/preprocess"
	"github.com/mpromonet/vision-examples/internal/render"
)

const (
	RemotePath = "https://storage.googleapis.com/ailia-models/centernet/"
	ImageSize  = 512
	Threshold  = 0.3
	K          = 40
	DownRatio  = 4
)

var (
	Opsets = []string{"10", "11"}

	// mean and std of the COCO training images, in BGR order
	norm = preprocess.Normalization{
		Scale: 1.0 / 255,
		Mean:  [3]float32{0.408, 0.447, 0.470},
		Std:   [3]float32{0.289, 0.274, 0.278},
	}
	palette = render.CubePalette(len(labels.COCO))
	black   = color.RGBA{0, 0, 0, 255}
)

// ModelFile returns the model exported with the given ONNX opset.
func ModelFile(opset string) (string, error) {
	switch opset {
	case "10":
		return "ctdet_coco_dlav0_1x.onnx", nil
	case "11":
		return "ctdet_coco_dlav0_1x_opset11.onnx", nil
	}
	return "", fmt.Errorf("unknown opset %q", opset)
}

type Detector struct {
	eng engine.Engine
}

func New(modelPath, backend string) (*Detector, error) {
	eng, err := engine.Open(backend, modelPath, engine.Options{})
	if err != nil {
		return nil, err
	}
	return &Detector{eng: eng}, nil
}

func (d *Detector) Process(img gocv.Mat) (pipeline.Result, error) {
	boxed, geom := media.LetterboxMat(img, ImageSize, ImageSize, black, gocv.InterpolationLinear)
	defer boxed.Close()
	data, err := media.MatToCHW(boxed, norm, false)
	if err != nil {
		return nil, err
	}

	outputs, err := d.eng.Run([]engine.Tensor{engine.NewTensor("input.1", data, 1, 3, ImageSize, ImageSize)})
	if err != nil {
		return nil, err
	}
	boxes, err := Decode(outputs, geom)
	if err != nil {
		return nil, err
	}
	return newResult(boxes, img.Cols(), img.Rows()), nil
}

func (d *Detector) Close() error {
	return d.eng.Close()
}

// Decode extracts the boxes from the hm, wh and reg outputs and maps them
// to pixels of the source image described by geom. Outputs are matched by
// name and otherwise taken in that order.
func Decode(outputs []engine.Tensor, geom preprocess.Geometry) ([]detect.Box, error) {
	if len(outputs) < 3 {
		return nil, fmt.Errorf("%w: expected 3 outputs, got %d", engine.ErrShape, len(outputs))
	}
	hm, ok1 := engine.Find(outputs, "hm")
	wh, ok2 := engine.Find(outputs, "wh")
	reg, ok3 := engine.Find(outputs, "reg")
	if !ok1 || !ok2 || !ok3 {
		hm, wh, reg = outputs[0], outputs[1], outputs[2]
	}

	raw, err := detect.DecodeCenterNet(hm, wh, reg, K, Threshold, DownRatio)
	if err != nil {
		return nil, err
	}
	boxes := make([]detect.Box, 0, len(raw))
	for _, b := range raw {
		x1, y1 := geom.ClampSource(float64(b.X1), float64(b.Y1))
		x2, y2 := geom.ClampSource(float64(b.X2), float64(b.Y2))
		// whole pixels
		b.X1, b.Y1 = float32(int(x1)), float32(int(y1))
		b.X2, b.Y2 = float32(int(x2)), float32(int(y2))
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// Result holds the boxes in pixels and the matching normalized detections.
type Result struct {
	Detections []detect.Detection `json:"detections"`

	boxes []detect.Box
}

func newResult(boxes []detect.Box, width, height int) *Result {
	r := &Result{boxes: boxes}
	for _, b := range boxes {
		d := b.Normalize(width, height)
		d.Label = labels.Get(labels.COCO, d.Category)
		r.Detections = append(r.Detections, d)
	}
	return r
}

func (r *Result) Draw(dst *gocv.Mat) {
	render.DrawDetections(dst, r.boxes, labels.COCO, palette)
}

func (r *Result) Lines() []string {
	lines := make([]string, len(r.boxes))
	for i, b := range r.boxes {
		lines[i] = fmt.Sprintf("pos:(%.1f,%.1f,%.1f,%.1f), ids:%s, score:%.3f",
			b.X1, b.Y1, b.X2, b.Y2, labels.Get(labels.COCO, b.Category), b.Score)
	}
	return lines
}

// Save writes the pixel boxes with detect.WritePredictions.
func (r *Result) Save(path string) error {
	return detect.WritePredictions(path, r.boxes, labels.COCO)
}
