// Package fashionai locates garment keypoints (necklines, cuffs, hems)
// with the FashionAI heatmap network. Each image is run twice, as is and
// mirrored, and both heatmaps are merged before decoding.
package fashionai

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/keypoint"
	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/preprocess"
	"github.com/mpromonet/vision-examples/internal/render"
)

const (
	RemotePath = "https://storage.googleapis.com/ailia-models/fashionai/"
	ImageSize  = 512
	HMStride   = 4
	Mu         = 0.65
	Sigma      = 0.25
)

type model struct {
	file  string
	image string
}

// models lists the clothing types with a released model.
var models = map[string]model{
	"dress": {file: "dress_100.onnx", image: "dress.jpg"},
}

// ClothingTypes lists the keypoint clothing types that have a model.
func ClothingTypes() []string {
	var types []string
	for _, t := range keypoint.ClothingTypes() {
		if _, ok := models[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// ModelFile returns the model file and the sample image of a clothing type.
func ModelFile(clothingType string) (file, image string, err error) {
	m, ok := models[clothingType]
	if !ok {
		return "", "", fmt.Errorf("no model for clothing type %q", clothingType)
	}
	return m.file, m.image, nil
}

type Detector struct {
	eng        engine.Engine
	names      []string
	conjugates [][2]int
	norm       preprocess.Normalization
}

func New(modelPath, backend, clothingType string) (*Detector, error) {
	names, err := keypoint.Names(clothingType)
	if err != nil {
		return nil, err
	}
	eng, err := engine.Open(backend, modelPath, engine.Options{})
	if err != nil {
		return nil, err
	}
	return &Detector{
		eng:        eng,
		names:      names,
		conjugates: keypoint.Conjugates(names),
		norm:       preprocess.Uniform(1.0/255, Mu, Sigma),
	}, nil
}

// prepare resizes img to w x h, converts it to normalized RGB planes and
// pads them at the right and bottom to the model input size.
func (d *Detector) prepare(img gocv.Mat, w, h int) ([]float32, error) {
	resized := media.ResizeMat(img, w, h, gocv.InterpolationCubic)
	defer resized.Close()
	data, err := media.MatToCHW(resized, d.norm, true)
	if err != nil {
		return nil, err
	}
	return preprocess.PadCHW(data, w, h, ImageSize, ImageSize), nil
}

// heatmaps runs the model and returns its second output, the keypoint
// heatmaps, with negative values clipped.
func (d *Detector) heatmaps(data []float32) (keypoint.Heatmaps, error) {
	outputs, err := d.eng.Run([]engine.Tensor{engine.NewTensor("img", data, 1, 3, ImageSize, ImageSize)})
	if err != nil {
		return keypoint.Heatmaps{}, err
	}
	if len(outputs) < 2 {
		return keypoint.Heatmaps{}, fmt.Errorf("%w: expected 2 outputs, got %d", engine.ErrShape, len(outputs))
	}
	hm := outputs[1]
	if hm.NumDims() != 4 {
		return keypoint.Heatmaps{}, fmt.Errorf("%w: heatmap %v", engine.ErrShape, hm.Shape)
	}
	maps, err := keypoint.NewHeatmaps(hm.Dim(1), hm.Dim(2), hm.Dim(3), hm.Data)
	if err != nil {
		return keypoint.Heatmaps{}, err
	}
	return maps.ReLU(), nil
}

func (d *Detector) Process(img gocv.Mat) (pipeline.Result, error) {
	flipped := gocv.NewMat()
	defer flipped.Close()
	gocv.Flip(img, &flipped, 1)

	w, h := img.Cols(), img.Rows()
	geom := preprocess.FitTopLeft(w, h, ImageSize)
	w2, h2 := geom.ResizedSize()

	var maps [2]keypoint.Heatmaps
	for i, src := range []gocv.Mat{img, flipped} {
		data, err := d.prepare(src, w2, h2)
		if err != nil {
			return nil, err
		}
		if maps[i], err = d.heatmaps(data); err != nil {
			return nil, err
		}
	}

	merged, err := keypoint.MergeFlip(maps[0], maps[1], w2/HMStride, d.conjugates)
	if err != nil {
		return nil, err
	}
	xs, ys := keypoint.Decode(merged, geom.Scale, HMStride, [2]float64{float64(w) / 2, float64(h) / 2})
	return &Result{Keypoints: keypoint.Keypoints(d.names, xs, ys)}, nil
}

func (d *Detector) Close() error {
	return d.eng.Close()
}

type Result struct {
	Keypoints []keypoint.Keypoint `json:"keypoints"`
}

func (r *Result) Draw(dst *gocv.Mat) {
	render.DrawKeypoints(dst, r.Keypoints)
}

func (r *Result) Lines() []string {
	lines := make([]string, len(r.Keypoints))
	for i, kp := range r.Keypoints {
		lines[i] = fmt.Sprintf("%s: (%d, %d)", kp.Name, kp.X, kp.Y)
	}
	return lines
}
