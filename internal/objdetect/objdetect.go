// Package objdetect runs TFLite object detectors (YOLOv5 or SSD exports),
// optionally on an Edge TPU.
package objdetect

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/preprocess"
)

const (
	DefaultModel = "models/lite-model_yolo-v5-tflite_tflite_model_1.tflite"
	DefaultLabel = "models/coco.names"

	DefaultScoreThreshold = 0.5
	DefaultNmsThreshold   = 0.3
)

type Options struct {
	ScoreThreshold float32
	NmsThreshold   float32
	EdgeTPU        bool
	// Normalization applies to float inputs, uint8 inputs get raw pixels.
	Normalization preprocess.Normalization
}

type Detector struct {
	eng     engine.Engine
	labels  []string
	decoder detect.Decoder
	input   engine.Info
	opts    Options
}

func New(modelPath string, labels []string, opts Options) (*Detector, error) {
	eng, err := engine.Open(engine.TFLite, modelPath, engine.Options{EdgeTPU: opts.EdgeTPU})
	if err != nil {
		return nil, err
	}
	d, err := newDetector(eng, labels, opts)
	if err != nil {
		eng.Close()
		return nil, err
	}
	return d, nil
}

func newDetector(eng engine.Engine, labels []string, opts Options) (*Detector, error) {
	inputs := eng.Inputs()
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: model has no input", engine.ErrMissingInput)
	}
	input := inputs[0]
	// NHWC image input
	if len(input.Shape) != 4 || input.Shape[3] != 3 {
		return nil, fmt.Errorf("%w: input %s", engine.ErrShape, input)
	}
	log.Println("input shape:", input)
	return &Detector{
		eng:     eng,
		labels:  labels,
		decoder: detect.DecoderFor(eng.Outputs()),
		input:   input,
		opts:    opts,
	}, nil
}

func (d *Detector) Process(img gocv.Mat) (pipeline.Result, error) {
	h, w := int(d.input.Shape[1]), int(d.input.Shape[2])
	data, err := media.MatToNHWC(img, w, h)
	if err != nil {
		return nil, err
	}
	if d.input.Type == "float32" {
		d.opts.Normalization.Interleaved(data)
	}

	outputs, err := d.eng.Run([]engine.Tensor{engine.NewTensor(d.input.Name, data, d.input.Shape...)})
	if err != nil {
		return nil, err
	}

	dets := d.decoder.Decode(outputs, d.opts.ScoreThreshold)
	dets = filterOutput(dets, img.Cols(), img.Rows(), d.opts.ScoreThreshold, d.opts.NmsThreshold)
	for _, det := range dets {
		log.Debugln(det)
	}
	return pipeline.NewDetections(dets, d.labels), nil
}

func (d *Detector) Close() error {
	return d.eng.Close()
}

// filterOutput keeps the detections selected by OpenCV non-maximum
// suppression on their pixel boxes, across categories.
func filterOutput(dets []detect.Detection, width, height int, scoreTh, nmsTh float32) []detect.Detection {
	if len(dets) == 0 {
		return nil
	}
	bboxes := make([]image.Rectangle, len(dets))
	confidences := make([]float32, len(dets))
	for i, det := range dets {
		bboxes[i] = det.Rect(width, height)
		confidences[i] = det.Prob
	}

	var items []detect.Detection
	for _, idx := range gocv.NMSBoxes(bboxes, confidences, scoreTh, nmsTh) {
		if idx >= 0 && idx < len(dets) {
			items = append(items, dets[idx])
		}
	}
	return items
}
