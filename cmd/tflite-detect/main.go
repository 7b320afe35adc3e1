package main

import (
	"context"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/app"
	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/labels"
	"github.com/mpromonet/vision-examples/internal/objdetect"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/preprocess"
)

func main() {
	p := config.NewParser("tflite-detect", "TFLite object detection", config.Defaults{
		Engines: []string{engine.TFLite},
	})
	modelPath := p.String("m", "model", &argparse.Options{
		Default: objdetect.DefaultModel,
		Help:    "path to model file",
	})
	labelPath := p.String("l", "label", &argparse.Options{
		Default: objdetect.DefaultLabel,
		Help:    "path to label file",
	})
	threshold := p.Float("", "threshold", &argparse.Options{
		Default: objdetect.DefaultScoreThreshold,
		Help:    "score threshold",
	})
	nms := p.Float("", "nms", &argparse.Options{
		Default: objdetect.DefaultNmsThreshold,
		Help:    "IoU threshold of non-maximum suppression",
	})
	edgetpu := p.Flag("", "edgetpu", &argparse.Options{
		Help: "use the first Edge TPU device when one is present",
	})
	normalization := p.Selector("", "normalization", []string{"255", "127.5", "ImageNet", "None"}, &argparse.Options{
		Default: "255",
		Help:    "normalization of float model inputs",
	})

	cfg, err := p.Parse(os.Args)
	if err != nil {
		fmt.Print(p.Usage(err))
		os.Exit(1)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}

	norm, err := preprocess.ParseNormalization(*normalization)
	if err != nil {
		log.Fatal(err)
	}
	opts := objdetect.Options{
		ScoreThreshold: float32(*threshold),
		NmsThreshold:   float32(*nms),
		EdgeTPU:        *edgetpu,
		Normalization:  norm,
	}
	if err := run(cfg, *modelPath, *labelPath, opts); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, modelPath, labelPath string, opts objdetect.Options) error {
	table, err := labels.Load(labelPath)
	if err != nil {
		return err
	}
	return app.Run(context.Background(), cfg, "tflite", func() (pipeline.Processor, error) {
		d, err := objdetect.New(modelPath, table, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
