package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/app"
	"github.com/mpromonet/vision-examples/internal/clothing"
	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/fetch"
	"github.com/mpromonet/vision-examples/internal/pipeline"
)

func main() {
	p := config.NewParser("clothing-detection", "Clothing detection model", config.Defaults{
		Engines: []string{engine.ONNX},
	})
	datasets := clothing.Datasets()
	dataset := p.Selector("d", "dataset", datasets, &argparse.Options{
		Default: datasets[0],
		Help:    fmt.Sprintf("Type of dataset to train the model. Allowed values are %v.", datasets),
	})
	width := p.Int("", "detection-width", &argparse.Options{
		Default: clothing.DetectionWidth,
		Help:    "The detection width and height for yolo.",
		Validate: func(args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			if n <= 0 || n%32 != 0 {
				return fmt.Errorf("detection width must be a positive multiple of 32, got %d", n)
			}
			return nil
		},
	})

	cfg, err := p.Parse(os.Args)
	if err != nil {
		fmt.Print(p.Usage(err))
		os.Exit(1)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	if err := run(cfg, *dataset, *width); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, dataset string, width int) error {
	ctx := context.Background()

	file, category, err := clothing.ModelFile(dataset)
	if err != nil {
		return err
	}
	if err := fetch.CheckAndDownload(ctx, clothing.RemotePath, cfg.ModelDir, file); err != nil {
		return err
	}
	defer engine.Shutdown()

	modelPath := filepath.Join(cfg.ModelDir, file)
	opts := clothing.Options{Backend: cfg.Engine, DetectionWidth: width}
	return app.Run(ctx, cfg, "frame", func() (pipeline.Processor, error) {
		d, err := clothing.New(modelPath, category, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
