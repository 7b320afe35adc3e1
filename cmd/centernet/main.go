package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/app"
	"github.com/mpromonet/vision-examples/internal/centernet"
	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/fetch"
	"github.com/mpromonet/vision-examples/internal/pipeline"
)

func main() {
	p := config.NewParser("centernet", "CenterNet model", config.Defaults{})
	writePrediction := p.String("w", "write-prediction", &argparse.Options{
		Help: "The predictions file name to be output.",
	})
	opset := p.Selector("o", "opset", centernet.Opsets, &argparse.Options{
		Default: centernet.Opsets[0],
		Help:    "opset lists: 10 | 11",
	})

	cfg, err := p.Parse(os.Args)
	if err != nil {
		fmt.Print(p.Usage(err))
		os.Exit(1)
	}
	cfg.PredictionPath = *writePrediction
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	if err := run(cfg, *opset); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, opset string) error {
	ctx := context.Background()

	file, err := centernet.ModelFile(opset)
	if err != nil {
		return err
	}
	if err := fetch.CheckAndDownload(ctx, centernet.RemotePath, cfg.ModelDir, file); err != nil {
		return err
	}
	defer engine.Shutdown()

	modelPath := filepath.Join(cfg.ModelDir, file)
	return app.Run(ctx, cfg, "frame", func() (pipeline.Processor, error) {
		d, err := centernet.New(modelPath, cfg.Engine)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
