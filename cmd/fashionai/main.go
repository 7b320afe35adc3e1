package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/app"
	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/fashionai"
	"github.com/mpromonet/vision-examples/internal/fetch"
	"github.com/mpromonet/vision-examples/internal/pipeline"
)

func main() {
	types := fashionai.ClothingTypes()
	_, sample, err := fashionai.ModelFile(types[0])
	if err != nil {
		log.Fatal(err)
	}

	p := config.NewParser("fashionai", "FashionAI model", config.Defaults{Input: sample})
	clothingType := p.Selector("t", "clothing-type", types, &argparse.Options{
		Default: types[0],
		Help:    "clothing type",
	})

	cfg, err := p.Parse(os.Args)
	if err != nil {
		fmt.Print(p.Usage(err))
		os.Exit(1)
	}
	if err := config.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	if err := run(cfg, *clothingType); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, clothingType string) error {
	ctx := context.Background()

	file, _, err := fashionai.ModelFile(clothingType)
	if err != nil {
		return err
	}
	if err := fetch.CheckAndDownload(ctx, fashionai.RemotePath, cfg.ModelDir, file); err != nil {
		return err
	}
	defer engine.Shutdown()

	modelPath := filepath.Join(cfg.ModelDir, file)
	return app.Run(ctx, cfg, "frame", func() (pipeline.Processor, error) {
		d, err := fashionai.New(modelPath, cfg.Engine, clothingType)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
