// Package app wires the shared command line options to the image, video
// and HTTP modes of a model.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/pipeline"
	"github.com/mpromonet/vision-examples/internal/server"
)

// StaticDir holds the upload page served in serve mode.
var StaticDir = "./static"

// Run processes the input selected by cfg with processors made by factory.
func Run(ctx context.Context, cfg *config.Config, title string, factory pipeline.Factory) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Serve != "" {
		pool, err := pipeline.NewPool(factory, cfg.Workers, 0)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.WithField("workers", cfg.Workers).Println("serve mode")
		return server.ListenAndServe(ctx, cfg.Serve, server.NewRouter(pool, StaticDir))
	}

	proc, err := factory()
	if err != nil {
		return err
	}
	defer proc.Close()

	if cfg.VideoMode() {
		return pipeline.RecognizeFromVideo(ctx, cfg, title, proc)
	}
	return pipeline.RecognizeFromImage(cfg, proc)
}
