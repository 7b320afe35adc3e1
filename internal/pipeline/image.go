package pipeline

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/media"
)

// BenchmarkRuns is the number of timed inferences in benchmark mode.
const BenchmarkRuns = 5

// RecognizeFromImage processes cfg.Input, logs the result and saves the
// rendered image to cfg.SavePath.
func RecognizeFromImage(cfg *config.Config, proc Processor) error {
	img, err := media.LoadImage(cfg.Input)
	if err != nil {
		return err
	}
	defer img.Close()
	log.Debugf("input image shape: %dx%dx%d", img.Rows(), img.Cols(), img.Channels())

	log.Println("Start inference...")
	var res Result
	if cfg.Benchmark {
		log.Println("BENCHMARK mode")
		for i := 0; i < BenchmarkRuns; i++ {
			start := time.Now()
			res, err = proc.Process(img)
			if err != nil {
				return err
			}
			log.Printf("\tprocessing time %d ms", time.Since(start).Milliseconds())
		}
	} else {
		res, err = proc.Process(img)
		if err != nil {
			return err
		}
	}

	for _, line := range res.Lines() {
		log.Println(line)
	}

	if cfg.PredictionPath != "" {
		s, ok := res.(Saver)
		if !ok {
			return fmt.Errorf("result cannot be written to %s", cfg.PredictionPath)
		}
		if err := s.Save(cfg.PredictionPath); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
	}

	out := img.Clone()
	defer out.Close()
	res.Draw(&out)
	if err := media.SaveImage(cfg.SavePath, out); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	log.Printf("saved at : %s", cfg.SavePath)
	log.Println("Script finished successfully.")
	return nil
}
