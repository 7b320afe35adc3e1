package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/render"
)

type frameResult struct {
	res Result
	err error
}

// worker owns proc for the lifetime of the video loop. Frames received on
// in are closed once processed.
func worker(ctx context.Context, proc Processor, in <-chan gocv.Mat, out chan<- frameResult) {
	defer close(out)
	for img := range in {
		res, err := proc.Process(img)
		img.Close()
		select {
		case out <- frameResult{res: res, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// RecognizeFromVideo processes frames from cfg.Video until the stream
// ends, the user presses q in the display window or ctx is cancelled.
func RecognizeFromVideo(ctx context.Context, cfg *config.Config, title string, proc Processor) error {
	capture, err := media.OpenCapture(cfg.Video)
	if err != nil {
		return err
	}
	defer capture.Close()

	var writer *gocv.VideoWriter
	if cfg.WriteVideo() {
		writer, err = media.NewWriter(cfg.SavePath, capture)
		if err != nil {
			return fmt.Errorf("create video writer: %w", err)
		}
		defer writer.Close()
	}

	var display *media.Display
	if !cfg.Headless {
		display = media.NewDisplay(title)
		defer display.Close()
	}

	in := make(chan gocv.Mat, 1)
	out := make(chan frameResult, 1)
	go worker(ctx, proc, in, out)
	defer close(in)

	frame := gocv.NewMat()
	defer frame.Close()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			log.Println("video interrupted")
			return ctx.Err()
		default:
		}

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			log.WithField("frames", frames).Println("end of stream")
			break
		}
		start := time.Now()

		in <- frame.Clone()
		fr, ok := <-out
		if !ok {
			return ctx.Err()
		}
		if fr.err != nil {
			return fmt.Errorf("frame %d: %w", frames, fr.err)
		}
		frames++

		elapsed := time.Since(start)
		fr.res.Draw(&frame)
		render.DrawResultOnImg(&frame, []string{fmt.Sprintf("fps: %.1f", 1/elapsed.Seconds())})
		log.WithFields(log.Fields{"frame": frames, "ms": elapsed.Milliseconds()}).Debug("frame processed")

		if writer != nil {
			if err := writer.Write(frame); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
		if display != nil && !display.Show(frame) {
			break
		}
	}
	if writer != nil {
		log.Printf("saved at : %s", cfg.SavePath)
	}
	log.Println("Script finished successfully.")
	return nil
}
