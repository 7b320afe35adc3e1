// Package config holds the command line options shared by the example
// binaries. Each binary builds a Parser, registers its own flags on it and
// calls Parse.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/akamensky/argparse"
)

const (
	DefaultInput    = "input.jpg"
	DefaultSavePath = "output.png"
)

var ErrBenchmarkVideo = errors.New("benchmark mode cannot be used with video input")

// Defaults are the per binary values of the shared options.
type Defaults struct {
	Input    string
	SavePath string
	Engine   string
	Engines  []string
}

type Config struct {
	Input     string
	Video     string
	SavePath  string
	Benchmark bool
	Engine    string
	ModelDir  string
	Serve     string
	Workers   int
	Headless  bool
	LogLevel  string

	// PredictionPath is where image mode exports the detections, when the
	// binary supports it.
	PredictionPath string

	// DefaultSavePath is the save path the user did not override. Video
	// mode writes a video file only when SavePath differs from it.
	DefaultSavePath string
}

// VideoMode reports whether frames come from a video file or a camera.
func (c *Config) VideoMode() bool {
	return c.Video != ""
}

// WriteVideo reports whether video mode should record its output.
func (c *Config) WriteVideo() bool {
	return c.VideoMode() && c.SavePath != c.DefaultSavePath
}

type Parser struct {
	*argparse.Parser

	defaults  Defaults
	input     *string
	video     *string
	savePath  *string
	benchmark *bool
	engine    *string
	modelDir  *string
	serve     *string
	workers   *int
	headless  *bool
	logLevel  *string
}

func NewParser(name, description string, d Defaults) *Parser {
	if d.Input == "" {
		d.Input = DefaultInput
	}
	if d.SavePath == "" {
		d.SavePath = DefaultSavePath
	}
	if len(d.Engines) == 0 {
		d.Engines = []string{"onnx", "opencv"}
	}
	if d.Engine == "" {
		d.Engine = d.Engines[0]
	}

	p := &Parser{Parser: argparse.NewParser(name, description), defaults: d}
	p.input = p.String("i", "input", &argparse.Options{
		Default: d.Input,
		Help:    "The input image path.",
	})
	p.video = p.String("v", "video", &argparse.Options{
		Help: "The input video path. If the VIDEO argument is set to 0, the webcam input will be used.",
	})
	p.savePath = p.String("s", "savepath", &argparse.Options{
		Default: d.SavePath,
		Help:    "Save path for the output image, or for the output video in video mode.",
	})
	p.benchmark = p.Flag("b", "benchmark", &argparse.Options{
		Help: "Running the inference on the same input 5 times to measure execution performance. (Cannot be used in video mode)",
	})
	p.engine = p.Selector("e", "engine", d.Engines, &argparse.Options{
		Default: d.Engine,
		Help:    "Inference engine used to run the model.",
	})
	p.modelDir = p.String("", "model-dir", &argparse.Options{
		Default: ".",
		Help:    "Directory where model files are looked up and downloaded.",
	})
	p.serve = p.String("", "serve", &argparse.Options{
		Help: "Serve the model over HTTP on this address (for example :8080) instead of processing an input.",
	})
	p.workers = p.Int("", "workers", &argparse.Options{
		Default: 2,
		Help:    "Number of model instances used in serve mode.",
		Validate: func(args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			if n < 1 {
				return fmt.Errorf("workers must be at least 1, got %d", n)
			}
			return nil
		},
	})
	p.headless = p.Flag("", "headless", &argparse.Options{
		Help: "Do not open a display window in video mode.",
	})
	p.logLevel = p.Selector("", "log-level", []string{"debug", "info", "warn", "error"}, &argparse.Options{
		Default: "info",
		Help:    "Logging level.",
	})
	return p
}

// Parse parses args (including the program name, as os.Args) and returns
// the shared options. Flags registered by the caller are filled in place.
func (p *Parser) Parse(args []string) (*Config, error) {
	if err := p.Parser.Parse(args); err != nil {
		return nil, err
	}
	cfg := &Config{
		Input:           *p.input,
		Video:           *p.video,
		SavePath:        *p.savePath,
		Benchmark:       *p.benchmark,
		Engine:          *p.engine,
		ModelDir:        *p.modelDir,
		Serve:           *p.serve,
		Workers:         *p.workers,
		Headless:        *p.headless,
		LogLevel:        *p.logLevel,
		DefaultSavePath: p.defaults.SavePath,
	}
	if cfg.Benchmark && cfg.VideoMode() {
		return nil, ErrBenchmarkVideo
	}
	return cfg, nil
}
