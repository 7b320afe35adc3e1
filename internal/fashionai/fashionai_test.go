package fashionai

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/engine"
	"github.com/mpromonet/vision-examples/internal/keypoint"
	"github.com/mpromonet/vision-examples/internal/preprocess"
)

// stubEngine answers every run with the same heatmap output.
type stubEngine struct {
	heatmap engine.Tensor
	runs    int
}

func (s *stubEngine) Inputs() []engine.Info  { return nil }
func (s *stubEngine) Outputs() []engine.Info { return nil }
func (s *stubEngine) Close() error           { return nil }

func (s *stubEngine) Run(inputs []engine.Tensor) ([]engine.Tensor, error) {
	s.runs++
	if len(inputs) != 1 || len(inputs[0].Data) != 3*ImageSize*ImageSize {
		return nil, errors.New("unexpected input")
	}
	return []engine.Tensor{engine.NewTensor("p2", nil), s.heatmap}, nil
}

func newStubDetector(t *testing.T, hm engine.Tensor) (*Detector, *stubEngine) {
	t.Helper()
	names, err := keypoint.Names("dress")
	if err != nil {
		t.Fatal(err)
	}
	eng := &stubEngine{heatmap: hm}
	return &Detector{
		eng:        eng,
		names:      names,
		conjugates: keypoint.Conjugates(names),
		norm:       preprocess.Uniform(1.0/255, Mu, Sigma),
	}, eng
}

func TestModelFile(t *testing.T) {
	file, img, err := ModelFile("dress")
	if err != nil || file != "dress_100.onnx" || img != "dress.jpg" {
		t.Errorf("dress: %s %s %v", file, img, err)
	}
	if types := ClothingTypes(); len(types) != 1 || types[0] != "dress" {
		t.Errorf("ClothingTypes() = %v, expected [dress]", types)
	}
	if _, _, err := ModelFile("skirt"); err == nil {
		t.Error("expected error for clothing type without model")
	}
}

func TestProcess(t *testing.T) {
	const k, size = 15, ImageSize / HMStride
	data := make([]float32, k*size*size)
	hm := engine.NewTensor("hm", data, 1, k, size, size)
	d, eng := newStubDetector(t, hm)

	img := gocv.NewMatWithSize(256, 512, gocv.MatTypeCV8UC3)
	defer img.Close()

	res, err := d.Process(img)
	if err != nil {
		t.Fatal(err)
	}
	if eng.runs != 2 {
		t.Errorf("model run %d times, expected 2 for the flip test", eng.runs)
	}
	kps := res.(*Result).Keypoints
	if len(kps) != k {
		t.Fatalf("got %d keypoints", len(kps))
	}
	// empty heatmaps fall back to the image center
	for _, kp := range kps {
		if kp.X != 256 || kp.Y != 128 {
			t.Errorf("%s at (%d, %d), expected the center", kp.Name, kp.X, kp.Y)
		}
	}
	if lines := res.Lines(); lines[0] != "neckline_left: (256, 128)" {
		t.Errorf("unexpected line %q", lines[0])
	}
}

func TestProcessBadOutput(t *testing.T) {
	d, _ := newStubDetector(t, engine.NewTensor("hm", make([]float32, 4), 2, 2))
	img := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	if _, err := d.Process(img); !errors.Is(err, engine.ErrShape) {
		t.Errorf("got %v, expected ErrShape", err)
	}
}
