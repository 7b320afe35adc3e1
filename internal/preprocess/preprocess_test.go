package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"None", 200, 200},
		{"255", 255, 1},
		{"127.5", 0, -1},
		{"127.5", 255, 1},
		{"ImageNet", 0, -0.485 / 0.229},
	}
	for _, tt := range tests {
		n, err := ParseNormalization(tt.name)
		if err != nil {
			t.Fatalf("ParseNormalization(%q): %v", tt.name, err)
		}
		if got := n.Apply(tt.in, 0); !approx(float64(got), float64(tt.want), 1e-5) {
			t.Errorf("%s: Apply(%v) = %v, expected %v", tt.name, tt.in, got, tt.want)
		}
	}
	if _, err := ParseNormalization("bogus"); err == nil {
		t.Error("expected error for unknown normalization")
	}
}

func TestInterleaved(t *testing.T) {
	n := Normalization{Scale: 1, Mean: [3]float32{1, 2, 3}, Std: [3]float32{1, 1, 2}}
	data := []float32{1, 2, 3, 4, 5, 7}
	n.Interleaved(data)
	want := []float32{0, 0, 0, 3, 3, 2}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%d] = %v, expected %v", i, data[i], want[i])
		}
	}
}

func TestLetterboxGeometry(t *testing.T) {
	g := LetterboxGeometry(640, 480, 416, 416)
	nw, nh := g.ResizedSize()
	if nw != 416 || nh != 312 {
		t.Fatalf("resized = %dx%d, expected 416x312", nw, nh)
	}
	if g.PadX != 0 || g.PadY != 52 {
		t.Errorf("pad = (%d,%d), expected (0,52)", g.PadX, g.PadY)
	}
	x, y := g.ToSource(208, 52)
	if !approx(x, 320, 1e-9) || !approx(y, 0, 1e-9) {
		t.Errorf("ToSource = (%v,%v), expected (320,0)", x, y)
	}
	x, y = g.ClampSource(-10, 500)
	if x != 0 || y != 480 {
		t.Errorf("ClampSource = (%v,%v), expected (0,480)", x, y)
	}
}

func TestFitTopLeft(t *testing.T) {
	g := FitTopLeft(300, 600, 512)
	nw, nh := g.ResizedSize()
	if nw != 256 || nh != 512 {
		t.Errorf("resized = %dx%d, expected 256x512", nw, nh)
	}
	if g.PadX != 0 || g.PadY != 0 {
		t.Errorf("pad = (%d,%d), expected none", g.PadX, g.PadY)
	}
}

func TestLetterbox(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}

	out, g := Letterbox(src, 20, 20, Gray)
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 20 {
		t.Fatalf("size = %v, expected 20x20", out.Bounds())
	}
	if g.PadY != 5 {
		t.Errorf("PadY = %d, expected 5", g.PadY)
	}
	if got := out.NRGBAAt(10, 0); got != Gray {
		t.Errorf("padding pixel = %v, expected %v", got, Gray)
	}
	if got := out.NRGBAAt(10, 10); got != red {
		t.Errorf("center pixel = %v, expected %v", got, red)
	}
}

func TestImageToCHW(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 102, B: 255, A: 255})

	want := []float32{1, 0, 0, 0.4, 0.2, 1}
	check := func(name string, got []float32) {
		if len(got) != len(want) {
			t.Fatalf("%s: length %d, expected %d", name, len(got), len(want))
		}
		for i := range want {
			if !approx(float64(got[i]), float64(want[i]), 1e-6) {
				t.Errorf("%s[%d] = %v, expected %v", name, i, got[i], want[i])
			}
		}
	}
	check("nrgba", ImageToCHW(img, Unit))

	rgba := image.NewRGBA(img.Bounds())
	for x := 0; x < 2; x++ {
		rgba.Set(x, 0, img.At(x, 0))
	}
	check("generic", ImageToCHW(rgba, Unit))
}

func TestPadCHW(t *testing.T) {
	// 3 channels of 2x1
	data := []float32{1, 2, 3, 4, 5, 6}
	out := PadCHW(data, 2, 1, 3, 2)
	want := []float32{
		1, 2, 0, 0, 0, 0,
		3, 4, 0, 0, 0, 0,
		5, 6, 0, 0, 0, 0,
	}
	if len(out) != len(want) {
		t.Fatalf("length %d, expected %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, expected %v", i, out[i], want[i])
		}
	}
}
