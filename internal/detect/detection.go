// Package detect decodes raw detector outputs into boxes.
package detect

import (
	"image"
	"math"
)

// Detection is a detected object with its box in normalized [0, 1]
// coordinates of the source image: X, Y is the top-left corner.
type Detection struct {
	Category int     `json:"category"`
	Label    string  `json:"label,omitempty"`
	Prob     float32 `json:"prob"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	W        float32 `json:"w"`
	H        float32 `json:"h"`
}

// Rect converts the box to pixels of a width x height image.
func (d Detection) Rect(width, height int) image.Rectangle {
	x1 := int(d.X * float32(width))
	y1 := int(d.Y * float32(height))
	x2 := int((d.X + d.W) * float32(width))
	y2 := int((d.Y + d.H) * float32(height))
	return image.Rect(x1, y1, x2, y2)
}

// Box is a detection in pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float32
	Score          float32
	Category       int
}

// Normalize converts a pixel box of a width x height image to a Detection.
func (b Box) Normalize(width, height int) Detection {
	w, h := float32(width), float32(height)
	return Detection{
		Category: b.Category,
		Prob:     b.Score,
		X:        b.X1 / w,
		Y:        b.Y1 / h,
		W:        (b.X2 - b.X1) / w,
		H:        (b.Y2 - b.Y1) / h,
	}
}

func sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func argmax(f []float32) (int, float32) {
	r, m := 0, f[0]
	for i, v := range f {
		if v > m {
			m = v
			r = i
		}
	}
	return r, m
}
