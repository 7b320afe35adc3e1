package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Gray is the padding color of the YOLO letterbox.
var Gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// Geometry records how a source image was placed in the model input so
// that model coordinates can be mapped back.
type Geometry struct {
	SrcW, SrcH int
	DstW, DstH int
	Scale      float64
	PadX, PadY int
}

// LetterboxGeometry scales the source to fit dstW x dstH keeping the aspect
// ratio and centers it.
func LetterboxGeometry(srcW, srcH, dstW, dstH int) Geometry {
	scale := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	g := Geometry{SrcW: srcW, SrcH: srcH, DstW: dstW, DstH: dstH, Scale: scale}
	nw, nh := g.ResizedSize()
	g.PadX = (dstW - nw) / 2
	g.PadY = (dstH - nh) / 2
	return g
}

// FitTopLeft scales the source so that its longest side is size and leaves
// the padding at the right and bottom.
func FitTopLeft(srcW, srcH, size int) Geometry {
	scale := float64(size) / float64(max(srcW, srcH))
	return Geometry{SrcW: srcW, SrcH: srcH, DstW: size, DstH: size, Scale: scale}
}

// ResizedSize is the size of the scaled source inside the destination.
func (g Geometry) ResizedSize() (int, int) {
	return int(float64(g.SrcW) * g.Scale), int(float64(g.SrcH) * g.Scale)
}

// ToSource maps a point of the model input to the source image.
func (g Geometry) ToSource(x, y float64) (float64, float64) {
	return (x - float64(g.PadX)) / g.Scale, (y - float64(g.PadY)) / g.Scale
}

// ClampSource is ToSource limited to the source image bounds.
func (g Geometry) ClampSource(x, y float64) (float64, float64) {
	sx, sy := g.ToSource(x, y)
	return clamp(sx, 0, float64(g.SrcW)), clamp(sy, 0, float64(g.SrcH))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Letterbox resizes img with bicubic interpolation into a w x h canvas
// filled with fill, keeping the aspect ratio.
func Letterbox(img image.Image, w, h int, fill color.Color) (*image.NRGBA, Geometry) {
	b := img.Bounds()
	g := LetterboxGeometry(b.Dx(), b.Dy(), w, h)
	nw, nh := g.ResizedSize()
	resized := imaging.Resize(img, max(nw, 1), max(nh, 1), imaging.CatmullRom)
	canvas := imaging.New(w, h, fill)
	return imaging.Paste(canvas, resized, image.Pt(g.PadX, g.PadY)), g
}
