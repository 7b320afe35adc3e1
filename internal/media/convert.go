package media

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/preprocess"
)

// LetterboxMat resizes src into a w x h image keeping the aspect ratio and
// centers it on a fill colored background.
func LetterboxMat(src gocv.Mat, w, h int, fill color.RGBA, interp gocv.InterpolationFlags) (gocv.Mat, preprocess.Geometry) {
	g := preprocess.LetterboxGeometry(src.Cols(), src.Rows(), w, h)
	nw, nh := g.ResizedSize()
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(max(nw, 1), max(nh, 1)), 0, 0, interp)

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &dst, g.PadY, h-resized.Rows()-g.PadY, g.PadX, w-resized.Cols()-g.PadX, gocv.BorderConstant, fill)
	return dst, g
}

// ResizeMat returns src resized to w x h.
func ResizeMat(src gocv.Mat, w, h int, interp gocv.InterpolationFlags) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, interp)
	return dst
}

// MatToCHW converts an 8-bit BGR image to a planar float32 buffer. With
// rgb set the planes are ordered R, G, B, otherwise B, G, R. norm is
// indexed by output plane.
func MatToCHW(img gocv.Mat, norm preprocess.Normalization, rgb bool) ([]float32, error) {
	pix, err := bgrBytes(img)
	if err != nil {
		return nil, err
	}
	channelSize := img.Rows() * img.Cols()
	data := make([]float32, 3*channelSize)
	for i := 0; i < channelSize; i++ {
		for c := 0; c < 3; c++ {
			src := c
			if rgb {
				src = 2 - c
			}
			data[c*channelSize+i] = norm.Apply(float32(pix[3*i+src]), c)
		}
	}
	return data, nil
}

// MatToNHWC resizes an 8-bit BGR image to w x h and returns its raw RGB
// values in interleaved order.
func MatToNHWC(img gocv.Mat, w, h int) ([]float32, error) {
	resized := ResizeMat(img, w, h, gocv.InterpolationDefault)
	defer resized.Close()
	pix, err := bgrBytes(resized)
	if err != nil {
		return nil, err
	}
	data := make([]float32, len(pix))
	for i := 0; i+2 < len(pix); i += 3 {
		data[i] = float32(pix[i+2])
		data[i+1] = float32(pix[i+1])
		data[i+2] = float32(pix[i])
	}
	return data, nil
}

func bgrBytes(img gocv.Mat) ([]byte, error) {
	if img.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("expected 8-bit 3-channel image, got %v", img.Type())
	}
	if !img.IsContinuous() {
		return img.ToBytes(), nil
	}
	return img.DataPtrUint8()
}
