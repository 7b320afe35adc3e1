// Package media reads and writes images and video with OpenCV.
package media

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrEmptyImage = errors.New("empty image")
	ErrNoCamera   = errors.New("webcamera not found")
)

// LoadImage reads an image file as 3-channel BGR.
func LoadImage(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	if img.Empty() {
		return gocv.Mat{}, fmt.Errorf("%w: cannot read %s", ErrEmptyImage, path)
	}
	return ToBGR(img)
}

// DecodeImage decodes an encoded image (PNG, JPEG, ...) as 3-channel BGR.
func DecodeImage(buf []byte) (gocv.Mat, error) {
	if len(buf) == 0 {
		return gocv.Mat{}, ErrEmptyImage
	}
	img, err := gocv.IMDecode(buf, gocv.IMReadUnchanged)
	if err != nil {
		return gocv.Mat{}, err
	}
	if img.Empty() {
		return gocv.Mat{}, ErrEmptyImage
	}
	return ToBGR(img)
}

// ToBGR converts gray and BGRA images to BGR. It takes ownership of img.
func ToBGR(img gocv.Mat) (gocv.Mat, error) {
	var code gocv.ColorConversionCode
	switch img.Channels() {
	case 3:
		return img, nil
	case 4:
		code = gocv.ColorBGRAToBGR
	case 1:
		code = gocv.ColorGrayToBGR
	default:
		img.Close()
		return gocv.Mat{}, fmt.Errorf("unsupported image with %d channels", img.Channels())
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(img, &bgr, code)
	img.Close()
	return bgr, nil
}

func SaveImage(path string, img gocv.Mat) error {
	if !gocv.IMWrite(path, img) {
		return fmt.Errorf("cannot write image %s", path)
	}
	return nil
}

// EncodePNG returns the PNG encoding of img.
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
