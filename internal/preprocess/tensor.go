package preprocess

import (
	"image"
)

// ImageToCHW converts img to a planar RGB float32 buffer of size 3*W*H.
func ImageToCHW(img image.Image, norm Normalization) []float32 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	channelSize := width * height
	data := make([]float32, 3*channelSize)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			row := nrgba.Pix[y*nrgba.Stride:]
			for x := 0; x < width; x++ {
				i := y*width + x
				data[i] = norm.Apply(float32(row[4*x]), 0)
				data[channelSize+i] = norm.Apply(float32(row[4*x+1]), 1)
				data[2*channelSize+i] = norm.Apply(float32(row[4*x+2]), 2)
			}
		}
		return data
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			data[i] = norm.Apply(float32(r>>8), 0)
			data[channelSize+i] = norm.Apply(float32(g>>8), 1)
			data[2*channelSize+i] = norm.Apply(float32(bl>>8), 2)
		}
	}
	return data
}

// PadCHW copies a planar 3 x h x w buffer into the top-left corner of a
// zeroed 3 x dstH x dstW buffer.
func PadCHW(data []float32, w, h, dstW, dstH int) []float32 {
	out := make([]float32, 3*dstW*dstH)
	for c := 0; c < 3; c++ {
		for y := 0; y < h && y < dstH; y++ {
			src := data[c*w*h+y*w : c*w*h+y*w+min(w, dstW)]
			copy(out[c*dstW*dstH+y*dstW:], src)
		}
	}
	return out
}
