package detect

import (
	"fmt"
	"sort"

	"github.com/mpromonet/vision-examples/internal/tensor"
)

// DecodeCenterNet extracts the k best peaks of the class heatmap hm
// [1, C, H, W] with the size map wh and the offset map reg [1, 2, H, W].
// The heatmap holds logits. Boxes are returned in heatmap coordinates
// multiplied by stride.
func DecodeCenterNet(hm, wh, reg tensor.Tensor, k int, threshold, stride float32) ([]Box, error) {
	if hm.NumDims() != 4 || wh.Dim(1) < 2 || reg.Dim(1) < 2 {
		return nil, fmt.Errorf("%w: hm %v wh %v reg %v", tensor.ErrShape, hm.Shape, wh.Shape, reg.Shape)
	}
	for _, t := range []tensor.Tensor{hm, wh, reg} {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	classes, h, w := hm.Dim(1), hm.Dim(2), hm.Dim(3)
	if wh.Dim(-2) != h || wh.Dim(-1) != w || reg.Dim(-2) != h || reg.Dim(-1) != w {
		return nil, fmt.Errorf("%w: maps do not match heatmap %dx%d", tensor.ErrShape, w, h)
	}

	heat := make([]float32, classes*h*w)
	for i, v := range hm.Data[:len(heat)] {
		heat[i] = sigmoid(v)
	}

	type peak struct {
		class, y, x int
		score       float32
	}
	var peaks []peak
	for c := 0; c < classes; c++ {
		plane := heat[c*h*w : (c+1)*h*w]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := plane[y*w+x]
				if s < threshold || !isLocalMax(plane, w, h, x, y) {
					continue
				}
				peaks = append(peaks, peak{c, y, x, s})
			}
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].score > peaks[j].score })
	if len(peaks) > k {
		peaks = peaks[:k]
	}

	whW, whH := wh.Plane(0), wh.Plane(1)
	regX, regY := reg.Plane(0), reg.Plane(1)
	boxes := make([]Box, 0, len(peaks))
	for _, p := range peaks {
		i := p.y*w + p.x
		cx := float32(p.x) + regX[i]
		cy := float32(p.y) + regY[i]
		bw, bh := whW[i], whH[i]
		boxes = append(boxes, Box{
			X1:       (cx - bw/2) * stride,
			Y1:       (cy - bh/2) * stride,
			X2:       (cx + bw/2) * stride,
			Y2:       (cy + bh/2) * stride,
			Score:    p.score,
			Category: p.class,
		})
	}
	return boxes, nil
}

// isLocalMax is the 3x3 max pooling test: the value equals the maximum of
// its neighbourhood.
func isLocalMax(plane []float32, w, h, x, y int) bool {
	v := plane[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			if plane[ny*w+nx] > v {
				return false
			}
		}
	}
	return true
}
