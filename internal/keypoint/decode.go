package keypoint

import (
	"fmt"
)

// Heatmaps is a stack of K heatmaps of H x W values.
type Heatmaps struct {
	K, H, W int
	Data    []float32
}

func NewHeatmaps(k, h, w int, data []float32) (Heatmaps, error) {
	if len(data) < k*h*w {
		return Heatmaps{}, fmt.Errorf("heatmap data holds %d values, expected %d", len(data), k*h*w)
	}
	return Heatmaps{K: k, H: h, W: w, Data: data[:k*h*w]}, nil
}

func (hm Heatmaps) Plane(k int) []float32 {
	n := hm.H * hm.W
	return hm.Data[k*n : (k+1)*n]
}

// ReLU returns a copy with negative values set to zero.
func (hm Heatmaps) ReLU() Heatmaps {
	out := hm
	out.Data = make([]float32, len(hm.Data))
	for i, v := range hm.Data {
		if v > 0 {
			out.Data[i] = v
		}
	}
	return out
}

// MergeFlip adds the heatmaps of the horizontally flipped image to hm. The
// flipped maps are mirrored over the first validWidth columns and the
// channels of conjugate (left/right) keypoints are swapped.
func MergeFlip(hm, flipped Heatmaps, validWidth int, conjugates [][2]int) (Heatmaps, error) {
	if hm.K != flipped.K || hm.H != flipped.H || hm.W != flipped.W {
		return Heatmaps{}, fmt.Errorf("heatmap shapes differ: %dx%dx%d and %dx%dx%d",
			hm.K, hm.H, hm.W, flipped.K, flipped.H, flipped.W)
	}
	if validWidth > hm.W {
		validWidth = hm.W
	}

	mirrored := Heatmaps{K: hm.K, H: hm.H, W: hm.W, Data: make([]float32, len(hm.Data))}
	for k := 0; k < hm.K; k++ {
		src, dst := flipped.Plane(k), mirrored.Plane(k)
		for y := 0; y < hm.H; y++ {
			row := y * hm.W
			for x := 0; x < validWidth; x++ {
				dst[row+x] = src[row+validWidth-1-x]
			}
		}
	}
	for _, c := range conjugates {
		a, b := mirrored.Plane(c[0]), mirrored.Plane(c[1])
		tmp := append([]float32(nil), a...)
		copy(a, b)
		copy(b, tmp)
	}

	out := Heatmaps{K: hm.K, H: hm.H, W: hm.W, Data: make([]float32, len(hm.Data))}
	for i := range out.Data {
		out.Data[i] = hm.Data[i] + mirrored.Data[i]
	}
	return out, nil
}

// Decode finds the peak of every heatmap, refines it by a quarter cell
// toward the higher neighbour and maps it to image pixels with
// x*stride/scale. Heatmaps without a positive value yield defaultPt.
func Decode(hm Heatmaps, scale float64, stride int, defaultPt [2]float64) (xs, ys []float64) {
	xs = make([]float64, hm.K)
	ys = make([]float64, hm.K)
	for k := 0; k < hm.K; k++ {
		plane := hm.Plane(k)
		best, peak := 0, plane[0]
		for i, v := range plane {
			if v > peak {
				best, peak = i, v
			}
		}
		if peak <= 0 {
			xs[k], ys[k] = defaultPt[0], defaultPt[1]
			continue
		}
		px, py := best%hm.W, best/hm.W
		x, y := float64(px), float64(py)
		if px > 0 && px < hm.W-1 {
			x += 0.25 * sign(plane[py*hm.W+px+1]-plane[py*hm.W+px-1])
		}
		if py > 0 && py < hm.H-1 {
			y += 0.25 * sign(plane[(py+1)*hm.W+px]-plane[(py-1)*hm.W+px])
		}
		xs[k] = x * float64(stride) / scale
		ys[k] = y * float64(stride) / scale
	}
	return xs, ys
}

func sign(v float32) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Keypoints names decoded coordinates, truncated to integer pixels.
func Keypoints(names []string, xs, ys []float64) []Keypoint {
	kps := make([]Keypoint, 0, len(xs))
	for i := range xs {
		kp := Keypoint{X: int(xs[i]), Y: int(ys[i]), Visible: 1}
		if i < len(names) {
			kp.Name = names[i]
		}
		kps = append(kps, kp)
	}
	return kps
}
