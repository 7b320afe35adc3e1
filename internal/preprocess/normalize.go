// Package preprocess implements the input recipes of the example models:
// letterboxing, channel reordering and normalization.
package preprocess

import (
	"fmt"
)

// Normalization maps a 0..255 channel value v of channel c to
// (v*Scale - Mean[c]) / Std[c].
type Normalization struct {
	Scale float32
	Mean  [3]float32
	Std   [3]float32
}

var (
	// None keeps raw pixel values.
	None = Normalization{Scale: 1, Std: [3]float32{1, 1, 1}}
	// Unit maps to [0, 1].
	Unit = Normalization{Scale: 1 / 255.0, Std: [3]float32{1, 1, 1}}
	// Signed maps to [-1, 1].
	Signed = Normalization{Scale: 1 / 127.5, Mean: [3]float32{1, 1, 1}, Std: [3]float32{1, 1, 1}}
	// ImageNet uses the ImageNet RGB mean and standard deviation.
	ImageNet = Normalization{
		Scale: 1 / 255.0,
		Mean:  [3]float32{0.485, 0.456, 0.406},
		Std:   [3]float32{0.229, 0.224, 0.225},
	}
)

// ParseNormalization accepts the names used on the command line.
func ParseNormalization(name string) (Normalization, error) {
	switch name {
	case "None", "none":
		return None, nil
	case "255":
		return Unit, nil
	case "127.5":
		return Signed, nil
	case "ImageNet", "imagenet":
		return ImageNet, nil
	}
	return Normalization{}, fmt.Errorf("unknown normalization %q", name)
}

// Uniform builds a normalization with the same mean and std on every channel.
func Uniform(scale, mean, std float32) Normalization {
	return Normalization{
		Scale: scale,
		Mean:  [3]float32{mean, mean, mean},
		Std:   [3]float32{std, std, std},
	}
}

func (n Normalization) Apply(v float32, c int) float32 {
	return (v*n.Scale - n.Mean[c]) / n.Std[c]
}

// Interleaved normalizes HWC data with 3 channels in place.
func (n Normalization) Interleaved(data []float32) {
	for i := range data {
		data[i] = n.Apply(data[i], i%3)
	}
}
