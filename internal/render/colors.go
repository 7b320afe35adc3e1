package render

import (
	"image/color"
	"math"
)

// CubePalette spreads n colors over a cube of base = ceil(cbrt(n)) steps
// per axis, starting from light gray.
func CubePalette(n int) []color.RGBA {
	base := int(math.Ceil(math.Pow(float64(n), 1.0/3)))
	if base < 1 {
		base = 1
	}
	base2 := float64(base * base)
	colors := make([]color.RGBA, n)
	for i := range colors {
		idx := float64(i)
		b := (2 - idx/base2) * 127
		r := (2 - float64(i%(base*base))/float64(base)) * 127
		g := (2 - float64(i%(base*base)%base)) * 127
		// the first component is blue, as OpenCV orders channels
		colors[i] = color.RGBA{R: sat(g), G: sat(r), B: sat(b), A: 255}
	}
	return colors
}

// HueColor is a fully saturated color whose hue depends on category.
func HueColor(category, numCategories int) color.RGBA {
	h := float64(category) / float64(numCategories+1) * 6
	i := math.Floor(h)
	f := h - i
	q := sat(255 * (1 - f))
	t := sat(255 * f)
	switch int(i) % 6 {
	case 0:
		return color.RGBA{255, t, 0, 255}
	case 1:
		return color.RGBA{q, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, t, 255}
	case 3:
		return color.RGBA{0, q, 255, 255}
	case 4:
		return color.RGBA{t, 0, 255, 255}
	default:
		return color.RGBA{255, 0, q, 255}
	}
}

func sat(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
