// Package render draws detections and keypoints on OpenCV images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/keypoint"
	"github.com/mpromonet/vision-examples/internal/labels"
)

var (
	black     = color.RGBA{0, 0, 0, 255}
	panelGray = color.RGBA{200, 200, 200, 255}

	leftColor   = color.RGBA{255, 0, 0, 255}
	rightColor  = color.RGBA{0, 0, 255, 255}
	centerColor = color.RGBA{0, 255, 0, 255}
)

// PlotResults draws a box and the category name of every detection with a
// color per category.
func PlotResults(img *gocv.Mat, dets []detect.Detection, table []string) {
	w, h := img.Cols(), img.Rows()
	fontScale := float64(w) / 512.0
	for _, d := range dets {
		c := HueColor(d.Category, len(table))
		r := d.Rect(w, h)
		gocv.Rectangle(img, r, c, 4)
		gocv.PutText(img, labels.Get(table, d.Category), image.Pt(r.Min.X+4, r.Max.Y-8), gocv.FontHersheySimplex, fontScale, c, 1)
	}
}

// DrawDetections draws pixel boxes with the cube palette and a
// "label: score" caption above each box, scaled to the image size.
func DrawDetections(img *gocv.Mat, boxes []detect.Box, table []string, palette []color.RGBA) {
	w, h := img.Cols(), img.Rows()
	thick := (h + w) / 300
	for _, b := range boxes {
		c := black
		if b.Category >= 0 && b.Category < len(palette) {
			c = palette[b.Category]
		}
		r := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
		gocv.Rectangle(img, r, c, max(thick, 1))
		mess := fmt.Sprintf("%s: %.3f", labels.Get(table, b.Category), b.Score)
		gocv.PutText(img, mess, image.Pt(r.Min.X, r.Min.Y-7), gocv.FontHersheySimplex, 1e-3*float64(h), c, max(thick/3, 1))
	}
}

// DrawKeypoints marks each keypoint with a filled circle: red on the
// left side of the garment, blue on the right, green in the middle.
func DrawKeypoints(img *gocv.Mat, kps []keypoint.Keypoint) {
	radius := max((img.Cols()+img.Rows())/200, 3)
	for _, kp := range kps {
		if kp.Visible == 0 {
			continue
		}
		gocv.Circle(img, image.Pt(kp.X, kp.Y), radius, sideColor(kp.Name), -1)
	}
}

func sideColor(name string) color.RGBA {
	switch {
	case strings.Contains(name, "left"):
		return leftColor
	case strings.Contains(name, "right"):
		return rightColor
	}
	return centerColor
}

// DrawResultOnImg blends a light panel in the top-left corner and writes
// texts on it, one per line.
func DrawResultOnImg(img *gocv.Mat, texts []string) {
	const (
		wRatio = 0.35
		hRatio = 0.2
		alpha  = 0.4
	)
	overlay := img.Clone()
	defer overlay.Close()
	pt2 := image.Pt(int(float64(img.Cols())*wRatio), int(float64(img.Rows())*hRatio))
	gocv.Rectangle(&overlay, image.Rectangle{Max: pt2}, panelGray, -1)
	gocv.AddWeighted(overlay, alpha, *img, 1-alpha, 0, img)
	DrawTexts(img, texts)
}

// DrawTexts writes texts in black from the top-left corner.
func DrawTexts(img *gocv.Mat, texts []string) {
	dy := img.Cols() / 15
	for i, text := range texts {
		gocv.PutTextWithParams(img, text, image.Pt(10, (i+1)*dy), gocv.FontHersheySimplex, 0.7, black, 2, gocv.LineAA, false)
	}
}
