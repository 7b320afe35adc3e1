package pipeline

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/labels"
	"github.com/mpromonet/vision-examples/internal/render"
)

// Detections is the Result of a box detector, drawn with one color per
// category.
type Detections struct {
	Items []detect.Detection `json:"detections"`

	labels []string
}

// NewDetections fills the label of every detection from table.
func NewDetections(items []detect.Detection, table []string) *Detections {
	for i := range items {
		items[i].Label = labels.Get(table, items[i].Category)
	}
	return &Detections{Items: items, labels: table}
}

func (d *Detections) Draw(dst *gocv.Mat) {
	render.PlotResults(dst, d.Items, d.labels)
}

func (d *Detections) Lines() []string {
	lines := make([]string, 0, 7*len(d.Items))
	for i, det := range d.Items {
		lines = append(lines,
			fmt.Sprintf("+ idx=%d", i),
			fmt.Sprintf("  category=%d[ %s ]", det.Category, det.Label),
			fmt.Sprintf("  prob=%v", det.Prob),
			fmt.Sprintf("  x=%v", det.X),
			fmt.Sprintf("  y=%v", det.Y),
			fmt.Sprintf("  w=%v", det.W),
			fmt.Sprintf("  h=%v", det.H),
		)
	}
	return lines
}
