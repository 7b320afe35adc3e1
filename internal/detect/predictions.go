package detect

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mpromonet/vision-examples/internal/labels"
)

// Prediction is one exported detection, box in pixels.
type Prediction struct {
	Category int     `json:"category"`
	Label    string  `json:"label"`
	Prob     float32 `json:"prob"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	W        int     `json:"w"`
	H        int     `json:"h"`
}

// NewPrediction takes the top-left corner and size of a pixel box.
func NewPrediction(b Box, table []string) Prediction {
	x1, y1 := int(b.X1), int(b.Y1)
	return Prediction{
		Category: b.Category,
		Label:    labels.Get(table, b.Category),
		Prob:     b.Score,
		X:        x1,
		Y:        y1,
		W:        int(b.X2) - x1,
		H:        int(b.Y2) - y1,
	}
}

// WritePredictions saves pixel boxes to path. A .json path gets a JSON
// array, anything else one "label prob x y w h" line per box.
func WritePredictions(path string, boxes []Box, table []string) error {
	preds := make([]Prediction, len(boxes))
	for i, b := range boxes {
		preds[i] = NewPrediction(b, table)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preds); err != nil {
			return err
		}
		return f.Close()
	}

	w := bufio.NewWriter(f)
	for _, p := range preds {
		label := strings.ReplaceAll(p.Label, " ", "_")
		fmt.Fprintf(w, "%s %f %d %d %d %d\n", label, p.Prob, p.X, p.Y, p.W, p.H)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
