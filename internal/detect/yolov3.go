package detect

import (
	"fmt"

	"github.com/mpromonet/vision-examples/internal/tensor"
)

// DecodeYOLOv3Indices decodes the outputs of a YOLOv3 graph that runs NMS
// internally:
//
//	boxes   [B, N, 4]  y1, x1, y2, x2 in source pixels
//	scores  [B, C, N]
//	indices [B, M, 3] or [M, 3]  batch, class, box triples
//
// Triples with negative or out of range values are skipped.
func DecodeYOLOv3Indices(boxes, scores, indices tensor.Tensor, width, height int) ([]Detection, error) {
	if boxes.NumDims() != 3 || scores.NumDims() != 3 || boxes.Dim(-1) != 4 {
		return nil, fmt.Errorf("%w: boxes %v scores %v", tensor.ErrShape, boxes.Shape, scores.Shape)
	}
	if indices.Dim(-1) != 3 {
		return nil, fmt.Errorf("%w: indices %v", tensor.ErrShape, indices.Shape)
	}
	numBoxes := boxes.Dim(1)
	numClasses := scores.Dim(1)
	batches := boxes.Dim(0)

	var dets []Detection
	for i := 0; i+3 <= len(indices.Data); i += 3 {
		b, c, n := int(indices.Data[i]), int(indices.Data[i+1]), int(indices.Data[i+2])
		if b < 0 || b >= batches || c < 0 || c >= numClasses || n < 0 || n >= numBoxes {
			continue
		}
		score := scores.Data[(b*numClasses+c)*numBoxes+n]
		box := boxes.Data[(b*numBoxes+n)*4:]
		y1, x1, y2, x2 := box[0], box[1], box[2], box[3]
		dets = append(dets, Detection{
			Category: c,
			Prob:     score,
			X:        x1 / float32(width),
			Y:        y1 / float32(height),
			W:        (x2 - x1) / float32(width),
			H:        (y2 - y1) / float32(height),
		})
	}
	return dets, nil
}
