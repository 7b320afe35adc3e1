/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package detect

import (
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/tensor"
)

// YoloDecoder decodes YOLOv5 style outputs [1, N, 5+C] whose rows are
// cx, cy, w, h, objectness, class scores, with normalized coordinates.
type YoloDecoder struct{}

func (y YoloDecoder) Decode(outputs []tensor.Tensor, scoreTh float32) []Detection {
	var dets []Detection
	for _, output := range outputs {
		dets = append(dets, y.decodeTensor(output, scoreTh)...)
	}
	return dets
}

func (y YoloDecoder) decodeTensor(output tensor.Tensor, scoreTh float32) []Detection {
	if output.NumDims() != 3 {
		log.Debugf("skip output %s with %d dims", output.Name, output.NumDims())
		return nil
	}
	stride := output.Dim(2)
	if stride < 6 {
		return nil
	}
	loc := output.Data

	var dets []Detection
	for idx := 0; idx+stride <= len(loc); idx += stride {
		if loc[idx+4] <= scoreTh {
			continue
		}
		classID, score := argmax(loc[idx+5 : idx+stride])
		score *= loc[idx+4]
		if score <= scoreTh {
			continue
		}
		w, h := loc[idx+2], loc[idx+3]
		dets = append(dets, Detection{
			Category: classID,
			Prob:     score,
			X:        loc[idx+0] - w/2,
			Y:        loc[idx+1] - h/2,
			W:        w,
			H:        h,
		})
	}
	return dets
}
