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

// SsdDecoder decodes the TFLite detection postprocess outputs: locations
// [1, N, 4] as ymin, xmin, ymax, xmax, classes [1, N], scores [1, N] and
// an optional count.
type SsdDecoder struct{}

func (p SsdDecoder) Decode(outputs []tensor.Tensor, scoreTh float32) []Detection {
	if len(outputs) < 3 {
		return nil
	}
	l, c, s := outputs[0].Data, outputs[1].Data, outputs[2].Data
	n := len(s)
	if len(outputs) > 3 && len(outputs[3].Data) > 0 {
		if count := int(outputs[3].Data[0]); count < n {
			n = count
		}
	}
	log.Debugf("output: %vx%vx%v count %d", len(l), len(c), len(s), n)

	var dets []Detection
	for idx := 0; idx < n && 4*idx+3 < len(l) && idx < len(c); idx++ {
		if s[idx] <= scoreTh {
			continue
		}
		ymin, xmin, ymax, xmax := l[4*idx], l[4*idx+1], l[4*idx+2], l[4*idx+3]
		dets = append(dets, Detection{
			Category: int(c[idx]),
			Prob:     s[idx],
			X:        xmin,
			Y:        ymin,
			W:        xmax - xmin,
			H:        ymax - ymin,
		})
	}
	return dets
}
