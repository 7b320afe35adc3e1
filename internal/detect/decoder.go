/*
 * SPDX-License-Identifier: Unlicense
 *
 * This is free and unencumbered software released into the public domain.
 *
 * Anyone is free to copy, modify, publish, use, compile, sell, or distribute this
 * software, either in source code form or as a compiled binary, for any purpose,
 * commercial or non-commercial, and by any means.
 *
 * For more information, please refer to <http://unlicense.org/>
 */

package detect

import (
	"github.com/mpromonet/vision-examples/internal/tensor"
)

// Decoder turns the raw outputs of a detector into normalized detections
// above scoreTh.
type Decoder interface {
	Decode(outputs []tensor.Tensor, scoreTh float32) []Detection
}

// DecoderFor picks the decoder matching the outputs of a model: SSD models
// have separate location, class and score tensors, YOLO models a single
// tensor of rows.
func DecoderFor(outputs []tensor.Info) Decoder {
	if len(outputs) > 2 {
		return SsdDecoder{}
	}
	return YoloDecoder{}
}
