// Package pipeline runs a model over images and video frames.
package pipeline

import "gocv.io/x/gocv"

// Processor turns one BGR frame into a Result. Implementations are not
// required to be safe for concurrent use; Pool hands each one to a single
// caller at a time.
type Processor interface {
	Process(img gocv.Mat) (Result, error)
	Close() error
}

// Result is the decoded output of one frame. Concrete results are also
// marshalled as JSON by the HTTP API.
type Result interface {
	// Draw renders the result on dst, which has the size of the processed frame.
	Draw(dst *gocv.Mat)
	// Lines is the human readable log of the result.
	Lines() []string
}

// Factory creates a new Processor, loading its model.
type Factory func() (Processor, error)

// Saver is implemented by results that can be exported to a file.
type Saver interface {
	Save(path string) error
}
