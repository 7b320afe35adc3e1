package media

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// OpenCapture opens a camera when source is a device number ("0" is the
// first webcam) and a video file otherwise.
func OpenCapture(source string) (*gocv.VideoCapture, error) {
	if id, err := strconv.Atoi(source); err == nil {
		log.Println("Webcam mode is activated")
		capture, err := gocv.OpenVideoCapture(id)
		if err != nil || !capture.IsOpened() {
			if capture != nil {
				capture.Close()
			}
			return nil, fmt.Errorf("%w: device %d", ErrNoCamera, id)
		}
		return capture, nil
	}

	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", source, err)
	}
	return capture, nil
}

// NewWriter creates an mp4v writer with the frame size and rate of capture.
func NewWriter(path string, capture *gocv.VideoCapture) (*gocv.VideoWriter, error) {
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 20
	}
	log.Printf("writing %dx%d video at %.1f fps to %s", width, height, fps, path)
	return gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
}

// Display shows frames in a window.
type Display struct {
	window *gocv.Window
}

func NewDisplay(title string) *Display {
	return &Display{window: gocv.NewWindow(title)}
}

// Show displays img and reports false once the user pressed q.
func (d *Display) Show(img gocv.Mat) bool {
	d.window.IMShow(img)
	key := d.window.WaitKey(1)
	return key&0xFF != 'q'
}

func (d *Display) Close() error {
	return d.window.Close()
}
