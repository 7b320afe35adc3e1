package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/config"
	"github.com/mpromonet/vision-examples/internal/detect"
	"github.com/mpromonet/vision-examples/internal/media"
)

type fakeResult struct{ n int }

func (r fakeResult) Draw(dst *gocv.Mat) {}
func (r fakeResult) Lines() []string    { return []string{"fake"} }

type fakeProcessor struct {
	calls  int
	fail   bool
	closed *int32
}

func (f *fakeProcessor) Process(img gocv.Mat) (Result, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("boom")
	}
	return fakeResult{n: f.calls}, nil
}

func (f *fakeProcessor) Close() error {
	atomic.AddInt32(f.closed, 1)
	return nil
}

func newFactory(closed *int32, fail bool) Factory {
	return func() (Processor, error) {
		return &fakeProcessor{closed: closed, fail: fail}, nil
	}
}

func TestPoolAcquireRelease(t *testing.T) {
	var closed int32
	p, err := NewPool(newFactory(&closed, false), 2, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(ctx); !errors.Is(err, ErrAcquireTimeout) {
		t.Errorf("third acquire: got %v, expected ErrAcquireTimeout", err)
	}
	m := p.Metrics()
	if m.InUse != 2 || m.TotalAcquired != 2 || m.AcquireFailures != 1 {
		t.Errorf("unexpected metrics %+v", m)
	}

	p.Release(a)
	p.Release(b)
	p.Close()
	if got := atomic.LoadInt32(&closed); got != 2 {
		t.Errorf("%d processors closed, expected 2", got)
	}
	if _, err := p.Acquire(ctx); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("acquire after close: got %v, expected ErrPoolClosed", err)
	}
}

func TestPoolReleaseAfterClose(t *testing.T) {
	var closed int32
	p, err := NewPool(newFactory(&closed, false), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	proc, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p.Close()
	if got := atomic.LoadInt32(&closed); got != 0 {
		t.Fatalf("processor in use was closed")
	}
	p.Release(proc)
	if got := atomic.LoadInt32(&closed); got != 1 {
		t.Errorf("released processor not closed")
	}
}

func TestPoolContextCancel(t *testing.T) {
	var closed int32
	p, err := NewPool(newFactory(&closed, false), 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	proc, _ := p.Acquire(context.Background())
	defer p.Release(proc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, expected context.Canceled", err)
	}
}

func TestPoolProcess(t *testing.T) {
	var closed int32
	img := gocv.NewMat()
	defer img.Close()

	p, err := NewPool(newFactory(&closed, false), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		res, err := p.Process(context.Background(), img)
		if err != nil {
			t.Fatal(err)
		}
		if r := res.(fakeResult); r.n != i {
			t.Errorf("call %d served by a new processor", i)
		}
	}
	if m := p.Metrics(); m.InUse != 0 || m.TotalReleased != 3 {
		t.Errorf("unexpected metrics %+v", m)
	}
	p.Close()

	failing, err := NewPool(newFactory(&closed, true), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer failing.Close()
	if _, err := failing.Process(context.Background(), img); err == nil {
		t.Fatal("expected processing error")
	}
	if m := failing.Metrics(); m.ProcessErrors != 1 || len(failing.LastErrors()) != 1 {
		t.Errorf("error not recorded: %+v", m)
	}
}

func TestNewPoolFactoryError(t *testing.T) {
	var closed int32
	n := 0
	factory := func() (Processor, error) {
		n++
		if n == 2 {
			return nil, errors.New("no model")
		}
		return &fakeProcessor{closed: &closed}, nil
	}
	if _, err := NewPool(factory, 3, 0); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&closed); got != 1 {
		t.Errorf("%d processors closed, expected the one already created", got)
	}
}

func TestDetectionsLines(t *testing.T) {
	d := NewDetections([]detect.Detection{{Category: 2, Prob: 0.5, X: 0.1, Y: 0.2, W: 0.3, H: 0.4}}, []string{"a", "b", "c"})
	if d.Items[0].Label != "c" {
		t.Errorf("label %q, expected c", d.Items[0].Label)
	}
	lines := d.Lines()
	if len(lines) != 7 || lines[1] != "  category=2[ c ]" {
		t.Errorf("unexpected lines %q", lines)
	}

	img := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC3)
	defer img.Close()
	d.Draw(&img)
}

type savingResult struct{}

func (savingResult) Draw(dst *gocv.Mat) {}
func (savingResult) Lines() []string    { return []string{"saved"} }

func (savingResult) Save(path string) error {
	return os.WriteFile(path, []byte("prediction\n"), 0o644)
}

type savingProcessor struct{ calls int }

func (p *savingProcessor) Process(img gocv.Mat) (Result, error) {
	p.calls++
	return savingResult{}, nil
}

func (p *savingProcessor) Close() error { return nil }

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 24, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	path := filepath.Join(dir, "input.png")
	if err := media.SaveImage(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecognizeFromImage(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Input:          writeInput(t, dir),
		SavePath:       filepath.Join(dir, "output.png"),
		Benchmark:      true,
		PredictionPath: filepath.Join(dir, "pred.txt"),
	}
	proc := &savingProcessor{}
	if err := RecognizeFromImage(cfg, proc); err != nil {
		t.Fatal(err)
	}
	if proc.calls != BenchmarkRuns {
		t.Errorf("processed %d times, expected %d in benchmark mode", proc.calls, BenchmarkRuns)
	}

	out, err := media.LoadImage(cfg.SavePath)
	if err != nil {
		t.Fatalf("output not saved: %v", err)
	}
	defer out.Close()
	if out.Cols() != 32 || out.Rows() != 24 {
		t.Errorf("output is %dx%d, expected 32x24", out.Cols(), out.Rows())
	}
	if b, err := os.ReadFile(cfg.PredictionPath); err != nil || string(b) != "prediction\n" {
		t.Errorf("predictions %q %v", b, err)
	}
}

func TestRecognizeFromImageSingleRun(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Input: writeInput(t, dir), SavePath: filepath.Join(dir, "output.png")}
	proc := &savingProcessor{}
	if err := RecognizeFromImage(cfg, proc); err != nil {
		t.Fatal(err)
	}
	if proc.calls != 1 {
		t.Errorf("processed %d times, expected 1", proc.calls)
	}
}

func TestRecognizeFromImageErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	var closed int32

	cfg := &config.Config{Input: filepath.Join(dir, "missing.png"), SavePath: filepath.Join(dir, "out.png")}
	if err := RecognizeFromImage(cfg, &fakeProcessor{closed: &closed}); !errors.Is(err, media.ErrNotFound) {
		t.Errorf("missing input: got %v, expected ErrNotFound", err)
	}

	cfg = &config.Config{Input: input, SavePath: filepath.Join(dir, "out.png"), PredictionPath: filepath.Join(dir, "pred.txt")}
	err := RecognizeFromImage(cfg, &fakeProcessor{closed: &closed})
	if err == nil || !strings.Contains(err.Error(), "cannot be written") {
		t.Errorf("result without export: got %v", err)
	}

	cfg = &config.Config{Input: input, SavePath: filepath.Join(dir, "out.png")}
	if err := RecognizeFromImage(cfg, &fakeProcessor{closed: &closed, fail: true}); err == nil {
		t.Error("processing error was not returned")
	}
}

// writeVideo records solid frames as Motion JPEG, which OpenCV can
// write and read without external codecs.
func writeVideo(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.avi")
	w, err := gocv.VideoWriterFile(path, "MJPG", 10, 32, 24, true)
	if err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}
	if !w.IsOpened() {
		w.Close()
		t.Skip("video writer unavailable")
	}
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 100, 150, 0), 24, 32, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < frames; i++ {
		if err := w.Write(frame); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func videoConfig(video string) *config.Config {
	return &config.Config{
		Video:           video,
		SavePath:        config.DefaultSavePath,
		DefaultSavePath: config.DefaultSavePath,
		Headless:        true,
	}
}

func TestRecognizeFromVideo(t *testing.T) {
	video := writeVideo(t, 3)
	var closed int32
	proc := &fakeProcessor{closed: &closed}

	if err := RecognizeFromVideo(context.Background(), videoConfig(video), "test", proc); err != nil {
		t.Fatal(err)
	}
	if proc.calls != 3 {
		t.Errorf("processed %d frames, expected 3", proc.calls)
	}
}

func TestRecognizeFromVideoErrors(t *testing.T) {
	video := writeVideo(t, 3)
	var closed int32

	err := RecognizeFromVideo(context.Background(), videoConfig(video), "test", &fakeProcessor{closed: &closed, fail: true})
	if err == nil || !strings.HasPrefix(err.Error(), "frame 0: ") {
		t.Errorf("processing error: got %v, expected it wrapped with the frame number", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &fakeProcessor{closed: &closed}
	if err := RecognizeFromVideo(ctx, videoConfig(video), "test", proc); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v, expected context.Canceled", err)
	}
	if proc.calls != 0 {
		t.Errorf("processed %d frames after cancel", proc.calls)
	}

	missing := filepath.Join(t.TempDir(), "missing.avi")
	if err := RecognizeFromVideo(context.Background(), videoConfig(missing), "test", proc); !errors.Is(err, media.ErrNotFound) {
		t.Errorf("missing video: got %v, expected ErrNotFound", err)
	}
}

func TestWorkerClosesOutput(t *testing.T) {
	var closed int32
	proc := &fakeProcessor{closed: &closed, fail: true}
	in := make(chan gocv.Mat, 1)
	out := make(chan frameResult, 1)
	go worker(context.Background(), proc, in, out)

	in <- gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	fr, ok := <-out
	if !ok || fr.err == nil {
		t.Fatalf("got %+v %v, expected the processing error", fr, ok)
	}
	close(in)
	if _, ok := <-out; ok {
		t.Error("output still open after input closed")
	}
}
