package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gocv.io/x/gocv"

	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/pipeline"
)

type sizeResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r sizeResult) Draw(dst *gocv.Mat) {}
func (r sizeResult) Lines() []string    { return nil }

type sizeProcessor struct{ fail bool }

func (p sizeProcessor) Process(img gocv.Mat) (pipeline.Result, error) {
	if p.fail {
		return nil, errors.New("inference failed")
	}
	return sizeResult{Width: img.Cols(), Height: img.Rows()}, nil
}

func (sizeProcessor) Close() error { return nil }

func newTestRouter(t *testing.T, fail bool, staticDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pool, err := pipeline.NewPool(func() (pipeline.Processor, error) {
		return sizeProcessor{fail: fail}, nil
	}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	return NewRouter(pool, staticDir)
}

func pngBody(t *testing.T, rows, cols int) []byte {
	t.Helper()
	img := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	defer img.Close()
	buf, err := media.EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestRunModel(t *testing.T) {
	r := newTestRouter(t, false, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runmodel", bytes.NewReader(pngBody(t, 20, 30)))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var got sizeResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Width != 30 || got.Height != 20 {
		t.Errorf("got %+v, expected 30x20", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/runmodel?render=1", bytes.NewReader(pngBody(t, 20, 30)))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("render: status %d, content type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("render did not return a PNG")
	}
}

func TestRunModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		fail   bool
		body   []byte
		status int
	}{
		{"garbage", false, []byte("not an image"), http.StatusBadRequest},
		{"empty", false, nil, http.StatusBadRequest},
		{"inference", true, nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.fail, "")
			body := tt.body
			if tt.fail {
				body = pngBody(t, 8, 8)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runmodel", bytes.NewReader(body)))
			if w.Code != tt.status {
				t.Errorf("status %d, expected %d", w.Code, tt.status)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, false, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var m metricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.Size != 1 || len(m.LastErrors) != 0 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestMetricsLastErrors(t *testing.T) {
	r := newTestRouter(t, true, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/runmodel", bytes.NewReader(pngBody(t, 8, 8))))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, expected 500", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var m metricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.ProcessErrors != 1 || len(m.LastErrors) != 1 || m.LastErrors[0] != "inference failed" {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>upload</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestRouter(t, false, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "upload") {
		t.Errorf("index: %d %s", w.Code, w.Body.String())
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe returned %v", err)
	}
}
