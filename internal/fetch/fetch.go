// Package fetch downloads model files that are missing locally.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrStatus = errors.New("unexpected HTTP status")

// Client is used for every download. Tests replace it.
var Client = &http.Client{Timeout: 30 * time.Minute}

// CheckAndDownload makes sure every file exists under dir, downloading the
// missing ones from remote (a URL prefix ending with a slash).
func CheckAndDownload(ctx context.Context, remote, dir string, files ...string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			log.Debugf("model file %s found", path)
			continue
		}
		if remote == "" {
			return fmt.Errorf("model file %s not found and no remote configured", path)
		}
		url := strings.TrimSuffix(remote, "/") + "/" + name
		log.Printf("downloading %s", url)
		start := time.Now()
		n, err := download(ctx, url, path)
		if err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
		log.WithFields(log.Fields{"bytes": n, "elapsed": time.Since(start)}).Printf("saved %s", path)
	}
	return nil
}

func download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	return n, os.Rename(tmp.Name(), path)
}
