// Package server exposes a model over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/mpromonet/vision-examples/internal/media"
	"github.com/mpromonet/vision-examples/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

// NewRouter serves the files of staticDir on / and the model API on
// /runmodel. An empty staticDir disables static files.
func NewRouter(pool *pipeline.Pool, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if staticDir != "" {
		r.Use(static.Serve("/", static.LocalFile(staticDir, false)))
	}
	r.POST("/runmodel", runModel(pool))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", func(c *gin.Context) {
		resp := metricsResponse{PoolMetrics: pool.Metrics(), LastErrors: []string{}}
		for _, err := range pool.LastErrors() {
			resp.LastErrors = append(resp.LastErrors, err.Error())
		}
		c.JSON(http.StatusOK, resp)
	})
	return r
}

type metricsResponse struct {
	pipeline.PoolMetrics
	LastErrors []string `json:"last_errors"`
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ms":     time.Since(start).Milliseconds(),
		}).Info("request")
	}
}

// runModel decodes the request body as an image and answers the result as
// JSON, or the rendered image as PNG when render is set.
func runModel(pool *pipeline.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Debugln("Header:", c.Request.Header, "Body Size: ", len(body))

		img, err := media.DecodeImage(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer img.Close()

		res, err := pool.Process(c.Request.Context(), img)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, pipeline.ErrAcquireTimeout) || errors.Is(err, pipeline.ErrPoolClosed) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		if render, _ := strconv.ParseBool(c.Query("render")); render {
			res.Draw(&img)
			buf, err := media.EncodePNG(img)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Data(http.StatusOK, "image/png", buf)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ListenAndServe serves handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Println("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
