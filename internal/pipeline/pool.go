package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	DefaultPoolSize       = 2
	DefaultAcquireTimeout = 5 * time.Second
)

var (
	ErrPoolClosed     = errors.New("pool is closed")
	ErrAcquireTimeout = errors.New("timeout waiting for available processor")
)

// Pool holds a fixed number of processors shared by concurrent callers.
type Pool struct {
	procs   chan Processor
	size    int
	factory Factory
	timeout time.Duration

	mu         sync.Mutex
	closed     bool
	metrics    PoolMetrics
	lastErrors []error
}

// PoolMetrics is a snapshot of the pool usage.
type PoolMetrics struct {
	Size            int           `json:"size"`
	InUse           int           `json:"in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	ProcessErrors   int64         `json:"process_errors"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

// NewPool creates size processors with factory. A zero timeout selects
// DefaultAcquireTimeout.
func NewPool(factory Factory, size int, timeout time.Duration) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	p := &Pool{
		procs:   make(chan Processor, size),
		size:    size,
		factory: factory,
		timeout: timeout,
	}
	for i := 0; i < size; i++ {
		proc, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to initialize processor %d: %w", i, err)
		}
		p.procs <- proc
	}
	p.metrics.Size = size
	return p, nil
}

func (p *Pool) Acquire(ctx context.Context) (Processor, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	defer func() {
		p.mu.Lock()
		p.metrics.WaitTime += time.Since(start)
		p.mu.Unlock()
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case proc, ok := <-p.procs:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.mu.Lock()
		p.metrics.InUse++
		p.metrics.TotalAcquired++
		p.mu.Unlock()
		return proc, nil
	case <-timer.C:
		p.mu.Lock()
		p.metrics.AcquireFailures++
		p.mu.Unlock()
		return nil, ErrAcquireTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release gives proc back to the pool, or closes it when the pool is closed.
func (p *Pool) Release(proc Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics.InUse--
	p.metrics.TotalReleased++
	if p.closed {
		proc.Close()
		return
	}
	p.procs <- proc
}

// Process runs img through an available processor.
func (p *Pool) Process(ctx context.Context, img gocv.Mat) (Result, error) {
	proc, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(proc)

	res, err := proc.Process(img)
	if err != nil {
		p.recordError(err)
		return nil, err
	}
	return res, nil
}

func (p *Pool) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.ProcessErrors++
	p.lastErrors = append(p.lastErrors, err)
	if len(p.lastErrors) > 10 {
		p.lastErrors = p.lastErrors[1:]
	}
}

// LastErrors returns the most recent processing errors, oldest first.
func (p *Pool) LastErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.lastErrors...)
}

func (p *Pool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// Close closes the idle processors. Processors in use are closed when
// released.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.procs)
	for proc := range p.procs {
		if err := proc.Close(); err != nil {
			log.Println("close processor:", err)
		}
	}
}
