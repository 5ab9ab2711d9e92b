package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/hyprbar/internal/source"
)

// DefaultThumbnailWidth is the thumbnail width in pixels.
const DefaultThumbnailWidth = 240

// DefaultTimeout bounds one producer run. A capture that has not finished
// by then is abandoned so the output's lock is released.
const DefaultTimeout = 5 * time.Second

// Producer writes one frame of output into dst.
type Producer interface {
	Produce(ctx context.Context, output string, dst *os.File) error
}

// Request asks for a thumbnail of the workspace shown on output.
type Request struct {
	Output    string
	Workspace int
}

// Frame is a finished thumbnail.
type Frame struct {
	Output     string
	Workspace  int
	Image      *image.RGBA
	SourceSize image.Point
	At         time.Time
}

// Capturer serializes captures per output and turns producer frames into
// thumbnails.
type Capturer struct {
	// Timeout bounds each producer run; DefaultTimeout when zero.
	Timeout time.Duration

	producer   Producer
	thumbWidth int
	logger     *slog.Logger

	requests chan Request

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewCapturer creates a capturer over producer.
func NewCapturer(producer Producer, thumbWidth int, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	if thumbWidth <= 0 {
		thumbWidth = DefaultThumbnailWidth
	}
	return &Capturer{
		Timeout:    DefaultTimeout,
		producer:   producer,
		thumbWidth: thumbWidth,
		logger:     logger,
		requests:   make(chan Request, 16),
		locks:      make(map[string]*sync.Mutex),
	}
}

// Request queues a capture without blocking. When the queue is full the
// oldest request is discarded, as only the latest per output matters.
func (c *Capturer) Request(output string, workspace int) {
	req := Request{Output: output, Workspace: workspace}
	for {
		select {
		case c.requests <- req:
			return
		default:
		}
		select {
		case <-c.requests:
		default:
		}
	}
}

// lock returns the mutex that serializes captures of output.
func (c *Capturer) lock(output string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	mu, ok := c.locks[output]
	if !ok {
		mu = &sync.Mutex{}
		c.locks[output] = mu
	}
	return mu
}

// Capture takes one thumbnail. Captures of the same output never overlap;
// different outputs may run concurrently.
func (c *Capturer) Capture(ctx context.Context, output string, workspace int) (Frame, error) {
	mu := c.lock(output)
	mu.Lock()
	defer mu.Unlock()

	f, err := newMemfd("hyprbar-capture")
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	err = c.producer.Produce(pctx, output, f)
	cancel()
	if err != nil {
		return Frame{}, fmt.Errorf("failed to capture %s: %w", output, err)
	}

	m, err := mapReadOnly(f)
	if err != nil {
		return Frame{}, err
	}
	img, err := DecodePPM(m.data)
	if err != nil {
		_ = m.unmap()
		return Frame{}, err
	}
	// img owns its pixels, the mapping can go.
	if err := m.unmap(); err != nil {
		c.logger.Warn("failed to unmap capture buffer", "output", output, "error", err)
	}

	return Frame{
		Output:     output,
		Workspace:  workspace,
		Image:      Thumbnail(img, c.thumbWidth),
		SourceSize: img.Bounds().Size(),
		At:         time.Now(),
	}, nil
}

// Run serves requests until ctx is cancelled. Each burst of queued
// requests is reduced to the latest per output, and distinct outputs are
// captured concurrently.
func (c *Capturer) Run(ctx context.Context, out chan<- Frame) error {
	for {
		var first Request
		select {
		case <-ctx.Done():
			return ctx.Err()
		case first = <-c.requests:
		}

		burst := c.drain(first)

		g, gctx := errgroup.WithContext(ctx)
		for _, req := range burst {
			g.Go(func() error {
				frame, err := c.Capture(gctx, req.Output, req.Workspace)
				if err != nil {
					c.logger.Debug("capture failed", "output", req.Output, "workspace", req.Workspace, "error", err)
					return nil
				}
				source.Send(gctx, out, frame)
				return nil
			})
		}
		_ = g.Wait()
	}
}

// drain collects everything already queued and keeps the latest request
// per output, in first-seen order.
func (c *Capturer) drain(first Request) []Request {
	burst := []Request{first}
	index := map[string]int{first.Output: 0}
	for {
		select {
		case req := <-c.requests:
			if i, ok := index[req.Output]; ok {
				burst[i] = req
				continue
			}
			index[req.Output] = len(burst)
			burst = append(burst, req)
		default:
			return burst
		}
	}
}

// Worker binds the capturer to its output channel.
func (c *Capturer) Worker(out chan<- Frame) source.Worker {
	return source.Func("capture", func(ctx context.Context) error {
		return c.Run(ctx, out)
	})
}
