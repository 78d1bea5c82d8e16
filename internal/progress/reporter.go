// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress renders batch download progress as a periodically
// redrawn status line.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalArticles is the number of identifiers in the run, including
	// ones that will be skipped.
	TotalArticles int

	// Output is where to write progress output. Default: os.Stdout.
	Output io.Writer

	// UpdateInterval is how often to redraw. Default: 500ms.
	UpdateInterval time.Duration
}

// Reporter tracks per-article outcomes and transferred bytes across
// concurrent workers. All counters are atomic; methods are safe for
// concurrent use.
type Reporter struct {
	opts Options

	done   atomic.Int32
	failed atomic.Int32
	bytes  atomic.Int64

	start   time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewReporter creates a progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	return &Reporter{opts: opts, stopCh: make(chan struct{}), doneCh: make(chan struct{})}
}

// Start begins the redraw loop.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	r.start = time.Now()
	go r.updateLoop()
}

// Stop ends the redraw loop and prints the final status, returning once
// the final line is written. Safe to call more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	close(r.stopCh)
	<-r.doneCh
}

// ArticleDone records one finished article; failed marks an
// unsuccessful outcome.
func (r *Reporter) ArticleDone(failed bool) {
	r.done.Add(1)
	if failed {
		r.failed.Add(1)
	}
}

// AddBytes records transferred payload bytes.
func (r *Reporter) AddBytes(n int64) {
	r.bytes.Add(n)
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinal()
			return
		case <-ticker.C:
			r.printLine()
		}
	}
}

func (r *Reporter) printLine() {
	fmt.Fprintf(r.opts.Output, "\r[sbpub] %d/%d articles | %s transferred | %d failed    ",
		r.done.Load(), r.opts.TotalArticles, formatBytes(r.bytes.Load()), r.failed.Load())
}

func (r *Reporter) printFinal() {
	fmt.Fprintf(r.opts.Output, "\r[sbpub] %d/%d articles | %s transferred | %d failed | %s total\n",
		r.done.Load(), r.opts.TotalArticles, formatBytes(r.bytes.Load()), r.failed.Load(),
		formatDuration(time.Since(r.start)))
}

// formatBytes formats a byte count for humans.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats an elapsed duration for humans.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
