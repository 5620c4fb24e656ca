package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports how many documents a run has re-embedded.
// A line is written each time at least interval documents complete since the
// previous line, and once more on Finish.
type Progress struct {
	mu           sync.Mutex
	writer       io.Writer
	total        int
	interval     int
	done         int
	lastReported int
	start        time.Time
	now          func() time.Time
}

// NewProgress creates a tracker for total documents writing to w.
// An interval below 1 reports after every update.
func NewProgress(w io.Writer, total, interval int) *Progress {
	if w == nil {
		w = io.Discard
	}
	if interval < 1 {
		interval = 1
	}
	return &Progress{
		writer:   w,
		total:    total,
		interval: interval,
		now:      time.Now,
	}
}

// Start resets the counters and the clock.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = p.now()
	p.done = 0
	p.lastReported = 0
}

// Add records n more completed documents. The count never exceeds the total.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.done
	}
}

// Done returns the number of completed documents.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish writes the final line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *Progress) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return p.now().Sub(p.start)
}

// report must be called with the lock held.
func (p *Progress) report() {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100
	}
	rate := 0.0
	if secs := p.now().Sub(p.start).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.writer, "\rRe-embedded %d/%d documents (%.1f%%) - %.1f docs/s",
		p.done, p.total, percentage, rate)
}
